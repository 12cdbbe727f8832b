package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	require := require.New(t)

	custom, err := Initialize("./config.example.toml")
	require.Nil(err)

	require.Equal(512, custom.Protocol.PacketSize)
	require.Equal(10*time.Second, custom.Timeout())
	require.Equal(4000, custom.Server.Port)
	require.Equal(":4000", custom.Listener())
	require.Equal(2, custom.Server.MaxClients)
	require.Equal("/var/lib/udpfs", custom.Server.Directory)
	require.Equal(time.Duration(0), custom.SessionTTL())
	require.Equal(64, custom.Server.CacheSize)
	require.Equal("127.0.0.1", custom.Client.Server)
	require.Equal(6860, custom.RPC.Port)
	require.Equal(3, custom.Log.Level)
	require.Equal("(?i)get|put", custom.Log.Filter)
	require.Equal(128, custom.Log.MaxSize)
}

func TestConfigDefaults(t *testing.T) {
	require := require.New(t)

	custom, err := Initialize("")
	require.Nil(err)
	require.Equal(PacketSize, custom.Protocol.PacketSize)
	require.Equal(TimeoutMax, custom.Timeout())
	require.Equal(ServerPort, custom.Server.Port)
	require.Equal(MaxClients, custom.Server.MaxClients)
	require.Equal(".", custom.Server.Directory)
	require.Equal(".", custom.Client.Directory)
	require.Equal(0, custom.RPC.Port)
	require.Equal(2, custom.Log.Level)
}

func TestConfigInvalid(t *testing.T) {
	require := require.New(t)

	root, err := os.MkdirTemp("", "udpfs-config-test")
	require.Nil(err)
	defer os.RemoveAll(root)

	file := filepath.Join(root, "config.toml")
	err = os.WriteFile(file, []byte("[protocol]\npacket-size = 64\n"), 0644)
	require.Nil(err)
	_, err = Initialize(file)
	require.NotNil(err)
	require.Contains(err.Error(), "invalid packet size 64")

	err = os.WriteFile(file, []byte("[server]\nmax-clients = -1\n"), 0644)
	require.Nil(err)
	_, err = Initialize(file)
	require.NotNil(err)

	err = os.WriteFile(file, []byte("[server\n"), 0644)
	require.Nil(err)
	_, err = Initialize(file)
	require.NotNil(err)

	_, err = Initialize(filepath.Join(root, "missing.toml"))
	require.NotNil(err)
}
