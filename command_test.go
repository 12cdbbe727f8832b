package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MixinNetwork/udpfs/config"
	"github.com/MixinNetwork/udpfs/network"
	"github.com/MixinNetwork/udpfs/storage"
	"github.com/stretchr/testify/require"
)

func TestSendCmd(t *testing.T) {
	require := require.New(t)

	serverDir, err := os.MkdirTemp("", "udpfs-main-server")
	require.Nil(err)
	defer os.RemoveAll(serverDir)
	clientDir, err := os.MkdirTemp("", "udpfs-main-client")
	require.Nil(err)
	defer os.RemoveAll(clientDir)
	err = os.WriteFile(filepath.Join(serverDir, "notes.txt"), []byte("meeting notes"), 0644)
	require.Nil(err)

	custom, err := config.Initialize("")
	require.Nil(err)
	store, err := storage.NewFileStore(serverDir, 1)
	require.Nil(err)
	transport, err := network.NewUdpServer("127.0.0.1:0", custom.Protocol.PacketSize, 100*time.Millisecond)
	require.Nil(err)
	server, err := network.NewServer(custom, transport, store)
	require.Nil(err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Loop(ctx) }()
	defer func() {
		cancel()
		require.Nil(<-done)
	}()

	host := transport.LocalAddr().String()
	err = newApp().Run([]string{"udpfs", "--dir", clientDir, "send", host, "get", "notes.txt"})
	require.Nil(err)
	data, err := os.ReadFile(filepath.Join(clientDir, "notes.txt"))
	require.Nil(err)
	require.Equal("meeting notes", string(data))

	err = os.WriteFile(filepath.Join(clientDir, "draft.txt"), []byte("draft"), 0644)
	require.Nil(err)
	err = newApp().Run([]string{"udpfs", "-d", clientDir, "send", host, "put", "draft.txt"})
	require.Nil(err)
	data, err = os.ReadFile(filepath.Join(serverDir, "draft.txt"))
	require.Nil(err)
	require.Equal("draft", string(data))

	err = newApp().Run([]string{"udpfs", "-d", clientDir, "send", host, "get", "missing.txt"})
	require.NotNil(err)
	require.Equal("file not found missing.txt", err.Error())

	err = newApp().Run([]string{"udpfs", "send", host})
	require.NotNil(err)
	err = newApp().Run([]string{"udpfs", "-c", filepath.Join(clientDir, "absent.toml"), "send", host, "list"})
	require.NotNil(err)
}
