package network

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MixinNetwork/udpfs/config"
	"github.com/MixinNetwork/udpfs/protocol"
	"github.com/MixinNetwork/udpfs/storage"
	"github.com/stretchr/testify/require"
)

func setupLoopback(t *testing.T) (*Client, string, string) {
	require := require.New(t)

	store, serverDir := setupStore(t)
	custom, err := config.Initialize("")
	require.Nil(err)

	serverTrans, err := NewUdpServer("127.0.0.1:0", custom.Protocol.PacketSize, 200*time.Millisecond)
	require.Nil(err)
	server, err := NewServer(custom, serverTrans, store)
	require.Nil(err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Loop(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		require.Nil(<-done)
	})

	clientDir, err := os.MkdirTemp("", "udpfs-client-test")
	require.Nil(err)
	t.Cleanup(func() { os.RemoveAll(clientDir) })
	clientStore, err := storage.NewFileStore(clientDir, 0)
	require.Nil(err)
	clientTrans, err := NewUdpClient(custom.Protocol.PacketSize, 2*time.Second)
	require.Nil(err)
	t.Cleanup(func() { clientTrans.Close() })

	client, err := NewClient(custom, clientTrans, serverTrans.LocalAddr().String(), clientStore)
	require.Nil(err)
	return client, serverDir, clientDir
}

func TestClientCommands(t *testing.T) {
	require := require.New(t)

	client, serverDir, clientDir := setupLoopback(t)

	res, err := client.Execute("list")
	require.Nil(err)
	require.Equal("report.txt\t16", res.String())

	res, err = client.Execute("get report.txt")
	require.Nil(err)
	require.Equal("received 16 bytes", res.String())
	data, err := os.ReadFile(filepath.Join(clientDir, "report.txt"))
	require.Nil(err)
	require.Equal("quarterly report", string(data))

	_, err = client.Execute("get missing.txt")
	require.True(errors.Is(err, protocol.ErrCommand))
	require.Equal("file not found missing.txt", err.Error())
	_, err = os.Stat(filepath.Join(clientDir, "missing.txt"))
	require.True(os.IsNotExist(err))

	upload := make([]byte, 20000)
	rand.Read(upload)
	err = os.WriteFile(filepath.Join(clientDir, "upload.bin"), upload, 0644)
	require.Nil(err)
	res, err = client.Execute("put upload.bin")
	require.Nil(err)
	require.Equal("sent 20000 bytes", res.String())
	data, err = os.ReadFile(filepath.Join(serverDir, "upload.bin"))
	require.Nil(err)
	require.True(bytes.Equal(upload, data))

	err = os.Remove(filepath.Join(clientDir, "upload.bin"))
	require.Nil(err)
	res, err = client.Execute("get upload.bin")
	require.Nil(err)
	require.Equal("received 20000 bytes", res.String())
	data, err = os.ReadFile(filepath.Join(clientDir, "upload.bin"))
	require.Nil(err)
	require.True(bytes.Equal(upload, data))

	_, err = client.Execute("put absent.bin")
	require.True(errors.Is(err, protocol.ErrPayload))
	require.Equal("file not found absent.bin", err.Error())

	_, err = client.Execute("delete report.txt")
	require.True(errors.Is(err, protocol.ErrUnknownCommand))
	require.Equal("invalid client command", err.Error())
}

func TestClientUnregisteredCommand(t *testing.T) {
	require := require.New(t)

	client, _, _ := setupLoopback(t)

	for _, p := range client.codec.Packets([]byte("delete /SEP/ report.txt")) {
		err := client.transport.Send(client.server, p)
		require.Nil(err)
	}
	packets, err := client.receive()
	require.Nil(err)
	require.Len(packets, 1)
	content, err := client.codec.Join(packets)
	require.Nil(err)

	req, err := client.requester.Lookup("list")
	require.Nil(err)
	_, err = client.requester.Result(req, content)
	require.True(errors.Is(err, protocol.ErrCommand))
	require.Equal("invalid server command", err.Error())
}

func TestClientTimeout(t *testing.T) {
	require := require.New(t)

	custom, err := config.Initialize("")
	require.Nil(err)
	silent, err := NewUdpServer("127.0.0.1:0", custom.Protocol.PacketSize, 0)
	require.Nil(err)
	defer silent.Close()

	clientTrans, err := NewUdpClient(custom.Protocol.PacketSize, 100*time.Millisecond)
	require.Nil(err)
	defer clientTrans.Close()
	client, err := NewClient(custom, clientTrans, silent.LocalAddr().String(), nil)
	require.Nil(err)

	_, err = client.Execute("list")
	require.True(errors.Is(err, protocol.ErrTimeout))
	require.Equal("command timed out", err.Error())

	_, err = NewClient(custom, clientTrans, "bad host name:port", nil)
	require.NotNil(err)
	client, err = NewClient(custom, clientTrans, "127.0.0.1", nil)
	require.Nil(err)
	require.Equal(config.ServerPort, client.server.Port)
}

func TestClientInteract(t *testing.T) {
	require := require.New(t)

	client, _, _ := setupLoopback(t)

	var out bytes.Buffer
	in := strings.NewReader("list\n\nbogus\nget missing.txt\nquit\nlist\n")
	err := client.Interact(context.Background(), in, &out)
	require.Nil(err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal([]string{
		"client started",
		"input commands:",
		"report.txt\t16",
		"invalid client command",
		"file not found missing.txt",
		"closing client",
	}, lines)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out.Reset()
	reader, writer, err := os.Pipe()
	require.Nil(err)
	defer writer.Close()
	defer reader.Close()
	err = client.Interact(ctx, reader, &out)
	require.Nil(err)
	require.Contains(out.String(), "closing client")
}
