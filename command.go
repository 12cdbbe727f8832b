package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MixinNetwork/udpfs/config"
	"github.com/MixinNetwork/udpfs/logger"
	"github.com/MixinNetwork/udpfs/network"
	"github.com/MixinNetwork/udpfs/rpc"
	"github.com/MixinNetwork/udpfs/storage"
	"github.com/urfave/cli/v2"
)

func setupCustom(c *cli.Context) (*config.Custom, io.Closer, error) {
	custom, err := config.Initialize(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if l := c.Int("log"); l > 0 {
		custom.Log.Level = l
	}
	if f := c.String("filter"); f != "" {
		custom.Log.Filter = f
	}

	logger.SetLevel(custom.Log.Level)
	logger.SetLimiter(custom.Log.Limiter)
	err = logger.SetFilter(custom.Log.Filter)
	if err != nil {
		return nil, nil, err
	}
	return custom, logger.SetOutput(custom.Log.File, custom.Log.MaxSize), nil
}

func serverCmd(c *cli.Context) error {
	custom, out, err := setupCustom(c)
	if err != nil {
		return err
	}
	defer out.Close()

	if p := c.Int("port"); p > 0 {
		custom.Server.Port = p
	}
	if p := c.Int("rpc"); p > 0 {
		custom.RPC.Port = p
	}
	if d := c.String("dir"); d != "" {
		custom.Server.Directory = d
	}

	store, err := storage.NewFileStore(custom.Server.Directory, custom.Server.CacheSize)
	if err != nil {
		return err
	}
	transport, err := network.NewUdpServer(custom.Listener(), custom.Protocol.PacketSize, custom.Timeout())
	if err != nil {
		return err
	}
	server, err := network.NewServer(custom, transport, store)
	if err != nil {
		return err
	}

	if p := custom.RPC.Port; p > 0 {
		hs := rpc.NewServer(server, p)
		go func() {
			err := hs.ListenAndServe()
			if err != nil {
				panic(err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Loop(ctx)
}

func setupClient(c *cli.Context, custom *config.Custom, host string) (*network.Client, func(), error) {
	if host == "" {
		host = custom.Client.Server
	}
	if host == "" {
		return nil, nil, fmt.Errorf("server host required")
	}
	if d := c.String("dir"); d != "" {
		custom.Client.Directory = d
	}
	store, err := storage.NewFileStore(custom.Client.Directory, 0)
	if err != nil {
		return nil, nil, err
	}
	transport, err := network.NewUdpClient(custom.Protocol.PacketSize, custom.Timeout())
	if err != nil {
		return nil, nil, err
	}
	client, err := network.NewClient(custom, transport, host, store)
	if err != nil {
		transport.Close()
		return nil, nil, err
	}
	return client, func() { transport.Close() }, nil
}

func clientCmd(c *cli.Context) error {
	custom, out, err := setupCustom(c)
	if err != nil {
		return err
	}
	defer out.Close()

	client, closer, err := setupClient(c, custom, c.Args().First())
	if err != nil {
		return err
	}
	defer closer()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return client.Interact(ctx, os.Stdin, os.Stdout)
}

func sendCmd(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: send <host> <command> [file]")
	}
	custom, out, err := setupCustom(c)
	if err != nil {
		return err
	}
	defer out.Close()

	client, closer, err := setupClient(c, custom, c.Args().First())
	if err != nil {
		return err
	}
	defer closer()

	res, err := client.Execute(strings.Join(c.Args().Tail(), " "))
	if err != nil {
		return err
	}
	fmt.Println(res.String())
	return nil
}
