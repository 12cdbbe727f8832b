package main

import (
	"fmt"
	"os"

	"github.com/MixinNetwork/udpfs/config"
	"github.com/urfave/cli/v2"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "udpfs"
	app.Usage = "A tiny file exchange over fragmented UDP datagrams."
	app.Version = config.BuildVersion
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "the TOML configuration file, defaults are used when empty",
		},
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "the directory to serve or save files, overrides the configuration",
		},
		&cli.IntFlag{
			Name:    "log",
			Aliases: []string{"l"},
			Usage:   "the log level, overrides the configuration",
		},
		&cli.StringFlag{
			Name:  "filter",
			Usage: "the RE2 regex pattern to filter log",
		},
	}
	app.EnableBashCompletion = true
	app.Commands = []*cli.Command{
		{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Start the file server",
			Action:  serverCmd,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "port",
					Aliases: []string{"p"},
					Usage:   "the UDP port to listen",
				},
				&cli.IntFlag{
					Name:  "rpc",
					Usage: "the HTTP port for the status RPC, 0 to disable",
				},
			},
		},
		{
			Name:      "client",
			Usage:     "Start an interactive client",
			ArgsUsage: "<host>",
			Action:    clientCmd,
		},
		{
			Name:      "send",
			Usage:     "Run a single command against the server",
			ArgsUsage: "<host> <command> [file]",
			Action:    sendCmd,
		},
	}
	return app
}
