package main

import (
	"fmt"
	"io"
	"os"

	"github.com/TheSmallBoat/meshcfg/config"
	"github.com/TheSmallBoat/meshcfg/logging"
	"github.com/rs/zerolog"
	"github.com/urfave/cli"
)

type metadata struct {
	cfg config.Config
	log zerolog.Logger
	w   io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero"

func main() {
	app := cli.NewApp()
	app.Name = "meshcfgctl"
	app.Usage = "configure mesh nodes through a gateway"
	app.Version = version

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "",
			Usage: " TOML configuration `FILE` [built-in defaults]",
		},
		cli.StringFlag{
			Name:  "gateway, g",
			Value: "",
			Usage: " gateway `HOST:PORT`, overrides the configuration",
		},
		cli.StringFlag{
			Name:  "log-level, l",
			Value: "",
			Usage: " log `LEVEL` [trace|debug|info|warn|error|off]",
		},
	}
	app.Commands = commands()

	app.Before = func(c *cli.Context) error {
		cfg := config.Default()
		if path := c.GlobalString("config"); path != "" {
			loaded, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if addr := c.GlobalString("gateway"); addr != "" {
			cfg.Gateway.Addr = addr
		}
		if level := c.GlobalString("log-level"); level != "" {
			cfg.Log.Level = level
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		c.App.Metadata["config"] = &metadata{
			cfg: cfg,
			log: logging.InitLogger(app.Name, cfg.Log.Level),
			w:   c.App.Writer,
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}
