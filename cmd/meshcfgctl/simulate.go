package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheSmallBoat/meshcfg/gateway"
	"github.com/TheSmallBoat/meshcfg/simnode"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"
)

// page 0 of a single element node with the configuration server model
var defaultCompData = []byte{
	0xf1, 0x05, // CID
	0x01, 0x00, // PID
	0x01, 0x00, // VID
	0x0a, 0x00, // CRPL
	0x07, 0x00, // features: relay, proxy, friend
	0x00, 0x00, // location
	0x01, 0x00, // one SIG model, no vendor models
	0x00, 0x00,
}

func simulateCommand() cli.Command {
	return cli.Command{
		Name:  "simulate",
		Usage: "serve simulated nodes behind a local gateway",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "listen",
				Value: "",
				Usage: " gateway `HOST:PORT` [gateway address from the configuration]",
			},
			cli.StringSliceFlag{
				Name:  "node",
				Usage: " simulated node unicast `ADDRESS`, repeatable [0x0002]",
			},
			cli.StringFlag{
				Name:  "metrics",
				Value: "",
				Usage: " serve /metrics and /nodes on `HOST:PORT`",
			},
		},
		Action: runSimulate,
	}
}

func runSimulate(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	listen := c.String("listen")
	if listen == "" {
		listen = m.cfg.Gateway.Addr
	}

	addrs := c.StringSlice("node")
	if len(addrs) == 0 {
		addrs = []string{"0x0002"}
	}
	nodes := make([]*simnode.Node, 0, len(addrs))
	for _, s := range addrs {
		addr, err := parseUint(s, 16)
		if err != nil {
			return fmt.Errorf("node: %w", err)
		}
		if addr == 0 || addr >= 0x8000 {
			return fmt.Errorf("node: 0x%04x is not a unicast address", addr)
		}
		nodes = append(nodes, simnode.New(uint16(addr), defaultCompData))
	}
	network := simnode.NewNetwork(nodes...)

	ln, err := gateway.BindTCP(listen)()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &gateway.Server{Handler: simnode.Logged(network, m.log.With().Str("component", "simnode").Logger())}
	errs := make(chan error, 2)
	go func() { errs <- server.Serve(ln) }()
	defer server.Shutdown()

	if addr := c.String("metrics"); addr != "" {
		srv := &http.Server{Addr: addr, Handler: simulatorRoutes(network)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		m.log.Info().Str("addr", addr).Msg("serving simulator metrics")
	}

	m.log.Info().Str("addr", ln.Addr().String()).Interface("nodes", network.Addrs()).Msg("simulating nodes")

	select {
	case <-ctx.Done():
		m.log.Info().Msg("simulator stopping")
		return nil
	case err := <-errs:
		return err
	}
}

func simulatorRoutes(network *simnode.Network) http.Handler {
	simnode.RegisterMetrics()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/nodes", func(c *gin.Context) {
		nodes := make([]gin.H, 0)
		for _, addr := range network.Addrs() {
			n, _ := network.Node(addr)
			nodes = append(nodes, gin.H{
				"addr":   fmt.Sprintf("0x%04x", addr),
				"resets": n.Resets(),
			})
		}
		c.JSON(http.StatusOK, gin.H{"nodes": nodes})
	})
	return r
}
