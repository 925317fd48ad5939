package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/TheSmallBoat/meshcfg/cfgcli"
	fd "github.com/TheSmallBoat/meshcfg/foundation"
	"github.com/TheSmallBoat/meshcfg/gateway"
	"github.com/urfave/cli"
	"golang.org/x/time/rate"
)

var errNoReply = errors.New("node did not answer")

// operation issues one configuration request to the node addressed by mctx.
type operation func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error

type outcome struct {
	typ  cfgcli.EventType
	line string
}

// runOperation connects to the gateway, sends the request built from the command line
// and prints the first transaction outcome.
func runOperation(build func(c *cli.Context) (operation, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		m := c.App.Metadata["config"].(*metadata)

		op, err := build(c)
		if err != nil {
			return err
		}
		dst, err := requireUint(c, "dst", 16)
		if err != nil {
			return err
		}
		if dst == 0 {
			return fmt.Errorf("invalid dst: 0x%04x", dst)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		outcomes := make(chan outcome, 1)
		bridge := cfgcli.BridgeFunc(func(ev cfgcli.Event) {
			line := describe(ev)
			if ev.Type == cfgcli.EventPublish {
				m.log.Info().Str("status", line).Msg("unsolicited status")
				return
			}
			select {
			case outcomes <- outcome{typ: ev.Type, line: line}:
			default:
			}
		})

		client, link, err := connect(ctx, m, bridge)
		if err != nil {
			return err
		}
		defer func() {
			client.Shutdown()
			if err := link.Close(); err != nil {
				m.log.Debug().Err(err).Msg("link close")
			}
		}()

		mctx := cfgcli.MsgContext{
			NetIdx: m.cfg.Client.NetIdx,
			AppIdx: cfgcli.AppIdxDevKey,
			Addr:   uint16(dst),
			TTL:    m.cfg.Client.TTL,
		}
		if err := op(ctx, client, mctx); err != nil {
			return err
		}

		select {
		case o := <-outcomes:
			fmt.Fprintln(m.w, o.line)
			if o.typ == cfgcli.EventTimeout || o.typ == cfgcli.EventCanceled {
				return errNoReply
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func connect(ctx context.Context, m *metadata, bridge cfgcli.Bridge) (*cfgcli.Client, *gateway.Link, error) {
	var link *gateway.Link
	tr := cfgcli.TransportFunc(func(ctx context.Context, mctx cfgcli.MsgContext, opcode fd.OpCode, payload []byte) error {
		return link.Send(ctx, mctx, opcode, payload)
	})
	client := cfgcli.NewClient(tr,
		cfgcli.WithBridge(bridge),
		cfgcli.WithLogger(m.log.With().Str("component", "client").Logger()),
		cfgcli.WithTimeout(m.cfg.ClientTimeout()),
		cfgcli.WithMaxPending(m.cfg.Client.MaxPending),
	)

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.Gateway.DialTimeoutDuration())
	defer cancel()

	link, err := gateway.Dial(dialCtx, m.cfg.Gateway.Addr, client, linkOptions(m)...)
	if err != nil {
		client.Shutdown()
		return nil, nil, err
	}
	return client, link, nil
}

func linkOptions(m *metadata) []gateway.Option {
	g := m.cfg.Gateway
	opts := []gateway.Option{
		gateway.WithDialTimeout(g.DialTimeoutDuration()),
		gateway.WithWriteTimeout(g.WriteTimeoutDuration()),
		gateway.WithBackoff(g.MinBackoffDuration(), g.MaxBackoffDuration()),
		gateway.WithLogger(m.log.With().Str("component", "gateway").Logger()),
		gateway.WithConnState(gateway.ConnStateHandlerFunc(func(addr string, state gateway.ConnState) {
			m.log.Debug().Str("addr", addr).Stringer("state", state).Msg("gateway link")
		})),
	}
	if g.SendRate > 0 {
		opts = append(opts, gateway.WithSendRate(rate.Limit(g.SendRate), g.SendBurst))
	}
	return opts
}

// describe renders an event on one line. It runs on the client goroutine, before a
// pooled status is released.
func describe(ev cfgcli.Event) string {
	name := fd.OpcodeName(ev.Opcode)
	switch s := ev.Status.(type) {
	case nil:
		return fmt.Sprintf("%s %s %s", ev.Type, name, ev.Ctx)
	case *fd.CompDataStatus:
		return fmt.Sprintf("%s %s %s page=%d data=%x", ev.Type, name, ev.Ctx, s.Page, s.Bytes())
	default:
		return fmt.Sprintf("%s %s %s %+v", ev.Type, name, ev.Ctx, s)
	}
}

// Numeric arguments accept decimal or 0x-prefixed hex.

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

func requireUint(c *cli.Context, name string, bits int) (uint64, error) {
	s := c.String(name)
	if s == "" {
		return 0, fmt.Errorf("missing required option --%s", name)
	}
	v, err := parseUint(s, bits)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func optionalUint(c *cli.Context, name string, bits int, def uint64) (uint64, error) {
	if c.String(name) == "" {
		return def, nil
	}
	return requireUint(c, name, bits)
}

func requireKey(c *cli.Context, name string) (key [16]byte, err error) {
	b, err := hex.DecodeString(strings.TrimSpace(c.String(name)))
	if err != nil {
		return key, fmt.Errorf("%s: %w", name, err)
	}
	if len(b) != len(key) {
		return key, fmt.Errorf("%s: want %d bytes of hex, got %d", name, len(key), len(b))
	}
	copy(key[:], b)
	return key, nil
}

// requireModel reads --model and the optional --cid. Without a company identifier the
// model is a SIG model.
func requireModel(c *cli.Context) (fd.ModelID, error) {
	id, err := requireUint(c, "model", 16)
	if err != nil {
		return fd.ModelID{}, err
	}
	if c.String("cid") == "" {
		return fd.SIGModel(uint16(id)), nil
	}
	cid, err := requireUint(c, "cid", 16)
	if err != nil {
		return fd.ModelID{}, err
	}
	return fd.VendorModel(uint16(cid), uint16(id)), nil
}
