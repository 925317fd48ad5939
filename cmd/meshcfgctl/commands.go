package main

import (
	"context"

	"github.com/TheSmallBoat/meshcfg/cfgcli"
	fd "github.com/TheSmallBoat/meshcfg/foundation"
	"github.com/urfave/cli"
)

var (
	dstFlag = cli.StringFlag{
		Name:  "dst, d",
		Value: "",
		Usage: "*node unicast `ADDRESS`",
	}
	setFlag = cli.StringFlag{
		Name:  "set, s",
		Value: "",
		Usage: " new state `VALUE`, reads the state when omitted",
	}
	netIdxFlag = cli.StringFlag{
		Name:  "net-idx, n",
		Value: "",
		Usage: "*network key `INDEX`",
	}
	appIdxFlag = cli.StringFlag{
		Name:  "app-idx, a",
		Value: "",
		Usage: "*application key `INDEX`",
	}
	keyFlag = cli.StringFlag{
		Name:  "key, k",
		Value: "",
		Usage: "*128-bit key as `HEX`",
	}
	elemFlag = cli.StringFlag{
		Name:  "elem, e",
		Value: "",
		Usage: "*element `ADDRESS`",
	}
	modelFlag = cli.StringFlag{
		Name:  "model, m",
		Value: "",
		Usage: "*model `ID`",
	}
	cidFlag = cli.StringFlag{
		Name:  "cid",
		Value: "",
		Usage: " company `ID` of a vendor model",
	}
	addrFlag = cli.StringFlag{
		Name:  "addr",
		Value: "",
		Usage: "*group or unicast `ADDRESS`",
	}
)

func nodeFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{dstFlag}, flags...)
}

type stateCommand struct {
	name  string
	usage string
	get   func(*cfgcli.Client, context.Context, cfgcli.MsgContext) error
	set   func(*cfgcli.Client, context.Context, cfgcli.MsgContext, uint8) error
}

var stateCommands = []stateCommand{
	{"beacon", "read or set the secure network beacon state", (*cfgcli.Client).BeaconGet, (*cfgcli.Client).BeaconSet},
	{"ttl", "read or set the default TTL", (*cfgcli.Client).TTLGet, (*cfgcli.Client).TTLSet},
	{"gatt-proxy", "read or set the GATT proxy state", (*cfgcli.Client).GattProxyGet, (*cfgcli.Client).GattProxySet},
	{"friend", "read or set the friend state", (*cfgcli.Client).FriendGet, (*cfgcli.Client).FriendSet},
	{"net-transmit", "read or set the network transmit state", (*cfgcli.Client).NetTransmitGet, (*cfgcli.Client).NetTransmitSet},
}

func commands() []cli.Command {
	cmds := []cli.Command{
		{
			Name:  "comp-data",
			Usage: "read a composition data page",
			Flags: nodeFlags(cli.StringFlag{
				Name:  "page, p",
				Value: "0",
				Usage: " composition data `PAGE`",
			}),
			Action: runOperation(compData),
		},
		{
			Name:  "relay",
			Usage: "read or set the relay state",
			Flags: nodeFlags(setFlag, cli.StringFlag{
				Name:  "retransmit, r",
				Value: "0",
				Usage: " relay retransmit `VALUE`",
			}),
			Action: runOperation(relay),
		},
		{
			Name:   "net-key-add",
			Usage:  "add a network key",
			Flags:  nodeFlags(netIdxFlag, keyFlag),
			Action: runOperation(netKeyAdd((*cfgcli.Client).NetKeyAdd)),
		},
		{
			Name:   "net-key-update",
			Usage:  "update a network key",
			Flags:  nodeFlags(netIdxFlag, keyFlag),
			Action: runOperation(netKeyAdd((*cfgcli.Client).NetKeyUpdate)),
		},
		{
			Name:   "net-key-del",
			Usage:  "delete a network key",
			Flags:  nodeFlags(netIdxFlag),
			Action: runOperation(withNetIdx((*cfgcli.Client).NetKeyDelete)),
		},
		{
			Name:   "net-key-list",
			Usage:  "list the network keys of a node",
			Flags:  nodeFlags(),
			Action: runOperation(plain((*cfgcli.Client).NetKeyGet)),
		},
		{
			Name:   "app-key-add",
			Usage:  "add an application key",
			Flags:  nodeFlags(netIdxFlag, appIdxFlag, keyFlag),
			Action: runOperation(appKeyAdd((*cfgcli.Client).AppKeyAdd)),
		},
		{
			Name:   "app-key-update",
			Usage:  "update an application key",
			Flags:  nodeFlags(netIdxFlag, appIdxFlag, keyFlag),
			Action: runOperation(appKeyAdd((*cfgcli.Client).AppKeyUpdate)),
		},
		{
			Name:   "app-key-del",
			Usage:  "delete an application key",
			Flags:  nodeFlags(netIdxFlag, appIdxFlag),
			Action: runOperation(appKeyDel),
		},
		{
			Name:   "app-key-list",
			Usage:  "list the application keys bound to a network key",
			Flags:  nodeFlags(netIdxFlag),
			Action: runOperation(withNetIdx((*cfgcli.Client).AppKeyGet)),
		},
		{
			Name:   "node-identity",
			Usage:  "read or set the node identity state of a subnet",
			Flags:  nodeFlags(netIdxFlag, setFlag),
			Action: runOperation(subnetState((*cfgcli.Client).NodeIdentityGet, (*cfgcli.Client).NodeIdentitySet)),
		},
		{
			Name:   "krp",
			Usage:  "read or set the key refresh phase of a subnet",
			Flags:  nodeFlags(netIdxFlag, setFlag),
			Action: runOperation(subnetState((*cfgcli.Client).KRPGet, (*cfgcli.Client).KRPSet)),
		},
		{
			Name:  "lpn-timeout",
			Usage: "read the poll timeout of a low power node",
			Flags: nodeFlags(cli.StringFlag{
				Name:  "lpn",
				Value: "",
				Usage: "*low power node `ADDRESS`",
			}),
			Action: runOperation(lpnTimeout),
		},
		{
			Name:   "mod-app-bind",
			Usage:  "bind an application key to a model",
			Flags:  nodeFlags(elemFlag, appIdxFlag, modelFlag, cidFlag),
			Action: runOperation(modApp((*cfgcli.Client).ModAppBind)),
		},
		{
			Name:   "mod-app-unbind",
			Usage:  "unbind an application key from a model",
			Flags:  nodeFlags(elemFlag, appIdxFlag, modelFlag, cidFlag),
			Action: runOperation(modApp((*cfgcli.Client).ModAppUnbind)),
		},
		{
			Name:   "mod-app-list",
			Usage:  "list the application keys bound to a model",
			Flags:  nodeFlags(elemFlag, modelFlag, cidFlag),
			Action: runOperation(modAppList),
		},
		{
			Name:   "mod-sub-add",
			Usage:  "subscribe a model to an address",
			Flags:  nodeFlags(elemFlag, addrFlag, modelFlag, cidFlag),
			Action: runOperation(modSub((*cfgcli.Client).ModSubAdd)),
		},
		{
			Name:   "mod-sub-del",
			Usage:  "remove a subscription address from a model",
			Flags:  nodeFlags(elemFlag, addrFlag, modelFlag, cidFlag),
			Action: runOperation(modSub((*cfgcli.Client).ModSubDelete)),
		},
		{
			Name:   "mod-sub-overwrite",
			Usage:  "replace the subscription list of a model with one address",
			Flags:  nodeFlags(elemFlag, addrFlag, modelFlag, cidFlag),
			Action: runOperation(modSub((*cfgcli.Client).ModSubOverwrite)),
		},
		{
			Name:   "mod-sub-del-all",
			Usage:  "clear the subscription list of a model",
			Flags:  nodeFlags(elemFlag, modelFlag, cidFlag),
			Action: runOperation(modSubDelAll),
		},
		{
			Name:   "mod-sub-list",
			Usage:  "list the subscription addresses of a model",
			Flags:  nodeFlags(elemFlag, modelFlag, cidFlag),
			Action: runOperation(modSubList),
		},
		{
			Name:   "mod-pub",
			Usage:  "read the publication of a model",
			Flags:  nodeFlags(elemFlag, modelFlag, cidFlag),
			Action: runOperation(modPubGet),
		},
		{
			Name:  "mod-pub-set",
			Usage: "set the publication of a model",
			Flags: nodeFlags(elemFlag, modelFlag, cidFlag, addrFlag, appIdxFlag,
				cli.BoolFlag{Name: "cred", Usage: " publish with friendship credentials"},
				cli.StringFlag{Name: "ttl", Value: "0xff", Usage: " publish `TTL`"},
				cli.StringFlag{Name: "period", Value: "0", Usage: " publish `PERIOD` byte"},
				cli.StringFlag{Name: "retransmit", Value: "0", Usage: " publish retransmit `VALUE`"},
			),
			Action: runOperation(modPubSet),
		},
		{
			Name:   "hb-pub",
			Usage:  "read the heartbeat publication",
			Flags:  nodeFlags(),
			Action: runOperation(plain((*cfgcli.Client).HeartbeatPubGet)),
		},
		{
			Name:   "hb-sub",
			Usage:  "read the heartbeat subscription",
			Flags:  nodeFlags(),
			Action: runOperation(plain((*cfgcli.Client).HeartbeatSubGet)),
		},
		{
			Name:   "reset",
			Usage:  "remove a node from the network",
			Flags:  nodeFlags(),
			Action: runOperation(plain((*cfgcli.Client).NodeReset)),
		},
		simulateCommand(),
	}

	for _, sc := range stateCommands {
		sc := sc
		cmds = append(cmds, cli.Command{
			Name:   sc.name,
			Usage:  sc.usage,
			Flags:  nodeFlags(setFlag),
			Action: runOperation(sc.build),
		})
	}
	return cmds
}

func (sc stateCommand) build(c *cli.Context) (operation, error) {
	if c.String("set") == "" {
		return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
			return sc.get(client, ctx, mctx)
		}, nil
	}
	v, err := requireUint(c, "set", 8)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
		return sc.set(client, ctx, mctx, uint8(v))
	}, nil
}

func plain(fn func(*cfgcli.Client, context.Context, cfgcli.MsgContext) error) func(*cli.Context) (operation, error) {
	return func(c *cli.Context) (operation, error) {
		return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
			return fn(client, ctx, mctx)
		}, nil
	}
}

func compData(c *cli.Context) (operation, error) {
	page, err := requireUint(c, "page", 8)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
		return client.CompDataGet(ctx, mctx, uint8(page))
	}, nil
}

func relay(c *cli.Context) (operation, error) {
	if c.String("set") == "" {
		return plain((*cfgcli.Client).RelayGet)(c)
	}
	state, err := requireUint(c, "set", 8)
	if err != nil {
		return nil, err
	}
	retransmit, err := requireUint(c, "retransmit", 8)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
		return client.RelaySet(ctx, mctx, uint8(state), uint8(retransmit))
	}, nil
}

func netKeyAdd(fn func(*cfgcli.Client, context.Context, cfgcli.MsgContext, uint16, [16]byte) error) func(*cli.Context) (operation, error) {
	return func(c *cli.Context) (operation, error) {
		netIdx, err := requireUint(c, "net-idx", 16)
		if err != nil {
			return nil, err
		}
		key, err := requireKey(c, "key")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
			return fn(client, ctx, mctx, uint16(netIdx), key)
		}, nil
	}
}

func withNetIdx(fn func(*cfgcli.Client, context.Context, cfgcli.MsgContext, uint16) error) func(*cli.Context) (operation, error) {
	return func(c *cli.Context) (operation, error) {
		netIdx, err := requireUint(c, "net-idx", 16)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
			return fn(client, ctx, mctx, uint16(netIdx))
		}, nil
	}
}

func subnetState(
	get func(*cfgcli.Client, context.Context, cfgcli.MsgContext, uint16) error,
	set func(*cfgcli.Client, context.Context, cfgcli.MsgContext, uint16, uint8) error,
) func(*cli.Context) (operation, error) {
	return func(c *cli.Context) (operation, error) {
		if c.String("set") == "" {
			return withNetIdx(get)(c)
		}
		netIdx, err := requireUint(c, "net-idx", 16)
		if err != nil {
			return nil, err
		}
		v, err := requireUint(c, "set", 8)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
			return set(client, ctx, mctx, uint16(netIdx), uint8(v))
		}, nil
	}
}

func appKeyAdd(fn func(*cfgcli.Client, context.Context, cfgcli.MsgContext, uint16, uint16, [16]byte) error) func(*cli.Context) (operation, error) {
	return func(c *cli.Context) (operation, error) {
		netIdx, err := requireUint(c, "net-idx", 16)
		if err != nil {
			return nil, err
		}
		appIdx, err := requireUint(c, "app-idx", 16)
		if err != nil {
			return nil, err
		}
		key, err := requireKey(c, "key")
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
			return fn(client, ctx, mctx, uint16(netIdx), uint16(appIdx), key)
		}, nil
	}
}

func appKeyDel(c *cli.Context) (operation, error) {
	netIdx, err := requireUint(c, "net-idx", 16)
	if err != nil {
		return nil, err
	}
	appIdx, err := requireUint(c, "app-idx", 16)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
		return client.AppKeyDelete(ctx, mctx, uint16(netIdx), uint16(appIdx))
	}, nil
}

func lpnTimeout(c *cli.Context) (operation, error) {
	lpn, err := requireUint(c, "lpn", 16)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
		return client.LPNTimeoutGet(ctx, mctx, uint16(lpn))
	}, nil
}

func elemModel(c *cli.Context) (uint16, fd.ModelID, error) {
	elem, err := requireUint(c, "elem", 16)
	if err != nil {
		return 0, fd.ModelID{}, err
	}
	model, err := requireModel(c)
	return uint16(elem), model, err
}

func modApp(fn func(*cfgcli.Client, context.Context, cfgcli.MsgContext, uint16, uint16, fd.ModelID) error) func(*cli.Context) (operation, error) {
	return func(c *cli.Context) (operation, error) {
		elem, model, err := elemModel(c)
		if err != nil {
			return nil, err
		}
		appIdx, err := requireUint(c, "app-idx", 16)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
			return fn(client, ctx, mctx, elem, uint16(appIdx), model)
		}, nil
	}
}

func modAppList(c *cli.Context) (operation, error) {
	elem, model, err := elemModel(c)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
		if model.IsVendor() {
			return client.VndModAppGet(ctx, mctx, elem, model)
		}
		return client.SigModAppGet(ctx, mctx, elem, model.ID)
	}, nil
}

func modSub(fn func(*cfgcli.Client, context.Context, cfgcli.MsgContext, uint16, uint16, fd.ModelID) error) func(*cli.Context) (operation, error) {
	return func(c *cli.Context) (operation, error) {
		elem, model, err := elemModel(c)
		if err != nil {
			return nil, err
		}
		addr, err := requireUint(c, "addr", 16)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
			return fn(client, ctx, mctx, elem, uint16(addr), model)
		}, nil
	}
}

func modSubDelAll(c *cli.Context) (operation, error) {
	elem, model, err := elemModel(c)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
		return client.ModSubDeleteAll(ctx, mctx, elem, model)
	}, nil
}

func modSubList(c *cli.Context) (operation, error) {
	elem, model, err := elemModel(c)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
		if model.IsVendor() {
			return client.ModSubGetVnd(ctx, mctx, elem, model)
		}
		return client.ModSubGet(ctx, mctx, elem, model.ID)
	}, nil
}

func modPubGet(c *cli.Context) (operation, error) {
	elem, model, err := elemModel(c)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
		return client.ModPubGet(ctx, mctx, elem, model)
	}, nil
}

func modPubSet(c *cli.Context) (operation, error) {
	elem, model, err := elemModel(c)
	if err != nil {
		return nil, err
	}
	pub := fd.ModPub{CredFlag: c.Bool("cred")}

	fields := []struct {
		name string
		bits int
		set  func(uint64)
	}{
		{"addr", 16, func(v uint64) { pub.Addr = uint16(v) }},
		{"app-idx", 16, func(v uint64) { pub.AppIdx = uint16(v) }},
		{"ttl", 8, func(v uint64) { pub.TTL = uint8(v) }},
		{"period", 8, func(v uint64) { pub.Period = uint8(v) }},
		{"retransmit", 8, func(v uint64) { pub.Transmit = uint8(v) }},
	}
	for _, f := range fields {
		v, err := requireUint(c, f.name, f.bits)
		if err != nil {
			return nil, err
		}
		f.set(v)
	}

	return func(ctx context.Context, client *cfgcli.Client, mctx cfgcli.MsgContext) error {
		return client.ModPubSet(ctx, mctx, elem, pub, model)
	}, nil
}
