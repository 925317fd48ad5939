package cfgcli

import "fmt"

// AppIdxDevKey selects the destination node's device key instead of an application key.
const AppIdxDevKey uint16 = 0xfffe

// MsgContext addresses a message: which network and key secure it and which node it is for.
// On inbound messages Addr is the source address.
type MsgContext struct {
	NetIdx uint16
	AppIdx uint16
	Addr   uint16
	TTL    uint8
}

// DevKeyContext returns the context configuration messages normally use: secured
// with the node's device key on the given network.
func DevKeyContext(netIdx, addr uint16) MsgContext {
	return MsgContext{NetIdx: netIdx, AppIdx: AppIdxDevKey, Addr: addr, TTL: DefaultTTL}
}

// DefaultTTL asks the transport to use the node's configured default TTL.
const DefaultTTL uint8 = 0xff

func (c MsgContext) String() string {
	return fmt.Sprintf("net=0x%03x app=0x%04x addr=0x%04x", c.NetIdx, c.AppIdx, c.Addr)
}
