package cfgcli

import (
	"context"
	"fmt"

	"github.com/TheSmallBoat/meshcfg/foundation"
)

type EventType uint8

const (
	EventGet      EventType = 0x00 // reply to a request that reads state
	EventSet      EventType = 0x01 // reply to a request that changes state
	EventPublish  EventType = 0x02 // status nobody asked for
	EventTimeout  EventType = 0x03 // no reply before the deadline
	EventCanceled EventType = 0x04 // dropped by Shutdown
)

func (t EventType) String() string {
	switch t {
	case EventGet:
		return "get"
	case EventSet:
		return "set"
	case EventPublish:
		return "publish"
	case EventTimeout:
		return "timeout"
	case EventCanceled:
		return "canceled"
	}
	return fmt.Sprintf("event(0x%02x)", uint8(t))
}

// Event reports the outcome of a transaction, or an unsolicited status.
//
// Opcode is the request opcode for get, set, timeout and canceled events, and the
// received status opcode for publish events. Status is nil for timeout and canceled
// events. A status implementing foundation.Releaser is released once the bridge
// returns, so the bridge must copy whatever it wants to keep.
type Event struct {
	Type   EventType
	Opcode foundation.OpCode
	Ctx    MsgContext
	Status foundation.Status
}

// Bridge receives events on the client's processing goroutine. It must not block and
// must not call back into the client synchronously.
type Bridge interface {
	Deliver(ev Event)
}

type BridgeFunc func(ev Event)

func (fn BridgeFunc) Deliver(ev Event) { fn(ev) }

var DefaultBridge BridgeFunc = func(ev Event) {}

// Transport hands an access PDU to the mesh. payload holds the parameters only; the
// transport frames the opcode. payload is only valid for the duration of the call.
// A reply handed to the client before Send returns is delivered only if Send succeeds.
type Transport interface {
	Send(ctx context.Context, mctx MsgContext, opcode foundation.OpCode, payload []byte) error
}

type TransportFunc func(ctx context.Context, mctx MsgContext, opcode foundation.OpCode, payload []byte) error

func (fn TransportFunc) Send(ctx context.Context, mctx MsgContext, opcode foundation.OpCode, payload []byte) error {
	return fn(ctx, mctx, opcode, payload)
}
