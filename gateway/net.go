package gateway

import (
	"net"

	"github.com/TheSmallBoat/meshcfg/cfgcli"
	"github.com/TheSmallBoat/meshcfg/foundation"
)

type ConnState int

const (
	StateNew ConnState = iota
	StateClosed
)

func (s ConnState) String() string {
	if s == StateNew {
		return "connected"
	}
	return "disconnected"
}

type ConnStateHandler interface {
	HandleConnState(addr string, state ConnState)
}

type ConnStateHandlerFunc func(addr string, state ConnState)

func (fn ConnStateHandlerFunc) HandleConnState(addr string, state ConnState) { fn(addr, state) }

var DefaultConnStateHandler ConnStateHandlerFunc = func(addr string, state ConnState) {}

// Handler receives access messages read off a link. *cfgcli.Client implements it.
type Handler interface {
	HandleMessage(mctx cfgcli.MsgContext, opcode foundation.OpCode, payload []byte) error
}

type HandlerFunc func(mctx cfgcli.MsgContext, opcode foundation.OpCode, payload []byte) error

func (fn HandlerFunc) HandleMessage(mctx cfgcli.MsgContext, opcode foundation.OpCode, payload []byte) error {
	return fn(mctx, opcode, payload)
}

var DefaultHandler HandlerFunc = func(mctx cfgcli.MsgContext, opcode foundation.OpCode, payload []byte) error {
	return nil
}

var _ Handler = (*cfgcli.Client)(nil)
var _ cfgcli.Transport = (*Link)(nil)

// FrameHandler serves frames arriving at a Server. reply writes a frame back on the
// same connection.
type FrameHandler interface {
	HandleFrame(f Frame, reply func(Frame) error)
}

type FrameHandlerFunc func(f Frame, reply func(Frame) error)

func (fn FrameHandlerFunc) HandleFrame(f Frame, reply func(Frame) error) { fn(f, reply) }

type BindFunc func() (net.Listener, error)

func BindTCPAnyPort() BindFunc {
	return func() (net.Listener, error) { return net.Listen("tcp", ":0") }
}

func BindTCP(addr string) BindFunc {
	return func() (net.Listener, error) { return net.Listen("tcp", addr) }
}
