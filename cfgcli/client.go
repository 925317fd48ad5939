package cfgcli

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheSmallBoat/meshcfg/foundation"
	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
)

const (
	DefaultTimeout    = 4 * time.Second
	DefaultMaxPending = 64
)

// Client issues configuration requests and correlates status replies with them.
//
// All registry state lives on a single processing goroutine. Entry points, inbound
// messages and deadline expiry reach it by posting closures, so a reply and a timeout
// for the same transaction are simply processed in order and the second finds nothing.
type Client struct {
	transport  Transport
	bridge     Bridge
	log        zerolog.Logger
	maxPending int

	timeout atomic.Int64

	work   chan func()
	done   chan struct{}
	exited chan struct{}
	stop   sync.Once

	reg *registry
}

type Option func(c *Client)

func WithBridge(b Bridge) Option { return func(c *Client) { c.bridge = b } }

func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.SetTimeout(d) } }

// WithMaxPending bounds the number of outstanding transactions. Zero or less removes the bound.
func WithMaxPending(n int) Option { return func(c *Client) { c.maxPending = n } }

func NewClient(tr Transport, opts ...Option) *Client {
	c := &Client{
		transport:  tr,
		bridge:     DefaultBridge,
		log:        zerolog.Nop(),
		maxPending: DefaultMaxPending,
		work:       make(chan func()),
		done:       make(chan struct{}),
		exited:     make(chan struct{}),
	}
	c.timeout.Store(int64(DefaultTimeout))
	for _, opt := range opts {
		opt(c)
	}
	c.reg = newRegistry(c.maxPending)

	go c.run()

	return c
}

// Timeout returns the deadline applied to requests sent from now on.
func (c *Client) Timeout() time.Duration { return time.Duration(c.timeout.Load()) }

// SetTimeout changes the deadline for future requests; d <= 0 restores DefaultTimeout.
// Pending transactions keep the deadline they were sent with.
func (c *Client) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	c.timeout.Store(int64(d))
}

// Pending returns the number of outstanding transactions.
func (c *Client) Pending() int {
	n := 0
	_ = c.exec(func() { n = c.reg.len() })
	return n
}

// Shutdown stops the processing goroutine. Every pending transaction is reported to
// the bridge as canceled before Shutdown returns.
func (c *Client) Shutdown() {
	c.stop.Do(func() { close(c.done) })
	<-c.exited
}

func (c *Client) run() {
	defer close(c.exited)

	for {
		select {
		case fn := <-c.work:
			fn()
		case <-c.done:
			c.cancelAll()
			return
		}
	}
}

// post queues fn on the processing goroutine. It reports false once the client is closed.
func (c *Client) post(fn func()) bool {
	select {
	case c.work <- fn:
		return true
	case <-c.done:
		return false
	}
}

// exec runs fn on the processing goroutine and waits for it.
func (c *Client) exec(fn func()) error {
	ran := make(chan struct{})
	if !c.post(func() { fn(); close(ran) }) {
		return ErrClientClosed
	}
	<-ran
	return nil
}

func (c *Client) request(ctx context.Context, mctx MsgContext, req foundation.Request) error {
	if mctx.Addr == 0 {
		return fmt.Errorf("%w: unassigned destination address", ErrInvalidArgument)
	}

	op := req.Opcode()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.B = req.AppendTo(buf.B[:0])

	var (
		id  uint64
		err error
	)
	timeout := c.Timeout()
	if xerr := c.exec(func() {
		var t *transaction
		if t, err = c.reg.begin(mctx, op, time.Now(), timeout); err == nil {
			id = t.id
		}
	}); xerr != nil {
		return xerr
	}
	if err != nil {
		return err
	}

	if err := c.transport.Send(ctx, mctx, op, buf.B); err != nil {
		recordRequest(op, err)
		_ = c.exec(func() {
			if t := c.reg.remove(id); t != nil {
				c.discard(t)
			}
		})
		c.log.Warn().Err(err).
			Str("opcode", foundation.OpcodeName(op)).
			Str("dst", fmt.Sprintf("0x%04x", mctx.Addr)).
			Msg("send failed")
		return fmt.Errorf("send %s to 0x%04x: %w", foundation.OpcodeName(op), mctx.Addr, err)
	}

	recordRequest(op, nil)
	c.post(func() { c.arm(id) })

	c.log.Debug().
		Uint64("tx", id).
		Str("opcode", foundation.OpcodeName(op)).
		Str("dst", fmt.Sprintf("0x%04x", mctx.Addr)).
		Dur("timeout", timeout).
		Msg("request sent")

	return nil
}

// arm marks the transaction sent and starts its deadline timer. A reply that arrived
// while Send was still running is delivered now instead.
func (c *Client) arm(id uint64) {
	t, ok := c.reg.byID[id]
	if !ok {
		return
	}
	t.sent = true
	if t.early != nil {
		c.reg.remove(id)
		ev := *t.early
		recordRoundTrip(t.opcode, time.Since(t.created))
		transactionPool.release(t)
		c.deliver(ev)
		releaseStatus(ev.Status)
		return
	}
	t.timer = time.AfterFunc(time.Until(t.deadline), func() {
		c.post(func() { c.expire(id) })
	})
}

// discard releases a transaction whose request never left, dropping any reply held on it.
func (c *Client) discard(t *transaction) {
	if t.early != nil {
		recordDropped("send_failed")
		releaseStatus(t.early.Status)
	}
	transactionPool.release(t)
}

func releaseStatus(s foundation.Status) {
	if r, ok := s.(foundation.Releaser); ok {
		r.Release()
	}
}

func (c *Client) expire(id uint64) {
	t := c.reg.remove(id)
	if t == nil {
		return
	}
	ev := Event{Type: EventTimeout, Opcode: t.opcode, Ctx: t.ctx}
	transactionPool.release(t)

	c.log.Warn().
		Uint64("tx", id).
		Str("opcode", foundation.OpcodeName(ev.Opcode)).
		Str("dst", fmt.Sprintf("0x%04x", ev.Ctx.Addr)).
		Msg("status timeout")

	c.deliver(ev)
}

func (c *Client) cancelAll() {
	for _, t := range c.reg.drain() {
		ev := Event{Type: EventCanceled, Opcode: t.opcode, Ctx: t.ctx}
		if t.early != nil {
			releaseStatus(t.early.Status)
		}
		transactionPool.release(t)
		c.deliver(ev)
	}
}

// HandleMessage accepts an inbound status message. Unknown opcodes and payloads
// shorter than the opcode's minimum are rejected here; everything else is copied and
// classified on the processing goroutine.
func (c *Client) HandleMessage(mctx MsgContext, opcode foundation.OpCode, payload []byte) error {
	entry, ok := foundation.LookupStatus(opcode)
	if !ok {
		recordDropped("unknown_opcode")
		return fmt.Errorf("%w: 0x%04x", foundation.ErrUnknownOpcode, opcode)
	}
	if len(payload) < entry.MinLen {
		recordDropped("short_payload")
		return fmt.Errorf("%w: %s carries %d bytes, want at least %d",
			foundation.ErrShortPayload, foundation.OpcodeName(opcode), len(payload), entry.MinLen)
	}

	buf := bytebufferpool.Get()
	buf.B = append(buf.B[:0], payload...)

	if !c.post(func() {
		defer bytebufferpool.Put(buf)
		c.classify(mctx, entry, buf.B)
	}) {
		bytebufferpool.Put(buf)
		return ErrClientClosed
	}
	return nil
}

func (c *Client) classify(mctx MsgContext, entry foundation.StatusEntry, payload []byte) {
	status, err := entry.Decode(payload)
	if err != nil {
		recordDropped("decode")
		c.log.Warn().Err(err).
			Str("opcode", foundation.OpcodeName(entry.Opcode)).
			Str("src", fmt.Sprintf("0x%04x", mctx.Addr)).
			Msg("malformed status")
		return
	}

	ev := Event{Type: EventPublish, Opcode: entry.Opcode, Ctx: mctx, Status: status}

	if t := c.reg.match(mctx.Addr, entry.Opcode); t != nil {
		ev.Type = EventGet
		if t.category == foundation.CategorySet {
			ev.Type = EventSet
		}
		ev.Opcode = t.opcode
		if !t.sent {
			// Send has not returned; arm or discard decides.
			t.early = &ev
			return
		}
		recordRoundTrip(t.opcode, time.Since(t.created))
		transactionPool.release(t)
	}

	c.deliver(ev)
	releaseStatus(status)
}

func (c *Client) deliver(ev Event) {
	recordEvent(ev)
	c.bridge.Deliver(ev)
}
