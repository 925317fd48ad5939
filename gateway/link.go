package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/TheSmallBoat/meshcfg/cfgcli"
	"github.com/TheSmallBoat/meshcfg/foundation"
	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/time/rate"
)

const (
	DefaultDialTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

var (
	ErrNotConnected = errors.New("gateway: not connected")
	ErrLinkClosed   = errors.New("gateway: link closed")
)

// Link is a connection to a mesh gateway daemon. Outbound access messages are framed
// and written by Send; inbound frames are parsed and passed to the Handler from a
// single reader goroutine. A dropped connection is redialed with backoff until Close.
type Link struct {
	addr         string
	handler      Handler
	state        ConnStateHandler
	dialTimeout  time.Duration
	writeTimeout time.Duration
	limiter      *rate.Limiter
	backoff      backoff.Backoff
	log          zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

type Option func(l *Link)

func WithDialTimeout(d time.Duration) Option { return func(l *Link) { l.dialTimeout = d } }

func WithWriteTimeout(d time.Duration) Option { return func(l *Link) { l.writeTimeout = d } }

// WithSendRate limits outbound frames to limit per second with the given burst.
func WithSendRate(limit rate.Limit, burst int) Option {
	return func(l *Link) { l.limiter = rate.NewLimiter(limit, burst) }
}

func WithBackoff(lo, hi time.Duration) Option {
	return func(l *Link) { l.backoff.Min, l.backoff.Max = lo, hi }
}

func WithConnState(h ConnStateHandler) Option { return func(l *Link) { l.state = h } }

func WithLogger(log zerolog.Logger) Option { return func(l *Link) { l.log = log } }

// Dial connects to the gateway at addr, retrying with backoff until ctx is done.
func Dial(ctx context.Context, addr string, h Handler, opts ...Option) (*Link, error) {
	if h == nil {
		h = DefaultHandler
	}
	l := &Link{
		addr:         addr,
		handler:      h,
		state:        DefaultConnStateHandler,
		dialTimeout:  DefaultDialTimeout,
		writeTimeout: DefaultWriteTimeout,
		backoff: backoff.Backoff{
			Factor: 1.25,
			Jitter: true,
			Min:    500 * time.Millisecond,
			Max:    5 * time.Second,
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	conn, err := l.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("gateway: dial %s: %w", addr, err)
	}

	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.setConn(conn)

	l.wg.Add(1)
	go l.run(conn)

	return l, nil
}

func (l *Link) Addr() string { return l.addr }

// Send implements cfgcli.Transport.
func (l *Link) Send(ctx context.Context, mctx cfgcli.MsgContext, opcode foundation.OpCode, payload []byte) error {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	pdu := bytebufferpool.Get()
	defer bytebufferpool.Put(pdu)

	pdu.B = foundation.AppendOpcode(pdu.B[:0], opcode)
	pdu.B = append(pdu.B, payload...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrLinkClosed
	}
	if l.conn == nil {
		return ErrNotConnected
	}
	if l.writeTimeout > 0 {
		if err := l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout)); err != nil {
			return err
		}
	}
	if err := WriteFrame(l.conn, FrameFor(mctx, pdu.B)); err != nil {
		return fmt.Errorf("gateway: write: %w", err)
	}
	return nil
}

// Close stops reconnecting, closes the connection and waits for the reader goroutine.
func (l *Link) Close() error {
	l.cancel()

	l.mu.Lock()
	l.closed = true
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	l.wg.Wait()
	return err
}

func (l *Link) connect(ctx context.Context) (net.Conn, error) {
	b := l.backoff
	for {
		dialer := net.Dialer{Timeout: l.dialTimeout}
		conn, err := dialer.DialContext(ctx, "tcp", l.addr)
		if err == nil {
			return conn, nil
		}

		wait := b.Duration()
		l.log.Warn().Err(err).Str("addr", l.addr).Dur("retry_in", wait).Msg("gateway dial failed")

		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
	}
}

func (l *Link) setConn(conn net.Conn) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		conn.Close()
		return false
	}
	l.conn = conn
	l.mu.Unlock()

	l.log.Info().Str("addr", l.addr).Msg("gateway connected")
	l.state.HandleConnState(l.addr, StateNew)
	return true
}

func (l *Link) dropConn(conn net.Conn) {
	l.mu.Lock()
	if l.conn == conn {
		l.conn = nil
	}
	l.mu.Unlock()

	conn.Close()
	l.state.HandleConnState(l.addr, StateClosed)
}

func (l *Link) run(conn net.Conn) {
	defer l.wg.Done()

	for {
		err := l.serve(conn)
		l.dropConn(conn)

		if l.ctx.Err() != nil {
			return
		}
		l.log.Warn().Err(err).Str("addr", l.addr).Msg("gateway connection lost")

		conn, err = l.connect(l.ctx)
		if err != nil {
			return
		}
		if !l.setConn(conn) {
			return
		}
	}
}

func (l *Link) serve(conn net.Conn) error {
	r := bufio.NewReader(conn)

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for {
		f, err := ReadFrame(r, buf)
		if err != nil {
			return err
		}

		op, params, err := foundation.ParseOpcode(f.PDU)
		if err != nil {
			l.log.Debug().Err(err).Msg("unparseable access pdu")
			continue
		}

		if err := l.handler.HandleMessage(f.Context(), op, params); err != nil {
			l.log.Debug().Err(err).
				Str("opcode", foundation.OpcodeName(op)).
				Str("src", fmt.Sprintf("0x%04x", f.Addr)).
				Msg("message rejected")
		}
	}
}
