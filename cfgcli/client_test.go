package cfgcli

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	fd "github.com/TheSmallBoat/meshcfg/foundation"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type sentMessage struct {
	mctx    MsgContext
	opcode  fd.OpCode
	payload []byte
}

type fakeTransport struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeTransport) Send(ctx context.Context, mctx MsgContext, opcode fd.OpCode, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{mctx: mctx, opcode: opcode, payload: append([]byte(nil), payload...)})
	return nil
}

func (f *fakeTransport) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *fakeTransport, chan Event) {
	t.Helper()
	tr := &fakeTransport{}
	events := make(chan Event, 64)
	opts = append([]Option{WithBridge(BridgeFunc(func(ev Event) { events <- ev }))}, opts...)
	return NewClient(tr, opts...), tr, events
}

func nextEvent(t *testing.T, events chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no event delivered")
	}
	return Event{}
}

func requireNoEvent(t *testing.T, events chan Event) {
	t.Helper()
	select {
	case ev := <-events:
		require.FailNow(t, "unexpected event", "%+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClientCorrelatesByAddress(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, tr, events := newTestClient(t)
	defer client.Shutdown()

	ctx := context.Background()
	require.NoError(t, client.BeaconGet(ctx, DevKeyContext(0, 0x0002)))
	require.NoError(t, client.BeaconGet(ctx, DevKeyContext(0, 0x0003)))
	require.Len(t, tr.messages(), 2)
	require.Equal(t, 2, client.Pending())

	require.NoError(t, client.HandleMessage(MsgContext{Addr: 0x0003}, fd.OpBeaconStatus, []byte{0x01}))
	ev := nextEvent(t, events)
	require.Equal(t, EventGet, ev.Type)
	require.Equal(t, fd.OpBeaconGet, ev.Opcode)
	require.EqualValues(t, 0x0003, ev.Ctx.Addr)
	require.Equal(t, fd.StateStatus{Op: fd.OpBeaconStatus, Value: 1}, ev.Status)
	require.Equal(t, 1, client.Pending())

	require.NoError(t, client.HandleMessage(MsgContext{Addr: 0x0002}, fd.OpBeaconStatus, []byte{0x00}))
	ev = nextEvent(t, events)
	require.Equal(t, EventGet, ev.Type)
	require.EqualValues(t, 0x0002, ev.Ctx.Addr)
	require.Equal(t, 0, client.Pending())
}

func TestClientMatchesEarliestFirst(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, _, events := newTestClient(t)
	defer client.Shutdown()

	ctx := context.Background()
	mctx := DevKeyContext(0, 0x0005)
	require.NoError(t, client.BeaconGet(ctx, mctx))
	require.NoError(t, client.BeaconSet(ctx, mctx, 1))

	src := MsgContext{Addr: 0x0005}
	for _, want := range []struct {
		typ EventType
		op  fd.OpCode
	}{
		{EventGet, fd.OpBeaconGet},
		{EventSet, fd.OpBeaconSet},
		{EventPublish, fd.OpBeaconStatus},
	} {
		require.NoError(t, client.HandleMessage(src, fd.OpBeaconStatus, []byte{0x01}))
		ev := nextEvent(t, events)
		require.Equal(t, want.typ, ev.Type)
		require.Equal(t, want.op, ev.Opcode)
	}
}

func TestClientTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, _, events := newTestClient(t, WithTimeout(20*time.Millisecond))
	defer client.Shutdown()

	require.Equal(t, 20*time.Millisecond, client.Timeout())

	mctx := DevKeyContext(0, 0x0002)
	require.NoError(t, client.RelayGet(context.Background(), mctx))

	ev := nextEvent(t, events)
	require.Equal(t, EventTimeout, ev.Type)
	require.EqualValues(t, 0x03, ev.Type)
	require.Equal(t, fd.OpRelayGet, ev.Opcode)
	require.Equal(t, mctx, ev.Ctx)
	require.Nil(t, ev.Status)
	require.Equal(t, 0, client.Pending())

	// A reply after the deadline is treated as a publication.
	require.NoError(t, client.HandleMessage(MsgContext{Addr: 0x0002}, fd.OpRelayStatus, []byte{0x01, 0x22}))
	ev = nextEvent(t, events)
	require.Equal(t, EventPublish, ev.Type)
	require.Equal(t, fd.OpRelayStatus, ev.Opcode)
	require.Equal(t, fd.RelayStatus{Relay: 1, Retransmit: 0x22}, ev.Status)

	requireNoEvent(t, events)

	client.SetTimeout(0)
	require.Equal(t, DefaultTimeout, client.Timeout())
}

func TestClientReleasesCompositionData(t *testing.T) {
	defer goleak.VerifyNone(t)

	var (
		mu       sync.Mutex
		statuses []*fd.CompDataStatus
		pages    [][]byte
	)
	events := make(chan Event, 8)
	client := NewClient(&fakeTransport{}, WithBridge(BridgeFunc(func(ev Event) {
		s := ev.Status.(*fd.CompDataStatus)
		mu.Lock()
		statuses = append(statuses, s)
		pages = append(pages, append([]byte(nil), s.Bytes()...))
		mu.Unlock()
		events <- ev
	})))
	defer client.Shutdown()

	page := []byte{0x00, 0x59, 0x00, 0x01, 0x00, 0x02, 0x00, 0x0a, 0x00, 0x07, 0x00, 0x00, 0x00, 0x01, 0x00}

	require.NoError(t, client.CompDataGet(context.Background(), DevKeyContext(0, 0x0002), 0))
	require.NoError(t, client.HandleMessage(MsgContext{Addr: 0x0002}, fd.OpDevCompDataStatus, page))
	require.Equal(t, EventGet, nextEvent(t, events).Type)

	require.NoError(t, client.HandleMessage(MsgContext{Addr: 0x0002}, fd.OpDevCompDataStatus, page))
	require.Equal(t, EventPublish, nextEvent(t, events).Type)

	// Pending runs on the processing goroutine after both classifications finished.
	require.Equal(t, 0, client.Pending())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, statuses, 2)
	for i, s := range statuses {
		require.EqualValues(t, 0, s.Page)
		require.Equal(t, page[1:], pages[i])
		require.Nil(t, s.Bytes())
	}
}

func TestClientInvalidArguments(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, tr, _ := newTestClient(t)
	defer client.Shutdown()

	ctx := context.Background()
	mctx := DevKeyContext(0, 0x0002)

	require.ErrorIs(t, client.BeaconGet(ctx, MsgContext{}), ErrInvalidArgument)
	require.ErrorIs(t, client.NetKeyDelete(ctx, mctx, 0x1000), ErrInvalidArgument)
	require.ErrorIs(t, client.AppKeyAdd(ctx, mctx, 0x000, 0x1001, [16]byte{}), ErrInvalidArgument)
	require.ErrorIs(t, client.VndModAppGet(ctx, mctx, 0x0002, fd.SIGModel(0x1000)), ErrInvalidArgument)
	require.ErrorIs(t, client.ModSubGetVnd(ctx, mctx, 0x0002, fd.SIGModel(0x1000)), ErrInvalidArgument)
	require.ErrorIs(t, client.ModPubSet(ctx, mctx, 0x0002, fd.ModPub{AppIdx: 0xffff}, fd.SIGModel(0x1000)), ErrInvalidArgument)

	require.Empty(t, tr.messages())
	require.Equal(t, 0, client.Pending())
}

func TestClientTransportFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, tr, events := newTestClient(t)
	defer client.Shutdown()

	errLink := errors.New("link down")
	tr.err = errLink

	err := client.NodeReset(context.Background(), DevKeyContext(0, 0x0002))
	require.ErrorIs(t, err, errLink)
	require.Equal(t, 0, client.Pending())

	requireNoEvent(t, events)
}

// replyDuringSend answers every request from inside Send, before Send returns.
func replyDuringSend(client **Client, sendErr error) Transport {
	return TransportFunc(func(ctx context.Context, mctx MsgContext, opcode fd.OpCode, payload []byte) error {
		if err := (*client).HandleMessage(MsgContext{Addr: mctx.Addr}, fd.OpBeaconStatus, []byte{0x01}); err != nil {
			return err
		}
		return sendErr
	})
}

func TestClientReplyDuringFailedSend(t *testing.T) {
	defer goleak.VerifyNone(t)

	errLink := errors.New("link down")
	events := make(chan Event, 8)
	var client *Client
	client = NewClient(replyDuringSend(&client, errLink), WithBridge(BridgeFunc(func(ev Event) { events <- ev })))
	defer client.Shutdown()

	before := testutil.ToFloat64(droppedTotal.WithLabelValues("send_failed"))

	err := client.BeaconGet(context.Background(), DevKeyContext(0, 0x0002))
	require.ErrorIs(t, err, errLink)
	require.Equal(t, 0, client.Pending())
	requireNoEvent(t, events)
	require.Equal(t, before+1, testutil.ToFloat64(droppedTotal.WithLabelValues("send_failed")))
}

func TestClientReplyDuringSuccessfulSend(t *testing.T) {
	defer goleak.VerifyNone(t)

	events := make(chan Event, 8)
	var client *Client
	client = NewClient(replyDuringSend(&client, nil), WithBridge(BridgeFunc(func(ev Event) { events <- ev })))
	defer client.Shutdown()

	mctx := DevKeyContext(0, 0x0002)
	require.NoError(t, client.BeaconGet(context.Background(), mctx))

	ev := nextEvent(t, events)
	require.Equal(t, EventGet, ev.Type)
	require.Equal(t, fd.OpBeaconGet, ev.Opcode)
	require.EqualValues(t, 0x0002, ev.Ctx.Addr)
	require.Equal(t, fd.StateStatus{Op: fd.OpBeaconStatus, Value: 0x01}, ev.Status)
	require.Equal(t, 0, client.Pending())
	requireNoEvent(t, events)
}

func TestClientRegistryFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, tr, _ := newTestClient(t, WithMaxPending(2))
	defer client.Shutdown()

	ctx := context.Background()
	require.NoError(t, client.TTLGet(ctx, DevKeyContext(0, 0x0002)))
	require.NoError(t, client.TTLGet(ctx, DevKeyContext(0, 0x0003)))
	require.ErrorIs(t, client.TTLGet(ctx, DevKeyContext(0, 0x0004)), ErrRegistryFull)
	require.Len(t, tr.messages(), 2)

	require.NoError(t, client.HandleMessage(MsgContext{Addr: 0x0002}, fd.OpDefaultTTLStatus, []byte{0x07}))
	require.Eventually(t, func() bool { return client.Pending() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, client.TTLGet(ctx, DevKeyContext(0, 0x0004)))
}

func TestClientShutdownCancelsPending(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, _, events := newTestClient(t)

	ctx := context.Background()
	require.NoError(t, client.FriendGet(ctx, DevKeyContext(0, 0x0002)))
	require.NoError(t, client.KRPSet(ctx, DevKeyContext(0, 0x0003), 0x001, 0x02))

	client.Shutdown()
	client.Shutdown()

	ev := nextEvent(t, events)
	require.Equal(t, EventCanceled, ev.Type)
	require.Equal(t, fd.OpFriendGet, ev.Opcode)
	ev = nextEvent(t, events)
	require.Equal(t, EventCanceled, ev.Type)
	require.Equal(t, fd.OpKRPSet, ev.Opcode)

	require.ErrorIs(t, client.FriendGet(ctx, DevKeyContext(0, 0x0002)), ErrClientClosed)
	require.ErrorIs(t, client.HandleMessage(MsgContext{Addr: 0x0002}, fd.OpFriendStatus, []byte{0x01}), ErrClientClosed)
	require.Equal(t, 0, client.Pending())
}

func TestClientDispatchBoundary(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, _, events := newTestClient(t)
	defer client.Shutdown()

	src := MsgContext{Addr: 0x0002}
	require.ErrorIs(t, client.HandleMessage(src, fd.OpBeaconGet, []byte{0x01}), fd.ErrUnknownOpcode)
	require.ErrorIs(t, client.HandleMessage(src, fd.OpModPubStatus, make([]byte, 11)), fd.ErrShortPayload)

	require.NoError(t, client.ModSubGetVnd(context.Background(), DevKeyContext(0, 0x0002), 0x0002, fd.VendorModel(0x0059, 1)))

	// Long enough for the table but an odd address list: dropped, the transaction stays pending.
	require.NoError(t, client.HandleMessage(src, fd.OpModSubListVnd, []byte{0x00, 0x02, 0x00, 0x59, 0x00, 0x01, 0x00, 0x00}))
	requireNoEvent(t, events)
	require.Equal(t, 1, client.Pending())

	require.NoError(t, client.HandleMessage(src, fd.OpModSubListVnd, []byte{0x00, 0x02, 0x00, 0x59, 0x00, 0x01, 0x00, 0x00, 0xc0}))
	ev := nextEvent(t, events)
	require.Equal(t, EventGet, ev.Type)
	require.Equal(t, fd.OpModSubGetVnd, ev.Opcode)
	require.Equal(t, []uint16{0xc000}, ev.Status.(fd.ModSubList).Addrs)
}

func TestClientEncodesRequests(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, tr, _ := newTestClient(t)
	defer client.Shutdown()

	ctx := context.Background()
	mctx := DevKeyContext(0x001, 0x0002)

	pub := fd.ModPub{Addr: 0xc000, AppIdx: 0x005, CredFlag: true, TTL: 7, Transmit: 0x15}
	require.NoError(t, client.ModPubSet(ctx, mctx, 0x0001, pub, fd.SIGModel(0x1000)))
	require.NoError(t, client.AppKeyAdd(ctx, mctx, 0x123, 0x456, [16]byte{}))
	require.NoError(t, client.ModSubVAAdd(ctx, mctx, 0x0001, [16]byte{0xaa}, fd.VendorModel(0x0059, 0x0001)))

	msgs := tr.messages()
	require.Len(t, msgs, 3)

	require.Equal(t, mctx, msgs[0].mctx)
	require.Equal(t, fd.OpModPubSet, msgs[0].opcode)
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0xc0, 0x05, 0x10, 0x07, 0x00, 0x15, 0x00, 0x10}, msgs[0].payload)

	require.Equal(t, fd.OpAppKeyAdd, msgs[1].opcode)
	require.Equal(t, []byte{0x23, 0x61, 0x45}, msgs[1].payload[:3])
	require.Len(t, msgs[1].payload, 19)

	require.Equal(t, fd.OpModSubVAAdd, msgs[2].opcode)
	require.Len(t, msgs[2].payload, 2+16+4)
	require.Equal(t, []byte{0x59, 0x00, 0x01, 0x00}, msgs[2].payload[18:])
}

func TestTransactionPoolMetrics(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, _, events := newTestClient(t)
	defer client.Shutdown()

	before := testutil.ToFloat64(transactionPoolTotal.WithLabelValues("put"))

	for i := 0; i < 8; i++ {
		require.NoError(t, client.GattProxyGet(context.Background(), DevKeyContext(0, 0x0002)))
		require.NoError(t, client.HandleMessage(MsgContext{Addr: 0x0002}, fd.OpGattProxyStatus, []byte{0x01}))
		require.Equal(t, EventGet, nextEvent(t, events).Type)
	}

	require.Equal(t, before+8, testutil.ToFloat64(transactionPoolTotal.WithLabelValues("put")))
}
