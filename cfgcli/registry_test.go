package cfgcli

import (
	"testing"
	"time"

	fd "github.com/TheSmallBoat/meshcfg/foundation"
	"github.com/stretchr/testify/require"
)

func TestRegistryMatch(t *testing.T) {
	r := newRegistry(0)
	now := time.Now()

	t1, err := r.begin(DevKeyContext(0, 0x0002), fd.OpModSubAdd, now, time.Second)
	require.NoError(t, err)
	t2, err := r.begin(DevKeyContext(0, 0x0002), fd.OpModSubDel, now, time.Second)
	require.NoError(t, err)
	t3, err := r.begin(DevKeyContext(0, 0x0003), fd.OpModSubAdd, now, time.Second)
	require.NoError(t, err)
	t1.sent, t2.sent, t3.sent = true, true, true

	require.Less(t, t1.id, t2.id)
	require.Equal(t, fd.OpModSubStatus, t1.expect)
	require.Equal(t, fd.CategorySet, t1.category)
	require.Equal(t, now.Add(time.Second), t1.deadline)

	require.Nil(t, r.match(0x0002, fd.OpModAppStatus))
	require.Nil(t, r.match(0x0004, fd.OpModSubStatus))

	require.Same(t, t1, r.match(0x0002, fd.OpModSubStatus))
	require.Same(t, t2, r.match(0x0002, fd.OpModSubStatus))
	require.Nil(t, r.match(0x0002, fd.OpModSubStatus))
	require.Equal(t, 1, r.len())

	require.Same(t, t3, r.remove(t3.id))
	require.Nil(t, r.remove(t3.id))
	require.Equal(t, 0, r.len())
	require.Empty(t, r.queues)
}

func TestRegistryRemoveKeepsOrder(t *testing.T) {
	r := newRegistry(0)
	now := time.Now()

	var ts []*transaction
	for i := 0; i < 3; i++ {
		tx, err := r.begin(DevKeyContext(0, 0x0002), fd.OpRelayGet, now, time.Second)
		require.NoError(t, err)
		tx.sent = true
		ts = append(ts, tx)
	}

	require.Same(t, ts[1], r.remove(ts[1].id))
	require.Same(t, ts[0], r.match(0x0002, fd.OpRelayStatus))
	require.Same(t, ts[2], r.match(0x0002, fd.OpRelayStatus))
}

func TestRegistryMatchBeforeSent(t *testing.T) {
	r := newRegistry(0)
	now := time.Now()

	t1, err := r.begin(DevKeyContext(0, 0x0002), fd.OpBeaconGet, now, time.Second)
	require.NoError(t, err)
	t2, err := r.begin(DevKeyContext(0, 0x0002), fd.OpBeaconGet, now, time.Second)
	require.NoError(t, err)
	t2.sent = true

	// The unsent head is handed out once but stays registered.
	require.Same(t, t1, r.match(0x0002, fd.OpBeaconStatus))
	require.Equal(t, 2, r.len())
	require.Same(t, t2, r.match(0x0002, fd.OpBeaconStatus))
	require.Nil(t, r.match(0x0002, fd.OpBeaconStatus))
	require.Equal(t, 1, r.len())

	require.Same(t, t1, r.remove(t1.id))
	require.Equal(t, 0, r.len())
	require.Empty(t, r.queues)
}

func TestRegistryBegin(t *testing.T) {
	r := newRegistry(2)
	now := time.Now()

	_, err := r.begin(DevKeyContext(0, 0x0002), fd.OpBeaconStatus, now, time.Second)
	require.ErrorIs(t, err, fd.ErrUnknownOpcode)

	_, err = r.begin(MsgContext{}, fd.OpBeaconGet, now, time.Second)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.begin(DevKeyContext(0, 0x0002), fd.OpBeaconGet, now, time.Second)
	require.NoError(t, err)
	_, err = r.begin(DevKeyContext(0, 0x0002), fd.OpBeaconGet, now, time.Second)
	require.NoError(t, err)
	_, err = r.begin(DevKeyContext(0, 0x0002), fd.OpBeaconGet, now, time.Second)
	require.ErrorIs(t, err, ErrRegistryFull)
}

func TestRegistryDrain(t *testing.T) {
	r := newRegistry(0)
	now := time.Now()

	ops := []fd.OpCode{fd.OpNodeReset, fd.OpBeaconGet, fd.OpNetKeyGet, fd.OpAppKeyGet}
	for i, op := range ops {
		_, err := r.begin(DevKeyContext(0, uint16(0x0010+i%2)), op, now, time.Second)
		require.NoError(t, err)
	}

	drained := r.drain()
	require.Len(t, drained, len(ops))
	for i, tx := range drained {
		require.Equal(t, ops[i], tx.opcode)
	}
	require.Equal(t, 0, r.len())
	require.Empty(t, r.queues)
	require.Empty(t, r.drain())
}
