package cfgcli

import (
	"slices"
	"time"

	"github.com/TheSmallBoat/meshcfg/foundation"
)

type matchKey struct {
	addr   uint16
	status foundation.OpCode
}

// registry tracks pending transactions. It is owned by the client's processing
// goroutine and never locked.
//
// queues holds, per (address, expected status), the IDs of live transactions in
// insertion order, so the head of a queue is always the transaction a reply matches.
type registry struct {
	max    int
	nextID uint64
	byID   map[uint64]*transaction
	queues map[matchKey][]uint64
}

func newRegistry(max int) *registry {
	return &registry{
		max:    max,
		byID:   make(map[uint64]*transaction),
		queues: make(map[matchKey][]uint64),
	}
}

func (r *registry) begin(ctx MsgContext, opcode foundation.OpCode, now time.Time, timeout time.Duration) (*transaction, error) {
	pair, ok := foundation.LookupPair(opcode)
	if !ok {
		return nil, foundation.ErrUnknownOpcode
	}
	if ctx.Addr == 0 {
		return nil, ErrInvalidArgument
	}
	if r.max > 0 && len(r.byID) >= r.max {
		return nil, ErrRegistryFull
	}

	r.nextID++

	t := transactionPool.acquire()
	t.id = r.nextID
	t.ctx = ctx
	t.opcode = opcode
	t.expect = pair.Status
	t.category = pair.Category
	t.created = now
	t.deadline = now.Add(timeout)

	r.byID[t.id] = t
	k := matchKey{addr: ctx.Addr, status: pair.Status}
	r.queues[k] = append(r.queues[k], t.id)

	pendingTransactions.Inc()

	return t, nil
}

// match returns the earliest transaction sent to src that expects status. A sent
// transaction is removed. One whose send has not returned yet stays registered but
// leaves its queue, so it matches at most once and the send outcome decides its fate.
func (r *registry) match(src uint16, status foundation.OpCode) *transaction {
	k := matchKey{addr: src, status: status}
	q := r.queues[k]
	if len(q) == 0 {
		return nil
	}
	t := r.byID[q[0]]
	if t.sent {
		return r.remove(t.id)
	}
	r.unqueue(k, t.id)
	return t
}

func (r *registry) unqueue(k matchKey, id uint64) {
	q := r.queues[k]
	if i := slices.Index(q, id); i >= 0 {
		q = slices.Delete(q, i, i+1)
	}
	if len(q) == 0 {
		delete(r.queues, k)
	} else {
		r.queues[k] = q
	}
}

// remove returns nil if id is no longer pending.
func (r *registry) remove(id uint64) *transaction {
	t, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	r.unqueue(matchKey{addr: t.ctx.Addr, status: t.expect}, id)

	pendingTransactions.Dec()

	return t
}

// drain removes every pending transaction and returns them oldest first.
func (r *registry) drain() []*transaction {
	ids := make([]uint64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	ts := make([]*transaction, 0, len(ids))
	for _, id := range ids {
		ts = append(ts, r.remove(id))
	}
	return ts
}

func (r *registry) len() int { return len(r.byID) }
