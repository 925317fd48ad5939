package cfgcli

import (
	"sync"
	"time"

	"github.com/TheSmallBoat/meshcfg/foundation"
)

var transactionPool = newTransactionPool()

type transaction struct {
	id       uint64              // monotonic per client, never reused
	ctx      MsgContext          // destination
	opcode   foundation.OpCode   // request opcode
	expect   foundation.OpCode   // status opcode that completes it
	category foundation.Category // classifies the completion event
	created  time.Time
	deadline time.Time
	timer    *time.Timer // armed once the transport accepted the request
	sent     bool        // the transport accepted the request
	early    *Event      // reply that arrived before Send returned
}

type TransactionPool struct {
	sp sync.Pool
}

func newTransactionPool() *TransactionPool {
	return &TransactionPool{sp: sync.Pool{}}
}

func (p *TransactionPool) acquire() *transaction {
	v := p.sp.Get()
	if v == nil {
		v = &transaction{}
		recordPool("new")
	} else {
		recordPool("reuse")
	}
	return v.(*transaction)
}

func (p *TransactionPool) release(t *transaction) {
	if t.timer != nil {
		t.timer.Stop()
	}
	*t = transaction{}
	p.sp.Put(t)
	recordPool("put")
}
