// Package simnode simulates the configuration server of mesh nodes behind a gateway.
// It answers a subset of configuration requests from in-memory state and ignores the
// rest, which a client observes as timeouts.
package simnode

import (
	"slices"
	"sync"

	fd "github.com/TheSmallBoat/meshcfg/foundation"
	"github.com/TheSmallBoat/meshcfg/gateway"
	"github.com/rs/zerolog"
	"github.com/valyala/bytebufferpool"
)

type appKey struct {
	netIdx uint16
	key    [16]byte
}

type subKey struct {
	elem  uint16
	model fd.ModelID
}

// Node holds the configuration state of one simulated node.
type Node struct {
	Addr     uint16
	CompData []byte // page 0 contents, after the page number

	mu          sync.Mutex
	beacon      uint8
	ttl         uint8
	gattProxy   uint8
	friend      uint8
	netTransmit uint8
	relay       fd.RelayStatus
	netKeys     map[uint16][16]byte
	appKeys     map[uint16]appKey
	subs        map[subKey][]uint16
	resets      int
}

// New returns a node answering at addr. compData is page 0 without the page number; a
// page shorter than the fixed composition header is zero padded so clients accept it.
func New(addr uint16, compData []byte) *Node {
	page := append([]byte(nil), compData...)
	if entry, ok := fd.LookupStatus(fd.OpDevCompDataStatus); ok && len(page) < entry.MinLen-1 {
		page = append(page, make([]byte, entry.MinLen-1-len(page))...)
	}
	return &Node{
		Addr:     addr,
		CompData: page,
		ttl:      7,
		netKeys:  map[uint16][16]byte{0x000: {}},
		appKeys:  make(map[uint16]appKey),
		subs:     make(map[subKey][]uint16),
	}
}

// Resets returns how many node reset requests the node has served.
func (n *Node) Resets() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resets
}

// Handle answers a request addressed to the node. It reports false when the request is
// not served.
func (n *Node) Handle(op fd.OpCode, params []byte) (fd.Status, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch op {
	case fd.OpBeaconGet, fd.OpBeaconSet:
		return n.state(op, params, fd.OpBeaconStatus, &n.beacon)
	case fd.OpDefaultTTLGet, fd.OpDefaultTTLSet:
		return n.state(op, params, fd.OpDefaultTTLStatus, &n.ttl)
	case fd.OpGattProxyGet, fd.OpGattProxySet:
		return n.state(op, params, fd.OpGattProxyStatus, &n.gattProxy)
	case fd.OpFriendGet, fd.OpFriendSet:
		return n.state(op, params, fd.OpFriendStatus, &n.friend)
	case fd.OpNetTransmitGet, fd.OpNetTransmitSet:
		return n.state(op, params, fd.OpNetTransmitStatus, &n.netTransmit)

	case fd.OpRelayGet:
		return n.relay, true
	case fd.OpRelaySet:
		req, err := fd.UnmarshalRelaySet(params)
		if err != nil {
			return nil, false
		}
		n.relay = fd.RelayStatus{Relay: req.Relay, Retransmit: req.Retransmit}
		return n.relay, true

	case fd.OpDevCompDataGet:
		if _, err := fd.UnmarshalCompDataGet(params); err != nil {
			return nil, false
		}
		data := bytebufferpool.Get()
		data.B = append(data.B[:0], n.CompData...)
		return &fd.CompDataStatus{Page: 0, Data: data}, true

	case fd.OpNetKeyAdd, fd.OpNetKeyUpdate:
		req, err := fd.UnmarshalNetKeyAdd(op, params)
		if err != nil {
			return nil, false
		}
		return fd.NetKeyStatus{Status: n.storeNetKey(req), NetIdx: req.NetIdx}, true
	case fd.OpNetKeyDel:
		req, err := fd.UnmarshalNetKeyIndex(op, params)
		if err != nil {
			return nil, false
		}
		delete(n.netKeys, req.NetIdx)
		return fd.NetKeyStatus{NetIdx: req.NetIdx}, true
	case fd.OpNetKeyGet:
		return fd.NetKeyList{NetIdxs: sortedKeys(n.netKeys)}, true

	case fd.OpAppKeyAdd, fd.OpAppKeyUpdate:
		req, err := fd.UnmarshalAppKeyAdd(op, params)
		if err != nil {
			return nil, false
		}
		return fd.AppKeyStatus{Status: n.storeAppKey(req), NetIdx: req.NetIdx, AppIdx: req.AppIdx}, true
	case fd.OpAppKeyDel:
		req, err := fd.UnmarshalAppKeyDel(params)
		if err != nil {
			return nil, false
		}
		delete(n.appKeys, req.AppIdx)
		return fd.AppKeyStatus{NetIdx: req.NetIdx, AppIdx: req.AppIdx}, true
	case fd.OpAppKeyGet:
		req, err := fd.UnmarshalNetKeyIndex(op, params)
		if err != nil {
			return nil, false
		}
		if _, ok := n.netKeys[req.NetIdx]; !ok {
			return fd.AppKeyList{Status: fd.StatusInvalidNetKey, NetIdx: req.NetIdx}, true
		}
		var idxs []uint16
		for idx, k := range n.appKeys {
			if k.netIdx == req.NetIdx {
				idxs = append(idxs, idx)
			}
		}
		slices.Sort(idxs)
		return fd.AppKeyList{NetIdx: req.NetIdx, AppIdxs: idxs}, true

	case fd.OpModSubAdd, fd.OpModSubDel, fd.OpModSubOverwrite:
		req, err := fd.UnmarshalModSub(op, params)
		if err != nil {
			return nil, false
		}
		n.updateSubs(req)
		return fd.ModSubStatus{ElemAddr: req.ElemAddr, SubAddr: req.SubAddr, Model: req.Model}, true
	case fd.OpModSubDelAll:
		req, err := fd.UnmarshalModelRequest(op, params)
		if err != nil {
			return nil, false
		}
		delete(n.subs, subKey{elem: req.ElemAddr, model: req.Model})
		return fd.ModSubStatus{ElemAddr: req.ElemAddr, Model: req.Model}, true
	case fd.OpModSubGet, fd.OpModSubGetVnd:
		req, err := fd.UnmarshalModelRequest(op, params)
		if err != nil {
			return nil, false
		}
		addrs := slices.Clone(n.subs[subKey{elem: req.ElemAddr, model: req.Model}])
		return fd.ModSubList{ElemAddr: req.ElemAddr, Model: req.Model, Addrs: addrs}, true

	case fd.OpNodeReset:
		n.resets++
		return fd.NodeResetStatus{}, true
	}

	return nil, false
}

// HandleFrame implements gateway.FrameHandler.
func (n *Node) HandleFrame(f gateway.Frame, reply func(gateway.Frame) error) {
	if f.Addr != n.Addr {
		return
	}
	op, params, err := fd.ParseOpcode(f.PDU)
	if err != nil {
		return
	}
	status, ok := n.Handle(op, params)
	recordFrame(op, ok)
	if !ok {
		return
	}
	if r, ok := status.(fd.Releaser); ok {
		defer r.Release()
	}

	pdu := bytebufferpool.Get()
	defer bytebufferpool.Put(pdu)

	pdu.B = fd.AppendOpcode(pdu.B[:0], status.Opcode())
	pdu.B = status.AppendTo(pdu.B)

	_ = reply(gateway.Frame{NetIdx: f.NetIdx, AppIdx: f.AppIdx, Addr: n.Addr, TTL: f.TTL, PDU: pdu.B})
}

func (n *Node) state(op fd.OpCode, params []byte, status fd.OpCode, v *uint8) (fd.Status, bool) {
	if pair, _ := fd.LookupPair(op); pair.Category == fd.CategorySet {
		req, err := fd.UnmarshalStateSet(op, params)
		if err != nil {
			return nil, false
		}
		*v = req.Value
	}
	return fd.StateStatus{Op: status, Value: *v}, true
}

func (n *Node) storeNetKey(req fd.NetKeyAdd) uint8 {
	cur, exists := n.netKeys[req.NetIdx]
	switch {
	case req.Op == fd.OpNetKeyUpdate && !exists:
		return fd.StatusInvalidNetKey
	case req.Op == fd.OpNetKeyAdd && exists && cur != req.Key:
		return fd.StatusKeyIndexAlreadyStored
	}
	n.netKeys[req.NetIdx] = req.Key
	return fd.StatusSuccess
}

func (n *Node) storeAppKey(req fd.AppKeyAdd) uint8 {
	if _, ok := n.netKeys[req.NetIdx]; !ok {
		return fd.StatusInvalidNetKey
	}
	cur, exists := n.appKeys[req.AppIdx]
	switch {
	case req.Op == fd.OpAppKeyUpdate && !exists:
		return fd.StatusInvalidAppKey
	case req.Op == fd.OpAppKeyAdd && exists && cur.key != req.Key:
		return fd.StatusKeyIndexAlreadyStored
	}
	n.appKeys[req.AppIdx] = appKey{netIdx: req.NetIdx, key: req.Key}
	return fd.StatusSuccess
}

func (n *Node) updateSubs(req fd.ModSub) {
	k := subKey{elem: req.ElemAddr, model: req.Model}
	addrs := n.subs[k]
	switch req.Op {
	case fd.OpModSubOverwrite:
		addrs = []uint16{req.SubAddr}
	case fd.OpModSubAdd:
		if !slices.Contains(addrs, req.SubAddr) {
			addrs = append(addrs, req.SubAddr)
		}
	case fd.OpModSubDel:
		if i := slices.Index(addrs, req.SubAddr); i >= 0 {
			addrs = slices.Delete(addrs, i, i+1)
		}
	}
	if len(addrs) == 0 {
		delete(n.subs, k)
		return
	}
	n.subs[k] = addrs
}

func sortedKeys(m map[uint16][16]byte) []uint16 {
	idxs := make([]uint16, 0, len(m))
	for idx := range m {
		idxs = append(idxs, idx)
	}
	slices.Sort(idxs)
	return idxs
}

// Network routes frames to simulated nodes by destination address. It is fixed at
// construction and safe for concurrent use.
type Network struct {
	nodes map[uint16]*Node
}

func NewNetwork(nodes ...*Node) *Network {
	nw := &Network{nodes: make(map[uint16]*Node, len(nodes))}
	for _, n := range nodes {
		nw.nodes[n.Addr] = n
	}
	return nw
}

func (nw *Network) Node(addr uint16) (*Node, bool) {
	n, ok := nw.nodes[addr]
	return n, ok
}

// Addrs returns the node addresses in ascending order.
func (nw *Network) Addrs() []uint16 {
	addrs := make([]uint16, 0, len(nw.nodes))
	for addr := range nw.nodes {
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)
	return addrs
}

// HandleFrame implements gateway.FrameHandler. Frames for unknown addresses are dropped.
func (nw *Network) HandleFrame(f gateway.Frame, reply func(gateway.Frame) error) {
	if n, ok := nw.nodes[f.Addr]; ok {
		n.HandleFrame(f, reply)
	}
}

// Logged wraps a frame handler with debug logging of every frame it sees.
func Logged(h gateway.FrameHandler, log zerolog.Logger) gateway.FrameHandler {
	return gateway.FrameHandlerFunc(func(f gateway.Frame, reply func(gateway.Frame) error) {
		log.Debug().
			Uint16("dst", f.Addr).
			Hex("pdu", f.PDU).
			Msg("frame")
		h.HandleFrame(f, reply)
	})
}
