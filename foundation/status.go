package foundation

import (
	"io"

	"github.com/valyala/bytebufferpool"
)

// Status is a decoded configuration status message.
type Status interface {
	Opcode() OpCode
	AppendTo(dst []byte) []byte
}

// Releaser is implemented by statuses that own pooled memory. The owner calls
// Release exactly once after the last read.
type Releaser interface {
	Release()
}

// reader pulls little-endian fields off a status payload. The first short read
// sticks: later pulls return zero and err stays io.ErrUnexpectedEOF.
type reader struct {
	buf []byte
	err error
}

func (r *reader) left() int { return len(r.buf) }

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = io.ErrUnexpectedEOF
		r.buf = r.buf[len(r.buf):]
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) u8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) le16() uint16 {
	if b := r.take(2); b != nil {
		return uint16LE(b)
	}
	return 0
}

func (r *reader) le24() uint32 {
	if b := r.take(3); b != nil {
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	}
	return 0
}

// model reads a model identifier whose company ID is present only when at
// least 4 bytes remain.
func (r *reader) model() ModelID {
	m := ModelID{CID: CIDNone}
	if r.left() >= 4 {
		m.CID = r.le16()
	}
	m.ID = r.le16()
	return m
}

func (r *reader) vendorModel() ModelID {
	cid := r.le16()
	return ModelID{CID: cid, ID: r.le16()}
}

func (r *reader) addrList() []uint16 {
	if r.err != nil {
		return nil
	}
	if r.left()%2 != 0 {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	addrs := make([]uint16, 0, r.left()/2)
	for r.left() > 0 {
		addrs = append(addrs, r.le16())
	}
	return addrs
}

// CompDataStatus carries one composition data page. Data is pooled and released by Release.
type CompDataStatus struct {
	Page uint8
	Data *bytebufferpool.ByteBuffer
}

func (s *CompDataStatus) Opcode() OpCode { return OpDevCompDataStatus }

// Bytes returns the page contents, nil once released.
func (s *CompDataStatus) Bytes() []byte {
	if s.Data == nil {
		return nil
	}
	return s.Data.B
}

func (s *CompDataStatus) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Page)
	return append(dst, s.Bytes()...)
}

func (s *CompDataStatus) Release() {
	if s.Data == nil {
		return
	}
	bytebufferpool.Put(s.Data)
	s.Data = nil
}

func UnmarshalCompDataStatus(buf []byte) (*CompDataStatus, error) {
	if len(buf) < 1 {
		return nil, io.ErrUnexpectedEOF
	}
	data := bytebufferpool.Get()
	data.B = append(data.B[:0], buf[1:]...)
	return &CompDataStatus{Page: buf[0], Data: data}, nil
}

// StateStatus reports a single byte state (beacon, default TTL, GATT proxy, friend, network transmit).
type StateStatus struct {
	Op    OpCode
	Value uint8
}

func (s StateStatus) Opcode() OpCode             { return s.Op }
func (s StateStatus) AppendTo(dst []byte) []byte { return append(dst, s.Value) }

func unmarshalStateStatus(op OpCode) func([]byte) (Status, error) {
	return func(buf []byte) (Status, error) {
		r := reader{buf: buf}
		s := StateStatus{Op: op, Value: r.u8()}
		return s, r.err
	}
}

type RelayStatus struct {
	Relay      uint8
	Retransmit uint8
}

func (s RelayStatus) Opcode() OpCode             { return OpRelayStatus }
func (s RelayStatus) AppendTo(dst []byte) []byte { return append(dst, s.Relay, s.Retransmit) }

func UnmarshalRelayStatus(buf []byte) (RelayStatus, error) {
	r := reader{buf: buf}
	s := RelayStatus{Relay: r.u8(), Retransmit: r.u8()}
	return s, r.err
}

type NetKeyStatus struct {
	Status uint8
	NetIdx uint16
}

func (s NetKeyStatus) Opcode() OpCode { return OpNetKeyStatus }

func (s NetKeyStatus) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	return appendUint16LE(dst, s.NetIdx&KeyIndexMask)
}

func UnmarshalNetKeyStatus(buf []byte) (NetKeyStatus, error) {
	r := reader{buf: buf}
	s := NetKeyStatus{Status: r.u8(), NetIdx: r.le16() & KeyIndexMask}
	return s, r.err
}

type AppKeyStatus struct {
	Status uint8
	NetIdx uint16
	AppIdx uint16
}

func (s AppKeyStatus) Opcode() OpCode { return OpAppKeyStatus }

func (s AppKeyStatus) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	return AppendKeyIndexPair(dst, s.NetIdx, s.AppIdx)
}

func UnmarshalAppKeyStatus(buf []byte) (AppKeyStatus, error) {
	r := reader{buf: buf}
	s := AppKeyStatus{Status: r.u8()}
	if b := r.take(3); b != nil {
		s.NetIdx, s.AppIdx, _ = KeyIndexPair(b)
	}
	return s, r.err
}

type ModAppStatus struct {
	Status   uint8
	ElemAddr uint16
	AppIdx   uint16
	Model    ModelID
}

func (s ModAppStatus) Opcode() OpCode { return OpModAppStatus }

func (s ModAppStatus) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	dst = appendUint16LE(dst, s.ElemAddr)
	dst = appendUint16LE(dst, s.AppIdx)
	return s.Model.AppendTo(dst)
}

func UnmarshalModAppStatus(buf []byte) (ModAppStatus, error) {
	r := reader{buf: buf}
	s := ModAppStatus{Status: r.u8(), ElemAddr: r.le16(), AppIdx: r.le16()}
	s.Model = r.model()
	return s, r.err
}

type ModPubStatus struct {
	Status   uint8
	ElemAddr uint16
	Pub      ModPub
	Model    ModelID
}

func (s ModPubStatus) Opcode() OpCode { return OpModPubStatus }

func (s ModPubStatus) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	dst = appendUint16LE(dst, s.ElemAddr)
	dst = appendUint16LE(dst, s.Pub.Addr)
	dst = s.Pub.appendTail(dst)
	return s.Model.AppendTo(dst)
}

func UnmarshalModPubStatus(buf []byte) (ModPubStatus, error) {
	r := reader{buf: buf}
	s := ModPubStatus{Status: r.u8(), ElemAddr: r.le16()}
	s.Pub.Addr = r.le16()
	field := r.le16()
	s.Pub.AppIdx = field & KeyIndexMask
	s.Pub.CredFlag = field&(1<<12) != 0
	s.Pub.TTL = r.u8()
	s.Pub.Period = r.u8()
	s.Pub.Transmit = r.u8()
	s.Model = r.model()
	return s, r.err
}

type ModSubStatus struct {
	Status   uint8
	ElemAddr uint16
	SubAddr  uint16
	Model    ModelID
}

func (s ModSubStatus) Opcode() OpCode { return OpModSubStatus }

func (s ModSubStatus) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	dst = appendUint16LE(dst, s.ElemAddr)
	dst = appendUint16LE(dst, s.SubAddr)
	return s.Model.AppendTo(dst)
}

func UnmarshalModSubStatus(buf []byte) (ModSubStatus, error) {
	r := reader{buf: buf}
	s := ModSubStatus{Status: r.u8(), ElemAddr: r.le16(), SubAddr: r.le16()}
	s.Model = r.model()
	return s, r.err
}

type HeartbeatSubStatus struct {
	Status uint8
	Src    uint16
	Dst    uint16
	Period uint8
	Count  uint8
	Min    uint8
	Max    uint8
}

func (s HeartbeatSubStatus) Opcode() OpCode { return OpHeartbeatSubStatus }

func (s HeartbeatSubStatus) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	dst = appendUint16LE(dst, s.Src)
	dst = appendUint16LE(dst, s.Dst)
	return append(dst, s.Period, s.Count, s.Min, s.Max)
}

func UnmarshalHeartbeatSubStatus(buf []byte) (HeartbeatSubStatus, error) {
	r := reader{buf: buf}
	s := HeartbeatSubStatus{
		Status: r.u8(),
		Src:    r.le16(),
		Dst:    r.le16(),
		Period: r.u8(),
		Count:  r.u8(),
		Min:    r.u8(),
		Max:    r.u8(),
	}
	return s, r.err
}

type HeartbeatPubStatus struct {
	Status uint8
	Dst    uint16
	Count  uint8
	Period uint8
	TTL    uint8
	Feat   uint16
	NetIdx uint16
}

func (s HeartbeatPubStatus) Opcode() OpCode { return OpHeartbeatPubStatus }

func (s HeartbeatPubStatus) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	dst = appendUint16LE(dst, s.Dst)
	dst = append(dst, s.Count, s.Period, s.TTL)
	dst = appendUint16LE(dst, s.Feat)
	return appendUint16LE(dst, s.NetIdx&KeyIndexMask)
}

func UnmarshalHeartbeatPubStatus(buf []byte) (HeartbeatPubStatus, error) {
	r := reader{buf: buf}
	s := HeartbeatPubStatus{
		Status: r.u8(),
		Dst:    r.le16(),
		Count:  r.u8(),
		Period: r.u8(),
		TTL:    r.u8(),
		Feat:   r.le16(),
	}
	s.NetIdx = r.le16() & KeyIndexMask
	return s, r.err
}

type NodeResetStatus struct{}

func (s NodeResetStatus) Opcode() OpCode             { return OpNodeResetStatus }
func (s NodeResetStatus) AppendTo(dst []byte) []byte { return dst }

// NodeIdentityStatus and KRPStatus share a layout: status, net key index, state.
type NodeIdentityStatus struct {
	Status   uint8
	NetIdx   uint16
	Identity uint8
}

func (s NodeIdentityStatus) Opcode() OpCode { return OpNodeIdentityStatus }

func (s NodeIdentityStatus) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	dst = appendUint16LE(dst, s.NetIdx&KeyIndexMask)
	return append(dst, s.Identity)
}

func UnmarshalNodeIdentityStatus(buf []byte) (NodeIdentityStatus, error) {
	r := reader{buf: buf}
	s := NodeIdentityStatus{Status: r.u8(), NetIdx: r.le16() & KeyIndexMask, Identity: r.u8()}
	return s, r.err
}

type KRPStatus struct {
	Status uint8
	NetIdx uint16
	Phase  uint8
}

func (s KRPStatus) Opcode() OpCode { return OpKRPStatus }

func (s KRPStatus) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	dst = appendUint16LE(dst, s.NetIdx&KeyIndexMask)
	return append(dst, s.Phase)
}

func UnmarshalKRPStatus(buf []byte) (KRPStatus, error) {
	r := reader{buf: buf}
	s := KRPStatus{Status: r.u8(), NetIdx: r.le16() & KeyIndexMask, Phase: r.u8()}
	return s, r.err
}

// LPNTimeoutStatus reports the 24-bit poll timeout, in units of 100 ms, of a low power node.
type LPNTimeoutStatus struct {
	LPNAddr     uint16
	PollTimeout uint32
}

func (s LPNTimeoutStatus) Opcode() OpCode { return OpLPNTimeoutStatus }

func (s LPNTimeoutStatus) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, s.LPNAddr)
	t := s.PollTimeout
	return append(dst, byte(t), byte(t>>8), byte(t>>16))
}

func UnmarshalLPNTimeoutStatus(buf []byte) (LPNTimeoutStatus, error) {
	r := reader{buf: buf}
	s := LPNTimeoutStatus{LPNAddr: r.le16(), PollTimeout: r.le24()}
	return s, r.err
}
