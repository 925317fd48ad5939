package foundation

// Request is an outgoing configuration message. AppendTo writes the parameters only;
// the opcode is prepended by whoever frames the access PDU.
type Request interface {
	Opcode() OpCode
	AppendTo(dst []byte) []byte
}

// EmptyRequest is a request without parameters (beacon get, node reset, ...).
type EmptyRequest struct {
	Op OpCode
}

func (r EmptyRequest) Opcode() OpCode             { return r.Op }
func (r EmptyRequest) AppendTo(dst []byte) []byte { return dst }

// StateSet writes a single byte state (beacon, default TTL, GATT proxy, friend, network transmit).
type StateSet struct {
	Op    OpCode
	Value uint8
}

func (r StateSet) Opcode() OpCode             { return r.Op }
func (r StateSet) AppendTo(dst []byte) []byte { return append(dst, r.Value) }

type CompDataGet struct {
	Page uint8
}

func (r CompDataGet) Opcode() OpCode             { return OpDevCompDataGet }
func (r CompDataGet) AppendTo(dst []byte) []byte { return append(dst, r.Page) }

type RelaySet struct {
	Relay      uint8
	Retransmit uint8
}

func (r RelaySet) Opcode() OpCode             { return OpRelaySet }
func (r RelaySet) AppendTo(dst []byte) []byte { return append(dst, r.Relay, r.Retransmit) }

// NetKeyAdd serves both NetKey Add and NetKey Update, selected by Op.
type NetKeyAdd struct {
	Op     OpCode
	NetIdx uint16
	Key    [16]byte
}

func (r NetKeyAdd) Opcode() OpCode { return r.Op }

func (r NetKeyAdd) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, r.NetIdx&KeyIndexMask)
	return append(dst, r.Key[:]...)
}

// NetKeyIndex carries a lone network key index (NetKey Delete, Node Identity Get, KRP Get).
type NetKeyIndex struct {
	Op     OpCode
	NetIdx uint16
}

func (r NetKeyIndex) Opcode() OpCode { return r.Op }

func (r NetKeyIndex) AppendTo(dst []byte) []byte {
	return appendUint16LE(dst, r.NetIdx&KeyIndexMask)
}

// NetKeyIndexState carries a network key index followed by one state byte
// (Node Identity Set, Key Refresh Phase Set).
type NetKeyIndexState struct {
	Op     OpCode
	NetIdx uint16
	Value  uint8
}

func (r NetKeyIndexState) Opcode() OpCode { return r.Op }

func (r NetKeyIndexState) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, r.NetIdx&KeyIndexMask)
	return append(dst, r.Value)
}

// AppKeyAdd serves both AppKey Add and AppKey Update, selected by Op.
type AppKeyAdd struct {
	Op     OpCode
	NetIdx uint16
	AppIdx uint16
	Key    [16]byte
}

func (r AppKeyAdd) Opcode() OpCode { return r.Op }

func (r AppKeyAdd) AppendTo(dst []byte) []byte {
	dst = AppendKeyIndexPair(dst, r.NetIdx, r.AppIdx)
	return append(dst, r.Key[:]...)
}

type AppKeyDel struct {
	NetIdx uint16
	AppIdx uint16
}

func (r AppKeyDel) Opcode() OpCode { return OpAppKeyDel }

func (r AppKeyDel) AppendTo(dst []byte) []byte {
	return AppendKeyIndexPair(dst, r.NetIdx, r.AppIdx)
}

type LPNTimeoutGet struct {
	LPNAddr uint16
}

func (r LPNTimeoutGet) Opcode() OpCode             { return OpLPNTimeoutGet }
func (r LPNTimeoutGet) AppendTo(dst []byte) []byte { return appendUint16LE(dst, r.LPNAddr) }

// ModApp binds or unbinds (Op) an application key to a model.
type ModApp struct {
	Op       OpCode
	ElemAddr uint16
	AppIdx   uint16
	Model    ModelID
}

func (r ModApp) Opcode() OpCode { return r.Op }

func (r ModApp) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, r.ElemAddr)
	dst = appendUint16LE(dst, r.AppIdx&KeyIndexMask)
	return r.Model.AppendTo(dst)
}

// ModelRequest addresses a model on an element without further parameters. Op is
// derived from the model kind when the message has SIG and vendor flavours.
type ModelRequest struct {
	Op       OpCode
	ElemAddr uint16
	Model    ModelID
}

func ModAppGet(elemAddr uint16, model ModelID) ModelRequest {
	op := OpSigModAppGet
	if model.IsVendor() {
		op = OpVndModAppGet
	}
	return ModelRequest{Op: op, ElemAddr: elemAddr, Model: model}
}

func ModSubGet(elemAddr uint16, model ModelID) ModelRequest {
	op := OpModSubGet
	if model.IsVendor() {
		op = OpModSubGetVnd
	}
	return ModelRequest{Op: op, ElemAddr: elemAddr, Model: model}
}

func ModSubDelAll(elemAddr uint16, model ModelID) ModelRequest {
	return ModelRequest{Op: OpModSubDelAll, ElemAddr: elemAddr, Model: model}
}

func ModPubGet(elemAddr uint16, model ModelID) ModelRequest {
	return ModelRequest{Op: OpModPubGet, ElemAddr: elemAddr, Model: model}
}

func (r ModelRequest) Opcode() OpCode { return r.Op }

func (r ModelRequest) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, r.ElemAddr)
	return r.Model.AppendTo(dst)
}

// ModSub adds, deletes or overwrites (Op) a plain group address subscription.
type ModSub struct {
	Op       OpCode
	ElemAddr uint16
	SubAddr  uint16
	Model    ModelID
}

func (r ModSub) Opcode() OpCode { return r.Op }

func (r ModSub) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, r.ElemAddr)
	dst = appendUint16LE(dst, r.SubAddr)
	return r.Model.AppendTo(dst)
}

// ModSubVA is ModSub with a 16 byte label UUID in place of the address.
type ModSubVA struct {
	Op       OpCode
	ElemAddr uint16
	Label    [16]byte
	Model    ModelID
}

func (r ModSubVA) Opcode() OpCode { return r.Op }

func (r ModSubVA) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, r.ElemAddr)
	dst = append(dst, r.Label[:]...)
	return r.Model.AppendTo(dst)
}

// ModPub holds model publication parameters.
type ModPub struct {
	Addr     uint16
	AppIdx   uint16
	CredFlag bool
	TTL      uint8
	Period   uint8
	Transmit uint8
}

// AppKeyField returns the combined application key index and credential flag word.
func (p ModPub) AppKeyField() uint16 {
	v := p.AppIdx & KeyIndexMask
	if p.CredFlag {
		v |= 1 << 12
	}
	return v
}

func (p ModPub) appendTail(dst []byte) []byte {
	dst = appendUint16LE(dst, p.AppKeyField())
	return append(dst, p.TTL, p.Period, p.Transmit)
}

type ModPubSet struct {
	ElemAddr uint16
	Pub      ModPub
	Model    ModelID
}

func (r ModPubSet) Opcode() OpCode { return OpModPubSet }

func (r ModPubSet) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, r.ElemAddr)
	dst = appendUint16LE(dst, r.Pub.Addr)
	dst = r.Pub.appendTail(dst)
	return r.Model.AppendTo(dst)
}

// ModPubVASet publishes to a virtual address; Pub.Addr is ignored.
type ModPubVASet struct {
	ElemAddr uint16
	Label    [16]byte
	Pub      ModPub
	Model    ModelID
}

func (r ModPubVASet) Opcode() OpCode { return OpModPubVASet }

func (r ModPubVASet) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, r.ElemAddr)
	dst = append(dst, r.Label[:]...)
	dst = r.Pub.appendTail(dst)
	return r.Model.AppendTo(dst)
}

type HeartbeatPubSet struct {
	Dst    uint16
	Count  uint8
	Period uint8
	TTL    uint8
	Feat   uint16
	NetIdx uint16
}

func (r HeartbeatPubSet) Opcode() OpCode { return OpHeartbeatPubSet }

func (r HeartbeatPubSet) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, r.Dst)
	dst = append(dst, r.Count, r.Period, r.TTL)
	dst = appendUint16LE(dst, r.Feat)
	return appendUint16LE(dst, r.NetIdx&KeyIndexMask)
}

type HeartbeatSubSet struct {
	Src    uint16
	Dst    uint16
	Period uint8
}

func (r HeartbeatSubSet) Opcode() OpCode { return OpHeartbeatSubSet }

func (r HeartbeatSubSet) AppendTo(dst []byte) []byte {
	dst = appendUint16LE(dst, r.Src)
	dst = appendUint16LE(dst, r.Dst)
	return append(dst, r.Period)
}
