package foundation

// Request decoders mirror the encoders in request.go. Nodes and simulators use them to
// serve configuration messages; the client itself never decodes requests.

func (r *reader) label() (l [16]byte) {
	if b := r.take(16); b != nil {
		copy(l[:], b)
	}
	return l
}

func (r *reader) keyIndexPair() (idx1, idx2 uint16) {
	if b := r.take(3); b != nil {
		idx1, idx2, _ = KeyIndexPair(b)
	}
	return idx1, idx2
}

func (r *reader) modPubTail(p *ModPub) {
	field := r.le16()
	p.AppIdx = field & KeyIndexMask
	p.CredFlag = field&(1<<12) != 0
	p.TTL = r.u8()
	p.Period = r.u8()
	p.Transmit = r.u8()
}

func UnmarshalStateSet(op OpCode, buf []byte) (StateSet, error) {
	r := reader{buf: buf}
	req := StateSet{Op: op, Value: r.u8()}
	return req, r.err
}

func UnmarshalCompDataGet(buf []byte) (CompDataGet, error) {
	r := reader{buf: buf}
	req := CompDataGet{Page: r.u8()}
	return req, r.err
}

func UnmarshalRelaySet(buf []byte) (RelaySet, error) {
	r := reader{buf: buf}
	req := RelaySet{Relay: r.u8(), Retransmit: r.u8()}
	return req, r.err
}

func UnmarshalNetKeyAdd(op OpCode, buf []byte) (NetKeyAdd, error) {
	r := reader{buf: buf}
	req := NetKeyAdd{Op: op, NetIdx: r.le16() & KeyIndexMask, Key: r.label()}
	return req, r.err
}

func UnmarshalNetKeyIndex(op OpCode, buf []byte) (NetKeyIndex, error) {
	r := reader{buf: buf}
	req := NetKeyIndex{Op: op, NetIdx: r.le16() & KeyIndexMask}
	return req, r.err
}

func UnmarshalNetKeyIndexState(op OpCode, buf []byte) (NetKeyIndexState, error) {
	r := reader{buf: buf}
	req := NetKeyIndexState{Op: op, NetIdx: r.le16() & KeyIndexMask, Value: r.u8()}
	return req, r.err
}

func UnmarshalAppKeyAdd(op OpCode, buf []byte) (AppKeyAdd, error) {
	r := reader{buf: buf}
	req := AppKeyAdd{Op: op}
	req.NetIdx, req.AppIdx = r.keyIndexPair()
	req.Key = r.label()
	return req, r.err
}

func UnmarshalAppKeyDel(buf []byte) (AppKeyDel, error) {
	r := reader{buf: buf}
	var req AppKeyDel
	req.NetIdx, req.AppIdx = r.keyIndexPair()
	return req, r.err
}

func UnmarshalLPNTimeoutGet(buf []byte) (LPNTimeoutGet, error) {
	r := reader{buf: buf}
	req := LPNTimeoutGet{LPNAddr: r.le16()}
	return req, r.err
}

func UnmarshalModApp(op OpCode, buf []byte) (ModApp, error) {
	r := reader{buf: buf}
	req := ModApp{Op: op, ElemAddr: r.le16(), AppIdx: r.le16() & KeyIndexMask}
	req.Model = r.model()
	return req, r.err
}

func UnmarshalModelRequest(op OpCode, buf []byte) (ModelRequest, error) {
	r := reader{buf: buf}
	req := ModelRequest{Op: op, ElemAddr: r.le16()}
	req.Model = r.model()
	return req, r.err
}

func UnmarshalModSub(op OpCode, buf []byte) (ModSub, error) {
	r := reader{buf: buf}
	req := ModSub{Op: op, ElemAddr: r.le16(), SubAddr: r.le16()}
	req.Model = r.model()
	return req, r.err
}

func UnmarshalModSubVA(op OpCode, buf []byte) (ModSubVA, error) {
	r := reader{buf: buf}
	req := ModSubVA{Op: op, ElemAddr: r.le16(), Label: r.label()}
	req.Model = r.model()
	return req, r.err
}

func UnmarshalModPubSet(buf []byte) (ModPubSet, error) {
	r := reader{buf: buf}
	req := ModPubSet{ElemAddr: r.le16()}
	req.Pub.Addr = r.le16()
	r.modPubTail(&req.Pub)
	req.Model = r.model()
	return req, r.err
}

func UnmarshalModPubVASet(buf []byte) (ModPubVASet, error) {
	r := reader{buf: buf}
	req := ModPubVASet{ElemAddr: r.le16(), Label: r.label()}
	r.modPubTail(&req.Pub)
	req.Model = r.model()
	return req, r.err
}

func UnmarshalHeartbeatPubSet(buf []byte) (HeartbeatPubSet, error) {
	r := reader{buf: buf}
	req := HeartbeatPubSet{Dst: r.le16(), Count: r.u8(), Period: r.u8(), TTL: r.u8(), Feat: r.le16()}
	req.NetIdx = r.le16() & KeyIndexMask
	return req, r.err
}

func UnmarshalHeartbeatSubSet(buf []byte) (HeartbeatSubSet, error) {
	r := reader{buf: buf}
	req := HeartbeatSubSet{Src: r.le16(), Dst: r.le16(), Period: r.u8()}
	return req, r.err
}
