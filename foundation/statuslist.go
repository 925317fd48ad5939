package foundation

type NetKeyList struct {
	NetIdxs []uint16
}

func (s NetKeyList) Opcode() OpCode             { return OpNetKeyList }
func (s NetKeyList) AppendTo(dst []byte) []byte { return AppendKeyIndexList(dst, s.NetIdxs) }

func UnmarshalNetKeyList(buf []byte) (NetKeyList, error) {
	idxs, err := UnmarshalKeyIndexList(buf)
	return NetKeyList{NetIdxs: idxs}, err
}

type AppKeyList struct {
	Status  uint8
	NetIdx  uint16
	AppIdxs []uint16
}

func (s AppKeyList) Opcode() OpCode { return OpAppKeyList }

func (s AppKeyList) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	dst = appendUint16LE(dst, s.NetIdx&KeyIndexMask)
	return AppendKeyIndexList(dst, s.AppIdxs)
}

func UnmarshalAppKeyList(buf []byte) (AppKeyList, error) {
	r := reader{buf: buf}
	s := AppKeyList{Status: r.u8(), NetIdx: r.le16() & KeyIndexMask}
	if r.err != nil {
		return s, r.err
	}
	var err error
	s.AppIdxs, err = UnmarshalKeyIndexList(r.buf)
	return s, err
}

// ModSubList lists the subscription addresses of a SIG or vendor model; the opcode
// follows the model kind.
type ModSubList struct {
	Status   uint8
	ElemAddr uint16
	Model    ModelID
	Addrs    []uint16
}

func (s ModSubList) Opcode() OpCode {
	if s.Model.IsVendor() {
		return OpModSubListVnd
	}
	return OpModSubList
}

func (s ModSubList) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	dst = appendUint16LE(dst, s.ElemAddr)
	dst = s.Model.AppendTo(dst)
	for _, addr := range s.Addrs {
		dst = appendUint16LE(dst, addr)
	}
	return dst
}

func unmarshalModSubList(buf []byte, vendor bool) (ModSubList, error) {
	r := reader{buf: buf}
	s := ModSubList{Status: r.u8(), ElemAddr: r.le16()}
	if vendor {
		s.Model = r.vendorModel()
	} else {
		s.Model = SIGModel(r.le16())
	}
	s.Addrs = r.addrList()
	return s, r.err
}

func UnmarshalModSubList(buf []byte) (ModSubList, error) { return unmarshalModSubList(buf, false) }

func UnmarshalModSubListVnd(buf []byte) (ModSubList, error) { return unmarshalModSubList(buf, true) }

// ModAppList lists the application keys bound to a SIG or vendor model.
type ModAppList struct {
	Status   uint8
	ElemAddr uint16
	Model    ModelID
	AppIdxs  []uint16
}

func (s ModAppList) Opcode() OpCode {
	if s.Model.IsVendor() {
		return OpVndModAppList
	}
	return OpSigModAppList
}

func (s ModAppList) AppendTo(dst []byte) []byte {
	dst = append(dst, s.Status)
	dst = appendUint16LE(dst, s.ElemAddr)
	dst = s.Model.AppendTo(dst)
	return AppendKeyIndexList(dst, s.AppIdxs)
}

func unmarshalModAppList(buf []byte, vendor bool) (ModAppList, error) {
	r := reader{buf: buf}
	s := ModAppList{Status: r.u8(), ElemAddr: r.le16()}
	if vendor {
		s.Model = r.vendorModel()
	} else {
		s.Model = SIGModel(r.le16())
	}
	if r.err != nil {
		return s, r.err
	}
	var err error
	s.AppIdxs, err = UnmarshalKeyIndexList(r.buf)
	return s, err
}

func UnmarshalSigModAppList(buf []byte) (ModAppList, error) { return unmarshalModAppList(buf, false) }

func UnmarshalVndModAppList(buf []byte) (ModAppList, error) { return unmarshalModAppList(buf, true) }
