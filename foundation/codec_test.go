package foundation

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/bytebufferpool"
)

func TestKeyIndexPair(t *testing.T) {
	buf := AppendKeyIndexPair(nil, 0x123, 0x456)
	require.Equal(t, []byte{0x23, 0x61, 0x45}, buf)

	a, b, err := KeyIndexPair(buf)
	require.NoError(t, err)
	require.EqualValues(t, 0x123, a)
	require.EqualValues(t, 0x456, b)

	_, _, err = KeyIndexPair(buf[:2])
	require.Equal(t, io.ErrUnexpectedEOF, err)

	// Bits above 12 never leak into the neighbouring index.
	require.Equal(t, []byte{0xff, 0x0f, 0x00}, AppendKeyIndexPair(nil, 0xffff, 0xf000))
}

func TestKeyIndexList(t *testing.T) {
	idxs := []uint16{0x123, 0x456, 0x007}
	buf := AppendKeyIndexList(nil, idxs)
	require.Equal(t, []byte{0x23, 0x61, 0x45, 0x07, 0x00}, buf)

	got, err := UnmarshalKeyIndexList(buf)
	require.NoError(t, err)
	require.Equal(t, idxs, got)

	got, err = UnmarshalKeyIndexList(nil)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = UnmarshalKeyIndexList([]byte{0x23, 0x61, 0x45, 0x07})
	require.Equal(t, ErrTrailingKeyIndex, err)
}

func TestOpcodeEncoding(t *testing.T) {
	cases := []struct {
		op  OpCode
		buf []byte
	}{
		{OpModPubSet, []byte{0x03}},
		{OpBeaconGet, []byte{0x80, 0x09}},
		{OpVndModAppList, []byte{0x80, 0x4e}},
		{0xc00059, []byte{0xc0, 0x59, 0x00}},
	}

	for _, c := range cases {
		buf := AppendOpcode(nil, c.op)
		require.Equal(t, c.buf, buf)
		require.Equal(t, len(c.buf), OpcodeLen(c.op))

		op, rest, err := ParseOpcode(append(buf, 0xaa))
		require.NoError(t, err)
		require.Equal(t, c.op, op)
		require.Equal(t, []byte{0xaa}, rest)
	}

	_, _, err := ParseOpcode([]byte{0x7f})
	require.Equal(t, ErrReservedOpcode, err)

	_, _, err = ParseOpcode([]byte{0x80})
	require.Equal(t, io.ErrUnexpectedEOF, err)

	_, _, err = ParseOpcode(nil)
	require.Equal(t, io.ErrUnexpectedEOF, err)

	require.Equal(t, "BEACON_GET", OpcodeName(OpBeaconGet))
	require.Equal(t, "0xc00059", OpcodeName(0xc00059))
}

func TestOpPairs(t *testing.T) {
	pairs := OpPairs()
	require.Len(t, pairs, 47)

	seen := make(map[OpCode]struct{}, len(pairs))
	for _, p := range pairs {
		_, dup := seen[p.Request]
		require.False(t, dup, OpcodeName(p.Request))
		seen[p.Request] = struct{}{}

		_, ok := LookupStatus(p.Status)
		require.True(t, ok, "no decoder for %s", OpcodeName(p.Status))
	}

	p, ok := LookupPair(OpNodeReset)
	require.True(t, ok)
	require.Equal(t, CategorySet, p.Category)

	p, ok = LookupPair(OpModSubGetVnd)
	require.True(t, ok)
	require.Equal(t, OpModSubListVnd, p.Status)
	require.Equal(t, CategoryGet, p.Category)

	_, ok = ExpectedStatus(OpBeaconStatus)
	require.False(t, ok)
}

func TestModPubSetEncoding(t *testing.T) {
	pub := ModPub{Addr: 0xc000, AppIdx: 0x005, CredFlag: true, TTL: 7, Transmit: 0x15}
	require.EqualValues(t, 0x1005, pub.AppKeyField())

	pub.CredFlag = false
	require.EqualValues(t, 0x0005, pub.AppKeyField())
	pub.CredFlag = true

	buf := ModPubSet{ElemAddr: 0x0001, Pub: pub, Model: SIGModel(0x1000)}.AppendTo(nil)
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0xc0, 0x05, 0x10, 0x07, 0x00, 0x15, 0x00, 0x10}, buf)

	buf = ModPubSet{ElemAddr: 0x0001, Pub: pub, Model: VendorModel(0x0059, 0x0001)}.AppendTo(nil)
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0xc0, 0x05, 0x10, 0x07, 0x00, 0x15, 0x59, 0x00, 0x01, 0x00}, buf)
}

func TestRequestEncoding(t *testing.T) {
	var key [16]byte
	for i := range key {
		key[i] = byte(i)
	}

	buf := AppKeyAdd{Op: OpAppKeyAdd, NetIdx: 0x123, AppIdx: 0x456, Key: key}.AppendTo(nil)
	require.Equal(t, append([]byte{0x23, 0x61, 0x45}, key[:]...), buf)

	buf = NetKeyAdd{Op: OpNetKeyUpdate, NetIdx: 0xf001, Key: key}.AppendTo(nil)
	require.Equal(t, append([]byte{0x01, 0x00}, key[:]...), buf)

	require.Equal(t, OpVndModAppGet, ModAppGet(0x0002, VendorModel(0x0059, 1)).Opcode())
	require.Equal(t, OpSigModAppGet, ModAppGet(0x0002, SIGModel(0x1000)).Opcode())
	require.Equal(t, OpModSubGetVnd, ModSubGet(0x0002, VendorModel(0x0059, 1)).Opcode())

	buf = ModSub{Op: OpModSubAdd, ElemAddr: 0x0002, SubAddr: 0xc001, Model: SIGModel(0x1000)}.AppendTo(nil)
	require.Equal(t, []byte{0x02, 0x00, 0x01, 0xc0, 0x00, 0x10}, buf)

	buf = HeartbeatPubSet{Dst: 0xc001, Count: 5, Period: 6, TTL: 7, Feat: 3, NetIdx: 1}.AppendTo(nil)
	require.Equal(t, []byte{0x01, 0xc0, 0x05, 0x06, 0x07, 0x03, 0x00, 0x01, 0x00}, buf)

	require.Empty(t, EmptyRequest{Op: OpNodeReset}.AppendTo(nil))
}

func TestModelIDPresence(t *testing.T) {
	sig := []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x10}
	s, err := UnmarshalModAppStatus(sig)
	require.NoError(t, err)
	require.Equal(t, SIGModel(0x1000), s.Model)
	require.EqualValues(t, 0x0001, s.ElemAddr)
	require.EqualValues(t, 0x0002, s.AppIdx)
	require.Equal(t, sig, s.AppendTo(nil))

	vnd := []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x59, 0x00, 0x01, 0x00}
	s, err = UnmarshalModAppStatus(vnd)
	require.NoError(t, err)
	require.Equal(t, VendorModel(0x0059, 0x0001), s.Model)
	require.True(t, s.Model.IsVendor())
	require.Equal(t, vnd, s.AppendTo(nil))

	_, err = UnmarshalModAppStatus(sig[:6])
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestModPubStatusDecode(t *testing.T) {
	buf := []byte{0x00, 0x01, 0x00, 0x00, 0xc0, 0x05, 0x10, 0x07, 0x00, 0x15, 0x00, 0x10}
	s, err := UnmarshalModPubStatus(buf)
	require.NoError(t, err)
	require.Equal(t, ModPub{Addr: 0xc000, AppIdx: 5, CredFlag: true, TTL: 7, Transmit: 0x15}, s.Pub)
	require.Equal(t, SIGModel(0x1000), s.Model)
	require.Equal(t, buf, s.AppendTo(nil))
}

func TestHeartbeatPubStatusDecode(t *testing.T) {
	buf := []byte{0x00, 0x01, 0xc0, 0x05, 0x06, 0x07, 0x03, 0x00, 0x01, 0x00}
	s, err := UnmarshalHeartbeatPubStatus(buf)
	require.NoError(t, err)
	require.Equal(t, HeartbeatPubStatus{Dst: 0xc001, Count: 5, Period: 6, TTL: 7, Feat: 3, NetIdx: 1}, s)
}

func TestCompDataStatus(t *testing.T) {
	page := []byte{0x00, 0x59, 0x00, 0x01, 0x00, 0x02, 0x00, 0x0a, 0x00, 0x07, 0x00, 0x00, 0x00, 0x01, 0x00}

	st, err := DecodeStatus(OpDevCompDataStatus, page)
	require.NoError(t, err)

	s := st.(*CompDataStatus)
	require.EqualValues(t, 0, s.Page)
	require.Equal(t, page[1:], s.Bytes())

	// The page is copied out of the inbound buffer.
	page[1] = 0xff
	require.EqualValues(t, 0x59, s.Bytes()[0])

	s.Release()
	require.Nil(t, s.Bytes())
	s.Release()

	_, err = DecodeStatus(OpDevCompDataStatus, page[:14])
	require.Equal(t, ErrShortPayload, err)
}

func TestStatusLists(t *testing.T) {
	al, err := UnmarshalAppKeyList([]byte{0x00, 0x01, 0x00, 0x23, 0x61, 0x45, 0x07, 0x00})
	require.NoError(t, err)
	require.Equal(t, AppKeyList{NetIdx: 1, AppIdxs: []uint16{0x123, 0x456, 0x007}}, al)

	_, err = UnmarshalAppKeyList([]byte{0x00, 0x01, 0x00, 0x23})
	require.Equal(t, ErrTrailingKeyIndex, err)

	nl, err := UnmarshalNetKeyList(nil)
	require.NoError(t, err)
	require.Empty(t, nl.NetIdxs)

	vnd := []byte{0x00, 0x02, 0x00, 0x59, 0x00, 0x01, 0x00, 0x00, 0xc0, 0x01, 0xc0}
	sl, err := UnmarshalModSubListVnd(vnd)
	require.NoError(t, err)
	require.Equal(t, VendorModel(0x0059, 0x0001), sl.Model)
	require.Equal(t, []uint16{0xc000, 0xc001}, sl.Addrs)
	require.Equal(t, OpModSubListVnd, sl.Opcode())
	require.Equal(t, vnd, sl.AppendTo(nil))

	_, err = UnmarshalModSubListVnd(vnd[:10])
	require.Equal(t, io.ErrUnexpectedEOF, err)

	ml, err := UnmarshalSigModAppList([]byte{0x00, 0x02, 0x00, 0x00, 0x10, 0x01, 0x00})
	require.NoError(t, err)
	require.Equal(t, SIGModel(0x1000), ml.Model)
	require.Equal(t, []uint16{0x001}, ml.AppIdxs)
	require.Equal(t, OpSigModAppList, ml.Opcode())
}

func TestDecodeStatus(t *testing.T) {
	_, err := DecodeStatus(OpBeaconGet, []byte{0x01})
	require.Equal(t, ErrUnknownOpcode, err)

	_, err = DecodeStatus(OpRelayStatus, []byte{0x01})
	require.Equal(t, ErrShortPayload, err)

	st, err := DecodeStatus(OpBeaconStatus, []byte{0x01})
	require.NoError(t, err)
	require.Equal(t, StateStatus{Op: OpBeaconStatus, Value: 1}, st)

	st, err = DecodeStatus(OpNodeResetStatus, nil)
	require.NoError(t, err)
	require.Equal(t, OpNodeResetStatus, st.Opcode())

	st, err = DecodeStatus(OpLPNTimeoutStatus, []byte{0x05, 0x00, 0x10, 0x27, 0x00})
	require.NoError(t, err)
	require.Equal(t, LPNTimeoutStatus{LPNAddr: 5, PollTimeout: 10000}, st)
}

func TestStatusRoundTrip(t *testing.T) {
	page := []byte{0xf1, 0x05, 0x01, 0x00, 0x01, 0x00, 0x0a, 0x00, 0x07, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}
	pub := ModPub{Addr: 0xc001, AppIdx: 0x123, CredFlag: true, TTL: 5, Period: 0x41, Transmit: 0x22}

	cases := map[string]struct {
		status Status
		size   int
	}{
		"beacon":           {StateStatus{Op: OpBeaconStatus, Value: 1}, 1},
		"default ttl":      {StateStatus{Op: OpDefaultTTLStatus, Value: 7}, 1},
		"friend":           {StateStatus{Op: OpFriendStatus, Value: 2}, 1},
		"gatt proxy":       {StateStatus{Op: OpGattProxyStatus, Value: 0}, 1},
		"net transmit":     {StateStatus{Op: OpNetTransmitStatus, Value: 0x2a}, 1},
		"relay":            {RelayStatus{Relay: 1, Retransmit: 0x15}, 2},
		"net key":          {NetKeyStatus{Status: StatusSuccess, NetIdx: 0xabc}, 3},
		"app key":          {AppKeyStatus{Status: StatusInvalidNetKey, NetIdx: 0x123, AppIdx: 0x456}, 4},
		"mod app sig":      {ModAppStatus{ElemAddr: 0x0002, AppIdx: 0x001, Model: SIGModel(0x1000)}, 7},
		"mod app vendor":   {ModAppStatus{ElemAddr: 0x0002, AppIdx: 0x001, Model: VendorModel(0x0059, 0x0001)}, 9},
		"mod pub sig":      {ModPubStatus{ElemAddr: 0x0002, Pub: pub, Model: SIGModel(0x1000)}, 12},
		"mod pub vendor":   {ModPubStatus{Status: 4, ElemAddr: 0x0002, Pub: pub, Model: VendorModel(0x0059, 0x0001)}, 14},
		"mod sub sig":      {ModSubStatus{ElemAddr: 0x0002, SubAddr: 0xc000, Model: SIGModel(0x1000)}, 7},
		"mod sub vendor":   {ModSubStatus{Status: 1, ElemAddr: 0x0003, SubAddr: 0xc100, Model: VendorModel(0x0059, 0x0002)}, 9},
		"heartbeat sub":    {HeartbeatSubStatus{Src: 0x0001, Dst: 0xc000, Period: 3, Count: 4, Min: 1, Max: 6}, 9},
		"heartbeat pub":    {HeartbeatPubStatus{Dst: 0xc000, Count: 2, Period: 3, TTL: 7, Feat: 0x000f, NetIdx: 0x001}, 10},
		"node reset":       {NodeResetStatus{}, 0},
		"node identity":    {NodeIdentityStatus{NetIdx: 0x002, Identity: 1}, 4},
		"key refresh":      {KRPStatus{NetIdx: 0x003, Phase: 2}, 4},
		"lpn timeout":      {LPNTimeoutStatus{LPNAddr: 0x0010, PollTimeout: 0x0a0b0c}, 5},
		"net key list":     {NetKeyList{NetIdxs: []uint16{0x000, 0x123, 0x456}}, 5},
		"app key list":     {AppKeyList{NetIdx: 0x001, AppIdxs: []uint16{0x010, 0x020}}, 6},
		"sub list sig":     {ModSubList{ElemAddr: 0x0002, Model: SIGModel(0x1000), Addrs: []uint16{0xc000, 0xc001}}, 9},
		"sub list vendor":  {ModSubList{ElemAddr: 0x0002, Model: VendorModel(0x0059, 0x0001), Addrs: []uint16{0xc000}}, 9},
		"app list sig":     {ModAppList{ElemAddr: 0x0002, Model: SIGModel(0x1000), AppIdxs: []uint16{0x001}}, 7},
		"app list vendor":  {ModAppList{ElemAddr: 0x0002, Model: VendorModel(0x0059, 0x0001), AppIdxs: []uint16{0x001, 0x002}}, 10},
		"composition data": {&CompDataStatus{Data: &bytebufferpool.ByteBuffer{B: page}}, 1 + len(page)},
	}

	for name, tc := range cases {
		buf := tc.status.AppendTo(nil)
		require.Len(t, buf, tc.size, name)

		got, err := DecodeStatus(tc.status.Opcode(), buf)
		require.NoError(t, err, name)
		require.Equal(t, tc.status.Opcode(), got.Opcode(), name)

		if cd, ok := got.(*CompDataStatus); ok {
			require.Equal(t, page, cd.Bytes(), name)
			cd.Release()
			require.Nil(t, cd.Bytes(), name)
			continue
		}
		require.Equal(t, tc.status, got, name)
	}

	// A short payload of either model kind is rejected before decoding.
	_, err := DecodeStatus(OpModSubStatus, ModSubStatus{Model: SIGModel(1)}.AppendTo(nil)[:6])
	require.ErrorIs(t, err, ErrShortPayload)
}
