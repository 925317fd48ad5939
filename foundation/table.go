package foundation

// StatusEntry is one row of the status dispatch table. Decode is only valid for
// payloads of at least MinLen bytes.
type StatusEntry struct {
	Opcode OpCode
	MinLen int
	Decode func(buf []byte) (Status, error)
}

func decodeWith[T Status](fn func([]byte) (T, error)) func([]byte) (Status, error) {
	return func(buf []byte) (Status, error) {
		s, err := fn(buf)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

var statusTable = [...]StatusEntry{
	{OpDevCompDataStatus, 15, decodeWith(UnmarshalCompDataStatus)},
	{OpBeaconStatus, 1, unmarshalStateStatus(OpBeaconStatus)},
	{OpDefaultTTLStatus, 1, unmarshalStateStatus(OpDefaultTTLStatus)},
	{OpFriendStatus, 1, unmarshalStateStatus(OpFriendStatus)},
	{OpGattProxyStatus, 1, unmarshalStateStatus(OpGattProxyStatus)},
	{OpNetTransmitStatus, 1, unmarshalStateStatus(OpNetTransmitStatus)},
	{OpRelayStatus, 2, decodeWith(UnmarshalRelayStatus)},
	{OpNetKeyStatus, 3, decodeWith(UnmarshalNetKeyStatus)},
	{OpAppKeyStatus, 4, decodeWith(UnmarshalAppKeyStatus)},
	{OpModAppStatus, 7, decodeWith(UnmarshalModAppStatus)},
	{OpModPubStatus, 12, decodeWith(UnmarshalModPubStatus)},
	{OpModSubStatus, 7, decodeWith(UnmarshalModSubStatus)},
	{OpHeartbeatSubStatus, 9, decodeWith(UnmarshalHeartbeatSubStatus)},
	{OpHeartbeatPubStatus, 10, decodeWith(UnmarshalHeartbeatPubStatus)},
	{OpNodeResetStatus, 0, func([]byte) (Status, error) { return NodeResetStatus{}, nil }},
	{OpNetKeyList, 0, decodeWith(UnmarshalNetKeyList)},
	{OpAppKeyList, 3, decodeWith(UnmarshalAppKeyList)},
	{OpModSubList, 5, decodeWith(UnmarshalModSubList)},
	{OpModSubListVnd, 7, decodeWith(UnmarshalModSubListVnd)},
	{OpSigModAppList, 5, decodeWith(UnmarshalSigModAppList)},
	{OpVndModAppList, 7, decodeWith(UnmarshalVndModAppList)},
	{OpNodeIdentityStatus, 4, decodeWith(UnmarshalNodeIdentityStatus)},
	{OpKRPStatus, 4, decodeWith(UnmarshalKRPStatus)},
	{OpLPNTimeoutStatus, 5, decodeWith(UnmarshalLPNTimeoutStatus)},
}

var statusByOpcode = func() map[OpCode]StatusEntry {
	m := make(map[OpCode]StatusEntry, len(statusTable))
	for _, e := range statusTable {
		m[e.Opcode] = e
	}
	return m
}()

// LookupStatus returns the dispatch entry for a status opcode.
func LookupStatus(op OpCode) (StatusEntry, bool) {
	e, ok := statusByOpcode[op]
	return e, ok
}

// DecodeStatus enforces the opcode's minimum length and decodes buf.
func DecodeStatus(op OpCode, buf []byte) (Status, error) {
	e, ok := statusByOpcode[op]
	if !ok {
		return nil, ErrUnknownOpcode
	}
	if len(buf) < e.MinLen {
		return nil, ErrShortPayload
	}
	return e.Decode(buf)
}
