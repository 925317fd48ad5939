package foundation

// Category separates requests that only read node state from requests that change it.
type Category uint8

const (
	CategoryGet Category = 0x00
	CategorySet Category = 0x01
)

func (c Category) String() string {
	if c == CategoryGet {
		return "get"
	}
	return "set"
}

// OpPair binds a request opcode to the status opcode a node answers it with.
type OpPair struct {
	Request  OpCode
	Status   OpCode
	Category Category
}

var opPairs = [...]OpPair{
	{OpBeaconGet, OpBeaconStatus, CategoryGet},
	{OpBeaconSet, OpBeaconStatus, CategorySet},
	{OpDevCompDataGet, OpDevCompDataStatus, CategoryGet},
	{OpDefaultTTLGet, OpDefaultTTLStatus, CategoryGet},
	{OpDefaultTTLSet, OpDefaultTTLStatus, CategorySet},
	{OpGattProxyGet, OpGattProxyStatus, CategoryGet},
	{OpGattProxySet, OpGattProxyStatus, CategorySet},
	{OpRelayGet, OpRelayStatus, CategoryGet},
	{OpRelaySet, OpRelayStatus, CategorySet},
	{OpModPubGet, OpModPubStatus, CategoryGet},
	{OpModPubSet, OpModPubStatus, CategorySet},
	{OpModPubVASet, OpModPubStatus, CategorySet},
	{OpModSubAdd, OpModSubStatus, CategorySet},
	{OpModSubVAAdd, OpModSubStatus, CategorySet},
	{OpModSubDel, OpModSubStatus, CategorySet},
	{OpModSubVADel, OpModSubStatus, CategorySet},
	{OpModSubOverwrite, OpModSubStatus, CategorySet},
	{OpModSubVAOverwrite, OpModSubStatus, CategorySet},
	{OpModSubDelAll, OpModSubStatus, CategorySet},
	{OpModSubGet, OpModSubList, CategoryGet},
	{OpModSubGetVnd, OpModSubListVnd, CategoryGet},
	{OpNetKeyAdd, OpNetKeyStatus, CategorySet},
	{OpNetKeyUpdate, OpNetKeyStatus, CategorySet},
	{OpNetKeyDel, OpNetKeyStatus, CategorySet},
	{OpNetKeyGet, OpNetKeyList, CategoryGet},
	{OpAppKeyAdd, OpAppKeyStatus, CategorySet},
	{OpAppKeyUpdate, OpAppKeyStatus, CategorySet},
	{OpAppKeyDel, OpAppKeyStatus, CategorySet},
	{OpAppKeyGet, OpAppKeyList, CategoryGet},
	{OpNodeIdentityGet, OpNodeIdentityStatus, CategoryGet},
	{OpNodeIdentitySet, OpNodeIdentityStatus, CategorySet},
	{OpModAppBind, OpModAppStatus, CategorySet},
	{OpModAppUnbind, OpModAppStatus, CategorySet},
	{OpSigModAppGet, OpSigModAppList, CategoryGet},
	{OpVndModAppGet, OpVndModAppList, CategoryGet},
	{OpNodeReset, OpNodeResetStatus, CategorySet},
	{OpFriendGet, OpFriendStatus, CategoryGet},
	{OpFriendSet, OpFriendStatus, CategorySet},
	{OpKRPGet, OpKRPStatus, CategoryGet},
	{OpKRPSet, OpKRPStatus, CategorySet},
	{OpHeartbeatPubGet, OpHeartbeatPubStatus, CategoryGet},
	{OpHeartbeatPubSet, OpHeartbeatPubStatus, CategorySet},
	{OpHeartbeatSubGet, OpHeartbeatSubStatus, CategoryGet},
	{OpHeartbeatSubSet, OpHeartbeatSubStatus, CategorySet},
	{OpLPNTimeoutGet, OpLPNTimeoutStatus, CategoryGet},
	{OpNetTransmitGet, OpNetTransmitStatus, CategoryGet},
	{OpNetTransmitSet, OpNetTransmitStatus, CategorySet},
}

var pairByRequest = func() map[OpCode]OpPair {
	m := make(map[OpCode]OpPair, len(opPairs))
	for _, p := range opPairs {
		m[p.Request] = p
	}
	return m
}()

// LookupPair returns the pairing entry for a request opcode.
func LookupPair(request OpCode) (OpPair, bool) {
	p, ok := pairByRequest[request]
	return p, ok
}

// ExpectedStatus returns the status opcode a node replies to request with.
func ExpectedStatus(request OpCode) (OpCode, bool) {
	p, ok := pairByRequest[request]
	return p.Status, ok
}

// OpPairs returns a copy of the pairing table.
func OpPairs() []OpPair {
	out := make([]OpPair, len(opPairs))
	copy(out, opPairs[:])
	return out
}
