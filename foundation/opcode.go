package foundation

import (
	"fmt"
	"io"

	"github.com/lithdew/bytesutil"
)

type OpCode = uint32

// Configuration model request opcodes.
const (
	OpAppKeyAdd          OpCode = 0x00
	OpAppKeyUpdate       OpCode = 0x01
	OpModPubSet          OpCode = 0x03
	OpAppKeyDel          OpCode = 0x8000
	OpAppKeyGet          OpCode = 0x8001
	OpDevCompDataGet     OpCode = 0x8008
	OpBeaconGet          OpCode = 0x8009
	OpBeaconSet          OpCode = 0x800a
	OpDefaultTTLGet      OpCode = 0x800c
	OpDefaultTTLSet      OpCode = 0x800d
	OpFriendGet          OpCode = 0x800f
	OpFriendSet          OpCode = 0x8010
	OpGattProxyGet       OpCode = 0x8012
	OpGattProxySet       OpCode = 0x8013
	OpKRPGet             OpCode = 0x8015
	OpKRPSet             OpCode = 0x8016
	OpModPubGet          OpCode = 0x8018
	OpModPubVASet        OpCode = 0x801a
	OpModSubAdd          OpCode = 0x801b
	OpModSubDel          OpCode = 0x801c
	OpModSubDelAll       OpCode = 0x801d
	OpModSubOverwrite    OpCode = 0x801e
	OpModSubVAAdd        OpCode = 0x8020
	OpModSubVADel        OpCode = 0x8021
	OpModSubVAOverwrite  OpCode = 0x8022
	OpNetTransmitGet     OpCode = 0x8023
	OpNetTransmitSet     OpCode = 0x8024
	OpRelayGet           OpCode = 0x8026
	OpRelaySet           OpCode = 0x8027
	OpModSubGet          OpCode = 0x8029
	OpModSubGetVnd       OpCode = 0x802b
	OpLPNTimeoutGet      OpCode = 0x802d
	OpHeartbeatPubGet    OpCode = 0x8038
	OpHeartbeatPubSet    OpCode = 0x8039
	OpHeartbeatSubGet    OpCode = 0x803a
	OpHeartbeatSubSet    OpCode = 0x803b
	OpModAppBind         OpCode = 0x803d
	OpModAppUnbind       OpCode = 0x803f
	OpNetKeyAdd          OpCode = 0x8040
	OpNetKeyDel          OpCode = 0x8041
	OpNetKeyGet          OpCode = 0x8042
	OpNetKeyUpdate       OpCode = 0x8045
	OpNodeIdentityGet    OpCode = 0x8046
	OpNodeIdentitySet    OpCode = 0x8047
	OpNodeReset          OpCode = 0x8049
	OpSigModAppGet       OpCode = 0x804b
	OpVndModAppGet       OpCode = 0x804d
)

// Configuration model status opcodes.
const (
	OpDevCompDataStatus  OpCode = 0x02
	OpHeartbeatPubStatus OpCode = 0x06
	OpAppKeyList         OpCode = 0x8002
	OpAppKeyStatus       OpCode = 0x8003
	OpBeaconStatus       OpCode = 0x800b
	OpDefaultTTLStatus   OpCode = 0x800e
	OpFriendStatus       OpCode = 0x8011
	OpGattProxyStatus    OpCode = 0x8014
	OpKRPStatus          OpCode = 0x8017
	OpModPubStatus       OpCode = 0x8019
	OpModSubStatus       OpCode = 0x801f
	OpNetTransmitStatus  OpCode = 0x8025
	OpRelayStatus        OpCode = 0x8028
	OpModSubList         OpCode = 0x802a
	OpModSubListVnd      OpCode = 0x802c
	OpLPNTimeoutStatus   OpCode = 0x802e
	OpHeartbeatSubStatus OpCode = 0x803c
	OpModAppStatus       OpCode = 0x803e
	OpNetKeyList         OpCode = 0x8043
	OpNetKeyStatus       OpCode = 0x8044
	OpNodeIdentityStatus OpCode = 0x8048
	OpNodeResetStatus    OpCode = 0x804a
	OpSigModAppList      OpCode = 0x804c
	OpVndModAppList      OpCode = 0x804e
)

var opcodeNames = map[OpCode]string{
	OpAppKeyAdd:          "APP_KEY_ADD",
	OpAppKeyUpdate:       "APP_KEY_UPDATE",
	OpModPubSet:          "MOD_PUB_SET",
	OpAppKeyDel:          "APP_KEY_DEL",
	OpAppKeyGet:          "APP_KEY_GET",
	OpDevCompDataGet:     "DEV_COMP_DATA_GET",
	OpBeaconGet:          "BEACON_GET",
	OpBeaconSet:          "BEACON_SET",
	OpDefaultTTLGet:      "DEFAULT_TTL_GET",
	OpDefaultTTLSet:      "DEFAULT_TTL_SET",
	OpFriendGet:          "FRIEND_GET",
	OpFriendSet:          "FRIEND_SET",
	OpGattProxyGet:       "GATT_PROXY_GET",
	OpGattProxySet:       "GATT_PROXY_SET",
	OpKRPGet:             "KRP_GET",
	OpKRPSet:             "KRP_SET",
	OpModPubGet:          "MOD_PUB_GET",
	OpModPubVASet:        "MOD_PUB_VA_SET",
	OpModSubAdd:          "MOD_SUB_ADD",
	OpModSubDel:          "MOD_SUB_DEL",
	OpModSubDelAll:       "MOD_SUB_DEL_ALL",
	OpModSubOverwrite:    "MOD_SUB_OVERWRITE",
	OpModSubVAAdd:        "MOD_SUB_VA_ADD",
	OpModSubVADel:        "MOD_SUB_VA_DEL",
	OpModSubVAOverwrite:  "MOD_SUB_VA_OVERWRITE",
	OpNetTransmitGet:     "NET_TRANSMIT_GET",
	OpNetTransmitSet:     "NET_TRANSMIT_SET",
	OpRelayGet:           "RELAY_GET",
	OpRelaySet:           "RELAY_SET",
	OpModSubGet:          "MOD_SUB_GET",
	OpModSubGetVnd:       "MOD_SUB_GET_VND",
	OpLPNTimeoutGet:      "LPN_TIMEOUT_GET",
	OpHeartbeatPubGet:    "HEARTBEAT_PUB_GET",
	OpHeartbeatPubSet:    "HEARTBEAT_PUB_SET",
	OpHeartbeatSubGet:    "HEARTBEAT_SUB_GET",
	OpHeartbeatSubSet:    "HEARTBEAT_SUB_SET",
	OpModAppBind:         "MOD_APP_BIND",
	OpModAppUnbind:       "MOD_APP_UNBIND",
	OpNetKeyAdd:          "NET_KEY_ADD",
	OpNetKeyDel:          "NET_KEY_DEL",
	OpNetKeyGet:          "NET_KEY_GET",
	OpNetKeyUpdate:       "NET_KEY_UPDATE",
	OpNodeIdentityGet:    "NODE_IDENTITY_GET",
	OpNodeIdentitySet:    "NODE_IDENTITY_SET",
	OpNodeReset:          "NODE_RESET",
	OpSigModAppGet:       "SIG_MOD_APP_GET",
	OpVndModAppGet:       "VND_MOD_APP_GET",
	OpDevCompDataStatus:  "DEV_COMP_DATA_STATUS",
	OpHeartbeatPubStatus: "HEARTBEAT_PUB_STATUS",
	OpAppKeyList:         "APP_KEY_LIST",
	OpAppKeyStatus:       "APP_KEY_STATUS",
	OpBeaconStatus:       "BEACON_STATUS",
	OpDefaultTTLStatus:   "DEFAULT_TTL_STATUS",
	OpFriendStatus:       "FRIEND_STATUS",
	OpGattProxyStatus:    "GATT_PROXY_STATUS",
	OpKRPStatus:          "KRP_STATUS",
	OpModPubStatus:       "MOD_PUB_STATUS",
	OpModSubStatus:       "MOD_SUB_STATUS",
	OpNetTransmitStatus:  "NET_TRANSMIT_STATUS",
	OpRelayStatus:        "RELAY_STATUS",
	OpModSubList:         "MOD_SUB_LIST",
	OpModSubListVnd:      "MOD_SUB_LIST_VND",
	OpLPNTimeoutStatus:   "LPN_TIMEOUT_STATUS",
	OpHeartbeatSubStatus: "HEARTBEAT_SUB_STATUS",
	OpModAppStatus:       "MOD_APP_STATUS",
	OpNetKeyList:         "NET_KEY_LIST",
	OpNetKeyStatus:       "NET_KEY_STATUS",
	OpNodeIdentityStatus: "NODE_IDENTITY_STATUS",
	OpNodeResetStatus:    "NODE_RESET_STATUS",
	OpSigModAppList:      "SIG_MOD_APP_LIST",
	OpVndModAppList:      "VND_MOD_APP_LIST",
}

// OpcodeName returns a human readable name for op, used for logs and metric labels.
func OpcodeName(op OpCode) string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("0x%06x", op)
}

// OpcodeLen returns the number of bytes op occupies on the wire.
func OpcodeLen(op OpCode) int {
	switch {
	case op < 0x7f:
		return 1
	case op < 0x010000:
		return 2
	default:
		return 3
	}
}

// AppendOpcode appends the access layer encoding of op to dst. Two byte opcodes are
// big-endian; vendor opcodes carry their company ID little-endian.
func AppendOpcode(dst []byte, op OpCode) []byte {
	switch OpcodeLen(op) {
	case 1:
		return append(dst, byte(op))
	case 2:
		return bytesutil.AppendUint16BE(dst, uint16(op))
	default:
		dst = append(dst, byte(op>>16))
		return appendUint16LE(dst, uint16(op))
	}
}

// ParseOpcode splits an access PDU into its opcode and parameters.
func ParseOpcode(buf []byte) (OpCode, []byte, error) {
	if len(buf) < 1 {
		return 0, buf, io.ErrUnexpectedEOF
	}
	switch buf[0] >> 6 {
	case 0, 1:
		if buf[0] == 0x7f {
			return 0, buf, ErrReservedOpcode
		}
		return OpCode(buf[0]), buf[1:], nil
	case 2:
		if len(buf) < 2 {
			return 0, buf, io.ErrUnexpectedEOF
		}
		return OpCode(bytesutil.Uint16BE(buf[:2])), buf[2:], nil
	default:
		if len(buf) < 3 {
			return 0, buf, io.ErrUnexpectedEOF
		}
		return OpCode(buf[0])<<16 | OpCode(uint16LE(buf[1:3])), buf[3:], nil
	}
}
