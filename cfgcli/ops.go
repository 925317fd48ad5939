package cfgcli

import (
	"context"
	"fmt"

	fd "github.com/TheSmallBoat/meshcfg/foundation"
)

func checkKeyIndex(idxs ...uint16) error {
	for _, idx := range idxs {
		if idx > fd.KeyIndexMask {
			return fmt.Errorf("%w: key index 0x%04x exceeds 12 bits", ErrInvalidArgument, idx)
		}
	}
	return nil
}

func checkVendor(model fd.ModelID) error {
	if !model.IsVendor() {
		return fmt.Errorf("%w: vendor model %s has no company id", ErrInvalidArgument, model)
	}
	return nil
}

func (c *Client) CompDataGet(ctx context.Context, mctx MsgContext, page uint8) error {
	return c.request(ctx, mctx, fd.CompDataGet{Page: page})
}

func (c *Client) BeaconGet(ctx context.Context, mctx MsgContext) error {
	return c.request(ctx, mctx, fd.EmptyRequest{Op: fd.OpBeaconGet})
}

func (c *Client) BeaconSet(ctx context.Context, mctx MsgContext, beacon uint8) error {
	return c.request(ctx, mctx, fd.StateSet{Op: fd.OpBeaconSet, Value: beacon})
}

func (c *Client) TTLGet(ctx context.Context, mctx MsgContext) error {
	return c.request(ctx, mctx, fd.EmptyRequest{Op: fd.OpDefaultTTLGet})
}

func (c *Client) TTLSet(ctx context.Context, mctx MsgContext, ttl uint8) error {
	return c.request(ctx, mctx, fd.StateSet{Op: fd.OpDefaultTTLSet, Value: ttl})
}

func (c *Client) GattProxyGet(ctx context.Context, mctx MsgContext) error {
	return c.request(ctx, mctx, fd.EmptyRequest{Op: fd.OpGattProxyGet})
}

func (c *Client) GattProxySet(ctx context.Context, mctx MsgContext, proxy uint8) error {
	return c.request(ctx, mctx, fd.StateSet{Op: fd.OpGattProxySet, Value: proxy})
}

func (c *Client) FriendGet(ctx context.Context, mctx MsgContext) error {
	return c.request(ctx, mctx, fd.EmptyRequest{Op: fd.OpFriendGet})
}

func (c *Client) FriendSet(ctx context.Context, mctx MsgContext, friend uint8) error {
	return c.request(ctx, mctx, fd.StateSet{Op: fd.OpFriendSet, Value: friend})
}

func (c *Client) RelayGet(ctx context.Context, mctx MsgContext) error {
	return c.request(ctx, mctx, fd.EmptyRequest{Op: fd.OpRelayGet})
}

func (c *Client) RelaySet(ctx context.Context, mctx MsgContext, relay, retransmit uint8) error {
	return c.request(ctx, mctx, fd.RelaySet{Relay: relay, Retransmit: retransmit})
}

func (c *Client) NetTransmitGet(ctx context.Context, mctx MsgContext) error {
	return c.request(ctx, mctx, fd.EmptyRequest{Op: fd.OpNetTransmitGet})
}

func (c *Client) NetTransmitSet(ctx context.Context, mctx MsgContext, transmit uint8) error {
	return c.request(ctx, mctx, fd.StateSet{Op: fd.OpNetTransmitSet, Value: transmit})
}

func (c *Client) NetKeyAdd(ctx context.Context, mctx MsgContext, netIdx uint16, key [16]byte) error {
	if err := checkKeyIndex(netIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.NetKeyAdd{Op: fd.OpNetKeyAdd, NetIdx: netIdx, Key: key})
}

func (c *Client) NetKeyUpdate(ctx context.Context, mctx MsgContext, netIdx uint16, key [16]byte) error {
	if err := checkKeyIndex(netIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.NetKeyAdd{Op: fd.OpNetKeyUpdate, NetIdx: netIdx, Key: key})
}

func (c *Client) NetKeyDelete(ctx context.Context, mctx MsgContext, netIdx uint16) error {
	if err := checkKeyIndex(netIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.NetKeyIndex{Op: fd.OpNetKeyDel, NetIdx: netIdx})
}

func (c *Client) NetKeyGet(ctx context.Context, mctx MsgContext) error {
	return c.request(ctx, mctx, fd.EmptyRequest{Op: fd.OpNetKeyGet})
}

func (c *Client) AppKeyAdd(ctx context.Context, mctx MsgContext, netIdx, appIdx uint16, key [16]byte) error {
	if err := checkKeyIndex(netIdx, appIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.AppKeyAdd{Op: fd.OpAppKeyAdd, NetIdx: netIdx, AppIdx: appIdx, Key: key})
}

func (c *Client) AppKeyUpdate(ctx context.Context, mctx MsgContext, netIdx, appIdx uint16, key [16]byte) error {
	if err := checkKeyIndex(netIdx, appIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.AppKeyAdd{Op: fd.OpAppKeyUpdate, NetIdx: netIdx, AppIdx: appIdx, Key: key})
}

func (c *Client) AppKeyDelete(ctx context.Context, mctx MsgContext, netIdx, appIdx uint16) error {
	if err := checkKeyIndex(netIdx, appIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.AppKeyDel{NetIdx: netIdx, AppIdx: appIdx})
}

func (c *Client) AppKeyGet(ctx context.Context, mctx MsgContext, netIdx uint16) error {
	if err := checkKeyIndex(netIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.NetKeyIndex{Op: fd.OpAppKeyGet, NetIdx: netIdx})
}

func (c *Client) NodeIdentityGet(ctx context.Context, mctx MsgContext, netIdx uint16) error {
	if err := checkKeyIndex(netIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.NetKeyIndex{Op: fd.OpNodeIdentityGet, NetIdx: netIdx})
}

func (c *Client) NodeIdentitySet(ctx context.Context, mctx MsgContext, netIdx uint16, identity uint8) error {
	if err := checkKeyIndex(netIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.NetKeyIndexState{Op: fd.OpNodeIdentitySet, NetIdx: netIdx, Value: identity})
}

func (c *Client) KRPGet(ctx context.Context, mctx MsgContext, netIdx uint16) error {
	if err := checkKeyIndex(netIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.NetKeyIndex{Op: fd.OpKRPGet, NetIdx: netIdx})
}

// KRPSet moves a network key to a key refresh phase; phase is the transition value (2 or 3).
func (c *Client) KRPSet(ctx context.Context, mctx MsgContext, netIdx uint16, phase uint8) error {
	if err := checkKeyIndex(netIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.NetKeyIndexState{Op: fd.OpKRPSet, NetIdx: netIdx, Value: phase})
}

func (c *Client) LPNTimeoutGet(ctx context.Context, mctx MsgContext, lpnAddr uint16) error {
	return c.request(ctx, mctx, fd.LPNTimeoutGet{LPNAddr: lpnAddr})
}

func (c *Client) ModAppBind(ctx context.Context, mctx MsgContext, elemAddr, appIdx uint16, model fd.ModelID) error {
	if err := checkKeyIndex(appIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.ModApp{Op: fd.OpModAppBind, ElemAddr: elemAddr, AppIdx: appIdx, Model: model})
}

func (c *Client) ModAppUnbind(ctx context.Context, mctx MsgContext, elemAddr, appIdx uint16, model fd.ModelID) error {
	if err := checkKeyIndex(appIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.ModApp{Op: fd.OpModAppUnbind, ElemAddr: elemAddr, AppIdx: appIdx, Model: model})
}

func (c *Client) SigModAppGet(ctx context.Context, mctx MsgContext, elemAddr, modelID uint16) error {
	return c.request(ctx, mctx, fd.ModAppGet(elemAddr, fd.SIGModel(modelID)))
}

func (c *Client) VndModAppGet(ctx context.Context, mctx MsgContext, elemAddr uint16, model fd.ModelID) error {
	if err := checkVendor(model); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.ModAppGet(elemAddr, model))
}

func (c *Client) ModSubAdd(ctx context.Context, mctx MsgContext, elemAddr, subAddr uint16, model fd.ModelID) error {
	return c.request(ctx, mctx, fd.ModSub{Op: fd.OpModSubAdd, ElemAddr: elemAddr, SubAddr: subAddr, Model: model})
}

func (c *Client) ModSubDelete(ctx context.Context, mctx MsgContext, elemAddr, subAddr uint16, model fd.ModelID) error {
	return c.request(ctx, mctx, fd.ModSub{Op: fd.OpModSubDel, ElemAddr: elemAddr, SubAddr: subAddr, Model: model})
}

func (c *Client) ModSubOverwrite(ctx context.Context, mctx MsgContext, elemAddr, subAddr uint16, model fd.ModelID) error {
	return c.request(ctx, mctx, fd.ModSub{Op: fd.OpModSubOverwrite, ElemAddr: elemAddr, SubAddr: subAddr, Model: model})
}

func (c *Client) ModSubVAAdd(ctx context.Context, mctx MsgContext, elemAddr uint16, label [16]byte, model fd.ModelID) error {
	return c.request(ctx, mctx, fd.ModSubVA{Op: fd.OpModSubVAAdd, ElemAddr: elemAddr, Label: label, Model: model})
}

func (c *Client) ModSubVADelete(ctx context.Context, mctx MsgContext, elemAddr uint16, label [16]byte, model fd.ModelID) error {
	return c.request(ctx, mctx, fd.ModSubVA{Op: fd.OpModSubVADel, ElemAddr: elemAddr, Label: label, Model: model})
}

func (c *Client) ModSubVAOverwrite(ctx context.Context, mctx MsgContext, elemAddr uint16, label [16]byte, model fd.ModelID) error {
	return c.request(ctx, mctx, fd.ModSubVA{Op: fd.OpModSubVAOverwrite, ElemAddr: elemAddr, Label: label, Model: model})
}

func (c *Client) ModSubDeleteAll(ctx context.Context, mctx MsgContext, elemAddr uint16, model fd.ModelID) error {
	return c.request(ctx, mctx, fd.ModSubDelAll(elemAddr, model))
}

func (c *Client) ModSubGet(ctx context.Context, mctx MsgContext, elemAddr, modelID uint16) error {
	return c.request(ctx, mctx, fd.ModSubGet(elemAddr, fd.SIGModel(modelID)))
}

func (c *Client) ModSubGetVnd(ctx context.Context, mctx MsgContext, elemAddr uint16, model fd.ModelID) error {
	if err := checkVendor(model); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.ModSubGet(elemAddr, model))
}

func (c *Client) ModPubGet(ctx context.Context, mctx MsgContext, elemAddr uint16, model fd.ModelID) error {
	return c.request(ctx, mctx, fd.ModPubGet(elemAddr, model))
}

func (c *Client) ModPubSet(ctx context.Context, mctx MsgContext, elemAddr uint16, pub fd.ModPub, model fd.ModelID) error {
	if err := checkKeyIndex(pub.AppIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.ModPubSet{ElemAddr: elemAddr, Pub: pub, Model: model})
}

// ModPubVASet publishes to the virtual address derived from label; pub.Addr is ignored.
func (c *Client) ModPubVASet(ctx context.Context, mctx MsgContext, elemAddr uint16, label [16]byte, pub fd.ModPub, model fd.ModelID) error {
	if err := checkKeyIndex(pub.AppIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, fd.ModPubVASet{ElemAddr: elemAddr, Label: label, Pub: pub, Model: model})
}

func (c *Client) HeartbeatPubGet(ctx context.Context, mctx MsgContext) error {
	return c.request(ctx, mctx, fd.EmptyRequest{Op: fd.OpHeartbeatPubGet})
}

func (c *Client) HeartbeatPubSet(ctx context.Context, mctx MsgContext, pub fd.HeartbeatPubSet) error {
	if err := checkKeyIndex(pub.NetIdx); err != nil {
		return err
	}
	return c.request(ctx, mctx, pub)
}

func (c *Client) HeartbeatSubGet(ctx context.Context, mctx MsgContext) error {
	return c.request(ctx, mctx, fd.EmptyRequest{Op: fd.OpHeartbeatSubGet})
}

func (c *Client) HeartbeatSubSet(ctx context.Context, mctx MsgContext, sub fd.HeartbeatSubSet) error {
	return c.request(ctx, mctx, sub)
}

func (c *Client) NodeReset(ctx context.Context, mctx MsgContext) error {
	return c.request(ctx, mctx, fd.EmptyRequest{Op: fd.OpNodeReset})
}
