package foundation

import "fmt"

// CIDNone marks a model identifier without a company ID, i.e. a SIG model.
const CIDNone uint16 = 0xffff

// ModelID addresses a model on an element. Vendor models carry a company ID.
type ModelID struct {
	CID uint16
	ID  uint16
}

func SIGModel(id uint16) ModelID { return ModelID{CID: CIDNone, ID: id} }

func VendorModel(cid, id uint16) ModelID { return ModelID{CID: cid, ID: id} }

func (m ModelID) IsVendor() bool { return m.CID != CIDNone }

func (m ModelID) String() string {
	if m.IsVendor() {
		return fmt.Sprintf("%04x:%04x", m.CID, m.ID)
	}
	return fmt.Sprintf("%04x", m.ID)
}

// AppendTo writes the model identifier; the company ID is left out entirely for SIG models.
func (m ModelID) AppendTo(dst []byte) []byte {
	if m.IsVendor() {
		dst = appendUint16LE(dst, m.CID)
	}
	return appendUint16LE(dst, m.ID)
}
