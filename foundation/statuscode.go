package foundation

// Status codes carried in the first byte of most configuration status messages.
const (
	StatusSuccess               uint8 = 0x00
	StatusInvalidAddress        uint8 = 0x01
	StatusInvalidModel          uint8 = 0x02
	StatusInvalidAppKey         uint8 = 0x03
	StatusInvalidNetKey         uint8 = 0x04
	StatusInsufficientResources uint8 = 0x05
	StatusKeyIndexAlreadyStored uint8 = 0x06
	StatusInvalidPublishParams  uint8 = 0x07
	StatusNotSubscribeModel     uint8 = 0x08
	StatusStorageFailure        uint8 = 0x09
	StatusFeatureNotSupported   uint8 = 0x0a
	StatusCannotUpdate          uint8 = 0x0b
	StatusCannotRemove          uint8 = 0x0c
	StatusCannotBind            uint8 = 0x0d
	StatusTemporarilyUnable     uint8 = 0x0e
	StatusCannotSet             uint8 = 0x0f
	StatusUnspecified           uint8 = 0x10
	StatusInvalidBinding        uint8 = 0x11
)
