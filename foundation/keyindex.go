package foundation

import (
	"encoding/binary"
	"io"
)

// KeyIndexMask keeps the 12 bits a network or application key index occupies.
const KeyIndexMask = 0x0fff

func appendUint16LE(dst []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(dst, v) }

func uint16LE(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// AppendKeyIndexPair packs two 12-bit key indexes into 3 bytes: idx1 fills the low
// 12 bits of the first little-endian word, idx2 the remaining 12.
func AppendKeyIndexPair(dst []byte, idx1, idx2 uint16) []byte {
	dst = appendUint16LE(dst, idx1&KeyIndexMask|(idx2&0x000f)<<12)
	return append(dst, byte((idx2&KeyIndexMask)>>4))
}

// KeyIndexPair unpacks 3 bytes written by AppendKeyIndexPair.
func KeyIndexPair(buf []byte) (idx1, idx2 uint16, err error) {
	if len(buf) < 3 {
		return 0, 0, io.ErrUnexpectedEOF
	}
	return uint16LE(buf[0:2]) & KeyIndexMask, uint16LE(buf[1:3]) >> 4, nil
}

// AppendKeyIndexList encodes indexes two per 3 bytes; an odd trailing index takes 2.
func AppendKeyIndexList(dst []byte, idxs []uint16) []byte {
	i := 0
	for ; i+1 < len(idxs); i += 2 {
		dst = AppendKeyIndexPair(dst, idxs[i], idxs[i+1])
	}
	if i < len(idxs) {
		dst = appendUint16LE(dst, idxs[i]&KeyIndexMask)
	}
	return dst
}

// UnmarshalKeyIndexList decodes the remainder of buf as a key index list.
func UnmarshalKeyIndexList(buf []byte) ([]uint16, error) {
	idxs := make([]uint16, 0, len(buf)*2/3+1)
	for len(buf) >= 3 {
		a, b, _ := KeyIndexPair(buf)
		idxs = append(idxs, a, b)
		buf = buf[3:]
	}
	switch len(buf) {
	case 0:
	case 2:
		idxs = append(idxs, uint16LE(buf)&KeyIndexMask)
	default:
		return idxs, ErrTrailingKeyIndex
	}
	return idxs, nil
}
