package gateway

import (
	"bufio"
	"errors"
	"io"

	"github.com/TheSmallBoat/meshcfg/cfgcli"
	"github.com/lithdew/bytesutil"
	"github.com/valyala/bytebufferpool"
)

// MaxFrameSize bounds a frame body; an access PDU is at most 384 bytes.
const MaxFrameSize = 1024

const frameHeaderSize = 2 + 2 + 2 + 1

var ErrFrameTooLarge = errors.New("gateway: frame too large")

// Frame carries one access PDU (opcode and parameters) with its addressing. Addr is the
// destination on frames sent to the gateway and the source on frames received from it.
type Frame struct {
	NetIdx uint16
	AppIdx uint16
	Addr   uint16
	TTL    uint8
	PDU    []byte
}

func FrameFor(mctx cfgcli.MsgContext, pdu []byte) Frame {
	return Frame{NetIdx: mctx.NetIdx, AppIdx: mctx.AppIdx, Addr: mctx.Addr, TTL: mctx.TTL, PDU: pdu}
}

func (f Frame) Context() cfgcli.MsgContext {
	return cfgcli.MsgContext{NetIdx: f.NetIdx, AppIdx: f.AppIdx, Addr: f.Addr, TTL: f.TTL}
}

func (f Frame) AppendTo(dst []byte) []byte {
	dst = bytesutil.AppendUint16BE(dst, f.NetIdx)
	dst = bytesutil.AppendUint16BE(dst, f.AppIdx)
	dst = bytesutil.AppendUint16BE(dst, f.Addr)
	dst = append(dst, f.TTL)
	dst = append(dst, f.PDU...)
	return dst
}

// UnmarshalFrame decodes a frame body. PDU aliases buf.
func UnmarshalFrame(buf []byte) (Frame, error) {
	var f Frame
	if len(buf) < frameHeaderSize {
		return f, io.ErrUnexpectedEOF
	}
	f.NetIdx, buf = bytesutil.Uint16BE(buf[:2]), buf[2:]
	f.AppIdx, buf = bytesutil.Uint16BE(buf[:2]), buf[2:]
	f.Addr, buf = bytesutil.Uint16BE(buf[:2]), buf[2:]
	f.TTL, buf = buf[0], buf[1:]
	f.PDU = buf
	return f, nil
}

// WriteFrame writes f prefixed with its big-endian 16-bit length.
func WriteFrame(w io.Writer, f Frame) error {
	size := frameHeaderSize + len(f.PDU)
	if size > MaxFrameSize {
		return ErrFrameTooLarge
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.B = bytesutil.AppendUint16BE(buf.B[:0], uint16(size))
	buf.B = f.AppendTo(buf.B)

	_, err := w.Write(buf.B)
	return err
}

// ReadFrame reads one length-prefixed frame into buf. The returned frame aliases buf.B
// and is valid until buf is reused.
func ReadFrame(r *bufio.Reader, buf *bytebufferpool.ByteBuffer) (Frame, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	size := int(bytesutil.Uint16BE(hdr[:]))
	if size > MaxFrameSize {
		return Frame{}, ErrFrameTooLarge
	}

	if cap(buf.B) < size {
		buf.B = make([]byte, size)
	}
	buf.B = buf.B[:size]
	if _, err := io.ReadFull(r, buf.B); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, err
	}
	return UnmarshalFrame(buf.B)
}
