// Package container reads the ISO BMFF based JPEG XL file format
// (ISO/IEC 18181-2) far enough to hand the embedded codestream to a decoder.
package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Common errors
var (
	ErrNotJXL     = errors.New("jxl: not a JPEG XL stream")
	ErrInvalidBox = errors.New("jxl: invalid container box")
)

// Signature is the complete signature box that starts a container file
var Signature = []byte{0x00, 0x00, 0x00, 0x0C, 'J', 'X', 'L', ' ', 0x0D, 0x0A, 0x87, 0x0A}

// Box types
var (
	TypeSignature   = [4]byte{'J', 'X', 'L', ' '}
	TypeFileType    = [4]byte{'f', 't', 'y', 'p'}
	TypeLevel       = [4]byte{'j', 'x', 'l', 'l'}
	TypeCodestream  = [4]byte{'j', 'x', 'l', 'c'}
	TypePartial     = [4]byte{'j', 'x', 'l', 'p'}
	TypeJPEGRecon   = [4]byte{'j', 'b', 'r', 'd'}
	TypeExif        = [4]byte{'E', 'x', 'i', 'f'}
	TypeXML         = [4]byte{'x', 'm', 'l', ' '}
	TypeBrotli      = [4]byte{'b', 'r', 'o', 'b'}
	brandJXL        = [4]byte{'j', 'x', 'l', ' '}
	lastPartialFlag = uint32(0x80000000)
)

// Kind is the outer framing of a JPEG XL stream
type Kind int

const (
	KindUnknown Kind = iota
	KindCodestream
	KindContainer
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindCodestream:
		return "codestream"
	case KindContainer:
		return "container"
	default:
		return "unknown"
	}
}

// Detect identifies the framing from the leading bytes. A prefix that is
// consistent with a signature but too short returns io.ErrUnexpectedEOF.
func Detect(data []byte) (Kind, error) {
	if len(data) == 0 {
		return KindUnknown, io.ErrUnexpectedEOF
	}
	switch data[0] {
	case 0xFF:
		if len(data) < 2 {
			return KindUnknown, io.ErrUnexpectedEOF
		}
		if data[1] == 0x0A {
			return KindCodestream, nil
		}
	case 0x00:
		n := min(len(data), len(Signature))
		if !bytes.Equal(data[:n], Signature[:n]) {
			break
		}
		if n < len(Signature) {
			return KindUnknown, io.ErrUnexpectedEOF
		}
		return KindContainer, nil
	}
	return KindUnknown, ErrNotJXL
}

// Box is one parsed box. Payload excludes the box header.
type Box struct {
	Type      [4]byte
	Offset    int
	Payload   []byte
	Truncated bool // the declared size runs past the available data
	Open      bool // size 0: the box extends to the end of the file
}

// ReadBox parses the box starting at data[off:]. A header or payload cut
// short returns the partial box with io.ErrUnexpectedEOF.
func ReadBox(data []byte, off int) (Box, int, error) {
	box := Box{Offset: off, Truncated: true}
	if len(data)-off < 8 {
		return box, len(data), io.ErrUnexpectedEOF
	}
	size := uint64(binary.BigEndian.Uint32(data[off : off+4]))
	copy(box.Type[:], data[off+4:off+8])
	hdr := uint64(8)
	switch size {
	case 0:
		box.Open = true
		box.Truncated = false
		box.Payload = data[off+8:]
		return box, len(data), nil
	case 1:
		if len(data)-off < 16 {
			return box, len(data), io.ErrUnexpectedEOF
		}
		size = binary.BigEndian.Uint64(data[off+8 : off+16])
		hdr = 16
	}
	box.Truncated = false
	if size < hdr {
		return box, off, fmt.Errorf("%w: %q size %d", ErrInvalidBox, box.Type[:], size)
	}
	start := uint64(off) + hdr
	end := uint64(off) + size
	if end > uint64(len(data)) || end < start {
		box.Truncated = true
		box.Payload = data[start:]
		return box, len(data), io.ErrUnexpectedEOF
	}
	box.Payload = data[start:end]
	return box, int(end), nil
}

// Codestream returns the codestream carried by data. Bare codestreams are
// returned unchanged. For containers the jxlc payload, or the jxlp parts
// in order, are concatenated. When the file ends before the codestream is
// known to be complete, the bytes gathered so far are returned together
// with io.ErrUnexpectedEOF.
func Codestream(data []byte) ([]byte, error) {
	kind, err := Detect(data)
	if err != nil {
		return nil, err
	}
	if kind == KindCodestream {
		return data, nil
	}

	var out []byte
	var sawCodestream, sawPartial, done bool
	var nextPart uint32
	pos := len(Signature)
	for index := 1; pos < len(data); index++ {
		box, next, err := ReadBox(data, pos)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return out, err
		}
		truncated := err != nil
		pos = next

		// the type is known once the 8 byte header is present
		if index == 1 && len(data)-box.Offset >= 8 && box.Type != TypeFileType {
			return out, fmt.Errorf("%w: expected ftyp, got %q", ErrInvalidBox, box.Type[:])
		}
		switch box.Type {
		case TypeFileType:
			if len(box.Payload) >= 4 && !bytes.Equal(box.Payload[:4], brandJXL[:]) {
				return out, fmt.Errorf("%w: brand %q", ErrInvalidBox, box.Payload[:4])
			}
		case TypeCodestream:
			if sawCodestream || sawPartial {
				return out, fmt.Errorf("%w: duplicate codestream", ErrInvalidBox)
			}
			sawCodestream = true
			out = append(out, box.Payload...)
			done = !truncated
		case TypePartial:
			if sawCodestream || done {
				return out, fmt.Errorf("%w: unexpected jxlp", ErrInvalidBox)
			}
			sawPartial = true
			if len(box.Payload) < 4 {
				if truncated {
					return out, io.ErrUnexpectedEOF
				}
				return out, fmt.Errorf("%w: short jxlp", ErrInvalidBox)
			}
			idx := binary.BigEndian.Uint32(box.Payload[:4])
			if idx&^lastPartialFlag != nextPart {
				return out, fmt.Errorf("%w: jxlp index %d, want %d", ErrInvalidBox, idx&^lastPartialFlag, nextPart)
			}
			nextPart++
			out = append(out, box.Payload[4:]...)
			done = idx&lastPartialFlag != 0 && !truncated
		}
		if truncated {
			return out, io.ErrUnexpectedEOF
		}
		if done {
			return out, nil
		}
	}
	return out, io.ErrUnexpectedEOF
}

// Boxes lists the boxes following the signature box. Parsing stops at the
// first truncated box, which is included and flagged.
func Boxes(data []byte) ([]Box, error) {
	kind, err := Detect(data)
	if err != nil {
		return nil, err
	}
	if kind != KindContainer {
		return nil, nil
	}
	var boxes []Box
	for pos := len(Signature); pos < len(data); {
		box, next, err := ReadBox(data, pos)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				boxes = append(boxes, box)
			}
			return boxes, err
		}
		boxes = append(boxes, box)
		pos = next
	}
	return boxes, nil
}
