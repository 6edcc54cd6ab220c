package container

import "encoding/binary"

// AppendBox appends a box with a 32-bit size header to dst
func AppendBox(dst []byte, typ [4]byte, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(8+len(payload)))
	dst = append(dst, typ[:]...)
	return append(dst, payload...)
}

func fileTypeBox(dst []byte) []byte {
	payload := make([]byte, 0, 12)
	payload = append(payload, brandJXL[:]...)
	payload = binary.BigEndian.AppendUint32(payload, 0)
	payload = append(payload, brandJXL[:]...)
	return AppendBox(dst, TypeFileType, payload)
}

// Wrap places codestream in a container file with a single jxlc box
func Wrap(codestream []byte) []byte {
	out := append([]byte(nil), Signature...)
	out = fileTypeBox(out)
	return AppendBox(out, TypeCodestream, codestream)
}

// WrapPartial splits codestream into jxlp boxes at the given offsets
func WrapPartial(codestream []byte, splits ...int) []byte {
	out := append([]byte(nil), Signature...)
	out = fileTypeBox(out)
	bounds := append(append([]int{0}, splits...), len(codestream))
	for i := 0; i+1 < len(bounds); i++ {
		idx := uint32(i)
		if i+2 == len(bounds) {
			idx |= lastPartialFlag
		}
		payload := binary.BigEndian.AppendUint32(nil, idx)
		payload = append(payload, codestream[bounds[i]:bounds[i+1]]...)
		out = AppendBox(out, TypePartial, payload)
	}
	return out
}
