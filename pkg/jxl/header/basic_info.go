package header

import (
	"fmt"
	"io"
)

// BasicInfo summarises the headers the way a decoder reports them to
// callers. Dimensions are oriented: orientations 5-8 swap width and height.
type BasicInfo struct {
	Width                 uint32     `json:"width" yaml:"width"`
	Height                uint32     `json:"height" yaml:"height"`
	BitsPerSample         uint32     `json:"bitsPerSample" yaml:"bitsPerSample"`
	ExponentBitsPerSample uint32     `json:"exponentBitsPerSample" yaml:"exponentBitsPerSample"`
	AlphaBits             uint32     `json:"alphaBits" yaml:"alphaBits"`
	AlphaExponentBits     uint32     `json:"alphaExponentBits" yaml:"alphaExponentBits"`
	AlphaPremultiplied    bool       `json:"alphaPremultiplied" yaml:"alphaPremultiplied"`
	NumColorChannels      uint32     `json:"numColorChannels" yaml:"numColorChannels"`
	NumExtraChannels      uint32     `json:"numExtraChannels" yaml:"numExtraChannels"`
	Orientation           uint32     `json:"orientation" yaml:"orientation"`
	UsesOriginalProfile   bool       `json:"usesOriginalProfile" yaml:"usesOriginalProfile"`
	HaveICC               bool       `json:"haveICC" yaml:"haveICC"`
	ColorSpace            ColorSpace `json:"colorSpace" yaml:"colorSpace"`
	HavePreview           bool       `json:"havePreview" yaml:"havePreview"`
	PreviewWidth          uint32     `json:"previewWidth,omitempty" yaml:"previewWidth,omitempty"`
	PreviewHeight         uint32     `json:"previewHeight,omitempty" yaml:"previewHeight,omitempty"`
	HaveAnimation         bool       `json:"haveAnimation" yaml:"haveAnimation"`
	IntrinsicWidth        uint32     `json:"intrinsicWidth" yaml:"intrinsicWidth"`
	IntrinsicHeight       uint32     `json:"intrinsicHeight" yaml:"intrinsicHeight"`
}

// NewBasicInfo derives the basic info from parsed headers
func NewBasicInfo(size SizeHeader, m *ImageMetadata) BasicInfo {
	info := BasicInfo{
		Width:                 size.Width,
		Height:                size.Height,
		BitsPerSample:         m.BitDepth.BitsPerSample,
		ExponentBitsPerSample: m.BitDepth.ExponentBits,
		NumColorChannels:      3,
		NumExtraChannels:      uint32(len(m.ExtraChannels)),
		Orientation:           m.Orientation,
		UsesOriginalProfile:   !m.XYBEncoded,
		HaveICC:               m.Color.WantICC,
		ColorSpace:            m.Color.ColorSpace,
		HavePreview:           m.Preview != nil,
		HaveAnimation:         m.Animation != nil,
		IntrinsicWidth:        size.Width,
		IntrinsicHeight:       size.Height,
	}
	if m.Color.ColorSpace == ColorSpaceGray {
		info.NumColorChannels = 1
	}
	if alpha, ok := m.Alpha(); ok {
		info.AlphaBits = alpha.BitDepth.BitsPerSample
		info.AlphaExponentBits = alpha.BitDepth.ExponentBits
		info.AlphaPremultiplied = alpha.AlphaAssociated
	}
	if m.Preview != nil {
		info.PreviewWidth = m.Preview.Width
		info.PreviewHeight = m.Preview.Height
	}
	if m.IntrinsicSize != nil {
		info.IntrinsicWidth = m.IntrinsicSize.Width
		info.IntrinsicHeight = m.IntrinsicSize.Height
	}
	if m.Orientation > 4 {
		info.Width, info.Height = info.Height, info.Width
		info.IntrinsicWidth, info.IntrinsicHeight = info.IntrinsicHeight, info.IntrinsicWidth
	}
	return info
}

// ParseHeaders reads the signature, SizeHeader and ImageMetadata at the
// start of a bare codestream. A stream that ends early yields
// io.ErrUnexpectedEOF; anything malformed wraps ErrSignature or
// ErrInvalidHeader.
func ParseHeaders(codestream []byte) (SizeHeader, *ImageMetadata, error) {
	for i := 0; i < len(Signature); i++ {
		if i >= len(codestream) {
			return SizeHeader{}, nil, io.ErrUnexpectedEOF
		}
		if codestream[i] != Signature[i] {
			return SizeHeader{}, nil, fmt.Errorf("%w: byte %d is 0x%02X", ErrSignature, i, codestream[i])
		}
	}
	br := NewBitReader(codestream[len(Signature):])
	size, err := ReadSizeHeader(br)
	if err != nil {
		return size, nil, fmt.Errorf("size header: %w", err)
	}
	m, err := ReadImageMetadata(br)
	if err != nil {
		return size, nil, fmt.Errorf("image metadata: %w", err)
	}
	return size, m, nil
}

// ParseBasicInfo is ParseHeaders followed by NewBasicInfo
func ParseBasicInfo(codestream []byte) (BasicInfo, error) {
	size, m, err := ParseHeaders(codestream)
	if err != nil {
		return BasicInfo{}, err
	}
	return NewBasicInfo(size, m), nil
}
