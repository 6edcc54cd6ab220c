package jxl

import (
	"fmt"
	"math"
	"strings"
)

// StreamInfo wraps the basic info of a probed stream. Width, Height and
// AlphaBits are only meaningful when Status is StatusOK. AlphaBits is the
// alpha channel bit depth; 0 means there is no alpha channel.
//
// The buffer sizes are for this package only: Decode uses them to
// allocate the pixel and ICC profile buffers handed to the codec.
type StreamInfo struct {
	Status    Status `json:"status" yaml:"status"`
	Width     uint32 `json:"width" yaml:"width"`
	Height    uint32 `json:"height" yaml:"height"`
	AlphaBits uint32 `json:"alphaBits" yaml:"alphaBits"`

	pixelsSize uint32
	iccSize    uint32
}

// HasAlpha reports whether the image carries an alpha channel
func (s StreamInfo) HasAlpha() bool {
	return s.AlphaBits != 0
}

// String renders the info for logs and text output
func (s StreamInfo) String() string {
	if s.Status != StatusOK {
		return s.Status.String()
	}
	return fmt.Sprintf("%s %dx%d alpha=%d", s.Status, s.Width, s.Height, s.AlphaBits)
}

// PixelFormat selects the layout of decoded pixels
type PixelFormat uint8

const (
	RGBA8888 PixelFormat = iota // 4 channels, uint8
	RGBAF16                     // 4 channels, float16
	RGB888                      // 3 channels, uint8
	RGBF16                      // 3 channels, float16
)

// String returns the format name
func (f PixelFormat) String() string {
	switch f {
	case RGBA8888:
		return "RGBA_8888"
	case RGBAF16:
		return "RGBA_F16"
	case RGB888:
		return "RGB_888"
	case RGBF16:
		return "RGB_F16"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
}

// ParsePixelFormat accepts the names produced by String, case insensitive
// and with or without the underscore
func ParsePixelFormat(name string) (PixelFormat, error) {
	key := strings.ReplaceAll(strings.ToUpper(name), "_", "")
	for _, f := range []PixelFormat{RGBA8888, RGBAF16, RGB888, RGBF16} {
		if strings.ReplaceAll(f.String(), "_", "") == key {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown pixel format %q", name)
}

// Channels returns the number of interleaved channels per pixel
func (f PixelFormat) Channels() int {
	switch f {
	case RGB888, RGBF16:
		return 3
	default:
		return 4
	}
}

// BytesPerChannel returns the size of one sample
func (f PixelFormat) BytesPerChannel() int {
	switch f {
	case RGBAF16, RGBF16:
		return 2
	default:
		return 1
	}
}

// BufferSize returns the bytes needed for a width x height image. ok is
// false when the size does not fit in 32 bits.
func (f PixelFormat) BufferSize(width, height uint32) (size uint32, ok bool) {
	n := uint64(width) * uint64(height) * uint64(f.Channels()) * uint64(f.BytesPerChannel())
	if n > math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

// ImageData is a fully decoded image
type ImageData struct {
	Width  uint32
	Height uint32
	Format PixelFormat
	Pixels []byte
	ICC    []byte
}
