package jxl

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/jpfielding/jxl.go/pkg/jxl/container"
	"github.com/jpfielding/jxl.go/pkg/jxl/header"
)

// IsJXL reports whether prefix starts with a codestream or container signature
func IsJXL(prefix []byte) bool {
	if bytes.HasPrefix(prefix, header.Signature[:]) {
		return true
	}
	return bytes.HasPrefix(prefix, container.Signature)
}

// DecodeConfig returns the image configuration without decoding pixels
func DecodeConfig(r io.Reader) (image.Config, error) {
	p := NewProber(defaultDecoder, RGBA8888)
	info, err := p.ProbeReader(context.Background(), r, DefaultProbeChunk)
	if err != nil {
		return image.Config{}, err
	}
	if err := info.Status.Err(); err != nil {
		return image.Config{}, err
	}
	details, _ := defaultDecoder.Details(p.Bytes())
	return image.Config{
		Width:      int(info.Width),
		Height:     int(info.Height),
		ColorModel: colorModel(details),
	}, nil
}

func colorModel(info header.BasicInfo) color.Model {
	deep := info.BitsPerSample > 8
	switch {
	case info.NumColorChannels == 1 && info.AlphaBits == 0:
		if deep {
			return color.Gray16Model
		}
		return color.GrayModel
	case info.AlphaBits != 0:
		if deep {
			return color.NRGBA64Model
		}
		return color.NRGBAModel
	default:
		if deep {
			return color.RGBA64Model
		}
		return color.RGBAModel
	}
}

// Decode reads a JPEG XL image as 8-bit non-premultiplied RGBA. It needs
// the libjxl backend; the default build returns ErrNativeCodecUnavailable.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img, err := defaultDecoder.Decode(data, RGBA8888)
	if err != nil {
		return nil, err
	}
	w, h := int(img.Width), int(img.Height)
	if len(img.Pixels) != w*h*4 {
		return nil, fmt.Errorf("jxl: got %d pixel bytes for %dx%d", len(img.Pixels), w, h)
	}
	return &image.NRGBA{
		Pix:    img.Pixels,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}

// Register format with image package
func init() {
	image.RegisterFormat("jxl", "\xff\x0a", Decode, DecodeConfig)
	image.RegisterFormat("jxl", "\x00\x00\x00\x0cJXL \x0d\x0a\x87\x0a", Decode, DecodeConfig)
}
