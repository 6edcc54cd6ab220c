//go:build libjxl && cgo

package jxl

/*
#cgo pkg-config: libjxl
#include <stdlib.h>
#include <jxl/decode.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/jpfielding/jxl.go/pkg/jxl/header"
)

func defaultBackend() backend { return nativeBackend{} }

// nativeBackend drives libjxl through cgo. The decoder keeps a pointer to
// its input between calls, so input and output buffers live in C memory.
type nativeBackend struct{}

func (nativeBackend) name() string { return "libjxl" }

func (nativeBackend) probe(data []byte) probeResult {
	if len(data) == 0 {
		return probeResult{status: StatusNotEnoughInput}
	}
	dec := C.JxlDecoderCreate(nil)
	if dec == nil {
		return probeResult{status: StatusInvalidStream, reason: errors.New("JxlDecoderCreate failed")}
	}
	defer C.JxlDecoderDestroy(dec)

	events := C.int(C.JXL_DEC_BASIC_INFO | C.JXL_DEC_COLOR_ENCODING)
	if C.JxlDecoderSubscribeEvents(dec, events) != C.JXL_DEC_SUCCESS {
		return probeResult{status: StatusInvalidStream, reason: errors.New("JxlDecoderSubscribeEvents failed")}
	}
	input := C.CBytes(data)
	defer C.free(input)
	if C.JxlDecoderSetInput(dec, (*C.uint8_t)(input), C.size_t(len(data))) != C.JXL_DEC_SUCCESS {
		return probeResult{status: StatusInvalidStream, reason: errors.New("JxlDecoderSetInput failed")}
	}

	var res probeResult
	for {
		switch st := C.JxlDecoderProcessInput(dec); st {
		case C.JXL_DEC_NEED_MORE_INPUT:
			res.status = StatusNotEnoughInput
			return res
		case C.JXL_DEC_BASIC_INFO:
			var bi C.JxlBasicInfo
			if C.JxlDecoderGetBasicInfo(dec, &bi) != C.JXL_DEC_SUCCESS {
				return probeResult{status: StatusInvalidStream, reason: errors.New("JxlDecoderGetBasicInfo failed")}
			}
			res.info = basicInfoFromC(&bi)
		case C.JXL_DEC_COLOR_ENCODING:
			var enc C.JxlColorEncoding
			res.info.HaveICC = C.JxlDecoderGetColorAsEncodedProfile(dec, C.JXL_COLOR_PROFILE_TARGET_ORIGINAL, &enc) != C.JXL_DEC_SUCCESS
			var size C.size_t
			if C.JxlDecoderGetICCProfileSize(dec, C.JXL_COLOR_PROFILE_TARGET_DATA, &size) == C.JXL_DEC_SUCCESS {
				res.iccSize = uint32(size)
			}
			res.status = StatusOK
			return res
		default:
			return probeResult{status: StatusInvalidStream, reason: fmt.Errorf("JxlDecoderProcessInput returned %d", int(st))}
		}
	}
}

func basicInfoFromC(bi *C.JxlBasicInfo) header.BasicInfo {
	info := header.BasicInfo{
		Width:                 uint32(bi.xsize),
		Height:                uint32(bi.ysize),
		BitsPerSample:         uint32(bi.bits_per_sample),
		ExponentBitsPerSample: uint32(bi.exponent_bits_per_sample),
		AlphaBits:             uint32(bi.alpha_bits),
		AlphaExponentBits:     uint32(bi.alpha_exponent_bits),
		AlphaPremultiplied:    bi.alpha_premultiplied != 0,
		NumColorChannels:      uint32(bi.num_color_channels),
		NumExtraChannels:      uint32(bi.num_extra_channels),
		Orientation:           uint32(bi.orientation),
		UsesOriginalProfile:   bi.uses_original_profile != 0,
		ColorSpace:            header.ColorSpaceRGB,
		HavePreview:           bi.have_preview != 0,
		HaveAnimation:         bi.have_animation != 0,
		IntrinsicWidth:        uint32(bi.intrinsic_xsize),
		IntrinsicHeight:       uint32(bi.intrinsic_ysize),
	}
	if info.NumColorChannels == 1 {
		info.ColorSpace = header.ColorSpaceGray
	}
	if info.HavePreview {
		info.PreviewWidth = uint32(bi.preview.xsize)
		info.PreviewHeight = uint32(bi.preview.ysize)
	}
	return info
}

func (nativeBackend) decode(data []byte, format PixelFormat, pixels, icc []byte) error {
	dec := C.JxlDecoderCreate(nil)
	if dec == nil {
		return errors.New("jxl: JxlDecoderCreate failed")
	}
	defer C.JxlDecoderDestroy(dec)

	events := C.int(C.JXL_DEC_COLOR_ENCODING | C.JXL_DEC_FULL_IMAGE)
	if C.JxlDecoderSubscribeEvents(dec, events) != C.JXL_DEC_SUCCESS {
		return errors.New("jxl: JxlDecoderSubscribeEvents failed")
	}
	input := C.CBytes(data)
	defer C.free(input)
	if C.JxlDecoderSetInput(dec, (*C.uint8_t)(input), C.size_t(len(data))) != C.JXL_DEC_SUCCESS {
		return errors.New("jxl: JxlDecoderSetInput failed")
	}
	C.JxlDecoderCloseInput(dec)

	outPixels := C.malloc(C.size_t(len(pixels)))
	defer C.free(outPixels)
	var outICC unsafe.Pointer
	if len(icc) > 0 {
		outICC = C.malloc(C.size_t(len(icc)))
		defer C.free(outICC)
	}

	pf := C.JxlPixelFormat{
		num_channels: C.uint32_t(format.Channels()),
		data_type:    C.JXL_TYPE_UINT8,
		endianness:   C.JXL_NATIVE_ENDIAN,
		align:        0,
	}
	if format.BytesPerChannel() == 2 {
		pf.data_type = C.JXL_TYPE_FLOAT16
	}

	for {
		switch st := C.JxlDecoderProcessInput(dec); st {
		case C.JXL_DEC_NEED_MORE_INPUT:
			return ErrNotEnoughInput
		case C.JXL_DEC_COLOR_ENCODING:
			if outICC == nil {
				continue
			}
			if C.JxlDecoderGetColorAsICCProfile(dec, C.JXL_COLOR_PROFILE_TARGET_DATA, (*C.uint8_t)(outICC), C.size_t(len(icc))) != C.JXL_DEC_SUCCESS {
				return fmt.Errorf("%w: reading ICC profile", ErrInvalidStream)
			}
		case C.JXL_DEC_NEED_IMAGE_OUT_BUFFER:
			if C.JxlDecoderSetImageOutBuffer(dec, &pf, outPixels, C.size_t(len(pixels))) != C.JXL_DEC_SUCCESS {
				return fmt.Errorf("%w: pixel buffer rejected", ErrInvalidStream)
			}
		case C.JXL_DEC_FULL_IMAGE:
			// first frame only
			copy(pixels, unsafe.Slice((*byte)(outPixels), len(pixels)))
			if outICC != nil {
				copy(icc, unsafe.Slice((*byte)(outICC), len(icc)))
			}
			return nil
		default:
			return fmt.Errorf("%w: decoder status %d", ErrInvalidStream, int(st))
		}
	}
}
