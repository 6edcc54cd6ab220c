package jxl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jpfielding/jxl.go/pkg/jxl/header"
)

// minimalStream is an 8x4 codestream with an explicit width and
// all_default metadata
var minimalStream = []byte{0xFF, 0x0A, 0x18, 0x00, 0x0E, 0x04}

func newTestDecoder() *Decoder {
	return NewDecoder(withBackend(headerBackend{}))
}

func encodeStream(t *testing.T, width, height uint32, modify func(m *header.ImageMetadata)) []byte {
	t.Helper()
	m := header.DefaultImageMetadata()
	if modify != nil {
		modify(m)
	}
	data, err := header.EncodeHeaders(header.SizeHeader{Width: width, Height: height}, m)
	require.NoError(t, err)
	return data
}

func alphaChannel(bits uint32) func(m *header.ImageMetadata) {
	return func(m *header.ImageMetadata) {
		m.ExtraChannels = []header.ExtraChannel{{
			Type:     header.ExtraChannelAlpha,
			BitDepth: header.BitDepth{BitsPerSample: bits},
		}}
	}
}

// fakeBackend returns canned results and records decode calls
type fakeBackend struct {
	result    probeResult
	decodeErr error
	decoded   int
	pixelLen  int
	iccLen    int
}

func (f *fakeBackend) name() string { return "fake" }

func (f *fakeBackend) probe(data []byte) probeResult { return f.result }

func (f *fakeBackend) decode(data []byte, format PixelFormat, pixels, icc []byte) error {
	f.decoded++
	f.pixelLen = len(pixels)
	f.iccLen = len(icc)
	for i := range pixels {
		pixels[i] = 0xFF
	}
	return f.decodeErr
}
