package jxl

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/jxl.go/pkg/jxl/container"
	"github.com/jpfielding/jxl.go/pkg/jxl/header"
)

func TestGetBasicInfo_Minimal(t *testing.T) {
	info := newTestDecoder().GetBasicInfo(minimalStream, RGBA8888)
	assert.Equal(t, StatusOK, info.Status)
	assert.Equal(t, uint32(8), info.Width)
	assert.Equal(t, uint32(4), info.Height)
	assert.Equal(t, uint32(0), info.AlphaBits)
	assert.False(t, info.HasAlpha())
	assert.Equal(t, uint32(8*4*4), info.pixelsSize)
	assert.Equal(t, uint32(0), info.iccSize)
}

func TestGetBasicInfo_Statuses(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		status Status
	}{
		{"complete", minimalStream, StatusOK},
		{"first three bytes", minimalStream[:3], StatusNotEnoughInput},
		{"signature only", minimalStream[:2], StatusNotEnoughInput},
		{"one byte", minimalStream[:1], StatusNotEnoughInput},
		{"empty", nil, StatusNotEnoughInput},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, StatusInvalidStream},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, StatusInvalidStream},
		{"zeros", make([]byte, 32), StatusInvalidStream},
		{"container", container.Wrap(minimalStream), StatusOK},
		{"truncated container", container.Wrap(minimalStream)[:30], StatusNotEnoughInput},
		{"container missing ftyp", container.AppendBox(append([]byte(nil), container.Signature...), container.TypeCodestream, minimalStream), StatusInvalidStream},
		{"truncated container missing ftyp", noFileType()[:len(noFileType())-1], StatusInvalidStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := newTestDecoder().GetBasicInfo(tt.data, RGBA8888)
			assert.Equal(t, tt.status, info.Status)
			if tt.status != StatusOK {
				assert.Equal(t, StreamInfo{Status: tt.status}, info)
			}
		})
	}
}

func TestGetBasicInfo_Alpha(t *testing.T) {
	for _, bits := range []uint32{1, 8, 16} {
		data := encodeStream(t, 64, 32, alphaChannel(bits))
		info := newTestDecoder().GetBasicInfo(data, RGBAF16)
		require.Equal(t, StatusOK, info.Status)
		assert.Equal(t, bits, info.AlphaBits)
		assert.True(t, info.HasAlpha())
		assert.Equal(t, uint32(64*32*4*2), info.pixelsSize)
	}
}

func TestGetBasicInfo_Framings(t *testing.T) {
	cs := encodeStream(t, 1920, 1080, alphaChannel(8))
	want := newTestDecoder().GetBasicInfo(cs, RGB888)
	require.Equal(t, StatusOK, want.Status)

	for name, data := range map[string][]byte{
		"jxlc":       container.Wrap(cs),
		"jxlp":       container.WrapPartial(cs, 1),
		"split jxlp": container.WrapPartial(cs, 2, 3, len(cs)-1),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, newTestDecoder().GetBasicInfo(data, RGB888))
		})
	}
}

func TestGetBasicInfo_EveryPrefix(t *testing.T) {
	data := container.Wrap(encodeStream(t, 640, 480, alphaChannel(16)))
	dec := newTestDecoder()
	for n := 0; n < len(data); n++ {
		assert.Equal(t, StatusNotEnoughInput, dec.GetBasicInfo(data[:n], RGBA8888).Status, "prefix %d", n)
	}
	assert.Equal(t, StatusOK, dec.GetBasicInfo(data, RGBA8888).Status)
}

func TestGetBasicInfo_Orientation(t *testing.T) {
	data := encodeStream(t, 16, 8, func(m *header.ImageMetadata) { m.Orientation = 8 })
	info := newTestDecoder().GetBasicInfo(data, RGBA8888)
	require.Equal(t, StatusOK, info.Status)
	assert.Equal(t, uint32(8), info.Width)
	assert.Equal(t, uint32(16), info.Height)
}

func TestGetBasicInfo_Unbufferable(t *testing.T) {
	data := encodeStream(t, 1<<20, 1<<20, nil)
	info := newTestDecoder().GetBasicInfo(data, RGBA8888)
	assert.Equal(t, StatusInvalidStream, info.Status)

	fake := &fakeBackend{result: probeResult{status: StatusOK, info: header.BasicInfo{Width: 0, Height: 4}}}
	info = NewDecoder(withBackend(fake)).GetBasicInfo(nil, RGBA8888)
	assert.Equal(t, StatusInvalidStream, info.Status)
}

func TestGetBasicInfo_Logging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	dec := NewDecoder(withBackend(headerBackend{}), WithLogger(log))

	dec.GetBasicInfo([]byte("GIF89a"), RGBA8888)
	assert.Contains(t, buf.String(), "jxl probe rejected stream")
	assert.Contains(t, buf.String(), "backend=header")

	buf.Reset()
	dec.GetBasicInfo(minimalStream[:3], RGBA8888)
	assert.Empty(t, buf.String())
}

func TestDetails(t *testing.T) {
	data := encodeStream(t, 64, 64, func(m *header.ImageMetadata) {
		alphaChannel(8)(m)
		m.Color.ColorSpace = header.ColorSpaceGray
		m.BitDepth = header.BitDepth{BitsPerSample: 12}
	})
	info, status := newTestDecoder().Details(data)
	require.Equal(t, StatusOK, status)
	assert.Equal(t, uint32(1), info.NumColorChannels)
	assert.Equal(t, uint32(12), info.BitsPerSample)
	assert.Equal(t, uint32(8), info.AlphaBits)

	_, status = newTestDecoder().Details(minimalStream[:3])
	assert.Equal(t, StatusNotEnoughInput, status)
}

func TestDecode_HeaderBackend(t *testing.T) {
	_, err := newTestDecoder().Decode(minimalStream, RGBA8888)
	assert.ErrorIs(t, err, ErrNativeCodecUnavailable)

	_, err = newTestDecoder().Decode(minimalStream[:3], RGBA8888)
	assert.ErrorIs(t, err, ErrNotEnoughInput)

	_, err = newTestDecoder().Decode([]byte("not a jxl"), RGBA8888)
	assert.ErrorIs(t, err, ErrInvalidStream)
}

func TestDecode_BufferSizing(t *testing.T) {
	tests := []struct {
		name   string
		format PixelFormat
		icc    uint32
		pixels int
	}{
		{"rgba8", RGBA8888, 0, 8 * 4 * 4},
		{"rgbaf16 with icc", RGBAF16, 512, 8 * 4 * 8},
		{"rgb8", RGB888, 0, 8 * 4 * 3},
		{"rgbf16", RGBF16, 3144, 8 * 4 * 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBackend{result: probeResult{
				status:  StatusOK,
				info:    header.BasicInfo{Width: 8, Height: 4},
				iccSize: tt.icc,
			}}
			img, err := NewDecoder(withBackend(fake)).Decode(minimalStream, tt.format)
			require.NoError(t, err)
			assert.Equal(t, 1, fake.decoded)
			assert.Equal(t, tt.pixels, fake.pixelLen)
			assert.Equal(t, int(tt.icc), fake.iccLen)
			assert.Len(t, img.Pixels, tt.pixels)
			assert.Len(t, img.ICC, int(tt.icc))
			assert.Equal(t, tt.format, img.Format)
			assert.Equal(t, uint32(8), img.Width)
			assert.Equal(t, bytes.Repeat([]byte{0xFF}, tt.pixels), img.Pixels)
		})
	}
}

func TestDecode_BackendError(t *testing.T) {
	boom := errors.New("boom")
	fake := &fakeBackend{
		result:    probeResult{status: StatusOK, info: header.BasicInfo{Width: 8, Height: 4}},
		decodeErr: boom,
	}
	_, err := NewDecoder(withBackend(fake)).Decode(minimalStream, RGBA8888)
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.HasPrefix(err.Error(), "decode 8x4 RGBA_8888"))

	fake = &fakeBackend{result: probeResult{status: StatusInvalidStream}}
	_, err = NewDecoder(withBackend(fake)).Decode(minimalStream, RGBA8888)
	assert.ErrorIs(t, err, ErrInvalidStream)
	assert.Equal(t, 0, fake.decoded)
}

func TestNewImageData(t *testing.T) {
	img := newImageData(StreamInfo{Status: StatusOK, Width: 2, Height: 2, pixelsSize: 16}, RGBA8888)
	assert.Len(t, img.Pixels, 16)
	assert.Nil(t, img.ICC)

	img = newImageData(StreamInfo{Status: StatusOK, Width: 2, Height: 2, pixelsSize: 12, iccSize: 7}, RGB888)
	assert.Len(t, img.Pixels, 12)
	assert.Len(t, img.ICC, 7)
}

func TestPackageGetBasicInfo(t *testing.T) {
	info := GetBasicInfo(minimalStream[:3], RGBA8888)
	assert.Equal(t, StatusNotEnoughInput, info.Status)
	info = GetBasicInfo([]byte{0x00, 0x01, 0x02, 0x03}, RGBA8888)
	assert.Equal(t, StatusInvalidStream, info.Status)
	assert.NotEmpty(t, NewDecoder().Backend())
}

// noFileType is a container whose first box is jxlc
func noFileType() []byte {
	payload := append(append([]byte(nil), minimalStream...), make([]byte, 10)...)
	return container.AppendBox(append([]byte(nil), container.Signature...), container.TypeCodestream, payload)
}
