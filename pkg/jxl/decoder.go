package jxl

import (
	"fmt"
	"log/slog"

	"github.com/jpfielding/jxl.go/pkg/jxl/header"
)

// Option configures a Decoder
type Option func(*Decoder)

// WithLogger sets the logger used for probe diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		d.log = l
	}
}

func withBackend(b backend) Option {
	return func(d *Decoder) {
		d.codec = b
	}
}

// Decoder is the entry point of the bridge. It holds no per-call state and
// is safe for concurrent use.
type Decoder struct {
	codec backend
	log   *slog.Logger
}

// NewDecoder creates a decoder on the default backend: libjxl when built
// with the libjxl tag, the Go header parser otherwise.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{codec: defaultBackend()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Backend names the codec in use
func (d *Decoder) Backend() string {
	return d.codec.name()
}

func (d *Decoder) logger() *slog.Logger {
	if d.log != nil {
		return d.log
	}
	return slog.Default()
}

func (d *Decoder) probe(data []byte) probeResult {
	res := d.codec.probe(data)
	if res.status == StatusInvalidStream {
		d.logger().Debug("jxl probe rejected stream",
			"backend", d.codec.name(), "bytes", len(data), "reason", res.reason)
	}
	return res
}

// GetBasicInfo probes data and reports the basic image info. Buffer sizes
// for a later Decode are computed for format. The call never returns an
// error: inspect Status first.
func (d *Decoder) GetBasicInfo(data []byte, format PixelFormat) StreamInfo {
	return d.streamInfo(d.probe(data), format)
}

func (d *Decoder) streamInfo(res probeResult, format PixelFormat) StreamInfo {
	if res.status != StatusOK {
		return StreamInfo{Status: res.status}
	}
	info := StreamInfo{
		Status:    StatusOK,
		Width:     res.info.Width,
		Height:    res.info.Height,
		AlphaBits: res.info.AlphaBits,
		iccSize:   res.iccSize,
	}
	size, ok := format.BufferSize(info.Width, info.Height)
	if !ok || info.Width == 0 || info.Height == 0 {
		d.logger().Debug("jxl image cannot be buffered",
			"width", info.Width, "height", info.Height, "format", format)
		return StreamInfo{Status: StatusInvalidStream}
	}
	info.pixelsSize = size
	return info
}

// Details probes data and returns everything the backend knows about the
// headers alongside the status
func (d *Decoder) Details(data []byte) (header.BasicInfo, Status) {
	res := d.probe(data)
	return res.info, res.status
}

// Decode probes data, sizes the output buffers from the probe and decodes
// the first frame. Probe failures are returned as ErrNotEnoughInput or
// ErrInvalidStream.
func (d *Decoder) Decode(data []byte, format PixelFormat) (*ImageData, error) {
	info := d.GetBasicInfo(data, format)
	if err := info.Status.Err(); err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	img := newImageData(info, format)
	if err := d.codec.decode(data, format, img.Pixels, img.ICC); err != nil {
		return nil, fmt.Errorf("decode %dx%d %s: %w", info.Width, info.Height, format, err)
	}
	return img, nil
}

func newImageData(info StreamInfo, format PixelFormat) *ImageData {
	img := &ImageData{
		Width:  info.Width,
		Height: info.Height,
		Format: format,
		Pixels: make([]byte, info.pixelsSize),
	}
	if info.iccSize > 0 {
		img.ICC = make([]byte, info.iccSize)
	}
	return img
}

var defaultDecoder = NewDecoder()

// GetBasicInfo probes data with the default decoder
func GetBasicInfo(data []byte, format PixelFormat) StreamInfo {
	return defaultDecoder.GetBasicInfo(data, format)
}
