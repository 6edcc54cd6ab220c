package jxl

import (
	"context"
	"errors"
	"io"
)

// DefaultMaxProbeBytes bounds how much a Prober buffers before giving up
const DefaultMaxProbeBytes = 1 << 20

// DefaultProbeChunk is the read size used by ProbeReader when none is given
const DefaultProbeChunk = 4096

// Prober accumulates input for callers that receive a stream in pieces.
// Each Probe resubmits the whole accumulated buffer to the decoder, which
// is the re-invocation contract for StatusNotEnoughInput.
type Prober struct {
	Decoder  *Decoder
	Format   PixelFormat
	MaxBytes int // 0 means DefaultMaxProbeBytes

	buf  []byte
	last StreamInfo
}

// NewProber creates a prober on d
func NewProber(d *Decoder, format PixelFormat) *Prober {
	return &Prober{Decoder: d, Format: format}
}

func (p *Prober) limit() int {
	if p.MaxBytes > 0 {
		return p.MaxBytes
	}
	return DefaultMaxProbeBytes
}

// Write appends p to the accumulated input
func (p *Prober) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	return len(b), nil
}

// Bytes returns the accumulated input
func (p *Prober) Bytes() []byte {
	return p.buf
}

// Last returns the result of the most recent Probe
func (p *Prober) Last() StreamInfo {
	return p.last
}

// Probe reports the info for everything written so far. Once MaxBytes
// are buffered a still truncated stream is reported as invalid.
func (p *Prober) Probe() StreamInfo {
	d := p.Decoder
	if d == nil {
		d = defaultDecoder
	}
	p.last = d.GetBasicInfo(p.buf, p.Format)
	if p.last.Status == StatusNotEnoughInput && len(p.buf) >= p.limit() {
		d.logger().Debug("jxl probe gave up", "bytes", len(p.buf), "limit", p.limit())
		p.last = StreamInfo{Status: StatusInvalidStream}
	}
	return p.last
}

// ProbeReader reads r in chunks, probing after each, until the status is
// terminal, r is exhausted or ctx is done. A stream that ends while still
// truncated stays StatusNotEnoughInput. Read errors other than io.EOF are
// returned along with the last result.
func (p *Prober) ProbeReader(ctx context.Context, r io.Reader, chunk int) (StreamInfo, error) {
	if chunk <= 0 {
		chunk = DefaultProbeChunk
	}
	buf := make([]byte, chunk)
	for {
		if err := ctx.Err(); err != nil {
			return p.last, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			p.Write(buf[:n])
			if info := p.Probe(); info.Status != StatusNotEnoughInput {
				return info, nil
			}
		}
		if errors.Is(err, io.EOF) {
			if len(p.buf) == 0 {
				return p.Probe(), nil
			}
			return p.last, nil
		}
		if err != nil {
			return p.last, err
		}
	}
}
