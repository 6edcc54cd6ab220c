package jxl

import (
	"errors"
	"fmt"
	"io"

	"github.com/jpfielding/jxl.go/pkg/jxl/container"
	"github.com/jpfielding/jxl.go/pkg/jxl/header"
)

// probeResult is what a codec backend reports for one probe
type probeResult struct {
	status  Status
	info    header.BasicInfo
	iccSize uint32
	reason  error // why the stream was rejected, for logging only
}

// backend is the codec on the far side of the bridge
type backend interface {
	name() string
	probe(data []byte) probeResult
	// decode fills pixels and icc, which are sized from a prior probe
	decode(data []byte, format PixelFormat, pixels, icc []byte) error
}

// headerBackend answers probes by parsing the codestream headers in Go.
// It cannot decode pixels and reports no ICC profile size.
type headerBackend struct{}

func (headerBackend) name() string { return "header" }

func (headerBackend) probe(data []byte) probeResult {
	cs, err := container.Codestream(data)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return probeResult{status: StatusInvalidStream, reason: err}
	}
	info, err := header.ParseBasicInfo(cs)
	switch {
	case err == nil:
		return probeResult{status: StatusOK, info: info}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return probeResult{status: StatusNotEnoughInput, reason: err}
	default:
		return probeResult{status: StatusInvalidStream, reason: err}
	}
}

func (headerBackend) decode(data []byte, format PixelFormat, pixels, icc []byte) error {
	return fmt.Errorf("%w (format %s)", ErrNativeCodecUnavailable, format)
}
