// Package report probes JPEG XL sources (files, stdin, URLs) and renders
// the results for people and tools.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/jpfielding/jxl.go/pkg/jxl"
	"github.com/jpfielding/jxl.go/pkg/jxl/container"
	"github.com/jpfielding/jxl.go/pkg/jxl/header"
	"github.com/jpfielding/jxl.go/pkg/util"
)

// Report is the outcome of probing one source
type Report struct {
	ID          string            `json:"id" yaml:"id"`
	Source      string            `json:"source" yaml:"source"`
	Size        int               `json:"size" yaml:"size"`
	BytesProbed int               `json:"bytesProbed" yaml:"bytesProbed"`
	MD5         string            `json:"md5" yaml:"md5"`
	Framing     string            `json:"framing,omitempty" yaml:"framing,omitempty"`
	Boxes       []string          `json:"boxes,omitempty" yaml:"boxes,omitempty"`
	Info        *jxl.StreamInfo   `json:"info,omitempty" yaml:"info,omitempty"`
	Detail      *header.BasicInfo `json:"detail,omitempty" yaml:"detail,omitempty"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Options tunes probing
type Options struct {
	Format     jxl.PixelFormat
	Chunk      int          // probe read size, 0 means jxl.DefaultProbeChunk
	MaxBytes   int          // probe buffer limit, 0 means jxl.DefaultMaxProbeBytes
	Workers    int          // Scan concurrency, 0 means 4
	Extensions []string     // Scan file extensions, empty means .jxl
	Client     *http.Client // for http(s) sources, nil means http.DefaultClient
}

// Open resolves a source: "-" is stdin, http(s) URLs are fetched, anything
// else (optionally prefixed with file://) is a local path
func Open(ctx context.Context, uri string, client *http.Client) (io.ReadCloser, error) {
	uri = strings.TrimPrefix(uri, "file://")
	switch {
	case uri == "-":
		return io.NopCloser(os.Stdin), nil
	case strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://"):
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to download: %s", resp.Status)
		}
		return resp.Body, nil
	default:
		f, err := os.Open(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		return f, nil
	}
}

// Probe opens uri, reads it and reports what dec makes of it
func Probe(ctx context.Context, dec *jxl.Decoder, uri string, opts Options) (Report, error) {
	in, err := Open(ctx, uri, opts.Client)
	if err != nil {
		return Report{Source: uri}, err
	}
	defer in.Close()
	data, err := io.ReadAll(in)
	if err != nil {
		return Report{Source: uri}, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	return ProbeBytes(ctx, dec, uri, data, opts)
}

// ProbeBytes reports on data already in memory
func ProbeBytes(ctx context.Context, dec *jxl.Decoder, source string, data []byte, opts Options) (Report, error) {
	r := Report{
		ID:     util.ContentUUID(data),
		Source: source,
		Size:   len(data),
		MD5:    util.Md5ThenHex(data),
	}
	p := jxl.NewProber(dec, opts.Format)
	p.MaxBytes = opts.MaxBytes
	info, err := p.ProbeReader(ctx, bytes.NewReader(data), opts.Chunk)
	if err != nil {
		return r, err
	}
	r.Info = &info
	r.BytesProbed = len(p.Bytes())

	if kind, err := container.Detect(data); err == nil {
		r.Framing = kind.String()
	}
	if boxes, _ := container.Boxes(data); len(boxes) > 0 {
		for _, b := range boxes {
			r.Boxes = append(r.Boxes, string(b.Type[:]))
		}
	}
	if info.Status == jxl.StatusOK {
		detail, _ := dec.Details(p.Bytes())
		r.Detail = &detail
	}
	slog.DebugContext(ctx, "probed jxl source",
		"source", source, "status", info.Status, "bytes", r.BytesProbed, "backend", dec.Backend())
	return r, nil
}

// Summary counts reports by outcome
type Summary struct {
	Total          int `json:"total" yaml:"total"`
	OK             int `json:"ok" yaml:"ok"`
	NotEnoughInput int `json:"notEnoughInput" yaml:"notEnoughInput"`
	InvalidStream  int `json:"invalidStream" yaml:"invalidStream"`
	Errors         int `json:"errors" yaml:"errors"`
}

// Summarize tallies reports
func Summarize(reports []Report) Summary {
	s := Summary{Total: len(reports)}
	for _, r := range reports {
		if r.Error != "" || r.Info == nil {
			s.Errors++
			continue
		}
		switch r.Info.Status {
		case jxl.StatusOK:
			s.OK++
		case jxl.StatusNotEnoughInput:
			s.NotEnoughInput++
		case jxl.StatusInvalidStream:
			s.InvalidStream++
		}
	}
	return s
}
