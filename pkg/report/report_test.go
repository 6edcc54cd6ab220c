package report

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jpfielding/jxl.go/pkg/jxl"
	"github.com/jpfielding/jxl.go/pkg/jxl/container"
	"github.com/jpfielding/jxl.go/pkg/jxl/header"
	"github.com/jpfielding/jxl.go/pkg/util"
)

var minimal = []byte{0xFF, 0x0A, 0x18, 0x00, 0x0E, 0x04}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestProbeBytes(t *testing.T) {
	ctx := context.Background()
	r, err := ProbeBytes(ctx, jxl.NewDecoder(), "mem", minimal, Options{})
	require.NoError(t, err)
	assert.Equal(t, "mem", r.Source)
	assert.Equal(t, util.ContentUUID(minimal), r.ID)
	assert.Equal(t, util.Md5ThenHex(minimal), r.MD5)
	assert.Equal(t, len(minimal), r.Size)
	assert.Equal(t, len(minimal), r.BytesProbed)
	assert.Equal(t, "codestream", r.Framing)
	assert.Empty(t, r.Boxes)
	require.NotNil(t, r.Info)
	assert.Equal(t, jxl.StatusOK, r.Info.Status)
	assert.Equal(t, uint32(8), r.Info.Width)
	assert.Equal(t, uint32(4), r.Info.Height)
	require.NotNil(t, r.Detail)
	assert.Equal(t, uint32(8), r.Detail.BitsPerSample)
}

func TestProbeBytes_Container(t *testing.T) {
	cs, err := header.EncodeHeaders(header.SizeHeader{Width: 32, Height: 16}, &header.ImageMetadata{
		Orientation:         1,
		BitDepth:            header.DefaultBitDepth(),
		Modular16BitBuffers: true,
		ExtraChannels:       []header.ExtraChannel{header.DefaultAlphaChannel()},
		XYBEncoded:          true,
		Color:               header.DefaultColorEncoding(),
		ToneMapping:         header.DefaultToneMapping(),
	})
	require.NoError(t, err)
	r, err := ProbeBytes(context.Background(), jxl.NewDecoder(), "mem", container.WrapPartial(cs, 2), Options{Chunk: 4})
	require.NoError(t, err)
	assert.Equal(t, "container", r.Framing)
	assert.Equal(t, []string{"ftyp", "jxlp", "jxlp"}, r.Boxes)
	assert.Equal(t, jxl.StatusOK, r.Info.Status)
	assert.Equal(t, uint32(8), r.Info.AlphaBits)
}

func TestProbeBytes_NotJXL(t *testing.T) {
	r, err := ProbeBytes(context.Background(), jxl.NewDecoder(), "mem", []byte("GIF89a"), Options{})
	require.NoError(t, err)
	assert.Equal(t, jxl.StatusInvalidStream, r.Info.Status)
	assert.Empty(t, r.Framing)
	assert.Nil(t, r.Detail)
}

func TestProbe_Sources(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "a.jxl"), minimal)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/a.jxl" {
			http.NotFound(w, req)
			return
		}
		w.Write(minimal)
	}))
	defer srv.Close()

	ctx := context.Background()
	for _, uri := range []string{path, "file://" + path, srv.URL + "/a.jxl"} {
		t.Run(uri, func(t *testing.T) {
			r, err := Probe(ctx, jxl.NewDecoder(), uri, Options{Client: srv.Client()})
			require.NoError(t, err)
			assert.Equal(t, uri, r.Source)
			assert.Equal(t, jxl.StatusOK, r.Info.Status)
		})
	}

	_, err := Probe(ctx, jxl.NewDecoder(), srv.URL+"/missing.jxl", Options{Client: srv.Client()})
	assert.ErrorContains(t, err, "404")

	_, err = Probe(ctx, jxl.NewDecoder(), filepath.Join(dir, "missing.jxl"), Options{})
	assert.ErrorContains(t, err, "failed to open file")
}

func TestSummarize(t *testing.T) {
	reports := []Report{
		{Info: &jxl.StreamInfo{Status: jxl.StatusOK}},
		{Info: &jxl.StreamInfo{Status: jxl.StatusOK}},
		{Info: &jxl.StreamInfo{Status: jxl.StatusNotEnoughInput}},
		{Info: &jxl.StreamInfo{Status: jxl.StatusInvalidStream}},
		{Error: "failed to open file"},
	}
	assert.Equal(t, Summary{Total: 5, OK: 2, NotEnoughInput: 1, InvalidStream: 1, Errors: 1}, Summarize(reports))
}

func TestRender(t *testing.T) {
	ok, err := ProbeBytes(context.Background(), jxl.NewDecoder(), "a.jxl", minimal, Options{})
	require.NoError(t, err)
	reports := []Report{ok, {Source: "b.jxl", Error: "failed to open file"}}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatJSON, reports))
		var back []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
		require.Len(t, back, 2)
		info := back[0]["info"].(map[string]any)
		assert.Equal(t, "OK", info["status"])
		assert.Equal(t, float64(8), info["width"])
		assert.NotContains(t, info, "pixelsSize")
		assert.NotContains(t, back[1], "info")
		assert.Equal(t, "failed to open file", back[1]["error"])
	})
	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatYAML, reports))
		var back []Report
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
		require.Len(t, back, 2)
		require.NotNil(t, back[0].Info)
		assert.Equal(t, ok.Info.String(), back[0].Info.String())
		require.NotNil(t, back[0].Detail)
		assert.Equal(t, *ok.Detail, *back[0].Detail)
		assert.Equal(t, ok.ID, back[0].ID)
	})
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, FormatText, reports))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "SOURCE"))
		assert.Equal(t, []string{"a.jxl", "OK", "8", "4", "0", "codestream", "6"}, strings.Fields(lines[1]))
		assert.Contains(t, lines[2], "ERROR: failed to open file")
	})
	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, Render(&bytes.Buffer{}, "xml", reports))
	})
}
