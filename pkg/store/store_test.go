package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/jxl.go/pkg/jxl"
	"github.com/jpfielding/jxl.go/pkg/jxl/container"
	"github.com/jpfielding/jxl.go/pkg/report"
)

var minimal = []byte{0xFF, 0x0A, 0x18, 0x00, 0x0E, 0x04}

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func probe(t *testing.T, source string, data []byte) report.Report {
	t.Helper()
	r, err := report.ProbeBytes(context.Background(), jxl.NewDecoder(), source, data, report.Options{})
	require.NoError(t, err)
	return r
}

func TestStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	want := probe(t, "a.jxl", container.Wrap(minimal))
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, "a.jxl")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.MD5, got.MD5)
	assert.Equal(t, want.Size, got.Size)
	assert.Equal(t, want.Framing, got.Framing)
	assert.Equal(t, []string{"ftyp", "jxlc"}, got.Boxes)
	require.NotNil(t, got.Info)
	assert.Equal(t, want.Info.String(), got.Info.String())
	require.NotNil(t, got.Detail)
	assert.Equal(t, *want.Detail, *got.Detail)

	_, err = s.Get(ctx, "missing.jxl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Upsert(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Save(ctx, probe(t, "a.jxl", minimal[:3])))
	got, err := s.Get(ctx, "a.jxl")
	require.NoError(t, err)
	assert.Equal(t, jxl.StatusNotEnoughInput, got.Info.Status)

	require.NoError(t, s.Save(ctx, probe(t, "a.jxl", minimal)))
	got, err = s.Get(ctx, "a.jxl")
	require.NoError(t, err)
	assert.Equal(t, jxl.StatusOK, got.Info.Status)

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_Queries(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.Save(ctx,
		probe(t, "b.jxl", minimal),
		probe(t, "a.jxl", minimal),
		probe(t, "c.jxl", []byte("GIF89a")),
		report.Report{Source: "d.jxl", Error: "failed to open file"},
	))

	same, err := s.FindByContent(ctx, probe(t, "x", minimal).ID)
	require.NoError(t, err)
	require.Len(t, same, 2)
	assert.Equal(t, "a.jxl", same[0].Source)
	assert.Equal(t, "b.jxl", same[1].Source)

	_, err = s.FindByContent(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, ErrNotFound))

	invalid, err := s.List(ctx, jxl.StatusInvalidStream.String(), 0)
	require.NoError(t, err)
	require.Len(t, invalid, 1)
	assert.Equal(t, "c.jxl", invalid[0].Source)

	failed, err := s.List(ctx, "ERROR", 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Nil(t, failed[0].Info)
	assert.Equal(t, "failed to open file", failed[0].Error)

	first, err := s.List(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a.jxl", first[0].Source)

	assert.NoError(t, s.Save(ctx))
}

func TestStore_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Save(context.Background(), probe(t, "a.jxl", minimal)))
	_, err = s.Get(context.Background(), "a.jxl")
	assert.NoError(t, err)
}
