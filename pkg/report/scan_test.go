package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/jxl.go/pkg/jxl"
	"github.com/jpfielding/jxl.go/pkg/jxl/container"
)

func scanTree(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jxl"), minimal)
	writeFile(t, filepath.Join(dir, "b.jxl"), minimal[:3])
	writeFile(t, filepath.Join(dir, "c.txt"), []byte("not an image"))
	writeFile(t, filepath.Join(dir, "nested", "d.JXL"), container.Wrap(minimal))
	writeFile(t, filepath.Join(dir, "nested", "e.jxl"), []byte("GIF89a"))
	return dir
}

func TestCollect(t *testing.T) {
	dir := scanTree(t)
	paths, err := Collect([]string{dir}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jxl"),
		filepath.Join(dir, "b.jxl"),
		filepath.Join(dir, "nested", "d.JXL"),
		filepath.Join(dir, "nested", "e.jxl"),
	}, paths)

	// explicit files are kept whatever their extension
	paths, err = Collect([]string{filepath.Join(dir, "c.txt")}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "c.txt")}, paths)

	paths, err = Collect([]string{dir}, Options{Extensions: []string{".txt"}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "c.txt")}, paths)

	_, err = Collect([]string{filepath.Join(dir, "missing")}, Options{})
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	dir := scanTree(t)
	for _, workers := range []int{0, 1, 8} {
		reports, err := Scan(context.Background(), jxl.NewDecoder(), []string{dir}, Options{Workers: workers})
		require.NoError(t, err)
		require.Len(t, reports, 4)

		statuses := map[string]jxl.Status{}
		for _, r := range reports {
			require.NotNil(t, r.Info, r.Source)
			statuses[filepath.Base(r.Source)] = r.Info.Status
		}
		assert.Equal(t, map[string]jxl.Status{
			"a.jxl": jxl.StatusOK,
			"b.jxl": jxl.StatusNotEnoughInput,
			"d.JXL": jxl.StatusOK,
			"e.jxl": jxl.StatusInvalidStream,
		}, statuses)
		assert.Equal(t, filepath.Join(dir, "a.jxl"), reports[0].Source)
		assert.Equal(t, Summary{Total: 4, OK: 2, NotEnoughInput: 1, InvalidStream: 1}, Summarize(reports))
	}
}

func TestScan_Canceled(t *testing.T) {
	dir := scanTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, jxl.NewDecoder(), []string{dir}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
