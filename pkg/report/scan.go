package report

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jpfielding/jxl.go/pkg/jxl"
)

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return 4
}

func (o Options) match(path string) bool {
	exts := o.Extensions
	if len(exts) == 0 {
		exts = []string{".jxl"}
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// Collect walks roots and returns the matching files in sorted order.
// Roots that are files are always included.
func Collect(roots []string, opts Options) ([]string, error) {
	var paths []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if path == root || opts.match(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Scan probes every file under roots with bounded concurrency. A file that
// cannot be read is reported with Error set; only cancellation aborts the
// scan.
func Scan(ctx context.Context, dec *jxl.Decoder, roots []string, opts Options) ([]Report, error) {
	paths, err := Collect(roots, opts)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "scanning jxl files", "files", len(paths), "workers", opts.workers())

	reports := make([]Report, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			r, err := Probe(gctx, dec, path, opts)
			if err != nil {
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				slog.WarnContext(gctx, "probe failed", "source", path, "error", err)
				r = Report{Source: path, Error: err.Error()}
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
