package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jpfielding/jxl.go/pkg/jxl"
	"github.com/jpfielding/jxl.go/pkg/report"
	"github.com/jpfielding/jxl.go/pkg/store"
	"github.com/spf13/cobra"
)

// NewScanCmd probes every JPEG XL file under one or more directories
func NewScanCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "JPEG XL directory scan",
		Long:  "walks directories and reports the basic info of every matching file",
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, _ := cmd.Flags().GetStringSlice("dir")
			dirs = append(dirs, args...)
			if len(dirs) == 0 {
				return fmt.Errorf("at least one --dir is required")
			}
			format, err := pixelFormat(cmd)
			if err != nil {
				return err
			}
			workers, _ := cmd.Flags().GetInt("workers")
			exts, _ := cmd.Flags().GetStringSlice("ext")
			reports, err := report.Scan(ctx, jxl.NewDecoder(), dirs, report.Options{
				Format:     format,
				Workers:    workers,
				Extensions: exts,
			})
			if err != nil {
				return err
			}
			if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
				st, err := store.Open(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.Save(ctx, reports...); err != nil {
					return fmt.Errorf("failed to store reports: %w", err)
				}
				slog.InfoContext(ctx, "stored reports", "db", dbPath, "count", len(reports))
			}
			sum := report.Summarize(reports)
			slog.InfoContext(ctx, "scan complete",
				"total", sum.Total, "ok", sum.OK, "notEnoughInput", sum.NotEnoughInput,
				"invalidStream", sum.InvalidStream, "errors", sum.Errors)
			out, _ := cmd.Flags().GetString("format")
			return report.Render(cmd.OutOrStdout(), out, reports)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringSliceP("dir", "d", nil, "directories (or files) to scan")
	pf.IntP("workers", "w", 4, "concurrent probes")
	pf.StringSlice("ext", []string{".jxl"}, "file extensions to include")
	pf.StringP("format", "f", report.FormatText, "output format (json|yaml|text)")
	pf.String("pixel-format", jxl.RGBA8888.String(), "pixel format used to size the decode buffer")
	pf.String("db", "", "sqlite database to record the reports in")
	return cmd
}
