package cmd

import (
	"context"
	"log/slog"

	"github.com/jpfielding/jxl.go/pkg/jxl"
	"github.com/jpfielding/jxl.go/pkg/report"
	"github.com/jpfielding/jxl.go/pkg/server"
	"github.com/jpfielding/jxl.go/pkg/store"
	"github.com/spf13/cobra"
)

// NewServeCmd runs the probe API
func NewServeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "JPEG XL probe api",
		Long:  "serves POST /api/probe and, with --db, the stored report queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			dbPath, _ := cmd.Flags().GetString("db")
			maxBody, _ := cmd.Flags().GetInt64("max-body")
			format, err := pixelFormat(cmd)
			if err != nil {
				return err
			}
			logLevel, _ := cmd.Flags().GetString("log-level")

			opts := server.Options{
				Decoder: jxl.NewDecoder(jxl.WithLogger(slog.Default())),
				Probe:   report.Options{Format: format},
				MaxBody: maxBody,
				Debug:   logLevel == "DEBUG" || logLevel == "debug",
			}
			if dbPath != "" {
				st, err := store.Open(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				opts.Store = st
			}
			return server.New(opts).Run(ctx, addr)
		},
	}
	pf := cmd.PersistentFlags()
	pf.String("addr", ":8080", "listen address")
	pf.String("db", "", "sqlite database to record and query reports")
	pf.Int64("max-body", server.DefaultMaxBody, "largest accepted upload in bytes")
	pf.String("pixel-format", jxl.RGBA8888.String(), "pixel format used to size the decode buffer")
	return cmd
}
