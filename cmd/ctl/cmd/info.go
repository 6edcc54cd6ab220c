package cmd

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/jpfielding/jxl.go/pkg/jxl"
	"github.com/jpfielding/jxl.go/pkg/report"
	"github.com/spf13/cobra"
)

// NewInfoCmd probes a single JPEG XL source
func NewInfoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "JPEG XL basic info",
		Long:  "reads a file, stdin (-) or http(s) url and reports the stream status, dimensions and alpha depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, _ := cmd.Flags().GetString("uri")
			if uri == "" && len(args) > 0 {
				uri = args[0]
			}
			if uri == "" {
				return fmt.Errorf("uri is required. Use --uri flag or provide as argument")
			}
			format, err := pixelFormat(cmd)
			if err != nil {
				return err
			}
			opts := report.Options{Format: format}
			if insecure, _ := cmd.Flags().GetBool("insecure"); insecure {
				opts.Client = &http.Client{
					Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
				}
			}
			r, err := report.Probe(ctx, jxl.NewDecoder(), uri, opts)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("format")
			return report.Render(cmd.OutOrStdout(), out, []report.Report{r})
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("uri", "u", "", "JPEG XL URI (path, file://, http(s):// or - for stdin)")
	pf.StringP("format", "f", report.FormatJSON, "output format (json|yaml|text)")
	pf.String("pixel-format", jxl.RGBA8888.String(), "pixel format used to size the decode buffer")
	pf.Bool("insecure", false, "skip tls verification for https sources")
	return cmd
}
