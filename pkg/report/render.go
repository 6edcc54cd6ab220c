package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Output formats understood by Render
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Render writes reports in the requested format
func Render(w io.Writer, format string, reports []Report) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SOURCE\tSTATUS\tWIDTH\tHEIGHT\tALPHA\tFRAMING\tSIZE")
		for _, r := range reports {
			if r.Info == nil {
				fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\t\n", r.Source, r.Error)
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%d\n",
				r.Source, r.Info.Status, r.Info.Width, r.Info.Height, r.Info.AlphaBits, r.Framing, r.Size)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (json|yaml|text)", format)
	}
}
