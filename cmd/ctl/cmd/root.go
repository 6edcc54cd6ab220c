package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/jpfielding/jxl.go/pkg/jxl"
	"github.com/jpfielding/jxl.go/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	var logSink io.Closer
	cmd := &cobra.Command{
		Use:           "jxlctl",
		Short:         "a CLI to inspect JPEG XL streams",
		Long:          "probes JPEG XL files, stdin or URLs for their basic stream info",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnv(cmd); err != nil {
				return err
			}
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFile, _ := cmd.Flags().GetString("log-file")
			logJSON, _ := cmd.Flags().GetBool("log-json")

			// Parse log level
			var level slog.Level
			levelErr := level.UnmarshalText([]byte(strings.ToUpper(logLevel)))
			if levelErr != nil {
				level = slog.LevelInfo
			}
			var w io.Writer = os.Stderr
			if logFile != "" {
				f := logging.RotatingFile(logging.FileConfig{Path: logFile, MaxBackups: 3, Compress: true})
				logSink = f
				w = f
			}
			slog.SetDefault(logging.Logger(w, logJSON, level))

			if levelErr != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", levelErr)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logSink != nil {
				logSink.Close()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd.OutOrStdout(), cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewInfoCmd(ctx),
		NewScanCmd(ctx),
		NewServeCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.String("log-file", "", "write logs to a rotating file instead of stderr")
	pf.Bool("log-json", false, "log as json")
	pf.String("env-file", "", "dotenv file of "+envPrefix+"* variables to load before reading flags")
	return cmd
}

func printCommandTree(w io.Writer, cmd *cobra.Command, indent int) {
	fmt.Fprintln(w, strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(w, subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha and decoder backend for this build",
		Long:  "git sha and decoder backend for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha, jxl.NewDecoder().Backend())
		},
	}
	return cmd
}

// envPrefix namespaces the environment variables that stand in for flags,
// e.g. JXLCTL_LOG_LEVEL for --log-level
const envPrefix = "JXLCTL_"

func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnv loads the optional --env-file and fills every flag not given on
// the command line from its environment variable
func applyEnv(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}
	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "env-file" {
			return
		}
		if v, ok := os.LookupEnv(envName(f.Name)); ok {
			if err := cmd.Flags().Set(f.Name, v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", envName(f.Name), err))
			}
		}
	})
	return errors.Join(errs...)
}

// pixelFormat reads the --pixel-format flag
func pixelFormat(cmd *cobra.Command) (jxl.PixelFormat, error) {
	name, _ := cmd.Flags().GetString("pixel-format")
	return jxl.ParsePixelFormat(name)
}
