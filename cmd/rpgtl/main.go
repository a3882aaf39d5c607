// Command rpgtl translates RPG Maker data files through Lingva or OpenAI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/ZaguanLabs/rpgtl"
	"github.com/spf13/cobra"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = rpgtl.Version
	commit    = rpgtl.GitCommit
	buildDate = rpgtl.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "rpgtl",
		Short: "Translate RPG Maker MV/MZ data files",
		Long: `rpgtl translates the player-visible text of RPG Maker MV/MZ JSON data
files (maps, common events, database files) while leaving control codes,
identifiers and numbers untouched.

Commands:
  translate   Translate one or more data files
  extract     List the text units a file would send for translation
  diff        Compare the text units of two versions of a file
  languages   List supported language codes
  version     Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "rpgtl.yaml", "Config file (optional unless given explicitly)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(
		newTranslateCmd(g, stdout, stderr),
		newExtractCmd(stdout),
		newDiffCmd(stdout),
		newLanguagesCmd(stdout),
		newVersionCmd(stdout),
	)

	return root
}

// newLogger builds the slog logger used by the library and the CLI.
func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "", "info":
		lvl = slog.LevelInfo
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "%s %s\n", rpgtl.Name, version)
			if commit != "unknown" && commit != "" {
				fmt.Fprintf(stdout, "  commit:  %s\n", commit)
			}
			if buildDate != "unknown" && buildDate != "" {
				fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
			}
		},
	}
}

// ---------------------------------------------------------------------------
// languages
// ---------------------------------------------------------------------------

func newLanguagesCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported language codes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			codes := make([]string, 0, len(rpgtl.LanguageNames))
			for code := range rpgtl.LanguageNames {
				codes = append(codes, code)
			}
			sort.Strings(codes)

			for _, code := range codes {
				line := fmt.Sprintf("%-8s %s", code, rpgtl.LanguageNames[code])
				if rpgtl.IsRTL(code) {
					line += " (rtl)"
				}
				fmt.Fprintln(stdout, line)
			}
		},
	}
}
