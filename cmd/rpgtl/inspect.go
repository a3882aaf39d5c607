package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ZaguanLabs/rpgtl"
	"github.com/ZaguanLabs/rpgtl/document"
	"github.com/spf13/cobra"
)

// loadUnits parses path and extracts its text units.
func loadUnits(path string) ([]rpgtl.TextUnit, error) {
	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	root, err := document.Parse(data)
	if err != nil {
		return nil, &rpgtl.DocumentError{Message: "parse failed: " + path, Cause: err}
	}
	return rpgtl.Extract(root), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// ---------------------------------------------------------------------------
// extract (dry run)
// ---------------------------------------------------------------------------

func newExtractCmd(stdout io.Writer) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "List the text units a file would send for translation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := loadUnits(args[0])
			if err != nil {
				return err
			}

			if jsonOut {
				type extractOutput struct {
					InputFile string           `json:"input_file"`
					UnitCount int              `json:"unit_count"`
					Units     []rpgtl.TextUnit `json:"units"`
				}
				return writeJSON(stdout, extractOutput{
					InputFile: filepath.Base(args[0]),
					UnitCount: len(units),
					Units:     units,
				})
			}

			fmt.Fprintf(stdout, "%s: %d translatable text units\n\n", filepath.Base(args[0]), len(units))
			for i, u := range units {
				fmt.Fprintf(stdout, "%3d. %s\n     %q\n", i+1, u.Path.String(), truncate(u.Text, 60))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// ---------------------------------------------------------------------------
// diff
// ---------------------------------------------------------------------------

func newDiffCmd(stdout io.Writer) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare the text units of two versions of a file",
		Long: `Compare the text units of two versions of a data file by location and show
which strings were added, removed or modified and would need translating.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldUnits, err := loadUnits(args[0])
			if err != nil {
				return err
			}
			newUnits, err := loadUnits(args[1])
			if err != nil {
				return err
			}

			diff := rpgtl.DiffUnits(oldUnits, newUnits)
			stats := diff.Stats()

			if jsonOut {
				type diffOutput struct {
					PreviousFile     string               `json:"previous_file"`
					InputFile        string               `json:"input_file"`
					Stats            rpgtl.DiffStats      `json:"stats"`
					NeedsTranslation []rpgtl.TextUnit     `json:"needs_translation"`
					Added            []rpgtl.TextUnit     `json:"added,omitempty"`
					Removed          []rpgtl.TextUnit     `json:"removed,omitempty"`
					Modified         []rpgtl.ModifiedUnit `json:"modified,omitempty"`
				}
				return writeJSON(stdout, diffOutput{
					PreviousFile:     filepath.Base(args[0]),
					InputFile:        filepath.Base(args[1]),
					Stats:            stats,
					NeedsTranslation: diff.NeedsTranslation(),
					Added:            diff.Added,
					Removed:          diff.Removed,
					Modified:         diff.Modified,
				})
			}

			fmt.Fprintf(stdout, "Diff: %s vs %s\n\n", filepath.Base(args[1]), filepath.Base(args[0]))
			fmt.Fprintf(stdout, "Summary:\n")
			fmt.Fprintf(stdout, "  Unchanged: %d\n", stats.Unchanged)
			fmt.Fprintf(stdout, "  Added:     %d\n", stats.Added)
			fmt.Fprintf(stdout, "  Removed:   %d\n", stats.Removed)
			fmt.Fprintf(stdout, "  Modified:  %d\n\n", stats.Modified)

			if !diff.HasChanges() {
				fmt.Fprintf(stdout, "No changes detected. All translations are up to date.\n")
				return nil
			}

			fmt.Fprintf(stdout, "Needs translation: %d strings\n\n", len(diff.NeedsTranslation()))

			if len(diff.Added) > 0 {
				fmt.Fprintf(stdout, "Added:\n")
				for _, u := range diff.Added {
					fmt.Fprintf(stdout, "  + %s %q\n", u.Path.String(), truncate(u.Text, 50))
				}
				fmt.Fprintln(stdout)
			}

			if len(diff.Modified) > 0 {
				fmt.Fprintf(stdout, "Modified:\n")
				for _, m := range diff.Modified {
					fmt.Fprintf(stdout, "  ~ %s %q -> %q\n", m.New.Path.String(), truncate(m.Old.Text, 30), truncate(m.New.Text, 30))
				}
				fmt.Fprintln(stdout)
			}

			if len(diff.Removed) > 0 {
				fmt.Fprintf(stdout, "Removed:\n")
				for _, u := range diff.Removed {
					fmt.Fprintf(stdout, "  - %s %q\n", u.Path.String(), truncate(u.Text, 50))
				}
				fmt.Fprintln(stdout)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
