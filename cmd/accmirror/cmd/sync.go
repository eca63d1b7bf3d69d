package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/accmirror/internal/config"
	"github.com/dbsmedya/accmirror/internal/database"
	"github.com/dbsmedya/accmirror/internal/logger"
	"github.com/dbsmedya/accmirror/internal/mirror"
	"github.com/dbsmedya/accmirror/internal/notify"
	"github.com/dbsmedya/accmirror/internal/types"
)

var syncQuiet bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single sync pass and exit",
	Long: `Sync runs one complete pass over every source table: fetch, diff
against nothing (first run mirrors everything), apply, and report.

Example:
  accmirror sync --config accmirror.yaml`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false,
		"Suppress per-table progress output")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.IntervalSeconds, overrides.SkipVerify)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Infow("Starting sync pass", "config", configFile)

	ctx := database.SetupSignalHandler()

	var notifier notify.Notifier = notify.Nop{}
	if !syncQuiet {
		out := cmd.OutOrStdout()
		notifier = notify.Func(func(msg string) {
			fmt.Fprintf(out, "  %s\n", msg)
		})
	}

	svc := mirror.NewService(ctx, cfg, notifier, log)
	defer svc.Close()

	result, err := svc.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("sync pass failed: %w", err)
	}

	renderPassSummary(cmd.OutOrStdout(), result)

	if len(result.Errors) > 0 {
		return fmt.Errorf("sync pass completed with %d error(s)", len(result.Errors))
	}
	return nil
}

// renderPassSummary prints a per-table change table followed by totals.
func renderPassSummary(w io.Writer, result *types.PassResult) {
	fmt.Fprintf(w, "\n=== Sync Pass Complete ===\n")
	fmt.Fprintf(w, "Pass: %s\n", result.PassID)
	fmt.Fprintf(w, "Duration: %s\n\n", result.Duration)

	if len(result.Tables) > 0 {
		headers := []string{"Table", "Inserted", "Updated", "Deleted", "Failed"}
		widths := make([]int, len(headers))
		for i, h := range headers {
			widths[i] = runewidth.StringWidth(h)
		}

		rows := make([][]string, 0, len(result.Tables))
		for _, t := range result.Tables {
			if t.Skipped && !t.Changed() {
				continue
			}
			row := []string{
				t.Table,
				fmt.Sprintf("%d", t.Inserted),
				fmt.Sprintf("%d", t.Updated),
				fmt.Sprintf("%d", t.Deleted),
				fmt.Sprintf("%d", t.Failed),
			}
			for i, cell := range row {
				if cw := runewidth.StringWidth(cell); cw > widths[i] {
					widths[i] = cw
				}
			}
			rows = append(rows, row)
		}

		printRow := func(cells []string) {
			parts := make([]string, len(cells))
			for i, cell := range cells {
				parts[i] = runewidth.FillRight(cell, widths[i])
			}
			fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  "))
		}

		printRow(headers)
		for i, width := range widths {
			headers[i] = strings.Repeat("-", width)
		}
		printRow(headers)
		for _, row := range rows {
			printRow(row)
		}
		fmt.Fprintln(w)
	}

	skipped := 0
	failed := 0
	for _, t := range result.Tables {
		if t.Skipped {
			skipped++
		}
		failed += t.Failed
	}

	fmt.Fprintf(w, "Tables: %d (%d unchanged or skipped)\n", len(result.Tables), skipped)
	fmt.Fprintf(w, "Total changes: %s\n", colorCount(result.TotalChanges(), color.Green))
	if failed > 0 {
		fmt.Fprintf(w, "Failed rows: %s\n", colorCount(failed, color.Red))
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", color.Red.Sprint(e))
		}
	}
}

// colorCount renders n in the given color when positive, plain otherwise.
func colorCount(n int, c color.Color) string {
	if n > 0 {
		return c.Sprintf("%d", n)
	}
	return fmt.Sprintf("%d", n)
}
