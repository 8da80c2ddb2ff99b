package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/dirmirror/internal/config"
	"github.com/nao1215/dirmirror/internal/database"
	"github.com/nao1215/dirmirror/internal/report"
	"github.com/spf13/cobra"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous mirror runs",
		Long: `History lists the mirror runs recorded in the history database, newest first.

Every run is recorded, including failed and cancelled ones, unless
'dirmirror mirror' was started with --no-history.

Examples:
  # List the 20 most recent runs
  dirmirror history

  # List runs of one listing
  dirmirror history --base-url https://files.example.com/pub/

  # Show the files written by run 5
  dirmirror history --run 5

  # Print the stored report of run 5 as Markdown
  dirmirror history --run 5 --markdown

  # Remove run 5 from the history
  dirmirror history --delete 5`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("base-url", "u", "", "Only show runs of this base URL")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list (0 lists all)")
	cmd.Flags().Int64P("run", "r", 0, "Show the details of the run with this ID")
	cmd.Flags().BoolP("last", "l", false, "Show the details of the most recent run")
	cmd.Flags().Int64("delete", 0, "Delete the run with this ID")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output the stored run report in Markdown format")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	baseURL, err := flags.GetString("base-url")
	if err != nil {
		return err
	}
	if baseURL != "" {
		baseURL = config.NormalizeBaseURL(baseURL)
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := flags.GetInt64("run")
	if err != nil {
		return err
	}
	last, err := flags.GetBool("last")
	if err != nil {
		return err
	}
	deleteID, err := flags.GetInt64("delete")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate flags before opening the database.
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}
	if runID != 0 && last {
		return fmt.Errorf("%w: --run and --last cannot be used together", config.ErrInvalidConfig)
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case deleteID != 0:
		if err := db.DeleteRun(ctx, deleteID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %d\n", deleteID)
		return nil
	case last:
		rec, err := db.LastRun(ctx, baseURL)
		if err != nil {
			return err
		}
		return showRun(ctx, out, db, rec.ID, jsonOutput, markdownOutput)
	case runID != 0:
		return showRun(ctx, out, db, runID, jsonOutput, markdownOutput)
	default:
		return listRuns(ctx, out, db, baseURL, limit, jsonOutput)
	}
}

// listRuns prints the run summaries, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, baseURL string, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, baseURL, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runsJSON(runs))
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No mirror runs found in the history.")
		fmt.Fprintln(out, "\nUse 'dirmirror mirror' to mirror a directory listing.")
		return nil
	}

	fmt.Fprintf(out, "Mirror runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-9s  %-11s  %-10s  %s\n",
		"ID", "Started", "Status", "Files", "Size", "Base URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))
	for _, r := range runs {
		status := r.Status.String()
		if r.DryRun {
			status = "dry-run"
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %-9s  %-11s  %-10s  %s\n",
			r.ID,
			r.StartedAt.Local().Format(historyTimeLayout),
			status,
			fmt.Sprintf("%d/%d", r.FilesDownloaded, r.FilesDiscovered),
			humanize.IBytes(uint64(max(r.TotalBytes, 0))),
			r.BaseURL,
		)
	}

	fmt.Fprintln(out, "\nUse 'dirmirror history --run <id>' to see the files of a run.")
	return nil
}

// showRun prints one stored run. JSON and Markdown render the stored report;
// the default is a summary followed by the file table.
func showRun(ctx context.Context, out io.Writer, db *database.HistoryDB, id int64, jsonOutput, markdownOutput bool) error {
	if jsonOutput || markdownOutput {
		stored, err := db.GetReport(ctx, id)
		if err != nil {
			return err
		}
		var w report.Writer = report.NewMarkdownWriter(out)
		if jsonOutput {
			w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
		}
		_, err = w.Write(stored)
		return err
	}

	rec, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	files, err := db.GetRunFiles(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %d\n", rec.ID)
	fmt.Fprintf(out, "  Base URL:     %s\n", rec.BaseURL)
	fmt.Fprintf(out, "  Destination:  %s\n", rec.Destination)
	fmt.Fprintf(out, "  Started:      %s\n", rec.StartedAt.Local().Format(historyTimeLayout))
	fmt.Fprintf(out, "  Duration:     %s\n", rec.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "  Status:       %s\n", rec.Status)
	fmt.Fprintf(out, "  Listings:     %d\n", rec.ListingsFetched)
	fmt.Fprintf(out, "  Files:        %d of %d\n", rec.FilesDownloaded, rec.FilesDiscovered)
	fmt.Fprintf(out, "  Size:         %s\n", humanize.IBytes(uint64(max(rec.TotalBytes, 0))))
	if rec.Error != "" {
		fmt.Fprintf(out, "  Error:        %s\n", rec.Error)
	}

	if len(files) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %-10s  %-16s  %s\n", "Size", "BLAKE2b", "Path")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))
	for _, f := range files {
		fmt.Fprintf(out, "  %-10s  %-16s  %s\n",
			humanize.IBytes(uint64(max(f.Bytes, 0))),
			shortChecksum(f.Checksum),
			f.RelativePath,
		)
	}
	return nil
}

// shortChecksum abbreviates a hex digest for the file table.
func shortChecksum(sum string) string {
	if sum == "" {
		return "-"
	}
	if len(sum) > 16 {
		return sum[:16]
	}
	return sum
}

type runJSON struct {
	ID              int64     `json:"id"`
	BaseURL         string    `json:"base_url"`
	Destination     string    `json:"destination"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at,omitzero"`
	Status          string    `json:"status"`
	DryRun          bool      `json:"dry_run"`
	FilesDiscovered int       `json:"files_discovered"`
	FilesDownloaded int       `json:"files_downloaded"`
	TotalBytes      int64     `json:"total_bytes"`
	ListingsFetched int       `json:"listings_fetched"`
	Error           string    `json:"error,omitempty"`
}

func runsJSON(runs []database.RunRecord) []runJSON {
	result := make([]runJSON, 0, len(runs))
	for _, r := range runs {
		result = append(result, runJSON{
			ID:              r.ID,
			BaseURL:         r.BaseURL,
			Destination:     r.Destination,
			StartedAt:       r.StartedAt,
			FinishedAt:      r.FinishedAt,
			Status:          r.Status.String(),
			DryRun:          r.DryRun,
			FilesDiscovered: r.FilesDiscovered,
			FilesDownloaded: r.FilesDownloaded,
			TotalBytes:      r.TotalBytes,
			ListingsFetched: r.ListingsFetched,
			Error:           r.Error,
		})
	}
	return result
}
