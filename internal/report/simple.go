package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/dirmirror/internal/model"
)

// SimpleWriter outputs a plain text summary.
type SimpleWriter struct {
	baseWriter

	// verbose lists every file instead of only the summary.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every mirrored file.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report.
func (w *SimpleWriter) Write(report *model.MirrorReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	if report.DryRun {
		w.writeInventory(&sb, report)
	} else {
		w.writeFiles(&sb, report)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.MirrorReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	if report.DryRun {
		sb.WriteString("DIRMIRROR INVENTORY (dry run)\n")
	} else {
		sb.WriteString("DIRMIRROR REPORT\n")
	}
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Base URL:     %s\n", report.BaseURL)
	if !report.DryRun {
		fmt.Fprintf(sb, "Destination:  %s\n", report.Destination)
	}
	fmt.Fprintf(sb, "Started:      %s\n", report.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:     %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Listings:     %s\n", w.count(report.ListingsFetched))
	fmt.Fprintf(sb, "Discovered:   %s files\n", w.count(len(report.Inventory)))
	if !report.DryRun {
		fmt.Fprintf(sb, "Downloaded:   %s files, %s\n", w.count(len(report.Files)), w.size(report.TotalBytes()))
	}
	fmt.Fprintf(sb, "Status:       %s\n", statusText(report))
}

func (w *SimpleWriter) writeInventory(sb *strings.Builder, report *model.MirrorReport) {
	if len(report.Inventory) == 0 {
		return
	}
	sb.WriteString("\n")
	for _, rel := range report.Inventory {
		fmt.Fprintf(sb, "  %s\n", rel)
	}
}

func (w *SimpleWriter) writeFiles(sb *strings.Builder, report *model.MirrorReport) {
	if !w.verbose || len(report.Files) == 0 {
		return
	}
	sb.WriteString("\n")
	for _, f := range report.Files {
		fmt.Fprintf(sb, "  %-50s %12s  %s\n", f.LocalPath, w.bytes(f.Bytes), f.Duration.Round(time.Millisecond))
	}
}
