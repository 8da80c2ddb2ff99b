package report

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/dirmirror/internal/model"
)

// maxMarkdownRows limits the file table so huge mirrors stay readable.
const maxMarkdownRows = 500

// MarkdownWriter outputs the report as a Markdown document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report.
func (w *MarkdownWriter) Write(report *model.MirrorReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	if report.DryRun {
		w.writeInventory(md, report)
	} else {
		w.writeFolders(md, report)
		w.writeFiles(md, report)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.MirrorReport) {
	md.H1("Mirror Report")
	md.PlainText("")

	rows := [][]string{
		{"Base URL", "`" + report.BaseURL + "`"},
		{"Started", report.StartedAt.Format(timeLayout)},
		{"Duration", report.Duration().Round(time.Millisecond).String()},
		{"Listings fetched", w.count(report.ListingsFetched)},
		{"Files discovered", w.count(len(report.Inventory))},
	}
	if !report.DryRun {
		rows = append(rows,
			[]string{"Destination", "`" + report.Destination + "`"},
			[]string{"Files downloaded", w.count(len(report.Files))},
			[]string{"Total size", w.size(report.TotalBytes())},
		)
	}
	rows = append(rows, []string{"Status", statusText(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch report.Status {
	case model.RunStatusFailed:
		md.Cautionf("The run failed after %s of %s files.", w.count(len(report.Files)), w.count(len(report.Inventory)))
		md.PlainText("")
	case model.RunStatusCancelled:
		md.Warningf("The run was cancelled after %s of %s files; the mirror is incomplete.", w.count(len(report.Files)), w.count(len(report.Inventory)))
		md.PlainText("")
	}
}

// writeFolders charts the downloaded bytes per top-level folder.
func (w *MarkdownWriter) writeFolders(md *markdown.Markdown, report *model.MirrorReport) {
	totals := bytesByTopFolder(report.Files)
	if len(totals) < 2 {
		return
	}

	md.H2("Size by Folder")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Downloaded bytes"),
		piechart.WithShowData(true),
	)
	for _, t := range totals {
		chart.LabelAndIntValue(t.folder, uint64(t.bytes))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFiles(md *markdown.Markdown, report *model.MirrorReport) {
	md.H2("Files")
	md.PlainText("")

	if len(report.Files) == 0 {
		md.PlainText("No files were downloaded.")
		md.PlainText("")
		return
	}

	files := report.Files
	if len(files) > maxMarkdownRows {
		files = files[:maxMarkdownRows]
	}
	rows := make([][]string, len(files))
	for i, f := range files {
		rows[i] = []string{
			"`" + f.RelativePath + "`",
			w.bytes(f.Bytes),
			f.Duration.Round(time.Millisecond).String(),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Path", "Bytes", "Duration"},
		Rows:   rows,
	})
	md.PlainText("")

	if omitted := len(report.Files) - len(files); omitted > 0 {
		md.Note(w.count(omitted) + " more files are not listed.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeInventory(md *markdown.Markdown, report *model.MirrorReport) {
	md.H2("Inventory")
	md.PlainText("")
	if len(report.Inventory) == 0 {
		md.PlainText("The listing tree contains no files.")
		md.PlainText("")
		return
	}

	items := report.Inventory
	if len(items) > maxMarkdownRows {
		items = items[:maxMarkdownRows]
	}
	quoted := make([]string, len(items))
	for i, rel := range items {
		quoted[i] = "`" + rel + "`"
	}
	md.BulletList(quoted...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [dirmirror](https://github.com/nao1215/dirmirror)*")
}

type folderTotal struct {
	folder string
	bytes  int64
}

// bytesByTopFolder sums bytes per first path segment, largest first.
// Root-level files are grouped under "/".
func bytesByTopFolder(files []model.FileResult) []folderTotal {
	sums := make(map[string]int64)
	for _, f := range files {
		folder := "/"
		if i := strings.Index(f.RelativePath, "/"); i >= 0 {
			folder = f.RelativePath[:i+1]
		}
		sums[folder] += f.Bytes
	}

	totals := make([]folderTotal, 0, len(sums))
	for folder, n := range sums {
		totals = append(totals, folderTotal{folder: folder, bytes: n})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].bytes != totals[j].bytes {
			return totals[i].bytes > totals[j].bytes
		}
		return totals[i].folder < totals[j].folder
	})
	return totals
}
