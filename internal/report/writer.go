package report

import (
	"io"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/dirmirror/internal/model"
)

// Writer renders a mirror report.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *model.MirrorReport) (int, error)
}

// MultiWriter writes one report to several Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every Writer, stopping at the first error.
func (m *MultiWriter) Write(report *model.MirrorReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the output destination and number formatting shared by
// the writers.
type baseWriter struct {
	output  io.Writer
	printer *message.Printer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{
		output:  output,
		printer: message.NewPrinter(language.English),
	}
}

// count formats n with thousands separators.
func (b baseWriter) count(n int) string {
	return b.printer.Sprintf("%d", n)
}

// bytes formats a byte count with thousands separators.
func (b baseWriter) bytes(n int64) string {
	return b.printer.Sprintf("%d", n)
}

// size formats a byte count as "12 MiB (12,582,912 bytes)".
func (b baseWriter) size(n int64) string {
	if n < 1024 {
		return b.printer.Sprintf("%d bytes", n)
	}
	return b.printer.Sprintf("%s (%d bytes)", humanize.IBytes(uint64(n)), n)
}

// statusText is the one-line status shared by the text formats.
func statusText(report *model.MirrorReport) string {
	switch report.Status {
	case model.RunStatusSuccess:
		return "Complete"
	case model.RunStatusCancelled:
		return "Cancelled (partial mirror)"
	case model.RunStatusFailed:
		if report.ErrorMessage != "" {
			return "Failed - " + report.ErrorMessage
		}
		return "Failed"
	default:
		return "Running"
	}
}

const timeLayout = "2006-01-02 15:04:05 MST"
