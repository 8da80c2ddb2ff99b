package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/dirmirror/internal/model"
)

// JSONWriter outputs the full report as a single JSON document.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent string

	// version, when set, wraps the report with the producing version.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = "  "
	}
}

// WithVersion wraps the report in {"version": ..., "report": ...}.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonReport is the versioned envelope.
type jsonReport struct {
	Version    string              `json:"version"`
	TotalBytes int64               `json:"total_bytes"`
	Report     *model.MirrorReport `json:"report"`
}

// Write outputs the report.
func (w *JSONWriter) Write(report *model.MirrorReport) (int, error) {
	var v any = report
	if w.version != "" {
		v = jsonReport{
			Version:    w.version,
			TotalBytes: report.TotalBytes(),
			Report:     report,
		}
	}

	var (
		data []byte
		err  error
	)
	if w.indent != "" {
		data, err = json.MarshalIndent(v, "", w.indent)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
