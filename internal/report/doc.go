// Package report renders a model.MirrorReport for humans and tools.
//
// Three formats are supported:
//   - SimpleWriter: plain text summary for the terminal
//   - JSONWriter: the full report as JSON
//   - MarkdownWriter: a Markdown document for sharing
//
// MultiWriter fans one report out to several writers, e.g. a text summary on
// stdout plus a JSON file.
package report
