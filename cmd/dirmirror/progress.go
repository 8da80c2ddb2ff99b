package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// barProgress shows per-item download progress as a terminal progress bar.
// It satisfies pipeline.Progress.
type barProgress struct {
	out io.Writer
	w   io.Writer
	bar *progressbar.ProgressBar
}

// newBarProgress announces the item count on out and draws the bar on w.
func newBarProgress(out, w io.Writer) *barProgress {
	return &barProgress{out: out, w: w}
}

func (p *barProgress) Start(total int) {
	fmt.Fprintln(p.out, "Starting download...")
	fmt.Fprintf(p.out, "Downloading %d items\n", total)
	if total == 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("mirroring"),
		progressbar.OptionSetItsString("file"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.w)
		}),
	)
}

func (p *barProgress) Advance(_ string, _ int64) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(1) //nolint:errcheck // display only
}

// Finish leaves the bar at its current position, so an aborted run shows
// how far it got.
func (p *barProgress) Finish() {
	if p.bar == nil {
		return
	}
	if !p.bar.IsFinished() {
		_ = p.bar.Exit() //nolint:errcheck // display only
		fmt.Fprintln(p.w)
	}
}
