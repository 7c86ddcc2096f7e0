package ui

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/accelara/batchdl/internal/batch"
)

// BarReporter draws a single progress bar. Failures are collected and
// listed once the bar is finished so they do not break the redraw.
type BarReporter struct {
	w        io.Writer
	bar      *progressbar.ProgressBar
	failures []string
}

func NewBarReporter(w io.Writer) *BarReporter {
	return &BarReporter{w: w}
}

func (r *BarReporter) Report(e batch.Event) {
	switch e.Type {
	case batch.EventNoLinks:
		fmt.Fprintln(r.w, MsgNoLinks)

	case batch.EventStarted:
		fmt.Fprintln(r.w, FoundMessage(e.State.TotalCandidates))
		r.bar = newBar(r.w, e.State)

	case batch.EventItem:
		if !e.OK {
			r.failures = append(r.failures, ItemLine(e))
		}
		if r.bar != nil {
			r.bar.Set64(e.State.CompletedUnits)
		}

	case batch.EventFinished:
		if r.bar != nil {
			r.bar.Finish()
			fmt.Fprintln(r.w)
		}
		for _, line := range r.failures {
			fmt.Fprintln(r.w, line)
		}
		fmt.Fprintln(r.w, Summary(e.State))
	}
}

func newBar(w io.Writer, s batch.State) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(Description(s)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
	}
	if s.Mode == batch.ModeBytes {
		opts = append(opts, progressbar.OptionShowBytes(true))
	} else {
		opts = append(opts, progressbar.OptionShowCount(), progressbar.OptionSetItsString("file"))
	}
	return progressbar.NewOptions64(s.TotalUnits, opts...)
}
