package ui

import (
	"fmt"
	"io"

	"github.com/accelara/batchdl/internal/batch"
)

// TextReporter prints one line per event, for logs and dumb terminals.
type TextReporter struct {
	w io.Writer
}

func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

func (r *TextReporter) Report(e batch.Event) {
	switch e.Type {
	case batch.EventNoLinks:
		fmt.Fprintln(r.w, MsgNoLinks)
	case batch.EventStarted:
		fmt.Fprintln(r.w, FoundMessage(e.State.TotalCandidates))
	case batch.EventItem:
		fmt.Fprintln(r.w, ItemLine(e))
	case batch.EventFinished:
		fmt.Fprintln(r.w, Summary(e.State))
	}
}
