// Package ui renders batch progress: a bubbletea TUI for terminals, a
// single progress bar, or plain lines.
package ui

import (
	"fmt"

	"github.com/accelara/batchdl/internal/batch"
	"github.com/accelara/batchdl/internal/utils"
)

const (
	MsgNoLinks   = "No downloadable links found in the input file."
	MsgCompleted = "Download completed."
)

// FoundMessage announces the number of candidates of a run.
func FoundMessage(n int) string {
	return fmt.Sprintf("Found %d downloadable link(s).", n)
}

// Description names what the progress of s counts.
func Description(s batch.State) string {
	if s.Mode == batch.ModeBytes {
		return "Downloading..."
	}
	return "Processing links..."
}

// ItemLine describes one finished attempt.
func ItemLine(e batch.Event) string {
	status := "ok  "
	if !e.OK {
		status = "FAIL"
	}
	line := fmt.Sprintf("[%d/%d] %s %s", e.State.Processed(), e.State.TotalCandidates, status, e.Candidate.FileName)
	if !e.OK {
		line += " <- " + e.Candidate.Link
	}
	return line
}

// Summary is the closing line of a completed run.
func Summary(s batch.State) string {
	line := fmt.Sprintf("%s %d succeeded, %d failed", MsgCompleted, s.Succeeded, s.Failed)
	if s.Mode == batch.ModeBytes {
		line += fmt.Sprintf(", %s", utils.HumanBytes(s.TotalSizeBytes))
	}
	return line
}
