package main

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/accelara/batchdl/internal/batch"
	"github.com/accelara/batchdl/internal/utils"
)

// StatusReporter writes one JSON object per line for the embedding
// application. It implements batch.Reporter.
type StatusReporter struct {
	downloadID string
	w          io.Writer
	now        func() time.Time
	mu         sync.Mutex
}

func NewStatusReporter(w io.Writer, downloadID string) *StatusReporter {
	return &StatusReporter{downloadID: downloadID, w: w, now: time.Now}
}

// Emit writes status merged over download_id and timestamp.
func (sr *StatusReporter) Emit(status map[string]interface{}) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	output := map[string]interface{}{
		"download_id": sr.downloadID,
		"timestamp":   sr.now().Unix(),
	}
	for k, v := range status {
		output[k] = v
	}

	data, _ := json.Marshal(output)
	sr.w.Write(append(data, '\n'))
}

func (sr *StatusReporter) Report(e batch.Event) {
	status := progressFields(e.State)
	status["type"] = string(e.Type)

	switch e.Type {
	case batch.EventNoLinks:
		status["status"] = string(batch.TerminalNoLinks)
		status["message"] = "No downloadable links found in the input file."
	case batch.EventStarted:
		status["status"] = string(batch.TerminalRunning)
	case batch.EventItem:
		status["status"] = string(batch.TerminalRunning)
		status["index"] = e.Index
		status["link"] = e.Candidate.Link
		status["file_name"] = e.Candidate.FileName
		status["destination"] = e.Destination
		status["ok"] = e.OK
	case batch.EventFinished:
		status["status"] = string(batch.TerminalCompleted)
		status["message"] = "Download completed."
	}

	sr.Emit(status)
}

func progressFields(s batch.State) map[string]interface{} {
	return map[string]interface{}{
		"mode":             s.Mode.String(),
		"total_candidates": s.TotalCandidates,
		"total_bytes":      s.TotalSizeBytes,
		"total_units":      s.TotalUnits,
		"completed_units":  s.CompletedUnits,
		"succeeded":        s.Succeeded,
		"failed":           s.Failed,
		"progress":         utils.Ratio(s.CompletedUnits, s.TotalUnits) * 100,
	}
}
