package batch

import "github.com/accelara/batchdl/internal/manifest"

// EventType identifies what an Event reports.
type EventType string

const (
	EventNoLinks  EventType = "no_links"
	EventStarted  EventType = "started"
	EventItem     EventType = "item"
	EventFinished EventType = "finished"
)

// Event is emitted by the orchestrator. State is a snapshot taken right
// after the change the event describes.
type Event struct {
	Type EventType
	// Index, Candidate, Destination and OK are set for EventItem only.
	Index       int
	Candidate   manifest.Candidate
	Destination string
	OK          bool
	State       State
}

// Reporter consumes orchestrator events. Calls are never concurrent, even
// when the orchestrator runs several workers.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

type multiReporter []Reporter

func (m multiReporter) Report(e Event) {
	for _, r := range m {
		r.Report(e)
	}
}

// MultiReporter fans events out to every non-nil reporter in order.
func MultiReporter(reporters ...Reporter) Reporter {
	var m multiReporter
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}
