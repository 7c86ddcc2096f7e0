package batch

import "github.com/accelara/batchdl/internal/manifest"

// Mode selects the progress unit of a run.
type Mode int

const (
	// ModeCount advances progress by one per candidate.
	ModeCount Mode = iota
	// ModeBytes advances progress by each candidate's declared size.
	ModeBytes
)

func (m Mode) String() string {
	if m == ModeBytes {
		return "bytes"
	}
	return "count"
}

// Terminal is the reported status of a run.
type Terminal string

const (
	TerminalRunning   Terminal = "running"
	TerminalNoLinks   Terminal = "no_links"
	TerminalCompleted Terminal = "completed"
)

// State is the progress accounting of one run. It is a value: Advance
// returns the next state and leaves the receiver untouched.
type State struct {
	TotalCandidates int
	TotalSizeBytes  int64
	TotalUnits      int64
	CompletedUnits  int64
	Succeeded       int
	Failed          int
	Mode            Mode
	Terminal        Terminal
}

// NewState returns the initial state for candidates. Progress is byte
// weighted only when the declared sizes add up to more than the number of
// candidates; otherwise it counts candidates.
func NewState(candidates []manifest.Candidate) State {
	s := State{
		TotalCandidates: len(candidates),
		Terminal:        TerminalRunning,
	}
	for _, c := range candidates {
		s.TotalSizeBytes += c.Size
	}

	if s.TotalSizeBytes > int64(s.TotalCandidates) {
		s.Mode = ModeBytes
		s.TotalUnits = s.TotalSizeBytes
	} else {
		s.Mode = ModeCount
		s.TotalUnits = int64(s.TotalCandidates)
	}
	return s
}

// Weight is the number of progress units c accounts for.
func (s State) Weight(c manifest.Candidate) int64 {
	if s.Mode == ModeBytes {
		return c.Size
	}
	return 1
}

// Advance records one finished attempt, successful or not.
func (s State) Advance(c manifest.Candidate, ok bool) State {
	s.CompletedUnits += s.Weight(c)
	if ok {
		s.Succeeded++
	} else {
		s.Failed++
	}
	return s
}

// Processed is the number of candidates attempted so far.
func (s State) Processed() int {
	return s.Succeeded + s.Failed
}
