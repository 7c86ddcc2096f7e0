package batch

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/accelara/batchdl/internal/manifest"
)

// Fetcher downloads one link to a local path and reports success. It must
// not panic on failure; errors are the fetcher's to log.
type Fetcher interface {
	Fetch(ctx context.Context, link, dest string) bool
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, link, dest string) bool

func (f FetcherFunc) Fetch(ctx context.Context, link, dest string) bool {
	return f(ctx, link, dest)
}

// Orchestrator runs batches of candidates through a Fetcher.
type Orchestrator struct {
	fetcher  Fetcher
	workers  int
	reporter Reporter
	log      zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers allows up to n downloads in flight. Candidates sharing a
// destination still run one after another in manifest order, so the last
// of them wins. n <= 1 keeps the strictly sequential loop.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) { o.workers = n }
}

// WithReporter sets the event consumer.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func New(fetcher Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher: fetcher,
		workers: 1,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run downloads candidates into outputDir and returns the terminal state.
// Every candidate is attempted exactly once; a failed one still advances
// progress and the run still completes.
func (o *Orchestrator) Run(ctx context.Context, candidates []manifest.Candidate, outputDir string) State {
	if len(candidates) == 0 {
		st := State{Terminal: TerminalNoLinks}
		o.log.Info().Msg("no downloadable links found")
		o.report(Event{Type: EventNoLinks, State: st})
		return st
	}

	r := &run{
		o:         o,
		ctx:       ctx,
		outputDir: outputDir,
		state:     NewState(candidates),
	}

	o.log.Info().
		Int("candidates", r.state.TotalCandidates).
		Int64("total_bytes", r.state.TotalSizeBytes).
		Str("mode", r.state.Mode.String()).
		Int("workers", o.workers).
		Msg("starting batch")
	o.report(Event{Type: EventStarted, State: r.state})

	if o.workers <= 1 {
		for i, c := range candidates {
			r.attempt(i, c)
		}
	} else {
		r.parallel(candidates)
	}

	r.state.Terminal = TerminalCompleted
	o.log.Info().
		Int("succeeded", r.state.Succeeded).
		Int("failed", r.state.Failed).
		Msg("download completed")
	o.report(Event{Type: EventFinished, State: r.state})
	return r.state
}

func (o *Orchestrator) report(e Event) {
	if o.reporter != nil {
		o.reporter.Report(e)
	}
}

// Destination is the path a candidate is written to inside outputDir.
func Destination(outputDir string, c manifest.Candidate) string {
	return filepath.Join(outputDir, c.FileName)
}

type run struct {
	o         *Orchestrator
	ctx       context.Context
	outputDir string

	mu    sync.Mutex
	state State
}

type indexed struct {
	index     int
	candidate manifest.Candidate
}

func (r *run) attempt(i int, c manifest.Candidate) {
	dest := Destination(r.outputDir, c)
	ok := r.o.fetcher.Fetch(r.ctx, c.Link, dest)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = r.state.Advance(c, ok)
	r.o.log.Debug().
		Int("index", i).
		Str("link", c.Link).
		Str("dest", dest).
		Bool("ok", ok).
		Msg("candidate processed")
	r.o.report(Event{
		Type:        EventItem,
		Index:       i,
		Candidate:   c,
		Destination: dest,
		OK:          ok,
		State:       r.state,
	})
}

func (r *run) parallel(candidates []manifest.Candidate) {
	var g errgroup.Group
	g.SetLimit(r.o.workers)

	for _, group := range groupByDestination(r.outputDir, candidates) {
		group := group
		g.Go(func() error {
			for _, it := range group {
				r.attempt(it.index, it.candidate)
			}
			return nil
		})
	}
	// attempt never fails, the group only bounds concurrency
	_ = g.Wait()
}

// groupByDestination keeps manifest order both across groups (by first
// appearance) and within each group.
func groupByDestination(outputDir string, candidates []manifest.Candidate) [][]indexed {
	var groups [][]indexed
	slot := make(map[string]int)
	for i, c := range candidates {
		dest := Destination(outputDir, c)
		n, ok := slot[dest]
		if !ok {
			n = len(groups)
			slot[dest] = n
			groups = append(groups, nil)
		}
		groups[n] = append(groups[n], indexed{index: i, candidate: c})
	}
	return groups
}
