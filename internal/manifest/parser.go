package manifest

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// SizeProber reports the declared size of a remote resource.
type SizeProber interface {
	ProbeSize(ctx context.Context, link string) (int64, error)
}

// Stats summarizes one parse.
type Stats struct {
	Lines      int
	Malformed  int
	Matched    int // entries that produced at least one candidate
	Candidates int
	TotalSize  int64
}

// Option configures Parse and ParseReader.
type Option func(*parser)

// WithSizeProber enables the size-aware variant: every candidate is probed
// and carries the declared size. Probe failures leave the size at 0.
func WithSizeProber(p SizeProber) Option {
	return func(ps *parser) { ps.prober = p }
}

// WithStats stores parse statistics in s.
func WithStats(s *Stats) Option {
	return func(ps *parser) { ps.stats = s }
}

// WithLogger sets the logger used for probe failures and skipped lines.
func WithLogger(l zerolog.Logger) Option {
	return func(ps *parser) { ps.log = l }
}

type parser struct {
	prober SizeProber
	stats  *Stats
	log    zerolog.Logger
}

// Parse reads the manifest at path and returns the download candidates in
// manifest order, then suffix order. A missing or unreadable file yields a
// *NotFoundError; a manifest without matches yields an empty slice.
func Parse(ctx context.Context, path string, suffixes []string, opts ...Option) ([]Candidate, error) {
	if len(suffixes) == 0 {
		return nil, ErrNoSuffixes
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	defer file.Close()

	candidates, err := ParseReader(ctx, file, suffixes, opts...)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	return candidates, nil
}

// ParseReader is Parse over an arbitrary reader. Only read errors are
// returned; nothing is emitted when reading fails part way.
func ParseReader(ctx context.Context, r io.Reader, suffixes []string, opts ...Option) ([]Candidate, error) {
	if len(suffixes) == 0 {
		return nil, ErrNoSuffixes
	}

	p := &parser{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	normalized := NormalizeSuffixes(suffixes)

	var stats Stats
	candidates := []Candidate{}

	// Lines have no length limit; an oversized line is just another entry.
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line == "" && err == io.EOF {
			break
		}
		stats.Lines++

		entry, ok := ParseEntry(line)
		if !ok {
			stats.Malformed++
			p.log.Debug().Int("line", stats.Lines).Msg("skipping malformed manifest line")
		} else {
			matched := entry.Candidates(normalized)
			if len(matched) > 0 {
				stats.Matched++
			}
			for _, c := range matched {
				if p.prober != nil {
					c.Size = p.probe(ctx, c.Link)
				}
				stats.TotalSize += c.Size
				candidates = append(candidates, c)
			}
		}

		if err == io.EOF {
			break
		}
	}

	stats.Candidates = len(candidates)
	if p.stats != nil {
		*p.stats = stats
	}
	return candidates, nil
}

func (p *parser) probe(ctx context.Context, link string) int64 {
	size, err := p.prober.ProbeSize(ctx, link)
	if err != nil {
		p.log.Debug().Err(err).Str("link", link).Msg("size probe failed, assuming unknown size")
		return 0
	}
	if size < 0 {
		return 0
	}
	return size
}
