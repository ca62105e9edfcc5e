// Package matching resolves free-text provider names against the known providers:
// exact lookup on the folded name first, then a best-score fuzzy scan gated by a
// similarity threshold.
package matching

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

const (
	DefaultThreshold             = 0.85
	DefaultParallelMinCandidates = 2000
	DefaultChunkSize             = 500
)

// Config contains configuration for the matcher.
type Config struct {
	Threshold             float64 // minimum fuzzy score to accept, in (0,1]
	ParallelMinCandidates int     // scans larger than this are split across goroutines
	ChunkSize             int     // candidates per goroutine
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:             DefaultThreshold,
		ParallelMinCandidates: DefaultParallelMinCandidates,
		ChunkSize:             DefaultChunkSize,
	}
}

// ValidateThreshold checks that a threshold lies in (0,1].
func ValidateThreshold(threshold float64) error {
	if !(threshold > 0 && threshold <= 1) {
		return fmt.Errorf("similarity_threshold must be in (0, 1], got %v", threshold)
	}
	return nil
}

// Result is the matcher's verdict for one name.
type Result struct {
	Candidate Candidate
	Score     float64
	MatchType models.MatchType
}

// Matched reports whether a provider was accepted.
func (r Result) Matched() bool {
	return r.MatchType == models.MatchTypeExact || r.MatchType == models.MatchTypeFuzzy
}

// Matcher is read-only and safe for concurrent use.
type Matcher struct {
	index  *Index
	scorer *Scorer
	cfg    Config
}

// NewMatcher builds a matcher over index. The threshold must lie in (0,1];
// zero chunk settings fall back to the defaults.
func NewMatcher(index *Index, cfg Config) (*Matcher, error) {
	if err := ValidateThreshold(cfg.Threshold); err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ParallelMinCandidates <= 0 {
		cfg.ParallelMinCandidates = DefaultParallelMinCandidates
	}
	return &Matcher{index: index, scorer: NewScorer(), cfg: cfg}, nil
}

// Match resolves rawName. Blank names never match.
func (m *Matcher) Match(ctx context.Context, rawName string) (Result, error) {
	key := normalizers.Fold(rawName)
	if key == "" {
		return Result{MatchType: models.MatchTypeNone}, nil
	}

	if c, ok := m.index.Lookup(key); ok {
		return Result{Candidate: c, Score: 1.0, MatchType: models.MatchTypeExact}, nil
	}

	best, found, err := m.bestFuzzy(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if !found || best.score < m.cfg.Threshold {
		return Result{Candidate: best.candidate, Score: best.score, MatchType: models.MatchTypeNone}, nil
	}
	return Result{Candidate: best.candidate, Score: best.score, MatchType: models.MatchTypeFuzzy}, nil
}

type scored struct {
	candidate Candidate
	score     float64
}

// better orders by score, then by lowest candidate id.
func better(a, b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.candidate.ID < b.candidate.ID
}

// bestFuzzy returns the best scoring candidate for an already folded key.
func (m *Matcher) bestFuzzy(ctx context.Context, key string) (scored, bool, error) {
	candidates := m.index.Block(key)
	if len(candidates) <= m.cfg.ParallelMinCandidates {
		best, found := m.scan(key, candidates)
		return best, found, nil
	}

	chunks := (len(candidates) + m.cfg.ChunkSize - 1) / m.cfg.ChunkSize
	results := make([]scored, chunks)
	founds := make([]bool, chunks)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < chunks; i++ {
		start := i * m.cfg.ChunkSize
		end := min(start+m.cfg.ChunkSize, len(candidates))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], founds[i] = m.scan(key, candidates[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return scored{}, false, err
	}

	var best scored
	found := false
	for i := range results {
		if founds[i] && (!found || better(results[i], best)) {
			best, found = results[i], true
		}
	}
	return best, found, nil
}

func (m *Matcher) scan(key string, candidates []Candidate) (scored, bool) {
	var best scored
	found := false
	for _, c := range candidates {
		if c.Key == "" {
			continue
		}
		s := scored{candidate: c, score: m.scorer.Similarity(key, c.Key)}
		if !found || better(s, best) {
			best, found = s, true
		}
	}
	return best, found
}
