// Package pipeline wires one analysis run end to end: filter, chunk, pass-1
// analysis, pass-2 synthesis, report composition. The CLI and the tests
// share this entry point.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"tracehound/internal/analyzer"
	"tracehound/internal/chunker"
	"tracehound/internal/filter"
	"tracehound/internal/patterns"
	"tracehound/internal/report"
)

// ErrNoServices means the caller supplied no target services, so nothing
// could ever match.
var ErrNoServices = errors.New("at least one target service is required")

type Config struct {
	Filter   filter.Options
	Limit    chunker.Limit
	Analyzer analyzer.Config
	// IncludeChunks appends the raw per-chunk analyses to the report.
	IncludeChunks bool
	// PatternGroups caps the recurring-pattern digest. 0 disables it.
	PatternGroups int
}

type Result struct {
	Report    string
	Synthesis *analyzer.Synthesis
	Analyses  []analyzer.ChunkAnalysis
	Filtered  filter.Result
	Chunks    int
}

// Run executes one pipeline invocation over the raw lines. All intermediate
// values live and die inside this call.
func Run(ctx context.Context, lines []string, c analyzer.Completer, cfg Config) (*Result, error) {
	if len(cfg.Filter.Services) == 0 {
		return nil, ErrNoServices
	}

	filtered := filter.Apply(lines, cfg.Filter)
	log.Info().
		Int("totalLines", len(lines)).
		Int("hits", filtered.Hits).
		Int("filteredLines", len(filtered.Lines)).
		Msg("Filtered journal export")

	chunks, err := chunker.Split(filtered.Lines, cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("chunking: %w", err)
	}
	log.Info().Int("chunks", len(chunks)).Msg("Chunked filtered log")

	analyses, err := analyzer.AnalyzeChunks(ctx, c, chunks, cfg.Filter.Services, cfg.Analyzer)
	if err != nil {
		return nil, err
	}

	syn, err := analyzer.Synthesize(ctx, c, analyses, cfg.Filter.Services)
	if err != nil {
		return nil, err
	}

	var groups []patterns.Group
	if cfg.PatternGroups > 0 {
		groups = patterns.Digest(filter.Texts(filtered.Lines), cfg.PatternGroups)
	}

	text := report.Compose(report.Input{
		Services:      cfg.Filter.Services,
		TotalLines:    len(lines),
		Hits:          filtered.Hits,
		FilteredLines: len(filtered.Lines),
		Truncated:     filtered.Truncated,
		ChunkCount:    len(chunks),
		Synthesis:     syn,
		Analyses:      analyses,
		Patterns:      groups,
		IncludeChunks: cfg.IncludeChunks,
		GeneratedAt:   time.Now().UTC(),
	})

	return &Result{
		Report:    text,
		Synthesis: syn,
		Analyses:  analyses,
		Filtered:  filtered,
		Chunks:    len(chunks),
	}, nil
}
