// Package analyzer drives the two-pass summarization: an independent
// analysis of every chunk, then a single synthesis over all chunk analyses.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tracehound/internal/chunker"
)

// ChunkAnalysis is the pass-1 result for one chunk.
type ChunkAnalysis struct {
	Index int
	Text  string
}

// AnalyzeChunks runs pass 1: one completion call per chunk, fanned out over
// a bounded worker pool. Results come back in original chunk order. Chunks
// are independent, so parallelism never changes the assembled output.
//
// Failure policy is fail fast: the first failed chunk cancels outstanding
// work and aborts the run with an error naming the chunk.
func AnalyzeChunks(ctx context.Context, c Completer, chunks []chunker.Chunk, services []string, cfg Config) ([]ChunkAnalysis, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	limit := cfg.Concurrency
	if limit < 1 {
		limit = 1
	}

	out := make([]ChunkAnalysis, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, chunk := range chunks {
		g.Go(func() error {
			log.Info().
				Int("chunk", i+1).
				Int("totalChunks", len(chunks)).
				Int("lines", len(chunk.Lines)).
				Msg("Analyzing chunk")

			prompt := renderPass1(cfg.Pass1Template, services, chunk.Text())
			text, err := c.Complete(ctx, Request{Prompt: prompt})
			if err != nil {
				return &ServiceError{Stage: fmt.Sprintf("pass-1 chunk %d", i+1), Err: err}
			}
			out[i] = ChunkAnalysis{Index: i, Text: strings.TrimSpace(text)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
