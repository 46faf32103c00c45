// Package report assembles the final markdown artifact from the synthesis
// result and the run's supporting detail. Pure formatting, no decisions.
package report

import (
	"fmt"
	"strings"
	"time"

	"tracehound/internal/analyzer"
	"tracehound/internal/patterns"
)

// Input carries everything the composed report can show.
type Input struct {
	Services      []string
	TotalLines    int
	Hits          int
	FilteredLines int
	Truncated     bool
	ChunkCount    int
	Synthesis     *analyzer.Synthesis
	Analyses      []analyzer.ChunkAnalysis
	Patterns      []patterns.Group
	IncludeChunks bool
	GeneratedAt   time.Time
}

// Compose renders the report: executive summary, full incident report,
// recurring-pattern digest, and optionally the raw per-chunk analyses.
func Compose(in Input) string {
	var b strings.Builder

	b.WriteString("# Journalctl Trace Analysis\n\n")
	if !in.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n\n", in.GeneratedAt.Format(time.RFC3339))
	}

	b.WriteString("## Target Services\n\n")
	for _, svc := range in.Services {
		fmt.Fprintf(&b, "- %s\n", svc)
	}
	b.WriteString("\n")

	b.WriteString("## Input Stats\n\n")
	fmt.Fprintf(&b, "- Total lines: %d\n", in.TotalLines)
	fmt.Fprintf(&b, "- Direct matches: %d\n", in.Hits)
	fmt.Fprintf(&b, "- Filtered lines (with context): %d\n", in.FilteredLines)
	fmt.Fprintf(&b, "- Chunks analyzed: %d\n", in.ChunkCount)
	if in.Truncated {
		b.WriteString("- Note: filtered output was truncated by the line cap\n")
	}
	b.WriteString("\n")

	b.WriteString("## Executive Summary\n\n")
	b.WriteString(in.Synthesis.Summary)
	b.WriteString("\n\n")
	if len(in.Synthesis.ImpactedServices) > 0 {
		fmt.Fprintf(&b, "Impacted services: %s\n\n", strings.Join(in.Synthesis.ImpactedServices, ", "))
	}

	b.WriteString("## Incident Report\n\n")
	b.WriteString(in.Synthesis.Report)
	b.WriteString("\n")

	if len(in.Patterns) > 0 {
		b.WriteString("\n## Recurring Patterns\n\n")
		for _, g := range in.Patterns {
			fmt.Fprintf(&b, "- %d× `%s`\n", g.Count, g.Template)
		}
	}

	if in.IncludeChunks && len(in.Analyses) > 0 {
		b.WriteString("\n## Appendix: Chunk Analyses\n")
		for _, a := range in.Analyses {
			fmt.Fprintf(&b, "\n### Chunk %d\n\n%s\n", a.Index+1, a.Text)
		}
	}

	return b.String()
}
