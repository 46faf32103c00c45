package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog/log"
)

// Synthesis is the pass-2 result: the consolidated incident report and a
// condensed ticket-ready summary, requested as structured output.
type Synthesis struct {
	Report           string   `json:"report" jsonschema:"description=Consolidated incident report in markdown with a merged per-service timeline"`
	Summary          string   `json:"summary" jsonschema:"description=Condensed ticket-ready summary of the incident"`
	ImpactedServices []string `json:"impactedServices" jsonschema:"description=Target services implicated by the evidence"`
}

const noEvidenceReport = "No log lines matched the target services, so there is no evidence to analyze. " +
	"Verify the service names and consider widening the context window."

const noEvidenceSummary = "No matching evidence found for the target services."

// Synthesize runs pass 2: one completion call over the ordered pass-1
// outputs. With no evidence it short-circuits locally — the service is never
// asked to fabricate a report. Failure here is fatal to the run.
func Synthesize(ctx context.Context, c Completer, analyses []ChunkAnalysis, services []string) (*Synthesis, error) {
	if len(analyses) == 0 {
		log.Info().Msg("No chunk analyses to synthesize, skipping pass 2")
		return &Synthesis{Report: noEvidenceReport, Summary: noEvidenceSummary}, nil
	}

	log.Info().Int("chunkAnalyses", len(analyses)).Msg("Synthesizing final report")

	prompt := renderSynthesis(services, joinAnalyses(analyses))
	text, err := c.Complete(ctx, Request{
		Prompt:       prompt,
		OutputSchema: generateSchema(&Synthesis{}),
	})
	if err != nil {
		return nil, &ServiceError{Stage: "pass-2 synthesis", Err: err}
	}

	var syn Synthesis
	if err := json.Unmarshal([]byte(text), &syn); err != nil {
		return nil, &ServiceError{
			Stage: "pass-2 synthesis",
			Err:   fmt.Errorf("failed to parse structured output: %w", err),
		}
	}
	return &syn, nil
}

// joinAnalyses tags each analysis with its chunk number and joins them in
// chunk order, which mirrors the chronological order of the original log.
func joinAnalyses(analyses []ChunkAnalysis) string {
	parts := make([]string, len(analyses))
	for i, a := range analyses {
		parts[i] = fmt.Sprintf("Chunk %d analysis:\n%s", a.Index+1, a.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func generateSchema(v any) map[string]any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := r.Reflect(v)
	b, _ := json.Marshal(s)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}
