package analyzer

import "strings"

const systemPrompt = `You are a senior software engineer and incident analyst with strong expertise in telecom systems, VoIP, FreeSWITCH, SIP signaling, systemd-based Linux deployments, and distributed service orchestration. You analyze runtime traces and logs strictly on the evidence they contain, prefer deterministic language over generic explanations, and never speculate beyond the trace data.`

const pass1Template = `I will provide you with one chunk of a filtered journalctl export.

Analyze the chunk **only with respect to the following target services**:

TARGET_SERVICES = {target_services}

For each target service that appears in the chunk:

1. **Extract Relevant Events** — log entries, warnings, errors, and state
   transitions directly or indirectly related to the service. Ignore
   unrelated services unless they affect a target service.
2. **Reconstruct the Event Timeline** — a chronological sequence per service,
   marking triggering events, requests, responses, retries, rescans,
   restarts, and configuration or network changes.
3. **Analyze Service Interactions** — how the target services interact with
   each other and with external components (SIP gateways, network
   interfaces, DHCP, edge devices), highlighting dependency failures or race
   conditions.
4. **Identify Anomalies and Failure Signals** — symptoms such as "Invalid
   Gateway", registration failures, timeouts, or stale configuration, with
   the trace evidence that explains them.
5. **Root Cause Hypothesis** — plausible root causes, clearly labeled as
   hypotheses and grounded in observable trace data.
6. **Recovery and Mitigation Evidence** — recovery actions present in the
   trace (profile rescans, configuration reloads, retry loops) and whether
   they were sufficient.

Use clear section headers. Be precise and technical.

LOG CHUNK:
` + "```text\n{log_text}\n```"

const synthesisTemplate = `You are consolidating multiple chunk-level analyses of the same incident into ONE coherent incident report.

Requirements:
- Merge duplicated information.
- Resolve ordering into a single timeline per service when possible.
- Keep evidence-based statements.
- Clearly label hypotheses.
- Produce a concise, ticket-ready final summary covering impacted services,
  what happened, why it happened, what worked, and what did not work.

TARGET_SERVICES = {target_services}

CHUNK ANALYSES:
{chunk_analyses}`

// renderTemplate substitutes the prompt placeholders. The placeholder syntax
// is shared with user-supplied template overrides.
func renderTemplate(template string, subs map[string]string) string {
	pairs := make([]string, 0, len(subs)*2)
	for k, v := range subs {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func renderPass1(template string, services []string, chunkText string) string {
	if template == "" {
		template = pass1Template
	}
	return renderTemplate(template, map[string]string{
		"target_services": strings.Join(services, ", "),
		"log_text":        chunkText,
	})
}

func renderSynthesis(services []string, evidence string) string {
	return renderTemplate(synthesisTemplate, map[string]string{
		"target_services": strings.Join(services, ", "),
		"chunk_analyses":  evidence,
	})
}
