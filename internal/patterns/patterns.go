// Package patterns builds a digest of recurring line shapes in the filtered
// log. Volatile tokens (timestamps, pids, addresses) are masked so repeated
// events group under one template regardless of their variable parts. The
// digest feeds a report section only; it never alters the pipeline's data.
package patterns

import (
	"regexp"
	"sort"
)

type maskRule struct {
	re          *regexp.Regexp
	placeholder string
}

var maskRules = []maskRule{
	{regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`), "<UUID>"},
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}([.,]\d+)?(Z|[+-]\d{2}:?\d{2})?`), "<TIMESTAMP>"},
	// syslog-style prefix, e.g. "Jan  2 15:04:05"
	{regexp.MustCompile(`\b[A-Z][a-z]{2} {1,2}\d{1,2} \d{2}:\d{2}:\d{2}\b`), "<TIMESTAMP>"},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(:\d+)?\b`), "<IP>"},
	// journald unit prefix pid, e.g. "freeswitch[1234]:"
	{regexp.MustCompile(`\[\d+\]`), "[<PID>]"},
	{regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`), "<ADDR>"},
	{regexp.MustCompile(`\b[0-9a-fA-F]{12,}\b`), "<HEX>"},
	{regexp.MustCompile(`\b\d+(\.\d+)?\b`), "<NUM>"},
}

// Normalize masks the volatile tokens of a journal line, leaving a template.
func Normalize(line string) string {
	for _, rule := range maskRules {
		line = rule.re.ReplaceAllString(line, rule.placeholder)
	}
	return line
}

// Group is a set of lines sharing one normalized template.
type Group struct {
	Template string
	Count    int
	Sample   string
}

// Digest groups the given lines by normalized template and returns the most
// frequent groups, largest first, capped at max. Groups seen only once are
// noise for a recurrence digest and are dropped.
func Digest(lines []string, max int) []Group {
	byTemplate := make(map[string]*Group)
	var order []string

	for _, line := range lines {
		tmpl := Normalize(line)
		if g, ok := byTemplate[tmpl]; ok {
			g.Count++
			continue
		}
		byTemplate[tmpl] = &Group{Template: tmpl, Count: 1, Sample: line}
		order = append(order, tmpl)
	}

	var groups []Group
	for _, tmpl := range order {
		if g := byTemplate[tmpl]; g.Count > 1 {
			groups = append(groups, *g)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})

	if max > 0 && len(groups) > max {
		groups = groups[:max]
	}
	return groups
}
