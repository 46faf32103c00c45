// Package filter narrows a journal export down to the lines that mention a
// target service, plus a window of surrounding context lines per match.
package filter

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// Line is a retained journal line paired with its index in the raw export.
type Line struct {
	Index int
	Text  string
}

// Options controls service matching and context retention.
type Options struct {
	// Services are the target service names, matched by substring containment.
	Services []string
	// Context is the number of lines kept before and after each match.
	Context int
	// MaxLines caps the filtered output. 0 disables the cap.
	MaxLines int
	// CaseSensitive switches matching from the default case-insensitive mode.
	CaseSensitive bool
}

// Result is the filtered view of a raw export.
type Result struct {
	Lines         []Line
	Hits          int
	HitsByService map[string]int
	Truncated     bool
}

// ParseServices splits a comma-separated service list, trimming whitespace
// and dropping empty entries.
func ParseServices(raw string) []string {
	parts := strings.Split(raw, ",")
	services := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			services = append(services, s)
		}
	}
	return services
}

// Apply scans the raw lines and keeps every line that mentions a target
// service, along with Context lines on either side of each match. Windows
// clamp at the document edges and overlapping windows never duplicate a line.
func Apply(lines []string, opts Options) Result {
	if len(opts.Services) == 0 {
		return Result{HitsByService: map[string]int{}}
	}

	needles := make([]string, len(opts.Services))
	for i, svc := range opts.Services {
		if opts.CaseSensitive {
			needles[i] = svc
		} else {
			needles[i] = strings.ToLower(svc)
		}
	}

	hitsByService := make(map[string]int, len(opts.Services))
	keep := make([]bool, len(lines))
	hits := 0

	for i, line := range lines {
		haystack := line
		if !opts.CaseSensitive {
			haystack = strings.ToLower(line)
		}

		matched := false
		for j, needle := range needles {
			if strings.Contains(haystack, needle) {
				hitsByService[opts.Services[j]]++
				matched = true
			}
		}
		if !matched {
			continue
		}
		hits++

		lo := i - opts.Context
		if lo < 0 {
			lo = 0
		}
		hi := i + opts.Context
		if hi > len(lines)-1 {
			hi = len(lines) - 1
		}
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}

	var filtered []Line
	for i, k := range keep {
		if k {
			filtered = append(filtered, Line{Index: i, Text: lines[i]})
		}
	}

	truncated := false
	if opts.MaxLines > 0 && len(filtered) > opts.MaxLines {
		filtered = filtered[:opts.MaxLines]
		truncated = true
		log.Warn().
			Int("cap", opts.MaxLines).
			Msg("Filtered output exceeded the line cap and was truncated")
	}

	return Result{
		Lines:         filtered,
		Hits:          hits,
		HitsByService: hitsByService,
		Truncated:     truncated,
	}
}

// Texts returns just the line texts, in order.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
