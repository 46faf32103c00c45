// Package chunker splits a filtered log into ordered, contiguous chunks
// bounded by a configurable size so each fits in one completion request.
package chunker

import (
	"fmt"
	"strings"

	"tracehound/internal/filter"
)

// Unit selects how chunk size is measured.
type Unit string

const (
	UnitChars Unit = "chars"
	UnitLines Unit = "lines"
)

var validUnits = []Unit{UnitChars, UnitLines}

// ParseUnit resolves a user-supplied unit name, case-insensitively.
func ParseUnit(input string) (Unit, error) {
	for _, u := range validUnits {
		if strings.EqualFold(input, string(u)) {
			return u, nil
		}
	}
	return "", fmt.Errorf("invalid chunk unit %q (valid: chars, lines)", input)
}

// Limit bounds a chunk's serialized size.
type Limit struct {
	Max  int
	Unit Unit
}

// Chunk is a contiguous, non-overlapping slice of the filtered log.
type Chunk struct {
	Index int
	Lines []filter.Line
}

// Text serializes the chunk as newline-joined lines.
func (c Chunk) Text() string {
	return strings.Join(filter.Texts(c.Lines), "\n")
}

// Split greedily accumulates lines into chunks, closing a chunk when adding
// the next line would exceed the limit. A single line larger than the limit
// forms its own oversized chunk; lines are never split or truncated.
// Concatenating all chunks in order reconstructs the input exactly.
func Split(lines []filter.Line, limit Limit) ([]Chunk, error) {
	if limit.Max < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1, got %d", limit.Max)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	var current []filter.Line
	size := 0

	for _, line := range lines {
		cost := lineCost(limit.Unit, line.Text, len(current) == 0)
		if len(current) > 0 && size+cost > limit.Max {
			chunks = append(chunks, Chunk{Index: len(chunks), Lines: current})
			current = nil
			size = 0
			cost = lineCost(limit.Unit, line.Text, true)
		}
		current = append(current, line)
		size += cost
	}
	chunks = append(chunks, Chunk{Index: len(chunks), Lines: current})

	return chunks, nil
}

// lineCost is the size a line adds to a chunk. In character mode every line
// after the first also pays for its joining newline.
func lineCost(unit Unit, text string, first bool) int {
	if unit == UnitLines {
		return 1
	}
	cost := len(text)
	if !first {
		cost++
	}
	return cost
}
