// Package ingest loads the raw log lines a pipeline run operates on, either
// from a journalctl text export or from the Datadog Logs API.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// Journal exports can carry very long wrapped lines; give the scanner room.
const maxLineBytes = 1024 * 1024

// ReadLines splits a journal export into lines.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading journal export: %w", err)
	}
	return lines, nil
}

// ReadFile loads a journal export from disk.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal export: %w", err)
	}
	defer f.Close()

	lines, err := ReadLines(f)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("lines", len(lines)).Msg("Loaded journal export")
	return lines, nil
}
