package session

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Warning describes a line that was skipped during reading. Skipped lines
// never appear in the output; they are reported and otherwise ignored.
type Warning struct {
	Line int
	Err  error
}

func (w Warning) Error() string {
	return fmt.Sprintf("line %d: %v", w.Line, w.Err)
}

// ReadSession loads every record from a session JSONL file, preserving
// order. Blank lines are skipped silently; lines that do not parse as a
// JSON object are skipped with a Warning.
func ReadSession(path string) ([]Record, []Warning, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	var (
		records  []Record
		warnings []Warning
		lineNo   int
	)

	scanner := newScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, err := NewRecord(line)
		if err != nil {
			warnings = append(warnings, Warning{Line: lineNo, Err: err})
			continue
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return records, warnings, fmt.Errorf("scan session: %w", err)
	}

	return records, warnings, nil
}

func newScanner(file *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(file)
	// Allow large payloads
	const maxCapacity = 8 * 1024 * 1024
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}
