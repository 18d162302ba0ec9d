package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Write serializes records one per line, each followed by a newline. The
// raw bytes of each record are emitted verbatim, so UTF-8 text is written
// literally rather than escaped.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if _, err := bw.WriteString(rec.Raw()); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}

// WriteFile writes records to path, replacing any existing file.
func WriteFile(path string, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}

	if err := Write(file, records); err != nil {
		file.Close() //nolint:errcheck
		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	return nil
}
