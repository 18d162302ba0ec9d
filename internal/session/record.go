// Package session models Claude Code JSONL session files as ordered lists
// of raw records.
package session

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Record type constants for the "type" discriminant field.
const (
	TypeUser                = "user"
	TypeAssistant           = "assistant"
	TypeSummary             = "summary"
	TypeFileHistorySnapshot = "file-history-snapshot"
)

// ErrNotObject is returned when a line parses as JSON but is not an object.
var ErrNotObject = errors.New("line is not a JSON object")

// Record is a single line from a session JSONL file. The raw bytes are the
// source of truth; mutations patch the raw JSON in place so key order and
// untouched text (including non-ASCII characters) survive a rewrite byte
// for byte.
type Record struct {
	raw string
}

// NewRecord validates line as a JSON object and wraps it as a Record.
func NewRecord(line string) (Record, error) {
	if !gjson.Valid(line) {
		return Record{}, errors.New("invalid JSON")
	}
	if !gjson.Parse(line).IsObject() {
		return Record{}, ErrNotObject
	}
	return Record{raw: line}, nil
}

// Raw returns the record's serialized form, exactly as it will be written.
func (r Record) Raw() string { return r.raw }

// Type returns the record's "type" field, or "" when absent or non-string.
func (r Record) Type() string { return gjson.Get(r.raw, "type").Str }

// Str returns the string value at a gjson path, or "" when absent or
// non-string.
func (r Record) Str(path string) string { return gjson.Get(r.raw, path).Str }

// Has reports whether a field is present at a gjson path, whatever its
// value.
func (r Record) Has(path string) bool { return gjson.Get(r.raw, path).Exists() }

// Set adds or overwrites a top-level field. New fields are appended after
// the existing ones; existing fields are replaced in place.
func (r *Record) Set(key string, value any) error {
	patched, err := sjson.Set(r.raw, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	r.raw = patched
	return nil
}

// SetRaw adds or overwrites a top-level field with pre-encoded JSON.
func (r *Record) SetRaw(key, rawJSON string) error {
	patched, err := sjson.SetRaw(r.raw, key, rawJSON)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	r.raw = patched
	return nil
}
