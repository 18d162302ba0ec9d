package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// snapshotRecord mirrors the field order Claude Code emits for
// file-history-snapshot records.
type snapshotRecord struct {
	Type             string       `json:"type"`
	MessageID        string       `json:"messageId"`
	Snapshot         snapshotBody `json:"snapshot"`
	IsSnapshotUpdate bool         `json:"isSnapshotUpdate"`
}

type snapshotBody struct {
	MessageID          string         `json:"messageId"`
	TrackedFileBackups map[string]any `json:"trackedFileBackups"`
	Timestamp          string         `json:"timestamp"`
}

// NewSnapshotRecord synthesizes a file-history-snapshot record carrying an
// empty tracked-file set. messageID is used both at the top level and
// inside the nested snapshot object.
func NewSnapshotRecord(messageID, timestamp string) (Record, error) {
	rec := snapshotRecord{
		Type:      TypeFileHistorySnapshot,
		MessageID: messageID,
		Snapshot: snapshotBody{
			MessageID:          messageID,
			TrackedFileBackups: map[string]any{},
			Timestamp:          timestamp,
		},
		IsSnapshotUpdate: false,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return Record{}, fmt.Errorf("encode snapshot record: %w", err)
	}

	return Record{raw: strings.TrimSuffix(buf.String(), "\n")}, nil
}
