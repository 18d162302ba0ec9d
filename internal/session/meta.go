package session

import "time"

// Meta aggregates session-level details from a parsed record list.
type Meta struct {
	SessionID      string
	Version        string
	UserCount      int
	AssistantCount int
	SnapshotCount  int
	OtherCount     int
	FirstTimestamp time.Time
	LastTimestamp  time.Time
}

// Describe walks records once and collects Meta. SessionID and Version
// come from the first record that carries them.
func Describe(records []Record) Meta {
	var meta Meta

	for _, rec := range records {
		switch rec.Type() {
		case TypeUser:
			meta.UserCount++
		case TypeAssistant:
			meta.AssistantCount++
		case TypeFileHistorySnapshot:
			meta.SnapshotCount++
		default:
			meta.OtherCount++
		}

		if meta.SessionID == "" {
			meta.SessionID = rec.Str("sessionId")
		}
		if meta.Version == "" {
			meta.Version = rec.Str("version")
		}

		if ts, ok := parseTimestamp(rec.Str("timestamp")); ok {
			if meta.FirstTimestamp.IsZero() || ts.Before(meta.FirstTimestamp) {
				meta.FirstTimestamp = ts
			}
			if ts.After(meta.LastTimestamp) {
				meta.LastTimestamp = ts
			}
		}
	}

	return meta
}

func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, true
	}
	ts, err := time.Parse(time.RFC3339, value)
	return ts, err == nil
}
