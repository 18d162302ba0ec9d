// Package fix applies the metadata corrections that make a synthetic
// Claude Code session log pass downstream validation: a leading
// file-history-snapshot record, a pinned version field, and defaults for
// gitBranch, requestId, and thinkingMetadata.
package fix

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"sessionfix/internal/session"
)

const (
	// FixedVersion is the Claude Code version every version field is
	// pinned to.
	FixedVersion = "2.0.28"

	// DefaultBranch fills gitBranch on user and assistant records.
	DefaultBranch = "main"

	// DefaultSnapshotTimestamp is used when the first record carries no
	// timestamp to borrow.
	DefaultSnapshotTimestamp = "2025-10-29T10:00:00.000Z"

	requestIDPrefix = "req_"

	defaultThinkingMetadata = `{"level":"high","disabled":false,"triggers":[]}`
)

// ErrNoValidRecords is returned when every line of the session file was
// blank or failed to parse.
var ErrNoValidRecords = errors.New("no valid records found in session")

// Options overrides the literals the fix rules write. Zero values mean the
// defaults above.
type Options struct {
	Version string
	Branch  string
}

func (o Options) version() string {
	if o.Version != "" {
		return o.Version
	}
	return FixedVersion
}

func (o Options) branch() string {
	if o.Branch != "" {
		return o.Branch
	}
	return DefaultBranch
}

// Report summarizes what a fix run did.
type Report struct {
	MessagesFound   int
	MessagesWritten int
	SnapshotAdded   bool
	VersionsPinned  int
	BranchesAdded   int
	RequestIDsAdded int
	ThinkingAdded   int
	BackupPath      string
	Warnings        []session.Warning
}

// Apply transforms records into the corrected output list. Records are
// patched in order; a synthesized snapshot record is prepended when none
// exists. The input slice is not reused for the result, but its records
// are mutated.
func Apply(records []session.Record, opts Options) ([]session.Record, Report, error) {
	report := Report{MessagesFound: len(records)}
	if len(records) == 0 {
		return nil, report, ErrNoValidRecords
	}

	hasSnapshot := false
	for _, rec := range records {
		if rec.Type() == session.TypeFileHistorySnapshot {
			hasSnapshot = true
			break
		}
	}

	out := make([]session.Record, 0, len(records)+1)

	if !hasSnapshot {
		messageID := records[0].Str("uuid")
		if messageID == "" {
			messageID = uuid.NewString()
		}
		timestamp := records[0].Str("timestamp")
		if timestamp == "" {
			timestamp = DefaultSnapshotTimestamp
		}

		snap, err := session.NewSnapshotRecord(messageID, timestamp)
		if err != nil {
			return nil, report, err
		}
		out = append(out, snap)
		report.SnapshotAdded = true
	}

	for i := range records {
		rec := &records[i]

		// Existing snapshot records pass through untouched, keeping
		// their original position relative to other records.
		if rec.Type() == session.TypeFileHistorySnapshot {
			out = append(out, *rec)
			continue
		}

		if err := normalize(rec, opts, &report); err != nil {
			return nil, report, fmt.Errorf("record %d: %w", i+1, err)
		}
		out = append(out, *rec)
	}

	report.MessagesWritten = len(out)
	return out, report, nil
}

// normalize applies the field rules to a single non-snapshot record. Each
// rule only fires when the target field is absent, except the version pin
// which overwrites any present value.
func normalize(rec *session.Record, opts Options, report *Report) error {
	recType := rec.Type()

	if rec.Has("version") && rec.Str("version") != opts.version() {
		if err := rec.Set("version", opts.version()); err != nil {
			return err
		}
		report.VersionsPinned++
	}

	if (recType == session.TypeUser || recType == session.TypeAssistant) && !rec.Has("gitBranch") {
		if err := rec.Set("gitBranch", opts.branch()); err != nil {
			return err
		}
		report.BranchesAdded++
	}

	if recType == session.TypeAssistant && !rec.Has("requestId") {
		if err := rec.Set("requestId", newRequestID()); err != nil {
			return err
		}
		report.RequestIDsAdded++
	}

	if recType == session.TypeUser && !rec.Has("thinkingMetadata") {
		if err := rec.SetRaw("thinkingMetadata", defaultThinkingMetadata); err != nil {
			return err
		}
		report.ThinkingAdded++
	}

	return nil
}

// newRequestID generates a collision-resistant request token in the shape
// Claude Code uses: req_ followed by 32 hex characters.
func newRequestID() string {
	id := uuid.New()
	return requestIDPrefix + hex.EncodeToString(id[:])
}
