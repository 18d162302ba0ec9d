package fix

import (
	"errors"
	"strings"
	"testing"

	"sessionfix/internal/session"
)

func mustRecord(t *testing.T, line string) session.Record {
	t.Helper()
	rec, err := session.NewRecord(line)
	if err != nil {
		t.Fatalf("NewRecord(%q) returned error: %v", line, err)
	}
	return rec
}

func mustApply(t *testing.T, records []session.Record) ([]session.Record, Report) {
	t.Helper()
	out, report, err := Apply(records, Options{})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	return out, report
}

func TestApply_SynthesizesSnapshot(t *testing.T) {
	records := []session.Record{
		mustRecord(t, `{"type":"user","uuid":"abc","timestamp":"2025-01-01T00:00:00.000Z"}`),
		mustRecord(t, `{"type":"assistant","version":"1.0.0"}`),
	}

	out, report := mustApply(t, records)

	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	if !report.SnapshotAdded {
		t.Fatal("expected snapshot to be synthesized")
	}

	snap := out[0]
	if snap.Type() != session.TypeFileHistorySnapshot {
		t.Fatalf("first record should be a snapshot, got %s", snap.Type())
	}
	if snap.Str("messageId") != "abc" {
		t.Fatalf("unexpected messageId: %s", snap.Str("messageId"))
	}
	if snap.Str("snapshot.messageId") != "abc" {
		t.Fatalf("unexpected snapshot.messageId: %s", snap.Str("snapshot.messageId"))
	}
	if snap.Str("snapshot.timestamp") != "2025-01-01T00:00:00.000Z" {
		t.Fatalf("unexpected snapshot timestamp: %s", snap.Str("snapshot.timestamp"))
	}

	user := out[1]
	if user.Str("gitBranch") != "main" {
		t.Fatalf("unexpected gitBranch: %s", user.Str("gitBranch"))
	}
	if user.Str("thinkingMetadata.level") != "high" {
		t.Fatalf("unexpected thinkingMetadata: %s", user.Raw())
	}
	if user.Has("requestId") {
		t.Fatal("user records must not get a requestId")
	}

	assistant := out[2]
	if assistant.Str("version") != FixedVersion {
		t.Fatalf("unexpected version: %s", assistant.Str("version"))
	}
	if assistant.Str("gitBranch") != "main" {
		t.Fatalf("unexpected gitBranch: %s", assistant.Str("gitBranch"))
	}
	requestID := assistant.Str("requestId")
	if !strings.HasPrefix(requestID, "req_") || len(requestID) != len("req_")+32 {
		t.Fatalf("unexpected requestId: %q", requestID)
	}
	if assistant.Has("thinkingMetadata") {
		t.Fatal("assistant records must not get thinkingMetadata")
	}

	if report.MessagesFound != 2 || report.MessagesWritten != 3 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	if report.VersionsPinned != 1 || report.BranchesAdded != 2 || report.RequestIDsAdded != 1 || report.ThinkingAdded != 1 {
		t.Fatalf("unexpected rule counts: %+v", report)
	}
}

func TestApply_ExistingSnapshotPassesThrough(t *testing.T) {
	original := `{"type":"file-history-snapshot","messageId":"keep","snapshot":{"messageId":"keep","trackedFileBackups":{},"timestamp":"2025-01-01T00:00:00.000Z"},"isSnapshotUpdate":true}`
	records := []session.Record{
		mustRecord(t, `{"type":"user","uuid":"u1","gitBranch":"dev","thinkingMetadata":{"level":"low"}}`),
		mustRecord(t, original),
	}

	out, report := mustApply(t, records)

	if report.SnapshotAdded {
		t.Fatal("no snapshot should be synthesized when one exists")
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	// An existing snapshot keeps its original position, even when it is
	// not the first record.
	if out[1].Raw() != original {
		t.Fatalf("snapshot record was modified or moved:\n%s", out[1].Raw())
	}
}

func TestApply_VersionAlwaysPinned(t *testing.T) {
	records := []session.Record{
		mustRecord(t, `{"type":"summary","version":"0.1.0"}`),
		mustRecord(t, `{"type":"user","uuid":"u1","gitBranch":"main","thinkingMetadata":{"level":"high"}}`),
	}

	out, _ := mustApply(t, records)

	// The snapshot prepends, so the summary is at index 1.
	if out[1].Str("version") != FixedVersion {
		t.Fatalf("version not pinned on non-message record: %s", out[1].Raw())
	}
	if out[2].Has("version") {
		t.Fatal("absent version field must not be added")
	}
}

func TestApply_PreservesExistingRequestID(t *testing.T) {
	records := []session.Record{
		mustRecord(t, `{"type":"assistant","uuid":"a1","requestId":"req_existing","gitBranch":"main"}`),
	}

	out, report := mustApply(t, records)

	if out[1].Str("requestId") != "req_existing" {
		t.Fatalf("existing requestId was replaced: %s", out[1].Str("requestId"))
	}
	if report.RequestIDsAdded != 0 {
		t.Fatalf("unexpected requestId count: %d", report.RequestIDsAdded)
	}
}

func TestApply_SnapshotFallbacks(t *testing.T) {
	records := []session.Record{
		mustRecord(t, `{"type":"user"}`),
	}

	out, _ := mustApply(t, records)

	snap := out[0]
	if snap.Str("messageId") == "" {
		t.Fatal("expected a generated messageId")
	}
	if snap.Str("messageId") != snap.Str("snapshot.messageId") {
		t.Fatal("top-level and nested messageId must match")
	}
	if snap.Str("snapshot.timestamp") != DefaultSnapshotTimestamp {
		t.Fatalf("unexpected fallback timestamp: %s", snap.Str("snapshot.timestamp"))
	}
}

func TestApply_EmptyInput(t *testing.T) {
	_, _, err := Apply(nil, Options{})
	if !errors.Is(err, ErrNoValidRecords) {
		t.Fatalf("expected ErrNoValidRecords, got %v", err)
	}
}

func TestApply_PreservesKeyOrder(t *testing.T) {
	records := []session.Record{
		mustRecord(t, `{"version":"1.0.0","type":"user","uuid":"u1"}`),
	}

	out, _ := mustApply(t, records)
	raw := out[1].Raw()

	versionIdx := strings.Index(raw, `"version"`)
	typeIdx := strings.Index(raw, `"type"`)
	branchIdx := strings.Index(raw, `"gitBranch"`)
	if versionIdx > typeIdx {
		t.Fatalf("version key moved from its original position: %s", raw)
	}
	if branchIdx < typeIdx {
		t.Fatalf("added fields must follow original fields: %s", raw)
	}
}

func TestApply_CustomLiterals(t *testing.T) {
	records := []session.Record{
		mustRecord(t, `{"type":"assistant","version":"1.0.0"}`),
	}

	out, _, err := Apply(records, Options{Version: "3.1.4", Branch: "develop"})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	if out[1].Str("version") != "3.1.4" {
		t.Fatalf("unexpected version: %s", out[1].Str("version"))
	}
	if out[1].Str("gitBranch") != "develop" {
		t.Fatalf("unexpected gitBranch: %s", out[1].Str("gitBranch"))
	}
}

func TestNewRequestID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		id := newRequestID()
		if !strings.HasPrefix(id, "req_") || len(id) != len("req_")+32 {
			t.Fatalf("malformed request id: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate request id: %q", id)
		}
		seen[id] = true
	}
}
