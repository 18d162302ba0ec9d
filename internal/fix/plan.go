package fix

import "sessionfix/internal/session"

// Change names one pending correction on a record.
type Change string

const (
	ChangePinVersion  Change = "pin version"
	ChangeAddBranch   Change = "add gitBranch"
	ChangeAddRequest  Change = "add requestId"
	ChangeAddThinking Change = "add thinkingMetadata"
)

// RecordPlan lists the corrections a single record needs. Index is the
// position in the parsed record list, starting at 1.
type RecordPlan struct {
	Index   int
	Type    string
	Changes []Change
}

// Plan describes every correction a fix run would make, without making
// any of them.
type Plan struct {
	NeedsSnapshot bool
	Records       []RecordPlan

	PinVersion  int
	AddBranch   int
	AddRequest  int
	AddThinking int
}

// Clean reports whether the session already conforms.
func (p Plan) Clean() bool {
	return !p.NeedsSnapshot && len(p.Records) == 0
}

// Total returns the number of pending field corrections, excluding the
// snapshot synthesis.
func (p Plan) Total() int {
	return p.PinVersion + p.AddBranch + p.AddRequest + p.AddThinking
}

// Analyze inspects records and reports which corrections Apply would make.
// It never mutates its input.
func Analyze(records []session.Record, opts Options) Plan {
	var plan Plan
	if len(records) == 0 {
		return plan
	}

	plan.NeedsSnapshot = true
	for _, rec := range records {
		if rec.Type() == session.TypeFileHistorySnapshot {
			plan.NeedsSnapshot = false
			break
		}
	}

	for i, rec := range records {
		recType := rec.Type()
		if recType == session.TypeFileHistorySnapshot {
			continue
		}

		var changes []Change

		if rec.Has("version") && rec.Str("version") != opts.version() {
			changes = append(changes, ChangePinVersion)
			plan.PinVersion++
		}
		if (recType == session.TypeUser || recType == session.TypeAssistant) && !rec.Has("gitBranch") {
			changes = append(changes, ChangeAddBranch)
			plan.AddBranch++
		}
		if recType == session.TypeAssistant && !rec.Has("requestId") {
			changes = append(changes, ChangeAddRequest)
			plan.AddRequest++
		}
		if recType == session.TypeUser && !rec.Has("thinkingMetadata") {
			changes = append(changes, ChangeAddThinking)
			plan.AddThinking++
		}

		if len(changes) > 0 {
			plan.Records = append(plan.Records, RecordPlan{
				Index:   i + 1,
				Type:    recType,
				Changes: changes,
			})
		}
	}

	return plan
}
