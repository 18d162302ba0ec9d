// Package report renders scan findings and fix results for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"sessionfix/internal/fix"
	"sessionfix/internal/store"
)

// WriteFindings writes scan findings to w in the requested format. For the
// table format, maxWidth limits the rendered row length when positive.
func WriteFindings(w io.Writer, findings []store.Finding, includeHeader bool, format string, maxWidth int) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeFindingsTable(w, findings, includeHeader, maxWidth)
	case "plain":
		return writeFindingsPlain(w, findings, includeHeader)
	case "json":
		return writeFindingsJSON(w, findings)
	case "jsonl":
		return writeFindingsJSONL(w, findings)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeFindingsPlain(w io.Writer, findings []store.Finding, includeHeader bool) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "path\trecords\tsnapshot\tversion\tbranch\trequest_id\tthinking\tstatus"); err != nil {
			return err
		}
	}

	for _, f := range findings {
		line := fmt.Sprintf(
			"%s\t%d\t%s\t%d\t%d\t%d\t%d\t%s",
			f.Path,
			f.Records,
			yesNo(f.NeedsSnapshot),
			f.PinVersion,
			f.AddBranch,
			f.AddRequest,
			f.AddThinking,
			status(f),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeFindingsJSON(w io.Writer, findings []store.Finding) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}

func writeFindingsJSONL(w io.Writer, findings []store.Finding) error {
	enc := json.NewEncoder(w)
	for _, f := range findings {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

func writeFindingsTable(w io.Writer, findings []store.Finding, includeHeader bool, maxWidth int) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 7, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 8, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
	})

	if maxWidth > 0 {
		tw.SetAllowedRowLength(maxWidth)
	}

	if includeHeader {
		tw.AppendHeader(table.Row{"Path", "Records", "Snapshot", "Version", "Branch", "Request ID", "Thinking", "Status"})
	}

	for _, f := range findings {
		tw.AppendRow(table.Row{
			f.Path,
			f.Records,
			yesNo(f.NeedsSnapshot),
			f.PinVersion,
			f.AddBranch,
			f.AddRequest,
			f.AddThinking,
			status(f),
		})
	}

	if len(findings) == 0 {
		tw.AppendRow(table.Row{"(no sessions)", 0, "-", 0, 0, 0, 0, "-"})
	}

	_ = tw.Render()
	return nil
}

func yesNo(needed bool) string {
	if needed {
		return "missing"
	}
	return "ok"
}

func status(f store.Finding) string {
	if f.Clean {
		return "clean"
	}
	return "needs fix"
}

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func marker(useColor bool, code, text string) string {
	if !useColor {
		return text
	}
	return code + text + ansiReset
}

// WriteReport prints the progress summary of a completed fix run.
func WriteReport(w io.Writer, path string, rep fix.Report, useColor bool) {
	plus := marker(useColor, ansiGreen, "[+]")

	fmt.Fprintf(w, "Found %d messages in session\n", rep.MessagesFound)
	if rep.SnapshotAdded {
		fmt.Fprintf(w, "%s Added file-history-snapshot\n", plus)
	}
	if rep.VersionsPinned > 0 {
		fmt.Fprintf(w, "%s Pinned version on %d message(s)\n", plus, rep.VersionsPinned)
	}
	if rep.BranchesAdded > 0 {
		fmt.Fprintf(w, "%s Added gitBranch to %d message(s)\n", plus, rep.BranchesAdded)
	}
	if rep.RequestIDsAdded > 0 {
		fmt.Fprintf(w, "%s Added requestId to %d message(s)\n", plus, rep.RequestIDsAdded)
	}
	if rep.ThinkingAdded > 0 {
		fmt.Fprintf(w, "%s Added thinkingMetadata to %d message(s)\n", plus, rep.ThinkingAdded)
	}
	fmt.Fprintf(w, "%s Created backup: %s\n", plus, rep.BackupPath)
	fmt.Fprintf(w, "%s Fixed session written: %s\n", plus, path)
	fmt.Fprintf(w, "%s Total messages: %d\n", plus, rep.MessagesWritten)
}

// WritePlan prints the corrections a fix run would make, one line per
// affected record.
func WritePlan(w io.Writer, plan fix.Plan, useColor bool) {
	if plan.Clean() {
		fmt.Fprintln(w, "Session already conforms, nothing to fix")
		return
	}

	bang := marker(useColor, ansiYellow, "[!]")

	if plan.NeedsSnapshot {
		fmt.Fprintf(w, "%s Missing file-history-snapshot record\n", bang)
	}
	for _, rp := range plan.Records {
		changes := make([]string, 0, len(rp.Changes))
		for _, c := range rp.Changes {
			changes = append(changes, string(c))
		}
		fmt.Fprintf(w, "%s Record #%d (%s): %s\n", bang, rp.Index, rp.Type, strings.Join(changes, ", "))
	}
	fmt.Fprintf(w, "%d field correction(s) pending\n", plan.Total())
}
