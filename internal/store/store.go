// Package store enumerates session files on disk and reports which of
// them still need metadata fixes.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"sessionfix/internal/fix"
	"sessionfix/internal/session"
)

// ScanOptions controls how session files are enumerated.
type ScanOptions struct {
	Root         string
	Limit        int
	IncludeClean bool
}

// Finding summarizes the fix state of one session file.
type Finding struct {
	Path          string `json:"path"`
	Records       int    `json:"records"`
	NeedsSnapshot bool   `json:"needs_snapshot"`
	PinVersion    int    `json:"pin_version"`
	AddBranch     int    `json:"add_git_branch"`
	AddRequest    int    `json:"add_request_id"`
	AddThinking   int    `json:"add_thinking_metadata"`
	Clean         bool   `json:"clean"`
}

// ScanResult contains findings and non-fatal warnings.
type ScanResult struct {
	Findings []Finding
	Warnings []error
}

// ScanSessions walks Root for *.jsonl files and analyzes each one. Files
// that cannot be read or hold no valid records become warnings rather than
// aborting the walk.
func ScanSessions(opts ScanOptions) (ScanResult, error) {
	root := opts.Root
	if root == "" {
		return ScanResult{}, errors.New("root directory is required")
	}

	var result ScanResult

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("walk %s: %w", path, walkErr))
			return nil
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}

		records, warnings, err := session.ReadSession(path)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("read %s: %w", path, err))
			return nil
		}
		for _, warn := range warnings {
			result.Warnings = append(result.Warnings, fmt.Errorf("%s: %w", path, warn))
		}
		if len(records) == 0 {
			result.Warnings = append(result.Warnings, fmt.Errorf("%s: %w", path, fix.ErrNoValidRecords))
			return nil
		}

		plan := fix.Analyze(records, fix.Options{})
		clean := plan.Clean()
		if clean && !opts.IncludeClean {
			return nil
		}

		result.Findings = append(result.Findings, Finding{
			Path:          path,
			Records:       len(records),
			NeedsSnapshot: plan.NeedsSnapshot,
			PinVersion:    plan.PinVersion,
			AddBranch:     plan.AddBranch,
			AddRequest:    plan.AddRequest,
			AddThinking:   plan.AddThinking,
			Clean:         clean,
		})

		return nil
	})
	if err != nil {
		return result, err
	}

	sort.Slice(result.Findings, func(i, j int) bool {
		return result.Findings[i].Path < result.Findings[j].Path
	})

	if opts.Limit > 0 && len(result.Findings) > opts.Limit {
		result.Findings = result.Findings[:opts.Limit]
	}

	return result, nil
}
