package fix

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sessionfix/internal/session"
)

// BackupPath derives the sibling backup location for a session file by
// replacing the final extension with .jsonl.backup.
func BackupPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl.backup"
}

// Fix corrects the session file at path in place. The original content is
// moved to the backup path before the fixed file is written, so a crash
// between the two steps leaves the backup intact and the original path
// missing rather than corrupted.
//
// Any previous backup at the derived path is overwritten.
func Fix(path string, opts Options) (Report, error) {
	if _, err := os.Stat(path); err != nil {
		return Report{}, fmt.Errorf("session file: %w", err)
	}

	records, warnings, err := session.ReadSession(path)
	if err != nil {
		return Report{Warnings: warnings}, err
	}

	fixed, report, err := Apply(records, opts)
	report.Warnings = warnings
	if err != nil {
		return report, err
	}

	backupPath := BackupPath(path)
	if err := os.Rename(path, backupPath); err != nil {
		return report, fmt.Errorf("create backup: %w", err)
	}
	report.BackupPath = backupPath

	if err := session.WriteFile(path, fixed); err != nil {
		return report, fmt.Errorf("write fixed session: %w", err)
	}

	return report, nil
}
