// Package main provides the sessionfix CLI for repairing Claude Code
// session logs so they pass metadata validation.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sessionfix/internal/fix"
	"sessionfix/internal/report"
	"sessionfix/internal/session"
	"sessionfix/internal/store"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "sessionfix",
	Short:   "Repair Claude Code session logs so they pass metadata validation",
	Version: version,
}

func init() {
	rootCmd.AddCommand(newFixCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newInfoCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sessionfix: %v\n", err)
		os.Exit(1)
	}
}

func newFixCmd() *cobra.Command {
	var (
		dryRun        bool
		claudeVersion string
		branch        string
		forceColor    bool
		forceNoColor  bool
	)

	cmd := &cobra.Command{
		Use:   "fix <session.jsonl>",
		Short: "Patch a session file in place, keeping a backup of the original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}
			cmd.SilenceUsage = true

			path := args[0]
			out := cmd.OutOrStdout()
			errs := cmd.ErrOrStderr()
			useColor := resolveColorChoice(out, forceColor, forceNoColor)
			opts := fix.Options{Version: claudeVersion, Branch: branch}

			if dryRun {
				records, warnings, err := session.ReadSession(path)
				if err != nil {
					return err
				}
				for _, warn := range warnings {
					fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
				}
				if len(records) == 0 {
					return fmt.Errorf("%s: %w", path, fix.ErrNoValidRecords)
				}
				report.WritePlan(out, fix.Analyze(records, opts), useColor)
				return nil
			}

			rep, err := fix.Fix(path, opts)
			for _, warn := range rep.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}
			if err != nil {
				return err
			}

			report.WriteReport(out, path, rep, useColor)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&dryRun, "dry-run", false, "report the corrections without touching the file")
	flags.StringVar(&claudeVersion, "claude-version", fix.FixedVersion, "version literal written into version fields")
	flags.StringVar(&branch, "branch", fix.DefaultBranch, "branch literal written into missing gitBranch fields")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")

	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		forceColor   bool
		forceNoColor bool
	)

	cmd := &cobra.Command{
		Use:   "check <session.jsonl>",
		Short: "Report whether a session file already conforms, without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}
			cmd.SilenceUsage = true

			path := args[0]
			out := cmd.OutOrStdout()
			errs := cmd.ErrOrStderr()
			useColor := resolveColorChoice(out, forceColor, forceNoColor)

			records, warnings, err := session.ReadSession(path)
			if err != nil {
				return err
			}
			for _, warn := range warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}
			if len(records) == 0 {
				return fmt.Errorf("%s: %w", path, fix.ErrNoValidRecords)
			}

			plan := fix.Analyze(records, fix.Options{})
			report.WritePlan(out, plan, useColor)
			if !plan.Clean() {
				cmd.SilenceErrors = true
				return errors.New("session does not conform")
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")

	return cmd
}

func newScanCmd() *cobra.Command {
	var (
		formatFlag string
		noHeader   bool
		limit      int
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Walk a directory and list session files that need fixing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			root := defaultClaudeDir()
			if len(args) == 1 {
				root = args[0]
			}

			result, err := store.ScanSessions(store.ScanOptions{
				Root:         root,
				Limit:        limit,
				IncludeClean: all,
			})
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range result.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}

			out := cmd.OutOrStdout()
			outFile, _ := out.(*os.File)
			width := 0
			if strings.ToLower(formatFlag) == "" || strings.ToLower(formatFlag) == "table" {
				width = determineWidth(outFile)
			}

			includeHeader := !noHeader
			return report.WriteFindings(out, result.Findings, includeHeader, strings.ToLower(formatFlag), width)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for plain output")
	flags.IntVar(&limit, "limit", 0, "limit number of findings returned (0 means no limit)")
	flags.BoolVar(&all, "all", false, "include sessions that already conform")

	return cmd
}

type infoPayload struct {
	SessionID      string `json:"session_id"`
	JSONLPath      string `json:"jsonl_path"`
	Version        string `json:"version"`
	Records        int    `json:"records"`
	UserCount      int    `json:"user_count"`
	AssistantCount int    `json:"assistant_count"`
	SnapshotCount  int    `json:"snapshot_count"`
	OtherCount     int    `json:"other_count"`
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
	Conforms       bool   `json:"conforms"`
}

func newInfoCmd() *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "info <session.jsonl>",
		Short: "Show session metadata and conformance state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			path := args[0]
			records, warnings, err := session.ReadSession(path)
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}
			if len(records) == 0 {
				return fmt.Errorf("%s: %w", path, fix.ErrNoValidRecords)
			}

			meta := session.Describe(records)
			plan := fix.Analyze(records, fix.Options{})

			payload := infoPayload{
				SessionID:      meta.SessionID,
				JSONLPath:      path,
				Version:        meta.Version,
				Records:        len(records),
				UserCount:      meta.UserCount,
				AssistantCount: meta.AssistantCount,
				SnapshotCount:  meta.SnapshotCount,
				OtherCount:     meta.OtherCount,
				FirstTimestamp: formatTimestamp(meta.FirstTimestamp),
				LastTimestamp:  formatTimestamp(meta.LastTimestamp),
				Conforms:       plan.Clean(),
			}

			switch strings.ToLower(formatFlag) {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "", "text":
				renderInfoText(cmd.OutOrStdout(), payload)
				return nil
			default:
				return fmt.Errorf("unsupported format: %s", formatFlag)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "text", "output format: text or json")

	return cmd
}

func renderInfoText(out io.Writer, payload infoPayload) {
	const labelWidth = 16
	writeKV(out, labelWidth, "Session ID", payload.SessionID)
	writeKV(out, labelWidth, "JSONL Path", payload.JSONLPath)
	writeKV(out, labelWidth, "Version", payload.Version)
	writeKV(out, labelWidth, "Records", strconv.Itoa(payload.Records))
	writeKV(out, labelWidth, "User", strconv.Itoa(payload.UserCount))
	writeKV(out, labelWidth, "Assistant", strconv.Itoa(payload.AssistantCount))
	writeKV(out, labelWidth, "Snapshots", strconv.Itoa(payload.SnapshotCount))
	writeKV(out, labelWidth, "Other", strconv.Itoa(payload.OtherCount))
	writeKV(out, labelWidth, "First Timestamp", payload.FirstTimestamp)
	writeKV(out, labelWidth, "Last Timestamp", payload.LastTimestamp)
	writeKV(out, labelWidth, "Conforms", strconv.FormatBool(payload.Conforms))
}

func writeKV(out io.Writer, width int, label string, value string) {
	fmt.Fprintf(out, "%-*s: %s\n", width, label, value) //nolint:errcheck
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

// defaultClaudeDir returns the directory scanned when no root argument is
// given.
func defaultClaudeDir() string {
	if dir := os.Getenv("SESSIONFIX_CLAUDE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude", "projects")
}

func determineWidth(out *os.File) int {
	if out != nil {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

func resolveColorChoice(out io.Writer, forceColor, forceNoColor bool) bool {
	if forceColor {
		return true
	}
	if forceNoColor {
		return false
	}
	return shouldUseColorAuto(out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
