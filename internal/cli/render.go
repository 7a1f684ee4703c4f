package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"firmware-sources/internal/app"
	"firmware-sources/internal/types"
)

var (
	passLabel = color.New(color.FgGreen, color.Bold).SprintFunc()
	failLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	skipLabel = color.New(color.FgYellow).SprintFunc()
)

func statusLabel(status types.CheckStatus) string {
	if status == types.CheckStatusFail {
		return failLabel(string(status))
	}
	return passLabel(string(status))
}

func renderReport(out io.Writer, report types.ValidationReport) {
	fmt.Fprintf(out, "validation mode=%s target=%s\n", report.Mode, report.TargetDir)
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s\n", statusLabel(check.Status), check.Name)
		for _, mismatch := range check.Mismatches {
			fmt.Fprintf(out, "    %s: expected %q, got %q\n", mismatch.Subject, mismatch.Expected, mismatch.Actual)
		}
		for _, note := range check.Notes {
			fmt.Fprintf(out, "    note: %s\n", note)
		}
	}
	failed := report.FailedCount()
	if failed == 0 {
		fmt.Fprintf(out, "%s: %d checks passed\n", passLabel("PASS"), len(report.Checks))
		return
	}
	fmt.Fprintf(out, "%s: %d of %d checks failed\n", failLabel("FAIL"), failed, len(report.Checks))
}

func renderPatchResult(out io.Writer, result types.PatchResult) {
	for _, entry := range result.Packages {
		label := string(entry.Outcome)
		switch entry.Outcome {
		case types.PatchOutcomePatched:
			label = passLabel(label)
		case types.PatchOutcomeFailed:
			label = failLabel(label)
		case types.PatchOutcomeSkipped:
			label = skipLabel(label)
		}
		line := fmt.Sprintf("%-8s %s", label, entry.Package)
		if entry.Manifest != "" {
			line += " " + entry.Manifest
		}
		if entry.Reason != "" {
			line += " (" + entry.Reason + ")"
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "patched: %d, skipped: %d, failed: %d\n", result.Patched, result.Skipped, result.Failed)
}

func renderRestoreResult(out io.Writer, result types.RestoreResult) {
	for _, path := range result.Restored {
		fmt.Fprintf(out, "restored %s\n", path)
	}
	for _, path := range result.Discarded {
		fmt.Fprintf(out, "discarded %s\n", path)
	}
	fmt.Fprintf(out, "restored: %d\n", len(result.Restored))
}

// renderIntegrity prints duplicate keys grouped by section and returns
// how many were found.
func renderIntegrity(out io.Writer, result app.IntegrityResult) int {
	if result.Clean() {
		fmt.Fprintf(out, "%s: no duplicate keys\n", passLabel("PASS"))
		return 0
	}
	sections := make([]string, 0, len(result.Duplicates))
	for section := range result.Duplicates {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	total := 0
	for _, section := range sections {
		for _, key := range result.Duplicates[section] {
			fmt.Fprintf(out, "[%s] [%s] %s\n", failLabel("FAIL"), section, key)
			total++
		}
	}
	return total
}
