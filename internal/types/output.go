package types

type PackagePatch struct {
	Package  string
	Outcome  PatchOutcome
	Manifest string
	Source   SourceSpec
	Reason   string
}

type PatchResult struct {
	Patched  int
	Failed   int
	Skipped  int
	Packages []PackagePatch
}

func (r *PatchResult) Record(entry PackagePatch) {
	switch entry.Outcome {
	case PatchOutcomePatched:
		r.Patched++
	case PatchOutcomeFailed:
		r.Failed++
	case PatchOutcomeSkipped:
		r.Skipped++
	}
	r.Packages = append(r.Packages, entry)
}

type RestoreResult struct {
	Restored  []string
	Discarded []string
}

// Mismatch is one expected-vs-actual pair reported by a validation check.
type Mismatch struct {
	Subject  string
	Expected string
	Actual   string
}

type ValidationCheck struct {
	Name       string
	Status     CheckStatus
	Mismatches []Mismatch
	Notes      []string
}

func (c *ValidationCheck) Mismatch(subject string, expected string, actual string) {
	c.Status = CheckStatusFail
	c.Mismatches = append(c.Mismatches, Mismatch{Subject: subject, Expected: expected, Actual: actual})
}

func (c *ValidationCheck) Note(note string) {
	c.Notes = append(c.Notes, note)
}

type ValidationReport struct {
	Mode      Mode
	TargetDir string
	Checks    []ValidationCheck
}

func (r ValidationReport) FailedCount() int {
	failed := 0
	for _, check := range r.Checks {
		if check.Status == CheckStatusFail {
			failed++
		}
	}
	return failed
}

func (r ValidationReport) Passed() bool {
	return r.FailedCount() == 0
}
