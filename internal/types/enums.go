package types

type Mode string

const (
	ModeDefault Mode = "default"
	ModeLocal   Mode = "local"
)

type SourceKind string

const (
	SourceKindLocal       SourceKind = "local"
	SourceKindGit         SourceKind = "git"
	SourceKindTarball     SourceKind = "tarball"
	SourceKindFeedDefault SourceKind = "feed_default"
)

type PatchType string

const (
	PatchTypeSourceReplacement PatchType = "source_replacement"
	PatchTypeVersionOverride   PatchType = "version_override"
)

type PatchOutcome string

const (
	PatchOutcomePatched PatchOutcome = "patched"
	PatchOutcomeSkipped PatchOutcome = "skipped"
	PatchOutcomeFailed  PatchOutcome = "failed"
)

type CheckStatus string

const (
	CheckStatusPass CheckStatus = "PASS"
	CheckStatusFail CheckStatus = "FAIL"
)

// ParseMode accepts the two resolution policies; an empty value means default.
func ParseMode(value string) (Mode, bool) {
	switch Mode(value) {
	case "", ModeDefault:
		return ModeDefault, true
	case ModeLocal:
		return ModeLocal, true
	default:
		return "", false
	}
}
