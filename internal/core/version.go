package core

import (
	"strings"

	debversion "github.com/knqyf263/go-deb-version"
)

// DevVersionPrefix tags versions derived from a developer checkout.
const DevVersionPrefix = "dev-"

// devVersion builds the version declared for a local checkout from its
// short revision. Checkouts without a readable revision get "dev-local".
func devVersion(shortRev string) string {
	rev := strings.TrimSpace(shortRev)
	if rev == "" {
		rev = "local"
	}
	return DevVersionPrefix + rev
}

// compareVersions orders two manifest versions with Debian semantics. A
// leading "v" is ignored. ok is false when either side does not parse,
// which is normal for development tags and git refs.
func compareVersions(a string, b string) (int, bool) {
	v1, err := debversion.NewVersion(strings.TrimPrefix(strings.TrimSpace(a), "v"))
	if err != nil {
		return 0, false
	}
	v2, err := debversion.NewVersion(strings.TrimPrefix(strings.TrimSpace(b), "v"))
	if err != nil {
		return 0, false
	}
	return v1.Compare(v2), true
}
