package core

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Markers around the build step the patcher manages inside a manifest.
const (
	BuildBlockBegin = "# BEGIN firmware-sources local-build"
	BuildBlockEnd   = "# END firmware-sources local-build"
)

var anchorPattern = regexp.MustCompile(`^\s*(PKG_)?NAME\s*:?=`)

type declaration struct {
	Name  string
	Value string
}

// manifestEdit describes one rewrite: drop every declaration of Remove and
// any managed block, then insert Declarations and Block after the anchor.
type manifestEdit struct {
	Remove       []string
	Declarations []declaration
	Block        []string
}

// manifestCandidates lists where a package manifest may live under a
// target tree, in probe order.
func manifestCandidates(targetDir string, feed string, pkg string) []string {
	return []string{
		filepath.Join(targetDir, "package", pkg, "Makefile"),
		filepath.Join(targetDir, "package", "feeds", feed, pkg, "Makefile"),
		filepath.Join(targetDir, "feeds", feed, pkg, "Makefile"),
		filepath.Join(targetDir, pkg, "Makefile"),
	}
}

func declarationPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^\s*(override\s+)?` + regexp.QuoteMeta(name) + `\s*(:=|\?=|\+=|=)`)
}

// rewriteManifest applies edit to content. It fails when the manifest has
// no package-name anchor line.
func rewriteManifest(content []byte, edit manifestEdit) ([]byte, error) {
	text := string(content)
	trailingNewline := strings.HasSuffix(text, "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	patterns := make([]*regexp.Regexp, 0, len(edit.Remove))
	for _, name := range edit.Remove {
		patterns = append(patterns, declarationPattern(name))
	}

	kept := make([]string, 0, len(lines))
	inBlock := false
	continuation := false
	// removed is set while dropped lines separate the last kept line from
	// the next one, so a paragraph emptied by the edit leaves one blank line.
	removed := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case continuation:
			continuation = strings.HasSuffix(line, "\\")
			continue
		case trimmed == BuildBlockBegin:
			inBlock = true
			removed = true
			continue
		case inBlock:
			if trimmed == BuildBlockEnd {
				inBlock = false
			}
			continue
		}
		if matchesAny(patterns, line) {
			continuation = strings.HasSuffix(line, "\\")
			removed = true
			continue
		}
		if removed && trimmed == "" && len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
			removed = false
			continue
		}
		removed = false
		kept = append(kept, line)
	}

	anchor := -1
	for i, line := range kept {
		if anchorPattern.MatchString(line) {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return nil, fmt.Errorf("no package name line (PKG_NAME:= or NAME:=) found")
	}

	insert := make([]string, 0, len(edit.Declarations)+len(edit.Block))
	for _, decl := range edit.Declarations {
		insert = append(insert, decl.Name+":="+decl.Value)
	}
	insert = append(insert, edit.Block...)

	out := make([]string, 0, len(kept)+len(insert))
	out = append(out, kept[:anchor+1]...)
	out = append(out, insert...)
	out = append(out, kept[anchor+1:]...)

	result := strings.Join(out, "\n")
	if trailingNewline {
		result += "\n"
	}
	return []byte(result), nil
}

// declaredValue returns the value of the first declaration of name.
func declaredValue(content []byte, name string) (string, bool) {
	pattern := declarationPattern(name)
	for _, line := range strings.Split(string(content), "\n") {
		if loc := pattern.FindStringIndex(line); loc != nil {
			return strings.TrimSpace(line[loc[1]:]), true
		}
	}
	return "", false
}

// localBuildBlock copies an already built output directory into the
// package build directory instead of fetching a source.
func localBuildBlock(outputDir string) []string {
	return []string{
		BuildBlockBegin,
		"define Build/Prepare",
		"\tmkdir -p $(PKG_BUILD_DIR)",
		"\t$(CP) " + outputDir + "/. $(PKG_BUILD_DIR)/",
		"endef",
		BuildBlockEnd,
	}
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}
