package adapters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"firmware-sources/internal/ports"
)

// FeedStateAdapter reads how a prepared firmware tree set up its feeds.
type FeedStateAdapter struct{}

func NewFeedStateAdapter() FeedStateAdapter {
	return FeedStateAdapter{}
}

// FeedEntry returns the line declaring feed in feeds.conf, or in
// feeds.conf.default when the tree has no feeds.conf. A tree with neither
// has no entry; that is not an error.
func (a FeedStateAdapter) FeedEntry(targetDir string, feed string) (string, bool, error) {
	for _, name := range []string{"feeds.conf", "feeds.conf.default"} {
		content, err := os.ReadFile(filepath.Join(targetDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", false, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read " + name).
				WithCause(err)
		}
		line, ok := findFeedLine(string(content), feed)
		return line, ok, nil
	}
	return "", false, nil
}

func findFeedLine(content string, feed string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 3 || !strings.HasPrefix(fields[0], "src-") {
			continue
		}
		if fields[1] == feed {
			return strings.Join(fields, " "), true
		}
	}
	return "", false
}

func (a FeedStateAdapter) CheckoutDir(targetDir string, feed string) (string, bool) {
	dir := filepath.Join(targetDir, "feeds", feed)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

var _ ports.FeedStatePort = FeedStateAdapter{}
