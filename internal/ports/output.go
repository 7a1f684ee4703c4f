package ports

import "firmware-sources/internal/types"

// EnvironmentWriterPort renders a generated environment for a calling
// process to load.
type EnvironmentWriterPort interface {
	Render(env types.ResolvedEnvironment, format string) ([]byte, error)
	Write(path string, env types.ResolvedEnvironment, format string) error
}

// FeedStatePort reports how the feed of a previously prepared tree was set up.
type FeedStatePort interface {
	// FeedEntry returns the feeds.conf line for the named feed, if any.
	FeedEntry(targetDir string, feed string) (string, bool, error)
	// CheckoutDir returns the feed checkout directory, if it exists.
	CheckoutDir(targetDir string, feed string) (string, bool)
}
