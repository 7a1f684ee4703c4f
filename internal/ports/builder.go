package ports

import "context"

// LocalBuildPort runs the build procedure of a package checked out locally.
type LocalBuildPort interface {
	IsStale(sourceDir string, outputDir string) (bool, error)
	Build(ctx context.Context, dir string, command string) error
}
