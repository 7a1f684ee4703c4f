package adapters

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"firmware-sources/internal/ports"
	"firmware-sources/internal/shared"
)

// LocalBuildAdapter runs a package's build command in its checkout and
// decides staleness from file modification times.
type LocalBuildAdapter struct {
	Shell string
}

func NewLocalBuildAdapter() LocalBuildAdapter {
	return LocalBuildAdapter{Shell: "sh"}
}

// IsStale reports true when outputDir is missing or empty, or when any
// source file is newer than the newest output file.
func (a LocalBuildAdapter) IsStale(sourceDir string, outputDir string) (bool, error) {
	newestOutput, found, err := newestFile(outputDir, "")
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	newestSource, _, err := newestFile(sourceDir, outputDir)
	if err != nil {
		return false, err
	}
	return newestSource.After(newestOutput), nil
}

func (a LocalBuildAdapter) Build(ctx context.Context, dir string, command string) error {
	if strings.TrimSpace(command) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("build command is empty")
	}
	shell := a.Shell
	if shell == "" {
		shell = "sh"
	}
	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("build command failed: " + command).
			WithCause(shared.CommandError(output, err))
	}
	return nil
}

// newestFile returns the latest modification time under root, skipping
// the excluded directory and dependency or VCS folders.
func newestFile(root string, exclude string) (time.Time, bool, error) {
	var newest time.Time
	found := false
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return newest, false, nil
		}
		return newest, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to stat " + root).
			WithCause(err)
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (path == exclude || shouldSkipSourceDir(d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !found || info.ModTime().After(newest) {
			newest = info.ModTime()
			found = true
		}
		return nil
	})
	if err != nil {
		return newest, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan " + root).
			WithCause(err)
	}
	return newest, found, nil
}

func shouldSkipSourceDir(name string) bool {
	switch name {
	case ".git", "node_modules", ".cache":
		return true
	default:
		return false
	}
}

var _ ports.LocalBuildPort = LocalBuildAdapter{}
