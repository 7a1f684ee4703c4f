package adapters

import (
	"context"
	"os/exec"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"firmware-sources/internal/ports"
	"firmware-sources/internal/shared"
)

// GitVCSAdapter answers checkout questions by running the git binary.
type GitVCSAdapter struct {
	Binary string
}

func NewGitVCSAdapter() GitVCSAdapter {
	return GitVCSAdapter{Binary: "git"}
}

func (a GitVCSAdapter) IsRepository(ctx context.Context, path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	out, err := a.run(ctx, path, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// CurrentRef returns the checked out branch name, or "" on a detached HEAD.
func (a GitVCSAdapter) CurrentRef(ctx context.Context, path string) (string, error) {
	out, err := a.run(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read current ref of " + path).
			WithCause(err)
	}
	if out == "HEAD" {
		return "", nil
	}
	return out, nil
}

func (a GitVCSAdapter) ShortRevision(ctx context.Context, path string) (string, error) {
	out, err := a.run(ctx, path, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read revision of " + path).
			WithCause(err)
	}
	return out, nil
}

func (a GitVCSAdapter) RemoteURL(ctx context.Context, path string, remote string) (string, error) {
	if strings.TrimSpace(remote) == "" {
		remote = "origin"
	}
	out, err := a.run(ctx, path, "remote", "get-url", remote)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("remote " + remote + " not found in " + path).
			WithCause(err)
	}
	return out, nil
}

func (a GitVCSAdapter) run(ctx context.Context, dir string, args ...string) (string, error) {
	binary := a.Binary
	if binary == "" {
		binary = "git"
	}
	cmd := exec.CommandContext(ctx, binary, append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", shared.CommandError(output, err)
	}
	return strings.TrimSpace(string(output)), nil
}

var _ ports.VCSPort = GitVCSAdapter{}
