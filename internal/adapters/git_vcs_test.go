package adapters

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitVCSAdapter(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	repoDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "Makefile"), []byte("NAME:=widget\n"), 0644))
	runGit(t, repoDir, "init", "--initial-branch=main")
	runGit(t, repoDir, "add", ".")
	runGit(t, repoDir, "commit", "-m", "init")
	runGit(t, repoDir, "remote", "add", "origin", "https://git.example.com/widget.git")

	vcs := NewGitVCSAdapter()
	ctx := t.Context()

	assert.True(t, vcs.IsRepository(ctx, repoDir))
	assert.False(t, vcs.IsRepository(ctx, t.TempDir()))
	assert.False(t, vcs.IsRepository(ctx, ""))

	ref, err := vcs.CurrentRef(ctx, repoDir)
	require.NoError(t, err)
	assert.Equal(t, "main", ref)

	rev, err := vcs.ShortRevision(ctx, repoDir)
	require.NoError(t, err)
	assert.NotEmpty(t, rev)

	url, err := vcs.RemoteURL(ctx, repoDir, "")
	require.NoError(t, err)
	assert.Equal(t, "https://git.example.com/widget.git", url)

	_, err = vcs.RemoteURL(ctx, repoDir, "upstream")
	require.Error(t, err)

	runGit(t, repoDir, "checkout", "--detach")
	ref, err = vcs.CurrentRef(ctx, repoDir)
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=firmware",
		"GIT_AUTHOR_EMAIL=dev@example.com",
		"GIT_COMMITTER_NAME=firmware",
		"GIT_COMMITTER_EMAIL=dev@example.com",
	)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))
}
