package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"firmware-sources/internal/core"
	"firmware-sources/internal/types"
)

func (s Service) Apply(ctx context.Context, req ApplyRequest) (types.PatchResult, error) {
	mode, err := parseMode(req.Mode)
	if err != nil {
		return types.PatchResult{}, err
	}
	if err := requireTarget(req.TargetDir); err != nil {
		return types.PatchResult{}, err
	}
	patcher := core.NewManifestPatcher(s.parser(req.ConfigRequest), s.Manifests, s.VCS, s.Builder)
	return patcher.Apply(ctx, mode, req.TargetDir)
}

// Restore needs no config document: backups alone say what to undo.
func (s Service) Restore(ctx context.Context, req RestoreRequest) (types.RestoreResult, error) {
	if err := requireTarget(req.TargetDir); err != nil {
		return types.RestoreResult{}, err
	}
	patcher := core.ManifestPatcher{Store: s.Manifests}
	return patcher.Restore(ctx, req.TargetDir)
}

func requireTarget(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("target directory is required")
	}
	if !dirExists(dir) {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("target directory not found: " + dir)
	}
	return nil
}
