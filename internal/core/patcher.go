package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"firmware-sources/internal/ports"
	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

// ManifestPatcher rewrites package manifests under a target tree so they
// declare the resolved sources.
//
// Every manifest it touches gets a pristine backup on first apply. Later
// applies restore from that backup before rewriting, so a manifest is
// never patched on top of an earlier patch. Two invocations against the
// same tree at once are not supported.
type ManifestPatcher struct {
	Parser  ConfigParser
	Store   ports.ManifestStorePort
	VCS     ports.VCSPort
	Builder ports.LocalBuildPort
}

func NewManifestPatcher(parser ConfigParser, store ports.ManifestStorePort, vcs ports.VCSPort, builder ports.LocalBuildPort) ManifestPatcher {
	return ManifestPatcher{Parser: parser, Store: store, VCS: vcs, Builder: builder}
}

type plannedPatch struct {
	config types.PatchConfig
	spec   types.SourceSpec
}

func (p ManifestPatcher) Apply(ctx context.Context, mode types.Mode, targetDir string) (types.PatchResult, error) {
	doc, err := p.Parser.Document()
	if err != nil {
		return types.PatchResult{}, err
	}
	settings := p.Parser.settingsFrom(ctx, doc)
	logger := log.Ctx(ctx).With().Str("component", "patcher").Str("mode", string(mode)).Logger()

	configs, err := patchConfigsIn(ctx, doc)
	if err != nil {
		return types.PatchResult{}, err
	}

	// Resolve everything before the first write so configuration errors
	// leave the tree untouched.
	result := types.PatchResult{}
	var planned []plannedPatch
	for _, config := range configs {
		spec, err := resolveSourceIn(ctx, doc, settings, config.Package, mode)
		if err != nil {
			if shared.IsKind(err, shared.KindSourceNotConfigured) {
				logger.Warn().Str("package", config.Package).Msg("no source configured, skipping")
				result.Record(types.PackagePatch{
					Package: config.Package,
					Outcome: types.PatchOutcomeSkipped,
					Reason:  shared.ErrorMessage(err),
				})
				continue
			}
			return types.PatchResult{}, err
		}
		planned = append(planned, plannedPatch{config: config, spec: spec})
	}

	for _, plan := range planned {
		entry := p.applyOne(ctx, logger, settings, mode, targetDir, plan)
		result.Record(entry)
	}
	logger.Info().
		Int("patched", result.Patched).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Str("target", targetDir).
		Msg("apply finished")
	return result, nil
}

func (p ManifestPatcher) applyOne(ctx context.Context, logger zerolog.Logger, settings Settings, mode types.Mode, targetDir string, plan plannedPatch) types.PackagePatch {
	pkg := plan.config.Package
	entry := types.PackagePatch{Package: pkg, Source: plan.spec}
	pkgLogger := logger.With().Str("package", pkg).Logger()

	manifest, ok := p.locate(targetDir, settings.FeedRepository, pkg)
	if !ok {
		pkgLogger.Warn().Str("target", targetDir).Msg("manifest not found, skipping")
		entry.Outcome = types.PatchOutcomeSkipped
		entry.Reason = shared.ErrorMessage(shared.ErrManifestNotFound(pkg))
		return entry
	}
	entry.Manifest = manifest

	pristine, err := p.pristine(manifest)
	if err != nil {
		pkgLogger.Error().Err(err).Str("manifest", manifest).Msg("cannot prepare manifest backup")
		entry.Outcome = types.PatchOutcomeFailed
		entry.Reason = err.Error()
		return entry
	}

	if plan.spec.Kind == types.SourceKindFeedDefault {
		pkgLogger.Info().Msg("feed default source, manifest left pristine")
		entry.Outcome = types.PatchOutcomeSkipped
		entry.Reason = "feed default source"
		return entry
	}

	// Only a source replacement consumes the build output; a version
	// override leaves the manifest's source alone.
	localBuild := pkg == settings.FrontendPackage &&
		plan.config.Type == types.PatchTypeSourceReplacement &&
		plan.spec.Kind == types.SourceKindLocal &&
		mode == types.ModeLocal
	var outputDir string
	if localBuild {
		outputDir = filepath.Join(plan.spec.Path, settings.FrontendOutput)
		if err := p.buildIfStale(ctx, pkgLogger, pkg, plan.spec.Path, outputDir, settings.FrontendBuild); err != nil {
			entry.Outcome = types.PatchOutcomeFailed
			entry.Reason = shared.ErrorMessage(err)
			return entry
		}
	}

	edit := p.planEdit(ctx, pkgLogger, plan, pristine, localBuild, outputDir)
	patched, err := rewriteManifest(pristine, edit)
	if err != nil {
		pkgLogger.Error().Err(err).Str("manifest", manifest).Msg("cannot rewrite manifest")
		entry.Outcome = types.PatchOutcomeFailed
		entry.Reason = err.Error()
		return entry
	}
	if err := p.Store.WriteAtomic(manifest, patched); err != nil {
		pkgLogger.Error().Err(err).Str("manifest", manifest).Msg("cannot write manifest")
		entry.Outcome = types.PatchOutcomeFailed
		entry.Reason = err.Error()
		return entry
	}
	pkgLogger.Info().Str("manifest", manifest).Str("source", plan.spec.String()).Msg("manifest patched")
	entry.Outcome = types.PatchOutcomePatched
	return entry
}

// Restore returns every manifest with a backup under targetDir to its
// pristine content, removes the backups and discards leftover temporary
// files. It keeps going past individual failures and returns them all.
func (p ManifestPatcher) Restore(ctx context.Context, targetDir string) (types.RestoreResult, error) {
	logger := log.Ctx(ctx).With().Str("component", "patcher").Str("target", targetDir).Logger()
	manifests, err := p.Store.FindBackups(targetDir)
	if err != nil {
		return types.RestoreResult{}, err
	}
	result := types.RestoreResult{}
	var errs error
	for _, manifest := range manifests {
		backup := p.Store.BackupPath(manifest)
		content, err := p.Store.Read(backup)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := p.Store.WriteAtomic(manifest, content); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := p.Store.Remove(backup); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		logger.Info().Str("manifest", manifest).Msg("manifest restored")
		result.Restored = append(result.Restored, manifest)
	}
	discarded, err := p.Store.DiscardTemporary(targetDir)
	errs = multierr.Append(errs, err)
	for _, path := range discarded {
		logger.Warn().Str("path", path).Msg("discarded temporary file from an interrupted write")
	}
	result.Discarded = discarded
	return result, errs
}

func (p ManifestPatcher) locate(targetDir string, feed string, pkg string) (string, bool) {
	for _, candidate := range manifestCandidates(targetDir, feed, pkg) {
		if p.Store.Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// pristine returns the original manifest content. The first call saves a
// backup; later calls put the backup back over the manifest first.
func (p ManifestPatcher) pristine(manifest string) ([]byte, error) {
	backup := p.Store.BackupPath(manifest)
	if p.Store.Exists(backup) {
		content, err := p.Store.Read(backup)
		if err != nil {
			return nil, err
		}
		if err := p.Store.WriteAtomic(manifest, content); err != nil {
			return nil, err
		}
		return content, nil
	}
	content, err := p.Store.Read(manifest)
	if err != nil {
		return nil, err
	}
	if err := p.Store.WriteAtomic(backup, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (p ManifestPatcher) buildIfStale(ctx context.Context, logger zerolog.Logger, pkg string, sourceDir string, outputDir string, command string) error {
	if p.Builder == nil {
		return shared.ErrBuildStepFailed(pkg, fmt.Errorf("no local builder configured"))
	}
	stale, err := p.Builder.IsStale(sourceDir, outputDir)
	if err != nil {
		logger.Error().Err(err).Str("source", sourceDir).Msg("cannot check build output")
		return shared.ErrBuildStepFailed(pkg, err)
	}
	if !stale {
		logger.Info().Str("output", outputDir).Msg("build output up to date")
		return nil
	}
	logger.Info().Str("source", sourceDir).Str("command", command).Msg("build output stale, building")
	if err := p.Builder.Build(ctx, sourceDir, command); err != nil {
		logger.Error().Err(err).Msg("local build failed")
		return shared.ErrBuildStepFailed(pkg, err)
	}
	return nil
}

func (p ManifestPatcher) planEdit(ctx context.Context, logger zerolog.Logger, plan plannedPatch, pristine []byte, localBuild bool, outputDir string) manifestEdit {
	config, spec := plan.config, plan.spec
	version := p.versionFor(ctx, spec)

	if config.Type == types.PatchTypeVersionOverride {
		if current, ok := declaredValue(pristine, config.VersionVar); ok {
			if cmp, ok := compareVersions(version, current); ok && cmp < 0 {
				logger.Warn().
					Str("from", current).
					Str("to", version).
					Msg("version override downgrades package")
			}
		}
		return manifestEdit{
			Remove:       []string{config.VersionVar},
			Declarations: declarations(declaration{config.VersionVar, version}),
		}
	}

	edit := manifestEdit{Remove: config.Vars()}
	if localBuild {
		edit.Declarations = declarations(declaration{config.VersionVar, version})
		edit.Block = localBuildBlock(outputDir)
		return edit
	}
	var url string
	switch spec.Kind {
	case types.SourceKindLocal:
		url = "file://" + spec.Path
	default:
		url = spec.URL
	}
	edit.Declarations = declarations(
		declaration{config.SourceVar, fmt.Sprintf("%s-%s.tar.gz", config.Package, version)},
		declaration{config.URLVar, url},
		declaration{config.VersionVar, version},
	)
	return edit
}

// versionFor derives the declared version: a dev tag for local checkouts,
// the ref for git sources and the version for tarballs.
func (p ManifestPatcher) versionFor(ctx context.Context, spec types.SourceSpec) string {
	switch spec.Kind {
	case types.SourceKindLocal:
		var rev string
		if p.VCS != nil && p.VCS.IsRepository(ctx, spec.Path) {
			var err error
			rev, err = p.VCS.ShortRevision(ctx, spec.Path)
			if err != nil {
				log.Ctx(ctx).Debug().Err(err).Str("path", spec.Path).Msg("no revision for local checkout")
			}
		}
		return devVersion(rev)
	case types.SourceKindGit:
		if spec.Ref == "" {
			return "HEAD"
		}
		return spec.Ref
	default:
		return spec.Version
	}
}

// declarations drops entries whose variable name is not configured.
func declarations(entries ...declaration) []declaration {
	out := make([]declaration, 0, len(entries))
	for _, entry := range entries {
		if entry.Name != "" {
			out = append(out, entry)
		}
	}
	return out
}
