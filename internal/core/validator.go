package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog/log"

	"firmware-sources/internal/ports"
	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

// Validation check names, in the order they run.
const (
	CheckConfigIntegrity      = "config integrity"
	CheckEnvironment          = "environment injection"
	CheckPackageResolution    = "package source resolution"
	CheckConditionalDryRun    = "conditional resolution dry run"
	CheckFeedConsistency      = "feed consistency"
	CheckEnvironmentImmutable = "immutability"
)

// Validator cross-checks the resolver, generator and patch configuration
// before a build. All checks run even when earlier ones fail.
type Validator struct {
	Parser    ConfigParser
	Resolver  SourceResolver
	Generator EnvironmentGenerator
	VCS       ports.VCSPort
	Feeds     ports.FeedStatePort
	// PathExists reports whether a local source path is present.
	PathExists func(path string) bool
}

func NewValidator(parser ConfigParser, generator EnvironmentGenerator, vcs ports.VCSPort, feeds ports.FeedStatePort, pathExists func(string) bool) Validator {
	return Validator{
		Parser:     parser,
		Resolver:   NewSourceResolver(parser),
		Generator:  generator,
		VCS:        vcs,
		Feeds:      feeds,
		PathExists: pathExists,
	}
}

// Validate returns an error only when the config document itself cannot
// be loaded; check failures are reported in the returned report.
func (v Validator) Validate(ctx context.Context, mode types.Mode, targetDir string) (types.ValidationReport, error) {
	if _, err := v.Parser.Document(); err != nil {
		return types.ValidationReport{}, err
	}
	report := types.ValidationReport{Mode: mode, TargetDir: targetDir}
	checks := []func(context.Context, types.Mode, string) types.ValidationCheck{
		v.checkIntegrity,
		v.checkEnvironment,
		v.checkPackageResolution,
		v.checkDryRun,
		v.checkFeedConsistency,
		v.checkImmutability,
	}
	logger := log.Ctx(ctx).With().Str("component", "validator").Logger()
	for _, run := range checks {
		check := run(ctx, mode, targetDir)
		if check.Status == types.CheckStatusFail {
			event := logger.Error().Str("check", check.Name)
			for _, m := range check.Mismatches {
				event = event.Str(m.Subject, fmt.Sprintf("expected %q, got %q", m.Expected, m.Actual))
			}
			event.Msg("check failed")
		} else {
			logger.Debug().Str("check", check.Name).Msg("check passed")
		}
		report.Checks = append(report.Checks, check)
	}
	return report, nil
}

func newCheck(name string) types.ValidationCheck {
	return types.ValidationCheck{Name: name, Status: types.CheckStatusPass}
}

func (v Validator) checkIntegrity(ctx context.Context, _ types.Mode, _ string) types.ValidationCheck {
	check := newCheck(CheckConfigIntegrity)
	doc, err := v.Parser.Document()
	if err != nil {
		check.Mismatch("config", "readable document", shared.ErrorMessage(err))
		return check
	}
	for _, section := range doc.Sections {
		for _, key := range section.Duplicates() {
			values := section.Values[key]
			check.Mismatch(
				fmt.Sprintf("[%s] %s", section.Name, key),
				"1 occurrence",
				fmt.Sprintf("%d occurrences: %s", len(values), strings.Join(values, ", ")),
			)
		}
	}
	return check
}

func (v Validator) checkEnvironment(ctx context.Context, mode types.Mode, _ string) types.ValidationCheck {
	check := newCheck(CheckEnvironment)
	env, err := v.Generator.Generate(ctx, mode)
	if err != nil {
		check.Mismatch("generate", "environment", shared.ErrorMessage(err))
		return check
	}
	for _, name := range types.RequiredEnvironment {
		if strings.TrimSpace(env.Value(name)) == "" {
			check.Mismatch(name, "non-empty value", "")
		}
	}
	expected, err := v.expectedFeed(ctx, mode)
	if err != nil {
		check.Mismatch(types.EnvFeedPackages, "recomputable feed", shared.ErrorMessage(err))
		return check
	}
	if actual := env.Value(types.EnvFeedPackages); actual != expected {
		check.Mismatch(types.EnvFeedPackages, expected, actual)
	}
	return check
}

func (v Validator) checkPackageResolution(ctx context.Context, mode types.Mode, _ string) types.ValidationCheck {
	check := newCheck(CheckPackageResolution)
	packages, err := v.Parser.ListKeys(SectionPatches)
	if err != nil {
		check.Mismatch("patches", "package list", shared.ErrorMessage(err))
		return check
	}
	if len(packages) == 0 {
		check.Note("no packages configured for patching")
	}
	for _, pkg := range packages {
		spec, err := v.Resolver.ResolveSource(ctx, pkg, mode)
		if err != nil {
			check.Mismatch(pkg, "resolved source", shared.ErrorMessage(err))
			continue
		}
		if spec.IsZero() || spec.String() == "" {
			check.Mismatch(pkg, "non-empty source", "empty")
			continue
		}
		check.Note(fmt.Sprintf("%s -> %s", pkg, spec.String()))
	}
	return check
}

func (v Validator) checkDryRun(ctx context.Context, mode types.Mode, _ string) types.ValidationCheck {
	check := newCheck(CheckConditionalDryRun)
	feed, err := v.expectedFeed(ctx, mode)
	if err != nil {
		check.Mismatch("feed", "recomputable feed", shared.ErrorMessage(err))
	} else {
		check.Note("feed: " + feed)
	}
	settings, err := v.Parser.Settings(ctx)
	if err != nil {
		check.Mismatch("settings", "readable [general] section", shared.ErrorMessage(err))
		return check
	}
	packages, err := v.Parser.ListKeys(SectionPatches)
	if err != nil {
		check.Mismatch("patches", "package list", shared.ErrorMessage(err))
		return check
	}
	if mode == types.ModeLocal {
		packages = append(packages, settings.FeedRepository)
	}
	for _, pkg := range packages {
		spec, err := v.Resolver.ResolveSource(ctx, pkg, mode)
		if err != nil {
			if shared.IsKind(err, shared.KindSourceNotConfigured) {
				check.Note(fmt.Sprintf("%s: no source for %s mode, will be skipped", pkg, mode))
				continue
			}
			check.Mismatch(pkg, "resolved source", shared.ErrorMessage(err))
			continue
		}
		if spec.Kind != types.SourceKindLocal {
			continue
		}
		if v.PathExists == nil || !v.PathExists(spec.Path) {
			check.Mismatch(pkg, "existing path "+spec.Path, "missing")
		}
	}
	return check
}

func (v Validator) checkFeedConsistency(ctx context.Context, mode types.Mode, targetDir string) types.ValidationCheck {
	check := newCheck(CheckFeedConsistency)
	settings, err := v.Parser.Settings(ctx)
	if err != nil {
		check.Mismatch("settings", "readable [general] section", shared.ErrorMessage(err))
		return check
	}
	expected, err := v.expectedFeed(ctx, mode)
	if err != nil {
		check.Mismatch("feed", "recomputable feed", shared.ErrorMessage(err))
		return check
	}
	if v.Feeds == nil || strings.TrimSpace(targetDir) == "" {
		check.Note("no target tree to compare")
		return check
	}
	compared := false
	entry, ok, err := v.Feeds.FeedEntry(targetDir, settings.FeedRepository)
	switch {
	case err != nil:
		check.Mismatch("feeds.conf", "readable", err.Error())
	case ok:
		compared = true
		if normalizeFeedLine(entry) != normalizeFeedLine(expected) {
			check.Mismatch("feeds.conf "+settings.FeedRepository, expected, entry)
		}
	}
	if dir, ok := v.Feeds.CheckoutDir(targetDir, settings.FeedRepository); ok && v.VCS != nil && v.VCS.IsRepository(ctx, dir) {
		compared = true
		remote := defaultRemote
		if repo, err := v.Resolver.ResolveRepository(ctx, settings.FeedRepository); err == nil {
			remote = repo.Remote
		}
		actual, err := v.VCS.RemoteURL(ctx, dir, remote)
		want := feedURL(expected)
		switch {
		case err != nil:
			check.Mismatch("checkout "+dir, want, shared.ErrorMessage(err))
		case normalizeURL(actual) != normalizeURL(want):
			check.Mismatch("checkout "+dir, want, actual)
		}
	}
	if !compared {
		check.Note("no prepared feed in " + targetDir)
	}
	return check
}

func (v Validator) checkImmutability(ctx context.Context, mode types.Mode, _ string) types.ValidationCheck {
	check := newCheck(CheckEnvironmentImmutable)
	first, err := v.Generator.Generate(ctx, mode)
	if err != nil {
		check.Mismatch("generate", "environment", shared.ErrorMessage(err))
		return check
	}
	second, err := v.Generator.Generate(ctx, mode)
	if err != nil {
		check.Mismatch("generate", "environment", shared.ErrorMessage(err))
		return check
	}
	if !first.Equal(second) {
		if diff := cmp.Diff(first.Vars(), second.Vars()); diff != "" {
			check.Mismatch("environment", "identical variables", diff)
		}
	}
	for _, name := range []string{types.EnvMetaConfigFile, types.EnvMetaGeneratedAt} {
		if value, ok := first.Get(name); ok {
			check.Mismatch(name, "metadata kept out of variables", value)
		}
	}
	if actual := first.Value(types.EnvConfigMode); actual != types.ConfigModeSentinel {
		check.Mismatch(types.EnvConfigMode, types.ConfigModeSentinel, actual)
	}
	return check
}

// expectedFeed recomputes the feed line from raw config values, without
// going through the generator, so the two derivations can be compared.
func (v Validator) expectedFeed(ctx context.Context, mode types.Mode) (string, error) {
	doc, err := v.Parser.Document()
	if err != nil {
		return "", err
	}
	settings := v.Parser.settingsFrom(ctx, doc)
	feed := settings.FeedRepository

	if mode == types.ModeLocal {
		path := filepath.Join(settings.Root, "repos", feed)
		ref := ""
		local := true
		if raw, ok := doc.Get(SectionSources, feed+sourceLocalSuffix); ok && strings.TrimSpace(raw) != "" {
			spec, err := ParseSourceSpec(raw)
			if err != nil {
				return "", err
			}
			local = spec.Kind == types.SourceKindLocal
			if local {
				path, ref = spec.Path, spec.Ref
				if !filepath.IsAbs(path) {
					path = filepath.Join(settings.Root, path)
				}
			}
		}
		if local {
			if ref == "" && v.VCS != nil && v.VCS.IsRepository(ctx, path) {
				ref, _ = v.VCS.CurrentRef(ctx, path)
			}
			return normalizeFeedLine(fmt.Sprintf("src-git %s file://%s;%s", feed, path, ref)), nil
		}
	}

	raw, ok := doc.Get(SectionRepositories, feed)
	if !ok || strings.TrimSpace(raw) == "" {
		return "", nil
	}
	fields := strings.SplitN(raw, "|", 3)
	url := strings.TrimSpace(fields[0])
	ref := ""
	if len(fields) > 1 {
		ref = strings.TrimSpace(fields[1])
	}
	return normalizeFeedLine(fmt.Sprintf("src-git %s %s;%s", feed, url, ref)), nil
}

// normalizeFeedLine collapses whitespace and drops an empty ";" ref suffix.
func normalizeFeedLine(line string) string {
	return strings.TrimSuffix(strings.Join(strings.Fields(line), " "), ";")
}

// feedURL extracts the URL part of a feed line.
func feedURL(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return ""
	}
	url, _, _ := strings.Cut(fields[2], ";")
	return url
}

func normalizeURL(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimPrefix(url, "file://")
	url = strings.TrimSuffix(url, "/")
	return strings.TrimSuffix(url, ".git")
}
