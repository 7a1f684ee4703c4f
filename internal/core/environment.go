package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"firmware-sources/internal/ports"
	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

// EnvironmentGenerator assembles the build variables for one mode. The
// result is a value handed to the caller; the process environment is
// never touched.
type EnvironmentGenerator struct {
	Parser ConfigParser
	VCS    ports.VCSPort
	Clock  func() time.Time
}

func NewEnvironmentGenerator(parser ConfigParser, vcs ports.VCSPort, clock func() time.Time) EnvironmentGenerator {
	return EnvironmentGenerator{Parser: parser, VCS: vcs, Clock: clock}
}

func (g EnvironmentGenerator) Generate(ctx context.Context, mode types.Mode) (types.ResolvedEnvironment, error) {
	doc, err := g.Parser.Document()
	if err != nil {
		return types.ResolvedEnvironment{}, err
	}
	settings := g.Parser.settingsFrom(ctx, doc)
	logger := log.Ctx(ctx).With().Str("component", "generator").Str("mode", string(mode)).Logger()

	repos, err := repositoriesIn(ctx, doc)
	if err != nil {
		return types.ResolvedEnvironment{}, err
	}
	primary, ok := findRepository(repos, settings.PrimaryRepository)
	if !ok {
		return types.ResolvedEnvironment{}, shared.ErrMissingRequiredConfig(
			fmt.Sprintf("[%s] %s", SectionRepositories, settings.PrimaryRepository))
	}
	baseVersion, _ := lookup(ctx, doc, SectionFirmware, "base_version")
	if baseVersion == "" {
		return types.ResolvedEnvironment{}, shared.ErrMissingRequiredConfig(
			fmt.Sprintf("[%s] base_version", SectionFirmware))
	}
	target, _ := lookup(ctx, doc, SectionFirmware, "default_target")
	if target == "" {
		target = defaultTarget
	}

	feedRepo, hasFeedRepo := findRepository(repos, settings.FeedRepository)
	feed, err := g.feedDescriptor(ctx, doc, settings, feedRepo, hasFeedRepo, mode)
	if err != nil {
		return types.ResolvedEnvironment{}, err
	}
	if feed == "" {
		logger.Warn().Str("feed", settings.FeedRepository).Msg("no repository configured for feed")
	}

	buildDir := filepath.Join(settings.Root, "build")
	vars := map[string]string{
		types.EnvConfigMode:     types.ConfigModeSentinel,
		types.EnvFeedPackages:   feed,
		types.EnvBaseVersion:    baseVersion,
		types.EnvDefaultTarget:  target,
		types.EnvFirmwareURL:    primary.URL,
		types.EnvFirmwareRef:    primary.Ref,
		types.EnvFirmwareRemote: primary.Remote,
		types.EnvPackagesURL:    feedRepo.URL,
		types.EnvPackagesRef:    feedRepo.Ref,
		types.EnvPackagesRemote: feedRepo.Remote,
		types.EnvProjectRoot:    settings.Root,
		types.EnvReposDir:       filepath.Join(settings.Root, "repos"),
		types.EnvBuildDir:       buildDir,
		types.EnvFirmwareDir:    filepath.Join(buildDir, primary.Name),
	}
	assert.NotEmpty(ctx, vars[types.EnvFirmwareURL], "primary repository url must be set")
	assert.NotEmpty(ctx, vars[types.EnvConfigMode], "config mode sentinel must be set")

	clock := g.Clock
	if clock == nil {
		clock = time.Now
	}
	env := types.NewResolvedEnvironment(vars, types.EnvironmentMetadata{
		ConfigPath:  doc.Path,
		GeneratedAt: clock().UTC(),
	})
	logger.Debug().Str("feed", feed).Int("vars", len(vars)).Msg("environment generated")
	return env, nil
}

// feedDescriptor derives the feed line for the aggregator feed. Default
// mode always uses the repository entry. Local mode points at the local
// checkout when the feed resolves to a local source.
func (g EnvironmentGenerator) feedDescriptor(ctx context.Context, doc types.ConfigDocument, settings Settings, repo types.RepositoryEntry, hasRepo bool, mode types.Mode) (string, error) {
	if mode == types.ModeLocal {
		spec, err := resolveSourceIn(ctx, doc, settings, settings.FeedRepository, mode)
		if err != nil {
			return "", err
		}
		if spec.Kind == types.SourceKindLocal {
			ref := spec.Ref
			if ref == "" {
				ref = detectRef(ctx, g.VCS, spec.Path)
			}
			return FeedLine(settings.FeedRepository, "file://"+spec.Path, ref), nil
		}
		log.Ctx(ctx).Debug().
			Str("component", "generator").
			Str("source", spec.String()).
			Msg("feed source is not local, using repository entry")
	}
	if !hasRepo {
		return "", nil
	}
	return FeedLine(settings.FeedRepository, repo.URL, repo.Ref), nil
}

// FeedLine formats a feeds.conf entry: "src-git <name> <url>[;<ref>]".
func FeedLine(name string, url string, ref string) string {
	line := "src-git " + name + " " + url
	if ref = strings.TrimSpace(ref); ref != "" {
		line += ";" + ref
	}
	return line
}

func detectRef(ctx context.Context, vcs ports.VCSPort, path string) string {
	if vcs == nil || !vcs.IsRepository(ctx, path) {
		return ""
	}
	ref, err := vcs.CurrentRef(ctx, path)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("could not detect checked out ref")
		return ""
	}
	return ref
}

func findRepository(repos []types.RepositoryEntry, name string) (types.RepositoryEntry, bool) {
	for _, repo := range repos {
		if repo.Name == name {
			return repo, true
		}
	}
	return types.RepositoryEntry{}, false
}
