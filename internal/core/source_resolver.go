package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

const (
	sourceLocalSuffix   = "-source-local"
	sourceDefaultSuffix = "-source-default"
)

// SourceResolver turns (package, mode) into a SourceSpec.
//
// Local resolution never fails: without a <pkg>-source-local key it
// synthesizes <root>/repos/<pkg>. Default resolution never falls back: a
// missing <pkg>-source-default is SourceNotConfigured. Callers rely on
// this asymmetry.
type SourceResolver struct {
	Parser ConfigParser
}

func NewSourceResolver(parser ConfigParser) SourceResolver {
	return SourceResolver{Parser: parser}
}

func (r SourceResolver) ResolveSource(ctx context.Context, pkg string, mode types.Mode) (types.SourceSpec, error) {
	doc, err := r.Parser.Document()
	if err != nil {
		return types.SourceSpec{}, err
	}
	settings := r.Parser.settingsFrom(ctx, doc)
	return resolveSourceIn(ctx, doc, settings, pkg, mode)
}

func (r SourceResolver) ResolveRepository(ctx context.Context, name string) (types.RepositoryEntry, error) {
	doc, err := r.Parser.Document()
	if err != nil {
		return types.RepositoryEntry{}, err
	}
	return resolveRepositoryIn(ctx, doc, name)
}

// Repositories parses every entry of the repositories section in document
// order.
func (r SourceResolver) Repositories(ctx context.Context) ([]types.RepositoryEntry, error) {
	doc, err := r.Parser.Document()
	if err != nil {
		return nil, err
	}
	return repositoriesIn(ctx, doc)
}

// PatchConfigs parses every entry of the patches section. Any malformed or
// unknown entry fails the whole call.
func (r SourceResolver) PatchConfigs(ctx context.Context) ([]types.PatchConfig, error) {
	doc, err := r.Parser.Document()
	if err != nil {
		return nil, err
	}
	return patchConfigsIn(ctx, doc)
}

func resolveSourceIn(ctx context.Context, doc types.ConfigDocument, settings Settings, pkg string, mode types.Mode) (types.SourceSpec, error) {
	pkg = strings.TrimSpace(pkg)
	logger := log.Ctx(ctx).With().Str("component", "resolver").Str("package", pkg).Logger()
	if settings.UseLocalRepos || mode == types.ModeLocal {
		value, ok := lookup(ctx, doc, SectionSources, pkg+sourceLocalSuffix)
		if ok && value != "" {
			spec, err := ParseSourceSpec(value)
			if err != nil {
				return types.SourceSpec{}, err
			}
			if spec.Kind == types.SourceKindLocal {
				spec.Path = rootedPath(settings.Root, spec.Path)
			}
			logger.Debug().Str("source", spec.String()).Msg("resolved local override")
			return spec, nil
		}
		spec := types.LocalSource(filepath.Join(settings.Root, "repos", pkg), "")
		logger.Debug().Str("source", spec.String()).Msg("synthesized local source")
		return spec, nil
	}
	value, ok := lookup(ctx, doc, SectionSources, pkg+sourceDefaultSuffix)
	if !ok || value == "" {
		return types.SourceSpec{}, shared.ErrSourceNotConfigured(pkg)
	}
	spec, err := ParseSourceSpec(value)
	if err != nil {
		return types.SourceSpec{}, err
	}
	if spec.Kind == types.SourceKindLocal {
		spec.Path = rootedPath(settings.Root, spec.Path)
	}
	logger.Debug().Str("source", spec.String()).Msg("resolved default source")
	return spec, nil
}

func resolveRepositoryIn(ctx context.Context, doc types.ConfigDocument, name string) (types.RepositoryEntry, error) {
	name = strings.TrimSpace(name)
	value, ok := lookup(ctx, doc, SectionRepositories, name)
	if !ok || value == "" {
		return types.RepositoryEntry{}, shared.ErrRepositoryNotConfigured(name)
	}
	return ParseRepositoryEntry(name, value)
}

func repositoriesIn(ctx context.Context, doc types.ConfigDocument) ([]types.RepositoryEntry, error) {
	var entries []types.RepositoryEntry
	for _, name := range doc.ListKeys(SectionRepositories) {
		entry, err := resolveRepositoryIn(ctx, doc, name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func patchConfigsIn(ctx context.Context, doc types.ConfigDocument) ([]types.PatchConfig, error) {
	var configs []types.PatchConfig
	for _, pkg := range doc.ListKeys(SectionPatches) {
		value, _ := lookup(ctx, doc, SectionPatches, pkg)
		config, err := ParsePatchConfig(pkg, value)
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}
	return configs, nil
}

// ParseSourceSpec parses the type:location[:ref] mini-language.
func ParseSourceSpec(value string) (types.SourceSpec, error) {
	raw := strings.TrimSpace(value)
	kind, rest, _ := strings.Cut(raw, ":")
	kind = strings.ToLower(strings.TrimSpace(kind))
	rest = strings.TrimSpace(rest)
	switch types.SourceKind(kind) {
	case types.SourceKindFeedDefault:
		return types.FeedDefaultSource(), nil
	case types.SourceKindLocal, types.SourceKindGit, types.SourceKindTarball:
	default:
		return types.SourceSpec{}, shared.ErrConfigCorrupt(fmt.Sprintf("unknown source type %q in %q", kind, raw), nil)
	}
	location, ref := splitSourceRef(rest)
	if location == "" {
		return types.SourceSpec{}, shared.ErrConfigCorrupt(fmt.Sprintf("source %q has no location", raw), nil)
	}
	switch types.SourceKind(kind) {
	case types.SourceKindLocal:
		return types.LocalSource(location, ref), nil
	case types.SourceKindGit:
		return types.GitSource(location, ref), nil
	default:
		if ref == "" {
			return types.SourceSpec{}, shared.ErrConfigCorrupt(fmt.Sprintf("tarball source %q has no version", raw), nil)
		}
		return types.TarballSource(location, ref), nil
	}
}

// splitSourceRef separates a trailing :ref from a location. The colon of a
// URL scheme ("https://") and of a host port followed by a path
// ("host:8080/") never start a ref, nor does the path colon of an
// scp-style location ("git@host:org/repo.git").
func splitSourceRef(rest string) (string, string) {
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return rest, ""
	}
	head, tail := rest[:idx], rest[idx+1:]
	if strings.HasPrefix(tail, "//") {
		return rest, ""
	}
	if strings.Contains(head, "://") && isPortPrefix(tail) {
		return rest, ""
	}
	if isSCPHost(head) {
		return rest, ""
	}
	return strings.TrimSpace(head), strings.TrimSpace(tail)
}

// isSCPHost reports whether value is the user@host part of an scp-style
// location, so a colon right after it separates host and path.
func isSCPHost(value string) bool {
	if strings.ContainsAny(value, "/:") {
		return false
	}
	user, host, found := strings.Cut(value, "@")
	return found && user != "" && host != ""
}

func isPortPrefix(value string) bool {
	digits, _, found := strings.Cut(value, "/")
	if !found || digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseRepositoryEntry parses url|ref|remote. Only url is required; the
// remote defaults to origin.
func ParseRepositoryEntry(name string, value string) (types.RepositoryEntry, error) {
	parts := strings.Split(strings.TrimSpace(value), "|")
	if len(parts) > 3 {
		return types.RepositoryEntry{}, shared.ErrConfigCorrupt(fmt.Sprintf("repository %s has too many fields: %q", name, value), nil)
	}
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	entry := types.RepositoryEntry{
		Name:   name,
		URL:    strings.TrimSpace(parts[0]),
		Ref:    strings.TrimSpace(parts[1]),
		Remote: strings.TrimSpace(parts[2]),
	}
	if entry.URL == "" {
		return types.RepositoryEntry{}, shared.ErrConfigCorrupt(fmt.Sprintf("repository %s has no url", name), nil)
	}
	if entry.Remote == "" {
		entry.Remote = defaultRemote
	}
	return entry, nil
}

// ParsePatchConfig parses <type>:<sourceVar>:<urlVar>:<versionVar>. The
// short form version_override:<versionVar> is accepted too.
func ParsePatchConfig(pkg string, value string) (types.PatchConfig, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	config := types.PatchConfig{Package: pkg, Type: types.PatchType(strings.ToLower(parts[0]))}
	switch config.Type {
	case types.PatchTypeSourceReplacement:
		if len(parts) != 4 {
			return types.PatchConfig{}, shared.ErrConfigCorrupt(fmt.Sprintf("patch for %s needs type:source:url:version, got %q", pkg, value), nil)
		}
		config.SourceVar, config.URLVar, config.VersionVar = parts[1], parts[2], parts[3]
		if config.URLVar == "" && config.VersionVar == "" {
			return types.PatchConfig{}, shared.ErrConfigCorrupt(fmt.Sprintf("patch for %s declares no url or version variable", pkg), nil)
		}
	case types.PatchTypeVersionOverride:
		switch len(parts) {
		case 2:
			config.VersionVar = parts[1]
		case 4:
			config.SourceVar, config.URLVar, config.VersionVar = parts[1], parts[2], parts[3]
		default:
			return types.PatchConfig{}, shared.ErrConfigCorrupt(fmt.Sprintf("patch for %s needs version_override:version, got %q", pkg, value), nil)
		}
		if config.VersionVar == "" {
			return types.PatchConfig{}, shared.ErrConfigCorrupt(fmt.Sprintf("patch for %s declares no version variable", pkg), nil)
		}
	default:
		return types.PatchConfig{}, shared.ErrPatchTypeUnknown(pkg, parts[0])
	}
	return config, nil
}

func rootedPath(root string, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
