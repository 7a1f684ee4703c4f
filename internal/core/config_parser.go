package core

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"firmware-sources/internal/ports"
	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

// Sections of the source-of-truth document.
const (
	SectionGeneral      = "general"
	SectionRepositories = "repositories"
	SectionFirmware     = "firmware"
	SectionSources      = "sources"
	SectionPatches      = "patches"
)

const (
	defaultPrimaryRepository = "openwrt"
	defaultFeedRepository    = "packages"
	defaultFrontendPackage   = "webui"
	defaultFrontendBuild     = "npm run build"
	defaultFrontendOutput    = "dist"
	defaultTarget            = "x86/64"
	defaultRemote            = "origin"
)

// Settings are the [general] options every component reads, with
// defaults applied.
type Settings struct {
	Root              string
	UseLocalRepos     bool
	PrimaryRepository string
	FeedRepository    string
	FrontendPackage   string
	FrontendBuild     string
	FrontendOutput    string
}

// ConfigParser answers (section, key) queries against the document at
// Path. Every query loads the document again; nothing is cached.
type ConfigParser struct {
	Source ports.ConfigSourcePort
	Path   string
	// RootOverride replaces [general] root when non-empty.
	RootOverride string
}

func NewConfigParser(source ports.ConfigSourcePort, path string, rootOverride string) ConfigParser {
	return ConfigParser{Source: source, Path: path, RootOverride: rootOverride}
}

func (p ConfigParser) Document() (types.ConfigDocument, error) {
	if p.Source == nil {
		return types.ConfigDocument{}, shared.ErrConfigNotFound(p.Path, nil)
	}
	if strings.TrimSpace(p.Path) == "" {
		return types.ConfigDocument{}, shared.ErrConfigNotFound("no config path given", nil)
	}
	return p.Source.Load(p.Path)
}

// Get returns the first value of key. A missing section or key is not an
// error; a repeated key is logged because only its first value is used.
func (p ConfigParser) Get(ctx context.Context, section string, key string) (string, bool, error) {
	doc, err := p.Document()
	if err != nil {
		return "", false, err
	}
	value, ok := lookup(ctx, doc, section, key)
	return value, ok, nil
}

func (p ConfigParser) ListKeys(section string) ([]string, error) {
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}
	return doc.ListKeys(section), nil
}

func (p ConfigParser) DetectDuplicates(section string) ([]string, error) {
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}
	return doc.DetectDuplicates(section), nil
}

// Integrity reports duplicated keys of every section and logs each one.
func (p ConfigParser) Integrity(ctx context.Context) (map[string][]string, error) {
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}
	found := doc.Duplicates()
	logger := log.Ctx(ctx).With().Str("component", "config").Logger()
	for _, section := range doc.Sections {
		for _, key := range found[section.Name] {
			logger.Warn().
				Str("section", section.Name).
				Str("key", key).
				Int("occurrences", len(section.Values[key])).
				Msg("duplicate key in config document")
		}
	}
	return found, nil
}

func (p ConfigParser) Settings(ctx context.Context) (Settings, error) {
	doc, err := p.Document()
	if err != nil {
		return Settings{}, err
	}
	return p.settingsFrom(ctx, doc), nil
}

func (p ConfigParser) settingsFrom(ctx context.Context, doc types.ConfigDocument) Settings {
	get := func(key string, fallback string) string {
		value, ok := lookup(ctx, doc, SectionGeneral, key)
		if !ok || strings.TrimSpace(value) == "" {
			return fallback
		}
		return strings.TrimSpace(value)
	}
	settings := Settings{
		PrimaryRepository: get("primary_repository", defaultPrimaryRepository),
		FeedRepository:    get("feed_repository", defaultFeedRepository),
		FrontendPackage:   get("frontend_package", defaultFrontendPackage),
		FrontendBuild:     get("frontend_build_command", defaultFrontendBuild),
		FrontendOutput:    get("frontend_output", defaultFrontendOutput),
	}
	if raw := get("use_local_repos", ""); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			log.Ctx(ctx).Warn().
				Str("component", "config").
				Str("value", raw).
				Msg("use_local_repos is not a boolean, treating as false")
		}
		settings.UseLocalRepos = enabled
	}
	settings.Root = p.projectRoot(get("root", ""), doc.Path)
	return settings
}

// projectRoot picks the override, then [general] root, then the directory
// holding the config document. Relative roots are taken relative to that
// directory.
func (p ConfigParser) projectRoot(configured string, docPath string) string {
	if docPath == "" {
		docPath = p.Path
	}
	base := filepath.Dir(docPath)
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	root := strings.TrimSpace(p.RootOverride)
	if root == "" {
		root = configured
	}
	if root == "" {
		return base
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(base, root)
	}
	return filepath.Clean(root)
}

func lookup(ctx context.Context, doc types.ConfigDocument, section string, key string) (string, bool) {
	s, ok := doc.Section(section)
	if !ok {
		return "", false
	}
	values := s.Values[key]
	if len(values) == 0 {
		return "", false
	}
	if len(values) > 1 {
		log.Ctx(ctx).Warn().
			Str("component", "config").
			Str("section", section).
			Str("key", key).
			Strs("values", values).
			Msg("duplicate key, using first occurrence")
	}
	return strings.TrimSpace(values[0]), true
}
