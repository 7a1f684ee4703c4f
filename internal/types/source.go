package types

import "strings"

// SourceSpec is the resolved upstream of one package. Only the fields that
// belong to Kind are populated: Local uses Path and Ref, Git uses URL and
// Ref, Tarball uses URL (the base URL) and Version, FeedDefault uses none.
type SourceSpec struct {
	Kind    SourceKind `json:"kind" yaml:"kind"`
	Path    string     `json:"path,omitempty" yaml:"path,omitempty"`
	URL     string     `json:"url,omitempty" yaml:"url,omitempty"`
	Ref     string     `json:"ref,omitempty" yaml:"ref,omitempty"`
	Version string     `json:"version,omitempty" yaml:"version,omitempty"`
}

func LocalSource(path string, ref string) SourceSpec {
	return SourceSpec{Kind: SourceKindLocal, Path: path, Ref: ref}
}

func GitSource(url string, ref string) SourceSpec {
	return SourceSpec{Kind: SourceKindGit, URL: url, Ref: ref}
}

func TarballSource(baseURL string, version string) SourceSpec {
	return SourceSpec{Kind: SourceKindTarball, URL: baseURL, Version: version}
}

func FeedDefaultSource() SourceSpec {
	return SourceSpec{Kind: SourceKindFeedDefault}
}

func (s SourceSpec) IsZero() bool {
	return s == SourceSpec{}
}

// String renders the source back into its type:location[:ref] form.
func (s SourceSpec) String() string {
	var parts []string
	switch s.Kind {
	case SourceKindLocal:
		parts = []string{string(s.Kind), s.Path, s.Ref}
	case SourceKindGit:
		parts = []string{string(s.Kind), s.URL, s.Ref}
	case SourceKindTarball:
		parts = []string{string(s.Kind), s.URL, s.Version}
	case SourceKindFeedDefault:
		return string(s.Kind)
	default:
		return ""
	}
	if parts[2] == "" {
		parts = parts[:2]
	}
	return strings.Join(parts, ":")
}

type RepositoryEntry struct {
	Name   string `json:"name" yaml:"name"`
	URL    string `json:"url" yaml:"url"`
	Ref    string `json:"ref,omitempty" yaml:"ref,omitempty"`
	Remote string `json:"remote" yaml:"remote"`
}

// PatchConfig names the manifest declarations a patch rewrites.
type PatchConfig struct {
	Package    string
	Type       PatchType
	SourceVar  string
	URLVar     string
	VersionVar string
}

// Vars returns the non-empty declaration names the patch owns.
func (p PatchConfig) Vars() []string {
	var vars []string
	for _, name := range []string{p.SourceVar, p.URLVar, p.VersionVar} {
		if name != "" {
			vars = append(vars, name)
		}
	}
	return vars
}
