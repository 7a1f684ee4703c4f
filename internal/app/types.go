package app

import "firmware-sources/internal/types"

// ConfigRequest locates the sources document every request reads.
type ConfigRequest struct {
	SourcesPath string
	// Root overrides [general] root when set.
	Root string
}

type LookupRequest struct {
	ConfigRequest
	Section string
	Key     string
}

type LookupResult struct {
	Value string
	Found bool
}

type ListKeysRequest struct {
	ConfigRequest
	Section string
}

type IntegrityResult struct {
	// Duplicates maps section names to their repeated keys.
	Duplicates map[string][]string
}

func (r IntegrityResult) Clean() bool {
	return len(r.Duplicates) == 0
}

type RepositoryRequest struct {
	ConfigRequest
	Name string
}

type SourceRequest struct {
	ConfigRequest
	Package string
	Mode    string
}

type EnvironmentRequest struct {
	ConfigRequest
	Mode   string
	Format string
	// Output is the file to write; empty means render only.
	Output string
}

type EnvironmentResult struct {
	Environment types.ResolvedEnvironment
	Rendered    []byte
	Output      string
}

type ApplyRequest struct {
	ConfigRequest
	Mode      string
	TargetDir string
}

type RestoreRequest struct {
	TargetDir string
}

type ValidateRequest struct {
	ConfigRequest
	Mode      string
	TargetDir string
}
