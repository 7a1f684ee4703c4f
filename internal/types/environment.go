package types

import (
	"maps"
	"sort"
	"time"
)

// Generated build variables.
const (
	EnvConfigMode      = "CONFIG_MODE"
	EnvFeedPackages    = "FEED_PACKAGES"
	EnvBaseVersion     = "FIRMWARE_BASE_VERSION"
	EnvDefaultTarget   = "FIRMWARE_DEFAULT_TARGET"
	EnvFirmwareURL     = "FIRMWARE_REPO_URL"
	EnvFirmwareRef     = "FIRMWARE_REPO_REF"
	EnvFirmwareRemote  = "FIRMWARE_REPO_REMOTE"
	EnvPackagesURL     = "PACKAGES_REPO_URL"
	EnvPackagesRef     = "PACKAGES_REPO_REF"
	EnvPackagesRemote  = "PACKAGES_REPO_REMOTE"
	EnvProjectRoot     = "PROJECT_ROOT"
	EnvReposDir        = "REPOS_DIR"
	EnvBuildDir        = "BUILD_DIR"
	EnvFirmwareDir     = "FIRMWARE_DIR"
	EnvMetaConfigFile  = "CONFIG_FILE"
	EnvMetaGeneratedAt = "GENERATED_AT"
)

// ConfigModeSentinel is the value of CONFIG_MODE for every mode; the mode
// only changes which sources the other variables point at.
const ConfigModeSentinel = "unified"

// RequiredEnvironment lists the variables a generated environment must set
// to a non-empty value.
var RequiredEnvironment = []string{
	EnvConfigMode,
	EnvFeedPackages,
	EnvBaseVersion,
	EnvDefaultTarget,
	EnvFirmwareURL,
	EnvProjectRoot,
	EnvReposDir,
	EnvBuildDir,
	EnvFirmwareDir,
}

// EnvironmentMetadata describes how an environment was produced. It never
// takes part in equality.
type EnvironmentMetadata struct {
	ConfigPath  string
	GeneratedAt time.Time
}

// ResolvedEnvironment is an immutable set of build variables.
type ResolvedEnvironment struct {
	vars     map[string]string
	Metadata EnvironmentMetadata
}

func NewResolvedEnvironment(vars map[string]string, meta EnvironmentMetadata) ResolvedEnvironment {
	return ResolvedEnvironment{vars: maps.Clone(vars), Metadata: meta}
}

func (e ResolvedEnvironment) Get(name string) (string, bool) {
	value, ok := e.vars[name]
	return value, ok
}

func (e ResolvedEnvironment) Value(name string) string {
	return e.vars[name]
}

// Names returns the variable names sorted.
func (e ResolvedEnvironment) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Vars returns a copy of the variables.
func (e ResolvedEnvironment) Vars() map[string]string {
	if e.vars == nil {
		return map[string]string{}
	}
	return maps.Clone(e.vars)
}

// Equal compares variables only.
func (e ResolvedEnvironment) Equal(other ResolvedEnvironment) bool {
	return maps.Equal(e.vars, other.vars)
}
