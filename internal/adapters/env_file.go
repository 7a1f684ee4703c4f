package adapters

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"firmware-sources/internal/ports"
	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

// Environment output formats.
const (
	FormatEnv  = "env"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// EnvFileAdapter renders environments and writes them through the same
// temp-then-rename path as manifests.
type EnvFileAdapter struct {
	Fs afero.Fs
}

func NewEnvFileAdapter(fs afero.Fs) EnvFileAdapter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return EnvFileAdapter{Fs: fs}
}

type environmentDocument struct {
	Variables map[string]string   `json:"variables" yaml:"variables"`
	Metadata  environmentMetadata `json:"metadata" yaml:"metadata"`
}

type environmentMetadata struct {
	ConfigFile  string `json:"config_file" yaml:"config_file"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
}

func (a EnvFileAdapter) Render(env types.ResolvedEnvironment, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatEnv:
		return renderShell(env), nil
	case FormatYAML:
		out, err := yaml.Marshal(toDocument(env))
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to render environment yaml").
				WithCause(err)
		}
		return out, nil
	case FormatJSON:
		out, err := json.MarshalIndent(toDocument(env), "", "  ")
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to render environment json").
				WithCause(err)
		}
		return append(out, '\n'), nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported environment format %q (want env, yaml or json)", format))
	}
}

func (a EnvFileAdapter) Write(path string, env types.ResolvedEnvironment, format string) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output path is empty")
	}
	content, err := a.Render(env, format)
	if err != nil {
		return err
	}
	if err := a.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return writeAtomic(a.Fs, path, content)
}

// renderShell emits KEY='value' lines sorted by key, metadata last.
func renderShell(env types.ResolvedEnvironment) []byte {
	var b strings.Builder
	for _, name := range env.Names() {
		fmt.Fprintf(&b, "%s=%s\n", name, shared.ShellQuote(env.Value(name)))
	}
	meta := toDocument(env).Metadata
	fmt.Fprintf(&b, "%s=%s\n", types.EnvMetaConfigFile, shared.ShellQuote(meta.ConfigFile))
	fmt.Fprintf(&b, "%s=%s\n", types.EnvMetaGeneratedAt, shared.ShellQuote(meta.GeneratedAt))
	return []byte(b.String())
}

func toDocument(env types.ResolvedEnvironment) environmentDocument {
	generated := ""
	if !env.Metadata.GeneratedAt.IsZero() {
		generated = env.Metadata.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return environmentDocument{
		Variables: env.Vars(),
		Metadata: environmentMetadata{
			ConfigFile:  env.Metadata.ConfigPath,
			GeneratedAt: generated,
		},
	}
}

var _ ports.EnvironmentWriterPort = EnvFileAdapter{}
