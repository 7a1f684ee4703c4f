package adapters

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/ini.v1"

	"firmware-sources/internal/ports"
	"firmware-sources/internal/shared"
	"firmware-sources/internal/types"
)

// ConfigFileAdapter reads the sources document from disk on every Load.
// Repeated keys are kept as shadows so duplicates stay visible.
type ConfigFileAdapter struct{}

func NewConfigFileAdapter() ConfigFileAdapter {
	return ConfigFileAdapter{}
}

func (a ConfigFileAdapter) Load(path string) (types.ConfigDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.ConfigDocument{}, shared.ErrConfigNotFound(path, err)
	}
	if info.IsDir() {
		return types.ConfigDocument{}, shared.ErrConfigNotFound(path, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("config path is a directory"))
	}
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:               true,
		AllowDuplicateShadowValues: true,
		KeyValueDelimiters:         "=",
		IgnoreInlineComment:        true,
		IgnoreContinuation:         true,
	}, path)
	if err != nil {
		return types.ConfigDocument{}, shared.ErrConfigCorrupt(path, err)
	}
	return documentFromINI(path, file), nil
}

func documentFromINI(path string, file *ini.File) types.ConfigDocument {
	doc := types.ConfigDocument{Path: path}
	for _, sec := range file.Sections() {
		keys := sec.Keys()
		if sec.Name() == ini.DefaultSection && len(keys) == 0 {
			continue
		}
		section := types.ConfigSection{
			Name:   sec.Name(),
			Values: make(map[string][]string, len(keys)),
		}
		for _, key := range keys {
			section.Keys = append(section.Keys, key.Name())
			section.Values[key.Name()] = key.ValueWithShadows()
		}
		doc.Sections = append(doc.Sections, section)
	}
	return doc
}

var _ ports.ConfigSourcePort = ConfigFileAdapter{}
