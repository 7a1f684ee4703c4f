package app

import (
	"os"
	"time"

	"github.com/spf13/afero"

	"firmware-sources/internal/adapters"
	"firmware-sources/internal/core"
	"firmware-sources/internal/ports"
)

type Service struct {
	Config     ports.ConfigSourcePort
	VCS        ports.VCSPort
	Manifests  ports.ManifestStorePort
	Builder    ports.LocalBuildPort
	EnvWriter  ports.EnvironmentWriterPort
	Feeds      ports.FeedStatePort
	PathExists func(path string) bool
	Clock      func() time.Time
}

func NewService() Service {
	fs := afero.NewOsFs()
	return Service{
		Config:     adapters.NewConfigFileAdapter(),
		VCS:        adapters.NewGitVCSAdapter(),
		Manifests:  adapters.NewManifestFileAdapter(fs),
		Builder:    adapters.NewLocalBuildAdapter(),
		EnvWriter:  adapters.NewEnvFileAdapter(fs),
		Feeds:      adapters.NewFeedStateAdapter(),
		PathExists: dirExists,
		Clock:      time.Now,
	}
}

func (s Service) parser(req ConfigRequest) core.ConfigParser {
	return core.NewConfigParser(s.Config, req.SourcesPath, req.Root)
}

func (s Service) generator(req ConfigRequest) core.EnvironmentGenerator {
	return core.NewEnvironmentGenerator(s.parser(req), s.VCS, s.Clock)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
