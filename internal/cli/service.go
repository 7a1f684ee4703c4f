package cli

import (
	"github.com/spf13/cobra"

	"firmware-sources/internal/app"
)

func newAppService() app.Service {
	return app.NewService()
}

// configRequest locates the sources document from --sources and --root,
// falling back to FIRMWARE_SOURCES_* variables and the tool config file.
func configRequest(cmd *cobra.Command) app.ConfigRequest {
	return app.ConfigRequest{
		SourcesPath: resolvePersistentString(cmd, "sources", "sources", defaultSourcesPath),
		Root:        resolvePersistentString(cmd, "root", "root", ""),
	}
}

func resolvePersistentString(cmd *cobra.Command, key string, flagName string, fallback string) string {
	value := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup(flagName); flag != nil {
			value = flag.Value.String()
		}
	}
	value = resolveString(cmd, value, key, flagName)
	if value == "" {
		return fallback
	}
	return value
}
