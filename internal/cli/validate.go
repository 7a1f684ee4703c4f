package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"firmware-sources/internal/app"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <mode> <targetDir>",
		Short: "Check that config, environment and build tree agree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd, args[0], args[1])
		},
	}
}

func runValidate(ctx context.Context, cmd *cobra.Command, mode string, targetDir string) error {
	service := newAppService()
	report, err := service.Validate(ctx, app.ValidateRequest{
		ConfigRequest: configRequest(cmd),
		Mode:          mode,
		TargetDir:     targetDir,
	})
	if len(report.Checks) > 0 {
		renderReport(cmd.OutOrStdout(), report)
	}
	return err
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	if configured := viper.GetString(key); configured != "" {
		return configured
	}
	return value
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
