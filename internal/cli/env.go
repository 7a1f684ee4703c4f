package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"firmware-sources/internal/app"
)

type envOptions struct {
	Format string
	Output string
}

func newEnvCommand() *cobra.Command {
	opts := envOptions{}
	cmd := &cobra.Command{
		Use:   "env [mode]",
		Short: "Generate the build environment for a mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := ""
			if len(args) == 1 {
				mode = args[0]
			}
			return runEnv(cmd.Context(), cmd, mode, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Format, "format", "env", "Output format (env, yaml, json)")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Write the environment to this file instead of stdout")
	_ = viper.BindPFlag("format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func runEnv(ctx context.Context, cmd *cobra.Command, mode string, opts envOptions) error {
	service := newAppService()
	result, err := service.Generate(ctx, app.EnvironmentRequest{
		ConfigRequest: configRequest(cmd),
		Mode:          mode,
		Format:        resolveString(cmd, opts.Format, "format", "format"),
		Output:        resolveString(cmd, opts.Output, "output", "output"),
	})
	if err != nil {
		return err
	}
	if result.Output != "" {
		return nil
	}
	_, err = cmd.OutOrStdout().Write(result.Rendered)
	return err
}
