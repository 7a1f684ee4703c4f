package cli

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"firmware-sources/internal/app"
)

func newApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <mode> <targetDir>",
		Short: "Patch package manifests in a build tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), cmd, args[0], args[1])
		},
	}
}

func runApply(ctx context.Context, cmd *cobra.Command, mode string, targetDir string) error {
	service := newAppService()
	result, err := service.Apply(ctx, app.ApplyRequest{
		ConfigRequest: configRequest(cmd),
		Mode:          mode,
		TargetDir:     targetDir,
	})
	if err != nil {
		return err
	}
	renderPatchResult(cmd.OutOrStdout(), result)
	if result.Failed > 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("%d of %d packages failed to patch", result.Failed, len(result.Packages)))
	}
	return nil
}

func newRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <targetDir>",
		Short: "Put every patched manifest back to its pristine copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd.Context(), cmd, args[0])
		},
	}
}

func runRestore(ctx context.Context, cmd *cobra.Command, targetDir string) error {
	service := newAppService()
	result, err := service.Restore(ctx, app.RestoreRequest{TargetDir: targetDir})
	if err == nil || len(result.Restored)+len(result.Discarded) > 0 {
		renderRestoreResult(cmd.OutOrStdout(), result)
	}
	return err
}
