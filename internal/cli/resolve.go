package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"firmware-sources/internal/app"
)

func newRepoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repo <name>",
		Short: "Print the url, ref and remote of a configured repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepo(cmd.Context(), cmd, args[0])
		},
	}
}

func runRepo(ctx context.Context, cmd *cobra.Command, name string) error {
	service := newAppService()
	repo, err := service.ResolveRepository(ctx, app.RepositoryRequest{
		ConfigRequest: configRequest(cmd),
		Name:          name,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "url=%s\n", repo.URL)
	fmt.Fprintf(out, "ref=%s\n", repo.Ref)
	fmt.Fprintf(out, "remote=%s\n", repo.Remote)
	return nil
}

func newSourceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "source <package> [mode]",
		Short: "Resolve where a package's source comes from",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := ""
			if len(args) == 2 {
				mode = args[1]
			}
			return runSource(cmd.Context(), cmd, args[0], mode)
		},
	}
}

func runSource(ctx context.Context, cmd *cobra.Command, pkg string, mode string) error {
	service := newAppService()
	spec, err := service.ResolveSource(ctx, app.SourceRequest{
		ConfigRequest: configRequest(cmd),
		Package:       pkg,
		Mode:          mode,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), spec.String())
	return nil
}
