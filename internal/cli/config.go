package cli

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"firmware-sources/internal/app"
	"firmware-sources/internal/shared"
)

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <section> <key>",
		Short: "Print one value from the sources document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), cmd, args[0], args[1])
		},
	}
}

func runGet(ctx context.Context, cmd *cobra.Command, section string, key string) error {
	service := newAppService()
	result, err := service.Lookup(ctx, app.LookupRequest{
		ConfigRequest: configRequest(cmd),
		Section:       section,
		Key:           key,
	})
	if err != nil {
		return err
	}
	if !result.Found {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("key not set: [%s] %s", section, key))
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Value)
	return nil
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <section>",
		Short: "List the keys of one section in document order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cmd, args[0])
		},
	}
}

func runList(ctx context.Context, cmd *cobra.Command, section string) error {
	service := newAppService()
	keys, err := service.ListKeys(ctx, app.ListKeysRequest{
		ConfigRequest: configRequest(cmd),
		Section:       section,
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), key)
	}
	return nil
}

func newIntegrityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "integrity",
		Short: "Report keys declared more than once in a section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIntegrity(cmd.Context(), cmd)
		},
	}
}

func runIntegrity(ctx context.Context, cmd *cobra.Command) error {
	service := newAppService()
	result, err := service.Integrity(ctx, configRequest(cmd))
	if err != nil {
		return err
	}
	if duplicates := renderIntegrity(cmd.OutOrStdout(), result); duplicates > 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("%s: %d duplicate keys", shared.KindValidationMismatch, duplicates))
	}
	return nil
}
