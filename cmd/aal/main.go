package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/scttfrdmn/ashuf/internal/cli"
	"github.com/scttfrdmn/ashuf/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flags        cli.Flags
	outputFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aal [flags] <pattern>",
		Short: "List EC2 instances whose tags match a pattern",
		Long: `List the EC2 instances of an account and region whose tags match a regular
expression. Tags are tried in priority order (Name, then Tier by default) and
each instance is listed at most once.

Instance listings are cached on disk for a few minutes; use --no-cache to
force a fresh listing.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         listInstances,
	}

	flags.Register(rootCmd)
	rootCmd.Flags().StringVarP(&outputFormat, "output", "m", string(output.FormatJSON),
		fmt.Sprintf("Output format: %v", output.Formats))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func listInstances(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	ctx, cancel := flags.Context(cmd.Context())
	defer cancel()

	rt, err := cli.Setup(ctx, &flags)
	if err != nil {
		return fmt.Errorf("failed to set up: %w", err)
	}
	defer rt.Logger.Sync()

	matches, err := rt.Service.Matches(ctx, rt.Options(args[0]))
	if err != nil {
		return err
	}
	rt.Logger.Debug("Listing matches", zap.Int("count", len(matches)), zap.String("format", string(format)))

	if err := output.Write(cmd.OutOrStdout(), format, matches); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if len(matches) == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("lookup timed out after %s", flags.Timeout)
	}
	return nil
}
