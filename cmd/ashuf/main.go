package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/scttfrdmn/ashuf/internal/cli"
	"github.com/scttfrdmn/ashuf/internal/selector"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flags     cli.Flags
	printOnly bool
	usePublic bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ashuf [flags] <pattern>",
		Short: "SSH to a random EC2 instance whose tags match a pattern",
		Long: `Pick one EC2 instance at random among those whose tags match a regular
expression and open an ssh session to it.

The private address is used unless ssh.use_public_ip or --public is set; when
the preferred address family is missing the other one is used.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          shuffle,
	}

	flags.Register(rootCmd)
	rootCmd.Flags().BoolVar(&printOnly, "print", false, "Print the chosen address instead of running ssh")
	rootCmd.Flags().BoolVarP(&usePublic, "public", "p", false, "Prefer the public address")

	if err := rootCmd.Execute(); err != nil {
		// Pass the remote session's status through untouched
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func shuffle(cmd *cobra.Command, args []string) error {
	ctx, cancel := flags.Context(cmd.Context())
	defer cancel()

	rt, err := cli.Setup(ctx, &flags)
	if err != nil {
		return fmt.Errorf("failed to set up: %w", err)
	}
	defer rt.Logger.Sync()

	pattern := args[0]
	instance, err := rt.Service.Pick(ctx, rt.Options(pattern), nil)
	if errors.Is(err, selector.ErrEmptySet) {
		return fmt.Errorf("no instance matched pattern %q", pattern)
	}
	if err != nil {
		return err
	}

	address, ok := instance.Address(usePublic || rt.Config.SSH.UsePublicIP)
	if !ok {
		return fmt.Errorf("instance %s (%s) has no address", instance.InstanceID, instance.Name())
	}

	rt.Logger.Info("Selected instance",
		zap.String("instance_id", instance.InstanceID),
		zap.String("name", instance.Name()),
		zap.String("address", address))

	if printOnly {
		fmt.Fprintln(cmd.OutOrStdout(), address)
		return nil
	}

	launcher, err := rt.Launcher()
	if err != nil {
		return err
	}
	// ssh runs without the lookup deadline
	return launcher.Run(cmd.Context(), address)
}
