package main

import (
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/scttfrdmn/ashuf/internal/cache"
	"github.com/scttfrdmn/ashuf/internal/config"
	"github.com/scttfrdmn/ashuf/internal/session"
	"github.com/scttfrdmn/ashuf/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger *zap.Logger

func main() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to sync logger: %v\n", syncErr)
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "ashuf-validate",
		Short: "Validate ashuf configuration and cache files",
		Long: `Validate ashuf configuration files and on-disk instance caches
before relying on them.`,
	}

	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(cacheCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Validation failed", zap.Error(err))
		os.Exit(1)
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [config-file]",
		Short: "Validate an ashuf configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := args[0]

			logger.Info("Validating configuration file", zap.String("file", configFile))

			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}

			for _, name := range cfg.EnvironmentNames() {
				env, err := cfg.Environment(name)
				if err != nil {
					return err
				}
				if _, err := session.ParseOptions(env.SSHOptions); err != nil {
					return fmt.Errorf("environment %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, lo.Ternary(env.AccountID != "", env.AccountID, "-"), env.Region)
			}

			launcher := session.NewLauncher(logger, cfg.SSH.Path, cfg.SSH.User, nil)
			if version, err := launcher.Detect(cmd.Context()); err != nil {
				logger.Warn("ssh binary is not usable", zap.String("path", launcher.Path()), zap.Error(err))
			} else {
				logger.Info("ssh binary detected", zap.String("path", launcher.Path()), zap.String("version", version))
			}

			logger.Info("Configuration file is valid",
				zap.String("file", configFile),
				zap.String("authentication_method", cfg.AWS.AuthenticationMethod),
				zap.Strings("tag_keys", cfg.Match.TagKeys),
				zap.Int("environment_count", len(cfg.Environments)))

			return nil
		},
	}
}

func cacheCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "cache [cache-file]",
		Short: "Validate an instance cache file and report its freshness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheFile := args[0]

			logger.Info("Validating cache file", zap.String("file", cacheFile))

			envelope, err := cache.ReadFile(cacheFile)
			if err != nil {
				return fmt.Errorf("cache validation failed: %w", err)
			}

			if err := validateRecords(envelope.InstanceData); err != nil {
				return fmt.Errorf("cache incomplete: %w", err)
			}

			now := time.Now()
			logger.Info("Cache file is valid",
				zap.String("file", cacheFile),
				zap.Int("version", envelope.Version),
				zap.Int("instances", len(envelope.InstanceData)),
				zap.Time("written_time", envelope.WrittenTime),
				zap.Duration("age", envelope.Age(now).Round(time.Second)),
				zap.Bool("fresh", cache.IsFresh(envelope, ttl, now)))

			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 5*time.Minute, "Lifetime to judge freshness against")
	return cmd
}

// validateRecords checks what normalization guarantees for every cached record
func validateRecords(records []types.InstanceRecord) error {
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		switch {
		case r.InstanceID == "":
			return fmt.Errorf("record %d has no instance_id", i)
		case seen[r.InstanceID]:
			return fmt.Errorf("instance %s is listed twice", r.InstanceID)
		case r.StateName == "" || r.LaunchTime == "" || r.AvailabilityZone == "" || r.ImageAMI == "":
			return fmt.Errorf("instance %s is missing required fields", r.InstanceID)
		case !r.StateName.IsKnown():
			logger.Warn("Unknown instance state",
				zap.String("instance_id", r.InstanceID),
				zap.String("state", string(r.StateName)))
		}
		seen[r.InstanceID] = true
	}
	return nil
}
