// Package cli holds the flags and runtime wiring shared by the ashuf and aal
// commands.
package cli

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/scttfrdmn/ashuf/internal/aws"
	"github.com/scttfrdmn/ashuf/internal/cache"
	"github.com/scttfrdmn/ashuf/internal/config"
	"github.com/scttfrdmn/ashuf/internal/lookup"
	"github.com/scttfrdmn/ashuf/internal/resolver"
	"github.com/scttfrdmn/ashuf/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DefaultAccountID keys the cache when no account can be determined
const DefaultAccountID = "default"

const defaultTimeout = 2 * time.Minute

// Flags are the command line options common to every lookup command
type Flags struct {
	ConfigFile string
	Env        string
	Region     string
	AccountEnv string
	TagKeys    []string
	NoCache    bool
	TTL        time.Duration
	CacheDir   string
	SSHPath    string
	Timeout    time.Duration
	Debug      bool
}

// Register adds the shared flags to cmd
func (f *Flags) Register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.ConfigFile, "config", "", "Configuration file path (default "+config.DefaultPath()+")")
	flags.StringVarP(&f.Env, "env", "e", "", "Named environment from the configuration file")
	flags.StringVarP(&f.Region, "region", "r", "", "AWS region, overrides the environment's region")
	flags.StringVar(&f.AccountEnv, "account-env", "", "Environment variable holding the account id (default from config)")
	flags.StringSliceVarP(&f.TagKeys, "tag", "t", nil, "Tag key to match against, repeatable, in priority order (default from config)")
	flags.BoolVarP(&f.NoCache, "no-cache", "c", false, "Ignore the instance cache and fetch live")
	flags.DurationVar(&f.TTL, "ttl", 0, "Instance cache lifetime (default from config)")
	flags.StringVar(&f.CacheDir, "cache-dir", "", "Instance cache directory (default from config)")
	flags.StringVarP(&f.SSHPath, "ssh-path", "s", "", "ssh binary or wrapper to run (default from config)")
	flags.DurationVar(&f.Timeout, "timeout", defaultTimeout, "Overall time limit for the lookup")
	flags.BoolVarP(&f.Debug, "debug", "d", false, "Enable debug logging")
}

// Runtime is everything a command needs once flags and configuration are merged
type Runtime struct {
	Logger      *zap.Logger
	Config      *config.Config
	Environment config.EnvironmentConfig
	Service     *lookup.Service

	options lookup.Options
}

// Setup loads configuration, applies flag overrides and wires the lookup
// service for one region.
func Setup(ctx context.Context, flags *Flags) (*Runtime, error) {
	cfg, err := loadConfig(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, flags)

	logger, err := cfg.SetupLogger()
	if err != nil {
		return nil, err
	}

	env, err := cfg.Environment(flags.Env)
	if err != nil {
		return nil, err
	}
	if flags.Region != "" {
		env.Region = flags.Region
	}

	client, err := aws.NewClient(ctx, logger, &cfg.AWS, env.Region)
	if err != nil {
		return nil, err
	}

	accountID := resolveAccountID(ctx, logger, env.AccountID, cfg.AccountEnvVar, os.LookupEnv, client.AccountID)
	env.AccountID = accountID

	store := cache.NewStore(logger, cfg.Cache.Dir)
	service := lookup.NewService(logger, resolver.New(logger, store), client.FetchInstances)

	logger.Debug("Lookup configured",
		zap.String("environment", flags.Env),
		zap.String("account_id", accountID),
		zap.String("region", env.Region),
		zap.String("cache_dir", store.Dir()),
		zap.Duration("ttl", cfg.Cache.TTL))

	return &Runtime{
		Logger:      logger,
		Config:      cfg,
		Environment: env,
		Service:     service,
		options: lookup.Options{
			AccountID:   accountID,
			Region:      env.Region,
			TTL:         cfg.Cache.TTL,
			BypassCache: flags.NoCache,
			TagKeys:     cfg.Match.TagKeys,
		},
	}, nil
}

// Options returns the lookup options for pattern
func (r *Runtime) Options(pattern string) lookup.Options {
	opts := r.options
	opts.Pattern = pattern
	return opts
}

// Launcher builds the ssh launcher for the selected environment
func (r *Runtime) Launcher() (*session.Launcher, error) {
	options, err := session.ParseOptions(r.Environment.SSHOptions)
	if err != nil {
		return nil, err
	}
	return session.NewLauncher(r.Logger, r.Config.SSH.Path, r.Config.SSH.User, options), nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadOptional(config.DefaultPath())
}

// applyOverrides lets explicitly set flags win over file and environment values
func applyOverrides(cfg *config.Config, flags *Flags) {
	if flags.Debug {
		cfg.Logging.Level = "debug"
	}
	if flags.AccountEnv != "" {
		cfg.AccountEnvVar = flags.AccountEnv
	}
	if flags.TTL > 0 {
		cfg.Cache.TTL = flags.TTL
	}
	if flags.CacheDir != "" {
		cfg.Cache.Dir = flags.CacheDir
	}
	if flags.SSHPath != "" {
		cfg.SSH.Path = flags.SSHPath
	}
	if keys := lo.Compact(lo.Map(flags.TagKeys, func(k string, _ int) string { return strings.TrimSpace(k) })); len(keys) > 0 {
		cfg.Match.TagKeys = keys
	}
}

// resolveAccountID picks the cache account id: configured value, then the
// account environment variable, then the caller identity, then DefaultAccountID
func resolveAccountID(
	ctx context.Context,
	logger *zap.Logger,
	configured, envVar string,
	lookupEnv func(string) (string, bool),
	callerAccount func(context.Context) (string, error),
) string {
	if configured != "" {
		return configured
	}
	if value, ok := lookupEnv(envVar); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}

	account, err := callerAccount(ctx)
	if err == nil && account != "" {
		return account
	}
	logger.Debug("Could not determine account id, using default",
		zap.String("env_var", envVar),
		zap.Error(err))
	return DefaultAccountID
}

// Context derives the command context, bounded by --timeout
func (f *Flags) Context(parent context.Context) (context.Context, context.CancelFunc) {
	if f.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, f.Timeout)
}
