package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/scttfrdmn/ashuf/internal/matcher"
	"github.com/scttfrdmn/ashuf/internal/session"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes environment variable overrides, e.g. ASHUF_CACHE_TTL=10m
const EnvPrefix = "ASHUF"

// ErrUnknownEnvironment is returned when a named environment is not configured
var ErrUnknownEnvironment = errors.New("unknown environment")

// Config represents the complete application configuration
type Config struct {
	AWS           AWSConfig                    `mapstructure:"aws"`
	Cache         CacheConfig                  `mapstructure:"cache"`
	Match         MatchConfig                  `mapstructure:"match"`
	SSH           SSHConfig                    `mapstructure:"ssh"`
	Logging       LoggingConfig                `mapstructure:"logging"`
	Environments  map[string]EnvironmentConfig `mapstructure:"environments"`
	AccountEnvVar string                       `mapstructure:"account_env_var" validate:"required"`
	DefaultRegion string                       `mapstructure:"default_region" validate:"required"`
}

// AWSConfig contains AWS-specific configuration
type AWSConfig struct {
	AuthenticationMethod string `mapstructure:"authentication_method" validate:"oneof=default profile assume_role access_keys instance_profile"`
	Profile              string `mapstructure:"profile"`
	RetryMaxAttempts     int    `mapstructure:"retry_max_attempts" validate:"gte=0"`
	RetryMode            string `mapstructure:"retry_mode" validate:"omitempty,oneof=standard adaptive"`

	// Whole-fetch attempts on top of the SDK's per-request retries
	FetchMaxTries uint `mapstructure:"fetch_max_tries" validate:"gte=1"`

	AssumeRole *AssumeRoleConfig `mapstructure:"assume_role"`
	AccessKeys *AccessKeysConfig `mapstructure:"access_keys"`
}

// AssumeRoleConfig contains STS AssumeRole configuration
type AssumeRoleConfig struct {
	RoleARN         string `mapstructure:"role_arn" validate:"required"`
	SessionName     string `mapstructure:"session_name"`
	DurationSeconds int32  `mapstructure:"duration_seconds"`
	ExternalID      string `mapstructure:"external_id"`
}

// AccessKeysConfig contains static access key configuration (DISCOURAGED)
type AccessKeysConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id" validate:"required"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required"`
	SessionToken    string `mapstructure:"session_token"`
}

// CacheConfig controls the on-disk instance cache
type CacheConfig struct {
	Dir string        `mapstructure:"dir" validate:"required"`
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// MatchConfig controls which tags a pattern is applied to
type MatchConfig struct {
	TagKeys []string `mapstructure:"tag_keys" validate:"min=1,dive,required"`
}

// SSHConfig controls how a session to the chosen instance is started
type SSHConfig struct {
	Path        string `mapstructure:"path" validate:"required"`
	User        string `mapstructure:"user"`
	UsePublicIP bool   `mapstructure:"use_public_ip"`
}

// EnvironmentConfig names an account and region. Empty fields fall back to
// the account environment variable and the default region.
type EnvironmentConfig struct {
	AccountID  string `mapstructure:"account_id"`
	Region     string `mapstructure:"region"`
	SSHOptions string `mapstructure:"ssh_options"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"` // "json" or "text"
}

var (
	accountIDPattern = regexp.MustCompile(`^\d{12}$`)
	regionPattern    = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d+$`)
)

// DefaultPath returns the config file used when none is given
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ashuf", "config.yaml")
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	return load(configPath, false)
}

// LoadOptional is Load, except a missing file yields the defaults
func LoadOptional(configPath string) (*Config, error) {
	return load(configPath, true)
}

func load(configPath string, optional bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !optional || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalize(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("aws.authentication_method", "default")
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.retry_max_attempts", 3)
	v.SetDefault("aws.retry_mode", "standard")
	v.SetDefault("aws.fetch_max_tries", 2)

	v.SetDefault("cache.dir", os.TempDir())
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("match.tag_keys", append([]string(nil), matcher.DefaultTagKeys...))

	v.SetDefault("ssh.path", session.DefaultSSHPath)
	v.SetDefault("ssh.user", "")
	v.SetDefault("ssh.use_public_ip", false)

	v.SetDefault("account_env_var", "AWS_ACCOUNT_ID")
	v.SetDefault("default_region", "us-east-1")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
}

// normalize trims and lower-cases values that are compared by name
func normalize(config *Config) {
	config.AWS.AuthenticationMethod = strings.ToLower(strings.TrimSpace(config.AWS.AuthenticationMethod))
	config.Logging.Level = strings.ToLower(strings.TrimSpace(config.Logging.Level))
	config.Logging.Format = strings.ToLower(strings.TrimSpace(config.Logging.Format))

	for i, key := range config.Match.TagKeys {
		config.Match.TagKeys[i] = strings.TrimSpace(key)
	}

	for name, env := range config.Environments {
		env.AccountID = strings.TrimSpace(env.AccountID)
		env.Region = strings.TrimSpace(env.Region)
		config.Environments[name] = env
	}
}

// validate performs struct tag validation followed by cross-field checks
func validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}
	if err := validateAWS(&config.AWS); err != nil {
		return err
	}
	if !regionPattern.MatchString(config.DefaultRegion) {
		return fmt.Errorf("default_region %q is not a valid AWS region", config.DefaultRegion)
	}
	for name, env := range config.Environments {
		if err := validateEnvironment(name, env); err != nil {
			return err
		}
	}
	return nil
}

// validateAWS validates AWS configuration
func validateAWS(aws *AWSConfig) error {
	switch aws.AuthenticationMethod {
	case "profile":
		if aws.Profile == "" {
			return fmt.Errorf("aws.profile is required for profile authentication")
		}
	case "assume_role":
		if aws.AssumeRole == nil {
			return fmt.Errorf("aws.assume_role is required for assume_role authentication")
		}
	case "access_keys":
		if aws.AccessKeys == nil {
			return fmt.Errorf("aws.access_keys is required for access_keys authentication")
		}
	}
	return nil
}

// validateEnvironment validates one named environment
func validateEnvironment(name string, env EnvironmentConfig) error {
	if env.AccountID != "" && !accountIDPattern.MatchString(env.AccountID) {
		return fmt.Errorf("environments.%s.account_id must be a 12 digit AWS account id", name)
	}
	if env.Region != "" && !regionPattern.MatchString(env.Region) {
		return fmt.Errorf("environments.%s.region %q is not a valid AWS region", name, env.Region)
	}
	return nil
}

// Environment returns the named environment with the default region filled in.
// An empty name yields an environment with only the default region.
// Names are matched case-insensitively.
func (c *Config) Environment(name string) (EnvironmentConfig, error) {
	env := EnvironmentConfig{}
	if name != "" {
		found, ok := c.Environments[strings.ToLower(name)]
		if !ok {
			return EnvironmentConfig{}, fmt.Errorf("%w %q (configured: %s)",
				ErrUnknownEnvironment, name, strings.Join(c.EnvironmentNames(), ", "))
		}
		env = found
	}
	if env.Region == "" {
		env.Region = c.DefaultRegion
	}
	return env, nil
}

// EnvironmentNames returns the configured environment names, sorted
func (c *Config) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetupLogger creates a zap logger with the configured settings.
// Output goes to stderr so it never mixes with command output.
func (c *Config) SetupLogger() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	var config zap.Config
	switch c.Logging.Format {
	case "json":
		config = zap.NewProductionConfig()
	default:
		config = zap.NewDevelopmentConfig()
		config.Encoding = "console"
		config.DisableStacktrace = true
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}
