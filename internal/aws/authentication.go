package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ashufConfig "github.com/scttfrdmn/ashuf/internal/config"
	"go.uber.org/zap"
)

// AuthenticationMethod represents different AWS authentication approaches
type AuthenticationMethod string

const (
	AuthMethodDefault         AuthenticationMethod = "default"          // Default credential chain
	AuthMethodInstanceProfile AuthenticationMethod = "instance_profile" // EC2 instance profile
	AuthMethodProfile         AuthenticationMethod = "profile"          // Named AWS profile, including SSO profiles
	AuthMethodAssumeRole      AuthenticationMethod = "assume_role"      // STS AssumeRole
	AuthMethodAccessKeys      AuthenticationMethod = "access_keys"      // Static access keys (DISCOURAGED)
)

const defaultSessionName = "ashuf"

// AuthenticationProvider builds AWS configs for the configured authentication method
type AuthenticationProvider struct {
	logger *zap.Logger
	config *ashufConfig.AWSConfig
}

// NewAuthenticationProvider creates a new authentication provider
func NewAuthenticationProvider(logger *zap.Logger, awsConfig *ashufConfig.AWSConfig) *AuthenticationProvider {
	return &AuthenticationProvider{
		logger: logger,
		config: awsConfig,
	}
}

// Method returns the configured authentication method
func (a *AuthenticationProvider) Method() AuthenticationMethod {
	if a.config.AuthenticationMethod == "" {
		return AuthMethodDefault
	}
	return AuthenticationMethod(a.config.AuthenticationMethod)
}

// GetAWSConfig returns an AWS config for region using the configured authentication method
func (a *AuthenticationProvider) GetAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	a.logger.Debug("Configuring AWS authentication",
		zap.String("method", string(a.Method())),
		zap.String("region", region))

	switch a.Method() {
	case AuthMethodDefault:
		return a.load(ctx, region)
	case AuthMethodInstanceProfile:
		return a.load(ctx, region, config.WithEC2IMDSRegion())
	case AuthMethodProfile:
		return a.getProfileConfig(ctx, region)
	case AuthMethodAssumeRole:
		return a.getAssumeRoleConfig(ctx, region)
	case AuthMethodAccessKeys:
		return a.getAccessKeysConfig(ctx, region)
	default:
		return aws.Config{}, fmt.Errorf("unsupported authentication method: %s", a.Method())
	}
}

// baseOptions are shared by every authentication method
func (a *AuthenticationProvider) baseOptions(region string) []func(*config.LoadOptions) error {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if a.config.RetryMaxAttempts > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(a.config.RetryMaxAttempts))
	}
	if a.config.RetryMode != "" {
		opts = append(opts, config.WithRetryMode(aws.RetryMode(a.config.RetryMode)))
	}
	return opts
}

func (a *AuthenticationProvider) load(ctx context.Context, region string, extra ...func(*config.LoadOptions) error) (aws.Config, error) {
	opts := append(a.baseOptions(region), extra...)
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// getProfileConfig uses a named AWS profile
func (a *AuthenticationProvider) getProfileConfig(ctx context.Context, region string) (aws.Config, error) {
	profile := a.config.Profile
	if profile == "" {
		profile = "default"
	}

	a.logger.Debug("Using AWS profile authentication", zap.String("profile", profile))
	return a.load(ctx, region, config.WithSharedConfigProfile(profile))
}

// getAssumeRoleConfig uses STS AssumeRole on top of the default chain or profile
func (a *AuthenticationProvider) getAssumeRoleConfig(ctx context.Context, region string) (aws.Config, error) {
	role := a.config.AssumeRole
	if role == nil {
		return aws.Config{}, fmt.Errorf("assume_role configuration required")
	}

	a.logger.Debug("Using STS AssumeRole authentication",
		zap.String("role_arn", role.RoleARN),
		zap.String("session_name", role.SessionName))

	var baseOpts []func(*config.LoadOptions) error
	if a.config.Profile != "" {
		baseOpts = append(baseOpts, config.WithSharedConfigProfile(a.config.Profile))
	}
	baseCfg, err := a.load(ctx, region, baseOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load base config: %w", err)
	}

	provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(baseCfg), role.RoleARN, func(options *stscreds.AssumeRoleOptions) {
		options.RoleSessionName = role.SessionName
		if options.RoleSessionName == "" {
			options.RoleSessionName = defaultSessionName
		}
		if role.DurationSeconds > 0 {
			options.Duration = time.Duration(role.DurationSeconds) * time.Second
		}
		if role.ExternalID != "" {
			options.ExternalID = aws.String(role.ExternalID)
		}
	})

	baseCfg.Credentials = aws.NewCredentialsCache(provider)
	return baseCfg, nil
}

// getAccessKeysConfig uses static access keys (DISCOURAGED)
func (a *AuthenticationProvider) getAccessKeysConfig(ctx context.Context, region string) (aws.Config, error) {
	keys := a.config.AccessKeys
	if keys == nil {
		return aws.Config{}, fmt.Errorf("access_keys configuration required")
	}

	a.logger.Warn("Using static access keys",
		zap.String("recommendation", "use a profile, instance_profile or assume_role instead"))

	return a.load(ctx, region, config.WithCredentialsProvider(
		credentials.NewStaticCredentialsProvider(keys.AccessKeyID, keys.SecretAccessKey, keys.SessionToken)))
}

// CallerAccountID returns the account the configured credentials belong to
func CallerAccountID(ctx context.Context, cfg aws.Config) (string, error) {
	result, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %w", err)
	}
	return aws.ToString(result.Account), nil
}
