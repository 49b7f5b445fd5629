package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/cenkalti/backoff/v5"
	"github.com/scttfrdmn/ashuf/internal/config"
	"github.com/scttfrdmn/ashuf/internal/normalize"
	"go.uber.org/zap"
)

const defaultRetryInterval = 500 * time.Millisecond

// Client fetches the instances of one region
type Client struct {
	logger    *zap.Logger
	ec2Client ec2.DescribeInstancesAPIClient
	awsConfig aws.Config
	region    string

	maxTries      uint
	retryInterval time.Duration
}

// NewClient creates a new EC2 client for region using the configured authentication method
func NewClient(ctx context.Context, logger *zap.Logger, awsConfig *config.AWSConfig, region string) (*Client, error) {
	cfg, err := NewAuthenticationProvider(logger, awsConfig).GetAWSConfig(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("failed to configure AWS authentication: %w", err)
	}

	client := NewClientFromAPI(logger, ec2.NewFromConfig(cfg), region, awsConfig.FetchMaxTries)
	client.awsConfig = cfg
	return client, nil
}

// NewClientFromAPI creates a client around an existing DescribeInstances API
func NewClientFromAPI(logger *zap.Logger, api ec2.DescribeInstancesAPIClient, region string, maxTries uint) *Client {
	if maxTries == 0 {
		maxTries = 1
	}
	return &Client{
		logger:        logger,
		ec2Client:     api,
		region:        region,
		maxTries:      maxTries,
		retryInterval: defaultRetryInterval,
	}
}

// Region returns the region the client queries
func (c *Client) Region() string {
	return c.region
}

// FetchInstances returns every instance in the region across all pages and
// reservations. A failed page restarts the whole listing, so a result is
// never assembled from two different listings.
func (c *Client) FetchInstances(ctx context.Context) ([]normalize.RawInstance, error) {
	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.InitialInterval = c.retryInterval

	instances, err := backoff.Retry(ctx, func() ([]normalize.RawInstance, error) {
		return c.describeAll(ctx)
	},
		backoff.WithBackOff(retryPolicy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("Describe instances failed, retrying",
				zap.String("region", c.region),
				zap.Duration("retry_in", next),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to describe instances in %s: %w", c.region, err)
	}

	c.logger.Debug("Described instances",
		zap.String("region", c.region),
		zap.Int("count", len(instances)))

	return instances, nil
}

func (c *Client) describeAll(ctx context.Context) ([]normalize.RawInstance, error) {
	var instances []normalize.RawInstance

	paginator := ec2.NewDescribeInstancesPaginator(c.ec2Client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instancesOf(page.Reservations)...)
	}

	return instances, nil
}

// AccountID returns the account of the client's credentials
func (c *Client) AccountID(ctx context.Context) (string, error) {
	return CallerAccountID(ctx, c.awsConfig)
}
