//go:build integration
// +build integration

package aws

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/scttfrdmn/ashuf/internal/config"
	"github.com/scttfrdmn/ashuf/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// TestFetchInstancesLive lists a real region and normalizes the result
func TestFetchInstancesLive(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		t.Skip("Skipping integration test - AWS_REGION not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger := zaptest.NewLogger(t)
	client, err := NewClient(ctx, logger, &config.AWSConfig{
		AuthenticationMethod: string(AuthMethodDefault),
		RetryMaxAttempts:     3,
		FetchMaxTries:        2,
	}, region)
	require.NoError(t, err)

	raw, err := client.FetchInstances(ctx)
	require.NoError(t, err)

	records, err := normalize.Normalize(raw)
	require.NoError(t, err)
	for _, r := range records {
		assert.NotEmpty(t, r.InstanceID)
		assert.True(t, r.StateName.IsKnown(), "unexpected state %q", r.StateName)
	}

	account, err := client.AccountID(ctx)
	require.NoError(t, err)
	assert.Len(t, account, 12)

	t.Logf("Listed %d instances in %s for account %s", len(records), region, account)
}
