package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/scttfrdmn/ashuf/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeEC2 serves pages keyed by the request's NextToken
type fakeEC2 struct {
	pages    map[string]*ec2.DescribeInstancesOutput
	failures int
	calls    int
}

func (f *fakeEC2) DescribeInstances(_ context.Context, input *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("throttled")
	}
	page, ok := f.pages[aws.ToString(input.NextToken)]
	if !ok {
		return nil, errors.New("unexpected token")
	}
	return page, nil
}

func instance(id, privateIP string, tags ...types.Tag) types.Instance {
	launched := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return types.Instance{
		InstanceId:       aws.String(id),
		State:            &types.InstanceState{Name: types.InstanceStateNameRunning},
		LaunchTime:       &launched,
		Placement:        &types.Placement{AvailabilityZone: aws.String("us-east-1a")},
		ImageId:          aws.String("ami-123"),
		PrivateIpAddress: aws.String(privateIP),
		Tags:             tags,
	}
}

func nameTag(value string) types.Tag {
	return types.Tag{Key: aws.String("Name"), Value: aws.String(value)}
}

func newTestClient(t *testing.T, api ec2.DescribeInstancesAPIClient, maxTries uint) *Client {
	client := NewClientFromAPI(zaptest.NewLogger(t), api, "us-east-1", maxTries)
	client.retryInterval = time.Millisecond
	return client
}

func idsOf(t *testing.T, raw []normalize.RawInstance) []string {
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		id, ok := r.InstanceID()
		require.True(t, ok)
		ids = append(ids, id)
	}
	return ids
}

func TestClient_FetchInstances_FlattensPagesAndReservations(t *testing.T) {
	api := &fakeEC2{pages: map[string]*ec2.DescribeInstancesOutput{
		"": {
			Reservations: []types.Reservation{
				{Instances: []types.Instance{instance("i-1", "10.0.0.1"), instance("i-2", "10.0.0.2")}},
				{Instances: []types.Instance{instance("i-3", "10.0.0.3")}},
			},
			NextToken: aws.String("page-2"),
		},
		"page-2": {
			Reservations: []types.Reservation{
				{Instances: []types.Instance{instance("i-4", "10.0.0.4")}},
			},
		},
	}}

	raw, err := newTestClient(t, api, 1).FetchInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"i-1", "i-2", "i-3", "i-4"}, idsOf(t, raw))
	assert.Equal(t, 2, api.calls)
}

func TestClient_FetchInstances_EmptyRegion(t *testing.T) {
	api := &fakeEC2{pages: map[string]*ec2.DescribeInstancesOutput{"": {}}}

	raw, err := newTestClient(t, api, 1).FetchInstances(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestClient_FetchInstances_Retries(t *testing.T) {
	api := &fakeEC2{
		failures: 1,
		pages: map[string]*ec2.DescribeInstancesOutput{
			"": {Reservations: []types.Reservation{{Instances: []types.Instance{instance("i-1", "10.0.0.1")}}}},
		},
	}

	raw, err := newTestClient(t, api, 2).FetchInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"i-1"}, idsOf(t, raw))
	assert.Equal(t, 2, api.calls)
}

func TestClient_FetchInstances_GivesUp(t *testing.T) {
	api := &fakeEC2{failures: 10}

	_, err := newTestClient(t, api, 3).FetchInstances(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to describe instances in us-east-1")
	assert.Equal(t, 3, api.calls)
}

func TestClient_FetchInstances_ZeroTriesMeansOne(t *testing.T) {
	api := &fakeEC2{failures: 10}

	_, err := newTestClient(t, api, 0).FetchInstances(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, api.calls)
}

func TestClient_Region(t *testing.T) {
	assert.Equal(t, "us-east-1", newTestClient(t, &fakeEC2{}, 1).Region())
}
