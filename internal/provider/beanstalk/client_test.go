package beanstalk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narvanalabs/eb-deploy/internal/models"
	"github.com/narvanalabs/eb-deploy/internal/provider"
)

// fakeAPI scripts Elastic Beanstalk API responses.
type fakeAPI struct {
	updateErr error

	describeEnvs    *elasticbeanstalk.DescribeEnvironmentsOutput
	describeEnvsErr error

	describeEvents    *elasticbeanstalk.DescribeEventsOutput
	describeEventsErr error
	lastEventsInput   *elasticbeanstalk.DescribeEventsInput
}

func (f *fakeAPI) UpdateEnvironment(ctx context.Context, params *elasticbeanstalk.UpdateEnvironmentInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.UpdateEnvironmentOutput, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &elasticbeanstalk.UpdateEnvironmentOutput{}, nil
}

func (f *fakeAPI) DescribeEnvironments(ctx context.Context, params *elasticbeanstalk.DescribeEnvironmentsInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.DescribeEnvironmentsOutput, error) {
	if f.describeEnvsErr != nil {
		return nil, f.describeEnvsErr
	}
	return f.describeEnvs, nil
}

func (f *fakeAPI) DescribeEvents(ctx context.Context, params *elasticbeanstalk.DescribeEventsInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.DescribeEventsOutput, error) {
	f.lastEventsInput = params
	if f.describeEventsErr != nil {
		return nil, f.describeEventsErr
	}
	return f.describeEvents, nil
}

func clientWith(api *fakeAPI) *Client {
	return &Client{api: api, severityFloor: ebtypes.EventSeverityInfo}
}

func TestFetchSnapshotNormalizesDescription(t *testing.T) {
	api := &fakeAPI{
		describeEnvs: &elasticbeanstalk.DescribeEnvironmentsOutput{
			Environments: []ebtypes.EnvironmentDescription{{
				VersionLabel: aws.String("app-v42"),
				Status:       ebtypes.EnvironmentStatusUpdating,
				Health:       ebtypes.EnvironmentHealthYellow,
				HealthStatus: ebtypes.EnvironmentHealthStatusDegraded,
			}},
		},
	}

	snap, err := clientWith(api).FetchSnapshot(context.Background(), "shop", "shop-prod")

	require.NoError(t, err)
	assert.Equal(t, "app-v42", snap.VersionLabel)
	assert.Equal(t, models.EnvironmentStatusUpdating, snap.Status)
	assert.Equal(t, models.HealthYellow, snap.Health)
	assert.Equal(t, "Degraded", snap.HealthDetail)
}

func TestFetchSnapshotMissingEnvironmentIsNotFound(t *testing.T) {
	api := &fakeAPI{
		describeEnvs: &elasticbeanstalk.DescribeEnvironmentsOutput{},
	}

	_, err := clientWith(api).FetchSnapshot(context.Background(), "shop", "gone")

	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestFetchSnapshotUnknownHealthFallsBackToGrey(t *testing.T) {
	api := &fakeAPI{
		describeEnvs: &elasticbeanstalk.DescribeEnvironmentsOutput{
			Environments: []ebtypes.EnvironmentDescription{{
				VersionLabel: aws.String("app-v42"),
				Status:       ebtypes.EnvironmentStatusReady,
				Health:       ebtypes.EnvironmentHealth("Chartreuse"),
			}},
		},
	}

	snap, err := clientWith(api).FetchSnapshot(context.Background(), "shop", "shop-prod")

	require.NoError(t, err)
	assert.Equal(t, models.HealthGrey, snap.Health)
}

func TestFetchEventsMapsAndPassesCursor(t *testing.T) {
	ts := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		describeEvents: &elasticbeanstalk.DescribeEventsOutput{
			Events: []ebtypes.EventDescription{{
				EventDate: aws.Time(ts),
				Severity:  ebtypes.EventSeverityWarn,
				Message:   aws.String("Rolling batch paused"),
				RequestId: aws.String("req-1"),
			}},
		},
	}

	since := ts.Add(-time.Minute)
	events, err := clientWith(api).FetchEvents(context.Background(), "shop", "shop-prod", since)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ts, events[0].Timestamp)
	assert.Equal(t, models.SeverityWarn, events[0].Severity)
	assert.Equal(t, "Rolling batch paused", events[0].Message)
	assert.Equal(t, "req-1", events[0].SourceID)

	require.NotNil(t, api.lastEventsInput)
	assert.Equal(t, since, aws.ToTime(api.lastEventsInput.StartTime))
	assert.Equal(t, ebtypes.EventSeverityInfo, api.lastEventsInput.Severity)
}

func TestTriggerUpdateClassifiesThrottling(t *testing.T) {
	api := &fakeAPI{
		updateErr: &smithy.GenericAPIError{Code: "Throttling", Message: "Rate exceeded"},
	}

	err := clientWith(api).TriggerUpdate(context.Background(), "shop", "shop-prod", "app-v42")

	assert.ErrorIs(t, err, provider.ErrThrottled)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		code string
		want error
	}{
		{"throttling", "Throttling", provider.ErrThrottled},
		{"too many requests", "TooManyRequestsException", provider.ErrThrottled},
		{"access denied", "AccessDenied", provider.ErrUnauthorized},
		{"bad token", "InvalidClientTokenId", provider.ErrUnauthorized},
		{"not found", "ResourceNotFoundException", provider.ErrNotFound},
		{"anything else", "InternalFailure", provider.ErrTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{
				describeEnvsErr: &smithy.GenericAPIError{Code: tc.code, Message: tc.name},
			}
			_, err := clientWith(api).FetchSnapshot(context.Background(), "shop", "shop-prod")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPlainNetworkErrorIsTransient(t *testing.T) {
	api := &fakeAPI{describeEnvsErr: errors.New("dial tcp: connection refused")}

	_, err := clientWith(api).FetchSnapshot(context.Background(), "shop", "shop-prod")

	assert.ErrorIs(t, err, provider.ErrTransient)
}
