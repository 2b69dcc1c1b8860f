// Package beanstalk implements the provider contract against AWS Elastic
// Beanstalk using the v2 SDK.
package beanstalk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk/types"
	"github.com/aws/smithy-go"

	"github.com/narvanalabs/eb-deploy/internal/models"
	"github.com/narvanalabs/eb-deploy/internal/provider"
)

// api is the slice of the Elastic Beanstalk API the client uses.
type api interface {
	UpdateEnvironment(ctx context.Context, params *elasticbeanstalk.UpdateEnvironmentInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.UpdateEnvironmentOutput, error)
	DescribeEnvironments(ctx context.Context, params *elasticbeanstalk.DescribeEnvironmentsInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.DescribeEnvironmentsOutput, error)
	DescribeEvents(ctx context.Context, params *elasticbeanstalk.DescribeEventsInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.DescribeEventsOutput, error)
}

// Client adapts the Elastic Beanstalk API to the provider contract.
type Client struct {
	api           api
	severityFloor ebtypes.EventSeverity
}

// Option configures a Client.
type Option func(*Client)

// WithSeverityFloor sets the minimum severity requested from the events API.
func WithSeverityFloor(severity models.Severity) Option {
	return func(c *Client) {
		c.severityFloor = ebtypes.EventSeverity(severity)
	}
}

// New creates a provider client from a resolved AWS config.
func New(cfg aws.Config, opts ...Option) *Client {
	c := &Client{
		api:           elasticbeanstalk.NewFromConfig(cfg),
		severityFloor: ebtypes.EventSeverityInfo,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TriggerUpdate asks Elastic Beanstalk to move the environment to the
// given application version.
func (c *Client) TriggerUpdate(ctx context.Context, app, env, versionLabel string) error {
	_, err := c.api.UpdateEnvironment(ctx, &elasticbeanstalk.UpdateEnvironmentInput{
		ApplicationName: aws.String(app),
		EnvironmentName: aws.String(env),
		VersionLabel:    aws.String(versionLabel),
	})
	if err != nil {
		return classify(fmt.Errorf("update environment %s: %w", env, err))
	}
	return nil
}

// FetchSnapshot returns the current status of the environment.
func (c *Client) FetchSnapshot(ctx context.Context, app, env string) (models.StatusSnapshot, error) {
	out, err := c.api.DescribeEnvironments(ctx, &elasticbeanstalk.DescribeEnvironmentsInput{
		ApplicationName:  aws.String(app),
		EnvironmentNames: []string{env},
		IncludeDeleted:   aws.Bool(false),
	})
	if err != nil {
		return models.StatusSnapshot{}, classify(fmt.Errorf("describe environment %s: %w", env, err))
	}
	if len(out.Environments) == 0 {
		return models.StatusSnapshot{}, fmt.Errorf("environment %s: %w", env, provider.ErrNotFound)
	}

	return snapshotFromDescription(out.Environments[0]), nil
}

// FetchEvents returns events emitted at or after since. Elastic Beanstalk
// returns events newest first; callers de-duplicate and re-order.
func (c *Client) FetchEvents(ctx context.Context, app, env string, since time.Time) ([]models.EventRecord, error) {
	out, err := c.api.DescribeEvents(ctx, &elasticbeanstalk.DescribeEventsInput{
		ApplicationName: aws.String(app),
		EnvironmentName: aws.String(env),
		StartTime:       aws.Time(since),
		Severity:        c.severityFloor,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("describe events for %s: %w", env, err))
	}

	events := make([]models.EventRecord, 0, len(out.Events))
	for _, ev := range out.Events {
		events = append(events, eventFromDescription(ev))
	}
	return events, nil
}

// snapshotFromDescription normalizes a provider environment description.
func snapshotFromDescription(desc ebtypes.EnvironmentDescription) models.StatusSnapshot {
	snap := models.StatusSnapshot{
		VersionLabel: aws.ToString(desc.VersionLabel),
		Status:       models.EnvironmentStatus(desc.Status),
		Health:       models.Health(desc.Health),
	}
	if desc.HealthStatus != "" {
		snap.HealthDetail = string(desc.HealthStatus)
	}
	if !snap.Health.IsValid() {
		snap.Health = models.HealthGrey
	}
	return snap
}

// eventFromDescription normalizes a provider event description.
func eventFromDescription(desc ebtypes.EventDescription) models.EventRecord {
	rec := models.EventRecord{
		Severity: models.Severity(desc.Severity),
		Message:  aws.ToString(desc.Message),
		SourceID: aws.ToString(desc.RequestId),
	}
	if desc.EventDate != nil {
		rec.Timestamp = *desc.EventDate
	}
	if !rec.Severity.IsValid() {
		rec.Severity = models.SeverityInfo
	}
	return rec
}

// Error codes the SDK surfaces for throttling across AWS services.
var throttleCodes = map[string]bool{
	"Throttling":               true,
	"ThrottlingException":      true,
	"TooManyRequestsException": true,
	"RequestLimitExceeded":     true,
}

// Error codes that indicate rejected credentials rather than a bad request.
var unauthorizedCodes = map[string]bool{
	"AccessDenied":                true,
	"AccessDeniedException":       true,
	"UnauthorizedOperation":       true,
	"InvalidClientTokenId":        true,
	"UnrecognizedClientException": true,
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
}

// classify wraps an SDK error with the matching adapter error kind so the
// monitor can decide between retry and abort with errors.Is.
func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case throttleCodes[code]:
			return fmt.Errorf("%w: %w", provider.ErrThrottled, err)
		case unauthorizedCodes[code]:
			return fmt.Errorf("%w: %w", provider.ErrUnauthorized, err)
		case code == "ResourceNotFoundException":
			return fmt.Errorf("%w: %w", provider.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%w: %w", provider.ErrTransient, err)
}
