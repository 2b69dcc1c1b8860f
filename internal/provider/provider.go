// Package provider defines the query/command surface the deployment monitor
// needs from an application-hosting provider. Implementations live in
// subpackages; the monitor depends on this contract only.
package provider

import (
	"context"
	"time"

	"github.com/narvanalabs/eb-deploy/internal/models"
)

// Client is the adapter surface over the hosting provider.
//
// FetchSnapshot and FetchEvents are pure reads and must be safe to call
// repeatedly. TriggerUpdate is issued exactly once, at monitor start.
type Client interface {
	// TriggerUpdate asks the provider to move the environment to the
	// given application version.
	TriggerUpdate(ctx context.Context, app, env, versionLabel string) error

	// FetchSnapshot returns the current status of the environment.
	FetchSnapshot(ctx context.Context, app, env string) (models.StatusSnapshot, error)

	// FetchEvents returns events emitted at or after since. Windows may
	// overlap previous fetches; callers de-duplicate. Order is not
	// guaranteed.
	FetchEvents(ctx context.Context, app, env string, since time.Time) ([]models.EventRecord, error)
}
