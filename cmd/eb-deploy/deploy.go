package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"

	"github.com/narvanalabs/eb-deploy/internal/models"
	"github.com/narvanalabs/eb-deploy/internal/monitor"
	"github.com/narvanalabs/eb-deploy/internal/provider"
	"github.com/narvanalabs/eb-deploy/internal/provider/beanstalk"
	"github.com/narvanalabs/eb-deploy/internal/shutdown"
	"github.com/narvanalabs/eb-deploy/pkg/config"
	"github.com/narvanalabs/eb-deploy/pkg/logger"
)

// deployCommand triggers an environment update and monitors it.
type deployCommand struct {
	opts *rootOptions

	ApplicationName string `short:"a" long:"application-name" required:"true" description:"application which owns the target environment"`
	EnvironmentName string `short:"e" long:"environment-name" required:"true" description:"environment which should be updated"`
	VersionLabel    string `short:"v" long:"version-label" required:"true" description:"application version to apply to the environment"`

	PollInterval    *time.Duration `long:"poll-interval" description:"cadence between status polls"`
	Timeout         *time.Duration `long:"timeout" description:"overall monitoring budget"`
	StabilityWindow *time.Duration `long:"stability-window" description:"how long success must hold before it counts"`
	FailureGrace    *time.Duration `long:"failure-grace" description:"how long Red health is tolerated"`
	HealthCriterion string         `long:"health-criterion" choice:"must-green" choice:"no-red" description:"health confirmation rule"`
}

// Execute implements flags.Commander.
func (c *deployCommand) Execute(_ []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return &exitError{code: monitor.ExitError, err: err}
	}

	level := slog.LevelInfo
	if c.opts.Debug || cfg.Log.Debug {
		level = slog.LevelDebug
	}
	log := logger.New(os.Stderr, level, c.opts.LogJSON || cfg.Log.JSON).WithRunID(uuid.NewString())

	ctx, cancel := shutdown.WithSignals(context.Background(), log.Logger)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return &exitError{code: monitor.ExitError, err: fmt.Errorf("load AWS config: %w", err)}
	}

	severity := models.Severity(cfg.Monitor.EventSeverityFloor)
	client := beanstalk.New(awsCfg, beanstalk.WithSeverityFloor(severity))

	mon := monitor.New(monitor.Config{
		ApplicationName: c.ApplicationName,
		EnvironmentName: c.EnvironmentName,
		VersionLabel:    c.VersionLabel,
		PollInterval:    cfg.Monitor.PollInterval,
		Timeout:         cfg.Monitor.Timeout,
		StabilityTicks:  cfg.Monitor.StabilityTicks(),
		FailureGrace:    cfg.Monitor.FailureGrace,
		EventLookback:   cfg.Monitor.EventLookback,
		SeverityFloor:   severity,
		Criterion:       monitor.HealthCriterion(cfg.Monitor.HealthCriterion),
		Retry: provider.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
	}, client,
		monitor.WithLogger(log.Logger),
		monitor.WithEventSink(func(ev models.EventRecord) {
			fmt.Println(ev.Format())
		}),
	)

	verdict, err := mon.Run(ctx)
	if err != nil {
		log.WithError(err).Error("deployment monitoring aborted")
		return &exitError{code: monitor.ExitError, err: err}
	}

	fmt.Println(monitor.Summarize(verdict))
	if code := monitor.ExitCode(verdict); code != monitor.ExitSucceeded {
		return &exitError{code: code, err: fmt.Errorf("deployment %s", verdict.Kind)}
	}
	return nil
}

// loadConfig resolves env config, the optional overrides file, and flag
// overrides, in that order of precedence (later wins).
func (c *deployCommand) loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if c.opts.ConfigFile != "" {
		if err := cfg.MergeFile(c.opts.ConfigFile); err != nil {
			return nil, err
		}
	}

	if c.PollInterval != nil {
		cfg.Monitor.PollInterval = *c.PollInterval
	}
	if c.Timeout != nil {
		cfg.Monitor.Timeout = *c.Timeout
	}
	if c.StabilityWindow != nil {
		cfg.Monitor.StabilityWindow = *c.StabilityWindow
	}
	if c.FailureGrace != nil {
		cfg.Monitor.FailureGrace = *c.FailureGrace
	}
	if c.HealthCriterion != "" {
		cfg.Monitor.HealthCriterion = c.HealthCriterion
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
