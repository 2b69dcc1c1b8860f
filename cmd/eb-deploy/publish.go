package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"

	"github.com/narvanalabs/eb-deploy/internal/artifact"
	"github.com/narvanalabs/eb-deploy/internal/shutdown"
	"github.com/narvanalabs/eb-deploy/pkg/logger"
)

// publishCommand uploads a package and creates an application version.
type publishCommand struct {
	opts *rootOptions

	ApplicationName    string `short:"a" long:"application-name" required:"true" description:"application to create the version under"`
	VersionLabel       string `short:"v" long:"version-label" required:"true" description:"name (label) of the new version"`
	VersionDescription string `long:"version-description" description:"description of the new version"`
	Bucket             string `short:"b" long:"s3-bucket" required:"true" description:"S3 bucket to store the package in"`
	PackageFile        string `short:"f" long:"package-file" required:"true" description:"local package file to publish"`
}

// Execute implements flags.Commander.
func (c *publishCommand) Execute(_ []string) error {
	level := slog.LevelInfo
	if c.opts.Debug {
		level = slog.LevelDebug
	}
	log := logger.New(os.Stderr, level, c.opts.LogJSON).WithRunID(uuid.NewString())

	ctx, cancel := shutdown.WithSignals(context.Background(), log.Logger)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("load AWS config: %w", err)}
	}

	pub := artifact.New(awsCfg, artifact.WithLogger(log.Logger))

	log.Info("publishing version", "application", c.ApplicationName, "version", c.VersionLabel)
	if _, err := pub.Publish(ctx, artifact.Input{
		ApplicationName: c.ApplicationName,
		VersionLabel:    c.VersionLabel,
		Description:     c.VersionDescription,
		Bucket:          c.Bucket,
		PackageFile:     c.PackageFile,
	}); err != nil {
		log.WithError(err).Error("publish failed")
		return &exitError{code: 1, err: err}
	}

	log.Info("publish complete", "version", c.VersionLabel)
	return nil
}
