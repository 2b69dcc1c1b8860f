// Package artifact publishes application packages: it uploads the local
// package file to S3 under a unique key and registers it as a new
// application version with Elastic Beanstalk.
package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/elasticbeanstalk/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// uploader is the slice of the S3 transfer manager the publisher uses.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// versionAPI is the slice of the Elastic Beanstalk API the publisher uses.
type versionAPI interface {
	CreateApplicationVersion(ctx context.Context, params *elasticbeanstalk.CreateApplicationVersionInput, optFns ...func(*elasticbeanstalk.Options)) (*elasticbeanstalk.CreateApplicationVersionOutput, error)
}

// Publisher uploads packages and creates application versions.
type Publisher struct {
	uploader uploader
	versions versionAPI
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// New creates a publisher from a resolved AWS config.
func New(cfg aws.Config, opts ...Option) *Publisher {
	p := &Publisher{
		uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
		versions: elasticbeanstalk.NewFromConfig(cfg),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Input describes one version to publish.
type Input struct {
	ApplicationName string
	VersionLabel    string
	Description     string
	Bucket          string
	PackageFile     string
}

// Publish uploads the package and creates the application version. It
// returns the S3 key the package was stored under.
func (p *Publisher) Publish(ctx context.Context, in Input) (string, error) {
	info, err := os.Stat(in.PackageFile)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("cannot locate package %s", in.PackageFile)
	}

	key := uniqueKey(in.PackageFile, p.now())

	p.logger.Info("uploading package", "file", in.PackageFile, "bucket", in.Bucket, "key", key)
	if err := p.upload(ctx, in.Bucket, key, in.PackageFile); err != nil {
		return "", fmt.Errorf("upload package: %w", err)
	}
	p.logger.Info("package uploaded", "bucket", in.Bucket, "key", key)

	description := in.Description
	if description == "" {
		description = fmt.Sprintf("%s was published at %s", in.VersionLabel, p.now().Format("02-Jan-2006 15:04:05"))
	}

	_, err = p.versions.CreateApplicationVersion(ctx, &elasticbeanstalk.CreateApplicationVersionInput{
		ApplicationName:       aws.String(in.ApplicationName),
		VersionLabel:          aws.String(in.VersionLabel),
		Description:           aws.String(description),
		AutoCreateApplication: aws.Bool(false),
		Process:               aws.Bool(true),
		SourceBundle: &ebtypes.S3Location{
			S3Bucket: aws.String(in.Bucket),
			S3Key:    aws.String(key),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create application version %s: %w", in.VersionLabel, err)
	}

	p.logger.Info("application version created", "application", in.ApplicationName, "version", in.VersionLabel)
	return key, nil
}

// upload streams the package file to S3.
func (p *Publisher) upload(ctx context.Context, bucket, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	return err
}

// uniqueKey derives an S3 key from the package filename, suffixed with
// the upload time so repeated publishes never collide.
func uniqueKey(file string, now time.Time) string {
	name := filepath.Base(file)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s-%d%s", base, now.Unix(), ext)
}
