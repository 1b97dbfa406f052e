package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/smartcontractkit/app-release-framework/artifact"
	"github.com/smartcontractkit/app-release-framework/config"
	"github.com/smartcontractkit/app-release-framework/operations"
	"github.com/smartcontractkit/app-release-framework/pipeline"
	"github.com/smartcontractkit/app-release-framework/pkg/logger"
	"github.com/smartcontractkit/app-release-framework/release"
	"github.com/smartcontractkit/app-release-framework/resolver"
	"github.com/smartcontractkit/app-release-framework/source"
	"github.com/smartcontractkit/app-release-framework/store/appstore"
	"github.com/smartcontractkit/app-release-framework/store/playstore"
	"github.com/smartcontractkit/app-release-framework/target"
	"github.com/smartcontractkit/app-release-framework/toolchain"
)

// LaneFactory builds the release lane of a configuration.
type LaneFactory func(ctx context.Context, cfg *config.Config, lggr logger.Logger) (*release.Lane, error)

// NewLane is the production LaneFactory. Store clients are created only when their
// credentials are configured; sources and uploaders that need a missing client fail
// individually when used.
func NewLane(ctx context.Context, cfg *config.Config, lggr logger.Logger) (*release.Lane, error) {
	fs := afero.NewOsFs()
	exec := toolchain.NewOSExecutor(lggr.Named("toolchain"), toolchain.WithStream(os.Stderr))

	var (
		appleCreds = appstore.Credentials{
			KeyID:      cfg.AppStore.KeyID,
			IssuerID:   cfg.AppStore.IssuerID,
			PrivateKey: []byte(cfg.AppStore.PrivateKey),
		}
		sourceDeps = source.Deps{
			ManifestToken: source.NewCredentials(cfg.Web.ManifestToken),
			Fs:            fs,
		}
		playClient *playstore.Client
	)

	if appleCreds.Validate() == nil {
		c, err := appstore.NewClient(appleCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to create app store connect client: %w", err)
		}
		sourceDeps.AppStore = c
	}
	if cfg.PlayStore.ServiceAccountJSON != "" {
		c, err := playstore.NewServiceAccountClient(ctx, []byte(cfg.PlayStore.ServiceAccountJSON), playstore.WithLogger(lggr))
		if err != nil {
			return nil, fmt.Errorf("failed to create play console client: %w", err)
		}
		playClient = c
		sourceDeps.PlayStore = c
	}

	specs, err := cfg.SourceSpecs()
	if err != nil {
		return nil, err
	}
	sources, err := source.BuildAll(specs, sourceDeps)
	if err != nil {
		return nil, err
	}

	var orchOpts []pipeline.Option
	if cfg.Reports.Path != "" {
		reporter, err := operations.NewFileReporter(fs, cfg.Reports.Path, "")
		if err != nil {
			return nil, err
		}
		orchOpts = append(orchOpts, pipeline.WithReporter(reporter))
	}

	var targets []release.Target
	for _, p := range cfg.Platforms() {
		tc, err := cfg.Toolchain(cfg.Targets[p.String()])
		if err != nil {
			return nil, err
		}
		t := release.Target{Platform: p, Toolchain: tc}

		switch {
		case p.IsApple():
			if appleCreds.Validate() == nil {
				t.Uploader = target.NewAltoolUploader(exec, appleCreds, fs)
			}
		case p == target.Android:
			if playClient != nil {
				t.Uploader = target.NewPlayUploader(playClient, cfg.App.PackageName, cfg.Upload.AndroidTrack, fs)
			}
		case p == target.Web:
			if cfg.Upload.S3.Bucket != "" {
				s3cfg := target.S3Config(cfg.Upload.S3)
				client, err := target.NewS3Client(ctx, s3cfg)
				if err != nil {
					return nil, err
				}
				t.Uploader = target.NewS3Uploader(client, s3cfg, fs)
			}
		}
		targets = append(targets, t)
	}

	return release.New(lggr, release.Deps{
		Resolver: resolver.New(lggr,
			resolver.WithConcurrency(cfg.Resolver.Concurrency),
			resolver.WithSourceTimeout(cfg.Resolver.SourceTimeout),
		),
		Sources:      sources,
		Query:        source.Query{AppIdentifier: cfg.App.Identifier, Live: cfg.App.Live},
		Executor:     exec,
		Finder:       artifact.NewFinder(fs),
		Orchestrator: pipeline.New(lggr, orchOpts...),
		Targets:      targets,
	},
		release.WithBuildTimeout(cfg.Build.Timeout),
		release.WithUploadTimeout(cfg.Upload.Timeout),
		release.WithUploadOptions(
			target.WithAttempts(cfg.Upload.Attempts),
			target.WithRetryDelay(cfg.Upload.RetryDelay),
		),
	)
}
