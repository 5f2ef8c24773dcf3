package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/service/archive"
	"github.com/urfave/cli/v3"
)

// Archive holds CLI flags for archiving finalized assessments to Cloud Storage
type Archive struct {
	bucket string
	prefix string
}

func (x *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket receiving finalized assessments (disabled when empty)",
			Category:    "Archive",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("MENTIS_ARCHIVE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object name prefix inside the archive bucket",
			Category:    "Archive",
			Value:       "assessments",
			Destination: &x.prefix,
			Sources:     cli.EnvVars("MENTIS_ARCHIVE_PREFIX"),
		},
	}
}

func (x Archive) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// IsConfigured reports whether an archive bucket is set
func (x *Archive) IsConfigured() bool {
	return x.bucket != ""
}

// Configure returns an Archiver, or nil when no bucket is set. The caller
// closes a non-nil Archiver.
func (x *Archive) Configure(ctx context.Context) (*archive.Archiver, error) {
	if !x.IsConfigured() {
		return nil, nil
	}

	archiver, err := archive.New(ctx, x.bucket, x.prefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize archiver", goerr.V("bucket", x.bucket))
	}
	return archiver, nil
}
