package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentis-app/mentis/pkg/cli/config"
	"github.com/mentis-app/mentis/pkg/usecase"
	"github.com/mentis-app/mentis/pkg/utils/logging"
	"github.com/mentis-app/mentis/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// ErrDBInconsistent is returned when stored assessments reference stale profile data
var ErrDBInconsistent = goerr.New("DB consistency check found issues")

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var checkDB bool

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "check-db",
		Usage:       "Also check stored assessments against the loaded profiles",
		Sources:     cli.EnvVars("MENTIS_CHECK_DB"),
		Destination: &checkDB,
	})

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate profile files and optionally check DB consistency",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			profiles, err := appCfg.LoadProfiles()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logger.Info("Configuration validation passed", "workspace_count", len(profiles))
			for _, p := range profiles {
				items := 0
				for _, cat := range p.Categories {
					items += len(cat.Items)
				}
				logger.Info("Workspace validated",
					"id", p.Workspace.ID,
					"name", p.Workspace.Name,
					"category_count", len(p.Categories),
					"item_count", items,
				)
			}

			if !checkDB {
				return nil
			}

			registry, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to build workspace registry")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			result, err := usecase.New(repo, registry).ValidateDB(ctx)
			if err != nil {
				return goerr.Wrap(err, "DB consistency check failed")
			}

			if result.HasIssues() {
				for _, issue := range result.Issues {
					logger.Warn("DB consistency issue found",
						"workspace_id", issue.WorkspaceID,
						"assessment_id", issue.AssessmentID,
						"category_id", issue.CategoryID,
						"item_id", issue.ItemID,
						"message", issue.Message,
					)
				}
				return goerr.Wrap(ErrDBInconsistent, "stale references in stored assessments",
					goerr.V("issue_count", len(result.Issues)))
			}

			logger.Info("DB consistency check passed")
			return nil
		},
	}
}
