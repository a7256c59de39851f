package cli

import (
	"context"
	"log/slog"

	"github.com/BlueRidgeLabs/chatpro/pkg/cli/config"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/usecase"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdSync() *cli.Command {
	var orgID string
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var rapidproCfg config.RapidPro
	var syncCfg config.Sync
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "org",
			Usage:       "Sync only this org (all active orgs when empty)",
			Destination: &orgID,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, rapidproCfg.Flags()...)
	flags = append(flags, syncCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Run a contact sync once and exit",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if err := syncCfg.Validate(); err != nil {
				return err
			}

			_, registry, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load org configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			factory, err := rapidproCfg.Configure()
			if err != nil {
				return err
			}
			notifier, err := slackCfg.Configure()
			if err != nil {
				return err
			}

			ucOpts := []usecase.Option{usecase.WithSyncConcurrency(syncCfg.Concurrency())}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithSyncNotifier(notifier))
			}
			uc := usecase.New(repo, registry, factory, ucOpts...)

			if orgID != "" {
				result, err := uc.ContactSync.SyncOrg(ctx, model.OrgID(orgID))
				if err != nil {
					return goerr.Wrap(err, "contact sync failed", goerr.V("org_id", orgID))
				}
				logSyncResult(logger, model.OrgID(orgID), result)
				return nil
			}

			report := uc.ContactSync.SyncAll(ctx)
			for id, result := range report.Results {
				logSyncResult(logger, id, result)
			}
			if len(report.Errors) > 0 {
				for id, err := range report.Errors {
					logger.Error("Contact sync failed", "org_id", id, "error", err.Error())
				}
				return goerr.New("contact sync failed for some orgs", goerr.V("failed", len(report.Errors)))
			}
			return nil
		},
	}
}

func logSyncResult(logger *slog.Logger, orgID model.OrgID, result *model.SyncResult) {
	logger.Info("Contact sync result",
		"org_id", orgID,
		"created", len(result.Created),
		"updated", len(result.Updated),
		"deleted", len(result.Deleted),
		"flagged", result.FailedIDs(),
	)
}
