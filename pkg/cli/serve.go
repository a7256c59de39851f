package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/cli/config"
	httpctrl "github.com/BlueRidgeLabs/chatpro/pkg/controller/http"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/queue"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/worker"
	"github.com/BlueRidgeLabs/chatpro/pkg/usecase"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var adminToken string
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var rapidproCfg config.RapidPro
	var queueCfg config.Queue
	var syncCfg config.Sync
	var slackCfg config.Slack
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("CHATPRO_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "admin-token",
			Usage:       "Bearer token of the admin API (the API is disabled when empty)",
			Sources:     cli.EnvVars("CHATPRO_ADMIN_TOKEN"),
			Destination: &adminToken,
		},
	}

	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, rapidproCfg.Flags()...)
	flags = append(flags, queueCfg.Flags()...)
	flags = append(flags, syncCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the webhook server and the task consumer",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Serve configuration",
				"rapidpro", rapidproCfg,
				"queue", queueCfg,
				"sync", syncCfg,
				"slack", slackCfg,
				"sentry", sentryCfg,
				"admin_api", adminToken != "",
			)

			if err := syncCfg.Validate(); err != nil {
				return err
			}

			flush, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			defer flush()

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

			router := queue.NewRouter()
			taskQueue, err := queueCfg.Configure(ctx, router)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize task queue")
			}
			defer taskQueue.Close()

			ucOpts := []usecase.Option{
				usecase.WithTaskQueue(taskQueue),
				usecase.WithSyncConcurrency(syncCfg.Concurrency()),
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithSyncNotifier(notifier))
			}
			uc := usecase.New(repo, registry, factory, ucOpts...)
			uc.RegisterTasks(router)

			if err := taskQueue.Start(ctx); err != nil {
				return err
			}

			if err := seedRoomGroups(ctx, uc.Orgs(), taskQueue); err != nil {
				return err
			}

			var syncWorker *worker.ContactSyncWorker
			if syncCfg.Interval() > 0 {
				syncWorker = worker.NewContactSyncWorker(taskQueue, syncCfg.Interval())
				if err := syncWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start contact sync worker")
				}
			} else {
				logger.Info("Periodic contact sync disabled")
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithWebhook(uc.Webhook),
			}
			if adminToken != "" {
				httpOpts = append(httpOpts, httpctrl.WithAdmin(httpctrl.NewAdminUseCase(uc), adminToken))
				logger.Info("Admin API enabled")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				if syncWorker != nil {
					syncWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}

// seedRoomGroups submits the rooms listed in the org file so that the room
// set follows the configuration on every start.
func seedRoomGroups(ctx context.Context, orgs *model.OrgRegistry, q *config.TaskQueue) error {
	for _, org := range orgs.Active() {
		if len(org.Rooms) == 0 {
			continue
		}
		task := model.NewUpdateRoomGroupsTask(org.ID, org.Rooms)
		if err := q.Submit(ctx, task); err != nil {
			return goerr.Wrap(err, "failed to submit room groups", goerr.V("org_id", org.ID))
		}
		logging.From(ctx).Info("Room groups submitted", "org_id", org.ID, "rooms", len(org.Rooms))
	}
	return nil
}
