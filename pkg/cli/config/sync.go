package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sync holds the pull reconciliation schedule
type Sync struct {
	interval    time.Duration
	concurrency int
}

func (x *Sync) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "sync-interval",
			Usage:       "Interval between contact syncs of every active org (0 disables periodic sync)",
			Value:       30 * time.Minute,
			Category:    "Sync",
			Sources:     cli.EnvVars("CHATPRO_SYNC_INTERVAL"),
			Destination: &x.interval,
		},
		&cli.IntFlag{
			Name:        "sync-concurrency",
			Usage:       "Number of orgs synchronized in parallel",
			Value:       4,
			Category:    "Sync",
			Sources:     cli.EnvVars("CHATPRO_SYNC_CONCURRENCY"),
			Destination: &x.concurrency,
		},
	}
}

func (x Sync) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("interval", x.interval),
		slog.Int("concurrency", x.concurrency),
	)
}

func (x *Sync) Validate() error {
	if x.interval < 0 {
		return goerr.New("sync-interval must not be negative", goerr.V("interval", x.interval))
	}
	if x.concurrency < 1 {
		return goerr.New("sync-concurrency must be at least 1", goerr.V("concurrency", x.concurrency))
	}
	return nil
}

// Interval returns the periodic sync interval, zero when disabled
func (x *Sync) Interval() time.Duration {
	return x.interval
}

func (x *Sync) Concurrency() int {
	return x.concurrency
}
