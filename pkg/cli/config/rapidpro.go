package config

import (
	"log/slog"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

type RapidPro struct {
	rate    float64
	timeout time.Duration
}

func (x *RapidPro) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "rapidpro-rate",
			Usage:       "Maximum RapidPro requests per second per org (0 disables throttling)",
			Value:       5,
			Category:    "RapidPro",
			Sources:     cli.EnvVars("CHATPRO_RAPIDPRO_RATE"),
			Destination: &x.rate,
		},
		&cli.DurationFlag{
			Name:        "rapidpro-timeout",
			Usage:       "Timeout of a single RapidPro API call",
			Value:       30 * time.Second,
			Category:    "RapidPro",
			Sources:     cli.EnvVars("CHATPRO_RAPIDPRO_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

func (x RapidPro) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("rate", x.rate),
		slog.Duration("timeout", x.timeout),
	)
}

// Configure builds the per org RapidPro client factory
func (x *RapidPro) Configure() (*rapidpro.ClientFactory, error) {
	if x.rate < 0 {
		return nil, goerr.New("rapidpro-rate must not be negative", goerr.V("rate", x.rate))
	}
	if x.timeout <= 0 {
		return nil, goerr.New("rapidpro-timeout must be positive", goerr.V("timeout", x.timeout))
	}

	opts := []rapidpro.FactoryOption{
		rapidpro.WithFactoryTimeout(x.timeout),
	}
	if x.rate > 0 {
		opts = append(opts, rapidpro.WithFactoryRateLimit(x.rate))
	}
	return rapidpro.NewFactory(opts...), nil
}
