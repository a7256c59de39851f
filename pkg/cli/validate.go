package cli

import (
	"context"
	"slices"

	"github.com/BlueRidgeLabs/chatpro/pkg/cli/config"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig
	var rapidproCfg config.RapidPro
	var checkRemote bool

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, rapidproCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "check-remote",
		Usage:       "Check that every configured room exists as a RapidPro group",
		Destination: &checkRemote,
	})

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the org configuration and optionally the RapidPro groups it refers to",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			file, registry, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logger.Info("Configuration validation passed", "org_count", len(file.Orgs))
			for _, org := range registry.List() {
				logger.Info("Org validated",
					"id", org.ID,
					"name", org.Name,
					"api_url", org.APIURL,
					"rooms", len(org.Rooms),
					"active", org.IsActive,
				)
			}

			if !checkRemote {
				logger.Info("Remote check skipped")
				return nil
			}

			factory, err := rapidproCfg.Configure()
			if err != nil {
				return err
			}

			var missing int
			for _, org := range registry.Active() {
				n, err := checkOrgRooms(ctx, factory, org)
				if err != nil {
					return err
				}
				missing += n
			}
			if missing > 0 {
				return goerr.New("configured rooms are missing in RapidPro", goerr.V("missing", missing))
			}

			logger.Info("Remote check passed")
			return nil
		},
	}
}

// checkOrgRooms returns the number of configured rooms that are not RapidPro groups of org
func checkOrgRooms(ctx context.Context, factory rapidpro.Factory, org *model.Org) (int, error) {
	svc, err := factory.Client(org)
	if err != nil {
		return 0, err
	}
	groups, err := svc.GetGroups(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to fetch groups", goerr.V("org_id", org.ID))
	}

	ids := make([]model.GroupID, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}

	var missing int
	for _, room := range org.Rooms {
		if !slices.Contains(ids, room) {
			logging.From(ctx).Warn("Room group not found in RapidPro", "org_id", org.ID, "group_id", room)
			missing++
		}
	}
	return missing, nil
}
