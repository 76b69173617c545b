package protocol

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

// discoverCmd prints the catalog of every stream the connector can sync
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "discover command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfig()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDiscover(cmd.Context())
	},
}

func runDiscover(ctx context.Context) error {
	if err := connector.Setup(ctx); err != nil {
		return err
	}

	streams, err := connector.Discover(ctx)
	if err != nil {
		return err
	}

	if len(streams) == 0 {
		return errors.New("no streams found in connector")
	}

	logger.LogCatalog(streams)
	return nil
}
