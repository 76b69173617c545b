package protocol

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datazip-inc/tap-apparel-magic/destination"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

// syncCmd runs the incremental sync of the selected streams
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync command",
	Long:  `Sync command pages through every selected stream from its bookmark and writes records and state`,
	Example: `
// Base command:
tap-apparel-magic sync --config path/to/config

// With catalog and state:
tap-apparel-magic sync --config path/to/config --catalog path/to/catalog --state path/to/state

// Into parquet files:
tap-apparel-magic sync --config path/to/config --destination path/to/destination/config
`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadSyncInputs()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd.Context())
	},
}

// loadSyncInputs reads config, destination, catalog and state files; catalog and state are optional
func loadSyncInputs() error {
	if err := loadConfig(); err != nil {
		return err
	}

	if err := loadDestinationConfig(); err != nil {
		return err
	}

	catalog = nil
	if catalogPath != "" {
		catalog = &types.Catalog{}
		if err := utils.UnmarshalFile(catalogPath, catalog, false); err != nil {
			return err
		}
	}

	state = types.NewState()
	if statePath != "" {
		if err := utils.UnmarshalFile(statePath, state, false); err != nil {
			return err
		}
	}

	return nil
}

func runSync(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := connector.Setup(ctx); err != nil {
		return err
	}

	syncID, err := utils.ComputeConfigHash(sourceConfig)
	if err != nil {
		return fmt.Errorf("failed to compute sync id: %s", err)
	}

	streams, err := connector.Discover(ctx)
	if err != nil {
		return err
	}

	if catalog == nil {
		logger.Info("No catalog passed; syncing every discovered stream")
		catalog = types.GetWrappedCatalog(streams)
	}

	selected, err := GetSelectedStreams(catalog, streams)
	if err != nil {
		return err
	}

	connector.SetupState(state)

	pool, err := destination.NewWriter(ctx, destinationConfig)
	if err != nil {
		return err
	}

	logger.Infof("Starting sync[%s] run[%s] of %d streams into %s", syncID, utils.ULID(), len(selected), destinationConfig.Type)
	if err := connector.Read(ctx, pool, selected...); err != nil {
		return fmt.Errorf("error occurred while reading records: %w", err)
	}

	logger.Infof("Sync[%s] completed", syncID)
	return nil
}
