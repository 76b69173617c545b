package protocol

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/drivers/abstract"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

var (
	configPath            string
	destinationConfigPath string
	destinationType       string
	statePath             string
	catalogPath           string
	noSave                bool
	discoverMode          bool
	encryptionKey         string
	logLevel              string
	catalog               *types.Catalog
	state                 *types.State
	destinationConfig     *types.WriterConfig

	commands     = []*cobra.Command{}
	connector    *abstract.AbstractDriver
	sourceConfig abstract.Config // as loaded; GetConfigRef hands out a fresh one on every call
)

// RootCmd runs a sync, or discovery with --discover, when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tap-apparel-magic",
	Short: "Incremental ApparelMagic tap",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// set global variables
		viper.SetDefault(constants.ConfigFolder, os.TempDir())
		viper.Set(constants.NoFileArtifact, noSave)
		viper.Set(constants.LogLevel, logLevel)
		if !noSave {
			configFolder := utils.Ternary(configPath == "not-set", filepath.Dir(destinationConfigPath), filepath.Dir(configPath)).(string)
			statePathEnv := utils.Ternary(statePath == "", filepath.Join(configFolder, "state.json"), statePath).(string)
			viper.Set(constants.ConfigFolder, configFolder)
			viper.Set(constants.StatePath, statePathEnv)
		}

		if encryptionKey != "" {
			viper.Set(constants.EncryptionKey, encryptionKey)
		}

		// logger uses CONFIG_FOLDER
		logger.Init()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			if ok := utils.IsValidSubcommand(commands, args[0]); !ok {
				return fmt.Errorf("'%s' is an invalid command. Use 'tap-apparel-magic --help' to display usage guide", args[0])
			}
		}

		if configPath == "not-set" {
			return cmd.Help()
		}

		if discoverMode {
			if err := loadConfig(); err != nil {
				return err
			}
			return runDiscover(cmd.Context())
		}

		if err := loadSyncInputs(); err != nil {
			return err
		}
		return runSync(cmd.Context())
	},
}

func CreateRootCommand(driver abstract.DriverInterface) *cobra.Command {
	RootCmd.AddCommand(commands...)
	connector = abstract.NewAbstractDriver(RootCmd.Context(), driver)

	return RootCmd
}

// loadConfig reads the connector config; config files may be encrypted
func loadConfig() error {
	if configPath == "not-set" {
		return fmt.Errorf("%w: --config not passed", constants.ErrConfig)
	}

	sourceConfig = connector.GetConfigRef()
	return utils.UnmarshalFile(configPath, sourceConfig, true)
}

// loadDestinationConfig reads --destination; without it records go to stdout
func loadDestinationConfig() error {
	destinationConfig = &types.WriterConfig{Type: types.Stdout}
	if destinationConfigPath == "not-set" {
		return nil
	}

	destinationConfig = &types.WriterConfig{}
	return utils.UnmarshalFile(destinationConfigPath, destinationConfig, true)
}

// GetSelectedStreams checks the catalog's selected streams against the discovered ones.
// Schema and primary key left out of a catalog entry are taken from discovery.
func GetSelectedStreams(catalog *types.Catalog, streams []*types.Stream) ([]types.StreamInterface, error) {
	sourceMap := types.StreamsToMap(streams...)
	selected := []types.StreamInterface{}
	seen := types.NewSet[string]()

	var selectErr error
	_, _ = utils.ArrayContains(catalog.Streams, func(elem *types.ConfiguredStream) bool {
		if elem.Stream == nil {
			logger.Warn("Skipping catalog entry without stream")
			return false
		}

		if !catalog.IsSelected(elem) {
			logger.Debugf("Skipping stream %s; not selected", elem.ID())
			return false
		}

		source, found := sourceMap[elem.ID()]
		if !found {
			selectErr = fmt.Errorf("%w: %w[%s]", constants.ErrConfig, constants.ErrUnknownStream, elem.ID())
			return true
		}

		if err := elem.Validate(source); err != nil {
			selectErr = fmt.Errorf("%w: configured stream %s found invalid due to reason: %s", constants.ErrConfig, elem.ID(), err)
			return true
		}

		completeFromSource(elem, source)
		selected = append(selected, elem)
		seen.Insert(elem.ID())
		return false
	})
	if selectErr != nil {
		return nil, selectErr
	}

	// selected_streams may name streams the catalog does not list
	for _, id := range catalog.SelectedStreams {
		if seen.Exists(id) {
			continue
		}

		source, found := sourceMap[id]
		if !found {
			return nil, fmt.Errorf("%w: %w[%s]", constants.ErrConfig, constants.ErrUnknownStream, id)
		}

		selected = append(selected, source.Wrap())
		seen.Insert(id)
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("no valid streams found in catalog")
	}

	ids := make([]string, 0, len(selected))
	for _, stream := range selected {
		ids = append(ids, stream.ID())
	}
	logger.Infof("Valid selected streams are %s", strings.Join(ids, ", "))

	return selected, nil
}

func completeFromSource(elem *types.ConfiguredStream, source *types.Stream) {
	if elem.Stream.Schema == nil || len(elem.Stream.Schema.Columns()) == 0 {
		elem.Stream.Schema = source.Schema
	}
	if elem.Stream.SourceDefinedPrimaryKey == nil || elem.Stream.SourceDefinedPrimaryKey.Len() == 0 {
		elem.Stream.SourceDefinedPrimaryKey = source.SourceDefinedPrimaryKey
	}
	if elem.Stream.SupportedSyncModes == nil || elem.Stream.SupportedSyncModes.Len() == 0 {
		elem.Stream.SupportedSyncModes = source.SupportedSyncModes
	}
	if elem.Stream.AvailableCursorFields == nil || elem.Stream.AvailableCursorFields.Len() == 0 {
		elem.Stream.AvailableCursorFields = source.AvailableCursorFields
	}
	if elem.Stream.SyncMode == "" {
		elem.Stream.SyncMode = source.SyncMode
	}
}

func init() {
	commands = append(commands, specCmd, checkCmd, discoverCmd, syncCmd)
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "", "not-set", "(Required) Config for connector")
	RootCmd.PersistentFlags().StringVarP(&destinationConfigPath, "destination", "", "not-set", "(Optional) Destination config; records are written to stdout when absent")
	RootCmd.PersistentFlags().StringVarP(&destinationType, "destination-type", "", "not-set", "Destination type for spec")
	RootCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "", "", "(Optional) Catalog of streams to sync; every stream is synced when absent")
	RootCmd.PersistentFlags().StringVarP(&statePath, "state", "", "", "(Optional) State for connector")
	RootCmd.PersistentFlags().BoolVarP(&noSave, "no-save", "", false, "(Optional) Flag to skip logging artifacts in file")
	RootCmd.PersistentFlags().StringVarP(&encryptionKey, "encryption-key", "", "", "(Optional) Decryption key. Provide the ARN of a KMS key, a UUID, or a custom string based on your encryption configuration.")
	RootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "(Optional) Log level")
	RootCmd.Flags().BoolVarP(&discoverMode, "discover", "", false, "Run discovery and print the catalog")
	// Disable Cobra CLI's built-in usage and error handling
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}
