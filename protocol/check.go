/*
 * Copyright 2025 Olake By Datazip
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package protocol

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/datazip-inc/tap-apparel-magic/destination"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "check command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		// If connector is not set, we are checking the destination
		if destinationConfigPath == "not-set" && configPath == "not-set" {
			return fmt.Errorf("no connector config or destination config provided")
		}

		if destinationConfigPath != "not-set" {
			if err := loadDestinationConfig(); err != nil {
				return err
			}
		}

		if catalogPath != "" {
			catalog = &types.Catalog{}
			if err := utils.UnmarshalFile(catalogPath, catalog, false); err != nil {
				return err
			}
		}

		if configPath != "not-set" {
			return loadConfig()
		}

		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		logger.LogConnectionStatus(runCheck(cmd.Context()))
	},
}

// runCheck reports every failing part at once
func runCheck(ctx context.Context) error {
	var result *multierror.Error

	if destinationConfigPath != "not-set" {
		if _, err := destination.NewWriter(ctx, destinationConfig); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if configPath == "not-set" {
		return result.ErrorOrNil()
	}

	if err := connector.Setup(ctx); err != nil {
		return multierror.Append(result, err).ErrorOrNil()
	}

	if err := connector.Check(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to reach api: %s", err))
	}

	if catalog != nil {
		streams, err := connector.Discover(ctx)
		if err != nil {
			return multierror.Append(result, err).ErrorOrNil()
		}

		if _, err := GetSelectedStreams(catalog, streams); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
