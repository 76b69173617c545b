package tap

import (
	"context"
	"os"

	_ "github.com/datazip-inc/tap-apparel-magic/destination/parquet" // registering local parquet writer
	_ "github.com/datazip-inc/tap-apparel-magic/destination/stdout"  // registering stdout writer
	"github.com/datazip-inc/tap-apparel-magic/drivers/abstract"
	"github.com/datazip-inc/tap-apparel-magic/protocol"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
	"github.com/datazip-inc/tap-apparel-magic/utils/safego"
)

func RegisterDriver(driver abstract.DriverInterface) {
	defer safego.Recovery(true)

	// Execute the root command
	err := protocol.CreateRootCommand(driver).ExecuteContext(context.Background())
	if err != nil {
		logger.Fatal(err)
	}

	os.Exit(0)
}
