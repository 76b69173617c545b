package abstract

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/destination"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

type AbstractDriver struct { //nolint:gosec,revive
	driver DriverInterface
	state  *types.State
}

func NewAbstractDriver(_ context.Context, driver DriverInterface) *AbstractDriver {
	return &AbstractDriver{
		driver: driver,
		state:  types.NewState(),
	}
}

func (a *AbstractDriver) SetupState(state *types.State) {
	if state == nil {
		state = types.NewState()
	}
	a.state = state
}

func (a *AbstractDriver) State() *types.State {
	return a.state
}

func (a *AbstractDriver) GetConfigRef() Config {
	return a.driver.GetConfigRef()
}

func (a *AbstractDriver) Spec() any {
	return a.driver.Spec()
}

func (a *AbstractDriver) Type() string {
	return a.driver.Type()
}

func (a *AbstractDriver) Setup(ctx context.Context) error {
	return a.driver.Setup(ctx)
}

func (a *AbstractDriver) Check(ctx context.Context) error {
	return a.driver.Check(ctx)
}

// Discover produces the schema of every stream the driver knows, ordered by stream id
func (a *AbstractDriver) Discover(ctx context.Context) ([]*types.Stream, error) {
	streams, err := a.driver.GetStreamNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream names: %s", err)
	}

	var streamMap sync.Map
	err = utils.Concurrent(ctx, streams, len(streams), func(ctx context.Context, stream string) error {
		streamSchema, err := a.driver.ProduceSchema(ctx, stream)
		if err != nil {
			return fmt.Errorf("%w: failed to produce schema for stream %s: %s", constants.ErrNonRetryable, stream, err)
		}
		streamMap.Store(streamSchema.ID(), streamSchema)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var finalStreams []*types.Stream
	streamMap.Range(func(_, value any) bool {
		convStream, _ := value.(*types.Stream)
		if convStream.SyncMode == "" {
			convStream.SyncMode = utils.Ternary(convStream.SupportedSyncModes.Exists(types.INCREMENTAL), types.INCREMENTAL, types.FULLREFRESH).(types.SyncMode)
		}

		finalStreams = append(finalStreams, convStream)
		return true
	})

	sort.Slice(finalStreams, func(i, j int) bool {
		return finalStreams[i].ID() < finalStreams[j].ID()
	})

	return finalStreams, nil
}

// Read syncs the streams one after another; the first failing stream aborts the run
func (a *AbstractDriver) Read(ctx context.Context, pool *destination.WriterPool, streams ...types.StreamInterface) error {
	if len(streams) == 0 {
		return fmt.Errorf("no streams to sync")
	}

	statsCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger.StatsLogger(statsCtx, constants.StatsLogInterval, func() (int64, int64) {
		return pool.SyncedRecords(), pool.RunningThreads()
	})

	if err := a.Incremental(ctx, pool, streams...); err != nil {
		return fmt.Errorf("failed to run incremental sync: %w", err)
	}

	return nil
}
