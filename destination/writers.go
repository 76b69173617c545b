package destination

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

const DestError = "destination error"

type (
	NewFunc func() Writer

	Options struct {
		Identifier string
		Number     int64
		// bookmark field announced with the stream schema
		BookmarkField string
	}

	ThreadOptions func(opt *Options)

	WriterPool struct {
		recordCount   atomic.Int64
		ThreadCounter atomic.Int64 // number of writer threads opened so far
		running       atomic.Int64
		config        any     // respective writer config
		init          NewFunc // To initialize exclusive destination threads
		tmu           sync.Mutex
		streamCounts  map[string]int64
	}
)

var RegisteredWriters = map[types.AdapterType]NewFunc{}

func WithBookmarkField(field string) ThreadOptions {
	return func(opt *Options) {
		opt.BookmarkField = field
	}
}

// NewWriter creates a WriterPool for the configured destination after checking it
func NewWriter(ctx context.Context, config *types.WriterConfig) (*WriterPool, error) {
	if err := utils.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid destination config: %s", err)
	}

	newfunc, found := RegisteredWriters[config.Type]
	if !found {
		return nil, fmt.Errorf("invalid destination type has been passed [%s]", config.Type)
	}

	adapter := newfunc()
	adapterConfig := adapter.GetConfigRef()
	if err := utils.Unmarshal(config.WriterConfig, adapterConfig); err != nil {
		return nil, err
	}

	if err := adapterConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %s", adapter.Type(), err)
	}

	if err := adapter.Check(ctx); err != nil {
		return nil, fmt.Errorf("failed to test destination: %s", err)
	}

	return &WriterPool{
		config:       config.WriterConfig,
		init:         newfunc,
		streamCounts: make(map[string]int64),
	}, nil
}

type WriterThread struct {
	*WriterPool
	stream  types.StreamInterface
	writer  Writer
	options *Options
	records int64
	started time.Time
}

// NewThread initializes a dedicated writer for the stream
func (w *WriterPool) NewThread(ctx context.Context, stream types.StreamInterface, options ...ThreadOptions) (*WriterThread, error) {
	opts := &Options{
		Identifier: stream.ID(),
		Number:     w.ThreadCounter.Add(1),
	}
	for _, one := range options {
		one(opts)
	}

	writer, err := func() (Writer, error) {
		w.tmu.Lock() // lock for concurrent access of w.config
		defer w.tmu.Unlock()

		writer := w.init()
		if err := utils.Unmarshal(w.config, writer.GetConfigRef()); err != nil {
			return nil, err
		}
		return writer, writer.Setup(ctx, stream, opts)
	}()
	if err != nil {
		return nil, fmt.Errorf("failed to init thread[%d] for stream[%s]: %s", opts.Number, stream.ID(), err)
	}

	w.running.Add(1)
	return &WriterThread{
		WriterPool: w,
		stream:     stream,
		writer:     writer,
		options:    opts,
		started:    time.Now(),
	}, nil
}

func (t *WriterThread) Push(ctx context.Context, record types.RawRecord) error {
	if err := t.writer.Write(ctx, record); err != nil {
		return fmt.Errorf("%s: failed to write record of stream[%s]: %s", DestError, t.stream.ID(), err)
	}

	t.records++
	t.recordCount.Add(1)
	return nil
}

// Close flushes the writer and records the stream's count
func (t *WriterThread) Close(ctx context.Context) error {
	defer t.running.Add(-1)

	t.tmu.Lock()
	t.streamCounts[t.stream.ID()] += t.records
	t.tmu.Unlock()

	if err := t.writer.Close(ctx); err != nil {
		return fmt.Errorf("%s: failed to close writer of stream[%s]: %s", DestError, t.stream.ID(), err)
	}

	logger.Debugf("closed writer thread[%d] of stream[%s] after %s", t.options.Number, t.stream.ID(), time.Since(t.started))
	return nil
}

func (t *WriterThread) Records() int64 {
	return t.records
}

// SyncedRecords returns total records written at runtime
func (w *WriterPool) SyncedRecords() int64 {
	return w.recordCount.Load()
}

// RunningThreads returns writers opened and not yet closed
func (w *WriterPool) RunningThreads() int64 {
	return w.running.Load()
}

// StreamCounts returns records written per stream for closed threads
func (w *WriterPool) StreamCounts() map[string]int64 {
	w.tmu.Lock()
	defer w.tmu.Unlock()

	counts := make(map[string]int64, len(w.streamCounts))
	for stream, count := range w.streamCounts {
		counts[stream] = count
	}
	return counts
}

// LogSummary logs the per stream record counts in stream order
func (w *WriterPool) LogSummary() {
	counts := w.StreamCounts()
	streams := make([]string, 0, len(counts))
	for stream := range counts {
		streams = append(streams, stream)
	}
	sort.Strings(streams)

	logger.Info("----------------------")
	for _, stream := range streams {
		logger.Infof("%s: %d", stream, counts[stream])
	}
	logger.Info("----------------------")
}
