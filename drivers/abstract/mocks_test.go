package abstract

import (
	"context"
	"sync"

	"github.com/datazip-inc/tap-apparel-magic/destination"
	"github.com/datazip-inc/tap-apparel-magic/types"
)

const memoryWriterType types.AdapterType = "MEMORY"

// memoryWriter keeps every written record in memory, in write order
type memoryWriter struct {
	config *memoryConfig
	stream types.StreamInterface
}

type memoryConfig struct{}

func (c *memoryConfig) Validate() error {
	return nil
}

var (
	memoryMu      sync.Mutex
	memoryRecords = map[string][]types.RawRecord{}
	memoryClosed  = map[string]bool{}
)

func resetMemoryWriter() {
	memoryMu.Lock()
	defer memoryMu.Unlock()

	memoryRecords = map[string][]types.RawRecord{}
	memoryClosed = map[string]bool{}
}

func writtenRecords(streamID string) []types.RawRecord {
	memoryMu.Lock()
	defer memoryMu.Unlock()

	return memoryRecords[streamID]
}

func (w *memoryWriter) GetConfigRef() destination.Config {
	w.config = &memoryConfig{}
	return w.config
}

func (w *memoryWriter) Spec() any {
	return map[string]any{}
}

func (w *memoryWriter) Type() string {
	return string(memoryWriterType)
}

func (w *memoryWriter) Check(_ context.Context) error {
	return nil
}

func (w *memoryWriter) Setup(_ context.Context, stream types.StreamInterface, _ *destination.Options) error {
	w.stream = stream
	return nil
}

func (w *memoryWriter) Write(_ context.Context, record types.RawRecord) error {
	memoryMu.Lock()
	defer memoryMu.Unlock()

	memoryRecords[w.stream.ID()] = append(memoryRecords[w.stream.ID()], record)
	return nil
}

func (w *memoryWriter) Close(_ context.Context) error {
	memoryMu.Lock()
	defer memoryMu.Unlock()

	memoryClosed[w.stream.ID()] = true
	return nil
}

func init() {
	destination.RegisteredWriters[memoryWriterType] = func() destination.Writer {
		return &memoryWriter{}
	}
}

func createTestWriterPool(ctx context.Context) (*destination.WriterPool, error) {
	resetMemoryWriter()
	return destination.NewWriter(ctx, &types.WriterConfig{
		Type:         memoryWriterType,
		WriterConfig: map[string]any{},
	})
}

// Mock implementations for testing

type MockDriver struct {
	getConfigRefFunc    func() Config
	specFunc            func() any
	typeFunc            func() string
	setupFunc           func(ctx context.Context) error
	checkFunc           func(ctx context.Context) error
	getStreamNamesFunc  func(ctx context.Context) ([]string, error)
	produceSchemaFunc   func(ctx context.Context, stream string) (*types.Stream, error)
	resolveBookmarkFunc func(stream types.StreamInterface) (*types.Bookmark, error)
	startCursorFunc     func(state types.StateInterface, bookmark *types.Bookmark) (any, error)
	fetchPageFunc       func(ctx context.Context, stream types.StreamInterface, page int, cursor any) (*Page, error)
}

func (m *MockDriver) GetConfigRef() Config {
	if m.getConfigRefFunc != nil {
		return m.getConfigRefFunc()
	}
	return nil
}

func (m *MockDriver) Spec() any {
	if m.specFunc != nil {
		return m.specFunc()
	}
	return nil
}

func (m *MockDriver) Type() string {
	if m.typeFunc != nil {
		return m.typeFunc()
	}
	return "mock"
}

func (m *MockDriver) Setup(ctx context.Context) error {
	if m.setupFunc != nil {
		return m.setupFunc(ctx)
	}
	return nil
}

func (m *MockDriver) Check(ctx context.Context) error {
	if m.checkFunc != nil {
		return m.checkFunc(ctx)
	}
	return nil
}

func (m *MockDriver) GetStreamNames(ctx context.Context) ([]string, error) {
	if m.getStreamNamesFunc != nil {
		return m.getStreamNamesFunc(ctx)
	}
	return []string{}, nil
}

func (m *MockDriver) ProduceSchema(ctx context.Context, stream string) (*types.Stream, error) {
	if m.produceSchemaFunc != nil {
		return m.produceSchemaFunc(ctx, stream)
	}
	return types.NewStream(stream, "").WithSyncMode(types.INCREMENTAL), nil
}

func (m *MockDriver) ResolveBookmark(stream types.StreamInterface) (*types.Bookmark, error) {
	if m.resolveBookmarkFunc != nil {
		return m.resolveBookmarkFunc(stream)
	}
	return &types.Bookmark{Stream: stream.ID(), Field: "id", Kind: types.IDBookmark}, nil
}

func (m *MockDriver) StartCursor(state types.StateInterface, bookmark *types.Bookmark) (any, error) {
	if m.startCursorFunc != nil {
		return m.startCursorFunc(state, bookmark)
	}
	if value, found := state.GetBookmark(bookmark.Stream, bookmark.Field); found {
		return value, nil
	}
	return 1, nil
}

func (m *MockDriver) FetchPage(ctx context.Context, stream types.StreamInterface, page int, cursor any) (*Page, error) {
	if m.fetchPageFunc != nil {
		return m.fetchPageFunc(ctx, stream, page, cursor)
	}
	return &Page{TotalPages: 1}, nil
}

type pageRequest struct {
	Page   int
	Cursor any
}

// pagedFetch serves the given pages in order and records every request
func pagedFetch(pages [][]map[string]any, requests *[]pageRequest) func(ctx context.Context, stream types.StreamInterface, page int, cursor any) (*Page, error) {
	return func(_ context.Context, _ types.StreamInterface, page int, cursor any) (*Page, error) {
		*requests = append(*requests, pageRequest{Page: page, Cursor: cursor})
		if page > len(pages) {
			return &Page{TotalPages: len(pages)}, nil
		}
		return &Page{Rows: pages[page-1], TotalPages: len(pages)}, nil
	}
}

// Helper functions

func createCustomersStream() *types.ConfiguredStream {
	stream := types.NewStream("customers", "").
		WithSyncMode(types.INCREMENTAL).
		WithPrimaryKey("customer_id").
		WithCursorField("last_modified_time")
	stream.Schema.Override(map[string]*types.Property{
		"customer_id":        {Type: types.NewSet(types.Int64)},
		"last_modified_time": {Type: types.NewSet(types.String, types.Null), Format: types.DateTimeFormat},
	})
	return stream.Wrap()
}

func createWarehousesStream() *types.ConfiguredStream {
	stream := types.NewStream("warehouses", "").
		WithSyncMode(types.INCREMENTAL).
		WithPrimaryKey("id").
		WithCursorField("id")
	stream.Schema.Override(map[string]*types.Property{
		"id":   {Type: types.NewSet(types.Int64)},
		"name": {Type: types.NewSet(types.String, types.Null)},
	})
	return stream.Wrap()
}

func timeBookmark(stream types.StreamInterface) (*types.Bookmark, error) {
	return &types.Bookmark{Stream: stream.ID(), Field: "last_modified_time", Kind: types.TimeBookmark}, nil
}
