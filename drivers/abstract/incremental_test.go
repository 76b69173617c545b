package abstract

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/pkg/requests"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	restore := logger.SetOutput(buf)
	t.Cleanup(restore)
	return buf
}

func stateMessages(t *testing.T, buf *bytes.Buffer) []*types.State {
	t.Helper()
	var states []*types.State
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		message := &types.Message{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), message))
		if message.Type == types.StateMessage {
			states = append(states, message.Value)
		}
	}
	return states
}

func TestIncremental_PaginationStopsAtTotalPages(t *testing.T) {
	captureOutput(t)
	ctx := context.Background()

	var calls []pageRequest
	pages := [][]map[string]any{
		{{"id": json.Number("1")}},
		{{"id": json.Number("2")}},
		{{"id": json.Number("3")}},
	}
	driver := NewAbstractDriver(ctx, &MockDriver{fetchPageFunc: pagedFetch(pages, &calls)})

	pool, err := createTestWriterPool(ctx)
	require.NoError(t, err)

	stream := createWarehousesStream()
	require.NoError(t, driver.Read(ctx, pool, stream))

	assert.Equal(t, []pageRequest{{1, 1}, {2, 1}, {3, 1}}, calls)
	assert.Len(t, writtenRecords(stream.ID()), 3)
	assert.Equal(t, int64(3), pool.SyncedRecords())
}

func TestIncremental_EmptyStream(t *testing.T) {
	buf := captureOutput(t)
	ctx := context.Background()

	var calls []pageRequest
	driver := NewAbstractDriver(ctx, &MockDriver{
		fetchPageFunc: func(_ context.Context, _ types.StreamInterface, page int, cursor any) (*Page, error) {
			calls = append(calls, pageRequest{page, cursor})
			return &Page{TotalPages: 0}, nil
		},
	})

	pool, err := createTestWriterPool(ctx)
	require.NoError(t, err)

	stream := createWarehousesStream()
	require.NoError(t, driver.Read(ctx, pool, stream))

	assert.Equal(t, []pageRequest{{1, 1}}, calls)
	value, found := driver.State().GetBookmark("warehouses", "id")
	require.True(t, found)
	assert.Equal(t, 1, value)
	assert.Len(t, stateMessages(t, buf), 1)
}

func TestAdvanceBookmark_TimeMaxWins(t *testing.T) {
	bookmark := &types.Bookmark{Stream: "customers", Field: "last_modified_time", Kind: types.TimeBookmark}

	tests := []struct {
		name     string
		start    any
		values   []any
		expected any
	}{
		{
			name:     "out of order rows",
			start:    "2024-01-01T00:00:00Z",
			values:   []any{"2024-02-01T00:00:00Z", "2024-01-15T00:00:00Z", "2024-03-01T00:00:00Z"},
			expected: "2024-03-01T00:00:00Z",
		},
		{
			name:     "null rows are skipped",
			start:    "2024-01-01T00:00:00Z",
			values:   []any{"2024-02-01T00:00:00Z", nil, nil},
			expected: "2024-02-01T00:00:00Z",
		},
		{
			name:     "older rows keep start",
			start:    "2024-06-01T00:00:00Z",
			values:   []any{"2024-02-01T00:00:00Z", "2024-05-31T23:59:59Z"},
			expected: "2024-06-01T00:00:00Z",
		},
		{
			name:     "offsets compared as instants",
			start:    "2024-01-01T00:00:00Z",
			values:   []any{"2024-01-01T03:00:00+05:00", "2023-12-31T20:00:00-05:00"},
			expected: "2023-12-31T20:00:00-05:00",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			current := tc.start
			for _, value := range tc.values {
				var err error
				current, err = advanceBookmark(bookmark, current, value, value)
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expected, current)
		})
	}
}

func TestAdvanceBookmark_TimeInvalid(t *testing.T) {
	bookmark := &types.Bookmark{Stream: "customers", Field: "last_modified_time", Kind: types.TimeBookmark}

	_, err := advanceBookmark(bookmark, "2024-01-01T00:00:00Z", "yesterday", "yesterday")
	require.Error(t, err)
	assert.ErrorIs(t, err, constants.ErrMalformedResponse)
}

func TestAdvanceBookmark_TimeEmittedAsNull(t *testing.T) {
	bookmark := &types.Bookmark{Stream: "customers", Field: "last_modified_time", Kind: types.TimeBookmark}

	current, err := advanceBookmark(bookmark, "2024-01-01T00:00:00Z", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00Z", current)
}

func TestAdvanceBookmark_IDLastWins(t *testing.T) {
	bookmark := &types.Bookmark{Stream: "warehouses", Field: "id", Kind: types.IDBookmark}

	tests := []struct {
		name     string
		values   []any
		expected any
	}{
		{name: "ascending", values: []any{int64(5), int64(2), int64(9)}, expected: int64(9)},
		{name: "last row lower", values: []any{int64(5), int64(9), int64(2)}, expected: int64(2)},
		{name: "missing value keeps previous", values: []any{int64(5), nil}, expected: int64(5)},
		{name: "string identifiers", values: []any{"B-2", "A-1"}, expected: "A-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var current any = 1
			for _, value := range tc.values {
				var err error
				current, err = advanceBookmark(bookmark, current, value, value)
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expected, current)
		})
	}
}

func TestIncremental_ClientErrorSkipsCheckpoint(t *testing.T) {
	buf := captureOutput(t)
	ctx := context.Background()

	driver := NewAbstractDriver(ctx, &MockDriver{
		fetchPageFunc: func(_ context.Context, _ types.StreamInterface, page int, _ any) (*Page, error) {
			if page == 2 {
				return nil, &requests.StatusError{StatusCode: 404, URL: "https://example.com/warehouses"}
			}
			return &Page{Rows: []map[string]any{{"id": json.Number("10")}}, TotalPages: 3}, nil
		},
	})

	pool, err := createTestWriterPool(ctx)
	require.NoError(t, err)

	stream := createWarehousesStream()
	err = driver.Read(ctx, pool, stream)
	require.Error(t, err)

	var statusErr *requests.StatusError
	assert.True(t, errors.As(err, &statusErr))

	_, found := driver.State().GetBookmark("warehouses", "id")
	assert.False(t, found)
	assert.Empty(t, stateMessages(t, buf))
	// the page fetched before the failure was still emitted
	assert.Len(t, writtenRecords(stream.ID()), 1)
}

func TestIncremental_PreflightFailsBeforeRequests(t *testing.T) {
	captureOutput(t)
	ctx := context.Background()

	fetched := false
	driver := NewAbstractDriver(ctx, &MockDriver{
		resolveBookmarkFunc: func(stream types.StreamInterface) (*types.Bookmark, error) {
			if stream.Name() == "customers" {
				return timeBookmark(stream)
			}
			return &types.Bookmark{Stream: stream.ID(), Field: "id", Kind: types.IDBookmark}, nil
		},
		startCursorFunc: func(_ types.StateInterface, bookmark *types.Bookmark) (any, error) {
			if bookmark.IsTime() {
				return nil, constants.ErrStartDateMissing
			}
			return 1, nil
		},
		fetchPageFunc: func(_ context.Context, _ types.StreamInterface, _ int, _ any) (*Page, error) {
			fetched = true
			return &Page{TotalPages: 1}, nil
		},
	})

	pool, err := createTestWriterPool(ctx)
	require.NoError(t, err)

	err = driver.Read(ctx, pool, createWarehousesStream(), createCustomersStream())
	require.Error(t, err)
	assert.ErrorIs(t, err, constants.ErrStartDateMissing)
	assert.False(t, fetched)
}

func TestIncremental_ResumeFromState(t *testing.T) {
	captureOutput(t)
	ctx := context.Background()

	state := types.NewState()
	state.Checkpoint("customers", "last_modified_time", "2024-01-01T00:00:00Z")

	var calls []pageRequest
	driver := NewAbstractDriver(ctx, &MockDriver{
		resolveBookmarkFunc: timeBookmark,
		startCursorFunc: func(state types.StateInterface, bookmark *types.Bookmark) (any, error) {
			if value, found := state.GetBookmark(bookmark.Stream, bookmark.Field); found {
				return value, nil
			}
			return "2023-01-01T00:00:00Z", nil
		},
		fetchPageFunc: pagedFetch([][]map[string]any{{}}, &calls),
	})
	driver.SetupState(state)

	pool, err := createTestWriterPool(ctx)
	require.NoError(t, err)

	require.NoError(t, driver.Read(ctx, pool, createCustomersStream()))
	require.Len(t, calls, 1)
	assert.Equal(t, "2024-01-01T00:00:00Z", calls[0].Cursor)

	value, _ := driver.State().GetBookmark("customers", "last_modified_time")
	assert.Equal(t, "2024-01-01T00:00:00Z", value)
}

func TestIncremental_CustomersScenario(t *testing.T) {
	buf := captureOutput(t)
	ctx := context.Background()

	var calls []pageRequest
	pages := [][]map[string]any{{
		{"customer_id": json.Number("1"), "last_modified_time": "2023-06-01T00:00:00Z"},
		{"customer_id": json.Number("2"), "last_modified_time": nil},
	}}
	driver := NewAbstractDriver(ctx, &MockDriver{
		resolveBookmarkFunc: timeBookmark,
		startCursorFunc: func(_ types.StateInterface, _ *types.Bookmark) (any, error) {
			return "2023-01-01T00:00:00Z", nil
		},
		fetchPageFunc: pagedFetch(pages, &calls),
	})

	pool, err := createTestWriterPool(ctx)
	require.NoError(t, err)

	stream := createCustomersStream()
	require.NoError(t, driver.Read(ctx, pool, stream))

	records := writtenRecords(stream.ID())
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].Data["customer_id"])
	assert.Equal(t, int64(2), records[1].Data["customer_id"])
	assert.Nil(t, records[1].Data["last_modified_time"])
	assert.NotEqual(t, records[0].RecordID, records[1].RecordID)

	states := stateMessages(t, buf)
	require.Len(t, states, 1)
	value, found := states[0].GetBookmark("customers", "last_modified_time")
	require.True(t, found)
	assert.Equal(t, "2023-06-01T00:00:00Z", value)
}

func TestIncremental_EmptyTimestampSkipsBookmark(t *testing.T) {
	buf := captureOutput(t)
	ctx := context.Background()

	var calls []pageRequest
	pages := [][]map[string]any{{
		{"customer_id": json.Number("1"), "last_modified_time": "2023-06-01T00:00:00Z"},
		{"customer_id": json.Number("2"), "last_modified_time": ""},
	}}
	driver := NewAbstractDriver(ctx, &MockDriver{
		resolveBookmarkFunc: timeBookmark,
		startCursorFunc: func(_ types.StateInterface, _ *types.Bookmark) (any, error) {
			return "2023-01-01T00:00:00Z", nil
		},
		fetchPageFunc: pagedFetch(pages, &calls),
	})

	pool, err := createTestWriterPool(ctx)
	require.NoError(t, err)

	stream := createCustomersStream()
	require.NoError(t, driver.Read(ctx, pool, stream))

	records := writtenRecords(stream.ID())
	require.Len(t, records, 2)
	assert.Nil(t, records[1].Data["last_modified_time"])

	states := stateMessages(t, buf)
	require.Len(t, states, 1)
	value, found := states[0].GetBookmark("customers", "last_modified_time")
	require.True(t, found)
	assert.Equal(t, "2023-06-01T00:00:00Z", value)
}

func TestIncremental_WarehousesScenario(t *testing.T) {
	buf := captureOutput(t)
	ctx := context.Background()

	var calls []pageRequest
	pages := [][]map[string]any{
		{{"id": json.Number("10")}, {"id": json.Number("11")}},
		{{"id": json.Number("12")}},
	}
	driver := NewAbstractDriver(ctx, &MockDriver{fetchPageFunc: pagedFetch(pages, &calls)})

	pool, err := createTestWriterPool(ctx)
	require.NoError(t, err)

	require.NoError(t, driver.Read(ctx, pool, createWarehousesStream()))
	assert.Equal(t, []pageRequest{{1, 1}, {2, 1}}, calls)

	states := stateMessages(t, buf)
	require.Len(t, states, 1)
	value, found := states[0].GetBookmark("warehouses", "id")
	require.True(t, found)
	assert.Equal(t, json.Number("12"), value)
}

func TestIncremental_StateMergesAcrossStreams(t *testing.T) {
	buf := captureOutput(t)
	ctx := context.Background()

	state := types.NewState()
	state.Checkpoint("orders", "last_modified_time", "2024-01-01T00:00:00Z")

	driver := NewAbstractDriver(ctx, &MockDriver{
		resolveBookmarkFunc: func(stream types.StreamInterface) (*types.Bookmark, error) {
			if stream.Name() == "customers" {
				return timeBookmark(stream)
			}
			return &types.Bookmark{Stream: stream.ID(), Field: "id", Kind: types.IDBookmark}, nil
		},
		startCursorFunc: func(_ types.StateInterface, bookmark *types.Bookmark) (any, error) {
			return firstRunCursor(bookmark), nil
		},
		fetchPageFunc: func(_ context.Context, stream types.StreamInterface, _ int, _ any) (*Page, error) {
			if stream.Name() == "customers" {
				return &Page{Rows: []map[string]any{{"customer_id": json.Number("7"), "last_modified_time": "2023-02-01T00:00:00Z"}}, TotalPages: 1}, nil
			}
			return &Page{Rows: []map[string]any{{"id": json.Number("4")}}, TotalPages: 1}, nil
		},
	})
	driver.SetupState(state)

	pool, err := createTestWriterPool(ctx)
	require.NoError(t, err)

	require.NoError(t, driver.Read(ctx, pool, createWarehousesStream(), createCustomersStream()))

	states := stateMessages(t, buf)
	require.Len(t, states, 2)
	assert.Equal(t, []string{"orders", "warehouses"}, states[0].Streams())
	assert.Equal(t, []string{"customers", "orders", "warehouses"}, states[1].Streams())
	assert.Equal(t, map[string]int64{"warehouses": 1, "customers": 1}, pool.StreamCounts())
}

func firstRunCursor(bookmark *types.Bookmark) any {
	if bookmark.IsTime() {
		return "2023-01-01T00:00:00Z"
	}
	return 1
}
