package protocol

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	_ "github.com/datazip-inc/tap-apparel-magic/destination/stdout"
	"github.com/datazip-inc/tap-apparel-magic/drivers/abstract"
	"github.com/datazip-inc/tap-apparel-magic/pkg/requests"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

type apiConfig struct {
	URL       string `json:"url"`
	Token     string `json:"token"`
	StartDate string `json:"start_date,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
}

func (c *apiConfig) Validate() error {
	if c.URL == "" || c.Token == "" {
		return fmt.Errorf("%w: url and token are required", constants.ErrConfig)
	}
	if c.PageSize == 0 {
		c.PageSize = constants.DefaultPageSize
	}
	return nil
}

// apiDriver hands out a fresh config on every GetConfigRef call
type apiDriver struct {
	config *apiConfig
	client *requests.Client
}

func (d *apiDriver) GetConfigRef() abstract.Config {
	d.config = &apiConfig{}
	return d.config
}

func (d *apiDriver) Spec() any {
	return apiConfig{}
}

func (d *apiDriver) Type() string {
	return "api"
}

func (d *apiDriver) Setup(_ context.Context) error {
	if err := d.config.Validate(); err != nil {
		return err
	}

	d.client = requests.NewClient(&http.Client{Timeout: 5 * time.Second}, requests.NewLimiter(0), requests.RetryPolicy{MaxAttempts: 1})
	return nil
}

func (d *apiDriver) Check(_ context.Context) error {
	return nil
}

func (d *apiDriver) GetStreamNames(_ context.Context) ([]string, error) {
	return []string{"customers"}, nil
}

func (d *apiDriver) ProduceSchema(_ context.Context, name string) (*types.Stream, error) {
	stream := types.NewStream(name, "").
		WithSyncMode(types.INCREMENTAL).
		WithPrimaryKey("customer_id").
		WithCursorField("last_modified_time")
	stream.UpsertField("customer_id", types.Int64, false)
	stream.UpsertField("last_modified_time", types.Timestamp, true)
	return stream, nil
}

func (d *apiDriver) ResolveBookmark(stream types.StreamInterface) (*types.Bookmark, error) {
	return &types.Bookmark{Stream: stream.ID(), Field: "last_modified_time", Kind: types.TimeBookmark}, nil
}

func (d *apiDriver) StartCursor(state types.StateInterface, bookmark *types.Bookmark) (any, error) {
	if value, found := state.GetBookmark(bookmark.Stream, bookmark.Field); found && value != nil {
		return value, nil
	}
	if d.config.StartDate == "" {
		return nil, fmt.Errorf("%w: %w: stream[%s]", constants.ErrConfig, constants.ErrStartDateMissing, bookmark.Stream)
	}
	return d.config.StartDate, nil
}

func (d *apiDriver) FetchPage(ctx context.Context, stream types.StreamInterface, page int, cursor any) (*abstract.Page, error) {
	query := url.Values{}
	query.Set("token", d.config.Token)
	query.Set("page", fmt.Sprint(page))
	query.Set("size", fmt.Sprint(d.config.PageSize))
	query.Set("since", fmt.Sprint(cursor))

	body := struct {
		Rows       []map[string]any `json:"rows"`
		TotalPages int              `json:"total_pages"`
	}{}
	if err := d.client.GetJSON(ctx, fmt.Sprintf("%s/%s?%s", d.config.URL, stream.Name(), query.Encode()), &body); err != nil {
		return nil, err
	}

	return &abstract.Page{Rows: body.Rows, TotalPages: body.TotalPages}, nil
}

// customersAPI serves one page of customers and records every query
type customersAPI struct {
	mu      sync.Mutex
	queries []url.Values
}

func (a *customersAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.queries = append(a.queries, r.URL.Query())
	a.mu.Unlock()

	if r.URL.Path != "/customers" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	_, _ = w.Write([]byte(`{"rows":[
		{"customer_id":1,"last_modified_time":"2024-03-01T00:00:00Z"},
		{"customer_id":2,"last_modified_time":"2024-02-01T00:00:00Z"}
	],"total_pages":1}`))
}

func writeJSON(t *testing.T, path string, value any) string {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// useSyncFlags points the command flags at the given files and restores them after the test
func useSyncFlags(t *testing.T, configFile, stateFile string) {
	t.Helper()

	saved := []string{configPath, destinationConfigPath, statePath, catalogPath}
	savedConnector := connector
	t.Cleanup(func() {
		configPath, destinationConfigPath, statePath, catalogPath = saved[0], saved[1], saved[2], saved[3]
		connector = savedConnector
		sourceConfig, catalog, state = nil, nil, nil
		viper.Set(constants.NoFileArtifact, false)
	})

	configPath, destinationConfigPath, statePath, catalogPath = configFile, "not-set", stateFile, ""
	viper.Set(constants.NoFileArtifact, true)
}

func syncMessages(t *testing.T, buf *bytes.Buffer) ([]*types.Message, []*types.State) {
	t.Helper()

	var records []*types.Message
	var states []*types.State
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		message := &types.Message{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), message))
		switch message.Type {
		case types.RecordMessage:
			records = append(records, message)
		case types.StateMessage:
			states = append(states, message.Value)
		}
	}
	return records, states
}

func TestSync_UsesLoadedConfig(t *testing.T) {
	api := &customersAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	dir := t.TempDir()
	config := writeJSON(t, filepath.Join(dir, "config.json"), map[string]any{
		"url":        server.URL,
		"token":      "secret",
		"start_date": "2024-01-01T00:00:00Z",
		"page_size":  25,
	})
	useSyncFlags(t, config, "")

	ctx := context.Background()
	connector = abstract.NewAbstractDriver(ctx, &apiDriver{})

	buf := &bytes.Buffer{}
	defer logger.SetOutput(buf)()

	require.NoError(t, loadSyncInputs())
	require.NoError(t, runSync(ctx))

	require.Len(t, api.queries, 1)
	assert.Equal(t, "secret", api.queries[0].Get("token"))
	assert.Equal(t, "25", api.queries[0].Get("size"))
	assert.Equal(t, "1", api.queries[0].Get("page"))
	assert.Equal(t, "2024-01-01T00:00:00Z", api.queries[0].Get("since"))

	records, states := syncMessages(t, buf)
	assert.Len(t, records, 2)
	require.NotEmpty(t, states)
	value, found := states[len(states)-1].GetBookmark("customers", "last_modified_time")
	require.True(t, found)
	assert.Equal(t, "2024-03-01T00:00:00Z", value)

	loaded, ok := sourceConfig.(*apiConfig)
	require.True(t, ok)
	assert.Equal(t, server.URL, loaded.URL)
}

func TestSync_ResumesFromStateFile(t *testing.T) {
	api := &customersAPI{}
	server := httptest.NewServer(api)
	defer server.Close()

	dir := t.TempDir()
	config := writeJSON(t, filepath.Join(dir, "config.json"), map[string]any{
		"url":   server.URL,
		"token": "secret",
	})
	saved := writeJSON(t, filepath.Join(dir, "state.json"), types.NewState().Checkpoint("customers", "last_modified_time", "2024-02-15T00:00:00Z"))
	useSyncFlags(t, config, saved)

	ctx := context.Background()
	connector = abstract.NewAbstractDriver(ctx, &apiDriver{})

	buf := &bytes.Buffer{}
	defer logger.SetOutput(buf)()

	require.NoError(t, loadSyncInputs())
	require.NoError(t, runSync(ctx))

	require.Len(t, api.queries, 1)
	assert.Equal(t, "2024-02-15T00:00:00Z", api.queries[0].Get("since"))
	assert.Equal(t, fmt.Sprint(constants.DefaultPageSize), api.queries[0].Get("size"))

	_, states := syncMessages(t, buf)
	require.NotEmpty(t, states)
	value, _ := states[len(states)-1].GetBookmark("customers", "last_modified_time")
	assert.Equal(t, "2024-03-01T00:00:00Z", value)
}
