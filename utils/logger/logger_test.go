package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/types"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	messages := []map[string]any{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		message := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &message))
		messages = append(messages, message)
	}
	return messages
}

func TestEmit_WritesOneLinePerMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	defer SetOutput(buf)()

	require.NoError(t, Emit(&types.Message{Type: types.RecordMessage, Stream: "orders", Record: types.Record{"order_id": 1}}))
	require.NoError(t, Emit(&types.Message{Type: types.RecordMessage, Stream: "orders", Record: types.Record{"order_id": 2}}))

	messages := decodeLines(t, buf)
	require.Len(t, messages, 2)
	assert.Equal(t, "RECORD", messages[0]["type"])
	assert.Equal(t, "orders", messages[1]["stream"])
}

func TestLogState_EmitsAndPersists(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	viper.Set(constants.StatePath, statePath)
	t.Cleanup(func() { viper.Set(constants.StatePath, "") })

	buf := &bytes.Buffer{}
	defer SetOutput(buf)()

	state := types.NewState()
	state.Checkpoint("customers", "last_modified_time", "2023-06-01T00:00:00Z")
	LogState(state)

	messages := decodeLines(t, buf)
	require.Len(t, messages, 1)
	assert.Equal(t, "STATE", messages[0]["type"])
	assert.Equal(t, map[string]any{"customers": map[string]any{"last_modified_time": "2023-06-01T00:00:00Z"}}, messages[0]["value"])

	persisted, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"customers":{"last_modified_time":"2023-06-01T00:00:00Z"}}`, string(persisted))
}

func TestLogConnectionStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	defer SetOutput(buf)()

	LogConnectionStatus(nil)
	LogConnectionStatus(errors.New("invalid token"))

	messages := decodeLines(t, buf)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"status": "SUCCEEDED"}, messages[0]["connectionStatus"])
	assert.Equal(t, map[string]any{"status": "FAILED", "message": "invalid token"}, messages[1]["connectionStatus"])
}
