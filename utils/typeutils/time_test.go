package typeutils

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReformatDate(t *testing.T) {
	expected := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   any
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339", input: "2023-06-01T00:00:00Z", want: expected},
		{name: "rfc3339 with offset", input: "2023-06-01T02:00:00+02:00", want: expected},
		{name: "fractional seconds", input: "2023-06-01T00:00:00.000000Z", want: expected},
		{name: "space separated", input: "2023-06-01 00:00:00", want: expected},
		{name: "date only", input: "2023-06-01", want: expected},
		{name: "us date", input: "06/01/2023", want: expected},
		{name: "unix seconds", input: json.Number("1685577600"), want: expected},
		{name: "time value", input: expected, want: expected},
		{name: "nil", input: nil, wantErr: true},
		{name: "garbage", input: "yesterday", wantErr: true},
		{name: "unsupported type", input: []any{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReformatDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestCompareTimestamps(t *testing.T) {
	cmp, err := CompareTimestamps("2023-06-01T00:00:00Z", "2023-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	cmp, err = CompareTimestamps("2023-06-01T02:00:00+02:00", "2023-06-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	_, err = CompareTimestamps("not a time", "2023-06-01T00:00:00Z")
	assert.Error(t, err)
}

func TestTime_JSON(t *testing.T) {
	var parsed Time
	require.NoError(t, json.Unmarshal([]byte(`"2023-06-01 00:00:00"`), &parsed))

	data, err := json.Marshal(parsed)
	require.NoError(t, err)
	assert.Equal(t, `"2023-06-01T00:00:00Z"`, string(data))
}
