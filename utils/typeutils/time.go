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

package typeutils

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// layouts accepted for timestamps read from the API, state or config
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

type Time struct {
	time.Time
}

// UnmarshalJSON overrides the default unmarshalling for Time
func (ct *Time) UnmarshalJSON(b []byte) error {
	// Remove the quotes around the date string
	str := strings.Trim(string(b), "\"")
	time, err := parseStringTimestamp(str)
	if err != nil {
		return err
	}

	*ct = Time{time}
	return nil
}

func (ct Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(ct.UTC().Format(time.RFC3339))
}

// Before reports whether the time instant ct is before u
func (ct Time) Before(u Time) bool {
	return ct.Time.Before(u.Time)
}

// After reports whether the time instant ct is after u
func (ct Time) After(u Time) bool {
	return ct.Time.After(u.Time)
}

// Equal reports whether ct and u represent the same time instant
func (ct Time) Equal(u Time) bool {
	return ct.Time.Equal(u.Time)
}

// Compare compares the time instant ct with u. If ct is before u, it returns -1;
// if ct is after u, it returns +1; if they're the same, it returns 0.
func (ct Time) Compare(u Time) int {
	if ct.Before(u) {
		return -1
	}
	if ct.After(u) {
		return 1
	}
	return 0
}

func parseStringTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp[%s]: unknown layout", value)
}

// ReformatDate parses strings, time values and unix seconds into a UTC time
func ReformatDate(v any) (time.Time, error) {
	switch value := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("null value")
	case time.Time:
		return value.UTC(), nil
	case *time.Time:
		if value == nil {
			return time.Time{}, fmt.Errorf("null value")
		}
		return value.UTC(), nil
	case Time:
		return value.UTC(), nil
	case string:
		return parseStringTimestamp(value)
	case *string:
		if value == nil {
			return time.Time{}, fmt.Errorf("null value")
		}
		return parseStringTimestamp(*value)
	case json.Number:
		seconds, err := value.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse timestamp[%s]: %s", value, err)
		}
		return time.Unix(seconds, 0).UTC(), nil
	case int64:
		return time.Unix(value, 0).UTC(), nil
	case int:
		return time.Unix(int64(value), 0).UTC(), nil
	case float64:
		return time.Unix(int64(value), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp value %v of type %T", v, v)
	}
}

// CompareTimestamps parses both values and compares them as instants
func CompareTimestamps(a, b any) (int, error) {
	aTime, err := ReformatDate(a)
	if err != nil {
		return 0, err
	}
	bTime, err := ReformatDate(b)
	if err != nil {
		return 0, err
	}

	return aTime.Compare(bTime), nil
}
