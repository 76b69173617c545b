package typeutils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/datazip-inc/tap-apparel-magic/types"
)

// ReformatRecord coerces the record in place to the property types of the schema.
// Fields without a property are kept as they are.
func ReformatRecord(schema *types.TypeSchema, record types.Record) error {
	for key, val := range record {
		found, property := schema.GetProperty(key)
		if !found {
			continue
		}

		value, err := ReformatProperty(property, val)
		if err != nil {
			return fmt.Errorf("failed to reformat field[%s]: %s", key, err)
		}
		record[key] = value
	}

	return nil
}

// ReformatProperty tries every non null type of the property in declared order
func ReformatProperty(property *types.Property, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if property.Type == nil || property.Type.Len() == 0 {
		return normalizeNumber(v), nil
	}

	var lastErr error
	for _, typ := range property.Type.Array() {
		if typ == types.Null {
			continue
		}
		if typ == types.String && property.Format == types.DateTimeFormat {
			typ = types.Timestamp
		}

		switch typ {
		case types.Object:
			object, ok := v.(map[string]any)
			if !ok {
				lastErr = fmt.Errorf("expected object, found %T", v)
				continue
			}
			for key, inner := range object {
				nested, found := property.Properties[key]
				if !found {
					continue
				}
				value, err := ReformatProperty(nested, inner)
				if err != nil {
					return nil, fmt.Errorf("failed to reformat field[%s]: %s", key, err)
				}
				object[key] = value
			}
			return object, nil
		case types.Array:
			array, ok := v.([]any)
			if !ok {
				lastErr = fmt.Errorf("expected array, found %T", v)
				continue
			}
			if property.Items == nil {
				return array, nil
			}
			for i, inner := range array {
				value, err := ReformatProperty(property.Items, inner)
				if err != nil {
					return nil, fmt.Errorf("failed to reformat item[%d]: %s", i, err)
				}
				array[i] = value
			}
			return array, nil
		default:
			value, err := ReformatValue(typ, v)
			if err != nil {
				lastErr = err
				continue
			}
			return value, nil
		}
	}

	// the API sends "" for empty non string fields
	if str, ok := v.(string); ok && strings.TrimSpace(str) == "" && property.Nullable() {
		return nil, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no type accepts value %v", v)
	}
	return nil, lastErr
}

func ReformatValue(dataType types.DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch dataType {
	case types.Null:
		return nil, fmt.Errorf("null value expected, found %v", v)
	case types.Bool:
		return ReformatBool(v)
	case types.Int64:
		return ReformatInt64(v)
	case types.Float64:
		return ReformatFloat64(v)
	case types.Timestamp:
		return ReformatTimestamp(v)
	case types.String:
		return ReformatString(v)
	case types.Object, types.Array:
		return v, nil
	default:
		return normalizeNumber(v), nil
	}
}

func ReformatBool(v any) (bool, error) {
	switch booleanValue := v.(type) {
	case bool:
		return booleanValue, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(booleanValue)) {
		case "1", "t", "true", "yes", "y":
			return true, nil
		case "0", "f", "false", "no", "n", "":
			return false, nil
		}
	case json.Number:
		i, err := booleanValue.Int64()
		if err == nil && (i == 0 || i == 1) {
			return i == 1, nil
		}
	case int:
		if booleanValue == 0 || booleanValue == 1 {
			return booleanValue == 1, nil
		}
	case int64:
		if booleanValue == 0 || booleanValue == 1 {
			return booleanValue == 1, nil
		}
	case float64:
		if booleanValue == 0 || booleanValue == 1 {
			return booleanValue == 1, nil
		}
	}

	return false, fmt.Errorf("found to be boolean, but value is not boolean : %v", v)
}

func ReformatInt64(v any) (int64, error) {
	switch value := v.(type) {
	case json.Number:
		if i, err := value.Int64(); err == nil {
			return i, nil
		}
		f, err := value.Float64()
		if err != nil {
			return 0, fmt.Errorf("failed to change json.Number %s to int64: %s", value, err)
		}
		return floatToInt64(f)
	case int64:
		return value, nil
	case int:
		return int64(value), nil
	case int32:
		return int64(value), nil
	case uint32:
		return int64(value), nil
	case float32:
		return floatToInt64(float64(value))
	case float64:
		return floatToInt64(value)
	case string:
		trimmed := strings.TrimSpace(value)
		if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to change string %s to int64: %s", value, err)
		}
		return floatToInt64(f)
	case bool:
		if value {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("failed to change %v (type:%T) to int64", v, v)
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	return int64(f), nil
}

func ReformatFloat64(v any) (float64, error) {
	switch value := v.(type) {
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return 0, fmt.Errorf("failed to change json.Number %s to float64: %s", value, err)
		}
		return f, nil
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case int32:
		return float64(value), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, fmt.Errorf("failed to change string %s to float64: %s", value, err)
		}
		return f, nil
	case bool:
		if value {
			return 1, nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("failed to change %v (type:%T) to float64", v, v)
}

// ReformatTimestamp normalizes a date-time value to an RFC 3339 UTC string
func ReformatTimestamp(v any) (string, error) {
	if str, ok := v.(string); ok && strings.TrimSpace(str) == "" {
		return "", fmt.Errorf("empty string is not a date-time")
	}

	parsed, err := ReformatDate(v)
	if err != nil {
		return "", err
	}

	return parsed.Format(time.RFC3339Nano), nil
}

func ReformatString(v any) (string, error) {
	switch value := v.(type) {
	case string:
		return value, nil
	case json.Number:
		return value.String(), nil
	case map[string]any, []any:
		data, err := json.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return FormatCursorValue(v), nil
	}
}

// FormatCursorValue renders a bookmark value for a request parameter; integral floats
// are printed without exponent
func FormatCursorValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case float64:
		if value == math.Trunc(value) && math.Abs(value) < 1e18 {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return FormatCursorValue(float64(value))
	case time.Time:
		return value.UTC().Format(time.RFC3339)
	case Time:
		return value.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(value)
	}
}
