package typeutils

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// normalizeNumber turns json.Number into int64 or float64 so it compares with native numbers
func normalizeNumber(v any) any {
	num, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := num.Int64(); err == nil {
		return i
	}
	if f, err := num.Float64(); err == nil {
		return f
	}
	return num.String()
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func toFloat(v any) float64 {
	return reflect.ValueOf(v).Convert(reflect.TypeFor[float64]()).Float()
}

// Compare returns 0 for equal, -1 if a < b else 1 if a > b
func Compare(a, b any) int {
	// Handle nil cases first
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	a, b = normalizeNumber(a), normalizeNumber(b)

	// mixed numeric kinds, e.g. a decoded int64 against a float64 from a coerced row
	if isNumber(a) && isNumber(b) && reflect.TypeOf(a).Kind() != reflect.TypeOf(b).Kind() {
		return compareFloat(toFloat(a), toFloat(b))
	}

	switch aVal := a.(type) {
	case uint, uint8, uint16, uint32, uint64:
		aUint := reflect.ValueOf(a).Convert(reflect.TypeFor[uint64]()).Uint()
		bUint := reflect.ValueOf(b).Convert(reflect.TypeFor[uint64]()).Uint()
		if aUint < bUint {
			return -1
		} else if aUint > bUint {
			return 1
		}
		return 0
	case int, int8, int16, int32, int64:
		aInt := reflect.ValueOf(a).Convert(reflect.TypeFor[int64]()).Int()
		bInt := reflect.ValueOf(b).Convert(reflect.TypeFor[int64]()).Int()
		if aInt < bInt {
			return -1
		} else if aInt > bInt {
			return 1
		}
		return 0
	case float32, float64:
		return compareFloat(toFloat(a), toFloat(b))
	case time.Time:
		bTime, ok := b.(time.Time)
		if !ok {
			break
		}
		return aVal.Compare(bTime)
	case Time:
		bTime, ok := b.(Time)
		if !ok {
			break
		}
		return aVal.Compare(bTime)
	case bool:
		bBool, ok := b.(bool)
		if !ok {
			break
		}
		// false < true
		if !aVal && bBool {
			return -1
		} else if aVal && !bBool {
			return 1
		}
		return 0
	}

	// For any other types, convert to string for comparison
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func compareFloat(aFloat, bFloat float64) int {
	if math.IsNaN(aFloat) {
		if math.IsNaN(bFloat) {
			return 0
		}
		return -1
	}
	if math.IsNaN(bFloat) {
		return 1
	}

	const eps = 1e-6
	diff := aFloat - bFloat
	if math.Abs(diff) < eps {
		return 0
	} else if diff < 0 {
		return -1
	}
	return 1
}
