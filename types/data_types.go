package types

type DataType string

// JSON schema primitive types as used by the stream schemas
const (
	Null      DataType = "null"
	Int64     DataType = "integer"
	Float64   DataType = "number"
	String    DataType = "string"
	Bool      DataType = "boolean"
	Object    DataType = "object"
	Array     DataType = "array"
	Unknown   DataType = "unknown"
	Timestamp DataType = "timestamp" // string with date-time format
)

const DateTimeFormat = "date-time"

type Record map[string]any

// RawRecord is the unit handed to destination writers
type RawRecord struct {
	Data        map[string]any
	RecordID    string
	ExtractedAt int64
}

func CreateRawRecord(recordID string, data map[string]any, timestamp int64) RawRecord {
	return RawRecord{
		RecordID:    recordID,
		Data:        data,
		ExtractedAt: timestamp,
	}
}
