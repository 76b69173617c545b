package constants

import (
	"errors"
	"time"
)

type DriverType string

const (
	ApparelMagic DriverType = "apparel-magic"
)

const (
	ParquetFileExt     = "parquet"
	LastModifiedTime   = "last_modified_time"
	DefaultPageSize    = 100
	DefaultRateLimit   = 20 // requests per second, shared process wide
	DefaultMaxRetries  = 5
	DefaultIDCursor    = 1
	DefaultSyncTimeout = 300 * time.Second
	StatsLogInterval   = 30 * time.Second

	// viper keys
	ConfigFolder   = "CONFIG_FOLDER"
	StatePath      = "STATE_PATH"
	StreamsPath    = "STREAMS_PATH"
	EncryptionKey  = "ENCRYPTION_KEY"
	LogLevel       = "LOG_LEVEL"
	NoFileArtifact = "NO_FILE_ARTIFACT"
)

var (
	ErrNonRetryable       = errors.New("non-retryable error")
	ErrConfig             = errors.New("configuration error")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrUnknownStream      = errors.New("unknown stream")
	ErrStartDateMissing   = errors.New("start_date is required for time bookmarked streams without state")
	ErrGlobalContextGroup = errors.New("global context group errored")
)
