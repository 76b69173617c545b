package stdout

import (
	"context"
	"time"

	"github.com/datazip-inc/tap-apparel-magic/destination"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

type Config struct {
	// adds time_extracted to every RECORD message
	TimeExtracted bool `json:"time_extracted,omitempty"`
}

func (c *Config) Validate() error {
	return nil
}

// Stdout writes SCHEMA and RECORD messages to the tap output stream
type Stdout struct {
	config  *Config
	stream  types.StreamInterface
	options *destination.Options
}

func (s *Stdout) GetConfigRef() destination.Config {
	s.config = &Config{}
	return s.config
}

func (s *Stdout) Spec() any {
	return Config{}
}

func (s *Stdout) Type() string {
	return string(types.Stdout)
}

func (s *Stdout) Check(_ context.Context) error {
	return nil
}

// Setup announces the stream schema before any record
func (s *Stdout) Setup(_ context.Context, stream types.StreamInterface, opts *destination.Options) error {
	s.stream = stream
	s.options = opts

	message := &types.Message{
		Type:          types.SchemaMessage,
		Stream:        stream.Name(),
		Schema:        stream.Schema(),
		KeyProperties: stream.PrimaryKey(),
	}
	if opts != nil && opts.BookmarkField != "" {
		message.BookmarkProperties = []string{opts.BookmarkField}
	}

	return logger.Emit(message)
}

func (s *Stdout) Write(_ context.Context, record types.RawRecord) error {
	message := &types.Message{
		Type:   types.RecordMessage,
		Stream: s.stream.Name(),
		Record: record.Data,
	}
	if s.config != nil && s.config.TimeExtracted {
		message.TimeExtracted = time.UnixMicro(record.ExtractedAt).UTC().Format(time.RFC3339)
	}

	return logger.Emit(message)
}

func (s *Stdout) Close(_ context.Context) error {
	return nil
}

func init() {
	destination.RegisteredWriters[types.Stdout] = func() destination.Writer {
		return new(Stdout)
	}
}
