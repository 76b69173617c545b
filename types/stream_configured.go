package types

import (
	"fmt"
)

// Input/Processed object for Stream
type ConfiguredStream struct {
	Stream *Stream `json:"stream,omitempty"`
	// Marks the stream for sync when the catalog carries no selected_streams list
	Selected bool `json:"selected,omitempty"`
	// Replication key declared by the user; overrides the stream's own ReplicationKey
	ReplicationKey string   `json:"replication_key,omitempty"`
	ExcludeColumns []string `json:"exclude_columns,omitempty"`
}

func (s *ConfiguredStream) ID() string {
	return s.Stream.ID()
}

func (s *ConfiguredStream) Self() *ConfiguredStream {
	return s
}

func (s *ConfiguredStream) Name() string {
	return s.Stream.Name
}

func (s *ConfiguredStream) GetStream() *Stream {
	return s.Stream
}

func (s *ConfiguredStream) Namespace() string {
	return s.Stream.Namespace
}

func (s *ConfiguredStream) Schema() *TypeSchema {
	return s.Stream.Schema
}

func (s *ConfiguredStream) SupportedSyncModes() *Set[SyncMode] {
	return s.Stream.SupportedSyncModes
}

func (s *ConfiguredStream) GetSyncMode() SyncMode {
	return s.Stream.SyncMode
}

func (s *ConfiguredStream) PrimaryKey() []string {
	return s.Stream.SourceDefinedPrimaryKey.Array()
}

// ExplicitReplicationKey returns the replication key declared in the catalog, if any
func (s *ConfiguredStream) ExplicitReplicationKey() string {
	if s.ReplicationKey != "" {
		return s.ReplicationKey
	}

	return s.Stream.ReplicationKey
}

// Validate Configured Stream with Source Stream
func (s *ConfiguredStream) Validate(source *Stream) error {
	if s.Stream.SyncMode != "" && !source.SupportedSyncModes.Exists(s.Stream.SyncMode) {
		return fmt.Errorf("invalid sync mode[%s]; valid are %v", s.Stream.SyncMode, source.SupportedSyncModes)
	}

	if key := s.ExplicitReplicationKey(); key != "" && !source.AvailableCursorFields.Exists(key) {
		return fmt.Errorf("invalid replication key [%s]; valid are %v", key, source.AvailableCursorFields)
	}

	if s.Stream.SourceDefinedPrimaryKey != nil && source.SourceDefinedPrimaryKey.ProperSubsetOf(s.Stream.SourceDefinedPrimaryKey) {
		return fmt.Errorf("difference found with primary keys: %v", source.SourceDefinedPrimaryKey.Difference(s.Stream.SourceDefinedPrimaryKey).Array())
	}

	return nil
}
