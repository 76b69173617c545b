package types

// Message is a dto for tap output row representation
type Message struct {
	Type MessageType `json:"type"`

	// Stream the SCHEMA or RECORD message belongs to
	Stream             string         `json:"stream,omitempty"`
	Record             Record         `json:"record,omitempty"`
	Schema             *TypeSchema    `json:"schema,omitempty"`
	KeyProperties      []string       `json:"key_properties,omitempty"`
	BookmarkProperties []string       `json:"bookmark_properties,omitempty"`
	TimeExtracted      string         `json:"time_extracted,omitempty"`
	Value              *State         `json:"value,omitempty"`
	Log                *Log           `json:"log,omitempty"`
	ConnectionStatus   *StatusRow     `json:"connectionStatus,omitempty"`
	Catalog            *Catalog       `json:"catalog,omitempty"`
	Spec               map[string]any `json:"spec,omitempty"`
}

// Log is a dto for log serialization
type Log struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusRow is a dto for connection check result serialization
type StatusRow struct {
	Status  ConnectionStatus `json:"status,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Catalog is a dto for formatted catalog serialization
type Catalog struct {
	// Stream ids to sync; when empty the per-stream selected flag decides
	SelectedStreams []string            `json:"selected_streams,omitempty"`
	Streams         []*ConfiguredStream `json:"streams,omitempty"`
}

func GetWrappedCatalog(streams []*Stream) *Catalog {
	catalog := &Catalog{
		Streams:         []*ConfiguredStream{},
		SelectedStreams: []string{},
	}

	for _, stream := range streams {
		catalog.Streams = append(catalog.Streams, &ConfiguredStream{
			Stream:   stream,
			Selected: true,
		})
		catalog.SelectedStreams = append(catalog.SelectedStreams, stream.ID())
	}

	return catalog
}

// IsSelected reports whether the configured stream should be synced
func (c *Catalog) IsSelected(stream *ConfiguredStream) bool {
	if len(c.SelectedStreams) > 0 {
		for _, id := range c.SelectedStreams {
			if id == stream.ID() {
				return true
			}
		}

		return false
	}

	anyFlagged := false
	for _, elem := range c.Streams {
		anyFlagged = anyFlagged || elem.Selected
	}

	// catalog without any selection syncs everything it lists
	return !anyFlagged || stream.Selected
}
