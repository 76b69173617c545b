package types

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

// State maps stream id to its bookmark {field: value}
//
// Serialized flat ({"customers": {"last_modified_time": "..."}}); the singer
// wrapped form ({"bookmarks": {...}}) is accepted on read
type State struct {
	*sync.RWMutex `json:"-"`
	Bookmarks     map[string]map[string]any `json:"-"`
}

func NewState() *State {
	return &State{
		RWMutex:   &sync.RWMutex{},
		Bookmarks: make(map[string]map[string]any),
	}
}

func (s *State) init() {
	if s.RWMutex == nil {
		s.RWMutex = &sync.RWMutex{}
	}
	if s.Bookmarks == nil {
		s.Bookmarks = make(map[string]map[string]any)
	}
}

func (s *State) IsZero() bool {
	s.RLock()
	defer s.RUnlock()

	return len(s.Bookmarks) == 0
}

// GetBookmark returns the persisted value of field for the stream; found is false
// when the stream or the field is absent
func (s *State) GetBookmark(streamID, field string) (any, bool) {
	s.RLock()
	defer s.RUnlock()

	bookmark, found := s.Bookmarks[streamID]
	if !found {
		return nil, false
	}

	value, found := bookmark[field]
	return value, found
}

// Checkpoint sets the stream's bookmark to {field: value}, leaving other streams untouched
func (s *State) Checkpoint(streamID, field string, value any) *State {
	s.Lock()
	defer s.Unlock()

	s.Bookmarks[streamID] = map[string]any{field: value}
	return s
}

// Streams returns the ids of all streams carrying a bookmark, sorted
func (s *State) Streams() []string {
	s.RLock()
	defer s.RUnlock()

	streams := make([]string, 0, len(s.Bookmarks))
	for stream := range s.Bookmarks {
		streams = append(streams, stream)
	}
	sort.Strings(streams)

	return streams
}

func (s *State) MarshalJSON() ([]byte, error) {
	if s.Bookmarks == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(s.Bookmarks)
}

func (s *State) UnmarshalJSON(data []byte) error {
	s.init()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("state must be a json object: %s", err)
	}

	if wrapped, found := raw["bookmarks"]; found {
		raw = map[string]json.RawMessage{}
		if err := json.Unmarshal(wrapped, &raw); err != nil {
			return fmt.Errorf("state bookmarks must be a json object: %s", err)
		}
	}

	for stream, value := range raw {
		bookmark := map[string]any{}
		decoder := json.NewDecoder(bytes.NewReader(value))
		decoder.UseNumber()
		if err := decoder.Decode(&bookmark); err != nil {
			return fmt.Errorf("bookmark of stream[%s] must be a json object: %s", stream, err)
		}
		s.Bookmarks[stream] = bookmark
	}

	return nil
}
