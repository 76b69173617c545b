package driver

import (
	"embed"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/types"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// LoadSchema builds the stream of a known resource from its bundled JSON schema
func LoadSchema(streamID string) (*types.Stream, error) {
	desc, err := lookup(streamID)
	if err != nil {
		return nil, err
	}

	data, err := schemaFS.ReadFile(fmt.Sprintf("schemas/%s.json", streamID))
	if err != nil {
		return nil, fmt.Errorf("schema of stream[%s] not found: %s", streamID, err)
	}

	schema := types.NewTypeSchema()
	if err := json.Unmarshal(data, schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema of stream[%s]: %s", streamID, err)
	}

	bookmarkField, err := ResolveBookmarkField(streamID, "")
	if err != nil {
		return nil, err
	}

	for _, field := range append([]string{bookmarkField}, desc.KeyFields...) {
		if found, _ := schema.GetProperty(field); !found {
			return nil, fmt.Errorf("%w: schema of stream[%s] misses field[%s]", constants.ErrConfig, streamID, field)
		}
	}

	stream := types.NewStream(streamID, "").
		WithSchema(schema).
		WithSyncMode(types.INCREMENTAL).
		WithPrimaryKey(desc.KeyFields...).
		WithCursorField(bookmarkField).
		WithCursorField(schema.Columns()...)

	return stream, nil
}
