package driver

import (
	"fmt"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/types"
)

// GetStart returns the cursor a stream is requested from: the persisted bookmark verbatim
// when present, else start_date for time bookmarks and 1 for id bookmarks
func GetStart(state types.StateInterface, streamID, bookmarkField string, kind types.BookmarkKind, startDate string) (any, error) {
	if state != nil {
		if value, found := state.GetBookmark(streamID, bookmarkField); found && value != nil {
			return value, nil
		}
	}

	if kind != types.TimeBookmark {
		return constants.DefaultIDCursor, nil
	}

	if startDate == "" {
		return nil, fmt.Errorf("%w: %w: stream[%s]", constants.ErrConfig, constants.ErrStartDateMissing, streamID)
	}

	return startDate, nil
}
