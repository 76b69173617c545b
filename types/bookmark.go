package types

// BookmarkKind tells how a bookmark value is compared and where a first sync starts
type BookmarkKind string

const (
	// TimeBookmark values are timestamps; advanced max-wins
	TimeBookmark BookmarkKind = "TIME"
	// IDBookmark values are identifiers; advanced with the last emitted row
	IDBookmark BookmarkKind = "ID"
)

// Bookmark is the resolved cursor of one stream for one sync pass
type Bookmark struct {
	Stream string       `json:"stream"`
	Field  string       `json:"field"`
	Kind   BookmarkKind `json:"kind"`
	Value  any          `json:"value,omitempty"`
}

func (b *Bookmark) IsTime() bool {
	return b.Kind == TimeBookmark
}
