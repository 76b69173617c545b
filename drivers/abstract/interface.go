package abstract

import (
	"context"

	"github.com/datazip-inc/tap-apparel-magic/types"
)

type Config interface {
	Validate() error
}

// Page is one response of a paginated resource; pages are 1-indexed
type Page struct {
	Rows       []map[string]any
	TotalPages int
}

type DriverInterface interface {
	GetConfigRef() Config
	Spec() any
	Type() string
	// specific to test & setup
	Setup(ctx context.Context) error
	Check(ctx context.Context) error // one cheap request against the source
	// specific to discover
	GetStreamNames(ctx context.Context) ([]string, error)
	ProduceSchema(ctx context.Context, stream string) (*types.Stream, error)
	// incremental specific
	ResolveBookmark(stream types.StreamInterface) (*types.Bookmark, error)         // field and kind of the stream's bookmark, value unset
	StartCursor(state types.StateInterface, bookmark *types.Bookmark) (any, error) // cursor the stream is requested from; never mutates state
	FetchPage(ctx context.Context, stream types.StreamInterface, page int, cursor any) (*Page, error)
}
