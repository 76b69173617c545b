package driver

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/drivers/abstract"
	"github.com/datazip-inc/tap-apparel-magic/pkg/requests"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
)

// stream probed by check; small and filtered on a bare id
const checkStream = "size_ranges"

type ApparelMagic struct {
	config  *Config
	client  *requests.Client
	limiter *rate.Limiter
}

// New returns a driver for an already validated config
func New(config *Config) *ApparelMagic {
	return &ApparelMagic{config: config}
}

func (a *ApparelMagic) GetConfigRef() abstract.Config {
	a.config = &Config{}
	return a.config
}

func (a *ApparelMagic) Spec() any {
	return Config{}
}

func (a *ApparelMagic) Type() string {
	return string(constants.ApparelMagic)
}

// Setup builds the rate limited client; no request is sent
func (a *ApparelMagic) Setup(_ context.Context) error {
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	// one limiter for every request of the process
	if a.limiter == nil {
		a.limiter = requests.NewLimiter(a.config.RequestsPerSecond)
	}
	a.client = requests.NewClient(a.config.HTTPClient(), a.limiter, a.config.RetryPolicy())

	logger.Debugf("setup %s driver for %s with page size %d and %d requests/s", a.Type(), a.config.URL, a.config.PageSize, a.config.RequestsPerSecond)
	return nil
}

// Check requests the first page of a small stream
func (a *ApparelMagic) Check(ctx context.Context) error {
	stream := types.NewStream(checkStream, "").Wrap()
	page, err := a.FetchPage(ctx, stream, 1, constants.DefaultIDCursor)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", checkStream, err)
	}

	logger.Infof("fetched %d %s rows of %d pages", len(page.Rows), checkStream, page.TotalPages)
	return nil
}

func (a *ApparelMagic) GetStreamNames(_ context.Context) ([]string, error) {
	return StreamNames(), nil
}

func (a *ApparelMagic) ProduceSchema(_ context.Context, stream string) (*types.Stream, error) {
	return LoadSchema(stream)
}

func (a *ApparelMagic) ResolveBookmark(stream types.StreamInterface) (*types.Bookmark, error) {
	field, err := ResolveBookmarkField(stream.Name(), stream.ExplicitReplicationKey())
	if err != nil {
		return nil, err
	}

	kind, err := BookmarkKindOf(stream.Name(), stream.ExplicitReplicationKey())
	if err != nil {
		return nil, err
	}

	return &types.Bookmark{Stream: stream.ID(), Field: field, Kind: kind}, nil
}

func (a *ApparelMagic) StartCursor(state types.StateInterface, bookmark *types.Bookmark) (any, error) {
	return GetStart(state, bookmark.Stream, bookmark.Field, bookmark.Kind, a.config.StartDate)
}

// FetchPage filters the resource on the stream's bookmark field
func (a *ApparelMagic) FetchPage(ctx context.Context, stream types.StreamInterface, page int, cursor any) (*abstract.Page, error) {
	field, err := ResolveBookmarkField(stream.Name(), stream.ExplicitReplicationKey())
	if err != nil {
		return nil, err
	}

	return FetchPage(ctx, a.client, a.config.URL, a.config.Token, PageRequest{
		Resource:    stream.Name(),
		PageNumber:  page,
		PageSize:    a.config.PageSize,
		FilterField: field,
		Cursor:      cursor,
	})
}
