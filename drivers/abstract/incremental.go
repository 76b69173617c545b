package abstract

import (
	"context"
	"fmt"
	"time"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/destination"
	"github.com/datazip-inc/tap-apparel-magic/types"
	"github.com/datazip-inc/tap-apparel-magic/utils"
	"github.com/datazip-inc/tap-apparel-magic/utils/logger"
	"github.com/datazip-inc/tap-apparel-magic/utils/typeutils"
)

// Incremental resolves every stream's bookmark and start cursor before the first
// request, then syncs the streams sequentially
func (a *AbstractDriver) Incremental(ctx context.Context, pool *destination.WriterPool, streams ...types.StreamInterface) error {
	bookmarks, err := a.resolveBookmarks(streams)
	if err != nil {
		return err
	}

	for idx, stream := range streams {
		logger.Infof("Syncing stream[%s] with bookmark[%s] from cursor[%s]", stream.ID(), bookmarks[idx].Field, typeutils.FormatCursorValue(bookmarks[idx].Value))

		startTime := time.Now()
		if err := a.syncStream(ctx, pool, stream, bookmarks[idx]); err != nil {
			return fmt.Errorf("failed to sync stream[%s]: %w", stream.ID(), err)
		}

		logger.Infof("Finished syncing stream[%s] in %s", stream.ID(), time.Since(startTime).Round(time.Millisecond))
	}

	pool.LogSummary()
	return nil
}

// resolveBookmarks is the pre-flight pass; configuration errors surface here
func (a *AbstractDriver) resolveBookmarks(streams []types.StreamInterface) ([]*types.Bookmark, error) {
	bookmarks := make([]*types.Bookmark, 0, len(streams))
	for _, stream := range streams {
		bookmark, err := a.driver.ResolveBookmark(stream)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve bookmark of stream[%s]: %w", stream.ID(), err)
		}

		bookmark.Value, err = a.driver.StartCursor(a.state, bookmark)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve start cursor of stream[%s]: %w", stream.ID(), err)
		}

		bookmarks = append(bookmarks, bookmark)
	}

	return bookmarks, nil
}

// syncStream pages through the stream from a fixed start cursor, tracking the high-water
// mark in memory; state is checkpointed only once every page has been written
func (a *AbstractDriver) syncStream(ctx context.Context, pool *destination.WriterPool, stream types.StreamInterface, bookmark *types.Bookmark) (err error) {
	streamCtx, streamCancel := context.WithCancel(ctx)
	defer streamCancel()

	start := bookmark.Value
	lastUpdate := start

	inserter, err := pool.NewThread(streamCtx, stream, destination.WithBookmarkField(bookmark.Field))
	if err != nil {
		return fmt.Errorf("failed to create new writer thread: %s", err)
	}

	defer handleWriterCleanup(streamCtx, streamCancel, &err, inserter, func(ctx context.Context) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		a.state.Checkpoint(stream.ID(), bookmark.Field, lastUpdate)
		logger.Infof("Stream[%s] wrote %d records, bookmark %s now at %s", stream.ID(), inserter.Records(), bookmark.Field, typeutils.FormatCursorValue(lastUpdate))
		logger.LogState(a.state)
		return nil
	})()

	excluded := stream.Self().ExcludeColumns
	for page := 1; ; page++ {
		result, err := a.driver.FetchPage(streamCtx, stream, page, start)
		if err != nil {
			return fmt.Errorf("failed to fetch page[%d]: %w", page, err)
		}

		logger.Debugf("fetched page[%d/%d] of stream[%s] with %d rows", page, result.TotalPages, stream.ID(), len(result.Rows))
		for _, row := range result.Rows {
			raw := row[bookmark.Field]

			record := types.Record(row)
			if err := typeutils.ReformatRecord(stream.Schema(), record); err != nil {
				return fmt.Errorf("failed to reformat record on page[%d]: %s", page, err)
			}

			data := utils.FilterExcludedColumns(record, excluded)
			recordID := utils.GetKeysHash(data, stream.PrimaryKey()...)
			if err := inserter.Push(streamCtx, types.CreateRawRecord(recordID, data, time.Now().UTC().UnixMicro())); err != nil {
				return err
			}

			lastUpdate, err = advanceBookmark(bookmark, lastUpdate, raw, record[bookmark.Field])
			if err != nil {
				return err
			}
		}

		if page >= result.TotalPages {
			break
		}
	}

	return nil
}

// advanceBookmark returns the next high-water mark after a row was emitted.
// Time bookmarks keep the latest instant seen, as the row carried it; rows emitted without one are skipped.
// Any other bookmark takes the row's (coerced) value even if it is lower than the current one.
func advanceBookmark(bookmark *types.Bookmark, current, raw, transformed any) (any, error) {
	if bookmark.IsTime() {
		if raw == nil || transformed == nil {
			return current, nil
		}

		cmp, err := typeutils.CompareTimestamps(raw, current)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s[%v]: %s", constants.ErrMalformedResponse, bookmark.Field, raw, err)
		}

		return utils.Ternary(cmp > 0, raw, current), nil
	}

	if transformed == nil {
		logger.Warnf("row of stream[%s] has no %s, bookmark not advanced", bookmark.Stream, bookmark.Field)
		return current, nil
	}

	if typeutils.Compare(transformed, current) < 0 {
		logger.Debugf("bookmark %s of stream[%s] moved back from %v to %v", bookmark.Field, bookmark.Stream, current, transformed)
	}

	return transformed, nil
}
