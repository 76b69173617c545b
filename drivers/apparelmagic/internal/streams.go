package driver

import (
	"fmt"
	"sort"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/types"
)

// descriptor is everything that differs between ApparelMagic resources
type descriptor struct {
	// ordered key fields of a row
	KeyFields []string
	// rows carry last_modified_time
	LastModified bool
	// rows are identified by a bare id
	BareID bool
	// field filtered and bookmarked on instead of the derived <singular>_id
	ReferenceField string
}

var descriptors = map[string]descriptor{
	"orders":             {KeyFields: []string{"order_id"}, LastModified: true},
	"products":           {KeyFields: []string{"product_id"}, LastModified: true},
	"shipments":          {KeyFields: []string{"shipment_id"}, LastModified: true},
	"customers":          {KeyFields: []string{"customer_id"}, LastModified: true},
	"invoices":           {KeyFields: []string{"invoice_id"}, LastModified: true},
	"purchase_orders":    {KeyFields: []string{"purchase_order_id"}, LastModified: true},
	"product_attributes": {KeyFields: []string{"id"}, BareID: true},
	"size_ranges":        {KeyFields: []string{"id"}, BareID: true},
	"warehouses":         {KeyFields: []string{"id"}, BareID: true},
	"inventory":          {KeyFields: []string{"sku_id", "warehouse_id"}, ReferenceField: "sku_id"},
	"ship_tos":           {KeyFields: []string{"ship_to_id"}, ReferenceField: "customer_id"},
	"vendors":            {KeyFields: []string{"vendor_id"}},
	"credit_memos":       {KeyFields: []string{"credit_memo_id"}},
	"payments":           {KeyFields: []string{"payment_id"}},
}

// StreamNames returns every known stream, sorted
func StreamNames() []string {
	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func lookup(streamID string) (descriptor, error) {
	desc, found := descriptors[streamID]
	if !found {
		return descriptor{}, fmt.Errorf("%w: %w[%s]", constants.ErrConfig, constants.ErrUnknownStream, streamID)
	}

	return desc, nil
}

// ResolveBookmarkField returns the field a stream is filtered and bookmarked on.
// An explicit replication key always wins.
func ResolveBookmarkField(streamID, explicitReplicationKey string) (string, error) {
	desc, err := lookup(streamID)
	if err != nil {
		return "", err
	}

	switch {
	case explicitReplicationKey != "":
		return explicitReplicationKey, nil
	case desc.LastModified:
		return constants.LastModifiedTime, nil
	case desc.BareID:
		return "id", nil
	case desc.ReferenceField != "":
		return desc.ReferenceField, nil
	default:
		return streamID[:len(streamID)-1] + "_id", nil
	}
}

// BookmarkKindOf is TIME only for last_modified_time bookmarks
func BookmarkKindOf(streamID, explicitReplicationKey string) (types.BookmarkKind, error) {
	field, err := ResolveBookmarkField(streamID, explicitReplicationKey)
	if err != nil {
		return "", err
	}

	if field == constants.LastModifiedTime {
		return types.TimeBookmark, nil
	}

	return types.IDBookmark, nil
}
