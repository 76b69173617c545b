package driver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/datazip-inc/tap-apparel-magic/constants"
	"github.com/datazip-inc/tap-apparel-magic/drivers/abstract"
	"github.com/datazip-inc/tap-apparel-magic/pkg/requests"
	"github.com/datazip-inc/tap-apparel-magic/utils/typeutils"
)

// PageRequest identifies one page of a resource filtered by field >= cursor
type PageRequest struct {
	Resource    string
	PageNumber  int
	PageSize    int
	FilterField string
	Cursor      any
}

type pageResponse struct {
	Response *[]any `json:"response"`
	Meta     *struct {
		Pagination *struct {
			TotalPages any `json:"total_pages"`
		} `json:"pagination"`
	} `json:"meta"`
}

// BuildPageURL renders {base}/{resource}?token=..&time=..&pagination[..]=..&parameters[0][..]=..
func BuildPageURL(baseURL, token string, request PageRequest, now time.Time) (string, error) {
	endpoint, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid url[%s]: %s", constants.ErrConfig, baseURL, err)
	}
	endpoint = endpoint.JoinPath(request.Resource)

	query := url.Values{}
	query.Set("token", token)
	query.Set("time", strconv.FormatInt(now.Unix(), 10))
	query.Set("pagination[page_size]", strconv.Itoa(request.PageSize))
	query.Set("pagination[page_number]", strconv.Itoa(request.PageNumber))
	if request.FilterField != "" {
		query.Set("parameters[0][field]", request.FilterField)
		query.Set("parameters[0][operator]", ">=")
		query.Set("parameters[0][value]", typeutils.FormatCursorValue(request.Cursor))
	}
	endpoint.RawQuery = query.Encode()

	return endpoint.String(), nil
}

// FetchPage requests one page and checks its shape; rows must be objects and
// meta.pagination.total_pages must be present
func FetchPage(ctx context.Context, client *requests.Client, baseURL, token string, request PageRequest) (*abstract.Page, error) {
	pageURL, err := BuildPageURL(baseURL, token, request, time.Now())
	if err != nil {
		return nil, err
	}

	var response pageResponse
	if err := client.GetJSON(ctx, pageURL, &response); err != nil {
		return nil, err
	}

	if response.Meta == nil || response.Meta.Pagination == nil {
		return nil, fmt.Errorf("%w: missing meta.pagination in %s page[%d]", constants.ErrMalformedResponse, request.Resource, request.PageNumber)
	}

	totalPages, err := parseTotalPages(response.Meta.Pagination.TotalPages)
	if err != nil {
		return nil, fmt.Errorf("%w: %s page[%d]: %s", constants.ErrMalformedResponse, request.Resource, request.PageNumber, err)
	}

	if response.Response == nil {
		return nil, fmt.Errorf("%w: missing response in %s page[%d]", constants.ErrMalformedResponse, request.Resource, request.PageNumber)
	}

	rows := make([]map[string]any, 0, len(*response.Response))
	for idx, elem := range *response.Response {
		row, ok := elem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: row[%d] of %s page[%d] is %T, not an object", constants.ErrMalformedResponse, idx, request.Resource, request.PageNumber, elem)
		}
		rows = append(rows, row)
	}

	return &abstract.Page{Rows: rows, TotalPages: totalPages}, nil
}

// total_pages arrives as a number or a numeric string
func parseTotalPages(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, fmt.Errorf("missing meta.pagination.total_pages")
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("invalid total_pages[%s]: %s", v, err)
		}
		return int(n), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid total_pages[%s]: %s", v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("invalid total_pages of type %T", value)
	}
}
