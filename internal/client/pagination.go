package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// ErrMalformedListResponse is returned when a collection page has no data array.
var ErrMalformedListResponse = errors.New("list response has no data array")

// paginate follows next cursors from path and concatenates every page's
// data in order. Nested collections may omit data entirely.
func (c *Client) paginate(ctx context.Context, path string, allowMissingData bool) ([]kong.Record, error) {
	records := []kong.Record{}
	page := 0

	for path != "" {
		page++

		c.logger.Debug("fetching page", map[string]interface{}{
			"path": path,
			"page": page,
		})

		resp, err := c.httpClient.Get(ctx, path, nil)
		if err != nil {
			return nil, err
		}

		var list kong.ListResponse
		if err := json.Unmarshal(resp.Body, &list); err != nil {
			return nil, fmt.Errorf("parsing page %d of %s: %w", page, path, err)
		}

		if list.Data == nil && !allowMissingData {
			return nil, fmt.Errorf("%w: %s", ErrMalformedListResponse, path)
		}

		records = append(records, list.Data...)

		path, err = nextPath(list.NextCursor())
		if err != nil {
			return nil, err
		}
	}

	return records, nil
}

// nextPath reduces a next cursor to the request URI (path and query) so it
// can be re-joined with the session's base URL. Absolute cursors lose their
// scheme and host. An empty cursor ends pagination.
func nextPath(next string) (string, error) {
	if next == "" {
		return "", nil
	}

	parsed, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("parsing next cursor %q: %w", next, err)
	}

	return parsed.RequestURI(), nil
}
