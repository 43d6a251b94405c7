package graph

import (
	"context"
	"encoding/json"
	"net/url"

	"wpexport/pkg/errors"
)

// Page is the Graph API list-response envelope
type Page struct {
	Data   []json.RawMessage `json:"data"`
	Paging Paging            `json:"paging"`
}

// Paging carries the opaque cursor URL for the next page
type Paging struct {
	Next string `json:"next"`
}

// Paginate walks a cursor-paginated list endpoint and calls fn for every
// record in page order. The initial params are sent only with the first
// request; the server-provided paging.next URL is self-contained, so
// every subsequent request derives solely from it. A consecutive repeated
// cursor is treated as a protocol error so a misbehaving server cannot
// loop the client forever.
//
// The walk is single-pass and stops at the first error, including any
// error returned by fn.
func (c *Client) Paginate(ctx context.Context, initialURL string, params url.Values, fn func(json.RawMessage) error) error {
	current := initialURL

	for current != "" {
		if err := ctx.Err(); err != nil {
			return err
		}

		var page Page
		if err := c.GetJSON(ctx, current, params, &page); err != nil {
			return err
		}
		params = nil

		for _, record := range page.Data {
			if err := fn(record); err != nil {
				return err
			}
		}

		next := page.Paging.Next
		if next != "" && next == current {
			c.logger.ErrorWithFields("server repeated a paging cursor", map[string]interface{}{
				"url": current,
			})
			return errors.Newf(errors.ErrorTypeProtocol,
				"pagination stalled: server repeated cursor %s", next)
		}
		current = next
	}

	return nil
}

// CollectPages drains a paginated endpoint into a slice of raw records
func (c *Client) CollectPages(ctx context.Context, initialURL string, params url.Values) ([]json.RawMessage, error) {
	var records []json.RawMessage
	err := c.Paginate(ctx, initialURL, params, func(record json.RawMessage) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
