package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches all pages from a Notion database, following cursors.
// Rate limiting is enforced by the Client. The next page is requested in the
// background while the current one is appended.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	type prefetchResult struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}
	var prefetchCh <-chan prefetchResult

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "notion: query all cancelled")
	}
	resp, err := c.QueryDatabase(ctx, dbID, pageRequest(filter, ""))
	for {
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		if resp.HasMore {
			ch := make(chan prefetchResult, 1)
			prefetchCh = ch
			next := pageRequest(filter, resp.NextCursor)
			go func() {
				r, e := c.QueryDatabase(ctx, dbID, next)
				ch <- prefetchResult{resp: r, err: e}
			}()
		}

		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		result := <-prefetchCh
		resp, err = result.resp, result.err
	}

	return all, nil
}

func pageRequest(filter *notionapi.DatabaseQueryRequest, cursor notionapi.Cursor) *notionapi.DatabaseQueryRequest {
	req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}
	return req
}

// QueryByStatus fetches every page whose Status property equals status.
func QueryByStatus(ctx context.Context, c Client, dbID, status string) ([]notionapi.Page, error) {
	filter := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Status",
			Status: &notionapi.StatusFilterCondition{
				Equals: status,
			},
		},
	}
	pages, err := QueryAll(ctx, c, dbID, filter)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query %s pages", status)
	}
	return pages, nil
}
