package picterra

import (
	"context"
	"net/http"
)

// ResultsPage is one page of a paginated listing, along with the link to
// the page after it. Pages are lazy: Collect walks the remaining links.
type ResultsPage struct {
	client *Client
	count  int
	next   string
	items  []interface{}
}

// Count is the total number of results across all pages, as reported by
// the server.
func (p *ResultsPage) Count() int {
	return p.count
}

// Collect eagerly materializes the page and every page after it into a
// single ordered slice.
func (p *ResultsPage) Collect(ctx context.Context) ([]interface{}, error) {
	items := make([]interface{}, 0, len(p.items))
	items = append(items, p.items...)
	next := p.next
	for next != "" {
		page, err := p.client.listPage(ctx, next)
		if err != nil {
			return nil, err
		}
		items = append(items, page.items...)
		next = page.next
	}
	return items, nil
}

// listPage fetches and decodes one page. url may be a path relative to
// the API endpoint or an absolute next-page link.
func (c *Client) listPage(ctx context.Context, url string) (*ResultsPage, error) {
	var payload struct {
		Count   int           `json:"count"`
		Next    *string       `json:"next"`
		Results []interface{} `json:"results"`
	}
	if err := c.api.NewRequest(http.MethodGet, url, nil).Do(ctx, &payload); err != nil {
		return nil, err
	}
	page := &ResultsPage{client: c, count: payload.Count, items: payload.Results}
	if payload.Next != nil {
		page.next = *payload.Next
	}
	return page, nil
}
