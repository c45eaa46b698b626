// Package retrieve fetches the most recent messages of a source through the
// search API and renders them oldest first.
package retrieve

import (
	"context"

	"github.com/matsen/slack-cli/internal/directory"
)

const (
	// PageSize is the number of matches requested per search page.
	PageSize = 1000

	// DefaultCount is the number of messages shown when no count is given.
	DefaultCount = 20
)

// Searcher runs one page of a message search.
type Searcher interface {
	Search(ctx context.Context, query string, page, pageSize int) (directory.SearchPage, error)
}

// Pager walks search result pages starting at page 1. It stops once want matches
// have been seen or the last reported page has been fetched. A Pager cannot be restarted.
type Pager struct {
	searcher Searcher
	query    string
	want     int
	page     int
	seen     int
	done     bool
}

// NewPager creates a Pager for query that stops after want matches.
func NewPager(s Searcher, query string, want int) *Pager {
	return &Pager{
		searcher: s,
		query:    query,
		want:     want,
		page:     1,
		done:     want <= 0,
	}
}

// Next fetches the next page. It returns false once the sequence is exhausted.
func (p *Pager) Next(ctx context.Context) (directory.SearchPage, bool, error) {
	if p.done {
		return directory.SearchPage{}, false, nil
	}

	res, err := p.searcher.Search(ctx, p.query, p.page, PageSize)
	if err != nil {
		p.done = true
		return directory.SearchPage{}, false, err
	}

	p.seen += len(res.Matches)
	current := res.Page
	if current == 0 {
		current = p.page
	}
	// Pages == 0 means no results at all
	if p.seen >= p.want || current >= res.Pages {
		p.done = true
	}
	p.page++
	return res, true, nil
}

// Merge prepends the page's matches, reversed into ascending time order, to acc.
// Pages arrive newest first, so the result stays in ascending order overall.
func Merge(acc, page []directory.Message) []directory.Message {
	out := make([]directory.Message, 0, len(acc)+len(page))
	for i := len(page) - 1; i >= 0; i-- {
		out = append(out, page[i])
	}
	return append(out, acc...)
}

// Trim keeps the last count messages.
func Trim(msgs []directory.Message, count int) []directory.Message {
	if count <= 0 {
		return nil
	}
	if len(msgs) <= count {
		return msgs
	}
	return msgs[len(msgs)-count:]
}

// Collect drains the pager and returns the merged messages in ascending time order.
func Collect(ctx context.Context, p *Pager) ([]directory.Message, error) {
	var msgs []directory.Message
	for {
		page, ok, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return msgs, nil
		}
		msgs = Merge(msgs, page.Matches)
	}
}
