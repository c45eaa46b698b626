package retrieve

import (
	"context"
	"fmt"

	"github.com/matsen/slack-cli/internal/directory"
	"github.com/rs/zerolog"
)

// SourceResolver resolves a single source name.
type SourceResolver interface {
	ResolveOne(ctx context.Context, name string) (directory.Source, error)
}

// Retriever prints the most recent messages of a source.
type Retriever struct {
	resolver SourceResolver
	searcher Searcher
	namer    UserNamer
	logger   zerolog.Logger
}

// New creates a Retriever.
func New(resolver SourceResolver, searcher Searcher, namer UserNamer, logger zerolog.Logger) *Retriever {
	return &Retriever{resolver: resolver, searcher: searcher, namer: namer, logger: logger}
}

// Retrieve returns at most count formatted lines for the named source, oldest first.
// Unknown names fail with the resolver's not-found error before any search is made.
func (r *Retriever) Retrieve(ctx context.Context, name string, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	src, err := r.resolver.ResolveOne(ctx, name)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("source", name).Str("id", src.ID).Int("count", count).Msg("retrieving messages")

	msgs, err := Collect(ctx, NewPager(r.searcher, "in:"+name, count))
	if err != nil {
		return nil, fmt.Errorf("retrieving messages from %s: %w", name, err)
	}
	msgs = Trim(msgs, count)

	f := NewFormatter(r.namer)
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		line, err := f.Format(ctx, name, m)
		if err != nil {
			return nil, fmt.Errorf("formatting message: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}
