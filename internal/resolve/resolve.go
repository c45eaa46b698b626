// Package resolve maps channel, group, and user names to Slack ids, preferring
// the local id cache and falling back to the live directory.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/matsen/slack-cli/internal/directory"
	"github.com/matsen/slack-cli/internal/idcache"
	"github.com/rs/zerolog"
)

// SourceNotFoundError is returned when a name matches no channel, group, or user.
type SourceNotFoundError struct {
	Name string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("Channel, group or user '%s' does not exist", e.Name)
}

// IsSourceNotFound returns true if err is, or wraps, a SourceNotFoundError.
func IsSourceNotFound(err error) bool {
	var notFound *SourceNotFoundError
	return errors.As(err, &notFound)
}

// Resolver looks up sources by name.
type Resolver struct {
	dir       idcache.Lister
	cachePath string
	logger    zerolog.Logger
}

// New creates a Resolver that reads the cache at cachePath and falls back to dir.
func New(dir idcache.Lister, cachePath string, logger zerolog.Logger) *Resolver {
	return &Resolver{dir: dir, cachePath: cachePath, logger: logger}
}

// Resolve returns the sources matching names: channels, then groups, then users.
// An empty names list returns every source. Unknown names are silently omitted.
//
// The cache is consulted first; if it is missing, unreadable, or has no match, the
// live directory is listed instead. The live result is never written back.
func (r *Resolver) Resolve(ctx context.Context, names []string) ([]directory.Source, error) {
	res := idcache.Load(r.cachePath)
	if res.Hit() {
		if sources := res.Snapshot.Filter(names); len(sources) > 0 {
			return sources, nil
		}
		r.logger.Debug().Strs("names", names).Msg("no cached match, listing live directory")
	} else {
		r.logger.Debug().Err(res.Miss).Str("path", r.cachePath).Msg("id cache miss")
	}

	channels, err := r.dir.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := r.dir.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	users, err := r.dir.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	var sources []directory.Source
	sources = append(sources, directory.Filter(channels, names)...)
	sources = append(sources, directory.Filter(groups, names)...)
	sources = append(sources, directory.Filter(users, names)...)
	return sources, nil
}

// ResolveOne returns the first source named name, or a *SourceNotFoundError.
func (r *Resolver) ResolveOne(ctx context.Context, name string) (directory.Source, error) {
	sources, err := r.Resolve(ctx, []string{name})
	if err != nil {
		return directory.Source{}, err
	}
	if len(sources) == 0 {
		return directory.Source{}, &SourceNotFoundError{Name: name}
	}
	return sources[0], nil
}

// ResolveIDs returns an id to name map for the sources matching names.
func (r *Resolver) ResolveIDs(ctx context.Context, names []string) (map[string]string, error) {
	sources, err := r.Resolve(ctx, names)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]string, len(sources))
	for _, s := range sources {
		ids[s.ID] = s.Name
	}
	return ids, nil
}
