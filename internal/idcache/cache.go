// Package idcache persists a snapshot of a workspace's channels, groups, and
// members so that name lookups don't need a round trip to Slack.
package idcache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/matsen/slack-cli/internal/config"
	"github.com/matsen/slack-cli/internal/directory"
)

// FileMode is the permission of the cache file; it reveals workspace membership.
const FileMode = 0600

// Reasons a Load does not produce a snapshot.
var (
	ErrCacheAbsent     = errors.New("id cache does not exist")
	ErrCacheUnreadable = errors.New("id cache is unreadable")
	ErrCacheMalformed  = errors.New("id cache is malformed")
)

// Snapshot is the full cached directory.
type Snapshot struct {
	Channels []directory.Source
	Groups   []directory.Source
	Members  []directory.Source
}

// Filter returns the cached sources whose name is in names (all sources when names is empty),
// channels first, then groups, then members.
func (s *Snapshot) Filter(names []string) []directory.Source {
	var out []directory.Source
	out = append(out, directory.Filter(s.Channels, names)...)
	out = append(out, directory.Filter(s.Groups, names)...)
	out = append(out, directory.Filter(s.Members, names)...)
	return out
}

// Result is the outcome of Load: either a snapshot or the reason there isn't one.
type Result struct {
	Snapshot *Snapshot
	Miss     error
}

// Hit reports whether the cache was loaded.
func (r Result) Hit() bool {
	return r.Snapshot != nil
}

// Lister fetches the live directory.
type Lister interface {
	ListChannels(ctx context.Context) ([]directory.Source, error)
	ListGroups(ctx context.Context) ([]directory.Source, error)
	ListUsers(ctx context.Context) ([]directory.Source, error)
}

// On-disk layout. Field order is alphabetical so the output has sorted keys.
type fileFormat struct {
	Channels []entry       `json:"channels"`
	Groups   []entry       `json:"groups"`
	Members  []memberEntry `json:"members"`
}

type entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type memberEntry struct {
	DisplayName string `json:"display_name"`
	ID          string `json:"id"`
	Name        string `json:"name"`
}

// Load reads the cache at path. It never fails: any problem is reported as a miss.
func Load(path string) Result {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Result{Miss: ErrCacheAbsent}
	}
	if err != nil {
		return Result{Miss: fmt.Errorf("%w: %v", ErrCacheUnreadable, err)}
	}

	snap, err := decode(data)
	if err != nil {
		return Result{Miss: fmt.Errorf("%w: %v", ErrCacheMalformed, err)}
	}
	return Result{Snapshot: snap}
}

func decode(data []byte) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, key := range []string{"channels", "groups", "members"} {
		v, ok := raw[key]
		if !ok {
			return nil, fmt.Errorf("missing key %q", key)
		}
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, fmt.Errorf("key %q is null", key)
		}
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("expected 3 keys, found %d", len(raw))
	}

	var f fileFormat
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	for _, e := range f.Channels {
		if e.ID == "" || e.Name == "" {
			return nil, fmt.Errorf("channel entry missing id or name")
		}
		snap.Channels = append(snap.Channels, directory.Source{ID: e.ID, Name: e.Name, Kind: directory.KindChannel})
	}
	for _, e := range f.Groups {
		if e.ID == "" || e.Name == "" {
			return nil, fmt.Errorf("group entry missing id or name")
		}
		snap.Groups = append(snap.Groups, directory.Source{ID: e.ID, Name: e.Name, Kind: directory.KindGroup})
	}
	for _, e := range f.Members {
		if e.ID == "" || e.Name == "" {
			return nil, fmt.Errorf("member entry missing id or name")
		}
		snap.Members = append(snap.Members, directory.Source{
			ID:          e.ID,
			Name:        e.Name,
			Kind:        directory.KindUser,
			DisplayName: e.DisplayName,
		})
	}
	return snap, nil
}

// Save writes the snapshot to path atomically with mode 0600.
func Save(path string, snap *Snapshot) error {
	f := fileFormat{
		Channels: make([]entry, 0, len(snap.Channels)),
		Groups:   make([]entry, 0, len(snap.Groups)),
		Members:  make([]memberEntry, 0, len(snap.Members)),
	}
	for _, s := range snap.Channels {
		f.Channels = append(f.Channels, entry{ID: s.ID, Name: s.Name})
	}
	for _, s := range snap.Groups {
		f.Groups = append(f.Groups, entry{ID: s.ID, Name: s.Name})
	}
	for _, s := range snap.Members {
		f.Members = append(f.Members, memberEntry{DisplayName: s.DisplayName, ID: s.ID, Name: s.Name})
	}

	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling id cache: %w", err)
	}
	if err := config.WriteFileAtomic(path, data, FileMode); err != nil {
		return fmt.Errorf("writing id cache: %w", err)
	}
	return nil
}

// Rebuild fetches the full directory and replaces the cache at path.
func Rebuild(ctx context.Context, lister Lister, path string) (*Snapshot, error) {
	channels, err := lister.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := lister.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	members, err := lister.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Channels: channels, Groups: groups, Members: members}
	if err := Save(path, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
