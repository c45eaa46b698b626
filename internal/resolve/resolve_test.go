package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/slack-cli/internal/directory"
	"github.com/matsen/slack-cli/internal/idcache"
	"github.com/rs/zerolog"
)

// countingLister records how many times the live directory was listed.
type countingLister struct {
	channels []directory.Source
	groups   []directory.Source
	users    []directory.Source
	err      error
	calls    int
}

func (l *countingLister) ListChannels(ctx context.Context) ([]directory.Source, error) {
	l.calls++
	return l.channels, l.err
}

func (l *countingLister) ListGroups(ctx context.Context) ([]directory.Source, error) {
	return l.groups, nil
}

func (l *countingLister) ListUsers(ctx context.Context) ([]directory.Source, error) {
	return l.users, nil
}

func liveLister() *countingLister {
	return &countingLister{
		channels: []directory.Source{{ID: "C-live", Name: "general", Kind: directory.KindChannel}},
		groups:   []directory.Source{{ID: "G-live", Name: "secret", Kind: directory.KindGroup}},
		users:    []directory.Source{{ID: "U-live", Name: "alice", Kind: directory.KindUser}},
	}
}

func writeCache(t *testing.T, path string) {
	t.Helper()
	snap := &idcache.Snapshot{
		Channels: []directory.Source{{ID: "C-cached", Name: "general"}},
		Members:  []directory.Source{{ID: "U-cached", Name: "alice"}},
	}
	if err := idcache.Save(path, snap); err != nil {
		t.Fatal(err)
	}
}

func ids(sources []directory.Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		cache    string // "", "valid", or raw file content
		names    []string
		wantIDs  []string
		wantLive bool
	}{
		{"cache hit", "valid", []string{"general"}, []string{"C-cached"}, false},
		{"cache hit all", "valid", nil, []string{"C-cached", "U-cached"}, false},
		{"cache hit omits unknown", "valid", []string{"alice", "nobody"}, []string{"U-cached"}, false},
		{"cache has no match", "valid", []string{"secret"}, []string{"G-live"}, true},
		{"no cache file", "", []string{"general"}, []string{"C-live"}, true},
		{"empty cache file", "{}", []string{"alice"}, []string{"U-live"}, true},
		{"malformed cache", "not json", []string{"general", "secret"}, []string{"C-live", "G-live"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "id-cache.json")
			switch tt.cache {
			case "":
			case "valid":
				writeCache(t, path)
			default:
				os.WriteFile(path, []byte(tt.cache), 0600)
			}

			lister := liveLister()
			r := New(lister, path, zerolog.Nop())

			got, err := r.Resolve(context.Background(), tt.names)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !equalIDs(ids(got), tt.wantIDs) {
				t.Errorf("Resolve(%v) = %v, want %v", tt.names, ids(got), tt.wantIDs)
			}
			if (lister.calls > 0) != tt.wantLive {
				t.Errorf("live directory listed = %v, want %v", lister.calls > 0, tt.wantLive)
			}
		})
	}
}

func TestResolve_DoesNotWriteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id-cache.json")
	r := New(liveLister(), path, zerolog.Nop())

	if _, err := r.Resolve(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Resolve() should never create the cache")
	}
}

func TestResolve_LiveError(t *testing.T) {
	lister := liveLister()
	lister.err = errors.New("connection refused")
	r := New(lister, filepath.Join(t.TempDir(), "id-cache.json"), zerolog.Nop())

	_, err := r.Resolve(context.Background(), []string{"general"})
	if !errors.Is(err, lister.err) {
		t.Errorf("Resolve() error = %v, want %v", err, lister.err)
	}
}

func TestResolveOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id-cache.json")
	writeCache(t, path)
	r := New(liveLister(), path, zerolog.Nop())

	src, err := r.ResolveOne(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ResolveOne() error = %v", err)
	}
	if src.ID != "U-cached" {
		t.Errorf("ResolveOne() id = %q, want U-cached", src.ID)
	}
}

func TestResolveOne_NotFound(t *testing.T) {
	r := New(liveLister(), filepath.Join(t.TempDir(), "id-cache.json"), zerolog.Nop())

	_, err := r.ResolveOne(context.Background(), "nonexistent")
	var notFound *SourceNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("ResolveOne() error = %v, want *SourceNotFoundError", err)
	}
	if notFound.Name != "nonexistent" {
		t.Errorf("Name = %q, want nonexistent", notFound.Name)
	}
	if !IsSourceNotFound(err) {
		t.Error("IsSourceNotFound() = false, want true")
	}
	if got, want := err.Error(), "Channel, group or user 'nonexistent' does not exist"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestResolveIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id-cache.json")
	writeCache(t, path)
	r := New(liveLister(), path, zerolog.Nop())

	got, err := r.ResolveIDs(context.Background(), []string{"general", "alice"})
	if err != nil {
		t.Fatalf("ResolveIDs() error = %v", err)
	}
	if len(got) != 2 || got["C-cached"] != "general" || got["U-cached"] != "alice" {
		t.Errorf("ResolveIDs() = %v", got)
	}
}
