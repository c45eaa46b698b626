package retrieve

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matsen/slack-cli/internal/directory"
	"github.com/rs/zerolog"
)

// fakeSearcher serves pre-built pages and records requested page numbers.
type fakeSearcher struct {
	pages     []directory.SearchPage
	requested []int
	queries   []string
	err       error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, page, pageSize int) (directory.SearchPage, error) {
	f.requested = append(f.requested, page)
	f.queries = append(f.queries, query)
	if pageSize != PageSize {
		return directory.SearchPage{}, fmt.Errorf("pageSize = %d, want %d", pageSize, PageSize)
	}
	if f.err != nil {
		return directory.SearchPage{}, f.err
	}
	if page < 1 || page > len(f.pages) {
		return directory.SearchPage{}, fmt.Errorf("unexpected page %d", page)
	}
	return f.pages[page-1], nil
}

type fakeNamer struct {
	names   map[string]string
	lookups map[string]int
}

func newFakeNamer(names map[string]string) *fakeNamer {
	return &fakeNamer{names: names, lookups: make(map[string]int)}
}

func (f *fakeNamer) UserName(ctx context.Context, id string) (string, error) {
	f.lookups[id]++
	name, ok := f.names[id]
	if !ok {
		return "", errors.New("user_not_found")
	}
	return name, nil
}

type fakeResolver struct {
	known map[string]string
}

func (f *fakeResolver) ResolveOne(ctx context.Context, name string) (directory.Source, error) {
	id, ok := f.known[name]
	if !ok {
		return directory.Source{}, fmt.Errorf("no source %s", name)
	}
	return directory.Source{ID: id, Name: name}, nil
}

func msg(ts float64, text string) directory.Message {
	return directory.Message{Timestamp: ts, UserID: "U1", Text: text}
}

func texts(msgs []directory.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func equalStrings(a, b []string) bool {
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

func TestMerge(t *testing.T) {
	// Page 1 is newest first: m3, m2. Page 2 holds the older m1.
	acc := Merge(nil, []directory.Message{msg(3, "m3"), msg(2, "m2")})
	acc = Merge(acc, []directory.Message{msg(1, "m1")})

	if got, want := texts(acc), []string{"m1", "m2", "m3"}; !equalStrings(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
}

func TestTrim(t *testing.T) {
	msgs := []directory.Message{msg(1, "m1"), msg(2, "m2"), msg(3, "m3")}

	tests := []struct {
		count int
		want  []string
	}{
		{2, []string{"m2", "m3"}},
		{3, []string{"m1", "m2", "m3"}},
		{10, []string{"m1", "m2", "m3"}},
		{0, []string{}},
		{-1, []string{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.count), func(t *testing.T) {
			if got := texts(Trim(msgs, tt.count)); !equalStrings(got, tt.want) {
				t.Errorf("Trim(%d) = %v, want %v", tt.count, got, tt.want)
			}
		})
	}
}

func TestPager_StopRule(t *testing.T) {
	full := directory.SearchPage{Matches: make([]directory.Message, 3)}

	tests := []struct {
		name          string
		pages         []directory.SearchPage
		want          int
		wantRequested []int
	}{
		{
			name:          "stops at last page",
			pages:         []directory.SearchPage{withPaging(full, 1, 2), withPaging(full, 2, 2)},
			want:          100,
			wantRequested: []int{1, 2},
		},
		{
			name:          "stops once enough matches seen",
			pages:         []directory.SearchPage{withPaging(full, 1, 5), withPaging(full, 2, 5)},
			want:          4,
			wantRequested: []int{1, 2},
		},
		{
			name:          "first page is enough",
			pages:         []directory.SearchPage{withPaging(full, 1, 5)},
			want:          3,
			wantRequested: []int{1},
		},
		{
			name:          "empty result reports zero pages",
			pages:         []directory.SearchPage{{Page: 1, Pages: 0}},
			want:          20,
			wantRequested: []int{1},
		},
		{
			name:          "missing page number falls back to requested",
			pages:         []directory.SearchPage{withPaging(full, 0, 1)},
			want:          20,
			wantRequested: []int{1},
		},
		{
			name:          "zero count issues no request",
			pages:         nil,
			want:          0,
			wantRequested: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSearcher{pages: tt.pages}
			p := NewPager(s, "in:general", tt.want)
			for {
				_, ok, err := p.Next(context.Background())
				if err != nil {
					t.Fatalf("Next() error = %v", err)
				}
				if !ok {
					break
				}
			}
			if fmt.Sprint(s.requested) != fmt.Sprint(tt.wantRequested) {
				t.Errorf("requested pages = %v, want %v", s.requested, tt.wantRequested)
			}

			// Exhausted pagers stay exhausted.
			if _, ok, _ := p.Next(context.Background()); ok {
				t.Error("Next() after exhaustion returned a page")
			}
		})
	}
}

func withPaging(p directory.SearchPage, page, pages int) directory.SearchPage {
	p.Page = page
	p.Pages = pages
	return p
}

func TestPager_Error(t *testing.T) {
	s := &fakeSearcher{err: errors.New("ratelimited")}
	p := NewPager(s, "in:general", 10)

	if _, _, err := p.Next(context.Background()); !errors.Is(err, s.err) {
		t.Fatalf("Next() error = %v, want %v", err, s.err)
	}
	if _, ok, err := p.Next(context.Background()); ok || err != nil {
		t.Errorf("Next() after error = (%v, %v), want exhausted", ok, err)
	}
}

func TestCollect_MultiPage(t *testing.T) {
	s := &fakeSearcher{pages: []directory.SearchPage{
		{Matches: []directory.Message{msg(3, "m3"), msg(2, "m2")}, Page: 1, Pages: 2},
		{Matches: []directory.Message{msg(1, "m1")}, Page: 2, Pages: 2},
	}}

	got, err := Collect(context.Background(), NewPager(s, "in:general", 100))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if want := []string{"m1", "m2", "m3"}; !equalStrings(texts(got), want) {
		t.Errorf("Collect() = %v, want %v", texts(got), want)
	}
}

func TestFormatter(t *testing.T) {
	ts := 1700000000.0
	stamp := time.Unix(1700000000, 0).Format(TimeFormat)
	namer := newFakeNamer(map[string]string{"U1": "Alice"})
	f := NewFormatter(namer)

	tests := []struct {
		name string
		msg  directory.Message
		want string
	}{
		{
			name: "user id looked up",
			msg:  directory.Message{Timestamp: ts, UserID: "U1", Username: "alice", Text: "hi"},
			want: "[@general " + stamp + "] Alice: hi",
		},
		{
			name: "bot username verbatim",
			msg:  directory.Message{Timestamp: ts, Username: "deploybot", Text: "deployed"},
			want: "[@general " + stamp + "] deploybot: deployed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Format(context.Background(), "general", tt.msg)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}

	if namer.lookups["deploybot"] != 0 || len(namer.lookups) != 1 {
		t.Errorf("unexpected lookups: %v", namer.lookups)
	}
}

func TestFormatter_MemoizesLookups(t *testing.T) {
	namer := newFakeNamer(map[string]string{"U1": "Alice"})
	f := NewFormatter(namer)

	for i := 0; i < 3; i++ {
		if _, err := f.Format(context.Background(), "general", msg(float64(i), "x")); err != nil {
			t.Fatal(err)
		}
	}
	if namer.lookups["U1"] != 1 {
		t.Errorf("U1 looked up %d times, want 1", namer.lookups["U1"])
	}
}

func TestFormatter_LookupError(t *testing.T) {
	f := NewFormatter(newFakeNamer(nil))
	if _, err := f.Format(context.Background(), "general", msg(1, "x")); err == nil {
		t.Error("Format() should fail when the user lookup fails")
	}
}

func TestRetrieve(t *testing.T) {
	s := &fakeSearcher{pages: []directory.SearchPage{
		{Matches: []directory.Message{msg(1700000300, "m3"), msg(1700000200, "m2")}, Page: 1, Pages: 2},
		{Matches: []directory.Message{msg(1700000100, "m1")}, Page: 2, Pages: 2},
	}}
	r := New(&fakeResolver{known: map[string]string{"general": "C1"}}, s, newFakeNamer(map[string]string{"U1": "Alice"}), zerolog.Nop())

	lines, err := r.Retrieve(context.Background(), "general", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	want := []string{
		"[@general " + time.Unix(1700000200, 0).Format(TimeFormat) + "] Alice: m2",
		"[@general " + time.Unix(1700000300, 0).Format(TimeFormat) + "] Alice: m3",
	}
	if !equalStrings(lines, want) {
		t.Errorf("Retrieve() =\n%v\nwant\n%v", lines, want)
	}
	if len(s.queries) == 0 || s.queries[0] != "in:general" {
		t.Errorf("queries = %v, want in:general", s.queries)
	}
}

func TestRetrieve_UnknownSource(t *testing.T) {
	s := &fakeSearcher{}
	r := New(&fakeResolver{}, s, newFakeNamer(nil), zerolog.Nop())

	if _, err := r.Retrieve(context.Background(), "nowhere", 5); err == nil {
		t.Fatal("Retrieve() should fail for an unknown source")
	}
	if len(s.requested) != 0 {
		t.Errorf("search issued for unknown source: %v", s.requested)
	}
}

func TestRetrieve_ZeroCount(t *testing.T) {
	s := &fakeSearcher{}
	r := New(&fakeResolver{known: map[string]string{"general": "C1"}}, s, newFakeNamer(nil), zerolog.Nop())

	lines, err := r.Retrieve(context.Background(), "general", 0)
	if err != nil || len(lines) != 0 {
		t.Errorf("Retrieve(0) = (%v, %v), want no lines", lines, err)
	}
	if len(s.requested) != 0 {
		t.Errorf("search issued for zero count: %v", s.requested)
	}
}
