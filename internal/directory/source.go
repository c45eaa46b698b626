// Package directory wraps the Slack Web API calls slack-cli needs: listing
// conversations and users, searching messages, posting, and uploading files.
package directory

// Kind distinguishes the three kinds of addressable source.
type Kind string

const (
	KindChannel Kind = "channel"
	KindGroup   Kind = "group"
	KindUser    Kind = "user"
)

// Source is a channel, private group, or user that messages can be sent to or read from.
type Source struct {
	ID   string
	Name string
	Kind Kind

	// DisplayName is the profile display name; set for users only.
	DisplayName string
}

// Filter returns the sources whose Name is in names, preserving input order.
// An empty names list matches every source.
func Filter(sources []Source, names []string) []Source {
	if len(names) == 0 {
		out := make([]Source, len(sources))
		copy(out, sources)
		return out
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var out []Source
	for _, s := range sources {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out
}
