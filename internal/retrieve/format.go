package retrieve

import (
	"context"
	"fmt"

	"github.com/matsen/slack-cli/internal/directory"
)

// TimeFormat is the layout of the timestamp in formatted lines.
const TimeFormat = "2006-01-02 15:04:05"

// UserNamer resolves a user id to a display name.
type UserNamer interface {
	UserName(ctx context.Context, userID string) (string, error)
}

// Formatter renders messages as display lines. User lookups are memoized for
// the lifetime of the Formatter.
type Formatter struct {
	namer UserNamer
	names map[string]string
}

// NewFormatter creates a Formatter that looks up authors with namer.
func NewFormatter(namer UserNamer) *Formatter {
	return &Formatter{namer: namer, names: make(map[string]string)}
}

// Format renders "[@source 2006-01-02 15:04:05] author: text" with the time in the local zone.
// Messages without a user id (bots) use their username without any lookup.
func (f *Formatter) Format(ctx context.Context, source string, m directory.Message) (string, error) {
	author := m.Username
	if m.UserID != "" {
		name, err := f.userName(ctx, m.UserID)
		if err != nil {
			return "", err
		}
		author = name
	}
	return fmt.Sprintf("[@%s %s] %s: %s", source, m.Time().Format(TimeFormat), author, m.Text), nil
}

func (f *Formatter) userName(ctx context.Context, id string) (string, error) {
	if name, ok := f.names[id]; ok {
		return name, nil
	}
	name, err := f.namer.UserName(ctx, id)
	if err != nil {
		return "", err
	}
	f.names[id] = name
	return name, nil
}
