package directory

import (
	"fmt"
	"strconv"
	"time"
)

// Message is a single search match.
type Message struct {
	Timestamp float64 // epoch seconds
	UserID    string
	Username  string // used when UserID is empty (bot messages)
	Text      string
}

// Time converts the Slack timestamp to a time.Time in the local zone.
func (m Message) Time() time.Time {
	sec := int64(m.Timestamp)
	nsec := int64((m.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// SearchPage is one page of search.messages results, newest match first.
type SearchPage struct {
	Matches []Message
	Page    int
	Pages   int
}

// parseTimestamp parses a Slack timestamp string (e.g., "1737990123.000100").
func parseTimestamp(ts string) (float64, error) {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp: %s", ts)
	}
	return f, nil
}
