package directory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIURL is the Slack Web API base URL.
	DefaultAPIURL = "https://slack.com/api/"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit paces requests well under Slack's tier 2 limits.
	DefaultRateLimit = 2.0

	// listPageSize is the page size for conversations.list.
	listPageSize = 1000
)

// Identity is the result of auth.test for the current token.
type Identity struct {
	TeamDomain string // e.g. "acme" for acme.slack.com
	TeamName   string
	TeamID     string
	UserID     string
	User       string
}

// Client is a rate-limited Slack Web API client.
type Client struct {
	api        *slack.Client
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
	apiURL     string
	timeout    time.Duration
	rateLimit  float64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIURL sets a custom API base URL (for testing).
func WithAPIURL(u string) ClientOption {
	return func(c *Client) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.apiURL = u
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit sets the maximum request rate in requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.rateLimit = rps
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithHTTPClient sets a custom HTTP client. Requests are still paced by the rate limiter.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Slack client authenticated with token.
func New(token string, opts ...ClientOption) *Client {
	c := &Client{
		logger:    zerolog.Nop(),
		apiURL:    DefaultAPIURL,
		timeout:   DefaultTimeout,
		rateLimit: DefaultRateLimit,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.limiter = rate.NewLimiter(rate.Limit(c.rateLimit), 1)

	hc := &http.Client{Timeout: c.timeout}
	if c.httpClient != nil {
		copied := *c.httpClient
		hc = &copied
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = &pacedTransport{base: base, limiter: c.limiter, logger: c.logger}
	c.httpClient = hc

	c.api = slack.New(token,
		slack.OptionAPIURL(c.apiURL),
		slack.OptionHTTPClient(hc),
	)
	return c
}

// pacedTransport waits on the rate limiter before every request.
type pacedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	t.logger.Debug().Str("method", req.Method).Str("path", req.URL.Path).Msg("slack request")
	return t.base.RoundTrip(req)
}

// AuthTest checks the token and reports who it belongs to.
func (c *Client) AuthTest(ctx context.Context) (Identity, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("auth.test: %w", err)
	}
	return Identity{
		TeamDomain: teamDomain(resp.URL, resp.Team),
		TeamName:   resp.Team,
		TeamID:     resp.TeamID,
		UserID:     resp.UserID,
		User:       resp.User,
	}, nil
}

// teamDomain extracts "acme" from "https://acme.slack.com/".
// Falls back to the team name when the URL is not a slack.com workspace URL.
func teamDomain(workspaceURL, fallback string) string {
	u, err := url.Parse(workspaceURL)
	if err != nil || u.Hostname() == "" {
		return fallback
	}
	host := u.Hostname()
	if !strings.HasSuffix(host, ".slack.com") {
		return fallback
	}
	return strings.TrimSuffix(host, ".slack.com")
}

// ListChannels returns all public channels.
func (c *Client) ListChannels(ctx context.Context) ([]Source, error) {
	return c.listConversations(ctx, KindChannel, []string{"public_channel"})
}

// ListGroups returns private channels and multi-person DMs visible to the token.
func (c *Client) ListGroups(ctx context.Context) ([]Source, error) {
	return c.listConversations(ctx, KindGroup, []string{"private_channel", "mpim"})
}

func (c *Client) listConversations(ctx context.Context, kind Kind, types []string) ([]Source, error) {
	var sources []Source
	cursor := ""
	for {
		channels, next, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Cursor: cursor,
			Limit:  listPageSize,
			Types:  types,
		})
		if err != nil {
			return nil, fmt.Errorf("listing %ss: %w", kind, err)
		}

		for _, ch := range channels {
			sources = append(sources, Source{ID: ch.ID, Name: ch.Name, Kind: kind})
		}

		if next == "" {
			break
		}
		cursor = next
	}
	c.logger.Debug().Str("kind", string(kind)).Int("count", len(sources)).Msg("listed conversations")
	return sources, nil
}

// ListUsers returns all workspace members.
func (c *Client) ListUsers(ctx context.Context) ([]Source, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	sources := make([]Source, 0, len(users))
	for _, u := range users {
		sources = append(sources, Source{
			ID:          u.ID,
			Name:        u.Name,
			Kind:        KindUser,
			DisplayName: u.Profile.DisplayName,
		})
	}
	c.logger.Debug().Int("count", len(sources)).Msg("listed users")
	return sources, nil
}

// UserName looks up a user by id and returns the best human-readable name:
// display name, else real name, else username.
func (c *Client) UserName(ctx context.Context, userID string) (string, error) {
	u, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("looking up user %s: %w", userID, err)
	}
	return preferredName(u), nil
}

func preferredName(u *slack.User) string {
	name := u.Profile.DisplayName
	if name == "" {
		name = u.Profile.RealName
	}
	if name == "" {
		name = u.Name
	}
	return name
}

// Search runs search.messages and returns one page, newest match first.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (SearchPage, error) {
	params := slack.NewSearchParameters()
	params.Page = page
	params.Count = pageSize
	params.Sort = "timestamp"
	params.SortDirection = "desc"

	res, err := c.api.SearchMessagesContext(ctx, query, params)
	if err != nil {
		return SearchPage{}, fmt.Errorf("searching %q: %w", query, err)
	}

	out := SearchPage{
		Page:    res.Paging.Page,
		Pages:   res.Paging.Pages,
		Matches: make([]Message, 0, len(res.Matches)),
	}
	for _, m := range res.Matches {
		ts, err := parseTimestamp(m.Timestamp)
		if err != nil {
			return SearchPage{}, fmt.Errorf("parsing search result: %w", err)
		}
		out.Matches = append(out.Matches, Message{
			Timestamp: ts,
			UserID:    m.User,
			Username:  m.Username,
			Text:      m.Text,
		})
	}
	c.logger.Debug().Str("query", query).Int("page", out.Page).Int("pages", out.Pages).Int("matches", len(out.Matches)).Msg("search page")
	return out, nil
}

// CodeBlock wraps text so Slack renders it literally.
func CodeBlock(text string) string {
	return "```" + text + "```"
}

// Post sends text to the destination channel, group, or user id.
func (c *Client) Post(ctx context.Context, destID, text string, asCodeBlock bool) error {
	if asCodeBlock {
		text = CodeBlock(text)
	}
	if _, _, err := c.api.PostMessageContext(ctx, destID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("posting to %s: %w", destID, err)
	}
	return nil
}

// Upload sends the file at path to the destination.
// A missing or unreadable path fails with *fs.PathError before any request is made.
func (c *Client) Upload(ctx context.Context, path, destID string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &fs.PathError{Op: "upload", Path: path, Err: errors.New("is a directory")}
	}
	if info.Size() == 0 {
		return &fs.PathError{Op: "upload", Path: path, Err: ErrEmptyFile}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := filepath.Base(path)
	_, err = c.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:   f,
		FileSize: int(info.Size()),
		Filename: name,
		Title:    name,
		Channel:  destID,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	return nil
}
