package credential

import (
	"context"
	"errors"

	"github.com/matsen/slack-cli/internal/directory"
	"github.com/rs/zerolog"
)

// Session is an authenticated handle on one team. Nothing talks to Slack without one.
type Session struct {
	Token    string
	Team     string
	Identity directory.Identity
	Client   *directory.Client
}

// Dialer builds a directory client for a token.
type Dialer func(token string) *directory.Client

// Init authenticates and returns a Session.
//
// An explicit token wins; otherwise the stored token for team is used, and when
// team is also empty, the last used team. The token is checked with auth.test,
// then saved under its team domain, which becomes the default team.
func Init(ctx context.Context, store *Store, token, team string, dial Dialer, logger zerolog.Logger) (*Session, error) {
	if token == "" {
		var err error
		if team == "" {
			if team, err = store.DefaultTeam(); err != nil {
				return nil, err
			}
			if team == "" {
				return nil, ErrNoCredentials
			}
		}
		if token, err = store.Token(team); err != nil {
			if errors.Is(err, ErrNoCredentials) {
				if teams, terr := store.Teams(); terr == nil {
					logger.Debug().Str("team", team).Strs("known_teams", teams).Msg("no stored token for team")
				}
			}
			return nil, err
		}
		logger.Debug().Str("team", team).Msg("using stored token")
	} else {
		logger.Debug().Msg("using token from flags or environment")
	}

	client := dial(token)
	id, err := client.AuthTest(ctx)
	if err != nil {
		if directory.IsAuthError(err) {
			return nil, &InvalidCredentialError{Value: token}
		}
		return nil, err
	}

	domain := id.TeamDomain
	if domain == "" {
		domain = team
	}
	if err := store.Save(domain, token); err != nil {
		return nil, err
	}
	logger.Debug().Str("team", domain).Str("user", id.User).Msg("authenticated")

	return &Session{
		Token:    token,
		Team:     domain,
		Identity: id,
		Client:   client,
	}, nil
}
