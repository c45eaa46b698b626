package directory

import (
	"errors"

	"github.com/slack-go/slack"
)

// ErrEmptyFile is returned by Upload for zero-length files, which Slack rejects.
var ErrEmptyFile = errors.New("cannot upload an empty file")

// authErrorCodes are the Slack error strings that mean the token itself is bad.
var authErrorCodes = map[string]bool{
	"invalid_auth":     true,
	"not_authed":       true,
	"account_inactive": true,
	"token_revoked":    true,
	"token_expired":    true,
}

// IsAuthError returns true if the error is a Slack API rejection of the token.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return authErrorCodes[slackErr.Err]
	}
	// slack-go returns some failures as plain errors carrying only the code
	for e := err; e != nil; e = errors.Unwrap(e) {
		if authErrorCodes[e.Error()] {
			return true
		}
	}
	return false
}
