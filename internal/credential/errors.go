package credential

import (
	"errors"
	"fmt"
)

// ErrNoCredentials indicates no token was given and none is stored for the team.
var ErrNoCredentials = errors.New("no Slack token configured; pass --token or set SLACK_CLI_TOKEN")

// InvalidCredentialError is returned when Slack rejects a token.
type InvalidCredentialError struct {
	Value string
}

func (e *InvalidCredentialError) Error() string {
	return fmt.Sprintf("Invalid Slack token: '%s'", e.Value)
}

// IsInvalidCredential returns true if err is, or wraps, an InvalidCredentialError.
func IsInvalidCredential(err error) bool {
	var invalid *InvalidCredentialError
	return errors.As(err, &invalid)
}
