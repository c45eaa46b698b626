package credential

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service name tokens are stored under.
const KeyringService = "slack-cli"

// keyringSecrets keeps tokens in the OS keyring, one entry per team.
type keyringSecrets struct {
	service string
}

func (k *keyringSecrets) Get(team string) (string, error) {
	token, err := keyring.Get(k.service, team)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w (team %q)", ErrNoCredentials, team)
	}
	if err != nil {
		return "", fmt.Errorf("reading keyring: %w", err)
	}
	return token, nil
}

func (k *keyringSecrets) Set(team, token string) error {
	if err := keyring.Set(k.service, team, token); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}
