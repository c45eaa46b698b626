// Package credential stores Slack tokens per team and turns a token into an
// authenticated session.
package credential

import (
	"fmt"
	"os"
	"sort"

	"github.com/matsen/slack-cli/internal/config"
	"gopkg.in/yaml.v3"
)

// FileMode is the permission of credentials.yml.
const FileMode = 0600

// Secrets holds tokens keyed by team domain.
type Secrets interface {
	Get(team string) (string, error) // returns ErrNoCredentials when absent
	Set(team, token string) error
}

// credentialsFile is the layout of credentials.yml. With the keyring backend the
// token values are left empty and only team names are recorded.
type credentialsFile struct {
	DefaultTeam string            `yaml:"default_team,omitempty"`
	Teams       map[string]string `yaml:"teams,omitempty"`
}

// Store persists the last used team and, depending on the backend, the tokens.
type Store struct {
	path    string
	secrets Secrets
}

// NewStore opens the credential store at path using the given backend ("file" or "keyring").
func NewStore(path, backend string) (*Store, error) {
	if err := config.ValidateBackend(backend); err != nil {
		return nil, err
	}
	s := &Store{path: path}
	if backend == config.BackendKeyring {
		s.secrets = &keyringSecrets{service: KeyringService}
	} else {
		s.secrets = &fileSecrets{store: s}
	}
	return s, nil
}

func (s *Store) read() (*credentialsFile, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &credentialsFile{Teams: make(map[string]string)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if f.Teams == nil {
		f.Teams = make(map[string]string)
	}
	return &f, nil
}

func (s *Store) write(f *credentialsFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := config.WriteFileAtomic(s.path, data, FileMode); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// DefaultTeam returns the last used team, or "" if none has been recorded.
func (s *Store) DefaultTeam() (string, error) {
	f, err := s.read()
	if err != nil {
		return "", err
	}
	return f.DefaultTeam, nil
}

// Teams returns the known team domains, sorted.
func (s *Store) Teams() ([]string, error) {
	f, err := s.read()
	if err != nil {
		return nil, err
	}
	teams := make([]string, 0, len(f.Teams))
	for t := range f.Teams {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams, nil
}

// Token returns the stored token for team.
func (s *Store) Token(team string) (string, error) {
	return s.secrets.Get(team)
}

// Save stores token for team and makes team the default.
func (s *Store) Save(team, token string) error {
	if err := s.secrets.Set(team, token); err != nil {
		return err
	}

	f, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := f.Teams[team]; !ok {
		f.Teams[team] = ""
	}
	if _, isFile := s.secrets.(*fileSecrets); isFile {
		f.Teams[team] = token
	}
	f.DefaultTeam = team
	return s.write(f)
}

// fileSecrets keeps tokens in credentials.yml itself.
type fileSecrets struct {
	store *Store
}

func (fsec *fileSecrets) Get(team string) (string, error) {
	f, err := fsec.store.read()
	if err != nil {
		return "", err
	}
	token := f.Teams[team]
	if token == "" {
		return "", fmt.Errorf("%w (team %q)", ErrNoCredentials, team)
	}
	return token, nil
}

// Set is a no-op; Save writes the token along with the rest of the file.
func (fsec *fileSecrets) Set(team, token string) error {
	return nil
}
