// Package auth stores the AniList access token and decodes what the CLI needs
// from it.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoToken is returned when no token has been saved.
var ErrNoToken = errors.New("no access token, run `alter login`")

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	SavedAt     time.Time `json:"saved_at"`
}

// Store persists one access token in a JSON file.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: filepath.Clean(path), now: time.Now}
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the saved token or ErrNoToken.
func (s *Store) Load() (string, error) {
	// #nosec G304 - token file lives in the user's config directory
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("error reading token file: %w", err)
	}

	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("error decoding token file: %w", err)
	}
	if tf.AccessToken == "" {
		return "", ErrNoToken
	}
	return tf.AccessToken, nil
}

// Save writes token, creating the parent directory when needed.
func (s *Store) Save(token string) error {
	if token == "" {
		return ErrNoToken
	}
	if err := createDirIfNotExists(s.path); err != nil {
		return err
	}

	// #nosec G304 - token file lives in the user's config directory
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("error creating token file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tokenFile{AccessToken: token, SavedAt: s.now().UTC()}); err != nil {
		_ = file.Close()
		return fmt.Errorf("error encoding token file: %w", err)
	}
	return file.Close()
}

// Delete removes the token file. A missing file is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error removing token file: %w", err)
	}
	return nil
}

func createDirIfNotExists(path string) error {
	dir := filepath.Dir(path)

	_, err := os.Stat(dir)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error checking directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	return nil
}
