// Package config provides configuration loading and default values.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Defaults tuned against AniList's cost model: 100 aliased updates with a
// handful of fields each stay under its query complexity ceiling of 500, and
// the API allows 30 requests per minute with a burst allowance.
const (
	DefaultChunkSize      = 100
	DefaultDelayThreshold = 10
	DefaultDelay          = 2 * time.Second
	DefaultHTTPTimeout    = 30 * time.Second

	DefaultAPIURL  = "https://graphql.anilist.co"
	DefaultAuthURL = "https://anilist.co/api/v2/oauth/authorize"
)

// Environment variable names
const (
	EnvToken    = "ALTER_TOKEN"
	EnvClientID = "ALTER_CLIENT_ID"
)

type AnilistConfig struct {
	ClientID string `yaml:"client_id"`
	AuthURL  string `yaml:"auth_url"`
	APIURL   string `yaml:"api_url"`
}

type BatchConfig struct {
	ChunkSize      int           `yaml:"chunk_size"`
	DelayThreshold int           `yaml:"delay_threshold"`
	Delay          time.Duration `yaml:"delay"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type Config struct {
	Anilist       AnilistConfig `yaml:"anilist"`
	Batch         BatchConfig   `yaml:"batch"`
	HTTP          HTTPConfig    `yaml:"http"`
	TokenFilePath string        `yaml:"token_file_path"`

	// Token overrides the stored token when set through the environment.
	Token string `yaml:"-"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// A missing file is not an error: defaults are returned.
func Load(filename string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename) // #nosec G304 - user supplied config path
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, err
	}

	if clientID := os.Getenv(EnvClientID); clientID != "" {
		cfg.Anilist.ClientID = clientID
	}

	if token := os.Getenv(EnvToken); token != "" {
		cfg.Token = token
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Anilist.AuthURL == "" {
		cfg.Anilist.AuthURL = DefaultAuthURL
	}
	if cfg.Anilist.APIURL == "" {
		cfg.Anilist.APIURL = DefaultAPIURL
	}
	if cfg.Batch.ChunkSize <= 0 {
		cfg.Batch.ChunkSize = DefaultChunkSize
	}
	if cfg.Batch.DelayThreshold <= 0 {
		cfg.Batch.DelayThreshold = DefaultDelayThreshold
	}
	if cfg.Batch.Delay <= 0 {
		cfg.Batch.Delay = DefaultDelay
	}
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = DefaultHTTPTimeout
	}
	if cfg.TokenFilePath == "" {
		cfg.TokenFilePath = defaultTokenFilePath()
	}
}

func defaultTokenFilePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return os.ExpandEnv("$HOME/.config/alter/token.json")
	}
	return filepath.Join(configDir, "alter", "token.json")
}
