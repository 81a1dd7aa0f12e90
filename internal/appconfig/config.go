package appconfig

import (
	"os"
	"path/filepath"

	"github.com/appforge-dev/appforge/core"
	"github.com/appforge-dev/appforge/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Backend       BackendConfig `mapstructure:"backend" yaml:"backend"`
	Models        ModelsConfig  `mapstructure:"models" yaml:"models"`
	Service       ServiceConfig `mapstructure:"service" yaml:"service"`
	Preview       PreviewConfig `mapstructure:"preview" yaml:"preview"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// BackendConfig points at the generation backend.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
}

// ModelsConfig controls allowed and default generation models.
type ModelsConfig struct {
	Default string   `mapstructure:"default" yaml:"default"`
	Allowed []string `mapstructure:"allowed" yaml:"allowed"`
}

// ServiceConfig controls core service behavior.
type ServiceConfig struct {
	HistoryLimit   int `mapstructure:"history_limit" yaml:"history_limit"`
	CreditsPerTurn int `mapstructure:"credits_per_turn" yaml:"credits_per_turn"`
}

// PreviewConfig overrides the runtime script URLs baked into synthesized
// previews.
type PreviewConfig struct {
	ReactURL    string `mapstructure:"react_url" yaml:"react_url"`
	ReactDOMURL string `mapstructure:"react_dom_url" yaml:"react_dom_url"`
	BabelURL    string `mapstructure:"babel_url" yaml:"babel_url"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
		},
		Models: ModelsConfig{
			Default: "mvp-builder",
			Allowed: []string{"mvp-builder"},
		},
		Service: ServiceConfig{
			HistoryLimit:   schema.DefaultHistoryLimit,
			CreditsPerTurn: schema.DefaultCreditsPerTurn,
		},
		Preview: PreviewConfig{
			ReactURL:    core.DefaultReactURL,
			ReactDOMURL: core.DefaultReactDOMURL,
			BabelURL:    core.DefaultBabelURL,
		},
		HTTP: HTTPConfig{
			Addr: ":27490",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".appforge", "config.yaml"), nil
}
