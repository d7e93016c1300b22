// Package config handles workspace and global configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/qgr/config.yml.
// Service addresses and model settings live here; per-workspace pipeline
// settings live in the workspace config.
type GlobalConfig struct {
	MilvusAddress   string   `yaml:"milvus_address,omitempty"`
	OllamaURL       string   `yaml:"ollama_url,omitempty"`
	EmbedModel      string   `yaml:"embed_model,omitempty"`
	EmbedDimensions int      `yaml:"embed_dimensions,omitempty"`
	GrobidURL       string   `yaml:"grobid_url,omitempty"`
	YouTubeAPIKeys  []string `yaml:"youtube_api_keys,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "qgr"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/qgr/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetMilvusAddress returns the Milvus address from global config.
// Returns an empty string if not configured.
func GetMilvusAddress() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.MilvusAddress
}

// GetOllamaURL returns the Ollama base URL from global config.
func GetOllamaURL() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.OllamaURL
}

// GetEmbedModel returns the embedding model name from global config.
func GetEmbedModel() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.EmbedModel
}

// GetEmbedDimensions returns the embedding dimensionality from global config.
// Returns zero if not configured.
func GetEmbedDimensions() int {
	cfg, _ := LoadGlobalConfig()
	return cfg.EmbedDimensions
}

// GetGrobidURL returns the GROBID service URL from global config.
func GetGrobidURL() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.GrobidURL
}

// GetYouTubeAPIKeys returns the YouTube Data API keys from global config,
// falling back to the YOUTUBE_API_KEY environment variable when the config
// lists none. Multiple keys allow rotation when one exhausts its quota.
func GetYouTubeAPIKeys() []string {
	cfg, _ := LoadGlobalConfig()
	if len(cfg.YouTubeAPIKeys) > 0 {
		return cfg.YouTubeAPIKeys
	}
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		return []string{key}
	}
	return nil
}

// HelpfulConfigMessage returns a helpful message when a service address is
// not configured.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`Service addresses are not configured.

Tip: Create %s to set service defaults:
  mkdir -p %s
  cat > %s <<'EOF'
  milvus_address: localhost:19530
  ollama_url: http://localhost:11434
  grobid_url: http://localhost:8070
  EOF`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
