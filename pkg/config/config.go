package config

import (
	"encoding/json"
	"log"
	"os"
)

type Config struct {
	App        AppConfig                 `json:"app"`
	Gateways   map[string]GatewayConfig  `json:"gateways"`
	Providers  map[string]ProviderConfig `json:"providers"`
	Models     []ModelConfig             `json:"models"`
	Governance GovernanceConfig          `json:"governance"`
	Limits     LimitsConfig              `json:"limits"`
	Memory     MemoryConfig              `json:"memory"`
}

type AppConfig struct {
	Name      string `json:"name"`
	Workspace string `json:"workspace"`
	Prompts   string `json:"prompts"`
}

type GatewayConfig struct {
	Token   string `json:"token"`
	Enabled bool   `json:"enabled"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	Enabled bool   `json:"enabled"`
}

// ModelConfig is one custom model-catalog entry.
type ModelConfig struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url,omitempty"`
}

type GovernanceConfig struct {
	RiskTable             string   `json:"risk_table,omitempty"` // YAML tier overrides
	DeniedTools           []string `json:"denied_tools,omitempty"`
	DeniedArgumentRegexes []string `json:"denied_argument_patterns,omitempty"`
}

type LimitsConfig struct {
	MaxRounds              int `json:"max_rounds"`
	ApprovalTimeoutSeconds int `json:"approval_timeout_seconds"`
}

type MemoryConfig struct {
	Path string `json:"path"`
}

func LoadConfig(path string) *Config {
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer file.Close()

	cfg, err := decode(file)
	if err != nil {
		log.Fatalf("failed to decode config file: %v", err)
	}
	return cfg
}

func decode(file *os.File) (*Config, error) {
	var cfg Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Workspace == "" {
		c.App.Workspace = "./workspace"
	}
	if c.App.Prompts == "" {
		c.App.Prompts = "./prompts"
	}
	if c.Memory.Path == "" {
		c.Memory.Path = "foreman.db"
	}
	if c.Limits.MaxRounds <= 0 {
		c.Limits.MaxRounds = 8
	}
}

// GetDefaultProvider returns the first enabled provider.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled.
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled {
		return tg, true
	}
	return GatewayConfig{}, false
}
