package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the config file.
const (
	EnvBotToken        = "TELEGRAM_BOT_TOKEN"
	EnvLLMAPIKey       = "LLM_API_KEY"
	EnvEmbeddingAPIKey = "EMBEDDING_API_KEY"
	EnvVectorDBAPIKey  = "VECTORDB_API_KEY"
	EnvUnipdfLicense   = "UNIPDF_LICENSE_KEY"
)

// Load reads .env (if present), overlays the YAML file at path onto Defaults,
// applies environment overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s failed, err: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s failed, err: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{EnvBotToken, &c.Bot.Token},
		{EnvLLMAPIKey, &c.LLM.APIKey},
		{EnvEmbeddingAPIKey, &c.Embedding.APIKey},
		{EnvVectorDBAPIKey, &c.VectorDB.APIKey},
		{EnvUnipdfLicense, &c.Render.LicenseKey},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}
