// Package config layers defaults, a JSON config file, and environment
// variables into a single Config. Secrets only come from the environment.
package config

import (
	"fmt"
)

type Config struct {
	Server  ServerConfig
	OpenAI  OpenAIConfig
	Zulip   ZulipConfig
	Storage StorageConfig
	API     APIConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type OpenAIConfig struct {
	APIKey         string
	ExtractModel   string
	NormalizeModel string
	AgentModel     string
}

type ZulipConfig struct {
	Site    string
	Email   string
	APIKey  string
	Channel string
	Topic   string
	Limit   int
}

type StorageConfig struct {
	DataDir string
}

type APIConfig struct {
	Token       string
	CORSOrigins string // comma-separated origin list
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		OpenAI: OpenAIConfig{
			ExtractModel:   "gpt-5-mini",
			NormalizeModel: "gpt-5",
			AgentModel:     "gpt-5-mini",
		},
		Zulip: ZulipConfig{
			Channel: "97 batch",
			Topic:   "Introductions! 👋",
			Limit:   500,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		API: APIConfig{
			CORSOrigins: "http://localhost:3000",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/batchmates/config.json, then applies BATCHMATES_*
// environment overrides. Secrets (API keys, bearer token) are never
// read from the file.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

// RequireOpenAIKey fails loudly when a command needs the LLM but no
// key is configured.
func (c Config) RequireOpenAIKey() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("missing required config: OpenAI API key. Set it via environment variable BATCHMATES_OPENAI_API_KEY")
	}
	return nil
}

// RequireZulipCredentials fails loudly when fetching needs Zulip
// access but credentials are missing.
func (c Config) RequireZulipCredentials() error {
	if c.Zulip.Site == "" || c.Zulip.Email == "" || c.Zulip.APIKey == "" {
		return fmt.Errorf("missing required config: Zulip credentials. Set zulip.site via `batchmates config set` and BATCHMATES_ZULIP_EMAIL / BATCHMATES_ZULIP_API_KEY in the environment")
	}
	return nil
}
