package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "BATCHMATES_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "openai.api_key", typ: kString, env: "BATCHMATES_OPENAI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.OpenAI.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenAI.APIKey },
	},
	{
		key: "openai.extract_model", typ: kString, env: "BATCHMATES_OPENAI_EXTRACT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.OpenAI.ExtractModel = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenAI.ExtractModel },
	},
	{
		key: "openai.normalize_model", typ: kString, env: "BATCHMATES_OPENAI_NORMALIZE_MODEL",
		apply:   func(cfg *Config, v any) { cfg.OpenAI.NormalizeModel = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenAI.NormalizeModel },
	},
	{
		key: "openai.agent_model", typ: kString, env: "BATCHMATES_OPENAI_AGENT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.OpenAI.AgentModel = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenAI.AgentModel },
	},
	{
		key: "zulip.site", typ: kString, env: "BATCHMATES_ZULIP_SITE",
		apply:   func(cfg *Config, v any) { cfg.Zulip.Site = v.(string) },
		extract: func(cfg Config) any { return cfg.Zulip.Site },
	},
	{
		key: "zulip.email", typ: kString, env: "BATCHMATES_ZULIP_EMAIL",
		apply:   func(cfg *Config, v any) { cfg.Zulip.Email = v.(string) },
		extract: func(cfg Config) any { return cfg.Zulip.Email },
	},
	{
		key: "zulip.api_key", typ: kString, env: "BATCHMATES_ZULIP_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Zulip.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Zulip.APIKey },
	},
	{
		key: "zulip.channel", typ: kString, env: "BATCHMATES_ZULIP_CHANNEL",
		apply:   func(cfg *Config, v any) { cfg.Zulip.Channel = v.(string) },
		extract: func(cfg Config) any { return cfg.Zulip.Channel },
	},
	{
		key: "zulip.topic", typ: kString, env: "BATCHMATES_ZULIP_TOPIC",
		apply:   func(cfg *Config, v any) { cfg.Zulip.Topic = v.(string) },
		extract: func(cfg Config) any { return cfg.Zulip.Topic },
	},
	{
		key: "zulip.limit", typ: kInt, env: "BATCHMATES_ZULIP_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Zulip.Limit = v.(int) },
		extract: func(cfg Config) any { return cfg.Zulip.Limit },
	},
	{
		key: "storage.data_dir", typ: kString, env: "BATCHMATES_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "api.token", typ: kString, env: "BATCHMATES_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "api.cors_origins", typ: kString, env: "BATCHMATES_API_CORS_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.API.CORSOrigins = v.(string) },
		extract: func(cfg Config) any { return cfg.API.CORSOrigins },
	},
	{
		key: "log.level", typ: kString, env: "BATCHMATES_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
