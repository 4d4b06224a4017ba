// Package config loads the per-agent configuration of spec §6 from a
// TOML or JSON file, in the teacher's style: defaults layered over a
// strict decode, environment-variable overrides for secrets, and a
// ConfigValidationError that collects every issue instead of failing on
// the first one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration for one agent process.
type Config struct {
	Agent   AgentConfig   `toml:"agent" json:"agent"`
	Server  ServerConfig  `toml:"server" json:"server"`
	LLM     LLMConfig     `toml:"llm" json:"llm"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Metrics MetricsConfig `toml:"metrics" json:"metrics"`
}

// AgentConfig mirrors spec §6's external interface for a single agent:
// name, system prompt, model selection, and the loop's resource limits.
type AgentConfig struct {
	Name               string  `toml:"name" json:"name"`
	SystemPrompt       string  `toml:"system_prompt" json:"system_prompt"`
	Model              string  `toml:"model" json:"model"`
	Temperature        float64 `toml:"temperature" json:"temperature"`
	MaxTokens          int     `toml:"max_tokens" json:"max_tokens"`
	MaxIterations      int     `toml:"max_iterations" json:"max_iterations"`
	MaxContextMessages int     `toml:"max_context_messages" json:"max_context_messages"`
	ToolTimeoutSecs    int     `toml:"tool_timeout_secs" json:"tool_timeout_secs"`
	ToolsEnabled       *bool   `toml:"tools_enabled" json:"tools_enabled"`
}

// ServerConfig configures the HTTP surface of internal/httpapi.
type ServerConfig struct {
	Host string `toml:"host" json:"host"`
	Port int    `toml:"port" json:"port"`
}

// LLMConfig selects and configures the active provider.
type LLMConfig struct {
	Provider   string        `toml:"provider" json:"provider"`
	MaxRetries int           `toml:"max_retries" json:"max_retries"`
	RetryDelay time.Duration `toml:"retry_delay" json:"retry_delay"`
	Anthropic  ProviderCreds `toml:"anthropic" json:"anthropic"`
	OpenAI     ProviderCreds `toml:"openai" json:"openai"`
}

// ProviderCreds holds one LLM provider's connection details. APIKey is
// normally supplied via environment variable, never committed to a
// config file; see applyEnvOverrides.
type ProviderCreds struct {
	APIKey  string `toml:"api_key" json:"api_key"`
	BaseURL string `toml:"base_url" json:"base_url"`
}

// LoggingConfig configures internal/observability's structured logger.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	Port    int  `toml:"port" json:"port"`
}

// Load reads path, resolves $include directives, expands ${VAR}
// environment references, applies env-var overrides for secrets, fills
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeRawConfig(raw, path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Agent.MaxIterations == 0 {
		cfg.Agent.MaxIterations = 10
	}
	if cfg.Agent.MaxContextMessages == 0 {
		cfg.Agent.MaxContextMessages = 50
	}
	if cfg.Agent.ToolTimeoutSecs == 0 {
		cfg.Agent.ToolTimeoutSecs = 60
	}
	if cfg.Agent.ToolsEnabled == nil {
		enabled := true
		cfg.Agent.ToolsEnabled = &enabled
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 3
	}
	if cfg.LLM.RetryDelay == 0 {
		cfg.LLM.RetryDelay = time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

// applyEnvOverrides lets deployment secrets win over whatever a checked-in
// config file says, the way the teacher's gateway config does for
// database and auth secrets.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		cfg.LLM.Anthropic.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.LLM.OpenAI.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTKIT_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTKIT_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

// ConfigValidationError collects every validation issue found, rather
// than stopping at the first.
type ConfigValidationError struct {
	Issues []string
}

func (e *ConfigValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	var issues []string

	if strings.TrimSpace(cfg.Agent.Name) == "" {
		issues = append(issues, "agent.name is required")
	}
	if cfg.Agent.MaxIterations < 1 {
		issues = append(issues, "agent.max_iterations must be >= 1")
	}
	if cfg.Agent.MaxContextMessages < 0 {
		issues = append(issues, "agent.max_context_messages must be >= 0")
	}
	if cfg.Agent.ToolTimeoutSecs < 0 {
		issues = append(issues, "agent.tool_timeout_secs must be >= 0")
	}
	if cfg.Agent.Temperature < 0 || cfg.Agent.Temperature > 2 {
		issues = append(issues, "agent.temperature must be between 0 and 2")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.LLM.Provider)) {
	case "anthropic", "openai":
	default:
		issues = append(issues, fmt.Sprintf("llm.provider must be \"anthropic\" or \"openai\", got %q", cfg.LLM.Provider))
	}
	if cfg.LLM.MaxRetries < 0 {
		issues = append(issues, "llm.max_retries must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level))
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Format)) {
	case "json", "text":
	default:
		issues = append(issues, fmt.Sprintf("logging.format must be json or text, got %q", cfg.Logging.Format))
	}

	if len(issues) > 0 {
		return &ConfigValidationError{Issues: issues}
	}
	return nil
}
