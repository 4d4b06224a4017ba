package main

import (
	"fmt"
	"strings"

	"github.com/basalt-run/agentkit/internal/agentloop"
	"github.com/basalt-run/agentkit/internal/config"
	"github.com/basalt-run/agentkit/internal/llm"
	"github.com/basalt-run/agentkit/internal/llm/anthropic"
	"github.com/basalt-run/agentkit/internal/llm/openai"
	"github.com/basalt-run/agentkit/internal/observability"
	"github.com/basalt-run/agentkit/internal/tool"
)

// loadedAgent bundles everything a subcommand needs to run a Loop: the
// resolved config, a configured provider, and a logger built from
// config.Logging.
type loadedAgent struct {
	cfg    *config.Config
	loop   *agentloop.Loop
	logger *observability.Logger
}

// loadAgent reads configPath, builds the configured LLM provider, and
// wires an agentloop.Loop. No tools are registered by default; a
// deployment that needs tools can grow this into a registry populated from
// config, same as the agent loop's registry-may-be-nil contract allows.
func loadAgent(configPath string) (*loadedAgent, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	provider, err := buildProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}

	registry := tool.NewRegistry()

	loopCfg := agentloop.Config{
		Name:               cfg.Agent.Name,
		SystemPrompt:       cfg.Agent.SystemPrompt,
		Model:              cfg.Agent.Model,
		Temperature:        cfg.Agent.Temperature,
		MaxTokens:          cfg.Agent.MaxTokens,
		MaxIterations:      cfg.Agent.MaxIterations,
		MaxContextMessages: cfg.Agent.MaxContextMessages,
		ToolTimeoutSecs:    cfg.Agent.ToolTimeoutSecs,
		ToolsEnabled:       cfg.Agent.ToolsEnabled == nil || *cfg.Agent.ToolsEnabled,
	}
	loop := agentloop.New(provider, registry, loopCfg)

	return &loadedAgent{cfg: cfg, loop: loop, logger: logger}, nil
}

// buildProvider constructs the llm.Provider named by cfg.Provider.
func buildProvider(cfg config.LLMConfig) (llm.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:     cfg.Anthropic.APIKey,
			BaseURL:    cfg.Anthropic.BaseURL,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		})
	case "openai":
		return openai.New(openai.Config{
			APIKey:     cfg.OpenAI.APIKey,
			BaseURL:    cfg.OpenAI.BaseURL,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
