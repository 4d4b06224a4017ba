package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "agent.toml", `
[agent]
name = "assistant"
system_prompt = "be helpful"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.MaxIterations != 10 {
		t.Fatalf("MaxIterations = %d, want 10", cfg.Agent.MaxIterations)
	}
	if cfg.Agent.MaxContextMessages != 50 {
		t.Fatalf("MaxContextMessages = %d, want 50", cfg.Agent.MaxContextMessages)
	}
	if cfg.Agent.ToolsEnabled == nil || !*cfg.Agent.ToolsEnabled {
		t.Fatalf("ToolsEnabled = %v, want true", cfg.Agent.ToolsEnabled)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Fatalf("LLM.Provider = %q, want anthropic", cfg.LLM.Provider)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoadRejectsMissingAgentName(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "agent.toml", `
[agent]
system_prompt = "be helpful"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for missing agent.name")
	}
	var valErr *ConfigValidationError
	if !asValidationError(err, &valErr) {
		t.Fatalf("error = %v, want *ConfigValidationError", err)
	}
}

func asValidationError(err error, target **ConfigValidationError) bool {
	ve, ok := err.(*ConfigValidationError)
	if !ok {
		return false
	}
	*target = ve
	return true
}

func TestLoadResolvesIncludeAndEnvExpansion(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "base.toml", `
[llm]
provider = "openai"
`)
	t.Setenv("AGENTKIT_TEST_NAME", "from-env")
	path := writeTemp(t, dir, "agent.toml", `
"$include" = "base.toml"

[agent]
name = "${AGENTKIT_TEST_NAME}"
system_prompt = "be helpful"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.Name != "from-env" {
		t.Fatalf("Agent.Name = %q, want from-env", cfg.Agent.Name)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("LLM.Provider = %q, want openai (from included file)", cfg.LLM.Provider)
	}
}

func TestLoadEnvOverridesAPIKey(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "agent.toml", `
[agent]
name = "assistant"
system_prompt = "be helpful"
`)
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Anthropic.APIKey != "sk-test-123" {
		t.Fatalf("Anthropic.APIKey = %q, want sk-test-123", cfg.LLM.Anthropic.APIKey)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "agent.toml", `
[agent]
name = "assistant"
system_prompt = "be helpful"

[nonsense]
whatever = true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}
