// Command agentkit runs a single configured agent: an interactive chat
// REPL, a one-shot message, or the HTTP surface of spec §4.6/§6.
//
// # Basic Usage
//
// Start an interactive session:
//
//	agentkit chat --config agent.toml
//
// Send one message and print the reply:
//
//	agentkit run --config agent.toml "summarize this repo"
//
// Serve the HTTP API:
//
//	agentkit serve --config agent.toml
//
// # Environment Variables
//
//   - ANTHROPIC_API_KEY: Anthropic API key for Claude models
//   - OPENAI_API_KEY: OpenAI API key for GPT models
//   - AGENTKIT_HOST / AGENTKIT_PORT: override server.host / server.port
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
//
// Example build command:
//
//	go build -ldflags "-X main.version=v0.1.0 -X main.commit=$(git rev-parse HEAD)"
var (
	version = "dev"
	commit  = "none"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() so tests can exercise it without os.Exit.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agentkit",
		Short: "agentkit runs a single LLM agent: chat, run, or serve",
		Long: `agentkit is a minimal runtime for a single ReAct-style LLM agent.

Supported LLM providers: Anthropic (Claude), OpenAI (GPT)`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildChatCmd(),
		buildRunCmd(),
		buildServeCmd(),
	)

	return rootCmd
}
