package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/basalt-run/agentkit/internal/id"
	"github.com/basalt-run/agentkit/internal/session"
	"github.com/spf13/cobra"
)

// buildChatCmd creates the "chat" command: an interactive REPL over a
// single session, exiting on "exit", "quit", or EOF.
func buildChatCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := loadAgent(configPath)
			if err != nil {
				return err
			}
			return runChatREPL(cmd.Context(), agent, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "agent.toml", "Path to agent configuration file")
	return cmd
}

func runChatREPL(ctx context.Context, agent *loadedAgent, in io.Reader, out io.Writer) error {
	sess := session.New(id.New().String())
	scanner := bufio.NewScanner(in)

	fmt.Fprintf(out, "Chatting with %s. Type \"exit\" or \"quit\" to leave.\n", agent.cfg.Agent.Name)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		resp, err := agent.loop.Run(ctx, sess, line)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, resp.Text)
	}
}
