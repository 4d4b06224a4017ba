package main

import (
	"fmt"
	"strings"

	"github.com/basalt-run/agentkit/internal/id"
	"github.com/basalt-run/agentkit/internal/session"
	"github.com/spf13/cobra"
)

// buildRunCmd creates the "run" command: send one message, print the
// reply, and exit.
func buildRunCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run [message]",
		Short: "Send a single message and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return fmt.Errorf("message is required")
			}

			agent, err := loadAgent(configPath)
			if err != nil {
				return err
			}

			sess := session.New(id.New().String())
			resp, err := agent.loop.Run(cmd.Context(), sess, message)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "agent.toml", "Path to agent configuration file")
	return cmd
}
