package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/client/conversation"
	uichat "github.com/gitagpt/gitagpt/internal/ui/chat"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		style     string
		endOnExit bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Open the full-screen chat view.

Keys:
  enter   send the message
  tab     cycle the interaction mode (wisdom, socratic, story)
  esc     dismiss the error banner
  ctrl+l  clear the input
  ctrl+c  quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.logFile == "" {
				// stderr output would tear the full-screen view
				a.logger = zap.NewNop()
			}

			be, release := a.backend()
			defer release()

			observe, changes := uichat.Notifier()
			conv := a.newConversation(be, conversation.WithObserver(observe))

			ctx := cmd.Context()
			model := uichat.New(ctx, conv, changes, uichat.WithMarkdownStyle(style))
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("chat view: %w", err)
			}

			if endOnExit && conv.SessionID() != "" {
				endCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				session, err := conv.EndSession(endCtx, "")
				if err != nil {
					return fmt.Errorf("end session: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s ended.\n", session.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&style, "style", "auto", "Markdown style: auto, dark, light or notty")
	cmd.Flags().BoolVar(&endOnExit, "end", false, "End the session on the backend when leaving")
	return cmd
}
