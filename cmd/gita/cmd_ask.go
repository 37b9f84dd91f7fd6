package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitagpt/gitagpt/internal/client/conversation"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

func newAskCmd(a *app) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question and print the reply",
		Long: `Send one message and print the guidance with its emotion, intent and
verse references. Pass --session to continue an existing conversation.`,
		Example: `  gita ask "How do I deal with fear of failure?"
  gita ask --mode story "Tell me about Arjuna's doubt"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, release := a.backend()
			defer release()

			var ex conversation.Exchanger = be
			if sessionID != "" {
				ex = pinnedSession{Exchanger: be, id: sessionID}
			}
			conv := a.newConversation(ex)

			if err := conv.Submit(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}

			snap := conv.Snapshot()
			if snap.Banner != "" {
				return errors.New(snap.Banner)
			}
			last := snap.Messages[len(snap.Messages)-1]
			printReply(cmd.OutOrStdout(), last, snap.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Continue this session id")
	return cmd
}

// pinnedSession sends every request under a fixed session id.
type pinnedSession struct {
	conversation.Exchanger
	id string
}

func (p pinnedSession) Exchange(ctx context.Context, req conversation.Request) (chat.Reply, error) {
	req.SessionID = p.id
	return p.Exchanger.Exchange(ctx, req)
}

func printReply(w io.Writer, msg chat.Message, sessionID string) {
	fmt.Fprintln(w, msg.Content)

	if msg.Emotion != nil || msg.Intent != nil {
		fmt.Fprintln(w)
	}
	if msg.Emotion != nil {
		fmt.Fprintf(w, "Emotion: %s %s (%d%%)\n", msg.Emotion.Emoji, msg.Emotion.Label, percent(msg.Emotion.Confidence))
	}
	if msg.Intent != nil {
		fmt.Fprintf(w, "Intent:  %s (%d%%)\n", msg.Intent.Label, percent(msg.Intent.Confidence))
	}

	if len(msg.References) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Verses:")
		for _, ref := range msg.References {
			line := fmt.Sprintf("  BG %d.%d", ref.Chapter, ref.Verse)
			if ref.Meaning != "" {
				line += "  " + ref.Meaning
			}
			fmt.Fprintln(w, line)
		}
	}

	if sessionID != "" {
		fmt.Fprintf(w, "\nsession: %s\n", sessionID)
	}
}

func percent(v float64) int {
	return int(v*100 + 0.5)
}
