package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitagpt/gitagpt/internal/client/api"
	"github.com/gitagpt/gitagpt/internal/model/chat"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Create or end conversation sessions",
		Long: `Manage sessions on the backend. These commands need a token.

Available subcommands:
  create - open a new session in the selected mode
  add    - append a message to a session
  end    - close a session, optionally with a summary`,
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Open a new session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, release := a.backend()
			defer release()
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			session, err := be.CreateSession(ctx, a.cfg.Mode)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", session.ID, session.Mode)
			return nil
		},
	}

	var summary string
	end := &cobra.Command{
		Use:   "end <session-id>",
		Short: "End a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, release := a.backend()
			defer release()
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			session, err := be.EndSession(ctx, args[0], summary)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s ended at %s.\n", session.ID, formatTime(session.EndedAt))
			return nil
		},
	}
	end.Flags().StringVar(&summary, "summary", "", "Summary stored with the session")

	var role string
	add := &cobra.Command{
		Use:   "add <session-id> <text>",
		Short: "Append a message to a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, release := a.backend()
			defer release()
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			msg, err := be.SaveMessage(ctx, args[0], chat.AddMessageRequest{
				Role:    chat.Role(role),
				Content: strings.Join(args[1:], " "),
			})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", msg.ID, msg.Role)
			return nil
		},
	}
	add.Flags().StringVar(&role, "role", string(chat.RoleUser), "Message author: user or assistant")

	cmd.AddCommand(create, add, end)
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, release := a.backend()
			defer release()
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			sessions, err := be.History(ctx, limit)
			if err != nil {
				return explain(err)
			}
			printHistory(cmd.OutOrStdout(), sessions)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list (1-100)")
	return cmd
}

func newContextCmd(a *app) *cobra.Command {
	var window int

	cmd := &cobra.Command{
		Use:   "context <session-id>",
		Short: "Show the recent messages of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, release := a.backend()
			defer release()
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			sc, err := be.SessionContext(ctx, args[0], window)
			if err != nil {
				return explain(err)
			}
			out := cmd.OutOrStdout()
			for _, msg := range sc.Messages {
				fmt.Fprintf(out, "[%s] %s: %s\n", msg.Timestamp.Local().Format("15:04"), msg.Role, msg.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&window, "window", "w", 10, "Number of messages (1-50)")
	return cmd
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backend and its components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, release := a.backend()
			defer release()
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			report, err := be.Health(ctx)
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", report.Status, report.Message)

			names := make([]string, 0, len(report.Services))
			for name := range report.Services {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, name := range names {
				svc := report.Services[name]
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", name, svc.Status, svc.Error)
			}
			return tw.Flush()
		},
	}
}

func printHistory(w io.Writer, sessions []chat.SessionHistory) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODE\tSTARTED\tMESSAGES\tSTATUS")
	for _, h := range sessions {
		status := "open"
		if h.Session.Ended() {
			status = "ended"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			h.Session.ID, h.Session.Mode, formatTime(&h.Session.CreatedAt), len(h.Messages), status)
	}
	_ = tw.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// explain adds a hint for missing credentials.
func explain(err error) error {
	if errors.Is(err, api.ErrAuthRequired) {
		return fmt.Errorf("%w: pass --token or set GITA_TOKEN", err)
	}
	return err
}
