package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gitagpt/gitagpt/internal/model/chat"
)

func newProfileCmd(a *app) *cobra.Command {
	var set map[string]string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile and lifetime activity",
		Long: `Print your stored preferences and what your sessions add up to.
Pass --set to replace the stored preferences first. Needs a token.`,
		Example: `  gita profile
  gita profile --set default_mode=story,daily_verse=on`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, release := a.backend()
			defer release()
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			if cmd.Flags().Changed("set") {
				prefs := make(chat.Preferences, len(set))
				for k, v := range set {
					prefs[k] = v
				}
				if err := be.UpdatePreferences(ctx, prefs); err != nil {
					return explain(err)
				}
			}

			profile, err := be.Profile(ctx)
			if err != nil {
				return explain(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User: %s\n\n", profile.ID)
			printActivity(out, profile.Activity)

			fmt.Fprintln(out)
			if len(profile.Preferences) == 0 {
				fmt.Fprintln(out, "No preferences saved.")
				return nil
			}
			fmt.Fprintln(out, "Preferences:")
			for _, k := range slices.Sorted(maps.Keys(profile.Preferences)) {
				fmt.Fprintf(out, "  %s = %v\n", k, profile.Preferences[k])
			}
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&set, "set", nil, "Replace preferences with these key=value pairs")
	return cmd
}

func newProgressCmd(a *app) *cobra.Command {
	var timeframe string

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show your activity over a recent period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tf, err := chat.ParseTimeframe(timeframe)
			if err != nil {
				return err
			}

			be, release := a.backend()
			defer release()
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			progress, err := be.Progress(ctx, tf)
			if err != nil {
				return explain(err)
			}
			out := cmd.OutOrStdout()
			if progress.Timeframe == chat.TimeframeAll {
				fmt.Fprint(out, "Progress over all time\n\n")
			} else {
				fmt.Fprintf(out, "Progress over the last %s\n\n", progress.Timeframe)
			}
			printActivity(out, progress.Activity)
			return nil
		},
	}
	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", string(chat.TimeframeMonth), "week, month, year or all")
	return cmd
}

func newVerseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verse",
		Short: "Look up verses of the Gita",
		Long: `Browse the verse corpus. No token needed.

Available subcommands:
  random - print one verse at random
  search - rank verses against a question`,
	}

	random := &cobra.Command{
		Use:   "random",
		Short: "Print a random verse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			be, release := a.backend()
			defer release()
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			v, err := be.RandomVerse(ctx)
			if err != nil {
				return err
			}
			printVerse(cmd.OutOrStdout(), v)
			return nil
		},
	}

	var (
		emotion string
		topK    int
	)
	search := &cobra.Command{
		Use:     "search <query>",
		Short:   "Find verses that speak to a question",
		Example: `  gita verse search --emotion fear "I am afraid of failing"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, release := a.backend()
			defer release()
			ctx, cancel := a.callContext(cmd)
			defer cancel()

			res, err := be.SearchVerses(ctx, chat.VerseSearchRequest{
				Query:   strings.Join(args, " "),
				Emotion: emotion,
				TopK:    topK,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(res.Verses) == 0 {
				fmt.Fprintln(out, "No matching verses.")
				return nil
			}
			for i, v := range res.Verses {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printVerse(out, v)
			}
			return nil
		},
	}
	search.Flags().StringVar(&emotion, "emotion", "", "Boost verses tagged with this emotion")
	search.Flags().IntVarP(&topK, "top", "k", 5, "Number of verses (1-20)")

	cmd.AddCommand(random, search)
	return cmd
}

func printActivity(w io.Writer, act chat.Activity) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Conversations\t%d\n", act.TotalConversations)
	fmt.Fprintf(tw, "Messages\t%d\n", act.TotalMessages)
	fmt.Fprintf(tw, "Verses explored\t%d\n", act.VersesExplored)
	fmt.Fprintf(tw, "Streak\t%d days\n", act.StreakDays)
	fmt.Fprintf(tw, "Favourite mode\t%s\n", act.FavoriteMode)
	fmt.Fprintf(tw, "Common emotion\t%s\n", act.MostCommonEmotion)
	fmt.Fprintf(tw, "Last active\t%s\n", formatTime(act.LastActive))
	_ = tw.Flush()
}

func printVerse(w io.Writer, v chat.VersePayload) {
	ref := v.Reference()
	header := fmt.Sprintf("BG %d.%d", ref.Chapter, ref.Verse)
	if ref.Score != nil {
		header += fmt.Sprintf("  (%d%%)", percent(*ref.Score))
	}
	fmt.Fprintln(w, header)
	for _, line := range []string{ref.Text, ref.Transliteration, ref.Meaning} {
		if line != "" {
			fmt.Fprintln(w, "  "+line)
		}
	}
}
