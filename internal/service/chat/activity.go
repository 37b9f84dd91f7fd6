package chat

import (
	"context"
	"time"

	"github.com/gitagpt/gitagpt/internal/model/chat"
)

const neutralEmotion = "neutral"

// Summarize tallies the user's stored sessions and messages from since up
// to now. A zero since counts everything.
//
// Only user turns count as messages. Verses explored is the number of
// distinct chapter.verse references across assistant turns. The streak is
// the run of consecutive UTC days, ending today, with a session or message.
func Summarize(ctx context.Context, s Store, userID string, since, now time.Time) (chat.Activity, error) {
	sessions, err := s.ListSessions(ctx, userID, 0)
	if err != nil {
		return chat.Activity{}, err
	}

	var (
		act      = chat.Activity{FavoriteMode: chat.DefaultMode, MostCommonEmotion: neutralEmotion}
		modes    = make(map[chat.Mode]int)
		emotions = make(map[string]int)
		verses   = make(map[[2]int]struct{})
		days     = make(map[string]struct{})
		first    time.Time
		last     time.Time
	)
	seen := func(t time.Time) {
		days[dayKey(t)] = struct{}{}
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}

	for _, session := range sessions {
		messages, err := s.LoadTranscript(ctx, session.ID)
		if err != nil {
			return chat.Activity{}, err
		}
		if !session.CreatedAt.Before(since) {
			act.TotalConversations++
			modes[session.Mode]++
			seen(session.CreatedAt)
		}
		for _, msg := range messages {
			if msg.Timestamp.Before(since) {
				continue
			}
			seen(msg.Timestamp)
			switch msg.Role {
			case chat.RoleUser:
				act.TotalMessages++
			case chat.RoleAssistant:
				if msg.Emotion != nil && msg.Emotion.Label != "" {
					emotions[msg.Emotion.Label]++
				}
				for _, ref := range msg.References {
					verses[[2]int{ref.Chapter, ref.Verse}] = struct{}{}
				}
			}
		}
	}

	act.VersesExplored = len(verses)
	if mode, ok := mostFrequent(modes, chat.Modes()); ok {
		act.FavoriteMode = mode
	}
	if label, ok := mostFrequent(emotions, nil); ok {
		act.MostCommonEmotion = label
	}
	for day := now.UTC(); ; day = day.AddDate(0, 0, -1) {
		if _, ok := days[dayKey(day)]; !ok {
			break
		}
		act.StreakDays++
	}
	if !first.IsZero() {
		act.FirstActive = &first
		act.LastActive = &last
	}
	return act, nil
}

// mostFrequent returns the key with the highest count. Ties go to the key
// listed first in order, then to the lexically smallest.
func mostFrequent[K ~string](counts map[K]int, order []K) (K, bool) {
	var (
		best  K
		count int
	)
	rank := func(k K) int {
		for i, o := range order {
			if o == k {
				return i
			}
		}
		return len(order)
	}
	for k, n := range counts {
		switch {
		case n > count:
		case n == count && (rank(k) < rank(best) || rank(k) == rank(best) && k < best):
		default:
			continue
		}
		best, count = k, n
	}
	return best, count > 0
}

func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
