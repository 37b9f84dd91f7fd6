package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gitagpt/gitagpt/internal/model/chat"
)

// chromeHeight is the number of rows around the transcript viewport.
const chromeHeight = 7

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	modeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	userStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#60A5FA"))
	guideStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	verseStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FCD34D")).PaddingLeft(2)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	bannerStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FEE2E2")).
			Background(lipgloss.Color("#991B1B")).
			Padding(0, 1)
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.renderTranscript())
	}
	b.WriteString("\n")

	if m.snap.Banner != "" {
		b.WriteString(bannerStyle.Render("Error: "+m.snap.Banner) + dimStyle.Render("  esc to dismiss"))
	}
	b.WriteString("\n")

	if m.snap.Pending {
		b.WriteString(m.spinner.View() + pendingStyle.Render(" Reflecting..."))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headerView() string {
	title := titleStyle.Render("GitaGPT")
	mode := modeStyle.Render(fmt.Sprintf("mode: %s", m.snap.Mode))
	line := title + "  " + mode + dimStyle.Render("  "+m.snap.Mode.Description())
	if m.snap.SessionID != "" {
		line += dimStyle.Render("  session " + shortID(m.snap.SessionID))
	}
	return line
}

func (m Model) renderTranscript() string {
	if len(m.snap.Messages) == 0 {
		return dimStyle.Render("Ask about duty, fear, loss or purpose. Press tab to change how guidance is framed.")
	}

	blocks := make([]string, 0, len(m.snap.Messages))
	for _, msg := range m.snap.Messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg chat.Message) string {
	stamp := dimStyle.Render(msg.Timestamp.Format("15:04"))
	switch msg.Role {
	case chat.RoleUser:
		return userStyle.Render("You") + " " + stamp + "\n" + m.wrap(msg.Content)
	case chat.RoleError:
		return errorStyle.Render("! "+msg.Content) + " " + stamp
	}

	var b strings.Builder
	b.WriteString(guideStyle.Render("Gita") + " " + stamp)
	if meta := metadataLine(msg); meta != "" {
		b.WriteString(" " + dimStyle.Render(meta))
	}
	b.WriteString("\n")
	b.WriteString(m.markdown(msg.Content))
	for _, ref := range msg.References {
		b.WriteString("\n" + verseStyle.Render(referenceLine(ref)))
	}
	return b.String()
}

func (m Model) markdown(content string) string {
	if m.renderer == nil {
		return m.wrap(content)
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return m.wrap(content)
	}
	return strings.Trim(out, "\n")
}

func (m Model) wrap(content string) string {
	if m.width <= 4 {
		return content
	}
	return lipgloss.NewStyle().Width(m.width - 2).Render(content)
}

func metadataLine(msg chat.Message) string {
	var parts []string
	if msg.Emotion != nil {
		parts = append(parts, fmt.Sprintf("%s %s %d%%", msg.Emotion.Emoji, msg.Emotion.Label, percent(msg.Emotion.Confidence)))
	}
	if msg.Intent != nil {
		parts = append(parts, fmt.Sprintf("%s %d%%", strings.ReplaceAll(msg.Intent.Label, "_", " "), percent(msg.Intent.Confidence)))
	}
	return strings.Join(parts, " · ")
}

func referenceLine(ref chat.Reference) string {
	line := fmt.Sprintf("BG %d.%d", ref.Chapter, ref.Verse)
	if ref.Meaning != "" {
		line += "  " + ref.Meaning
	} else if ref.Text != "" {
		line += "  " + ref.Text
	}
	if ref.Score != nil {
		line += fmt.Sprintf(" (%d%%)", percent(*ref.Score))
	}
	return line
}

func percent(v float64) int {
	return int(v*100 + 0.5)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
