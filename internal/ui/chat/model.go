// Package chat is the terminal chat view. It renders a
// conversation.Conversation and forwards key presses to it; all
// conversation state lives in the core.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/gitagpt/gitagpt/internal/client/conversation"
)

// changedMsg means the conversation state moved; the model re-reads it.
type changedMsg struct{}

// submittedMsg is sent when a Submit call returns.
type submittedMsg struct {
	text string
	err  error
}

// Model is the bubbletea model of the chat view.
type Model struct {
	ctx     context.Context
	conv    *conversation.Conversation
	changes <-chan struct{}

	keys     KeyMap
	help     help.Model
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	markdownStyle string
	renderer      *glamour.TermRenderer

	snap   conversation.Snapshot
	width  int
	height int
	ready  bool
}

// Notifier returns an observer for conversation.WithObserver and the
// channel it signals. Signals coalesce: the model always re-reads the
// latest snapshot.
func Notifier() (func(conversation.Snapshot), <-chan struct{}) {
	ch := make(chan struct{}, 1)
	return func(conversation.Snapshot) {
		select {
		case ch <- struct{}{}:
		default:
		}
	}, ch
}

// Option configures a Model.
type Option func(*Model)

// WithMarkdownStyle selects the glamour style, e.g. "dark", "light",
// "notty" or "auto".
func WithMarkdownStyle(style string) Option {
	return func(m *Model) {
		if style != "" {
			m.markdownStyle = style
		}
	}
}

// New builds the view. changes should be the channel returned by Notifier
// whose observer was registered on conv; it may be nil.
func New(ctx context.Context, conv *conversation.Conversation, changes <-chan struct{}, opts ...Option) Model {
	input := textinput.New()
	input.Placeholder = "Share what is on your mind..."
	input.Prompt = "› "
	input.CharLimit = 5000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = pendingStyle

	m := Model{
		ctx:           ctx,
		conv:          conv,
		changes:       changes,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		input:         input,
		spinner:       sp,
		viewport:      viewport.New(80, 20),
		markdownStyle: "auto",
		snap:          conv.Snapshot(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.input.SetValue(m.snap.Draft)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForChange())
}

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case changedMsg:
		m.refresh()
		return m, m.waitForChange()

	case submittedMsg:
		// Exchange failures are already in the transcript. A rejected
		// concurrent submit gives the text back to the input.
		if errors.Is(msg.err, conversation.ErrExchangeInFlight) && m.input.Value() == "" {
			m.input.SetValue(msg.text)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.CycleMode):
		if err := m.conv.SwitchMode(m.snap.Mode.Next()); err == nil {
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.conv.DismissError()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ClearDraft):
		m.conv.ClearDraft()
		m.input.SetValue("")
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.snap.Draft {
		m.conv.SetDraft(m.input.Value())
		m.snap.Draft = m.input.Value()
	}
	return m, cmd
}

// submit hands the draft to the core. Blank input and input typed while a
// reply is pending stay in the field.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if m.snap.Pending || strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.input.SetValue("")
	conv, ctx := m.conv, m.ctx
	return m, func() tea.Msg {
		return submittedMsg{text: text, err: conv.Submit(ctx, text)}
	}
}

// refresh pulls the latest snapshot and re-renders the transcript.
func (m *Model) refresh() {
	snap := m.conv.Snapshot()
	atBottom := m.viewport.AtBottom()
	m.snap = snap
	m.viewport.SetContent(m.renderTranscript())
	if atBottom || snap.Pending {
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.input.Width = max(10, width-4)
	m.help.Width = width
	m.viewport.Width = width
	m.viewport.Height = max(3, height-chromeHeight)
	m.renderer = newRenderer(m.markdownStyle, width-4)
	m.ready = true
	m.refresh()
}

func newRenderer(style string, wrap int) *glamour.TermRenderer {
	styleOpt := glamour.WithStandardStyle(style)
	if style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(max(20, wrap)))
	if err != nil {
		return nil
	}
	return r
}
