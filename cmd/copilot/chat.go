// This file implements the interactive chat interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dkillam05/farmvista-copilot/internal/engine"
)

// chatStyles collects the lipgloss styles for the chat view.
type chatStyles struct {
	Title     lipgloss.Style
	Prompt    lipgloss.Style
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	Spinner   lipgloss.Style
	Footer    lipgloss.Style
}

func defaultChatStyles() chatStyles {
	return chatStyles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("70")),
		Prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("70")),
		UserLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		BotLabel:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("70")),
		Spinner:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		Footer:    lipgloss.NewStyle().Faint(true),
	}
}

type chatMessage struct {
	role    string // "user" or "assistant"
	content string
	time    time.Time
}

// chatModel is the main model for the interactive chat interface
type chatModel struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    chatStyles

	history   []chatMessage
	isLoading bool
	width     int
	height    int
	ready     bool

	conv *conversationRef
}

// conversationRef wraps the engine conversation so tea commands can share it
// by pointer while the model stays a value type.
type conversationRef struct {
	ask func(ctx context.Context, question string) string
}

type (
	responseMsg string
	errorMsg    error
)

func newChatModel(ask func(ctx context.Context, question string) string) chatModel {
	styles := defaultChatStyles()

	ti := textinput.New()
	ti.Placeholder = "Ask about fields, grain, equipment... (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 1024
	ti.Width = 80
	ti.PromptStyle = styles.Prompt

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	return chatModel{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		styles:    styles,
		history:   []chatMessage{},
		conv:      &conversationRef{ask: ask},
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			question := strings.TrimSpace(m.textinput.Value())
			if question == "" {
				return m, nil
			}
			if question == "/quit" || question == "/exit" {
				return m, tea.Quit
			}

			m.history = append(m.history, chatMessage{role: "user", content: question, time: time.Now()})
			m.textinput.Reset()
			m.isLoading = true
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()

			conv := m.conv
			return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
				return responseMsg(conv.ask(context.Background(), question))
			})
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 4
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerHeight - footerHeight
		m.textinput.Width = msg.Width - 4
		m.ready = true
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case responseMsg:
		m.isLoading = false
		m.history = append(m.history, chatMessage{role: "assistant", content: string(msg), time: time.Now()})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case errorMsg:
		m.isLoading = false
		m.history = append(m.history, chatMessage{role: "assistant", content: fmt.Sprintf("Error: %v", msg), time: time.Now()})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.isLoading {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
	}

	m.textinput, tiCmd = m.textinput.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m chatModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("FarmVista Copilot"))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.isLoading {
		b.WriteString(m.spinner.View() + " thinking...")
	} else {
		b.WriteString(m.textinput.View())
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(`Say "more" to page long answers. Ctrl+C to exit.`))
	return b.String()
}

func (m chatModel) renderHistory() string {
	var b strings.Builder
	for _, msg := range m.history {
		switch msg.role {
		case "user":
			b.WriteString(m.styles.UserLabel.Render("You: "))
		default:
			b.WriteString(m.styles.BotLabel.Render("Copilot: "))
		}
		b.WriteString(msg.content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// runInteractiveChat assembles the engine and runs the bubbletea program.
func runInteractiveChat(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	conv := engine.NewConversation(eng)
	model := newChatModel(func(ctx context.Context, question string) string {
		return conv.Ask(ctx, question).Answer
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
