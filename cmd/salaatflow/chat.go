package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"salaatflow/internal/agent"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

type replyMsg struct {
	text string
	err  error
}

type chatModel struct {
	agent     *agent.Agent
	sessionID string

	viewport viewport.Model
	input    textinput.Model
	history  []string
	waiting  bool
	ready    bool
}

func newChatModel(a *agent.Agent) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask me anything... (e.g. \"add a task to pray fajr tomorrow\")"
	input.Focus()
	input.CharLimit = 500

	return chatModel{
		agent:     a,
		sessionID: uuid.NewString(),
		input:     input,
		history: []string{
			botStyle.Render("SalaatFlow") + " " + faintStyle.Render("- assalamualaikum! Type a request, or ctrl+c to quit."),
		},
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-5)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - 5
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.history = append(m.history, userStyle.Render("you")+" "+text)
			m.waiting = true
			m.refresh()
			return m, m.ask(text)
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.history = append(m.history, faintStyle.Render("error: "+msg.err.Error()))
		} else {
			m.history = append(m.history, botStyle.Render("salaatflow")+" "+msg.text)
		}
		m.refresh()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.history, "\n\n"))
	m.viewport.GotoBottom()
}

func (m chatModel) ask(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		reply, err := m.agent.HandleTurn(ctx, m.sessionID, text, "")
		return replyMsg{text: reply, err: err}
	}
}

func (m chatModel) View() string {
	if !m.ready {
		return "starting..."
	}
	status := ""
	if m.waiting {
		status = faintStyle.Render(" thinking...")
	}
	return fmt.Sprintf("%s\n%s%s\n",
		borderStyle.Render(m.viewport.View()),
		borderStyle.Render(m.input.View()),
		status)
}

func runChat() error {
	a, s, err := buildAgent()
	if err != nil {
		return err
	}
	defer s.Close()

	p := tea.NewProgram(newChatModel(a), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
