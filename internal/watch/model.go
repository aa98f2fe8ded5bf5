// Package watch renders live daemon progress in the terminal.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rbright/ghostkeys/internal/fsm"
	"github.com/rbright/ghostkeys/internal/ipc"
)

const (
	defaultWidth   = 60
	requestTimeout = time.Second
)

var (
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("#1E1E2E"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))

	badgeColors = map[fsm.State]lipgloss.Color{
		fsm.StateIdle:      "#6E6E6E",
		fsm.StateReady:     "#89B4FA",
		fsm.StateCountdown: "#C89A3A",
		fsm.StateTyping:    "#A6E3A1",
		fsm.StatePaused:    "#F9E2AF",
		fsm.StateDone:      "#94E2D5",
		fsm.StateError:     "#F38BA8",
	}
)

// Client sends control requests to the daemon.
type Client interface {
	Do(ctx context.Context, req ipc.Request) (ipc.Response, error)
}

type statusMsg struct {
	resp ipc.Response
	err  error
}

type pollMsg struct{}

// Model implements the Bubble Tea watch UI.
type Model struct {
	client   Client
	interval time.Duration

	bar    progress.Model
	resp   ipc.Response
	errMsg string
	width  int
}

// NewModel constructs a watch model polling every interval.
func NewModel(client Client, interval time.Duration) *Model {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = defaultWidth
	return &Model{
		client:   client,
		interval: interval,
		bar:      bar,
		width:    defaultWidth,
		resp:     ipc.Response{State: string(fsm.StateIdle)},
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.request(ipc.CommandProgress)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 20)
		m.bar.Width = m.width - 4
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "p":
			return m, m.request(ipc.CommandTogglePause)
		case "s":
			return m, m.request(ipc.CommandToggle)
		}
		return m, nil
	case statusMsg:
		m.apply(msg)
		return m, m.schedule()
	case pollMsg:
		return m, m.request(ipc.CommandProgress)
	}
	return m, nil
}

func (m *Model) apply(msg statusMsg) {
	if msg.err != nil {
		m.errMsg = msg.err.Error()
		if msg.resp.State != "" {
			m.resp = msg.resp
		}
		return
	}
	m.errMsg = ""
	m.resp = msg.resp
	if m.resp.State == string(fsm.StateError) && m.resp.Error != "" {
		m.errMsg = m.resp.Error
	}
}

func (m *Model) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m *Model) request(command string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := client.Do(ctx, ipc.Request{Command: command})
		return statusMsg{resp: resp, err: err}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	state := fsm.State(m.resp.State)
	color, ok := badgeColors[state]
	if !ok {
		color = badgeColors[fsm.StateIdle]
	}
	badge := badgeStyle.Background(color).Render(strings.ToUpper(string(state)))

	label := m.resp.File
	if label == "" {
		label = "(no file)"
	}
	label = runewidth.Truncate(label, max(m.width-lipgloss.Width(badge)-1, 1), "…")

	var b strings.Builder
	b.WriteString(badge + " " + labelStyle.Render(label) + "\n\n")

	current, total, percent := 0, 0, 0.0
	if p := m.resp.Progress; p != nil {
		current, total, percent = p.Current, p.Total, p.Percent
	}
	b.WriteString(m.bar.ViewAs(percent/100) + "\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d/%d characters  %.0f%%", current, total, percent)) + "\n")

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(runewidth.Truncate(m.errMsg, m.width, "…")) + "\n")
	}

	b.WriteString("\n" + footerStyle.Render("s start/stop · p pause/resume · q quit"))
	return b.String()
}

// Run shows the watch UI until the user quits or ctx is cancelled.
func Run(ctx context.Context, client Client) error {
	program := tea.NewProgram(NewModel(client, 0), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run watch ui: %w", err)
	}
	return nil
}
