// Package tui is the watch-mode viewer: the latest report plus a status
// line, refreshed from the watch loop's update channel.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"slurm_usage/internal/render"
	"slurm_usage/internal/usage"
	"slurm_usage/internal/watch"
)

type Options struct {
	Source  string
	NoColor bool
	Refresh time.Duration
	Updates <-chan watch.Update
}

type Model struct {
	source  string
	noColor bool
	refresh time.Duration
	updates <-chan watch.Update

	width  int
	height int

	state       watch.State
	lastError   string
	lastSuccess time.Time
	nextRetry   time.Time
	report      *usage.Report

	dim  lipgloss.Style
	warn lipgloss.Style
}

func NewModel(opts Options) Model {
	dim := lipgloss.NewStyle()
	warn := lipgloss.NewStyle()
	if !opts.NoColor {
		dim = dim.Foreground(lipgloss.Color("8"))
		warn = warn.Foreground(lipgloss.Color("11"))
	}
	return Model{
		source:  opts.Source,
		noColor: opts.NoColor,
		refresh: opts.Refresh,
		updates: opts.Updates,
		state:   watch.StateRetrying,
		dim:     dim,
		warn:    warn,
	}
}

type updateMsg watch.Update

type updatesClosedMsg struct{}

func (m Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return updatesClosedMsg{}
		}
		return updateMsg(update)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case updateMsg:
		m.state = msg.State
		m.lastError = msg.LastError
		m.lastSuccess = msg.LastSuccess
		m.nextRetry = msg.NextRetry
		if msg.Report != nil {
			m.report = msg.Report
		}
		return m, m.waitForUpdate()
	case updatesClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	if m.report != nil {
		b.WriteString(render.Text(*m.report, render.Options{NoColor: m.noColor}))
	} else {
		b.WriteString("waiting for first report from " + m.source + "...\n")
	}

	b.WriteByte('\n')
	b.WriteString(m.statusLine())
	b.WriteByte('\n')
	b.WriteString(m.dim.Render("refresh: " + m.refresh.String() + "  (q to quit)"))
	b.WriteByte('\n')
	return b.String()
}

func (m Model) statusLine() string {
	if m.lastSuccess.IsZero() && m.lastError == "" {
		return m.dim.Render("fetching...")
	}
	switch m.state {
	case watch.StateCurrent:
		return m.dim.Render("up to date as of " + m.lastSuccess.Format(time.Kitchen))
	case watch.StateRetrying:
		return m.warn.Render(fmt.Sprintf("refresh failed, retrying at %s: %s",
			m.nextRetry.Format(time.Kitchen), m.lastError))
	case watch.StateRecovering:
		return m.warn.Render(fmt.Sprintf("repeated failures, next attempt at %s: %s",
			m.nextRetry.Format(time.Kitchen), m.lastError))
	default:
		return ""
	}
}
