// Package tui implements the interactive flow meter list screen.
package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/hydrai/cli/internal/api"
)

// Source is the subset of the API client the screen needs
type Source interface {
	ListFlowMeters(ctx context.Context) ([]api.FlowMeter, error)
	RequestAnalysis(ctx context.Context, userID string) (json.RawMessage, error)
}

var errNoUserID = errors.New("no user id configured, set --user-id or HYDRAI_USER_ID")

type (
	metersMsg      struct{ meters []api.FlowMeter }
	fetchErrMsg    struct{ err error }
	analysisMsg    struct{ result json.RawMessage }
	analysisErrMsg struct{ err error }
)

type keyMap struct {
	Refresh key.Binding
	Analyze key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Analyze: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "recommendations")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	tableStyle    = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	analysisStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the bubbletea model of the list screen. A fetch or analysis is
// never started while the previous one of the same kind is in flight.
type Model struct {
	ctx    context.Context
	source Source
	userID string

	table   table.Model
	spinner spinner.Model

	meters    []api.FlowMeter
	loading   bool
	analyzing bool
	err       error
	analysis  string
}

// New creates the screen; the first fetch starts with Init
func New(ctx context.Context, source Source, userID string) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 26},
			{Title: "Name", Width: 20},
			{Title: "Type", Width: 14},
			{Title: "State", Width: 10},
			{Title: "Total (L)", Width: 12},
			{Title: "Leak", Width: 5},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		source:  source,
		userID:  userID,
		table:   t,
		spinner: s,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m Model) fetch() tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		meters, err := source.ListFlowMeters(ctx)
		if err != nil {
			return fetchErrMsg{err: err}
		}
		return metersMsg{meters: meters}
	}
}

func (m Model) analyze() tea.Cmd {
	ctx, source, userID := m.ctx, m.source, m.userID
	return func() tea.Msg {
		result, err := source.RequestAnalysis(ctx, userID)
		if err != nil {
			return analysisErrMsg{err: err}
		}
		return analysisMsg{result: result}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.fetch())
		case key.Matches(msg, keys.Analyze):
			if m.analyzing {
				return m, nil
			}
			if m.userID == "" {
				m.err = errNoUserID
				return m, nil
			}
			m.analyzing = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.analyze())
		}

	case metersMsg:
		m.loading = false
		m.meters = msg.meters
		m.table.SetRows(rows(msg.meters))
		return m, nil

	case fetchErrMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case analysisMsg:
		m.analyzing = false
		m.analysis = formatAnalysis(msg.result)
		return m, nil

	case analysisErrMsg:
		m.analyzing = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.analyzing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		if h := msg.Height - 12; h > 3 {
			m.table.SetHeight(h)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("HydrAI · Caudalímetros"))
	b.WriteString("\n\n")

	if m.loading && len(m.meters) == 0 {
		b.WriteString(m.spinner.View() + " Loading flow meters...\n")
	} else {
		b.WriteString(tableStyle.Render(m.table.View()))
		b.WriteString("\n")
		b.WriteString(summary(m.meters))
		if m.loading {
			b.WriteString("  " + m.spinner.View() + " refreshing")
		}
		b.WriteString("\n")
	}

	if m.analyzing {
		b.WriteString(m.spinner.View() + " Requesting recommendations...\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	if m.analysis != "" {
		b.WriteString(analysisStyle.Render(m.analysis) + "\n")
	}

	b.WriteString(helpStyle.Render(helpLine()))
	b.WriteString("\n")
	return b.String()
}

// Run starts the screen and blocks until the user quits
func Run(ctx context.Context, source Source, userID string, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(ctx, source, userID), opts...).Run()
	return err
}

func rows(meters []api.FlowMeter) []table.Row {
	out := make([]table.Row, 0, len(meters))
	for _, meter := range meters {
		leak := ""
		if meter.HasLeak() {
			leak = "yes"
		}
		out = append(out, table.Row{
			meter.ID,
			meter.Name,
			meter.Type,
			meter.State,
			api.FormatLitres(meter.TotalConsumption()),
			leak,
		})
	}
	return out
}

func summary(meters []api.FlowMeter) string {
	var total float64
	for _, meter := range meters {
		total += meter.TotalConsumption()
	}
	return fmt.Sprintf("%d meters · %s L total", len(meters), api.FormatLitres(total))
}

func formatAnalysis(result json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		return string(result)
	}
	return buf.String()
}

func helpLine() string {
	parts := []string{"↑/↓ move"}
	for _, b := range []key.Binding{keys.Refresh, keys.Analyze, keys.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
