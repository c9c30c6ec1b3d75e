package selection

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lvcoi/ytbatch/internal/playlist"
)

// ErrCancelled is returned when the user leaves the selection screen without
// finishing it.
var ErrCancelled = errors.New("range selection cancelled")

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0B0B0B")).
			Background(lipgloss.Color("#7FDBFF")).
			Bold(true).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6ADC8")).
			Faint(true)

	echoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8F8F2")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00F5D4"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD166"))
)

type rangeModel struct {
	session   *Session
	label     string
	input     textinput.Model
	viewport  viewport.Model
	lines     []string
	ready     bool
	cancelled bool
	mask      []bool
}

func newRangeModel(label string, group playlist.Group) *rangeModel {
	session := NewSession(group)

	in := textinput.New()
	in.Prompt = "  > "
	in.Placeholder = "1, 5-7"
	in.CharLimit = 256
	in.Focus()

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true
	vp.Style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#7FDBFF"))

	m := &rangeModel{session: session, label: label, input: in, viewport: vp}
	m.lines = append(m.lines, session.Listing()...)
	m.lines = append(m.lines, strings.Split(Usage, "\n")...)
	m.refresh()
	return m
}

func (m *rangeModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *rangeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width - 2
		// title, input and help lines plus the border
		m.viewport.Height = msg.Height - 5
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		m.ready = true
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *rangeModel) submit() tea.Cmd {
	value := m.input.Value()
	m.input.Reset()
	m.lines = append(m.lines, echoStyle.Render("> "+value))
	outcome := m.session.Apply(value)
	for _, msg := range outcome.Messages {
		switch msg.Kind {
		case Info:
			m.lines = append(m.lines, infoStyle.Render(msg.Text))
		case Warning:
			m.lines = append(m.lines, warnStyle.Render(msg.Text))
		default:
			m.lines = append(m.lines, strings.Split(msg.Text, "\n")...)
		}
	}
	m.refresh()
	if outcome.Done {
		m.mask = outcome.Mask
		return tea.Quit
	}
	return nil
}

func (m *rangeModel) refresh() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *rangeModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.label))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Enter apply · PgUp/PgDn scroll · Esc cancel"))
	return b.String()
}

// TUI is the full-screen Selector used on interactive terminals.
type TUI struct{}

func (TUI) Select(ctx context.Context, label string, group playlist.Group) ([]bool, error) {
	model := newRangeModel(label, group)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	result, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	final, ok := result.(*rangeModel)
	if !ok || final.cancelled || final.mask == nil {
		return nil, ErrCancelled
	}
	return final.mask, nil
}

// IsTerminal reports whether f is attached to a character device.
func IsTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
