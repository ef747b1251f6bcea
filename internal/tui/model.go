package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/linebridge/internal/config"
	"github.com/Iron-Ham/linebridge/internal/event"
	"github.com/Iron-Ham/linebridge/internal/tui/filter"
	"github.com/Iron-Ham/linebridge/internal/tui/styles"
)

// Layout constants
const (
	// Rows outside the log viewport: title, log border (2), input box (3), footer.
	chromeHeight = 7
	// Columns lost to the log box border and padding.
	chromeWidth = 4
)

// EventMsg delivers a bus event to the program.
type EventMsg struct {
	Event event.Event
}

// Status is what the footer shows.
type Status struct {
	InputClosed bool
	OutputLost  bool
	PeerLost    bool
	Received    int
	Sent        int
}

// Model is the Bubbletea model of the console view: a scrolling log of
// traffic, a line editor, and a status footer.
type Model struct {
	viewport       viewport.Model
	input          textinput.Model
	lines          []Line
	maxLines       int
	showTimestamps bool
	send           func(string)
	filter         *filter.Filter
	filtering      bool // keys edit the filter instead of the message

	status   Status
	width    int
	height   int
	ready    bool
	quitting bool
}

// NewModel creates the console model. send is called with each line the
// user submits; it must not block.
func NewModel(cfg config.UIConfig, send func(string)) Model {
	ti := textinput.New()
	ti.Placeholder = "type a message and press enter"
	ti.Prompt = "> "
	ti.Focus()

	maxLines := cfg.MaxLogLines
	if maxLines <= 0 {
		maxLines = config.Default().UI.MaxLogLines
	}

	return Model{
		viewport:       viewport.New(0, 0),
		input:          ti,
		maxLines:       maxLines,
		showTimestamps: cfg.ShowTimestamps,
		send:           send,
		filter:         filter.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case EventMsg:
		m.observe(msg.Event)
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			if msg.String() == "ctrl+c" {
				m.quitting = true
				return m, tea.Quit
			}
			if m.filter.HandleKey(msg).ExitMode {
				m.filtering = false
			}
			m.refresh()
			return m, nil
		}

		switch msg.String() {
		case "ctrl+f":
			m.filtering = true
			return m, nil

		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m, m.submit()

		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-chromeWidth, 1)
	m.viewport.Height = max(height-chromeHeight, 1)
	m.input.Width = max(width-chromeWidth-len(m.input.Prompt)-1, 1)
	m.ready = true
	m.refresh()
}

// submit clears the editor and returns a command that hands the text to
// the sender. Empty lines are valid messages.
func (m *Model) submit() tea.Cmd {
	text := m.input.Value()
	m.input.Reset()
	if m.send == nil {
		return nil
	}
	send := m.send
	return func() tea.Msg {
		send(text)
		return nil
	}
}

func (m *Model) observe(e event.Event) {
	switch e.(type) {
	case event.MessageReceivedEvent:
		m.status.Received++
	case event.MessageSentEvent:
		m.status.Sent++
	case event.EndOfStreamEvent, event.ReadErrorEvent, event.BridgeStoppedEvent:
		m.status.InputClosed = true
	case event.WriteFailedEvent:
		m.status.OutputLost = true
	case event.PeerLostEvent:
		m.status.PeerLost = true
	case event.PeerRestoredEvent:
		m.status.PeerLost = false
	}

	line, ok := LineFromEvent(e)
	if !ok {
		return
	}
	m.lines = append(m.lines, line)
	if over := len(m.lines) - m.maxLines; over > 0 {
		m.lines = append(m.lines[:0:0], m.lines[over:]...)
	}
	m.refresh()
}

// refresh re-renders the log, following the tail if the view was already
// at the bottom.
func (m *Model) refresh() {
	follow := m.viewport.AtBottom()
	rendered := make([]string, 0, len(m.lines))
	for _, l := range m.visibleLines() {
		rendered = append(rendered, l.Render(m.showTimestamps))
	}
	m.viewport.SetContent(strings.Join(rendered, "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

// visibleLines returns the kept lines that pass the filter.
func (m *Model) visibleLines() []Line {
	if !m.filter.HasActiveFilter() {
		return m.lines
	}
	var out []Line
	for _, l := range m.lines {
		if m.filter.ShouldShow(l.Kind.filterCategory(), l.Text) {
			out = append(out, l)
		}
	}
	return out
}

// VisibleLines returns the log lines that pass the current filter.
func (m Model) VisibleLines() []Line {
	return append([]Line(nil), m.visibleLines()...)
}

// Filter returns the console's log filter.
func (m Model) Filter() *filter.Filter {
	return m.filter
}

// Filtering reports whether key presses currently edit the filter.
func (m Model) Filtering() bool {
	return m.filtering
}

// Lines returns the log lines currently kept.
func (m Model) Lines() []Line {
	return append([]Line(nil), m.lines...)
}

// Status returns the footer state.
func (m Model) Status() Status {
	return m.status
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "starting console..."
	}

	badge := styles.StateOpen.Render("OPEN")
	if m.status.InputClosed {
		badge = styles.StateClosed.Render("CLOSED")
	}
	title := lipgloss.JoinHorizontal(lipgloss.Center, styles.Title.Render("linebridge"), " ", badge)

	logBox := styles.LogBox.Width(max(m.width-2, 1)).Render(m.viewport.View())
	if m.filtering {
		logBox = filter.RenderPanel(m.filter, m.width)
	}
	inputBox := styles.InputBox.Width(max(m.width-2, 1)).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, title, logBox, inputBox, m.footer())
}

func (m Model) footer() string {
	parts := []string{
		fmt.Sprintf("recv %d", m.status.Received),
		fmt.Sprintf("sent %d", m.status.Sent),
	}
	if m.status.PeerLost {
		parts = append(parts, styles.Warning.Render("peer silent"))
	}
	if m.status.OutputLost {
		parts = append(parts, styles.Error.Render("output lost"))
	}
	if summary := m.filter.Summary(); summary != "" {
		parts = append(parts, styles.Muted.Render(summary))
	}
	help := styles.HelpKey.Render("enter") + " send  " +
		styles.HelpKey.Render("pgup/pgdn") + " scroll  " +
		styles.HelpKey.Render("ctrl+f") + " filter  " +
		styles.HelpKey.Render("esc") + " quit"
	return styles.HelpBar.Render(strings.Join(parts, " · ") + "   " + help)
}
