package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Ahlyab/flood-prediction/internal/indicators"
	"github.com/Ahlyab/flood-prediction/internal/submission"
)

// Messages for async operations
type stateMsg struct {
	state submission.State
	ok    bool
}

type submitDoneMsg struct {
	err error
}

// numericRunes are the only characters a field accepts
const numericRunes = "0123456789.-+eE"

// formKeyMap defines key bindings for the form screen
type formKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Submit key.Binding
	Reset  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Submit, k.Reset, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Submit, k.Reset},
		{k.Help, k.Quit},
	}
}

func newFormKeyMap() formKeyMap {
	return formKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "shift+tab"),
			key.WithHelp("↑/shift+tab", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "tab"),
			key.WithHelp("↓/tab", "next"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "get prediction"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "reset"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// FormModel is the terminal rendition of the prediction form. The
// controller owns the values and the submission state; the model mirrors
// them into text inputs and re-renders on every state snapshot.
type FormModel struct {
	Controller *submission.Controller
	Endpoint   string

	Names  []string
	Inputs []textinput.Model
	Focus  int

	State  submission.State
	Notice string

	// UI state
	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    formKeyMap

	states      <-chan submission.State
	unsubscribe func()
}

// NewFormModel creates the form for controller. endpoint is shown in the
// subtitle.
func NewFormModel(controller *submission.Controller, endpoint string) FormModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	states, unsubscribe := controller.Subscribe()

	m := FormModel{
		Controller:  controller,
		Endpoint:    endpoint,
		Names:       indicators.Names(),
		State:       controller.State(),
		Spinner:     s,
		Help:        help.New(),
		Keys:        newFormKeyMap(),
		states:      states,
		unsubscribe: unsubscribe,
	}
	m.Inputs = make([]textinput.Model, len(m.Names))
	for i := range m.Names {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 32
		in.Width = 16
		m.Inputs[i] = in
	}
	m.loadForm(controller.Form())
	m.Inputs[0].Focus()
	return m
}

// Init starts listening for state snapshots
func (m FormModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForState(m.states))
}

// Close stops the subscription
func (m FormModel) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// waitForState blocks until the controller publishes a new snapshot
func waitForState(ch <-chan submission.State) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		return stateMsg{state: s, ok: ok}
	}
}

// submitCmd runs one submission off the UI loop
func submitCmd(c *submission.Controller) tea.Cmd {
	return func() tea.Msg {
		_, err := c.Submit(context.Background())
		return submitDoneMsg{err: err}
	}
}

// Update handles messages and updates the model
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case stateMsg:
		if !msg.ok {
			m.states = nil
			return m, nil
		}
		wasPending := m.State.Pending()
		m.State = msg.state
		cmds := []tea.Cmd{waitForState(m.states)}
		if m.State.Pending() && !wasPending {
			cmds = append(cmds, m.Spinner.Tick)
		}
		if m.State.Phase == submission.PhaseIdle {
			// Reset from another path restores the initial form
			m.loadForm(m.Controller.Form())
		}
		return m, tea.Batch(cmds...)

	case submitDoneMsg:
		switch {
		case errors.Is(msg.err, submission.ErrPending):
			m.Notice = "A prediction is already pending"
		case msg.err != nil && !errors.Is(msg.err, submission.ErrSuperseded):
			m.Notice = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.State.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
	return m, cmd
}

func (m FormModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyRunes && isNumeric(msg.Runes) {
		return m.updateInput(msg)
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Down):
		m.setFocus(m.Focus + 1)
		return m, nil

	case key.Matches(msg, m.Keys.Up):
		m.setFocus(m.Focus - 1)
		return m, nil

	case key.Matches(msg, m.Keys.Submit):
		m.Notice = ""
		return m, submitCmd(m.Controller)

	case key.Matches(msg, m.Keys.Reset):
		m.Notice = ""
		m.Controller.Reset()
		m.loadForm(m.Controller.Form())
		return m, nil

	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		// Letters and symbols a number cannot contain
		return m, nil
	}
	return m.updateInput(msg)
}

// updateInput forwards editing keys to the focused field and copies the
// result into the controller
func (m FormModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.Inputs[m.Focus].Value()

	var cmd tea.Cmd
	m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)

	if after := m.Inputs[m.Focus].Value(); after != before {
		m.Controller.SetField(m.Names[m.Focus], after)
	}
	return m, cmd
}

func (m *FormModel) setFocus(i int) {
	n := len(m.Inputs)
	i = ((i % n) + n) % n
	m.Inputs[m.Focus].Blur()
	m.Focus = i
	m.Inputs[m.Focus].Focus()
}

func (m *FormModel) loadForm(form indicators.FormValues) {
	for i, name := range m.Names {
		m.Inputs[i].SetValue(form.Value(name))
	}
}

func isNumeric(runes []rune) bool {
	if len(runes) == 0 {
		return false
	}
	for _, r := range runes {
		if !strings.ContainsRune(numericRunes, r) {
			return false
		}
	}
	return true
}

// visibleRange returns the slice of fields that fits in rows, keeping the
// focused field in view.
func (m FormModel) visibleRange(rows int) (int, int) {
	n := len(m.Inputs)
	if rows <= 0 || rows >= n {
		return 0, n
	}
	start := m.Focus - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}

// View renders the form screen
func (m FormModel) View() string {
	return RenderApplicationContainer(m.renderContent(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m FormModel) renderContent() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Flood Prediction"))
	b.WriteString("\n")
	if m.Endpoint != "" {
		b.WriteString(RenderSubtitle("Service: " + m.Endpoint))
	}
	b.WriteString("\n\n")

	// header, subtitle, status panel, footer and borders take about 14 rows
	start, end := m.visibleRange(m.Height - 14)
	if start > 0 {
		b.WriteString(RenderSubtitle(fmt.Sprintf("  ↑ %d more", start)))
		b.WriteString("\n")
	}
	for i := start; i < end; i++ {
		b.WriteString(m.renderField(i))
		b.WriteString("\n")
	}
	if end < len(m.Inputs) {
		b.WriteString(RenderSubtitle(fmt.Sprintf("  ↓ %d more", len(m.Inputs)-end)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	if m.Notice != "" {
		b.WriteString("\n")
		b.WriteString(NoticeStyle.Render("  " + m.Notice))
	}
	return b.String()
}

func (m FormModel) renderField(i int) string {
	label := LabelStyle.Render("  " + m.Names[i])
	if i == m.Focus {
		label = FocusedLabelStyle.Render("→ " + m.Names[i])
	}

	line := label + m.Inputs[i].View()
	if _, err := indicators.ParseNumber(m.Inputs[i].Value()); err != nil {
		line += "  " + InvalidStyle.Render("✗ not a number")
	}
	return line
}

// renderStatus shows exactly one of: hint, pending, result, error
func (m FormModel) renderStatus() string {
	switch m.State.Phase {
	case submission.PhasePending:
		return PendingStyle.Render(m.Spinner.View() + " Predicting...")
	case submission.PhaseSucceeded:
		return ResultStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			"Predicted Flood Probability:",
			m.State.Display(),
		))
	case submission.PhaseFailed:
		return ErrorStyle.Render(m.State.Display())
	default:
		return RenderSubtitle("  Press enter to get a prediction")
	}
}
