package tui

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Ahlyab/flood-prediction/internal/discovery"
)

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	services []*discovery.Service
	err      error
}

// discoveryKeyMap defines key bindings for the discovery screen
type discoveryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualModeKeyMap defines key bindings for manual URL entry
type manualModeKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (m manualModeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{m.Confirm, m.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (m manualModeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.Confirm, m.Cancel}}
}

// serviceItem wraps a Service for use with bubbles/list
type serviceItem struct {
	service *discovery.Service
}

func (s serviceItem) FilterValue() string {
	return s.service.Instance + " " + s.service.IP
}

func (s serviceItem) Title() string {
	return s.service.Instance
}

func (s serviceItem) Description() string {
	model := s.service.GetMetadata("version")
	if model == "" {
		model = "unknown"
	}
	return fmt.Sprintf("%s • model %s", s.service.BaseURL(), model)
}

// serviceDelegate renders one service per two lines
type serviceDelegate struct{}

func (d serviceDelegate) Height() int { return 2 }

func (d serviceDelegate) Spacing() int { return 1 }

func (d serviceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d serviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	si, ok := item.(serviceItem)
	if !ok {
		return
	}

	title := "  " + si.Title()
	if index == m.Index() {
		title = SelectedMenuItemStyle.Render("→ " + si.Title())
	}
	desc := lipgloss.NewStyle().Foreground(SubtleColor).PaddingLeft(4).Render(si.Description())
	fmt.Fprint(w, title+"\n"+desc)
}

// DiscoveryModel lets the user pick a prediction service found over mDNS
// or type a base URL.
type DiscoveryModel struct {
	Scanner *discovery.Scanner

	Scanning bool
	List     list.Model
	Selected *discovery.Service
	Err      error

	ManualMode bool
	URLInput   textinput.Model
	ManualErr  string

	// UI state
	Width         int
	Height        int
	Spinner       spinner.Model
	ScanStartTime time.Time
	Help          help.Model
	Keys          discoveryKeyMap
	ManualKeys    manualModeKeyMap
}

// NewDiscoveryModel creates the discovery screen
func NewDiscoveryModel(scanner *discovery.Scanner) DiscoveryModel {
	if scanner == nil {
		scanner = discovery.NewScanner()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	urlInput := textinput.New()
	urlInput.Placeholder = "http://127.0.0.1:8000"
	urlInput.CharLimit = 256
	urlInput.Width = 40

	l := list.New([]list.Item{}, serviceDelegate{}, 0, 0)
	l.Title = "Prediction services"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = TitleStyle

	return DiscoveryModel{
		Scanner:  scanner,
		List:     l,
		URLInput: urlInput,
		Spinner:  s,
		Help:     help.New(),
		Keys: discoveryKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "use service")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter URL")),
			Quit:   key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "quit")),
		},
		ManualKeys: manualModeKeyMap{
			Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
			Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		},
	}
}

// Init starts the first scan
func (m DiscoveryModel) Init() tea.Cmd {
	return m.startScan()
}

func (m DiscoveryModel) startScan() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		scanServices(m.Scanner),
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetWidth(msg.Width - 4)
		m.List.SetHeight(msg.Height - 10)
		return m, nil

	case scanStartMsg:
		m.Scanning = true
		m.ScanStartTime = time.Now()
		return m, nil

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.services))
		for i, svc := range msg.services {
			items[i] = serviceItem{service: svc}
		}
		cmd = m.List.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m DiscoveryModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Enter):
		if item, ok := m.List.SelectedItem().(serviceItem); ok {
			m.Selected = item.service
		}
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		if m.Scanning {
			return m, nil
		}
		m.Err = nil
		return m, tea.Batch(m.List.SetItems(nil), m.startScan())

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.ManualErr = ""
		m.URLInput.SetValue("")
		return m, m.URLInput.Focus()
	}

	if m.Scanning {
		return m, nil
	}
	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

func (m DiscoveryModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ManualKeys.Cancel):
		m.ManualMode = false
		m.URLInput.Blur()
		return m, nil

	case key.Matches(msg, m.ManualKeys.Confirm):
		svc, err := manualService(m.URLInput.Value())
		if err != nil {
			m.ManualErr = err.Error()
			return m, nil
		}
		m.ManualMode = false
		m.URLInput.Blur()
		m.Selected = svc
		return m, nil
	}

	var cmd tea.Cmd
	m.URLInput, cmd = m.URLInput.Update(msg)
	return m, cmd
}

// manualService turns a typed base URL into a Service
func manualService(raw string) (*discovery.Service, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("enter a URL such as http://127.0.0.1:8000")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid URL %q", raw)
	}

	port := discovery.DefaultPort
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("invalid port %q", p)
		}
		port = n
	}
	metadata := map[string]string{}
	if u.Path != "" && u.Path != "/" {
		metadata["path"] = u.Path
	}

	return &discovery.Service{
		Instance:     "manual",
		Hostname:     u.Hostname(),
		IP:           u.Hostname(),
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}, nil
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	var content, helpText string
	switch {
	case m.ManualMode:
		content = m.renderManualEntry()
		helpText = m.Help.View(m.ManualKeys)
	case m.Scanning:
		content = m.renderScanning()
		helpText = m.Help.View(m.Keys)
	default:
		content = m.renderResults()
		helpText = m.Help.View(m.Keys)
	}
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

func (m DiscoveryModel) renderScanning() string {
	elapsed := time.Since(m.ScanStartTime).Round(time.Second)
	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR PREDICTION SERVICES"),
		"",
		RenderSubtitle(fmt.Sprintf("  Listening for %s announcements... (%s)", m.Scanner.ServiceType, elapsed)),
	)
}

func (m DiscoveryModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(ErrorStyle.Render("✗ Scan failed: " + m.Err.Error()))
		b.WriteString("\n\n")
		b.WriteString(discoveryHints)
	case len(m.List.Items()) == 0:
		b.WriteString(NoticeStyle.Render("  ⚠ No prediction services found on your network"))
		b.WriteString("\n\n")
		b.WriteString(discoveryHints)
	default:
		b.WriteString(m.List.View())
	}
	return b.String()
}

const discoveryHints = `  Troubleshooting:
    • Ensure the service advertises _floodpredict._tcp
    • Check that multicast (UDP 5353) is allowed
    • Press m to enter the service URL by hand
`

func (m DiscoveryModel) renderManualEntry() string {
	var b strings.Builder
	b.WriteString(RenderSubtitle("Enter the prediction service URL"))
	b.WriteString("\n\n  URL: ")
	b.WriteString(m.URLInput.View())
	b.WriteString("\n")
	if m.ManualErr != "" {
		b.WriteString("\n")
		b.WriteString(InvalidStyle.Render("  " + m.ManualErr))
		b.WriteString("\n")
	}
	return b.String()
}

// scanServices is a command that performs service discovery
func scanServices(scanner *discovery.Scanner) tea.Cmd {
	return func() tea.Msg {
		services, err := scanner.Scan(context.Background())
		return scanCompleteMsg{services: services, err: err}
	}
}
