package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Ahlyab/flood-prediction/internal/discovery"
	"github.com/Ahlyab/flood-prediction/internal/submission"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenDiscovery Screen = "discovery"
	ScreenForm      Screen = "form"
)

// ConnectFunc builds a controller for a service picked on the discovery
// screen, and returns the endpoint to show.
type ConnectFunc func(svc *discovery.Service) (*submission.Controller, string)

// Options configures the terminal application
type Options struct {
	// Controller drives the form when discovery is off
	Controller *submission.Controller
	// Endpoint is shown under the form title
	Endpoint string

	// Discover starts on the discovery screen
	Discover bool
	Scanner  *discovery.Scanner
	Connect  ConnectFunc
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen Screen

	DiscoveryModel DiscoveryModel
	FormModel      FormModel

	SelectedService *discovery.Service
	connect         ConnectFunc

	// UI state
	Width  int
	Height int
}

// NewAppModel creates the application model
func NewAppModel(opts Options) AppModel {
	m := AppModel{connect: opts.Connect}

	if opts.Discover && opts.Connect != nil {
		m.CurrentScreen = ScreenDiscovery
		m.DiscoveryModel = NewDiscoveryModel(opts.Scanner)
		return m
	}

	m.CurrentScreen = ScreenForm
	m.FormModel = NewFormModel(opts.Controller, opts.Endpoint)
	return m
}

// Init initializes the current screen
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.Init()
	case ScreenForm:
		return m.FormModel.Init()
	default:
		return nil
	}
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		switch m.CurrentScreen {
		case ScreenDiscovery:
			d, _ := m.DiscoveryModel.Update(msg)
			m.DiscoveryModel = d.(DiscoveryModel)
		case ScreenForm:
			f, _ := m.FormModel.Update(msg)
			m.FormModel = f.(FormModel)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.CurrentScreen == ScreenForm {
				m.FormModel.Close()
			}
			return m, tea.Quit
		}
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.DiscoveryModel.ManualMode {
			if keyMsg.String() == "q" || keyMsg.String() == "esc" {
				return m, tea.Quit
			}
		}

		updated, cmd := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)

		if svc := m.DiscoveryModel.Selected; svc != nil {
			return m.connectTo(svc)
		}
		return m, cmd

	case ScreenForm:
		updated, cmd := m.FormModel.Update(msg)
		m.FormModel = updated.(FormModel)
		return m, cmd
	}

	return m, nil
}

// connectTo switches to the form for svc
func (m AppModel) connectTo(svc *discovery.Service) (tea.Model, tea.Cmd) {
	m.SelectedService = svc
	controller, endpoint := m.connect(svc)

	m.CurrentScreen = ScreenForm
	m.FormModel = NewFormModel(controller, endpoint)
	m.FormModel.Width = m.Width
	m.FormModel.Height = m.Height
	m.FormModel.Help.Width = m.Width
	return m, m.FormModel.Init()
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	case ScreenForm:
		return m.FormModel.View()
	default:
		return "Unknown screen"
	}
}

// Run starts the terminal application and blocks until the user quits
func Run(opts Options) error {
	p := tea.NewProgram(NewAppModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
