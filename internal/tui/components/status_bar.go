package components

import (
	"renamezip/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusBar shows one line of status with an optional spinner.
type StatusBar struct {
	text    string
	style   lipgloss.Style
	spinner spinner.Model
	loading bool
}

// NewStatusBar returns an empty, idle status bar
func NewStatusBar() *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Theme.Help

	return &StatusBar{
		style:   styles.Theme.Help,
		spinner: s,
	}
}

// Tick starts the spinner
func (s *StatusBar) Tick() tea.Cmd {
	return s.spinner.Tick
}

// SetLoading toggles the spinner
func (s *StatusBar) SetLoading(loading bool) {
	s.loading = loading
}

// Loading reports whether the spinner is shown
func (s *StatusBar) Loading() bool {
	return s.loading
}

// SetText shows an informational message
func (s *StatusBar) SetText(text string) {
	s.text = text
	s.style = styles.Theme.Help
}

// SetError shows err in the error style
func (s *StatusBar) SetError(err error) {
	s.text = err.Error()
	s.style = styles.Theme.Error
}

// SetSuccess shows text in the success style
func (s *StatusBar) SetSuccess(text string) {
	s.text = text
	s.style = styles.Theme.Success
}

// Text returns the current message
func (s *StatusBar) Text() string {
	return s.text
}

// Update advances the spinner
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// View renders the message, prefixed by the spinner while loading
func (s *StatusBar) View() string {
	if s.text == "" && !s.loading {
		return ""
	}

	if s.loading {
		return s.style.Render(s.spinner.View() + " " + s.text)
	}
	return s.style.Render(s.text)
}
