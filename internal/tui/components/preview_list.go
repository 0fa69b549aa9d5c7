package components

import (
	"strings"

	"renamezip/internal/tui/styles"
	"renamezip/pkg/types"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// PreviewList shows planned renames under their group headers.
type PreviewList struct {
	viewport viewport.Model
	entries  []types.PreviewEntry
}

// NewPreviewList returns an empty list sized width by height
func NewPreviewList(width, height int) *PreviewList {
	p := &PreviewList{viewport: viewport.New(width, height)}
	p.viewport.SetContent(p.render())
	return p
}

// SetEntries replaces the content and scrolls back to the top
func (p *PreviewList) SetEntries(entries []types.PreviewEntry) {
	p.entries = entries
	p.viewport.SetContent(p.render())
	p.viewport.GotoTop()
}

// Entries returns the entries currently shown
func (p *PreviewList) Entries() []types.PreviewEntry {
	return p.entries
}

// SetSize resizes the viewport and re-renders its content
func (p *PreviewList) SetSize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = height
	p.viewport.SetContent(p.render())
}

// Update forwards scrolling input to the viewport
func (p *PreviewList) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// LineUp and LineDown scroll by n lines
func (p *PreviewList) LineUp(n int)   { p.viewport.LineUp(n) }
func (p *PreviewList) LineDown(n int) { p.viewport.LineDown(n) }

// View renders the visible part of the list
func (p *PreviewList) View() string {
	return p.viewport.View()
}

func (p *PreviewList) render() string {
	if len(p.entries) == 0 {
		return styles.Theme.Muted.Render("No files loaded")
	}

	var s strings.Builder
	group := ""
	for i, e := range p.entries {
		if i == 0 || e.Group != group {
			group = e.Group
			if i > 0 {
				s.WriteString("\n")
			}
			s.WriteString(styles.Theme.Group.Render(group+"/") + "\n")
		}
		s.WriteString("  " + e.String() + "\n")
	}
	return strings.TrimSuffix(s.String(), "\n")
}
