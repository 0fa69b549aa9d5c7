package views

import (
	"fmt"
	"strings"

	"renamezip/internal/tui/common"
	"renamezip/internal/tui/styles"

	"github.com/charmbracelet/bubbles/progress"
)

const maxBarWidth = 60

// RenderMainView renders the preview screen
func RenderMainView(m common.ModelReader) string {
	var sb strings.Builder

	sb.WriteString(styles.Theme.Title.Render("renamezip"))
	sb.WriteString("\n")
	sb.WriteString(renderStats(m))
	sb.WriteString("\n")
	sb.WriteString(renderProgress(m))
	sb.WriteString("\n\n")
	sb.WriteString(styles.Theme.Panel.Render(m.PreviewView()))
	sb.WriteString("\n")
	sb.WriteString(m.StatusView())
	sb.WriteString("\n")
	sb.WriteString(styles.Theme.Help.Render(m.HelpView()))

	return styles.Theme.App.Render(sb.String())
}

func renderStats(m common.ModelReader) string {
	s := m.Stats()
	line := fmt.Sprintf("%d files in %d groups", s.Files, s.Groups)
	if s.Skipped > 0 {
		line += fmt.Sprintf(", %d skipped", s.Skipped)
	}
	return styles.Theme.Muted.Render(line)
}

func renderProgress(m common.ModelReader) string {
	width := m.Width() - 30
	if width > maxBarWidth {
		width = maxBarWidth
	}
	if width < 10 {
		width = 10
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(width), progress.WithoutPercentage())
	return fmt.Sprintf("%s %5.1f%%  %s", bar.ViewAs(m.Percent()/100), m.Percent(), m.Phase())
}
