// Package tui is the interactive preview screen: it shows the planned
// renames, the pipeline progress, and packages on demand.
package tui

import (
	"context"
	"fmt"

	"renamezip/internal/archive"
	"renamezip/internal/errors"
	"renamezip/internal/pipeline"
	"renamezip/internal/tui/common"
	"renamezip/internal/tui/components"
	"renamezip/internal/tui/messages"
	"renamezip/internal/tui/views"
	"renamezip/pkg/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// Options configures the screen
type Options struct {
	Sources     func() (pipeline.Sources, error)
	MappingFile string
	Output      string // archive destination
}

type Model struct {
	orch *pipeline.Orchestrator
	opts Options
	ctx  context.Context

	keys    KeyMap
	help    help.Model
	preview *components.PreviewList
	status  *components.StatusBar
	updates chan types.ProgressUpdate

	phase   types.Phase
	percent float64
	stats   common.Stats
	width   int
	height  int
}

// New creates the screen for orch. Progress checkpoints of orch are
// forwarded to the screen while it runs.
func New(ctx context.Context, orch *pipeline.Orchestrator, opts Options) *Model {
	m := &Model{
		orch:    orch,
		opts:    opts,
		ctx:     ctx,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		preview: components.NewPreviewList(80, 15),
		status:  components.NewStatusBar(),
		updates: make(chan types.ProgressUpdate, 256),
		width:   80,
	}
	orch.OnProgress(m.forward)
	return m
}

// forward must not block the pipeline; the screen re-reads the final
// state when an operation completes.
func (m *Model) forward(u types.ProgressUpdate) {
	select {
	case m.updates <- u:
	default:
	}
}

func waitForProgress(ch <-chan types.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		return messages.ProgressMsg{Update: <-ch}
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.Load(), waitForProgress(m.updates), m.status.Tick())
}

// Load collects the inputs, then applies the mapping file if one is set.
func (m *Model) Load() tea.Cmd {
	m.status.SetLoading(true)
	m.status.SetText("Collecting files...")

	orch, opts, ctx := m.orch, m.opts, m.ctx
	return func() tea.Msg {
		if opts.Sources == nil {
			return messages.LoadedMsg{Err: errors.NewOperationError("no inputs configured")}
		}
		src, err := opts.Sources()
		if err != nil {
			return messages.LoadedMsg{Err: err}
		}
		report, err := orch.LoadFiles(ctx, src)
		if err != nil {
			return messages.LoadedMsg{Report: report, Err: err}
		}
		var mappingErr error
		if opts.MappingFile != "" {
			mappingErr = orch.LoadMappingFile(ctx, opts.MappingFile)
		}
		return messages.LoadedMsg{Report: report, MappingErr: mappingErr}
	}
}

// ReloadMapping re-reads the mapping file
func (m *Model) ReloadMapping() tea.Cmd {
	if m.opts.MappingFile == "" {
		m.status.SetText("No mapping file configured")
		return nil
	}
	orch, path, ctx := m.orch, m.opts.MappingFile, m.ctx
	return func() tea.Msg {
		return messages.MappingMsg{Err: orch.LoadMappingFile(ctx, path)}
	}
}

// Package writes the archive to the output path
func (m *Model) Package() tea.Cmd {
	if !m.orch.CanPackage() {
		m.status.SetText("Nothing to package")
		return nil
	}
	m.status.SetLoading(true)
	m.status.SetText("Packaging...")

	orch, out, ctx := m.orch, m.opts.Output, m.ctx
	if out == "" {
		out = archive.DefaultName
	}
	return func() tea.Msg {
		blob, err := orch.Package(ctx)
		if err != nil {
			return messages.PackagedMsg{Err: err}
		}
		if blob == nil {
			return messages.PackagedMsg{Err: errors.ErrEmptyFileSet}
		}
		if err := archive.Save(blob, out); err != nil {
			return messages.PackagedMsg{Err: err}
		}
		return messages.PackagedMsg{Blob: blob, Path: out}
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.preview.SetSize(msg.Width-8, max(3, msg.Height-14))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case messages.ProgressMsg:
		m.phase = msg.Update.Phase
		m.percent = msg.Update.Percent
		return m, waitForProgress(m.updates)

	case messages.LoadedMsg:
		m.status.SetLoading(false)
		m.sync()
		switch {
		case msg.Err != nil:
			m.status.SetError(msg.Err)
		case msg.MappingErr != nil:
			m.status.SetError(fmt.Errorf("mapping ignored: %w", msg.MappingErr))
		default:
			m.stats.Skipped = msg.Report.Skipped
			m.status.SetText(fmt.Sprintf("Loaded %d files", msg.Report.Files))
		}
		return m, nil

	case messages.MappingMsg:
		m.sync()
		if msg.Err != nil {
			m.status.SetError(fmt.Errorf("mapping ignored: %w", msg.Err))
		} else {
			m.status.SetText("Mapping reloaded")
		}
		return m, nil

	case messages.PackagedMsg:
		m.status.SetLoading(false)
		m.sync()
		if msg.Err != nil {
			m.status.SetError(msg.Err)
		} else {
			m.status.SetSuccess(fmt.Sprintf("Saved %s (%d files, %s)",
				msg.Path, msg.Blob.Entries, humanize.Bytes(uint64(msg.Blob.Size()))))
		}
		return m, nil
	}

	return m, m.status.Update(msg)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Package):
		if m.status.Loading() {
			return m, nil
		}
		return m, m.Package()
	case key.Matches(msg, m.keys.Reload):
		if m.status.Loading() {
			return m, nil
		}
		return m, m.Load()
	case key.Matches(msg, m.keys.Mapping):
		return m, m.ReloadMapping()
	case key.Matches(msg, m.keys.ScrollUp):
		m.preview.LineUp(1)
	case key.Matches(msg, m.keys.ScrollDown):
		m.preview.LineDown(1)
	default:
		// page keys and mouse wheel
		return m, m.preview.Update(msg)
	}
	return m, nil
}

// sync copies the orchestrator state into the screen.
func (m *Model) sync() {
	m.phase = m.orch.Phase()
	m.percent = m.orch.Progress()
	m.preview.SetEntries(m.orch.LastPreview())
	m.stats.Files = len(m.orch.Files())
	m.stats.Groups = len(m.orch.Groups())
}

// View implements tea.Model
func (m *Model) View() string {
	return views.RenderMainView(m)
}

func (m *Model) Phase() types.Phase            { return m.phase }
func (m *Model) Percent() float64              { return m.percent }
func (m *Model) Stats() common.Stats           { return m.stats }
func (m *Model) Width() int                    { return m.width }
func (m *Model) PreviewView() string           { return m.preview.View() }
func (m *Model) StatusView() string            { return m.status.View() }
func (m *Model) HelpView() string              { return m.help.View(m.keys) }
func (m *Model) Status() string                { return m.status.Text() }
func (m *Model) Entries() []types.PreviewEntry { return m.preview.Entries() }
