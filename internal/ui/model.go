package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/mir4split/internal/archive"
	"github.com/nconklindev/mir4split/internal/config"
	"github.com/nconklindev/mir4split/internal/splitter"
	"github.com/nconklindev/mir4split/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFilePicker state = iota
	stateModeSelection
	stateProcessing
	stateComplete
	stateError
)

type Model struct {
	state        state
	filepicker   filepicker.Model
	selectedFile string
	fileData     []byte
	mode         types.Mode
	outputDir    string
	archive      *types.Archive
	savedPath    string
	err          error
	width        int
	height       int
	progress     progress.Model
	logger       *slog.Logger

	// run identifies the in-flight split; messages from older runs are dropped.
	run          int
	cancel       context.CancelFunc
	progressChan chan types.Progress
	resultChan   chan splitResultMsg
}

type splitResultMsg struct {
	run     int
	archive *types.Archive
	err     error
}

type fileLoadedMsg struct {
	path string
	data []byte
	err  error
}

type splitCompleteMsg splitResultMsg

type progressMsg struct {
	run      int
	progress types.Progress
}

type archiveSavedMsg struct {
	path string
	err  error
}

func InitialModel(cfg *config.AppConfig, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fp := filepicker.New()
	fp.AllowedTypes = []string{".xlsx", ".xls"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accentColor)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(highlightColor)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(highlightColor)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(mutedColor)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(mutedColor)

	// Initialize progress bar
	prog := progress.New(progress.WithGradient("#166534", "#4ADE80"))

	return Model{
		state:      stateFilePicker,
		filepicker: fp,
		mode:       cfg.Split.Mode,
		outputDir:  cfg.Split.OutputDir,
		progress:   prog,
		logger:     logger,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopRun()
			return m, tea.Quit
		}

		switch m.state {
		case stateFilePicker:
			if msg.String() == "q" {
				return m, tea.Quit
			}

		case stateModeSelection:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "left", "right", "tab", "h", "l":
				m.mode = toggleMode(m.mode)
			case "d":
				m.mode = types.ModeDialogue
			case "m":
				m.mode = types.ModeMaster
			case "esc":
				m.state = stateFilePicker
			case "enter":
				m.state = stateProcessing
				return m.startSplit()
			}
			return m, nil

		case stateProcessing:
			if msg.String() == "esc" {
				m.stopRun()
				m.state = stateFilePicker
				return m, nil
			}
			return m, nil

		case stateComplete:
			switch msg.String() {
			case "s":
				if m.archive.Len() > 0 && m.savedPath == "" {
					return m, m.saveArchive()
				}
			case "n":
				m.reset()
				return m, nil
			case "q", "esc":
				return m, tea.Quit
			}
			return m, nil

		case stateError:
			switch msg.String() {
			case "n":
				m.reset()
				return m, nil
			case "q", "enter", "esc":
				return m, tea.Quit
			}
			return m, nil
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.selectedFile = msg.path
		m.fileData = msg.data
		m.state = stateModeSelection
		return m, nil

	case splitCompleteMsg:
		if msg.run != m.run {
			return m, nil
		}
		m.cancel = nil
		if msg.err != nil {
			m.err = describeError(msg.err)
			m.state = stateError
			return m, nil
		}
		m.archive = msg.archive
		m.state = stateComplete
		return m, m.progress.SetPercent(1)

	case archiveSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.savedPath = msg.path
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if msg.run != m.run || m.state != stateProcessing {
			return m, nil
		}
		cmd := m.progress.SetPercent(float64(msg.progress.Percent) / 100)
		return m, tea.Batch(cmd, waitForProgress(m.run, m.progressChan, m.resultChan))
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			// A new pick supersedes any split still running.
			m.stopRun()
			return m, loadFile(path)
		}

		return m, cmd
	}

	return m, nil
}

func toggleMode(mode types.Mode) types.Mode {
	if mode == types.ModeMaster {
		return types.ModeDialogue
	}
	return types.ModeMaster
}

// stopRun cancels the in-flight split and invalidates its pending messages.
func (m *Model) stopRun() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.run++
	m.progressChan = nil
	m.resultChan = nil
}

func (m *Model) reset() {
	m.stopRun()
	m.state = stateFilePicker
	m.selectedFile = ""
	m.fileData = nil
	m.archive = nil
	m.savedPath = ""
	m.err = nil
}

func loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		return fileLoadedMsg{path: path, data: data, err: err}
	}
}

func (m Model) startSplit() (Model, tea.Cmd) {
	m.stopRun()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.progressChan = make(chan types.Progress, len(types.Languages)+1)
	m.resultChan = make(chan splitResultMsg, 1)
	m.archive = nil
	m.savedPath = ""

	run := m.run
	progressChan := m.progressChan
	resultChan := m.resultChan
	in := splitter.Input{
		Name: filepath.Base(m.selectedFile),
		Data: m.fileData,
		Mode: m.mode,
	}
	logger := m.logger.With("run", run)

	go func() {
		a, err := splitter.Split(ctx, in, splitter.Options{
			Logger: logger,
			Progress: func(p types.Progress) {
				select {
				case progressChan <- p:
				default:
				}
			},
		})
		if err != nil {
			logger.Error("split failed", "file", in.Name, "error", err)
		}

		resultChan <- splitResultMsg{run: run, archive: a, err: err}
		close(progressChan)
		close(resultChan)
	}()

	resetCmd := m.progress.SetPercent(0)
	return m, tea.Batch(waitForProgress(run, progressChan, resultChan), resetCmd)
}

func waitForProgress(run int, progressChan chan types.Progress, resultChan chan splitResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return splitCompleteMsg(res)
			}
			return nil
		}

		return progressMsg{run: run, progress: p}
	}
}

func (m Model) saveArchive() tea.Cmd {
	dir := m.outputDir
	if dir == "" {
		dir = filepath.Dir(m.selectedFile)
	}
	a := m.archive
	logger := m.logger

	return func() tea.Msg {
		path, err := archive.Save(dir, a)
		if err == nil {
			logger.Info("archive saved", "path", path, "entries", a.Len())
		}
		return archiveSavedMsg{path: path, err: err}
	}
}

func describeError(err error) error {
	var pe *splitter.ParseError
	switch {
	case errors.Is(err, splitter.ErrEmptySheet):
		return fmt.Errorf("the first sheet has no data")
	case errors.As(err, &pe):
		return fmt.Errorf("could not read the workbook, check the file: %v", pe.Err)
	}
	return err
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateModeSelection:
		return m.viewModeSelection()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🧙 MIR4 Excel Splitter"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select an XLSX workbook to split by language"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewModeSelection() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🧙 Select Split Mode"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s", filepath.Base(m.selectedFile))))
	s.WriteString("\n\n")

	for _, mode := range []types.Mode{types.ModeDialogue, types.ModeMaster} {
		line := fmt.Sprintf("( ) %s", mode.Label())
		if m.mode == mode {
			line = SelectedStyle.Render(fmt.Sprintf("(•) %s", mode.Label()))
		} else {
			line = UnselectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.mode == types.ModeMaster {
		s.WriteString(SubtitleStyle.Render("Keeps one column per language."))
	} else {
		s.WriteString(SubtitleStyle.Render("Keeps the (M) and (F) columns for each language."))
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("←/→: switch mode • enter: split • esc: back • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("⏳ Processing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Splitting %s in %s mode...", filepath.Base(m.selectedFile), m.mode.Label()))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("esc: cancel"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	if m.archive.Len() == 0 {
		s.WriteString(WarningStyle.Render("! No language columns matched"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("No %s language columns were found in %s.\n", m.mode.Label(), filepath.Base(m.selectedFile)))
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("n: new file • q: quit"))
		return BoxStyle.Render(s.String())
	}

	s.WriteString(TitleStyle.Render("✓ Split Complete!"))
	s.WriteString("\n\n")

	for _, name := range m.archive.Names() {
		s.WriteString(CheckedStyle.Render("  " + name))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if m.savedPath != "" {
		savedPath := m.savedPath
		maxPathLen := m.width - 20
		if maxPathLen < 30 {
			maxPathLen = 30
		}
		if len(savedPath) > maxPathLen {
			savedPath = "..." + savedPath[len(savedPath)-maxPathLen+3:]
		}
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Saved: %s\n", savedPath)))
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("n: new file • q: quit"))
	} else {
		s.WriteString(fmt.Sprintf("Archive: %s\n", archive.Name(m.mode)))
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("s: save zip • n: new file • q: quit"))
	}

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("n: new file • q: quit"))

	return BoxStyle.Render(s.String())
}
