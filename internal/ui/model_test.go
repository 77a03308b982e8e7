package ui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/mir4split/internal/config"
	"github.com/nconklindev/mir4split/internal/splitter"
	"github.com/nconklindev/mir4split/internal/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func loadedModel(t *testing.T, grid types.Grid) Model {
	t.Helper()

	data, err := splitter.BuildWorkbook(grid)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Split.OutputDir = t.TempDir()

	m := InitialModel(cfg, nil)
	m, _ = update(t, m, fileLoadedMsg{path: filepath.Join("in", "ABC_v2.xlsx"), data: data})
	return m
}

// drain feeds the in-flight run's messages back into the model until it
// leaves the processing state.
func drain(t *testing.T, m Model) Model {
	t.Helper()
	for i := 0; i < 20 && m.state == stateProcessing; i++ {
		msg := waitForProgress(m.run, m.progressChan, m.resultChan)()
		require.NotNil(t, msg)
		m, _ = update(t, m, msg)
	}
	return m
}

var testGrid = types.TextGrid([][]string{
	{"ID", "Group", "Speaker", "Key", "Scene", "Note", "Voice", "Length", "EN (M)", "EN (F)", "Memo"},
	{"1", "g", "s", "k", "sc", "n", "v", "3", "he", "she", "m"},
})

func TestFileLoaded(t *testing.T) {
	m := loadedModel(t, testGrid)
	assert.Equal(t, stateModeSelection, m.state)
	assert.Equal(t, types.ModeDialogue, m.mode)
	assert.Contains(t, m.View(), "ABC_v2.xlsx")

	m = InitialModel(config.DefaultConfig(), nil)
	m, _ = update(t, m, fileLoadedMsg{err: os.ErrNotExist})
	assert.Equal(t, stateError, m.state)
}

func TestModeSelection(t *testing.T) {
	m := loadedModel(t, testGrid)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, types.ModeMaster, m.mode)
	assert.Contains(t, m.View(), "one column per language")

	m, _ = update(t, m, runes("d"))
	assert.Equal(t, types.ModeDialogue, m.mode)

	m, _ = update(t, m, runes("m"))
	assert.Equal(t, types.ModeMaster, m.mode)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateFilePicker, m.state)
}

func TestSplitAndSave(t *testing.T) {
	m := loadedModel(t, testGrid)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, stateProcessing, m.state)

	m = drain(t, m)
	require.Equal(t, stateComplete, m.state)
	assert.Equal(t, []string{"ABC_MIR4_MASTER_DIALOGUE_EN.xlsx"}, m.archive.Names())
	assert.Contains(t, m.View(), "ABC_MIR4_MASTER_DIALOGUE_EN.xlsx")

	m, cmd = update(t, m, runes("s"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	require.NotEmpty(t, m.savedPath)
	assert.Equal(t, "MIR4_Dialogue_Split.zip", filepath.Base(m.savedPath))
	_, err := os.Stat(m.savedPath)
	assert.NoError(t, err)
	assert.Contains(t, m.View(), "Saved:")
}

func TestNoLanguagesMatched(t *testing.T) {
	m := loadedModel(t, types.TextGrid([][]string{{"ID", "KO"}, {"1", "x"}}))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m)

	require.Equal(t, stateComplete, m.state)
	assert.Equal(t, 0, m.archive.Len())
	assert.Contains(t, m.View(), "No language columns matched")

	m, cmd := update(t, m, runes("s"))
	assert.Nil(t, cmd)
	assert.Empty(t, m.savedPath)
}

func TestCancelDropsStaleRun(t *testing.T) {
	m := loadedModel(t, testGrid)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	staleRun := m.run

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, stateFilePicker, m.state)
	assert.NotEqual(t, staleRun, m.run)
	assert.Nil(t, m.cancel)

	m, _ = update(t, m, splitCompleteMsg{run: staleRun, archive: &types.Archive{}})
	assert.Equal(t, stateFilePicker, m.state)
	assert.Nil(t, m.archive)

	m, _ = update(t, m, progressMsg{run: staleRun, progress: types.Progress{Percent: 50}})
	assert.Equal(t, stateFilePicker, m.state)
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Empty sheet", splitter.ErrEmptySheet, "no data"},
		{"Parse error", &splitter.ParseError{Name: "x.xls", Err: errors.New("zip: not a valid zip file")}, "could not read the workbook"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loadedModel(t, testGrid)
			m.state = stateProcessing

			m, _ = update(t, m, splitCompleteMsg{run: m.run, err: tt.err})
			assert.Equal(t, stateError, m.state)
			assert.Contains(t, m.View(), tt.expected)

			m, _ = update(t, m, runes("n"))
			assert.Equal(t, stateFilePicker, m.state)
			assert.Nil(t, m.err)
		})
	}
}
