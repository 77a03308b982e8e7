package main

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/mir4split/internal/splitter"
	"github.com/nconklindev/mir4split/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeWorkbook(t *testing.T, dir, name string, grid types.Grid) string {
	t.Helper()
	data, err := splitter.BuildWorkbook(grid)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestRunSplit_Master(t *testing.T) {
	dir := t.TempDir()
	header := []string{"ID", "Key", "Cat", "Ctx", "Note", "Len", "", "", "", "", "", "", "", "Status", "Owner", "EN", "PT-BR"}
	input := writeWorkbook(t, dir, "STR_2024.xlsx", types.TextGrid([][]string{header}))

	outDir := filepath.Join(dir, "out")
	var out bytes.Buffer
	err := runSplit(context.Background(), splitOptions{input: input, mode: types.ModeMaster, outDir: outDir, unpacked: true}, &out, discard)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "STR_MIR4_MASTER_STRING_EN.xlsx")
	assert.Contains(t, out.String(), "STR_MIR4_MASTER_STRING_PTBR.xlsx")

	zr, err := zip.OpenReader(filepath.Join(outDir, "MIR4_Master_Split.zip"))
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "STR_MIR4_MASTER_STRING_EN.xlsx", zr.File[0].Name)

	_, err = os.Stat(filepath.Join(outDir, "STR_MIR4_MASTER_STRING_PTBR.xlsx"))
	assert.NoError(t, err)
}

func TestRunSplit_NoMatches(t *testing.T) {
	dir := t.TempDir()
	input := writeWorkbook(t, dir, "X.xlsx", types.TextGrid([][]string{{"ID", "KO"}}))

	var out bytes.Buffer
	err := runSplit(context.Background(), splitOptions{input: input, mode: types.ModeDialogue, outDir: dir}, &out, discard)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No Dialogue language columns matched")

	_, err = os.Stat(filepath.Join(dir, "MIR4_Dialogue_Split.zip"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunSplit_XLS(t *testing.T) {
	outDir := t.TempDir()

	var out bytes.Buffer
	err := runSplit(context.Background(), splitOptions{input: filepath.Join("internal", "splitter", "testdata", "DLG_legacy.xls"), mode: types.ModeDialogue, outDir: outDir}, &out, discard)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "DLG_MIR4_MASTER_DIALOGUE_EN.xlsx")
	assert.Contains(t, out.String(), "(1 languages)")

	_, err = os.Stat(filepath.Join(outDir, "MIR4_Dialogue_Split.zip"))
	assert.NoError(t, err)
}

func TestRunSplit_Errors(t *testing.T) {
	dir := t.TempDir()

	err := runSplit(context.Background(), splitOptions{input: filepath.Join(dir, "missing.xlsx"), mode: types.ModeMaster, outDir: dir}, io.Discard, discard)
	assert.ErrorContains(t, err, "file not found")

	bad := filepath.Join(dir, "bad.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("not a workbook"), 0644))
	err = runSplit(context.Background(), splitOptions{input: bad, mode: types.ModeMaster, outDir: dir}, io.Discard, discard)
	var pe *splitter.ParseError
	assert.True(t, errors.As(err, &pe))

	empty := writeWorkbook(t, dir, "empty.xlsx", nil)
	err = runSplit(context.Background(), splitOptions{input: empty, mode: types.ModeMaster, outDir: dir}, io.Discard, discard)
	assert.ErrorIs(t, err, splitter.ErrEmptySheet)
}
