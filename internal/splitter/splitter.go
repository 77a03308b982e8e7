package splitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nconklindev/mir4split/internal/types"

	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the only sheet in every output workbook.
const SheetName = "Sheet1"

const (
	dialogueCommonCols = 8
	masterCommonCols   = 6
)

// masterExtraCols are appended to the master common columns.
var masterExtraCols = []int{13, 14}

// Input is one workbook to split.
type Input struct {
	Name string
	Data []byte
	Mode types.Mode
}

// Options tune a split run. The zero value is usable.
type Options struct {
	// Progress receives a report after every language, including languages
	// the header does not define, and a final Done report.
	Progress func(types.Progress)
	Logger   *slog.Logger
}

// Split produces one workbook per language that the header defines.
// A cancelled ctx stops the run at the next language boundary and no
// archive is returned.
func Split(ctx context.Context, in Input, opts Options) (*types.Archive, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	grid, err := ReadGrid(bytes.NewReader(in.Data))
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Name = in.Name
		}
		return nil, err
	}

	header := grid.Header()
	archive := &types.Archive{Source: in.Name, Mode: in.Mode}
	total := len(types.Languages)

	for i, lang := range types.Languages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		selection, ok := Selection(in.Mode, header, lang)
		if ok {
			projected := Project(grid, selection)
			data, err := BuildWorkbook(projected)
			if err != nil {
				return nil, fmt.Errorf("build %s workbook: %w", lang, err)
			}

			name := OutputFilename(in.Name, in.Mode, lang)
			archive.Entries = append(archive.Entries, types.Entry{
				Name:     name,
				Language: lang,
				Data:     data,
				Rows:     len(projected),
				Columns:  len(selection),
			})
			logger.Debug("language split", "lang", lang, "file", name, "rows", len(projected))
		} else {
			logger.Debug("language columns not found, skipping", "lang", lang, "mode", in.Mode)
		}

		reportProgress(opts.Progress, types.Progress{
			Percent: int(math.Round(100 * float64(i+1) / float64(total))),
		})
	}

	reportProgress(opts.Progress, types.Progress{Percent: 100, Done: true})
	logger.Info("split complete", "source", in.Name, "mode", in.Mode, "outputs", archive.Len())

	return archive, nil
}

// SplitFile reads path and splits it.
func SplitFile(ctx context.Context, path string, mode types.Mode, opts Options) (*types.Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Split(ctx, Input{Name: filepath.Base(path), Data: data, Mode: mode}, opts)
}

func reportProgress(progress func(types.Progress), p types.Progress) {
	if progress == nil {
		return
	}
	progress(p)
}

// CommonColumns returns the positional columns kept for every language.
func CommonColumns(mode types.Mode, headerLen int) []int {
	var cols []int
	switch mode {
	case types.ModeMaster:
		for i := 0; i < masterCommonCols; i++ {
			cols = append(cols, i)
		}
		cols = append(cols, masterExtraCols...)
	default:
		for i := 0; i < dialogueCommonCols; i++ {
			cols = append(cols, i)
		}
		cols = append(cols, headerLen-1)
	}
	return cols
}

// LanguageColumns looks up the header columns for lang. It reports false
// when any required column is missing.
func LanguageColumns(mode types.Mode, header []string, lang types.Language) ([]int, bool) {
	var names []string
	switch mode {
	case types.ModeMaster:
		names = []string{string(lang)}
	default:
		names = []string{string(lang) + " (M)", string(lang) + " (F)"}
	}

	cols := make([]int, 0, len(names))
	for _, name := range names {
		idx := indexOf(header, name)
		if idx == -1 {
			return nil, false
		}
		cols = append(cols, idx)
	}
	return cols, true
}

// Selection is the common columns followed by the language columns.
func Selection(mode types.Mode, header []string, lang types.Language) ([]int, bool) {
	langCols, ok := LanguageColumns(mode, header, lang)
	if !ok {
		return nil, false
	}
	return append(CommonColumns(mode, len(header)), langCols...), true
}

// Cell returns row[idx], or an empty string cell when idx is out of range.
func Cell(row []types.Cell, idx int) types.Cell {
	if idx < 0 || idx >= len(row) {
		return types.Cell{}
	}
	return row[idx]
}

// Project slices every row of grid through selection, header included.
func Project(grid types.Grid, selection []int) types.Grid {
	out := make(types.Grid, len(grid))
	for i, row := range grid {
		projected := make([]types.Cell, len(selection))
		for j, idx := range selection {
			projected[j] = Cell(row, idx)
		}
		out[i] = projected
	}
	return out
}

// BuildWorkbook serializes grid as a single-sheet xlsx. Numbers, booleans
// and dates are written with their stored type.
func BuildWorkbook(grid types.Grid) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	w := &sheetWriter{f: f, styles: make(map[types.Cell]int)}
	for i, row := range grid {
		for j, c := range row {
			if c.Kind == types.KindString && c.Value == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			if err := w.write(ref, c); err != nil {
				return nil, fmt.Errorf("write %s: %w", ref, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var isoLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

type sheetWriter struct {
	f *excelize.File
	// styles is keyed by a cell holding only the number format fields.
	styles map[types.Cell]int
}

func (w *sheetWriter) write(ref string, c types.Cell) error {
	switch c.Kind {
	case types.KindNumber:
		if err := w.f.SetCellDefault(SheetName, ref, c.Value); err != nil {
			return err
		}
		return w.applyNumFmt(ref, c)
	case types.KindBool:
		return w.f.SetCellBool(SheetName, ref, c.Value == "1" || strings.EqualFold(c.Value, "true"))
	case types.KindDate:
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, c.Value); err == nil {
				return w.f.SetCellValue(SheetName, ref, t)
			}
		}
	}
	return w.f.SetCellStr(SheetName, ref, c.Value)
}

func (w *sheetWriter) applyNumFmt(ref string, c types.Cell) error {
	if c.NumFmt == 0 && c.CustomNumFmt == "" {
		return nil
	}

	key := types.Cell{NumFmt: c.NumFmt, CustomNumFmt: c.CustomNumFmt}
	id, ok := w.styles[key]
	if !ok {
		style := &excelize.Style{NumFmt: c.NumFmt}
		if c.CustomNumFmt != "" {
			code := c.CustomNumFmt
			style.CustomNumFmt = &code
		}
		var err error
		if id, err = w.f.NewStyle(style); err != nil {
			return err
		}
		w.styles[key] = id
	}
	return w.f.SetCellStyle(SheetName, ref, ref, id)
}

// Prefix is the base name up to its first "." and then up to its first "_".
func Prefix(name string) string {
	base := filepath.Base(name)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	if i := strings.Index(base, "_"); i >= 0 {
		base = base[:i]
	}
	return base
}

// OutputFilename builds "<prefix>_<suffix>_<lang>.xlsx".
func OutputFilename(name string, mode types.Mode, lang types.Language) string {
	return fmt.Sprintf("%s_%s_%s.xlsx", Prefix(name), mode.Suffix(), lang.FileToken())
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
