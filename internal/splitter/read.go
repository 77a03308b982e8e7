package splitter

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/nconklindev/mir4split/internal/types"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// cfbMagic opens every OLE compound file, which is how legacy .xls is stored.
var cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}

// ReadGrid reads every row of the first sheet of an .xlsx or .xls workbook.
func ReadGrid(r io.Reader) (types.Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	if bytes.HasPrefix(data, cfbMagic) {
		return readXLS(data)
	}
	return readXLSX(data)
}

type numFmt struct {
	id     int
	custom string
}

func readXLSX(data []byte) (types.Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	sheet := sheets[0]

	// Raw values keep full numeric precision; formats are carried separately.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	formats := make(map[int]numFmt)
	grid := make(types.Grid, len(rows))
	for i, row := range rows {
		cells := make([]types.Cell, len(row))
		for j, v := range row {
			if v == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, &ParseError{Err: err}
			}
			c, err := readCell(f, sheet, ref, v, formats)
			if err != nil {
				return nil, &ParseError{Err: err}
			}
			cells[j] = c
		}
		grid[i] = cells
	}

	return grid, nil
}

func readCell(f *excelize.File, sheet, ref, value string, formats map[int]numFmt) (types.Cell, error) {
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return types.Cell{}, err
	}

	switch typ {
	case excelize.CellTypeBool:
		return types.Cell{Value: value, Kind: types.KindBool}, nil
	case excelize.CellTypeDate:
		return types.Cell{Value: value, Kind: types.KindDate}, nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return types.Text(value), nil
		}
	default:
		return types.Text(value), nil
	}

	styleID, err := f.GetCellStyle(sheet, ref)
	if err != nil {
		return types.Cell{}, err
	}

	format, ok := formats[styleID]
	if !ok && styleID != 0 {
		style, err := f.GetStyle(styleID)
		if err != nil {
			return types.Cell{}, err
		}
		format.id = style.NumFmt
		if style.CustomNumFmt != nil {
			format.custom = *style.CustomNumFmt
		}
		formats[styleID] = format
	}

	return types.Cell{
		Value:        value,
		Kind:         types.KindNumber,
		NumFmt:       format.id,
		CustomNumFmt: format.custom,
	}, nil
}

// readXLS reads a BIFF workbook. Values come back as the display strings the
// xls reader produces.
func readXLS(data []byte) (grid types.Grid, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid, err = nil, &ParseError{Err: fmt.Errorf("xls: %v", r)}
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptySheet
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptySheet
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		var cells []types.Cell
		if row := sheet.Row(i); row != nil {
			for j := 0; j <= row.LastCol(); j++ {
				cells = append(cells, types.Text(row.Col(j)))
			}
		}
		grid = append(grid, trimCells(cells))
	}

	// Match excelize: no trailing empty rows.
	for len(grid) > 0 && len(grid[len(grid)-1]) == 0 {
		grid = grid[:len(grid)-1]
	}
	if len(grid) == 0 {
		return nil, ErrEmptySheet
	}

	return grid, nil
}

func trimCells(cells []types.Cell) []types.Cell {
	for len(cells) > 0 && cells[len(cells)-1].Value == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
