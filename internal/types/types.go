package types

import (
	"fmt"
	"strings"
)

// Mode selects which columns survive into each language workbook.
type Mode string

const (
	// ModeDialogue keeps two gendered columns per language.
	ModeDialogue Mode = "dialogue"
	// ModeMaster keeps a single column per language.
	ModeMaster Mode = "master"
)

// ParseMode accepts "dialogue" or "master" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDialogue:
		return ModeDialogue, nil
	case ModeMaster:
		return ModeMaster, nil
	}
	return "", fmt.Errorf("invalid mode: %s (must be dialogue or master)", s)
}

// Label is the capitalized mode name used in archive names and the UI.
func (m Mode) Label() string {
	if m == ModeMaster {
		return "Master"
	}
	return "Dialogue"
}

// Suffix is the file name token placed between the prefix and the language.
func (m Mode) Suffix() string {
	if m == ModeMaster {
		return "MIR4_MASTER_STRING"
	}
	return "MIR4_MASTER_DIALOGUE"
}

// Language is a localization column code such as "EN" or "ES-LATAM".
type Language string

// Languages is the fixed processing order.
var Languages = []Language{"EN", "CT", "CS", "JA", "TH", "ES-LATAM", "PT-BR"}

// FileToken is the language code with hyphens removed.
func (l Language) FileToken() string {
	return strings.ReplaceAll(string(l), "-", "")
}

// CellKind is the stored type of a cell value.
type CellKind int

const (
	KindString CellKind = iota
	KindNumber
	KindBool
	// KindDate is an ISO 8601 date cell; dates stored as serial numbers are
	// KindNumber with a date NumFmt.
	KindDate
)

// Cell is one raw cell value. Number cells keep the number format of the
// source cell so dates and percentages survive the split.
type Cell struct {
	Value        string
	Kind         CellKind
	NumFmt       int
	CustomNumFmt string
}

// Text is a string cell.
func Text(v string) Cell {
	return Cell{Value: v}
}

// Grid is a row-major sheet. Rows may be shorter than the header.
type Grid [][]Cell

// TextGrid builds a grid of string cells.
func TextGrid(rows [][]string) Grid {
	g := make(Grid, len(rows))
	for i, row := range rows {
		g[i] = make([]Cell, len(row))
		for j, v := range row {
			g[i][j] = Text(v)
		}
	}
	return g
}

// Header returns the values of row 0.
func (g Grid) Header() []string {
	if len(g) == 0 {
		return nil
	}
	return RowValues(g[0])
}

// Values returns every cell value, dropping kinds and formats.
func (g Grid) Values() [][]string {
	out := make([][]string, len(g))
	for i, row := range g {
		out[i] = RowValues(row)
	}
	return out
}

// RowValues returns the values of one row.
func RowValues(row []Cell) []string {
	values := make([]string, len(row))
	for i, c := range row {
		values[i] = c.Value
	}
	return values
}

// Entry is one language workbook in an archive.
type Entry struct {
	Name     string
	Language Language
	Data     []byte
	Rows     int
	Columns  int
}

// Archive holds the workbooks produced by one split run, in language order.
type Archive struct {
	Source  string
	Mode    Mode
	Entries []Entry
}

// Len is the number of workbooks; a nil archive has none.
func (a *Archive) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Entries)
}

// Names lists the file names in language order.
func (a *Archive) Names() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Entries))
	for _, e := range a.Entries {
		names = append(names, e.Name)
	}
	return names
}

// Get returns the workbook bytes stored under name.
func (a *Archive) Get(name string) ([]byte, bool) {
	if a == nil {
		return nil, false
	}
	for _, e := range a.Entries {
		if e.Name == name {
			return e.Data, true
		}
	}
	return nil, false
}

// Progress is reported after each language iteration and once at the end.
type Progress struct {
	Percent int
	Done    bool
}
