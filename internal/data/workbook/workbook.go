package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
	"github.com/penwyp/go-milestone-board/internal/metrics"
	"github.com/penwyp/go-milestone-board/internal/util"
	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when a category has no sheet in the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// Workbook loads category sheets from a spreadsheet file and rewrites them
// one at a time. It assumes a single writing process.
type Workbook struct {
	path       string
	schema     model.Schema
	categories []string

	mu              sync.Mutex
	lastFingerprint string
}

// New creates a workbook gateway for the file at path.
func New(path string, schema model.Schema, categories []string) *Workbook {
	return &Workbook{
		path:       path,
		schema:     schema,
		categories: categories,
	}
}

// Path returns the backing file path.
func (w *Workbook) Path() string {
	return w.path
}

// Load reads every category sheet.
func (w *Workbook) Load(ctx context.Context) (map[string]*model.Table, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", w.path, err)
	}
	defer f.Close()

	tables := make(map[string]*model.Table, len(w.categories))
	for _, category := range w.categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := w.readSheet(f, category)
		if err != nil {
			return nil, err
		}
		tables[category] = table
		util.LogDebugf("Loaded %d rows from sheet %s", len(table.Rows), category)
	}

	if fp, err := util.CalculateFileFingerprint(w.path); err == nil {
		w.lastFingerprint = fp
	}
	return tables, nil
}

// sheetReader holds what parsing the lines of one sheet needs.
type sheetReader struct {
	f        *excelize.File
	name     string
	header   *header
	date1904 bool
}

func (w *Workbook) readSheet(f *excelize.File, category string) (*model.Table, error) {
	idx, err := f.GetSheetIndex(category)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, category)
	}

	rows, err := f.GetRows(category, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", category, err)
	}

	table := &model.Table{Category: category}
	if len(rows) == 0 {
		table.Columns = w.schema.Columns()
		return table, nil
	}

	header := newHeader(rows[0], w.schema)
	if err := header.require(w.schema.ProjectColumn, w.schema.SubEntityColumn); err != nil {
		return nil, fmt.Errorf("sheet %q: %w", category, err)
	}
	table.Columns = header.columns

	r := &sheetReader{f: f, name: category, header: header, date1904: uses1904(f)}
	seen := make(map[rowkey.Key]int)
	for i, cells := range rows[1:] {
		sheetRow := i + 2
		row := w.parseRow(r, cells, sheetRow)
		if row == nil {
			continue
		}

		key := row.Key()
		if err := key.Validate(); err != nil {
			util.LogWarn("Skipping row whose key cannot be selected",
				util.F("sheet", category), util.F("row", sheetRow), util.F("error", err.Error()))
			metrics.RecordSkippedRow(category, "invalid_key")
			continue
		}
		if first, dup := seen[key]; dup {
			util.LogWarn("Skipping row with a duplicate key",
				util.F("sheet", category), util.F("row", sheetRow), util.F("first", first), util.F("key", rowkey.Encode(key)))
			metrics.RecordSkippedRow(category, "duplicate_key")
			continue
		}
		seen[key] = sheetRow
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// uses1904 reports whether serial dates of f count from 1904.
func uses1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	return err == nil && props.Date1904 != nil && *props.Date1904
}

// parseRow returns nil for blank lines.
func (w *Workbook) parseRow(r *sheetReader, cells []string, sheetRow int) *model.Row {
	h := r.header
	key := h.key(cells, w.schema)
	if key.Project == "" && key.SubEntity == "" {
		return nil
	}

	row := model.NewRow(key.Project, key.SubEntity, key.Status)
	row.NextStep = h.cell(cells, w.schema.NextStepColumn)
	row.ActionItems = h.cell(cells, w.schema.ActionItemsColumn)

	for _, m := range w.schema.Milestones {
		raw := strings.TrimSpace(h.cell(cells, m))
		if raw == "" {
			continue
		}
		d, ok := cellDate(raw, r.numeric(m, sheetRow), r.date1904)
		if !ok {
			util.LogDebugf("%s row %d: %s %v, stored as absent", r.name, sheetRow, m, &model.DateParseError{Text: raw})
			continue
		}
		row.SetDate(m, d)
	}
	return row
}

// numeric reports whether the cell of column on sheetRow holds a number,
// as native date cells do.
func (r *sheetReader) numeric(column string, sheetRow int) bool {
	cell, err := r.header.cellName(column, sheetRow)
	if err != nil {
		return false
	}
	t, err := r.f.GetCellType(r.name, cell)
	return err == nil && (t == excelize.CellTypeUnset || t == excelize.CellTypeNumber)
}

// cellDate reads a serial date from a numeric cell, or date text from any
// other cell.
func cellDate(raw string, numeric, date1904 bool) (civil.Date, bool) {
	if !numeric {
		return model.ParseCellDate(raw)
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial < 1 {
		return civil.Date{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return civil.Date{}, false
	}
	return civil.DateOf(t), true
}

// WriteBack stores table in the category sheet. Rows are matched to sheet
// lines by key and rows the sheet lacks are appended. Only the schema
// columns of those lines are written; other cells keep what they held.
// The context is only checked before the write starts.
func (w *Workbook) WriteBack(ctx context.Context, category string, table *model.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", w.path, err)
	}
	defer f.Close()

	var rows [][]string
	if idx, err := f.GetSheetIndex(category); err != nil || idx < 0 {
		if _, err := f.NewSheet(category); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", category, err)
		}
	} else if rows, err = f.GetRows(category, excelize.Options{RawCellValue: true}); err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", category, err)
	}

	var headerRow []string
	if len(rows) > 0 {
		headerRow = rows[0]
	}
	h := newHeader(headerRow, w.schema)
	columns := w.schema.Columns()
	for _, name := range columns {
		if h.inSheet(name) {
			continue
		}
		if err := setCell(f, category, h, name, 1, name); err != nil {
			return err
		}
	}

	positions := make(map[rowkey.Key]int)
	for i := len(rows) - 1; i >= 1; i-- {
		positions[h.key(rows[i], w.schema)] = i + 1
	}
	next := max(len(rows), 1) + 1

	for _, row := range table.Rows {
		at, ok := positions[row.Key()]
		if !ok {
			at = next
			next++
		}
		for _, name := range columns {
			if err := setCell(f, category, h, name, at, w.cellValue(name, row)); err != nil {
				return err
			}
		}
	}

	if err := w.replaceFile(f); err != nil {
		return err
	}

	if fp, err := util.CalculateFileFingerprint(w.path); err == nil {
		w.lastFingerprint = fp
	}
	util.LogInfof("Wrote %d rows to sheet %s of %s", len(table.Rows), category, w.path)
	return nil
}

// setCell writes text to the column cell of a sheet row; empty text clears
// the value and keeps the cell style.
func setCell(f *excelize.File, sheet string, h *header, column string, row int, text string) error {
	cell, err := h.cellName(column, row)
	if err != nil {
		return err
	}
	var value interface{}
	if text != "" {
		value = text
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to write %s of sheet %q: %w", cell, sheet, err)
	}
	return nil
}

// cellValue is the text stored for a schema column; absent dates are empty.
func (w *Workbook) cellValue(column string, row *model.Row) string {
	switch {
	case column == w.schema.ProjectColumn:
		return row.Project
	case column == w.schema.SubEntityColumn:
		return row.SubEntity
	case column == w.schema.StatusColumn:
		return row.Status
	case column == w.schema.NextStepColumn:
		return row.NextStep
	case column == w.schema.ActionItemsColumn:
		return row.ActionItems
	default:
		if d, ok := row.Date(column); ok {
			return model.FormatDate(d)
		}
		return ""
	}
}

// replaceFile writes the workbook next to the target and renames it over.
func (w *Workbook) replaceFile(f *excelize.File) error {
	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".milestone-board-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if info, err := os.Stat(w.path); err == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", w.path, err)
	}
	return nil
}

// IsOwnWrite reports whether the file on disk is the one last read or
// written by this gateway.
func (w *Workbook) IsOwnWrite() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	fp, err := util.CalculateFileFingerprint(w.path)
	if err != nil {
		return false
	}
	return fp == w.lastFingerprint
}
