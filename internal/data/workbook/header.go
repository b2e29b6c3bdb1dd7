package workbook

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
	"github.com/xuri/excelize/v2"
)

// header maps sheet column names to cell positions.
type header struct {
	columns []string // sheet order, schema columns missing from the sheet appended
	index   map[string]int
	width   int // cells in the sheet's header row
}

func newHeader(cells []string, schema model.Schema) *header {
	h := &header{index: make(map[string]int), width: len(cells)}

	for i, c := range cells {
		name := strings.TrimSpace(c)
		if _, dup := h.index[name]; dup || name == "" {
			name = unnamedColumn(i)
		}
		h.index[name] = i
		h.columns = append(h.columns, name)
	}

	for _, name := range schema.Columns() {
		if _, ok := h.index[name]; !ok {
			h.index[name] = len(h.columns)
			h.columns = append(h.columns, name)
		}
	}
	return h
}

// unnamedColumn keys a blank or repeated header cell by its position.
func unnamedColumn(i int) string {
	return fmt.Sprintf("\x00col%d", i)
}

// inSheet reports whether the sheet's header row names the column.
func (h *header) inSheet(name string) bool {
	i, ok := h.index[name]
	return ok && i < h.width
}

func (h *header) require(names ...string) error {
	for _, name := range names {
		if !h.inSheet(name) {
			return fmt.Errorf("missing required column %q", name)
		}
	}
	return nil
}

// cell returns the value of column name, or "" when absent.
func (h *header) cell(cells []string, name string) string {
	i, ok := h.index[name]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// cellName returns the reference of column name on sheet row row.
func (h *header) cellName(name string, row int) (string, error) {
	return excelize.CoordinatesToCellName(h.index[name]+1, row)
}

// key reads the identity cells of a sheet line.
func (h *header) key(cells []string, schema model.Schema) rowkey.Key {
	return rowkey.Key{
		Project:   strings.TrimSpace(h.cell(cells, schema.ProjectColumn)),
		SubEntity: strings.TrimSpace(h.cell(cells, schema.SubEntityColumn)),
		Status:    strings.TrimSpace(h.cell(cells, schema.StatusColumn)),
	}
}
