package model

import (
	"slices"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
)

// Schema names the sheet headers that carry each row field.
type Schema struct {
	ProjectColumn     string   `yaml:"project"`
	SubEntityColumn   string   `yaml:"sub_entity"`
	StatusColumn      string   `yaml:"status"`
	Milestones        []string `yaml:"milestones"`
	NextStepColumn    string   `yaml:"next_step"`
	ActionItemsColumn string   `yaml:"action_items"`
}

// DefaultSchema returns the headers used by the tracking workbook.
func DefaultSchema() Schema {
	return Schema{
		ProjectColumn:     ColumnProject,
		SubEntityColumn:   ColumnSubEntity,
		StatusColumn:      ColumnStatus,
		Milestones:        DefaultMilestones(),
		NextStepColumn:    ColumnNextStep,
		ActionItemsColumn: ColumnActionItems,
	}
}

// Columns returns every schema header in canonical order.
func (s Schema) Columns() []string {
	cols := []string{s.ProjectColumn, s.SubEntityColumn}
	if s.StatusColumn != "" {
		cols = append(cols, s.StatusColumn)
	}
	cols = append(cols, s.Milestones...)
	return append(cols, s.NextStepColumn, s.ActionItemsColumn)
}

// HasMilestone reports whether name is a tracked milestone.
func (s Schema) HasMilestone(name string) bool {
	return slices.Contains(s.Milestones, name)
}

// Row is one project line of a category sheet.
type Row struct {
	Project     string
	SubEntity   string
	Status      string
	Dates       map[string]civil.Date // absent milestones have no entry
	NextStep    string
	ActionItems string
}

// NewRow creates a row with an empty date map.
func NewRow(project, subEntity, status string) *Row {
	return &Row{
		Project:   project,
		SubEntity: subEntity,
		Status:    status,
		Dates:     make(map[string]civil.Date),
	}
}

// Key returns the row identity.
func (r *Row) Key() rowkey.Key {
	return rowkey.Key{Project: r.Project, SubEntity: r.SubEntity, Status: r.Status}
}

// Date returns the milestone date and whether it is present.
func (r *Row) Date(milestone string) (civil.Date, bool) {
	d, ok := r.Dates[milestone]
	return d, ok
}

// SetDate stores d, or clears the milestone when d is not a valid date.
func (r *Row) SetDate(milestone string, d civil.Date) {
	if r.Dates == nil {
		r.Dates = make(map[string]civil.Date)
	}
	if !d.IsValid() {
		delete(r.Dates, milestone)
		return
	}
	r.Dates[milestone] = d
}

// Clone returns a deep copy.
func (r *Row) Clone() *Row {
	c := *r
	c.Dates = make(map[string]civil.Date, len(r.Dates))
	for k, v := range r.Dates {
		c.Dates[k] = v
	}
	return &c
}

// Table is the in-memory copy of one category sheet.
type Table struct {
	Category string
	Columns  []string // headers in sheet order
	Rows     []*Row
}

// Find returns the index and row matching key, or -1 and nil.
func (t *Table) Find(key rowkey.Key) (int, *Row) {
	for i, r := range t.Rows {
		if r.Key() == key {
			return i, r
		}
	}
	return -1, nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{
		Category: t.Category,
		Columns:  slices.Clone(t.Columns),
		Rows:     make([]*Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		c.Rows[i] = r.Clone()
	}
	return c
}
