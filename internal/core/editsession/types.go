package editsession

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
)

// IdlePrompt is shown while nothing is selected.
const IdlePrompt = "Select a milestone to see details."

// State of the edit session
type State int

const (
	Idle State = iota
	Viewing
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Viewing:
		return "viewing"
	case Committing:
		return "committing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrNoSelection is returned by Submit when no row is selected.
	ErrNoSelection = errors.New("no milestone selected")
	// ErrNoMilestone is returned when a date is submitted for a selection
	// that did not name a milestone.
	ErrNoMilestone = errors.New("selection has no milestone to date")
	// ErrEmptyForm is returned when a submit carries no field.
	ErrEmptyForm = errors.New("nothing to update")
)

// PersistenceError reports a failed write-back. The in-memory edit has
// already been applied when it is returned.
type PersistenceError struct {
	Category string
	Key      rowkey.Key
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving %s to sheet %s failed: %v", rowkey.Encode(e.Key), e.Category, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Gateway persists one category table.
type Gateway interface {
	WriteBack(ctx context.Context, category string, table *model.Table) error
}

// Selection is a point chosen on the chart. Key is the encoded row key as
// displayed; Milestone may be empty when a whole row is selected.
type Selection struct {
	Category  string
	Key       string
	Milestone string
	Date      civil.Date
}

// Form carries submitted field text. A nil field is left unchanged; an
// empty Date clears the milestone.
type Form struct {
	Date        *string
	NextStep    *string
	ActionItems *string
}

// Text returns a pointer to s, for building a Form.
func Text(s string) *string {
	return &s
}

// Panel is the detail view of the session.
type Panel struct {
	State    State
	Category string

	// Set while Viewing
	Key         rowkey.Key
	Milestone   string
	Date        civil.Date
	NextStep    string
	ActionItems string

	// Outcome of the last interaction
	Message string
	Err     error
}

// Title is the panel heading.
func (p Panel) Title() string {
	if p.State == Idle {
		return ""
	}
	return "Project: " + rowkey.Encode(p.Key)
}

// Selected reports whether the panel shows a row.
func (p Panel) Selected() bool {
	return p.State != Idle
}

// Options tunes controller behaviour.
type Options struct {
	Schema model.Schema

	// StrictDates rejects unparseable date text and keeps the selection;
	// otherwise the milestone is cleared.
	StrictDates bool
}
