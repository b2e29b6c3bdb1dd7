package editsession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
	"github.com/penwyp/go-milestone-board/internal/data/store"
	"github.com/penwyp/go-milestone-board/internal/metrics"
	"github.com/penwyp/go-milestone-board/internal/util"
)

// Controller runs the select, edit and commit cycle against a store and a
// persistence gateway. Calls are serialized: one interaction completes
// before the next starts.
type Controller struct {
	store   *store.Store
	gateway Gateway
	opts    Options

	mu    sync.Mutex
	panel Panel
}

// NewController creates an idle controller.
func NewController(st *store.Store, gw Gateway, opts Options) *Controller {
	if len(opts.Schema.Milestones) == 0 {
		opts.Schema = model.DefaultSchema()
	}
	return &Controller{
		store:   st,
		gateway: gw,
		opts:    opts,
		panel:   Panel{State: Idle},
	}
}

// Panel returns the current detail view.
func (c *Controller) Panel() Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel.State
}

// Select resolves the selection to a row and shows it. Any pending edit is
// discarded. On failure the session is idle and the panel carries the
// error.
func (c *Controller) Select(sel Selection) (Panel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, err := rowkey.Decode(sel.Key)
	if err != nil {
		metrics.RecordSelectionFailure("malformed_key")
		return c.fail(sel.Category, err), err
	}

	if sel.Milestone != "" && !c.opts.Schema.HasMilestone(sel.Milestone) {
		err := fmt.Errorf("unknown milestone %q", sel.Milestone)
		metrics.RecordSelectionFailure("unknown_milestone")
		return c.fail(sel.Category, err), err
	}

	row, err := c.store.Lookup(sel.Category, key)
	if err != nil {
		reason := "not_found"
		if errors.Is(err, store.ErrUnknownCategory) {
			reason = "unknown_category"
		}
		metrics.RecordSelectionFailure(reason)
		return c.fail(sel.Category, err), err
	}

	p := Panel{
		State:       Viewing,
		Category:    sel.Category,
		Key:         key,
		Milestone:   sel.Milestone,
		NextStep:    row.NextStep,
		ActionItems: row.ActionItems,
	}
	if sel.Milestone != "" {
		p.Date, _ = row.Date(sel.Milestone)
		if sel.Date.IsValid() && p.Date != sel.Date {
			util.LogDebugf("Selected %s %s shows %s but row holds %s", sel.Key, sel.Milestone, sel.Date, model.FormatDate(p.Date))
		}
	}

	if c.panel.State == Viewing && c.panel.Key != key {
		util.LogDebugf("Discarding pending edit of %s", rowkey.Encode(c.panel.Key))
	}
	c.panel = p
	return p, nil
}

// Cancel drops the selection.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel = Panel{State: Idle, Category: c.panel.Category}
}

// Submit applies the form to the selected row and writes the category back.
// It returns the confirmation message. The session is idle afterwards,
// except when the form is rejected before anything changes.
//
// Unparseable date text clears the milestone and is reported in the
// message, unless strict dates are enabled, in which case the form is
// rejected with a *model.DateParseError. A failed write-back returns a
// *PersistenceError and keeps the in-memory change.
func (c *Controller) Submit(ctx context.Context, form Form) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.panel.State != Viewing {
		return "", ErrNoSelection
	}
	pending := c.panel

	ed, err := c.prepare(pending, form)
	if err != nil {
		metrics.RecordCommit(pending.Category, metrics.ResultRejected)
		c.panel.Message = err.Error()
		c.panel.Err = err
		return "", err
	}

	c.panel.State = Committing
	table, err := c.store.Update(pending.Category, pending.Key, ed.apply)
	if err != nil {
		metrics.RecordCommit(pending.Category, metrics.ResultRejected)
		c.fail(pending.Category, err)
		return "", err
	}

	message := fmt.Sprintf("Updated %s: %s", rowkey.Encode(pending.Key), strings.Join(ed.changes, ", "))
	if ed.dateErr != nil {
		util.LogWarnf("Cleared %s of %s: %v", pending.Milestone, rowkey.Encode(pending.Key), ed.dateErr)
		message += fmt.Sprintf(" (%q is not a date, milestone cleared)", ed.dateErr.Text)
	}

	start := time.Now()
	werr := c.gateway.WriteBack(ctx, pending.Category, table)
	metrics.RecordWriteBack(pending.Category, time.Since(start), werr)
	if werr != nil {
		perr := &PersistenceError{Category: pending.Category, Key: pending.Key, Err: werr}
		util.LogErrorf("%v", perr)
		metrics.RecordCommit(pending.Category, metrics.ResultPersistFail)
		c.fail(pending.Category, perr)
		return "", perr
	}

	util.LogInfof("%s", message)
	metrics.RecordCommit(pending.Category, metrics.ResultOK)
	c.panel = Panel{State: Idle, Category: pending.Category, Message: message, Err: ed.softErr()}
	return message, nil
}

// fail makes the session idle with err shown. Caller holds mu.
func (c *Controller) fail(category string, err error) Panel {
	c.panel = Panel{State: Idle, Category: category, Message: err.Error(), Err: err}
	return c.panel
}

// edit is a validated form ready to apply to a row.
type edit struct {
	milestone   string
	setDate     bool
	date        civil.Date
	nextStep    *string
	actionItems *string

	dateErr *model.DateParseError
	changes []string
}

func (e *edit) softErr() error {
	if e.dateErr == nil {
		return nil
	}
	return e.dateErr
}

func (e *edit) apply(r *model.Row) {
	if e.setDate {
		r.SetDate(e.milestone, e.date)
	}
	if e.nextStep != nil {
		r.NextStep = *e.nextStep
	}
	if e.actionItems != nil {
		r.ActionItems = *e.actionItems
	}
}

func (c *Controller) prepare(p Panel, form Form) (*edit, error) {
	if form.Date == nil && form.NextStep == nil && form.ActionItems == nil {
		return nil, ErrEmptyForm
	}

	ed := &edit{milestone: p.Milestone, nextStep: form.NextStep, actionItems: form.ActionItems}
	if form.Date != nil {
		if p.Milestone == "" {
			return nil, ErrNoMilestone
		}
		ed.setDate = true
		if text := strings.TrimSpace(*form.Date); text != "" {
			d, err := model.ParseISODate(text)
			if err != nil {
				var perr *model.DateParseError
				if !errors.As(err, &perr) {
					return nil, err
				}
				if c.opts.StrictDates {
					return nil, perr
				}
				ed.dateErr = perr
			}
			ed.date = d
		}
		if ed.date.IsValid() {
			ed.changes = append(ed.changes, fmt.Sprintf("%s = %s", p.Milestone, model.FormatDate(ed.date)))
		} else {
			ed.changes = append(ed.changes, p.Milestone+" cleared")
		}
	}
	if form.NextStep != nil {
		ed.changes = append(ed.changes, c.opts.Schema.NextStepColumn)
	}
	if form.ActionItems != nil {
		ed.changes = append(ed.changes, c.opts.Schema.ActionItemsColumn)
	}
	return ed, nil
}
