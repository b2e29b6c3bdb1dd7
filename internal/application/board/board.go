package board

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/penwyp/go-milestone-board/internal/config"
	"github.com/penwyp/go-milestone-board/internal/core/editsession"
	"github.com/penwyp/go-milestone-board/internal/core/timeline"
	"github.com/penwyp/go-milestone-board/internal/data/store"
	"github.com/penwyp/go-milestone-board/internal/data/workbook"
	"github.com/penwyp/go-milestone-board/internal/metrics"
	"github.com/penwyp/go-milestone-board/internal/util"
)

// Reload triggers
const (
	TriggerStartup = "startup"
	TriggerManual  = "manual"
	TriggerWatch   = "watch"
)

// Board ties the dataset store to the workbook and the edit session. It is
// shared by the terminal UI, the HTTP dashboard and the export command.
type Board struct {
	config     *config.Config
	store      *store.Store
	workbook   *workbook.Workbook
	controller *editsession.Controller

	reloadMu   sync.Mutex // one reload at a time
	mu         sync.RWMutex
	lastReload time.Time
}

// New creates a board with an empty store. Call Reload to read the
// workbook.
func New(cfg *config.Config) *Board {
	st := store.New(cfg.Categories)
	wb := workbook.New(cfg.Workbook, cfg.Schema, cfg.Categories)
	return &Board{
		config:   cfg,
		store:    st,
		workbook: wb,
		controller: editsession.NewController(st, wb, editsession.Options{
			Schema:      cfg.Schema,
			StrictDates: cfg.StrictDates,
		}),
	}
}

// Config returns the board settings.
func (b *Board) Config() *config.Config {
	return b.config
}

// Controller returns the edit session.
func (b *Board) Controller() *editsession.Controller {
	return b.controller
}

// Categories returns the category names in display order.
func (b *Board) Categories() []string {
	return b.store.Categories()
}

// WorkbookPath returns the file backing the board.
func (b *Board) WorkbookPath() string {
	return b.workbook.Path()
}

// LastReload returns the time of the last successful reload.
func (b *Board) LastReload() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastReload
}

// Reload reads every category sheet and swaps the tables in. On failure
// the previous tables stay in place.
func (b *Board) Reload(ctx context.Context, trigger string) error {
	b.reloadMu.Lock()
	defer b.reloadMu.Unlock()

	tables, err := b.workbook.Load(ctx)
	if err == nil {
		err = b.store.ReplaceAll(tables)
	}
	metrics.RecordReload(trigger, err)
	if err != nil {
		return fmt.Errorf("failed to reload %s: %w", b.workbook.Path(), err)
	}

	b.mu.Lock()
	b.lastReload = time.Now()
	b.mu.Unlock()
	util.LogInfof("Reloaded %s (%s)", b.workbook.Path(), trigger)
	return nil
}

// ReloadIfChanged reloads unless the file on disk is the one the board
// last read or wrote. It reports whether a reload happened.
func (b *Board) ReloadIfChanged(ctx context.Context) (bool, error) {
	if b.workbook.IsOwnWrite() {
		util.LogDebugf("Ignoring change of %s made by this process", b.workbook.Path())
		return false, nil
	}
	if err := b.Reload(ctx, TriggerWatch); err != nil {
		return false, err
	}
	return true, nil
}

// Points yields the plotted milestones of category. Closed rows are left
// out unless includeClosed is set.
func (b *Board) Points(category string, includeClosed bool) (iter.Seq[timeline.Point], error) {
	table, err := b.store.Snapshot(category)
	if err != nil {
		return nil, err
	}
	exclude := b.config.ClosedStatus
	if includeClosed {
		exclude = ""
	}
	return timeline.Project(table, b.config.Schema.Milestones, exclude), nil
}

// Chart is the plotted content of one category.
type Chart struct {
	Category string
	Lanes    []timeline.Lane
	Span     timeline.Span // points and markers
	Points   int
}

// Chart projects category into lanes and computes the axis span. Markers
// widen the span only when there is at least one point.
func (b *Board) Chart(category string) (*Chart, error) {
	points, err := b.Points(category, false)
	if err != nil {
		return nil, err
	}

	c := &Chart{Category: category, Lanes: timeline.Lanes(points)}
	for _, lane := range c.Lanes {
		c.Points += len(lane.Points)
		for _, p := range lane.Points {
			c.Span = c.Span.Extend(p.Date)
		}
	}
	if c.Points > 0 {
		for _, m := range b.config.Markers {
			c.Span = c.Span.Extend(m.Date)
		}
	}
	return c, nil
}
