package board

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/penwyp/go-milestone-board/internal/core/editsession"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/presentation/interaction"
	"github.com/penwyp/go-milestone-board/internal/presentation/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeDisplay struct {
	mu     sync.Mutex
	views  []*layout.View
	inAlt  bool
	exited bool
}

func (d *fakeDisplay) EnterAlternateScreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inAlt = true
}

func (d *fakeDisplay) ExitAlternateScreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inAlt = false
	d.exited = true
}

func (d *fakeDisplay) Render(view *layout.View, param layout.Param) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views = append(d.views, view)
}

func (d *fakeDisplay) renders() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.views)
}

type fakeKeyboard struct {
	events chan interaction.KeyEvent
	closed bool
}

func (k *fakeKeyboard) Events() <-chan interaction.KeyEvent { return k.events }
func (k *fakeKeyboard) Close() error {
	k.closed = true
	return nil
}

type fakeWatcher struct {
	events chan model.FileEvent
}

func (w *fakeWatcher) Events() <-chan model.FileEvent { return w.events }
func (w *fakeWatcher) Close() error                   { return nil }

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeDisplay) {
	t.Helper()
	cfg, _ := newTestConfig(t)
	o, err := NewOrchestrator(cfg, "")
	require.NoError(t, err)

	d := &fakeDisplay{}
	o.display = d
	o.param = func() layout.Param { return layout.Param{Width: 100, Height: 30} }
	return o, d
}

func loaded(t *testing.T, o *Orchestrator) {
	t.Helper()
	require.NoError(t, o.board.Reload(context.Background(), TriggerStartup))
}

func char(r rune) interaction.KeyEvent {
	return interaction.KeyEvent{Type: interaction.KeyChar, Key: r}
}

func key(kt interaction.KeyType) interaction.KeyEvent {
	return interaction.KeyEvent{Type: kt}
}

func press(t *testing.T, o *Orchestrator, events ...interaction.KeyEvent) {
	t.Helper()
	for _, ev := range events {
		require.False(t, o.handleKeyboard(context.Background(), ev), "unexpected quit on %+v", ev)
	}
}

func typeText(t *testing.T, o *Orchestrator, s string) {
	t.Helper()
	for _, r := range s {
		press(t, o, char(r))
	}
}

func TestNewOrchestratorCategory(t *testing.T) {
	cfg, _ := newTestConfig(t)

	o, err := NewOrchestrator(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryLocalization, o.stateManager.GetInteractionState().Category)

	o, err = NewOrchestrator(cfg, model.CategoryEnergy)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryEnergy, o.stateManager.GetInteractionState().Category)

	_, err = NewOrchestrator(cfg, "Aerospace")
	assert.Error(t, err)
}

func TestBuildViewStartsOnFirstPoint(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	loaded(t, o)

	v := o.buildView()
	assert.Equal(t, model.CategoryLocalization, v.Category)
	assert.Equal(t, model.DefaultCategories(), v.Categories)
	require.Len(t, v.Lanes, 2)
	require.Len(t, v.Markers, 1)

	p, ok := v.Cursor()
	require.True(t, ok)
	assert.Equal(t, "Acme_S1 (Open)", p.Label)
	assert.Equal(t, model.MilestoneRFQSend, p.Milestone)
	assert.False(t, v.Panel.Selected())
}

func TestArrowKeysMoveCursor(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	loaded(t, o)

	press(t, o, key(interaction.KeyRight))
	p, _ := o.buildView().Cursor()
	assert.Equal(t, model.MilestoneTQP, p.Milestone)

	press(t, o, char('j'))
	p, _ = o.buildView().Cursor()
	assert.Equal(t, "Gamma_S3 (High)", p.Label)

	press(t, o, key(interaction.KeyDown))
	p, _ = o.buildView().Cursor()
	assert.Equal(t, "Gamma_S3 (High)", p.Label)

	press(t, o, key(interaction.KeyUp))
	state := o.stateManager.GetInteractionState()
	assert.Equal(t, 0, state.CursorRow)
}

func TestTabCyclesCategoriesAndDropsSelection(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	loaded(t, o)

	press(t, o, key(interaction.KeyEnter))
	require.True(t, o.board.Controller().Panel().Selected())

	press(t, o, key(interaction.KeyTab))
	v := o.buildView()
	assert.Equal(t, model.CategoryOthers, v.Category)
	assert.False(t, v.Panel.Selected())
	require.Len(t, v.Lanes, 1)
	assert.Equal(t, "Omega_O1 (Low)", v.Lanes[0].Label)

	press(t, o, key(interaction.KeyTab))
	v = o.buildView()
	assert.Equal(t, model.CategoryEnergy, v.Category)
	assert.Empty(t, v.Lanes)
	assert.False(t, v.HasCursor)

	press(t, o, key(interaction.KeyEnter), key(interaction.KeyTab))
	assert.Equal(t, model.CategoryLocalization, o.buildView().Category)
}

func TestEditDateThroughKeyboard(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	loaded(t, o)

	press(t, o, key(interaction.KeyEnter))
	panel := o.board.Controller().Panel()
	require.Equal(t, editsession.Viewing, panel.State)
	assert.Equal(t, "Project: Acme_S1 (Open)", panel.Title())
	assert.Equal(t, "Call supplier", panel.NextStep)

	press(t, o, char('d'))
	state := o.stateManager.GetInteractionState()
	assert.Equal(t, model.EditDate, state.Editing)
	assert.Equal(t, "2024-01-10", state.Input)

	press(t, o, key(interaction.KeyBackspace), key(interaction.KeyBackspace))
	typeText(t, o, "15")
	assert.Equal(t, "2024-01-15", o.stateManager.GetInteractionState().Input)

	press(t, o, key(interaction.KeyEnter))
	state = o.stateManager.GetInteractionState()
	assert.Equal(t, model.EditNone, state.Editing)

	panel = o.board.Controller().Panel()
	assert.Equal(t, editsession.Idle, panel.State)
	assert.Equal(t, "Updated Acme_S1 (Open): RFQ send date = 2024-01-15", panel.Message)
	assert.NoError(t, panel.Err)

	f, err := excelize.OpenFile(o.board.WorkbookPath())
	require.NoError(t, err)
	defer f.Close()
	cell, err := f.GetCellValue(model.CategoryLocalization, "D2")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", cell)
}

func TestEditNotesThroughKeyboard(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	loaded(t, o)

	press(t, o, key(interaction.KeyEnter), char('a'))
	assert.Equal(t, "Send drawings", o.stateManager.GetInteractionState().Input)
	typeText(t, o, " v2")
	press(t, o, key(interaction.KeyEnter))

	assert.Equal(t, "Updated Acme_S1 (Open): Action Items for Cindy", o.board.Controller().Panel().Message)
}

func TestTypingDuringEditDoesNotTriggerCommands(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	loaded(t, o)

	press(t, o, key(interaction.KeyEnter), char('n'))
	typeText(t, o, "quit?")
	state := o.stateManager.GetInteractionState()
	assert.Equal(t, model.EditNextStep, state.Editing)
	assert.Equal(t, "Call supplierquit?", state.Input)
	assert.False(t, state.ShowHelp)

	press(t, o, key(interaction.KeyEscape))
	state = o.stateManager.GetInteractionState()
	assert.Equal(t, model.EditNone, state.Editing)
	assert.True(t, o.board.Controller().Panel().Selected(), "escape leaves the selection")

	press(t, o, key(interaction.KeyEscape))
	assert.False(t, o.board.Controller().Panel().Selected())
}

func TestEditKeysNeedSelection(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	loaded(t, o)

	press(t, o, char('d'))
	state := o.stateManager.GetInteractionState()
	assert.Equal(t, model.EditNone, state.Editing)
	assert.Contains(t, state.StatusMessage, "Select a milestone first")
}

func TestHelpToggle(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	loaded(t, o)

	press(t, o, char('?'))
	assert.True(t, o.buildView().ShowHelp)

	press(t, o, key(interaction.KeyRight))
	assert.True(t, o.buildView().ShowHelp)

	press(t, o, key(interaction.KeyEscape))
	assert.False(t, o.buildView().ShowHelp)
}

func TestQuitKeys(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	loaded(t, o)
	ctx := context.Background()

	assert.True(t, o.handleKeyboard(ctx, char('q')))
	assert.True(t, o.handleKeyboard(ctx, key(interaction.KeyCtrlC)))

	press(t, o, key(interaction.KeyEnter), char('n'))
	assert.True(t, o.handleKeyboard(ctx, key(interaction.KeyCtrlC)))
}

func TestManualReload(t *testing.T) {
	o, d := newTestOrchestrator(t)
	loaded(t, o)

	press(t, o, char('r'))
	assert.Contains(t, o.stateManager.GetInteractionState().StatusMessage, "Reloaded at")
	assert.Positive(t, d.renders())
}

func TestRunQuitsOnKey(t *testing.T) {
	o, d := newTestOrchestrator(t)
	kb := &fakeKeyboard{events: make(chan interaction.KeyEvent, 1)}
	o.newKeyboard = func() (InputHandler, error) { return kb, nil }
	o.newWatcher = func(string) (FileMonitor, error) {
		return &fakeWatcher{events: make(chan model.FileEvent)}, nil
	}

	kb.events <- char('q')
	require.NoError(t, o.Run(context.Background()))

	assert.True(t, kb.closed)
	assert.True(t, d.exited)
	assert.GreaterOrEqual(t, d.renders(), 2)
}

func TestRunReloadsAfterFileChange(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	o.board.config.ReloadDebounce = 10 * time.Millisecond

	kb := &fakeKeyboard{events: make(chan interaction.KeyEvent, 1)}
	fw := &fakeWatcher{events: make(chan model.FileEvent, 1)}
	o.newKeyboard = func() (InputHandler, error) { return kb, nil }
	o.newWatcher = func(string) (FileMonitor, error) { return fw, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	require.Eventually(t, func() bool { return !o.board.LastReload().IsZero() }, 2*time.Second, 10*time.Millisecond)
	first := o.board.LastReload()

	// Touch the file so it no longer matches what was loaded.
	f, err := excelize.OpenFile(o.board.WorkbookPath())
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(model.CategoryEnergy, "A2", "Volt"))
	require.NoError(t, f.SetCellValue(model.CategoryEnergy, "B2", "E1"))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	fw.events <- model.FileEvent{Path: o.board.WorkbookPath(), Operation: "WRITE"}
	assert.Eventually(t, func() bool { return o.board.LastReload().After(first) }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRunFailsOnMissingWorkbook(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	o.board.config.Workbook = "/nonexistent/NPI_Tracking.xlsx"
	o.board = New(o.board.config)
	o.newKeyboard = func() (InputHandler, error) {
		return &fakeKeyboard{events: make(chan interaction.KeyEvent)}, nil
	}

	assert.Error(t, o.Run(context.Background()))
}
