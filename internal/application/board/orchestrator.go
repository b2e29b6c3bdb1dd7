package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/penwyp/go-milestone-board/internal/config"
	"github.com/penwyp/go-milestone-board/internal/core/editsession"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/monitoring"
	"github.com/penwyp/go-milestone-board/internal/presentation/display"
	"github.com/penwyp/go-milestone-board/internal/presentation/interaction"
	"github.com/penwyp/go-milestone-board/internal/presentation/layout"
	"github.com/penwyp/go-milestone-board/internal/util"
)

// Orchestrator runs the terminal board: it renders the chart, routes
// keyboard input to the edit session and reloads the workbook when it
// changes on disk.
type Orchestrator struct {
	board        *Board
	stateManager *StateManager
	navigator    *interaction.Navigator
	display      DisplayController
	keyboard     InputHandler
	watcher      FileMonitor

	param       func() layout.Param
	newKeyboard func() (InputHandler, error)
	newWatcher  func(path string) (FileMonitor, error)
}

// NewOrchestrator creates the terminal board for cfg, starting on category
// (the first configured category when empty).
func NewOrchestrator(cfg *config.Config, category string) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if category == "" {
		category = cfg.Categories[0]
	}
	if !slices.Contains(cfg.Categories, category) {
		return nil, fmt.Errorf("unknown category %q (have %v)", category, cfg.Categories)
	}

	return &Orchestrator{
		board:        New(cfg),
		stateManager: NewStateManager(category),
		navigator:    interaction.NewNavigator(),
		display:      display.NewTerminalDisplay(nil),
		param:        func() layout.Param { return layout.GetSizer().Param() },
		newKeyboard: func() (InputHandler, error) {
			return interaction.NewKeyboardReader()
		},
		newWatcher: func(path string) (FileMonitor, error) {
			return monitoring.NewFileWatcher(path)
		},
	}, nil
}

// Board returns the underlying board.
func (o *Orchestrator) Board() *Board {
	return o.board
}

// Run starts the orchestrator and blocks until ctx is done or the user
// quits.
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting milestone board...")

	// Ensure cleanup on exit
	defer o.Close()

	cfg := o.board.Config()
	if err := util.InitializeTimeProvider(cfg.Timezone); err != nil {
		return fmt.Errorf("failed to initialize timezone: %w", err)
	}

	// Phase 1: Initialize keyboard
	keyboard, err := o.newKeyboard()
	if err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	o.keyboard = keyboard
	defer o.keyboard.Close()

	o.display.EnterAlternateScreen()
	defer o.display.ExitAlternateScreen()

	o.stateManager.SetLoadingState(true, "Loading "+o.board.WorkbookPath()+"...")
	o.updateDisplay()

	// Phase 2: Load the workbook
	if err := o.board.Reload(ctx, TriggerStartup); err != nil {
		return err
	}
	o.stateManager.SetLoadingState(false, "")

	// Phase 3: Start file monitoring
	if err := o.startWatcher(); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	fileEvents := o.watcher.Events()

	// Phase 4: Main event loop
	uiTicker := time.NewTicker(cfg.UIRefreshInterval)
	defer uiTicker.Stop()

	debounce := time.NewTimer(cfg.ReloadDebounce)
	debounce.Stop()
	defer debounce.Stop()

	o.updateDisplay()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down milestone board...")
			return nil

		case <-uiTicker.C:
			o.updateDisplay()

		case event, ok := <-fileEvents:
			if !ok {
				util.LogWarn("File watcher stopped")
				fileEvents = nil
				continue
			}
			util.LogDebugf("File changed: %s (%s)", event.Path, event.Operation)
			debounce.Reset(cfg.ReloadDebounce)

		case <-debounce.C:
			o.handleFileChange(ctx)
			o.updateDisplay()

		case keyEvent := <-o.keyboard.Events():
			if o.handleKeyboard(ctx, keyEvent) {
				return nil // Exit requested
			}
			o.updateDisplay()
		}
	}
}

// startWatcher initializes the file watcher
func (o *Orchestrator) startWatcher() error {
	watcher, err := o.newWatcher(o.board.WorkbookPath())
	if err != nil {
		return err
	}
	o.watcher = watcher
	return nil
}

// handleFileChange reloads the workbook after an outside edit
func (o *Orchestrator) handleFileChange(ctx context.Context) {
	reloaded, err := o.board.ReloadIfChanged(ctx)
	if err != nil {
		util.LogErrorf("Failed to reload after file change: %v", err)
		o.stateManager.SetStatus("Reload failed: " + err.Error())
		return
	}
	if reloaded {
		o.stateManager.SetStatus("Workbook changed on disk, reloaded at " + o.board.LastReload().Format("15:04:05"))
	}
}

// reload performs a reload requested from the keyboard
func (o *Orchestrator) reload(ctx context.Context) {
	o.stateManager.SetLoadingState(true, "Reloading...")
	o.updateDisplay()
	defer o.stateManager.SetLoadingState(false, "")

	if err := o.board.Reload(ctx, TriggerManual); err != nil {
		util.LogError(err.Error())
		o.stateManager.SetStatus("Reload failed: " + err.Error())
		return
	}
	o.stateManager.SetStatus("Reloaded at " + o.board.LastReload().Format("15:04:05"))
}

// syncLanes projects the current category and hands the lanes to the
// navigator.
func (o *Orchestrator) syncLanes(category string) (*Chart, error) {
	chart, err := o.board.Chart(category)
	if err != nil {
		chart = &Chart{Category: category}
	}
	o.navigator.SetLanes(chart.Lanes)
	return chart, err
}

// buildView assembles the frame for the current state
func (o *Orchestrator) buildView() *layout.View {
	state := o.stateManager.GetInteractionState()
	cfg := o.board.Config()

	chart, err := o.syncLanes(state.Category)
	status := state.StatusMessage
	if err != nil {
		status = err.Error()
	}

	markers := make([]layout.Marker, len(cfg.Markers))
	for i, m := range cfg.Markers {
		markers[i] = layout.Marker{Date: m.Date, Label: m.Label}
	}

	row, col := o.navigator.Position()
	_, hasCursor := o.navigator.Current()

	return &layout.View{
		Category:   state.Category,
		Categories: o.board.Categories(),
		Milestones: cfg.Schema.Milestones,
		Lanes:      chart.Lanes,
		Today:      util.GetTimeProvider().Today(),
		Markers:    markers,
		HasCursor:  hasCursor,
		CursorRow:  row,
		CursorCol:  col,
		Panel:      o.board.Controller().Panel(),
		Editing:    state.Editing,
		Input:      state.Input,
		Status:     status,
		ShowHelp:   state.ShowHelp,
	}
}

func (o *Orchestrator) updateDisplay() {
	o.display.Render(o.buildView(), o.param())
}

// handleKeyboard handles keyboard events. It returns true when the user
// asked to quit.
func (o *Orchestrator) handleKeyboard(ctx context.Context, event interaction.KeyEvent) bool {
	if event.Type == interaction.KeyCtrlC {
		return true
	}

	state := o.stateManager.GetInteractionState()
	if state.Editing != model.EditNone {
		o.handleEditKey(ctx, event)
		return false
	}

	if state.ShowHelp {
		switch {
		case event.Type == interaction.KeyEscape, event.Type == interaction.KeyChar && event.Key == '?':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.ShowHelp = false
			})
		case event.Type == interaction.KeyChar && (event.Key == 'q' || event.Key == 'Q'):
			return true
		}
		return false
	}

	o.syncLanes(state.Category)
	controller := o.board.Controller()

	switch event.Type {
	case interaction.KeyUp:
		o.navigator.Up()
	case interaction.KeyDown:
		o.navigator.Down()
	case interaction.KeyLeft:
		o.navigator.Left()
	case interaction.KeyRight:
		o.navigator.Right()
	case interaction.KeyTab:
		o.nextCategory(state.Category)
	case interaction.KeyEnter:
		o.selectCursor(state.Category)
	case interaction.KeyEscape:
		if controller.Panel().Selected() {
			controller.Cancel()
		}
	case interaction.KeyChar:
		switch event.Key {
		case 'q', 'Q':
			return true
		case 'k':
			o.navigator.Up()
		case 'j':
			o.navigator.Down()
		case 'h':
			o.navigator.Left()
		case 'l':
			o.navigator.Right()
		case 'd', 'D':
			o.startEdit(model.EditDate)
		case 'n', 'N':
			o.startEdit(model.EditNextStep)
		case 'a', 'A':
			o.startEdit(model.EditActionItems)
		case 'r', 'R':
			o.reload(ctx)
		case '?':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.ShowHelp = true
			})
		}
	}

	row, col := o.navigator.Position()
	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.CursorRow, s.CursorPoint = row, col
	})
	return false
}

// handleEditKey routes input to the field being edited
func (o *Orchestrator) handleEditKey(ctx context.Context, event interaction.KeyEvent) {
	switch event.Type {
	case interaction.KeyEscape:
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
			s.Editing, s.Input = model.EditNone, ""
		})
	case interaction.KeyEnter:
		o.submitEdit(ctx)
	case interaction.KeyBackspace:
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
			if r := []rune(s.Input); len(r) > 0 {
				s.Input = string(r[:len(r)-1])
			}
		})
	case interaction.KeyChar:
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
			s.Input += string(event.Key)
		})
	}
}

// nextCategory switches to the category after current and drops the
// selection.
func (o *Orchestrator) nextCategory(current string) {
	categories := o.board.Categories()
	next := categories[(slices.Index(categories, current)+1)%len(categories)]

	o.board.Controller().Cancel()
	o.navigator = interaction.NewNavigator()
	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.Category = next
		s.StatusMessage = ""
	})
	o.syncLanes(next)
}

// selectCursor shows the details of the point under the cursor
func (o *Orchestrator) selectCursor(category string) {
	p, ok := o.navigator.Current()
	if !ok {
		return
	}
	_, err := o.board.Controller().Select(editsession.Selection{
		Category:  category,
		Key:       p.Label,
		Milestone: p.Milestone,
		Date:      p.Date,
	})
	if err != nil {
		util.LogWarnf("Selection of %s failed: %v", p.Label, err)
	}
}

// startEdit opens the input line for field, pre-filled with the current
// value.
func (o *Orchestrator) startEdit(field model.EditField) {
	panel := o.board.Controller().Panel()
	if panel.State != editsession.Viewing {
		o.stateManager.SetStatus("Select a milestone first (Enter)")
		return
	}

	var input string
	switch field {
	case model.EditDate:
		if panel.Milestone == "" {
			o.stateManager.SetStatus(editsession.ErrNoMilestone.Error())
			return
		}
		input = model.FormatDate(panel.Date)
	case model.EditNextStep:
		input = panel.NextStep
	case model.EditActionItems:
		input = panel.ActionItems
	}

	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.Editing, s.Input = field, input
		s.StatusMessage = ""
	})
}

// submitEdit commits the input line
func (o *Orchestrator) submitEdit(ctx context.Context) {
	state := o.stateManager.GetInteractionState()

	var form editsession.Form
	switch state.Editing {
	case model.EditDate:
		form.Date = editsession.Text(state.Input)
	case model.EditNextStep:
		form.NextStep = editsession.Text(state.Input)
	case model.EditActionItems:
		form.ActionItems = editsession.Text(state.Input)
	}

	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.Editing, s.Input = model.EditNone, ""
	})

	if _, err := o.board.Controller().Submit(ctx, form); err != nil {
		var perr *editsession.PersistenceError
		if errors.As(err, &perr) {
			o.stateManager.SetStatus("Workbook not saved, the change is kept in memory")
		}
	}
}

// Close cleans up all resources
func (o *Orchestrator) Close() error {
	if o.watcher != nil {
		if err := o.watcher.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
		o.watcher = nil
	}
	return nil
}
