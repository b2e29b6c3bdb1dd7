package editsession

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
	"github.com/penwyp/go-milestone-board/internal/core/timeline"
	"github.com/penwyp/go-milestone-board/internal/data/store"
	"github.com/penwyp/go-milestone-board/internal/data/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeGateway struct {
	mu     sync.Mutex
	err    error
	writes []string
	tables []*model.Table
}

func (g *fakeGateway) WriteBack(ctx context.Context, category string, table *model.Table) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	g.writes = append(g.writes, category)
	g.tables = append(g.tables, table)
	return g.err
}

func date(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

const acmeKey = "Acme_S1 (Open)"

func newFixture(t *testing.T, opts Options) (*Controller, *store.Store, *fakeGateway) {
	t.Helper()
	st := store.New(model.DefaultCategories())

	acme := model.NewRow("Acme", "S1", "Open")
	acme.SetDate(model.MilestoneRFQSend, date(2023, 12, 1))
	acme.NextStep = "Call supplier"
	acme.ActionItems = "Send drawings"
	other := model.NewRow("Acme", "S1", "Closed")
	other.NextStep = "untouched"

	require.NoError(t, st.Replace(model.CategoryLocalization, &model.Table{Rows: []*model.Row{acme, other}}))

	gw := &fakeGateway{}
	return NewController(st, gw, opts), st, gw
}

func TestSelectShowsRow(t *testing.T) {
	c, _, _ := newFixture(t, Options{})

	p, err := c.Select(Selection{
		Category:  model.CategoryLocalization,
		Key:       acmeKey,
		Milestone: model.MilestoneRFQSend,
		Date:      date(2023, 12, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, Viewing, p.State)
	assert.Equal(t, "Project: Acme_S1 (Open)", p.Title())
	assert.Equal(t, "Call supplier", p.NextStep)
	assert.Equal(t, "Send drawings", p.ActionItems)
	assert.Equal(t, date(2023, 12, 1), p.Date)
	assert.Equal(t, p, c.Panel())
}

func TestSelectFailuresLeaveSessionIdle(t *testing.T) {
	tests := []struct {
		name   string
		sel    Selection
		target error
	}{
		{"malformed key", Selection{Category: model.CategoryLocalization, Key: "ProjectOnly"}, rowkey.ErrMalformedKey},
		{"unknown category", Selection{Category: "Finance", Key: acmeKey}, store.ErrUnknownCategory},
		{"stale key", Selection{Category: model.CategoryLocalization, Key: "Acme_S9 (Open)"}, store.ErrRowNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newFixture(t, Options{})
			_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey})
			require.NoError(t, err)

			p, err := c.Select(tt.sel)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, Idle, p.State)
			assert.Equal(t, err.Error(), p.Message)
			assert.Equal(t, Idle, c.State())
		})
	}
}

func TestSelectMalformedKeyNamesKey(t *testing.T) {
	c, _, _ := newFixture(t, Options{})
	p, err := c.Select(Selection{Category: model.CategoryLocalization, Key: "ProjectOnly"})

	var derr *rowkey.DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, p.Message, "ProjectOnly")
}

func TestSelectDiscardsPendingSelection(t *testing.T) {
	c, _, _ := newFixture(t, Options{})
	_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey, Milestone: model.MilestoneRFQSend})
	require.NoError(t, err)

	p, err := c.Select(Selection{Category: model.CategoryLocalization, Key: "Acme_S1 (Closed)"})
	require.NoError(t, err)
	assert.Equal(t, "Closed", p.Key.Status)
	assert.Empty(t, p.Milestone)
}

func TestSubmitWithoutSelection(t *testing.T) {
	c, _, gw := newFixture(t, Options{})

	_, err := c.Submit(context.Background(), Form{NextStep: Text("x")})
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.Empty(t, gw.writes)
}

func TestSubmitNotesChangesOnlyThatRow(t *testing.T) {
	c, st, gw := newFixture(t, Options{})
	before, err := st.Snapshot(model.CategoryLocalization)
	require.NoError(t, err)

	_, err = c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey})
	require.NoError(t, err)

	msg, err := c.Submit(context.Background(), Form{NextStep: Text("Visit plant"), ActionItems: Text("Approve PO")})
	require.NoError(t, err)
	assert.Equal(t, "Updated Acme_S1 (Open): Next step plan, Action Items for Cindy", msg)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, msg, c.Panel().Message)

	after, err := st.Snapshot(model.CategoryLocalization)
	require.NoError(t, err)
	assert.Equal(t, "Visit plant", after.Rows[0].NextStep)
	assert.Equal(t, "Approve PO", after.Rows[0].ActionItems)
	assert.Equal(t, before.Rows[0].Dates, after.Rows[0].Dates)
	assert.Equal(t, before.Rows[1], after.Rows[1])

	assert.Equal(t, []string{model.CategoryLocalization}, gw.writes)
	assert.Equal(t, after, gw.tables[0])
}

func TestSubmitDate(t *testing.T) {
	c, st, _ := newFixture(t, Options{})
	_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey, Milestone: model.MilestoneTQP})
	require.NoError(t, err)

	msg, err := c.Submit(context.Background(), Form{Date: Text("2024-06-29")})
	require.NoError(t, err)
	assert.Equal(t, "Updated Acme_S1 (Open): TQP date = 2024-06-29", msg)

	row, err := st.Lookup(model.CategoryLocalization, rowkey.Key{Project: "Acme", SubEntity: "S1", Status: "Open"})
	require.NoError(t, err)
	got, ok := row.Date(model.MilestoneTQP)
	require.True(t, ok)
	assert.Equal(t, date(2024, 6, 29), got)
}

func TestSubmitUnparseableDateClearsMilestone(t *testing.T) {
	c, st, gw := newFixture(t, Options{})
	_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey, Milestone: model.MilestoneRFQSend})
	require.NoError(t, err)

	msg, err := c.Submit(context.Background(), Form{Date: Text("not-a-date")})
	require.NoError(t, err)
	assert.Contains(t, msg, "RFQ send date cleared")
	assert.Contains(t, msg, `"not-a-date" is not a date`)

	var perr *model.DateParseError
	assert.ErrorAs(t, c.Panel().Err, &perr)

	row, err := st.Lookup(model.CategoryLocalization, rowkey.Key{Project: "Acme", SubEntity: "S1", Status: "Open"})
	require.NoError(t, err)
	_, ok := row.Date(model.MilestoneRFQSend)
	assert.False(t, ok)
	assert.Len(t, gw.writes, 1)
}

func TestSubmitEmptyDateClearsWithoutNotice(t *testing.T) {
	c, _, _ := newFixture(t, Options{})
	_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey, Milestone: model.MilestoneRFQSend})
	require.NoError(t, err)

	msg, err := c.Submit(context.Background(), Form{Date: Text("  ")})
	require.NoError(t, err)
	assert.Equal(t, "Updated Acme_S1 (Open): RFQ send date cleared", msg)
	assert.NoError(t, c.Panel().Err)
}

func TestSubmitStrictDatesRejects(t *testing.T) {
	c, st, gw := newFixture(t, Options{StrictDates: true})
	_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey, Milestone: model.MilestoneRFQSend})
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), Form{Date: Text("31/31/2024")})
	var perr *model.DateParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, Viewing, c.State(), "selection kept for correction")
	assert.Empty(t, gw.writes)

	row, err := st.Lookup(model.CategoryLocalization, rowkey.Key{Project: "Acme", SubEntity: "S1", Status: "Open"})
	require.NoError(t, err)
	got, _ := row.Date(model.MilestoneRFQSend)
	assert.Equal(t, date(2023, 12, 1), got)

	_, err = c.Submit(context.Background(), Form{Date: Text("2024-02-02")})
	assert.NoError(t, err)
}

func TestSubmitRejectsIncompleteForms(t *testing.T) {
	c, _, gw := newFixture(t, Options{})
	_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey})
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), Form{})
	assert.ErrorIs(t, err, ErrEmptyForm)

	_, err = c.Submit(context.Background(), Form{Date: Text("2024-01-01")})
	assert.ErrorIs(t, err, ErrNoMilestone)
	assert.Equal(t, Viewing, c.State())
	assert.Empty(t, gw.writes)
}

func TestSubmitPersistenceFailureKeepsMemory(t *testing.T) {
	c, st, gw := newFixture(t, Options{})
	gw.err = errors.New("disk full")

	_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey})
	require.NoError(t, err)
	_, err = c.Submit(context.Background(), Form{NextStep: Text("Escalate")})

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Acme", perr.Key.Project)
	assert.Contains(t, c.Panel().Message, "disk full")
	assert.Equal(t, Idle, c.State())

	row, err := st.Lookup(model.CategoryLocalization, rowkey.Key{Project: "Acme", SubEntity: "S1", Status: "Open"})
	require.NoError(t, err)
	assert.Equal(t, "Escalate", row.NextStep, "no rollback")
}

func TestSubmitCancelledContextSkipsWrite(t *testing.T) {
	c, _, gw := newFixture(t, Options{})
	_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Submit(ctx, Form{NextStep: Text("later")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gw.writes)
}

func TestSubmitRowRemovedByReload(t *testing.T) {
	c, st, gw := newFixture(t, Options{})
	_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey})
	require.NoError(t, err)

	require.NoError(t, st.Replace(model.CategoryLocalization, &model.Table{}))

	_, err = c.Submit(context.Background(), Form{NextStep: Text("gone")})
	assert.ErrorIs(t, err, store.ErrRowNotFound)
	assert.Equal(t, Idle, c.State())
	assert.Empty(t, gw.writes)
}

func TestCancel(t *testing.T) {
	c, _, _ := newFixture(t, Options{})
	_, err := c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey})
	require.NoError(t, err)

	c.Cancel()
	assert.Equal(t, Idle, c.State())
	assert.Empty(t, c.Panel().Title())
}

func TestConcurrentSubmitsAreSerialized(t *testing.T) {
	c, _, gw := newFixture(t, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Select(Selection{Category: model.CategoryLocalization, Key: acmeKey})
			_, _ = c.Submit(context.Background(), Form{NextStep: Text("n")})
		}()
	}
	wg.Wait()

	assert.NotEmpty(t, gw.writes)
	assert.LessOrEqual(t, len(gw.writes), 8)
}

func TestEndToEndDateEditPersists(t *testing.T) {
	header := []interface{}{
		"Project", "SIE", "Risk Level",
		"RFQ send date", "DFM close date", "Biz award date", "Line installation date",
		"Line readiness date", "First off process date", "C exit date", "TQP date",
		"Next step plan", "Action Items for Cindy",
	}
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", model.CategoryLocalization))
	require.NoError(t, f.SetSheetRow(model.CategoryLocalization, "A1", &header))
	acme := []interface{}{"Acme", "S1", "Open", "2023-12-01", nil, nil, nil, nil, nil, nil, nil, "Call supplier", "Send drawings"}
	require.NoError(t, f.SetSheetRow(model.CategoryLocalization, "A2", &acme))
	for _, name := range []string{model.CategoryOthers, model.CategoryEnergy} {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(name, "A1", &header))
	}
	require.NoError(t, f.SetCellValue(model.CategoryEnergy, "A2", "Volt"))
	require.NoError(t, f.SetCellValue(model.CategoryEnergy, "B2", "E1"))
	path := filepath.Join(t.TempDir(), "NPI_Tracking.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ctx := context.Background()
	wb := workbook.New(path, model.DefaultSchema(), model.DefaultCategories())
	tables, err := wb.Load(ctx)
	require.NoError(t, err)
	st := store.New(model.DefaultCategories())
	require.NoError(t, st.ReplaceAll(tables))

	table, err := st.Snapshot(model.CategoryLocalization)
	require.NoError(t, err)
	points := slices.Collect(timeline.Project(table, model.DefaultMilestones(), model.StatusClosed))
	require.Len(t, points, 1)
	clicked := points[0]
	require.Equal(t, model.MilestoneRFQSend, clicked.Milestone)

	c := NewController(st, wb, Options{})
	p, err := c.Select(Selection{
		Category:  model.CategoryLocalization,
		Key:       clicked.Label,
		Milestone: clicked.Milestone,
		Date:      clicked.Date,
	})
	require.NoError(t, err)
	assert.Equal(t, "Call supplier", p.NextStep)
	assert.Equal(t, "Send drawings", p.ActionItems)

	_, err = c.Submit(ctx, Form{Date: Text("2024-01-15")})
	require.NoError(t, err)

	row, err := st.Lookup(model.CategoryLocalization, clicked.Key)
	require.NoError(t, err)
	got, _ := row.Date(model.MilestoneRFQSend)
	assert.Equal(t, date(2024, 1, 15), got)

	out, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer out.Close()
	cell, err := out.GetCellValue(model.CategoryLocalization, "D2")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", cell)

	energy, err := out.GetRows(model.CategoryEnergy)
	require.NoError(t, err)
	require.Len(t, energy, 2)
	assert.Equal(t, []string{"Volt", "E1"}, energy[1])
	others, err := out.GetRows(model.CategoryOthers)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
