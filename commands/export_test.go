package commands

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-milestone-board/internal/presentation/formatter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	resetFlags(t)
	out, err := run(t, "export", "--file", trackingWorkbook(t), "--output", "csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Localization", "Acme", "S1", "Open", "RFQ send date", "2024-01-10"}, rows[1])
	assert.Equal(t, []string{"Others", "Omega", "O1", "Low", "RFQ send date", "2024-02-02"}, rows[4])
}

func TestExportJSONIncludeClosed(t *testing.T) {
	resetFlags(t)
	out, err := run(t, "export", "--file", trackingWorkbook(t), "--output", "json",
		"--category", "Localization", "--include-closed")
	require.NoError(t, err)

	var recs []formatter.PointRecord
	require.NoError(t, sonic.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 4)
	assert.Equal(t, "Beta_S2 (Closed)", recs[2].Key)
}

func TestExportErrors(t *testing.T) {
	resetFlags(t)
	book := trackingWorkbook(t)

	_, err := run(t, "export", "--file", book, "--output", "xml")
	assert.ErrorContains(t, err, "unsupported output format")

	resetFlags(t)
	_, err = run(t, "export", "--file", book, "--category", "Aerospace")
	assert.ErrorContains(t, err, "unknown category")
}
