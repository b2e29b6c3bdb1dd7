package config

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "./NPI_Tracking.xlsx", c.Workbook)
	assert.Equal(t, []string{"Localization", "Others", "Energy"}, c.Categories)
	assert.Equal(t, model.DefaultSchema(), c.Schema)
	assert.Equal(t, "Closed", c.ClosedStatus)
	assert.Equal(t, "127.0.0.1:8050", c.Server.Addr)
	assert.False(t, c.StrictDates)
	require.Len(t, c.Markers, 1)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.June, Day: 29}, c.Markers[0].Date)
	assert.Equal(t, "June 29, 2024", c.Markers[0].Label)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
workbook: /data/tracking.xlsx
categories: [Energy, Others]
closed_status: Done
strict_dates: true
markers:
  - date: 2025-01-01
    label: Kickoff
schema:
  sub_entity: Site
server:
  addr: 127.0.0.1:9000
  read_timeout: 5s
log:
  level: debug
  format: json
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/tracking.xlsx", c.Workbook)
	assert.Equal(t, []string{"Energy", "Others"}, c.Categories)
	assert.Equal(t, "Done", c.ClosedStatus)
	assert.True(t, c.StrictDates)
	assert.Equal(t, []Marker{{Date: civil.Date{Year: 2025, Month: time.January, Day: 1}, Label: "Kickoff"}}, c.Markers)
	assert.Equal(t, "Site", c.Schema.SubEntityColumn)
	assert.Equal(t, model.ColumnProject, c.Schema.ProjectColumn)
	assert.Len(t, c.Schema.Milestones, 8)
	assert.Equal(t, "127.0.0.1:9000", c.Server.Addr)
	assert.Equal(t, 5*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, c.Server.WriteTimeout)
	assert.Equal(t, "json", c.Log.Format)
}

func TestServerDefaultsToLoopback(t *testing.T) {
	c, err := Load(writeConfig(t, "workbook: /data/tracking.xlsx\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, c.Server.Addr)

	host, port, err := net.SplitHostPort(c.Server.Addr)
	require.NoError(t, err)
	assert.True(t, net.ParseIP(host).IsLoopback())
	assert.Equal(t, "8050", port)
}

func TestLoadEmptyMarkerListDisablesMarkers(t *testing.T) {
	c, err := Load(writeConfig(t, "markers: []\n"))
	require.NoError(t, err)
	assert.Empty(t, c.Markers)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvWorkbook, "/tmp/other.xlsx")
	t.Setenv(EnvAddr, ":9999")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.xlsx", c.Workbook)
	assert.Equal(t, ":9999", c.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "categories: [\n"))
	assert.Error(t, err)
}

func TestValidateRejectsInconsistentSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"duplicate category", Config{Categories: []string{"Energy", "Energy"}}},
		{"blank category", Config{Categories: []string{" "}}},
		{"shared column", Config{Schema: model.Schema{NextStepColumn: "Project"}}},
		{"bad log format", Config{Log: LogConfig{Format: "xml"}}},
		{"bad timezone", Config{Timezone: "Mars/Olympus"}},
		{"marker without date", Config{Markers: []Marker{{Label: "?"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			assert.Error(t, cfg.Validate())
		})
	}
}
