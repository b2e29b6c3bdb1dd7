package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"gopkg.in/yaml.v3"
)

// Marker is a labelled reference date drawn across the chart.
type Marker struct {
	Date  civil.Date `yaml:"date"`
	Label string     `yaml:"label"`
}

// ServerConfig configures the HTTP dashboard.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LogConfig configures the application log.
type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"` // text, json
}

// Config contains the settings shared by every command
type Config struct {
	// Workbook location and layout
	Workbook     string       `yaml:"workbook"`
	Categories   []string     `yaml:"categories"`
	Schema       model.Schema `yaml:"schema"`
	ClosedStatus string       `yaml:"closed_status"`

	// Chart settings
	Markers  []Marker `yaml:"markers"`
	Timezone string   `yaml:"timezone"`

	// StrictDates rejects unparseable date input instead of clearing the
	// milestone.
	StrictDates bool `yaml:"strict_dates"`

	// Refresh settings
	UIRefreshInterval time.Duration `yaml:"ui_refresh_interval"`
	ReloadDebounce    time.Duration `yaml:"reload_debounce"`

	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// DefaultAddr keeps the dashboard on the loopback interface; commits are
// unauthenticated.
const DefaultAddr = "127.0.0.1:8050"

// Environment variables overriding the file settings.
const (
	EnvWorkbook = "MILESTONE_BOARD_WORKBOOK"
	EnvAddr     = "MILESTONE_BOARD_ADDR"
)

// Default returns a validated configuration with built-in defaults.
func Default() *Config {
	c := &Config{}
	_ = c.Validate()
	return c
}

// Load reads the YAML file at path over the defaults. An empty path skips
// the file. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvWorkbook)); v != "" {
		c.Workbook = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate fills unset fields with defaults and rejects inconsistent
// settings.
func (c *Config) Validate() error {
	if c.Workbook == "" {
		c.Workbook = "./NPI_Tracking.xlsx"
	}
	if len(c.Categories) == 0 {
		c.Categories = model.DefaultCategories()
	}
	c.Schema = withSchemaDefaults(c.Schema)
	if c.ClosedStatus == "" {
		c.ClosedStatus = model.StatusClosed
	}
	if c.Markers == nil {
		c.Markers = []Marker{{
			Date:  civil.Date{Year: 2024, Month: time.June, Day: 29},
			Label: "June 29, 2024",
		}}
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.UIRefreshInterval == 0 {
		c.UIRefreshInterval = time.Second
	}
	if c.ReloadDebounce == 0 {
		c.ReloadDebounce = 300 * time.Millisecond
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	var errs []error
	seen := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat) == "" {
			errs = append(errs, errors.New("category names must not be blank"))
			continue
		}
		if _, dup := seen[cat]; dup {
			errs = append(errs, fmt.Errorf("category %q listed twice", cat))
		}
		seen[cat] = struct{}{}
	}
	if err := checkSchema(c.Schema); err != nil {
		errs = append(errs, err)
	}
	for i, m := range c.Markers {
		if !m.Date.IsValid() {
			errs = append(errs, fmt.Errorf("marker %d has no valid date", i+1))
		}
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.Log.Format))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
	}
	return errors.Join(errs...)
}

func withSchemaDefaults(s model.Schema) model.Schema {
	d := model.DefaultSchema()
	if s.ProjectColumn == "" {
		s.ProjectColumn = d.ProjectColumn
	}
	if s.SubEntityColumn == "" {
		s.SubEntityColumn = d.SubEntityColumn
	}
	if s.StatusColumn == "" {
		s.StatusColumn = d.StatusColumn
	}
	if len(s.Milestones) == 0 {
		s.Milestones = d.Milestones
	}
	if s.NextStepColumn == "" {
		s.NextStepColumn = d.NextStepColumn
	}
	if s.ActionItemsColumn == "" {
		s.ActionItemsColumn = d.ActionItemsColumn
	}
	return s
}

// checkSchema rejects a header used for two different fields.
func checkSchema(s model.Schema) error {
	cols := s.Columns()
	for i, c := range cols {
		if slices.Contains(cols[i+1:], c) {
			return fmt.Errorf("schema column %q is used more than once", c)
		}
	}
	return nil
}
