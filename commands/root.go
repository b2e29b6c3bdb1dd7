package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/penwyp/go-milestone-board/internal/application/board"
	"github.com/penwyp/go-milestone-board/internal/config"
	"github.com/penwyp/go-milestone-board/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Workbook and settings
	configFile   string
	workbookFile string

	// Board related
	category    string
	strictDates bool

	rootCmd = &cobra.Command{
		Use:   "milestone-board [flags]",
		Short: "NPI milestone timeline board",
		Long: `milestone-board shows the milestones of every open project in the NPI tracking
workbook as a timeline, one sheet per category, and lets you edit dates and notes
in place. Edits are written back to the workbook immediately.

Keys: arrows or hjkl move, Tab switches category, Enter shows a milestone,
d/n/a edit the date, next step plan or action items, r reloads, ? help, q quits.

Examples:
  milestone-board                                   # Open ./NPI_Tracking.xlsx
  milestone-board --file ~/share/NPI_Tracking.xlsx  # Open another workbook
  milestone-board --category Energy                 # Start on the Energy sheet
  milestone-board serve --addr 127.0.0.1:8050       # Serve the dashboard over HTTP
  milestone-board export --output csv               # Print all open milestones as CSV`,
		SilenceUsage: true,
		RunE:         runBoard,
	}
)

const (
	defaultLogFile    = "~/.milestone-board/logs/app.log"
	defaultConfigFile = "~/.milestone-board/config.yaml"
)

func init() {
	// Input configuration
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Config file (default "+defaultConfigFile+" when present)")
	rootCmd.PersistentFlags().StringVarP(&workbookFile, "file", "f", "",
		"Tracking workbook path (overrides config and "+config.EnvWorkbook+")")

	// Board configuration
	rootCmd.Flags().StringVarP(&category, "category", "c", "",
		"Category sheet to show first")
	rootCmd.Flags().BoolVar(&strictDates, "strict-dates", false,
		"Reject unparseable dates instead of clearing the milestone")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func runBoard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if strictDates {
		cfg.StrictDates = true
	}

	// The terminal belongs to the board, so logs only go to the file.
	if err := initLogging(cfg, false); err != nil {
		return err
	}
	defer util.CloseLogger()

	orchestrator, err := board.NewOrchestrator(cfg, category)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return orchestrator.Run(ctx)
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (*config.Config, error) {
	path := configFile
	if path == "" {
		if p := expandPath(defaultConfigFile); fileExists(p) {
			path = p
		}
	} else {
		path = expandPath(path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if workbookFile != "" {
		cfg.Workbook = workbookFile
	}
	cfg.Workbook = expandPath(cfg.Workbook)
	if debug {
		cfg.Log.Level = "debug"
	}

	if !fileExists(cfg.Workbook) {
		return nil, fmt.Errorf("workbook %s not found", cfg.Workbook)
	}
	return cfg, nil
}

// initLogging opens the log file, and mirrors logs to stderr when console
// is set or in debug mode without a terminal UI.
func initLogging(cfg *config.Config, console bool) error {
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = defaultLogFile
	}
	logFile = expandPath(logFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(cfg.Log.Level, logFile, util.LogFormat(cfg.Log.Format), console); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// signalContext is cancelled on interrupt or terminate.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
