package commands

import (
	"fmt"

	"github.com/penwyp/go-milestone-board/internal/application/board"
	"github.com/penwyp/go-milestone-board/internal/config"
	"github.com/penwyp/go-milestone-board/internal/core/monitoring"
	"github.com/penwyp/go-milestone-board/internal/server"
	"github.com/penwyp/go-milestone-board/internal/util"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the milestone board over HTTP",
	Long: `Serves the timeline as a web page: click a milestone to see the project,
edit the form and press Update to write the change back to the workbook.

The JSON API lives under /api, Prometheus metrics under /metrics and a health
check under /healthz. The workbook is reloaded when it changes on disk.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"Listen address (overrides config, default "+config.DefaultAddr+")")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	if err := initLogging(cfg, true); err != nil {
		return err
	}
	defer util.CloseLogger()
	if err := util.InitializeTimeProvider(cfg.Timezone); err != nil {
		return fmt.Errorf("failed to initialize timezone: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	b := board.New(cfg)
	if err := b.Reload(ctx, board.TriggerStartup); err != nil {
		return err
	}

	watcher, err := monitoring.NewFileWatcher(cfg.Workbook)
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()
	go b.Watch(ctx, watcher.Events(), cfg.ReloadDebounce)

	srv, err := server.New(b)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", cfg.Workbook, displayAddr(cfg.Server.Addr))
	return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
}

// displayAddr turns ":8050" into "localhost:8050" for printing.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
