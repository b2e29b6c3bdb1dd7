package commands

import (
	"context"
	"fmt"
	"slices"

	"github.com/penwyp/go-milestone-board/internal/application/board"
	"github.com/penwyp/go-milestone-board/internal/presentation/formatter"
	"github.com/penwyp/go-milestone-board/internal/util"
	"github.com/spf13/cobra"
)

var (
	exportCategory      string
	exportOutput        string
	exportIncludeClosed bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the plotted milestones",
	Long: `Prints every milestone the board would plot, one record per project and
milestone, in table, json, csv or summary form. Closed projects are skipped
unless --include-closed is given.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportCategory, "category", "c", "",
		"Only export this category (default all)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "table",
		"Output format (table, json, csv, summary)")
	exportCmd.Flags().BoolVar(&exportIncludeClosed, "include-closed", false,
		"Include projects with the closed status")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg, false); err != nil {
		return err
	}
	defer util.CloseLogger()

	f, err := formatter.New(exportOutput, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	categories := cfg.Categories
	if exportCategory != "" {
		if !slices.Contains(categories, exportCategory) {
			return fmt.Errorf("unknown category %q (have %v)", exportCategory, categories)
		}
		categories = []string{exportCategory}
	}

	b := board.New(cfg)
	if err := b.Reload(context.Background(), board.TriggerStartup); err != nil {
		return err
	}

	var records []formatter.PointRecord
	for _, c := range categories {
		points, err := b.Points(c, exportIncludeClosed)
		if err != nil {
			return err
		}
		records = append(records, formatter.Records(c, points)...)
	}
	return f.Format(records)
}
