package fixtures

import (
	"fmt"
	"path/filepath"

	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/xuri/excelize/v2"
)

// Header is the first row of every generated sheet, followed by one column
// the board does not know about.
var Header = []interface{}{
	model.ColumnProject, model.ColumnSubEntity, model.ColumnStatus,
	model.MilestoneRFQSend, model.MilestoneDFMClose, model.MilestoneBizAward, model.MilestoneLineInstallation,
	model.MilestoneLineReadiness, model.MilestoneFirstOffProcess, model.MilestoneCExit, model.MilestoneTQP,
	model.ColumnNextStep, model.ColumnActionItems, "Owner",
}

// Sheet is one worksheet of a generated workbook. Rows exclude the header.
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// WorkbookGenerator writes test workbooks into a directory
type WorkbookGenerator struct {
	baseDir string
}

// NewWorkbookGenerator creates a generator writing into baseDir
func NewWorkbookGenerator(baseDir string) *WorkbookGenerator {
	return &WorkbookGenerator{
		baseDir: baseDir,
	}
}

// Generate writes the sheets, each headed by Header, to baseDir/name.
func (g *WorkbookGenerator) Generate(name string, sheets ...Sheet) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return "", err
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return "", err
		}

		header := Header
		if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
			return "", err
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return "", err
			}
			values := row
			if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
				return "", fmt.Errorf("sheet %s row %d: %w", s.Name, r+2, err)
			}
		}
	}

	path := filepath.Join(g.baseDir, name)
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

// GenerateTracking writes NPI_Tracking.xlsx with the three board
// categories:
//
//	Localization: Acme_S1 (Open) with RFQ 2024-01-10 and TQP 2024-09-30,
//	              Beta_S2 (Closed) with RFQ 2024-02-01,
//	              Gamma_S3 (High) with DFM 2024-03-15
//	Others:       Omega_O1 (Low) with RFQ 2024-02-02
//	Energy:       no rows
func (g *WorkbookGenerator) GenerateTracking() (string, error) {
	return g.Generate("NPI_Tracking.xlsx",
		Sheet{Name: model.CategoryLocalization, Rows: [][]interface{}{
			{"Acme", "S1", "Open", "2024-01-10", nil, nil, nil, nil, nil, nil, "2024-09-30", "Call supplier", "Send drawings", "Lin"},
			{"Beta", "S2", "Closed", "2024-02-01", nil, nil, nil, nil, nil, nil, nil, "Done", "", ""},
			{"Gamma", "S3", "High", nil, "2024-03-15", nil, nil, nil, nil, nil, nil, "", "Review tooling", ""},
		}},
		Sheet{Name: model.CategoryOthers, Rows: [][]interface{}{
			{"Omega", "O1", "Low", "2024-02-02"},
		}},
		Sheet{Name: model.CategoryEnergy},
	)
}
