package model

// Category identifiers
const (
	CategoryLocalization = "Localization"
	CategoryOthers       = "Others"
	CategoryEnergy       = "Energy"
)

// Default sheet headers
const (
	ColumnProject     = "Project"
	ColumnSubEntity   = "SIE"
	ColumnStatus      = "Risk Level"
	ColumnNextStep    = "Next step plan"
	ColumnActionItems = "Action Items for Cindy"
)

// Milestone headers, in chart order
const (
	MilestoneRFQSend          = "RFQ send date"
	MilestoneDFMClose         = "DFM close date"
	MilestoneBizAward         = "Biz award date"
	MilestoneLineInstallation = "Line installation date"
	MilestoneLineReadiness    = "Line readiness date"
	MilestoneFirstOffProcess  = "First off process date"
	MilestoneCExit            = "C exit date"
	MilestoneTQP              = "TQP date"
)

// StatusClosed marks rows that are left out of the timeline.
const StatusClosed = "Closed"

// DefaultCategories returns the categories of the tracking workbook.
func DefaultCategories() []string {
	return []string{CategoryLocalization, CategoryOthers, CategoryEnergy}
}

// DefaultMilestones returns the eight tracked milestone columns.
func DefaultMilestones() []string {
	return []string{
		MilestoneRFQSend,
		MilestoneDFMClose,
		MilestoneBizAward,
		MilestoneLineInstallation,
		MilestoneLineReadiness,
		MilestoneFirstOffProcess,
		MilestoneCExit,
		MilestoneTQP,
	}
}
