package model

// FileEvent represents a file system event
type FileEvent struct {
	Path      string
	Operation string
}

// EditField is the detail panel field receiving keyboard input.
type EditField int

const (
	EditNone EditField = iota
	EditDate
	EditNextStep
	EditActionItems
)

// Label returns the panel caption of the field.
func (f EditField) Label() string {
	switch f {
	case EditDate:
		return "Date"
	case EditNextStep:
		return "Next Step Plan"
	case EditActionItems:
		return "Action Items"
	default:
		return ""
	}
}

// InteractionState represents the current UI interaction state
type InteractionState struct {
	Category    string
	CursorRow   int
	CursorPoint int

	ShowHelp      bool
	IsLoading     bool
	StatusMessage string

	Editing EditField
	Input   string
}
