package models

// CellCategory is the rendered category of an overview cell.
type CellCategory string

const (
	CellMakeUp  CellCategory = "makeup"
	CellLate    CellCategory = "late"
	CellQR      CellCategory = "qr"
	CellPresent CellCategory = "present"
	CellAbsent  CellCategory = "absent"
)

// Icon returns the glyph shown for the category.
func (c CellCategory) Icon() string {
	switch c {
	case CellMakeUp:
		return "🔄"
	case CellLate:
		return "⏰"
	case CellQR:
		return "📱"
	case CellPresent:
		return "✅"
	default:
		return "❌"
	}
}

// Label is the plain text form used where glyphs cannot be rendered.
func (c CellCategory) Label() string {
	switch c {
	case CellMakeUp:
		return "R"
	case CellLate:
		return "A"
	case CellQR:
		return "Q"
	case CellPresent:
		return "P"
	default:
		return "F"
	}
}

// OverviewColumn is a lecture, or one fragment of a fragmented lecture.
type OverviewColumn struct {
	LectureID string `json:"lecture_id"`
	Fragment  int    `json:"fragment,omitempty"`
	Title     string `json:"title"`
	Date      string `json:"date,omitempty"`
}

// OverviewCell is the attendance of one student in one column.
type OverviewCell struct {
	Category CellCategory `json:"category"`
	Icon     string       `json:"icon"`
	Tooltip  string       `json:"tooltip"`
}

// OverviewRow is one student line of the matrix.
type OverviewRow struct {
	StudentID string         `json:"student_id"`
	Name      string         `json:"name"`
	Disabled  bool           `json:"disabled"`
	Cells     []OverviewCell `json:"cells"`
}

// OverviewMatrix is the class-wide attendance grid.
type OverviewMatrix struct {
	ClassID         string           `json:"class_id"`
	Columns         []OverviewColumn `json:"columns"`
	Rows            []OverviewRow    `json:"rows"`
	PresencePercent string           `json:"presence_percent"`
	GeneratedAt     string           `json:"generated_at"`
}
