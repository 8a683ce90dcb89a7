package model

import "time"

// AnnexureType is the semantic type of one sheet of a monthly report.
type AnnexureType string

const (
	AnnexureSummary   AnnexureType = "summary"
	AnnexureOverview  AnnexureType = "overview"
	AnnexurePhysical  AnnexureType = "physical_progress"
	AnnexureFinancial AnnexureType = "financial_progress"
	AnnexureManpower  AnnexureType = "manpower"
	AnnexureEquipment AnnexureType = "equipment"
	AnnexureMaterials AnnexureType = "materials"
	AnnexureSchedule  AnnexureType = "schedule"
	AnnexureSafety    AnnexureType = "safety"
	AnnexureQuality   AnnexureType = "quality"
	AnnexureOther     AnnexureType = "other"
)

// Severity of a parse error.
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// ParseError is a blocking finding. Critical severity fails the whole parse;
// plain errors lower confidence but keep the partial report.
type ParseError struct {
	Annexure string   `json:"annexure"`
	Cell     string   `json:"cell,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ParseWarning is advisory only and never blocks parse success.
type ParseWarning struct {
	Annexure   string `json:"annexure"`
	Cell       string `json:"cell,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// SummaryMetrics is the headline block of a monthly report.
type SummaryMetrics struct {
	TotalBudget       float64 `json:"totalBudget"`
	ActualExpenditure float64 `json:"actualExpenditure"`
	PhysicalProgress  float64 `json:"physicalProgress"`
	FinancialProgress float64 `json:"financialProgress"`
	Variance          float64 `json:"variance"`
}

// SummaryInfo identifies the project and reporting period from the summary sheet.
type SummaryInfo struct {
	ProjectName     string `json:"projectName"`
	ProjectCode     string `json:"projectCode"`
	ReportingPeriod string `json:"reportingPeriod"`
	PreparedBy      string `json:"preparedBy,omitempty"`
	CheckedBy       string `json:"checkedBy,omitempty"`
	ApprovedBy      string `json:"approvedBy,omitempty"`
}

// MilestoneStatus is the normalized status of one project milestone.
type MilestoneStatus string

const (
	StatusCompleted  MilestoneStatus = "Completed"
	StatusInProgress MilestoneStatus = "In Progress"
	StatusDelayed    MilestoneStatus = "Delayed"
	StatusPending    MilestoneStatus = "Pending"
)

// ProjectDetails are the contract-level facts from the overview annexure.
type ProjectDetails struct {
	Name           string     `json:"name"`
	Location       string     `json:"location"`
	Client         string     `json:"client"`
	ContractValue  float64    `json:"contractValue"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        time.Time  `json:"endDate"`
	RevisedEndDate *time.Time `json:"revisedEndDate,omitempty"`
}

// Milestone is one row of the overview milestones table.
type Milestone struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	PlannedDate time.Time       `json:"plannedDate"`
	ActualDate  *time.Time      `json:"actualDate,omitempty"`
	Status      MilestoneStatus `json:"status"`
	Remarks     string          `json:"remarks,omitempty"`
}

// Overview is the project-overview annexure payload.
type Overview struct {
	ProjectDetails ProjectDetails `json:"projectDetails"`
	Milestones     []Milestone    `json:"milestones"`
}

// Activity is one row of the physical-progress annexure.
type Activity struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	PlannedQty  float64 `json:"plannedQty"`
	ActualQty   float64 `json:"actualQty"`
	Progress    float64 `json:"progress"`
	Variance    float64 `json:"variance"`
}

// PhysicalProgress is the physical-progress annexure payload.
type PhysicalProgress struct {
	Activities []Activity `json:"activities"`
}

// BudgetItem is one row of the financial-progress annexure.
type BudgetItem struct {
	Category        string  `json:"category"`
	Budgeted        float64 `json:"budgeted"`
	Actual          float64 `json:"actual"`
	Committed       float64 `json:"committed"`
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variancePercent"`
}

// FinancialProgress is the financial-progress annexure payload.
type FinancialProgress struct {
	BudgetItems []BudgetItem `json:"budgetItems"`
}

// ManpowerEntry is one row of the manpower annexure.
type ManpowerEntry struct {
	Category string  `json:"category"`
	Planned  float64 `json:"planned"`
	Actual   float64 `json:"actual"`
	Variance float64 `json:"variance"`
	Remarks  string  `json:"remarks,omitempty"`
}

// EquipmentEntry is one row of the equipment annexure.
type EquipmentEntry struct {
	Type        string  `json:"type"`
	Planned     float64 `json:"planned"`
	Deployed    float64 `json:"deployed"`
	Operational float64 `json:"operational"`
	Breakdown   float64 `json:"breakdown"`
	Utilization float64 `json:"utilization"`
}

// MaterialEntry is one row of the materials annexure.
type MaterialEntry struct {
	Item     string  `json:"item"`
	Unit     string  `json:"unit"`
	Planned  float64 `json:"planned"`
	Procured float64 `json:"procured"`
	Consumed float64 `json:"consumed"`
	Stock    float64 `json:"stock"`
	Remarks  string  `json:"remarks,omitempty"`
}

// Annexures maps annexure types to their extracted payloads. A nil field
// means the corresponding sheet was absent or unclassified.
type Annexures struct {
	Summary   *SummaryInfo       `json:"summary,omitempty"`
	Overview  *Overview          `json:"overview,omitempty"`
	Physical  *PhysicalProgress  `json:"physicalProgress,omitempty"`
	Financial *FinancialProgress `json:"financialProgress,omitempty"`
	Manpower  []ManpowerEntry    `json:"manpower,omitempty"`
	Equipment []EquipmentEntry   `json:"equipment,omitempty"`
	Materials []MaterialEntry    `json:"materials,omitempty"`
}

// SheetInfo is one entry of the raw-sheet inventory, kept for diagnostics
// even when a sheet is unclassified.
type SheetInfo struct {
	Name     string       `json:"name"`
	Type     AnnexureType `json:"type"`
	RowCount int          `json:"rowCount"`
	ColCount int          `json:"colCount"`
	HasData  bool         `json:"hasData"`
}

// ReportMetadata carries provenance and quality signals for one parse.
type ReportMetadata struct {
	FileName   string         `json:"fileName"`
	UploadedAt time.Time      `json:"uploadedAt"`
	ParsedAt   time.Time      `json:"parsedAt"`
	Confidence int            `json:"parseConfidence"`
	Errors     []ParseError   `json:"errors,omitempty"`
	Warnings   []ParseWarning `json:"warnings,omitempty"`
}

// Report is the normalized output of one successful workbook parse.
type Report struct {
	ID         string         `json:"id,omitempty"`
	ProjectID  string         `json:"projectId"`
	Month      string         `json:"month"`
	Year       int            `json:"year"`
	ReportDate time.Time      `json:"reportDate"`
	Summary    SummaryMetrics `json:"summary"`
	Annexures  Annexures      `json:"annexures"`
	RawSheets  []SheetInfo    `json:"rawSheets"`
	Metadata   ReportMetadata `json:"metadata"`
}

// ParseResult is what the parse entry point always returns: a report when one
// could be assembled, plus the full error and warning lists either way.
type ParseResult struct {
	Success    bool           `json:"success"`
	Report     *Report        `json:"data,omitempty"`
	Errors     []ParseError   `json:"errors"`
	Warnings   []ParseWarning `json:"warnings"`
	Confidence int            `json:"confidence"`
}

// CriticalCount returns the number of critical errors in the result.
func (r *ParseResult) CriticalCount() int {
	n := 0
	for _, e := range r.Errors {
		if e.Severity == SeverityCritical {
			n++
		}
	}
	return n
}
