package parser

import (
	"regexp"
	"strings"

	"mmrhub/internal/model"
)

// Label patterns shared by the extractors. Kept as a package-level table so
// format drift is fixed in one place.
var (
	reProjectName  = regexp.MustCompile(`project\s*name|name\s*of\s*project`)
	reProjectCode  = regexp.MustCompile(`project\s*code|\bcode\b`)
	reReportPeriod = regexp.MustCompile(`report.*period|month|period`)
	reTotalBudget  = regexp.MustCompile(`total.*budget|budget.*total|contract\s*value`)
	reExpenditure  = regexp.MustCompile(`actual.*expend|expend.*actual|expenditure`)
	rePhysProg     = regexp.MustCompile(`physical.*progress`)
	reFinProg      = regexp.MustCompile(`financial.*progress`)

	rePreparedBy = regexp.MustCompile(`prepared\s*by`)
	reCheckedBy  = regexp.MustCompile(`checked\s*by`)
	reApprovedBy = regexp.MustCompile(`approved\s*by`)

	reLocation      = regexp.MustCompile(`location|site`)
	reClient        = regexp.MustCompile(`client|employer`)
	reContractValue = regexp.MustCompile(`contract.*value|value.*contract`)
	reStartDate     = regexp.MustCompile(`start.*date|commencement`)
	reEndDate       = regexp.MustCompile(`end.*date|completion.*date`)
	reMilestones    = regexp.MustCompile(`milestones?|key.*dates`)

	rePhysicalTable  = regexp.MustCompile(`physical.*progress|activity|work.*item`)
	reFinancialTable = regexp.MustCompile(`financial.*progress|budget|expenditure`)
	reManpowerTable  = regexp.MustCompile(`manpower|category|designation`)
	reEquipmentTable = regexp.MustCompile(`equipment|machinery|plant`)
	reMaterialTable  = regexp.MustCompile(`materials?|item`)
)

// Extractor pulls typed annexure payloads out of classified sheets,
// accumulating errors and warnings instead of failing.
type Extractor struct {
	opts     AdapterOptions
	errors   []model.ParseError
	warnings []model.ParseWarning
}

// NewExtractor creates an extractor with the given adapter tolerances.
func NewExtractor(opts AdapterOptions) *Extractor {
	return &Extractor{opts: opts}
}

// Errors returns the accumulated parse errors.
func (e *Extractor) Errors() []model.ParseError {
	return e.errors
}

// Warnings returns the accumulated parse warnings.
func (e *Extractor) Warnings() []model.ParseWarning {
	return e.warnings
}

func (e *Extractor) addError(annexure, message string, severity model.Severity) {
	e.errors = append(e.errors, model.ParseError{
		Annexure: annexure,
		Message:  message,
		Severity: severity,
	})
}

func (e *Extractor) addWarning(annexure, message, suggestion string) {
	e.warnings = append(e.warnings, model.ParseWarning{
		Annexure:   annexure,
		Message:    message,
		Suggestion: suggestion,
	})
}

// labelValue resolves a label pattern to its adjacent value as text.
func labelValue(a *FormatAdapter, re *regexp.Regexp) string {
	ref, ok := a.FindCell(re)
	if !ok {
		return ""
	}
	cell, ok := a.FindRelativeValue(ref, DirAuto)
	if !ok {
		return ""
	}
	return cell.AsText()
}

// labelNumber resolves a label pattern to its adjacent numeric value.
func labelNumber(a *FormatAdapter, re *regexp.Regexp) float64 {
	ref, ok := a.FindCell(re)
	if !ok {
		return 0
	}
	cell, ok := a.FindRelativeValue(ref, DirAuto)
	if !ok {
		return 0
	}
	return cell.AsNumber()
}

// tableBelow extracts the first table whose header matches at or just below
// the anchor row. Many sheets put a title row above the real column header.
func tableBelow(a *FormatAdapter, anchor int, columns []TableColumn) []Record {
	for row := anchor; row <= anchor+a.opts.MaxRowOffset; row++ {
		if records := a.ExtractTable(row, columns); records != nil {
			return records
		}
	}
	return nil
}

// parseStatus classifies free-form milestone status text by keyword.
func parseStatus(s string) model.MilestoneStatus {
	status := strings.ToLower(s)
	switch {
	case strings.Contains(status, "complete"):
		return model.StatusCompleted
	case strings.Contains(status, "progress"):
		return model.StatusInProgress
	case strings.Contains(status, "delay"):
		return model.StatusDelayed
	default:
		return model.StatusPending
	}
}
