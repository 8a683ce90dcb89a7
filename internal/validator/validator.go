// Package validator applies schema and business-rule checks to an assembled
// report. Validation never raises: it always returns a structured result.
// Required-field failures are errors, heuristic mismatches are warnings with
// a human-readable suggestion.
package validator

import (
	"fmt"
	"math"
	"time"

	"mmrhub/internal/model"
)

// Tolerances are the business-policy thresholds. Defaults preserve the
// values the report reviewers signed off on.
type Tolerances struct {
	ProgressGapPoints    float64       // physical ahead of financial by more than this -> warning
	MilestoneDelay       time.Duration // actual date behind planned by more than this -> warning
	OverrunRatio         float64       // actual over budgeted by more than this fraction -> warning
	VarianceEpsilon      float64       // stated vs recomputed variance tolerance
	ActivityProgressGap  float64       // stated vs recomputed activity progress, percentage points
	ReconcileTolerance   float64       // summary expenditure vs financial detail total, currency units
}

// DefaultTolerances returns the thresholds used in production.
func DefaultTolerances() Tolerances {
	return Tolerances{
		ProgressGapPoints:   20,
		MilestoneDelay:      30 * 24 * time.Hour,
		OverrunRatio:        0.10,
		VarianceEpsilon:     0.01,
		ActivityProgressGap: 5,
		ReconcileTolerance:  100,
	}
}

// Result is the outcome of one validation run.
type Result struct {
	Valid    bool                 `json:"valid"`
	Errors   []model.ParseError   `json:"errors"`
	Warnings []model.ParseWarning `json:"warnings"`
}

// Validator checks reports against schema rules and cross-annexure
// reconciliation.
type Validator struct {
	tol Tolerances
	now func() time.Time
}

// New creates a validator with the given tolerances.
func New(tol Tolerances) *Validator {
	return &Validator{tol: tol, now: time.Now}
}

// Validate runs all checks against a report. Valid is false only when an
// error-severity finding exists; warnings never block.
func (v *Validator) Validate(report *model.Report) Result {
	res := Result{Errors: []model.ParseError{}, Warnings: []model.ParseWarning{}}

	v.validateSummary(report, &res)
	if report.Annexures.Overview != nil {
		v.validateOverview(report.Annexures.Overview, &res)
	}
	if report.Annexures.Physical != nil {
		v.validatePhysical(report.Annexures.Physical, &res)
	}
	if report.Annexures.Financial != nil {
		v.validateFinancial(report.Annexures.Financial, &res)
	}
	v.crossValidate(report, &res)

	res.Valid = len(res.Errors) == 0
	return res
}

func (v *Validator) validateSummary(report *model.Report, res *Result) {
	s := report.Summary
	if s.TotalBudget <= 0 {
		addError(res, "Summary", "total budget must be positive")
	}
	if s.ActualExpenditure < 0 {
		addError(res, "Summary", "actual expenditure must not be negative")
	}
	if s.PhysicalProgress < 0 || s.PhysicalProgress > 100 {
		addError(res, "Summary", fmt.Sprintf("physical progress %.1f outside 0-100", s.PhysicalProgress))
	}
	if s.FinancialProgress < 0 || s.FinancialProgress > 100 {
		addError(res, "Summary", fmt.Sprintf("financial progress %.1f outside 0-100", s.FinancialProgress))
	}

	if s.PhysicalProgress > s.FinancialProgress+v.tol.ProgressGapPoints {
		addWarning(res, "Summary",
			"physical progress significantly ahead of financial progress",
			"verify if this is expected or if there are pending payments")
	}
}

func (v *Validator) validateOverview(overview *model.Overview, res *Result) {
	d := overview.ProjectDetails
	if d.Name == "" {
		addError(res, "Overview", "project name is required")
	}
	if !d.StartDate.IsZero() && !d.EndDate.IsZero() && !d.EndDate.After(d.StartDate) {
		addError(res, "Overview", "end date must be after start date")
	}

	for i, m := range overview.Milestones {
		if m.ActualDate == nil || m.PlannedDate.IsZero() {
			continue
		}
		if m.ActualDate.Sub(m.PlannedDate) > v.tol.MilestoneDelay {
			addWarning(res, "Overview",
				fmt.Sprintf("milestone %d delayed by more than %d days", i+1, int(v.tol.MilestoneDelay.Hours()/24)),
				"update project schedule or provide justification")
		}
	}
}

func (v *Validator) validatePhysical(physical *model.PhysicalProgress, res *Result) {
	for i, act := range physical.Activities {
		if act.PlannedQty < 0 || act.ActualQty < 0 {
			addError(res, "Physical Progress",
				fmt.Sprintf("activity %d has negative quantities", i+1))
		}
		if act.PlannedQty > 0 {
			calculated := act.ActualQty / act.PlannedQty * 100
			if math.Abs(calculated-act.Progress) > v.tol.ActivityProgressGap {
				addWarning(res, "Physical Progress",
					fmt.Sprintf("activity %d progress does not match quantities", i+1),
					"verify progress calculation")
			}
		}
	}
}

func (v *Validator) validateFinancial(financial *model.FinancialProgress, res *Result) {
	for _, item := range financial.BudgetItems {
		// Recomputation is advisory; the stated figure is retained.
		expected := item.Actual - item.Budgeted
		if math.Abs(expected-item.Variance) > v.tol.VarianceEpsilon {
			addWarning(res, "Financial Progress",
				fmt.Sprintf("variance for %q does not match actual minus budgeted", item.Category),
				"recalculate variance")
		}
		if item.Budgeted > 0 && item.Actual > item.Budgeted*(1+v.tol.OverrunRatio) {
			addWarning(res, "Financial Progress",
				fmt.Sprintf("budget overrun for %q", item.Category),
				"review budget allocation")
		}
	}
}

func (v *Validator) crossValidate(report *model.Report, res *Result) {
	if fin := report.Annexures.Financial; fin != nil && len(fin.BudgetItems) > 0 {
		total := 0.0
		for _, item := range fin.BudgetItems {
			total += item.Actual
		}
		if math.Abs(total-report.Summary.ActualExpenditure) > v.tol.ReconcileTolerance {
			addWarning(res, "Cross-validation",
				"summary expenditure does not match financial annexure total",
				"reconcile summary with detailed annexures")
		}
	}

	if ov := report.Annexures.Overview; ov != nil && !ov.ProjectDetails.EndDate.IsZero() {
		if ov.ProjectDetails.EndDate.Before(v.now()) && report.Summary.PhysicalProgress < 100 {
			addWarning(res, "Cross-validation",
				"project past end date but not complete",
				"update project schedule or completion status")
		}
	}
}

func addError(res *Result, annexure, message string) {
	res.Errors = append(res.Errors, model.ParseError{
		Annexure: annexure,
		Message:  message,
		Severity: model.SeverityError,
	})
}

func addWarning(res *Result, annexure, message, suggestion string) {
	res.Warnings = append(res.Warnings, model.ParseWarning{
		Annexure:   annexure,
		Message:    message,
		Suggestion: suggestion,
	})
}
