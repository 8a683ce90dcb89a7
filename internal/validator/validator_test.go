package validator

import (
	"testing"
	"time"

	"mmrhub/internal/model"
)

func baseReport() *model.Report {
	return &model.Report{
		ProjectID: "PRJ001",
		Month:     "March",
		Year:      2024,
		Summary: model.SummaryMetrics{
			TotalBudget:       50000000,
			ActualExpenditure: 35000000,
			PhysicalProgress:  65,
			FinancialProgress: 70,
		},
	}
}

func TestValidate_CleanReport(t *testing.T) {
	t.Parallel()

	res := New(DefaultTolerances()).Validate(baseReport())
	if !res.Valid {
		t.Fatalf("expected valid, errors=%v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestValidate_SummarySchemaErrors(t *testing.T) {
	t.Parallel()

	report := baseReport()
	report.Summary.TotalBudget = 0
	report.Summary.ActualExpenditure = -1
	report.Summary.PhysicalProgress = 120

	res := New(DefaultTolerances()).Validate(report)
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if len(res.Errors) != 3 {
		t.Fatalf("want 3 errors, got %v", res.Errors)
	}
}

func TestValidate_ProgressGapWarning(t *testing.T) {
	t.Parallel()

	report := baseReport()
	report.Summary.PhysicalProgress = 80
	report.Summary.FinancialProgress = 50

	res := New(DefaultTolerances()).Validate(report)
	if !res.Valid {
		t.Fatalf("gap is a warning, not an error: %v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("want 1 warning, got %v", res.Warnings)
	}

	// Exactly at the threshold stays quiet.
	report.Summary.FinancialProgress = 60
	res = New(DefaultTolerances()).Validate(report)
	if len(res.Warnings) != 0 {
		t.Fatalf("boundary gap should not warn: %v", res.Warnings)
	}
}

func TestValidate_MilestoneDelay(t *testing.T) {
	t.Parallel()

	planned := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	late := planned.Add(45 * 24 * time.Hour)
	onTime := planned.Add(10 * 24 * time.Hour)

	report := baseReport()
	report.Annexures.Overview = &model.Overview{
		ProjectDetails: model.ProjectDetails{Name: "Highway"},
		Milestones: []model.Milestone{
			{ID: "M1", PlannedDate: planned, ActualDate: &late},
			{ID: "M2", PlannedDate: planned, ActualDate: &onTime},
			{ID: "M3", PlannedDate: planned},
		},
	}

	res := New(DefaultTolerances()).Validate(report)
	if len(res.Warnings) != 1 {
		t.Fatalf("only the 45-day slip should warn, got %v", res.Warnings)
	}
}

func TestValidate_OverviewDateOrder(t *testing.T) {
	t.Parallel()

	report := baseReport()
	report.Annexures.Overview = &model.Overview{
		ProjectDetails: model.ProjectDetails{
			Name:      "Highway",
			StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	res := New(DefaultTolerances()).Validate(report)
	if res.Valid {
		t.Fatalf("end before start must be an error")
	}
}

func TestValidate_ActivityProgressMismatch(t *testing.T) {
	t.Parallel()

	report := baseReport()
	report.Annexures.Physical = &model.PhysicalProgress{
		Activities: []model.Activity{
			{ID: "A1", PlannedQty: 100, ActualQty: 50, Progress: 50},
			{ID: "A2", PlannedQty: 100, ActualQty: 50, Progress: 80},
		},
	}
	res := New(DefaultTolerances()).Validate(report)
	if len(res.Warnings) != 1 {
		t.Fatalf("only the mismatched activity should warn, got %v", res.Warnings)
	}
}

func TestValidate_NegativeQuantityError(t *testing.T) {
	t.Parallel()

	report := baseReport()
	report.Annexures.Physical = &model.PhysicalProgress{
		Activities: []model.Activity{
			{ID: "A1", PlannedQty: -10, ActualQty: 5},
		},
	}
	res := New(DefaultTolerances()).Validate(report)
	if res.Valid {
		t.Fatalf("negative quantity must invalidate the report")
	}
}

func TestValidate_BudgetOverrunAndVariance(t *testing.T) {
	t.Parallel()

	report := baseReport()
	report.Summary.ActualExpenditure = 1300
	report.Annexures.Financial = &model.FinancialProgress{
		BudgetItems: []model.BudgetItem{
			{Category: "Civil", Budgeted: 1000, Actual: 1300, Variance: 300},
			{Category: "Electrical", Budgeted: 1000, Actual: 1000, Variance: 50},
		},
	}
	res := New(DefaultTolerances()).Validate(report)
	if !res.Valid {
		t.Fatalf("overrun and variance drift are warnings: %v", res.Errors)
	}
	// Civil overruns, Electrical's stated variance disagrees, and the detail
	// totals 2300 against a summary of 1300.
	if len(res.Warnings) != 3 {
		t.Fatalf("want 3 warnings, got %v", res.Warnings)
	}
}

func TestValidate_ReconciliationTolerance(t *testing.T) {
	t.Parallel()

	report := baseReport()
	report.Summary.ActualExpenditure = 2000
	report.Annexures.Financial = &model.FinancialProgress{
		BudgetItems: []model.BudgetItem{
			{Category: "Civil", Budgeted: 2000, Actual: 1950, Variance: -50},
		},
	}
	res := New(DefaultTolerances()).Validate(report)
	if len(res.Warnings) != 0 {
		t.Fatalf("50 units within tolerance should not warn: %v", res.Warnings)
	}

	report.Annexures.Financial.BudgetItems[0].Actual = 1850
	report.Annexures.Financial.BudgetItems[0].Variance = -150
	res = New(DefaultTolerances()).Validate(report)
	if len(res.Warnings) != 1 {
		t.Fatalf("150 units beyond tolerance should warn once: %v", res.Warnings)
	}
}

func TestValidate_PastEndDateIncomplete(t *testing.T) {
	t.Parallel()

	report := baseReport()
	report.Annexures.Overview = &model.Overview{
		ProjectDetails: model.ProjectDetails{
			Name:      "Highway",
			StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	v := New(DefaultTolerances())
	v.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	res := v.Validate(report)
	if len(res.Warnings) != 1 {
		t.Fatalf("want past-end-date warning, got %v", res.Warnings)
	}

	report.Summary.PhysicalProgress = 100
	res = v.Validate(report)
	if len(res.Warnings) != 0 {
		t.Fatalf("complete project should not warn: %v", res.Warnings)
	}
}
