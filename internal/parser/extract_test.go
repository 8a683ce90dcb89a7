package parser

import (
	"testing"

	"mmrhub/internal/model"
)

func summarySheet() *Sheet {
	return buildSheet("Summary", [][]string{
		{"Monthly Management Report"},
		{"Project Name:", "Highway Construction Project"},
		{"Project Code:", "HC-2024-001"},
		{"Reporting Period:", "March 2024"},
		{"Total Budget", "50,000,000"},
		{"Actual Expenditure", "35,000,000"},
		{"Physical Progress (%)", "65"},
		{"Financial Progress (%)", "70"},
	})
}

func TestExtractSummary_HappyPath(t *testing.T) {
	t.Parallel()

	e := NewExtractor(DefaultAdapterOptions())
	info, metrics := e.ExtractSummary(summarySheet())
	if info == nil {
		t.Fatalf("expected summary info, errors=%v", e.Errors())
	}
	if info.ProjectName != "Highway Construction Project" {
		t.Fatalf("unexpected name: %q", info.ProjectName)
	}
	if info.ProjectCode != "HC-2024-001" {
		t.Fatalf("unexpected code: %q", info.ProjectCode)
	}
	if metrics.TotalBudget != 50000000 || metrics.ActualExpenditure != 35000000 {
		t.Fatalf("unexpected money figures: %+v", metrics)
	}
	if metrics.PhysicalProgress != 65 || metrics.FinancialProgress != 70 {
		t.Fatalf("unexpected progress: %+v", metrics)
	}
	if metrics.Variance != -15000000 {
		t.Fatalf("unexpected variance: %v", metrics.Variance)
	}
	if len(e.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", e.Errors())
	}
}

func TestExtractSummary_FractionProgress(t *testing.T) {
	t.Parallel()

	sheet := buildSheet("Summary", [][]string{
		{"Project Name:", "Bridge"},
		{"Physical Progress", "0.65"},
	})
	e := NewExtractor(DefaultAdapterOptions())
	_, metrics := e.ExtractSummary(sheet)
	if metrics.PhysicalProgress != 65 {
		t.Fatalf("fraction should scale to 65, got %v", metrics.PhysicalProgress)
	}
}

func TestExtractSummary_MissingProjectName(t *testing.T) {
	t.Parallel()

	sheet := buildSheet("Summary", [][]string{
		{"Total Budget", "100"},
	})
	e := NewExtractor(DefaultAdapterOptions())
	info, _ := e.ExtractSummary(sheet)
	if info != nil {
		t.Fatalf("expected nil info")
	}
	errs := e.Errors()
	if len(errs) != 1 || errs[0].Severity != model.SeverityCritical {
		t.Fatalf("want one critical error, got %v", errs)
	}
}

func TestExtractSummary_MissingCodeWarns(t *testing.T) {
	t.Parallel()

	sheet := buildSheet("Summary", [][]string{
		{"Project Name:", "Bridge"},
	})
	e := NewExtractor(DefaultAdapterOptions())
	if info, _ := e.ExtractSummary(sheet); info == nil {
		t.Fatalf("expected info")
	}
	if len(e.Warnings()) != 1 {
		t.Fatalf("want one warning, got %v", e.Warnings())
	}
}

func TestExtractPhysical_ActivityTable(t *testing.T) {
	t.Parallel()

	sheet := buildSheet("Annexure B", [][]string{
		{"Physical Progress"},
		{"Activity", "Unit", "Planned %", "Actual %"},
		{"Earthworks", "cum", "40", "35"},
		{"Foundation", "cum", "30", "32"},
	})
	e := NewExtractor(DefaultAdapterOptions())
	phys := e.ExtractPhysical(sheet)
	if phys == nil || len(phys.Activities) != 2 {
		t.Fatalf("expected 2 activities, got %+v", phys)
	}
	first := phys.Activities[0]
	if first.ID != "A1" || first.Description != "Earthworks" {
		t.Fatalf("unexpected first activity: %+v", first)
	}
	if first.Variance != -5 {
		t.Fatalf("variance want=-5 got=%v", first.Variance)
	}
}

func TestExtractManpower_AbsentTableIsQuiet(t *testing.T) {
	t.Parallel()

	e := NewExtractor(DefaultAdapterOptions())
	entries := e.ExtractManpower(NewSheet("Annexure D"))
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
	if len(e.Errors()) != 0 {
		t.Fatalf("absent resource table must not error: %v", e.Errors())
	}
}

func TestParseStatus_Keywords(t *testing.T) {
	t.Parallel()

	cases := map[string]model.MilestoneStatus{
		"Completed":   model.StatusCompleted,
		"completed ✓": model.StatusCompleted,
		"In Progress": model.StatusInProgress,
		"Delayed":     model.StatusDelayed,
		"tbd":         model.StatusPending,
		"":            model.StatusPending,
	}
	for in, want := range cases {
		if got := parseStatus(in); got != want {
			t.Fatalf("parseStatus(%q) want=%s got=%s", in, want, got)
		}
	}
}
