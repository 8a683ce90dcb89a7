package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mmrhub/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "mmrhub.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func sampleReport(project, month string) *model.Report {
	return &model.Report{
		ProjectID:  project,
		Month:      month,
		Year:       2024,
		ReportDate: time.Now(),
		Summary: model.SummaryMetrics{
			TotalBudget:       50000000,
			ActualExpenditure: 35000000,
			PhysicalProgress:  65,
			FinancialProgress: 70,
		},
		Metadata: model.ReportMetadata{
			FileName:   project + "_" + month + ".xlsx",
			Confidence: 92,
			UploadedAt: time.Now(),
		},
	}
}

func TestSaveAndListReports(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.SaveReport(ctx, sampleReport("PRJ001", "March")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.SaveReport(ctx, sampleReport("PRJ002", "March")); err != nil {
		t.Fatalf("save: %v", err)
	}

	all, err := st.ListReports(ctx, "", 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("want 2 records, got %d", len(all))
	}

	scoped, err := st.ListReports(ctx, "PRJ001", 50, 0)
	if err != nil {
		t.Fatalf("list scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ProjectID != "PRJ001" {
		t.Fatalf("unexpected scoped result: %+v", scoped)
	}
	if scoped[0].Confidence != 92 {
		t.Fatalf("confidence want=92 got=%d", scoped[0].Confidence)
	}
}

func TestGetReport_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.SaveReport(ctx, sampleReport("PRJ001", "March")); err != nil {
		t.Fatalf("save: %v", err)
	}
	records, err := st.ListReports(ctx, "PRJ001", 1, 0)
	if err != nil || len(records) != 1 {
		t.Fatalf("list: %v (%d records)", err, len(records))
	}

	report, err := st.GetReport(ctx, records[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if report.ProjectID != "PRJ001" || report.Summary.PhysicalProgress != 65 {
		t.Fatalf("round trip mismatch: %+v", report)
	}
}

func TestGetReport_Missing(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.GetReport(context.Background(), "nope"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("want ErrReportNotFound got %v", err)
	}
}
