package parser

import "mmrhub/internal/model"

// ExtractSummary pulls the project identity and headline metrics from a
// summary sheet. A missing project name is critical: the report cannot be
// attributed to anything without it.
func (e *Extractor) ExtractSummary(sheet *Sheet) (*model.SummaryInfo, model.SummaryMetrics) {
	a := NewFormatAdapter(sheet, e.opts)
	metrics := model.SummaryMetrics{}

	nameRef, ok := a.FindCell(reProjectName)
	if !ok {
		e.addError("Summary", "project name not found", model.SeverityCritical)
		return nil, metrics
	}

	info := &model.SummaryInfo{}
	if cell, ok := a.FindRelativeValue(nameRef, DirAuto); ok {
		info.ProjectName = cell.AsText()
	}
	if info.ProjectName == "" {
		e.addError("Summary", "project name cell is empty", model.SeverityCritical)
		return nil, metrics
	}

	info.ProjectCode = labelValue(a, reProjectCode)
	info.ReportingPeriod = labelValue(a, reReportPeriod)
	info.PreparedBy = labelValue(a, rePreparedBy)
	info.CheckedBy = labelValue(a, reCheckedBy)
	info.ApprovedBy = labelValue(a, reApprovedBy)

	metrics.TotalBudget = labelNumber(a, reTotalBudget)
	metrics.ActualExpenditure = labelNumber(a, reExpenditure)
	metrics.PhysicalProgress = ParsePercentage(labelNumber(a, rePhysProg))
	metrics.FinancialProgress = ParsePercentage(labelNumber(a, reFinProg))
	metrics.Variance = metrics.ActualExpenditure - metrics.TotalBudget

	if info.ProjectCode == "" {
		e.addWarning("Summary", "project code not found",
			"add a Project Code label near the top of the summary sheet")
	}
	return info, metrics
}
