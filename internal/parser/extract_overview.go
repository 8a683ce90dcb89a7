package parser

import (
	"fmt"

	"mmrhub/internal/model"
)

// ExtractOverview reads the project detail fields and the milestones table
// from an overview annexure.
func (e *Extractor) ExtractOverview(sheet *Sheet) *model.Overview {
	a := NewFormatAdapter(sheet, e.opts)

	details := model.ProjectDetails{}
	details.Name = labelValue(a, reProjectName)
	details.Location = labelValue(a, reLocation)
	details.Client = labelValue(a, reClient)
	details.ContractValue = labelNumber(a, reContractValue)

	if ref, ok := a.FindCell(reStartDate); ok {
		if cell, ok := a.FindRelativeValue(ref, DirAuto); ok {
			details.StartDate, _ = cell.AsDate()
		}
	}
	if ref, ok := a.FindCell(reEndDate); ok {
		if cell, ok := a.FindRelativeValue(ref, DirAuto); ok {
			details.EndDate, _ = cell.AsDate()
		}
	}

	overview := &model.Overview{ProjectDetails: details, Milestones: []model.Milestone{}}

	headerRef, ok := a.FindCell(reMilestones)
	if !ok {
		e.addWarning("Overview", "milestones table not found",
			"check whether the annexure lists key dates")
		return overview
	}

	records := tableBelow(a, headerRef.Row, []TableColumn{
		Column("description", `descri|milestone|activity`),
		Column("planned", `planned|target`),
		Column("actual", `actual|achieved`),
		Column("status", `status`),
		Column("remarks", `remarks?|comment`),
	})

	for i, rec := range records {
		m := model.Milestone{
			ID:          fmt.Sprintf("M%d", i+1),
			Description: rec["description"].AsText(),
			Status:      parseStatus(rec["status"].AsText()),
			Remarks:     rec["remarks"].AsText(),
		}
		m.PlannedDate, _ = rec["planned"].AsDate()
		if actual := rec["actual"]; !actual.IsEmpty() {
			if t, ok := actual.AsDate(); ok {
				m.ActualDate = &t
			}
		}
		overview.Milestones = append(overview.Milestones, m)
	}
	return overview
}
