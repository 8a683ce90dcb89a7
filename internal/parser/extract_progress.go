package parser

import (
	"fmt"

	"mmrhub/internal/model"
)

// ExtractPhysical reads the activities table from a physical-progress
// annexure. Variance is recomputed when the sheet does not state it.
func (e *Extractor) ExtractPhysical(sheet *Sheet) *model.PhysicalProgress {
	a := NewFormatAdapter(sheet, e.opts)

	headerRef, ok := a.FindCell(rePhysicalTable)
	if !ok {
		e.addWarning("Physical Progress", "activities table not found",
			"check whether the annexure contains physical progress data")
		return nil
	}

	records := tableBelow(a, headerRef.Row, []TableColumn{
		Column("description", `descri|activity|work\s*item`),
		Column("unit", `unit|uom`),
		Column("planned", `planned|target`),
		Column("actual", `actual|achieved`),
		Column("progress", `progress|%|percent`),
	})

	out := &model.PhysicalProgress{Activities: []model.Activity{}}
	for i, rec := range records {
		planned := rec["planned"].AsNumber()
		actual := rec["actual"].AsNumber()
		out.Activities = append(out.Activities, model.Activity{
			ID:          fmt.Sprintf("A%d", i+1),
			Description: rec["description"].AsText(),
			Unit:        rec["unit"].AsText(),
			PlannedQty:  planned,
			ActualQty:   actual,
			Progress:    ParsePercentage(rec["progress"].AsNumber()),
			Variance:    actual - planned,
		})
	}
	return out
}

// ExtractFinancial reads the budget-items table from a financial-progress
// annexure. A missing table is only a warning: financial detail may be
// reported elsewhere.
func (e *Extractor) ExtractFinancial(sheet *Sheet) *model.FinancialProgress {
	a := NewFormatAdapter(sheet, e.opts)

	headerRef, ok := a.FindCell(reFinancialTable)
	if !ok {
		e.addWarning("Financial Progress", "budget table not found",
			"check whether the annexure contains financial data")
		return nil
	}

	records := tableBelow(a, headerRef.Row, []TableColumn{
		Column("category", `category|head|descri`),
		Column("budgeted", `budget`),
		Column("actual", `actual`),
		Column("committed", `committed|commitment`),
		Column("variance", `variance`),
	})

	out := &model.FinancialProgress{BudgetItems: []model.BudgetItem{}}
	for _, rec := range records {
		budgeted := rec["budgeted"].AsNumber()
		actual := rec["actual"].AsNumber()
		item := model.BudgetItem{
			Category:  rec["category"].AsText(),
			Budgeted:  budgeted,
			Actual:    actual,
			Committed: rec["committed"].AsNumber(),
			Variance:  rec["variance"].AsNumber(),
		}
		if item.Variance == 0 {
			item.Variance = actual - budgeted
		}
		if budgeted != 0 {
			item.VariancePercent = (actual - budgeted) / budgeted * 100
		}
		out.BudgetItems = append(out.BudgetItems, item)
	}
	return out
}
