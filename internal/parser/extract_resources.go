package parser

import "mmrhub/internal/model"

// The resource annexures (manpower, equipment, materials) share one tabular
// shape. Absence of a table is normal, not anomalous: each extractor returns
// an empty collection rather than raising.

// ExtractManpower reads the manpower annexure table.
func (e *Extractor) ExtractManpower(sheet *Sheet) []model.ManpowerEntry {
	a := NewFormatAdapter(sheet, e.opts)
	out := []model.ManpowerEntry{}

	headerRef, ok := a.FindCell(reManpowerTable)
	if !ok {
		return out
	}
	records := tableBelow(a, headerRef.Row, []TableColumn{
		Column("category", `category|designation|trade`),
		Column("planned", `planned|required`),
		Column("actual", `actual|deployed|present`),
		Column("variance", `variance|shortfall`),
		Column("remarks", `remarks?|comment`),
	})
	for _, rec := range records {
		planned := rec["planned"].AsNumber()
		actual := rec["actual"].AsNumber()
		entry := model.ManpowerEntry{
			Category: rec["category"].AsText(),
			Planned:  planned,
			Actual:   actual,
			Variance: rec["variance"].AsNumber(),
			Remarks:  rec["remarks"].AsText(),
		}
		if entry.Variance == 0 {
			entry.Variance = actual - planned
		}
		out = append(out, entry)
	}
	return out
}

// ExtractEquipment reads the equipment annexure table.
func (e *Extractor) ExtractEquipment(sheet *Sheet) []model.EquipmentEntry {
	a := NewFormatAdapter(sheet, e.opts)
	out := []model.EquipmentEntry{}

	headerRef, ok := a.FindCell(reEquipmentTable)
	if !ok {
		return out
	}
	records := tableBelow(a, headerRef.Row, []TableColumn{
		Column("type", `type|equipment|descri`),
		Column("planned", `planned|required`),
		Column("deployed", `deployed|available|actual`),
		Column("operational", `operational|working`),
		Column("breakdown", `breakdown|idle|down`),
		Column("utilization", `utili[sz]ation|hours`),
	})
	for _, rec := range records {
		out = append(out, model.EquipmentEntry{
			Type:        rec["type"].AsText(),
			Planned:     rec["planned"].AsNumber(),
			Deployed:    rec["deployed"].AsNumber(),
			Operational: rec["operational"].AsNumber(),
			Breakdown:   rec["breakdown"].AsNumber(),
			Utilization: ParsePercentage(rec["utilization"].AsNumber()),
		})
	}
	return out
}

// ExtractMaterials reads the materials annexure table.
func (e *Extractor) ExtractMaterials(sheet *Sheet) []model.MaterialEntry {
	a := NewFormatAdapter(sheet, e.opts)
	out := []model.MaterialEntry{}

	headerRef, ok := a.FindCell(reMaterialTable)
	if !ok {
		return out
	}
	records := tableBelow(a, headerRef.Row, []TableColumn{
		Column("item", `item|material|descri`),
		Column("unit", `unit|uom`),
		Column("planned", `planned|required`),
		Column("procured", `procured|received`),
		Column("consumed", `consumed|used`),
		Column("stock", `stock|balance`),
		Column("remarks", `remarks?|comment`),
	})
	for _, rec := range records {
		out = append(out, model.MaterialEntry{
			Item:     rec["item"].AsText(),
			Unit:     rec["unit"].AsText(),
			Planned:  rec["planned"].AsNumber(),
			Procured: rec["procured"].AsNumber(),
			Consumed: rec["consumed"].AsNumber(),
			Stock:    rec["stock"].AsNumber(),
			Remarks:  rec["remarks"].AsText(),
		})
	}
	return out
}
