package parser

import (
	"regexp"
	"strings"

	"mmrhub/internal/model"
)

// classifierRule pairs one annexure type with an identifier pattern. Rules
// are evaluated in declaration order and the first match wins; this is a
// fixed precedence, not a scored ranking.
type classifierRule struct {
	annexure model.AnnexureType
	pattern  *regexp.Regexp
}

func rule(t model.AnnexureType, pattern string) classifierRule {
	return classifierRule{annexure: t, pattern: regexp.MustCompile("(?i)" + pattern)}
}

// defaultRules covers the annexure naming seen across the report corpus,
// including the abbreviated "anx a".."anx h" convention some projects use.
var defaultRules = []classifierRule{
	rule(model.AnnexureSummary, `summary|executive\s*summary|mcrp`),
	rule(model.AnnexureOverview, `annexure\s*-?\s*a\b|anx\s*-?\s*a\b|project\s*overview`),
	rule(model.AnnexurePhysical, `annexure\s*-?\s*b\b|anx\s*-?\s*b\b|physical\s*progress|work\s*done`),
	rule(model.AnnexureFinancial, `annexure\s*-?\s*c\b|anx\s*-?\s*c\b|financial\s*progress`),
	rule(model.AnnexureManpower, `annexure\s*-?\s*d\b|anx\s*-?\s*d\b|manpower|labou?r|staff`),
	rule(model.AnnexureEquipment, `annexure\s*-?\s*e\b|anx\s*-?\s*e\b|equipment|machinery|plant`),
	rule(model.AnnexureMaterials, `annexure\s*-?\s*f\b|anx\s*-?\s*f\b|materials?\b|steel|cement`),
	rule(model.AnnexureSchedule, `schedule|time\s*line`),
	rule(model.AnnexureSafety, `annexure\s*-?\s*g\b|anx\s*-?\s*g\b|safety|accident`),
	rule(model.AnnexureQuality, `annexure\s*-?\s*h\b|anx\s*-?\s*h\b|quality|test\s*result`),
}

// Classifier maps a sheet to its annexure type from its name, falling back
// to sniffing the header content.
type Classifier struct {
	rules []classifierRule
}

// NewClassifier builds a classifier from the built-in rules plus any
// project-specific identifier patterns appended per annexure type. Extra
// patterns rank after the built-ins, preserving the documented precedence.
func NewClassifier(extra map[model.AnnexureType][]string) (*Classifier, error) {
	rules := make([]classifierRule, 0, len(defaultRules)+len(extra))
	rules = append(rules, defaultRules...)
	for _, t := range []model.AnnexureType{
		model.AnnexureSummary, model.AnnexureOverview, model.AnnexurePhysical,
		model.AnnexureFinancial, model.AnnexureManpower, model.AnnexureEquipment,
		model.AnnexureMaterials, model.AnnexureSchedule, model.AnnexureSafety,
		model.AnnexureQuality,
	} {
		for _, p := range extra[t] {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, err
			}
			rules = append(rules, classifierRule{annexure: t, pattern: re})
		}
	}
	return &Classifier{rules: rules}, nil
}

// Classify resolves the annexure type for one sheet. Unrecognized sheets map
// to Other and are excluded from extraction.
func (c *Classifier) Classify(sheetName string, headerRow []string) model.AnnexureType {
	name := NormalizeText(sheetName)
	for _, r := range c.rules {
		if r.pattern.MatchString(name) {
			return r.annexure
		}
	}
	return c.classifyByContent(headerRow)
}

// classifyByContent sniffs the header text for domain keywords when the sheet
// name carries no recognizable identifier.
func (c *Classifier) classifyByContent(headerRow []string) model.AnnexureType {
	header := NormalizeText(strings.Join(headerRow, " "))
	if header == "" {
		return model.AnnexureOther
	}
	switch {
	case strings.Contains(header, "project") && strings.Contains(header, "name"):
		return model.AnnexureSummary
	case strings.Contains(header, "progress") || strings.Contains(header, "completion"):
		return model.AnnexurePhysical
	case strings.Contains(header, "cost") || strings.Contains(header, "expenditure"):
		return model.AnnexureFinancial
	}
	return model.AnnexureOther
}
