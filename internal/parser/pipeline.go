package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"mmrhub/internal/model"
	"mmrhub/internal/validator"
)

// Options configure one parse pipeline.
type Options struct {
	Adapter        AdapterOptions
	Weights        Weights
	Tolerances     validator.Tolerances
	ExtraPatterns  map[model.AnnexureType][]string // project-specific sheet naming
	ProjectAliases map[string]string               // filename substring -> project code
	Logger         zerolog.Logger
}

// Hooks let the caller observe and steer a running parse. Both are optional.
type Hooks struct {
	// Progress is called as the parse advances, current out of total steps.
	Progress func(current, total int, message string)
	// Checkpoint is called between sheets; returning an error aborts early.
	Checkpoint func(ctx context.Context) error
}

// Pipeline turns one workbook into a normalized parse result. Safe for
// concurrent use; each call keeps its own extraction state.
type Pipeline struct {
	classifier *Classifier
	validator  *validator.Validator
	opts       Options
	log        zerolog.Logger
}

// New creates a pipeline, validating the confidence weights up front.
func New(opts Options) (*Pipeline, error) {
	if opts.Adapter.MaxSearchRows == 0 {
		opts.Adapter = DefaultAdapterOptions()
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	if opts.Tolerances == (validator.Tolerances{}) {
		opts.Tolerances = validator.DefaultTolerances()
	}
	classifier, err := NewClassifier(opts.ExtraPatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier pattern: %w", err)
	}
	return &Pipeline{
		classifier: classifier,
		validator:  validator.New(opts.Tolerances),
		opts:       opts,
		log:        opts.Logger,
	}, nil
}

// ParseFile parses a workbook from disk.
func (p *Pipeline) ParseFile(ctx context.Context, path string, hooks Hooks) (*model.ParseResult, error) {
	wb, err := OpenFile(path)
	if err != nil {
		return containerFailure(filepath.Base(path), err), nil
	}
	return p.parse(ctx, wb, hooks)
}

// ParseBuffer parses a workbook from an in-memory payload.
func (p *Pipeline) ParseBuffer(ctx context.Context, data []byte, fileName string, hooks Hooks) (*model.ParseResult, error) {
	wb, err := OpenBuffer(data, fileName)
	if err != nil {
		return containerFailure(fileName, err), nil
	}
	return p.parse(ctx, wb, hooks)
}

// containerFailure converts a malformed-workbook error into the single
// critical result the parse boundary always returns.
func containerFailure(fileName string, err error) *model.ParseResult {
	return &model.ParseResult{
		Success: false,
		Errors: []model.ParseError{{
			Annexure: "General",
			Message:  fmt.Sprintf("failed to parse file: %v", err),
			Severity: model.SeverityCritical,
		}},
		Warnings:   []model.ParseWarning{},
		Confidence: 0,
	}
}

// parse runs classification, extraction, validation and scoring over a
// loaded workbook. The returned error is non-nil only for context
// cancellation or deadline; data-quality problems live inside the result.
func (p *Pipeline) parse(ctx context.Context, wb *Workbook, hooks Hooks) (*model.ParseResult, error) {
	start := time.Now()
	total := len(wb.Sheets) + 2
	step := 0
	progress := func(msg string) {
		step++
		if hooks.Progress != nil {
			hooks.Progress(step, total, msg)
		}
	}
	progress("workbook loaded")

	extractor := NewExtractor(p.opts.Adapter)
	annexures := model.Annexures{}
	inventory := make([]model.SheetInfo, 0, len(wb.Sheets))
	var summaryInfo *model.SummaryInfo
	var summaryMetrics model.SummaryMetrics
	classified := 0

	for _, sheet := range wb.Sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if hooks.Checkpoint != nil {
			if err := hooks.Checkpoint(ctx); err != nil {
				return nil, err
			}
		}

		annexure := p.classifier.Classify(sheet.Name, sheet.HeaderRow(1))
		inventory = append(inventory, model.SheetInfo{
			Name:     sheet.Name,
			Type:     annexure,
			RowCount: sheet.RowCount(),
			ColCount: sheet.ColCount(),
			HasData:  sheet.HasData(),
		})

		switch annexure {
		case model.AnnexureSummary:
			info, metrics := extractor.ExtractSummary(sheet)
			if info != nil {
				annexures.Summary = info
				summaryInfo = info
				summaryMetrics = metrics
			}
		case model.AnnexureOverview:
			annexures.Overview = extractor.ExtractOverview(sheet)
		case model.AnnexurePhysical:
			annexures.Physical = extractor.ExtractPhysical(sheet)
		case model.AnnexureFinancial:
			annexures.Financial = extractor.ExtractFinancial(sheet)
		case model.AnnexureManpower:
			annexures.Manpower = extractor.ExtractManpower(sheet)
		case model.AnnexureEquipment:
			annexures.Equipment = extractor.ExtractEquipment(sheet)
		case model.AnnexureMaterials:
			annexures.Materials = extractor.ExtractMaterials(sheet)
		case model.AnnexureOther:
			progress(fmt.Sprintf("sheet %q unclassified", sheet.Name))
			continue
		default:
			// Schedule, safety and quality sheets are recognized but have no
			// detailed extractor yet; they stay in the inventory only.
		}
		classified++
		progress(fmt.Sprintf("sheet %q processed", sheet.Name))
	}

	errors := append([]model.ParseError{}, extractor.Errors()...)
	warnings := append([]model.ParseWarning{}, extractor.Warnings()...)

	var report *model.Report
	if classified == 0 {
		errors = append(errors, model.ParseError{
			Annexure: "General",
			Message:  "no valid annexures found in the file",
			Severity: model.SeverityCritical,
		})
	} else {
		report = p.assembleReport(wb, summaryInfo, summaryMetrics, annexures, inventory)
		vres := p.validator.Validate(report)
		errors = append(errors, vres.Errors...)
		warnings = append(warnings, vres.Warnings...)
	}
	progress("validation finished")

	result := &model.ParseResult{
		Errors:   errors,
		Warnings: warnings,
	}
	critical := result.CriticalCount()
	result.Success = critical == 0
	if result.Success {
		result.Confidence = p.opts.Weights.Score(classified > 0, critical, len(errors), len(warnings))
	}

	if report != nil {
		report.Metadata.ParsedAt = time.Now()
		report.Metadata.Confidence = result.Confidence
		report.Metadata.Errors = errors
		report.Metadata.Warnings = warnings
		if result.Success {
			result.Report = report
		}
	}

	p.log.Debug().
		Str("file", wb.FileName).
		Int("sheets", len(wb.Sheets)).
		Int("classified", classified).
		Int("confidence", result.Confidence).
		Dur("elapsed", time.Since(start)).
		Msg("workbook parsed")

	return result, nil
}

// assembleReport builds the report shell from the extracted pieces, falling
// back to filename heuristics for the project identity and period.
func (p *Pipeline) assembleReport(wb *Workbook, info *model.SummaryInfo, metrics model.SummaryMetrics, annexures model.Annexures, inventory []model.SheetInfo) *model.Report {
	projectID := ""
	period := ""
	if info != nil {
		projectID = info.ProjectCode
		period = info.ReportingPeriod
	}
	if projectID == "" {
		projectID = ProjectFromFileName(wb.FileName, p.opts.ProjectAliases)
	}
	if projectID == "" {
		projectID = "UNKNOWN"
	}

	month, year, ok := PeriodFromText(period)
	if !ok || month == "" {
		fnMonth, fnYear := PeriodFromFileName(wb.FileName)
		if month == "" {
			month = fnMonth
		}
		if year == 0 {
			year = fnYear
		}
	}
	if month == "" {
		month = "Unknown"
	}
	if year == 0 {
		year = time.Now().Year()
	}

	return &model.Report{
		ProjectID:  projectID,
		Month:      month,
		Year:       year,
		ReportDate: time.Now(),
		Summary:    metrics,
		Annexures:  annexures,
		RawSheets:  inventory,
		Metadata: model.ReportMetadata{
			FileName:   filepath.Base(wb.FileName),
			UploadedAt: time.Now(),
		},
	}
}
