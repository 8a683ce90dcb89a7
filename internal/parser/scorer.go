package parser

import (
	"fmt"
	"math"
)

// Weights are the confidence factor weights. They must sum to 1.
type Weights struct {
	HeaderMatch    float64
	DataComplete   float64
	ValidationPass float64
}

// DefaultWeights returns the calibrated default weighting.
func DefaultWeights() Weights {
	return Weights{HeaderMatch: 0.3, DataComplete: 0.4, ValidationPass: 0.3}
}

// Validate rejects weight sets that do not sum to 1.
func (w Weights) Validate() error {
	sum := w.HeaderMatch + w.DataComplete + w.ValidationPass
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("confidence weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}

// Score combines header-match quality, data completeness and validation pass
// rate into a single 0-100 confidence figure.
//
//	header:     1 when at least one sheet was classified, else 0
//	complete:   1 minus 0.2 per critical error, floored at 0
//	validation: 1 - errors/(errors+warnings) when any validations ran, else 1
func (w Weights) Score(anyClassified bool, criticalErrors, errors, warnings int) int {
	header := 0.0
	if anyClassified {
		header = 1.0
	}

	complete := math.Max(0, 1-0.2*float64(criticalErrors))

	validation := 1.0
	if total := errors + warnings; total > 0 {
		validation = 1 - float64(errors)/float64(total)
	}

	score := w.HeaderMatch*header + w.DataComplete*complete + w.ValidationPass*validation
	conf := int(math.Round(score * 100))
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}
	return conf
}
