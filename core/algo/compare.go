package algo

import (
	"fmt"
	"math"

	"github.com/huangsam/shiptalkers/internal/contract"
	"github.com/huangsam/shiptalkers/schema"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// Compare returns round(((estimate - coding) / coding) * 100), with ties
// rounded toward positive infinity. A zero coding total is a DivisionByZeroError.
func Compare(codingSeconds float64, estimateSeconds int64) (int64, error) {
	if math.IsNaN(codingSeconds) || math.IsInf(codingSeconds, 0) || codingSeconds < 0 {
		return 0, fmt.Errorf("coding time must be a finite non-negative number, got %v", codingSeconds)
	}
	if codingSeconds == 0 {
		return 0, &contract.DivisionByZeroError{}
	}

	coding := decimal.NewFromFloat(codingSeconds)
	estimate := decimal.NewFromInt(estimateSeconds)

	// Scale before dividing so whole-number ratios stay exact.
	ratio := estimate.Sub(coding).Mul(hundred).Div(coding)
	return ratio.Add(half).Floor().IntPart(), nil
}

// Compute is Compare packaged into the result handed to rendering.
func Compute(codingSeconds float64, estimate schema.TimeEstimate) (schema.ComparisonResult, error) {
	pct, err := Compare(codingSeconds, estimate.EstimatedSeconds)
	if err != nil {
		return schema.ComparisonResult{}, err
	}
	return schema.ComparisonResult{
		CodingTimeSeconds:            codingSeconds,
		MessagingTimeEstimateSeconds: estimate.EstimatedSeconds,
		PercentageDifference:         pct,
	}, nil
}
