package assessment

import "math"

// Band midpoints. Each discrete form range maps to a single representative
// value used by the estimate; a key miss contributes zero, never an error,
// so half-filled or tampered forms still produce a well-formed result.
var hoursMidpoints = map[string]float64{
	"5-10":  7.5,
	"10-20": 15,
	"20-40": 30,
	"40+":   50,
}

var revenueMidpoints = map[string]float64{
	"100k-500k": 300000,
	"500k-2m":   1250000,
	"2m-10m":    6000000,
	"10m-50m":   30000000,
	"50m+":      75000000,
}

const (
	baseHourlyRate  = 50.0
	maxHourlyRate   = 150.0
	weeksPerYear    = 52.0
	efficiencyGain  = 0.8
	investmentShare = 0.3
	minInvestment   = 15000.0
	maxInvestment   = 150000.0
	maxROIMonths    = 24
)

// ComputeAssessment maps one inquiry to a savings and ROI estimate. It is
// pure and cannot fail: unknown bands degrade to zero contributions and all
// derived figures are clamped to their documented ranges.
func ComputeAssessment(in Inquiry) Result {
	hours := hoursMidpoints[in.HoursBand]
	revenue := revenueMidpoints[in.RevenueBand]

	// Blended labor rate scales with company size, capped at $150/hr.
	hourlyRate := math.Min(baseHourlyRate+(revenue/1000000)*10, maxHourlyRate)
	annualSavings := hours * hourlyRate * weeksPerYear * efficiencyGain

	investment := annualSavings * investmentShare
	if investment < minInvestment {
		investment = minInvestment
	}
	if investment > maxInvestment {
		investment = maxInvestment
	}

	// With zero savings the payback ratio is undefined; report the cap.
	roiMonths := maxROIMonths
	if annualSavings > 0 {
		roiMonths = int(math.Ceil(investment / annualSavings * 12))
		if roiMonths > maxROIMonths {
			roiMonths = maxROIMonths
		}
		if roiMonths < 0 {
			roiMonths = 0
		}
	}

	// Low check first, then High; the last match wins.
	complexity := ComplexityMedium
	if hours < 15 && revenue < 2000000 {
		complexity = ComplexityLow
	}
	if hours > 30 || revenue > 10000000 {
		complexity = ComplexityHigh
	}

	return Result{
		Savings:    int(math.Round(annualSavings)),
		ROIMonths:  roiMonths,
		Complexity: complexity,
		Investment: int(math.Round(investment)),
	}
}
