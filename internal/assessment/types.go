package assessment

// Inquiry is a partially-trusted automation inquiry as collected from the
// contact or assessment form. Band fields are free strings; unrecognized
// values are treated as absent rather than rejected.
type Inquiry struct {
	// HoursBand is the weekly-manual-hours range from the assessment form
	// ("5-10", "10-20", "20-40", "40+").
	HoursBand string `json:"hours"`
	// RevenueBand carries two distinct vocabularies depending on the form:
	// the assessment form uses numeric ranges ("100k-500k" .. "50m+"), the
	// contact form uses size labels ("startup" .. "enterprise"). Each lookup
	// table only recognizes its own vocabulary.
	RevenueBand string `json:"revenue"`
	// OperationsBand is the contact form's weekly-hours proxy
	// ("5-15", "15-25", "25-40", "40+").
	OperationsBand       string `json:"operations"`
	CompanyName          string `json:"company"`
	ChallengeDescription string `json:"challenge"`
	// SubmissionType is "contact" or "assessment".
	SubmissionType string `json:"type"`
}

// Complexity rates how involved an automation engagement is expected to be.
type Complexity string

const (
	ComplexityLow    Complexity = "Low"
	ComplexityMedium Complexity = "Medium"
	ComplexityHigh   Complexity = "High"
)

// Result is the savings and ROI estimate for one inquiry. Field names match
// the JSON the frontend and the workflow webhook expect.
type Result struct {
	// Savings is the estimated annual savings in whole dollars.
	Savings int `json:"savings"`
	// ROIMonths is the estimated payback period, always within [0, 24].
	ROIMonths int `json:"roiMonths"`
	// Complexity is derived from the band midpoints, not from the figures.
	Complexity Complexity `json:"complexity"`
	// Investment is the sized implementation cost, always within
	// [15000, 150000].
	Investment int `json:"investment"`
}
