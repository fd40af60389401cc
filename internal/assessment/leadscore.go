package assessment

import "unicode/utf8"

// Contact-form revenue labels. Deliberately separate from revenueMidpoints:
// the two forms use different vocabularies and an assessment-form value
// ("2m-10m") scores zero here by design of the fail-open lookup.
var contactRevenueScores = map[string]int{
	"startup":    20, // $100K - $500K
	"small":      40, // $500K - $2M
	"medium":     60, // $2M - $10M
	"large":      80, // $10M - $50M
	"enterprise": 100, // $50M+
}

var operationsScores = map[string]int{
	"5-15":  25,
	"15-25": 50,
	"25-40": 75,
	"40+":   100,
}

const (
	establishedCompanyBonus = 10
	detailedChallengeBonus  = 15
	assessmentIntentBonus   = 20
	maxLeadScore            = 100
)

// ComputeLeadScore rates an inbound inquiry 0-100 as a routing signal for
// the workflow relay. Independent of ComputeAssessment; all contributions
// are additive and non-negative, so only an upper clamp is needed.
func ComputeLeadScore(in Inquiry) int {
	score := contactRevenueScores[in.RevenueBand]
	score += operationsScores[in.OperationsBand]

	// Longer company names correlate with established businesses.
	if utf8.RuneCountInString(in.CompanyName) > 10 {
		score += establishedCompanyBonus
	}
	// A detailed challenge description signals a serious inquiry.
	if utf8.RuneCountInString(in.ChallengeDescription) > 50 {
		score += detailedChallengeBonus
	}
	// Assessment submissions are higher intent than plain contact.
	if in.SubmissionType == "assessment" {
		score += assessmentIntentBonus
	}

	if score > maxLeadScore {
		score = maxLeadScore
	}
	return score
}
