package schema

// Verdict labels for a comparison.
const (
	ShiptalkerLabel = "Shiptalker" // more time messaging than coding
	BalancedLabel   = "Balanced"
	ShipperLabel    = "Shipper" // more time coding than messaging
)

// EnrichedReportCard adds presentation data to a ReportCard.
type EnrichedReportCard struct {
	Label              string `json:"label"`
	CodingTimeHuman    string `json:"coding_time_human"`
	MessagingTimeHuman string `json:"messaging_time_human"`
	ReportCard
}

// GetVerdictLabel returns a plain text label for the signed percentage difference.
func GetVerdictLabel(percentage int64) string {
	switch {
	case percentage > 0:
		return ShiptalkerLabel
	case percentage < 0:
		return ShipperLabel
	default:
		return BalancedLabel
	}
}

// EnrichReportCard adds the verdict label and human-readable durations to a card.
func EnrichReportCard(card ReportCard) EnrichedReportCard {
	return EnrichedReportCard{
		Label:              GetVerdictLabel(card.PercentageDifference),
		CodingTimeHuman:    FormatDuration(card.CodingTimeSeconds),
		MessagingTimeHuman: FormatDuration(float64(card.MessagingTimeEstimateSeconds)),
		ReportCard:         card,
	}
}
