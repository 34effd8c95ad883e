package topics

const (
	// Closing lines
	ClosingLinesCaptured = "closing_lines_captured"

	// Value bets
	ValueAlerts = "value_alerts"
)
