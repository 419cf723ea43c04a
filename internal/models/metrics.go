package models

// Band is a low/high price range.
type Band struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// AssetMetrics are the dashboard summary figures. Each block is nil when
// the data needed to compute it was unavailable.
type AssetMetrics struct {
	Symbol    string   `json:"symbol"`
	DayRange  *Band    `json:"dayRange"`
	YearRange *Band    `json:"yearRange"`
	Volume24h *float64 `json:"volume24h"`
}
