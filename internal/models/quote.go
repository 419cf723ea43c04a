package models

import "time"

// Quote is the current price of an asset as reported by one provider.
// Change24h/Volume24h are only set when the source reports them.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Change24h *float64  `json:"change24h,omitempty"` // percent
	Volume24h *float64  `json:"volume24h,omitempty"`
	Source    string    `json:"source"`
	Stale     bool      `json:"stale"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// QuoteRecord is a persisted quote snapshot from the background poller.
type QuoteRecord struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Day       string    `json:"day"` // UTC date, YYYY-MM-DD
	CreatedAt time.Time `json:"createdAt"`
}
