package models

import "time"

// Candle is one OHLCV point in a historical series. Providers that only
// report a close price leave the other fields at the close value or zero.
type Candle struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

// Series is a historical candle series over one time range,
// ordered by timestamp ascending.
type Series struct {
	Symbol        string    `json:"symbol"`
	Range         TimeRange `json:"range"`
	Candles       []Candle  `json:"candles"`
	ChangePercent float64   `json:"changePercent"` // first close vs last close
	Source        string    `json:"source"`
}
