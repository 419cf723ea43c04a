package models

// Asset is a supported cryptocurrency, always quoted in USD.
// The provider-specific identifiers are wiring details and stay out of JSON.
type Asset struct {
	Symbol string `json:"symbol"` // "BTC-USD"
	Base   string `json:"base"`   // "BTC"
	Name   string `json:"name"`   // "Bitcoin"

	CoinGeckoID   string `json:"-"`
	BinanceSymbol string `json:"-"` // "BTCUSDT"
	ChainlinkFeed string `json:"-"` // mainnet USD aggregator proxy, empty if none
}
