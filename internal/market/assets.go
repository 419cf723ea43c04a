package market

import (
	"fmt"
	"strings"

	"github.com/coindash/coindash/internal/models"
)

// The ten dashboard assets. Chainlink addresses are the mainnet USD
// aggregator proxies.
var assets = []models.Asset{
	{Symbol: "BTC-USD", Base: "BTC", Name: "Bitcoin", CoinGeckoID: "bitcoin", BinanceSymbol: "BTCUSDT", ChainlinkFeed: "0xF4030086522a5bEEa4988F8cA5B36dbC97BeE88c"},
	{Symbol: "ETH-USD", Base: "ETH", Name: "Ethereum", CoinGeckoID: "ethereum", BinanceSymbol: "ETHUSDT", ChainlinkFeed: "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"},
	{Symbol: "BNB-USD", Base: "BNB", Name: "BNB", CoinGeckoID: "binancecoin", BinanceSymbol: "BNBUSDT", ChainlinkFeed: "0x14e613AC84a31f709eadbdF89C6CC390fDc9540A"},
	{Symbol: "SOL-USD", Base: "SOL", Name: "Solana", CoinGeckoID: "solana", BinanceSymbol: "SOLUSDT", ChainlinkFeed: "0x4ffC43a60e009B551865A93d232E33Fce9f01507"},
	{Symbol: "XRP-USD", Base: "XRP", Name: "XRP", CoinGeckoID: "ripple", BinanceSymbol: "XRPUSDT", ChainlinkFeed: "0xCed2660c6Dd1Ffd856A5A82C67f3482d88C50b12"},
	{Symbol: "DOGE-USD", Base: "DOGE", Name: "Dogecoin", CoinGeckoID: "dogecoin", BinanceSymbol: "DOGEUSDT", ChainlinkFeed: "0x2465CefD3b488BE410b941b1d4b2767088e2A028"},
	{Symbol: "ADA-USD", Base: "ADA", Name: "Cardano", CoinGeckoID: "cardano", BinanceSymbol: "ADAUSDT", ChainlinkFeed: "0xAE48c91dF1fE419994FFDa27da09D5aC69c30f55"},
	{Symbol: "DOT-USD", Base: "DOT", Name: "Polkadot", CoinGeckoID: "polkadot", BinanceSymbol: "DOTUSDT", ChainlinkFeed: "0x1C07AFb8E2B827c5A4739C6d59Ae3A5035f28734"},
	{Symbol: "AVAX-USD", Base: "AVAX", Name: "Avalanche", CoinGeckoID: "avalanche-2", BinanceSymbol: "AVAXUSDT", ChainlinkFeed: "0xFF3EEb22B5E3dE6e705b44749C2559d704923FD7"},
	{Symbol: "LINK-USD", Base: "LINK", Name: "Chainlink", CoinGeckoID: "chainlink", BinanceSymbol: "LINKUSDT", ChainlinkFeed: "0x2c1d072e956AFFC0D435Cb7AC38EF18d24d9127c"},
}

// Assets returns the supported assets in display order.
func Assets() []models.Asset {
	out := make([]models.Asset, len(assets))
	copy(out, assets)
	return out
}

// LookupAsset resolves a symbol from user input. "btc", "BTC" and
// "BTC-USD" all resolve to the same asset.
func LookupAsset(symbol string) (models.Asset, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimSuffix(s, "-USD")
	for _, a := range assets {
		if a.Base == s {
			return a, nil
		}
	}
	return models.Asset{}, fmt.Errorf("%w: %q", ErrUnknownAsset, symbol)
}

// LookupByStreamSymbol resolves a Binance stream symbol ("BTCUSDT").
func LookupByStreamSymbol(streamSymbol string) (models.Asset, bool) {
	for _, a := range assets {
		if a.BinanceSymbol == streamSymbol {
			return a, true
		}
	}
	return models.Asset{}, false
}
