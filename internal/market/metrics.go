package market

import "github.com/coindash/coindash/internal/models"

// ChangePercent is the move from the first close to the last close of a
// series. Zero when the series has fewer than two points or starts at zero.
func ChangePercent(candles []models.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}
	first := candles[0].Close
	last := candles[len(candles)-1].Close
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// PriceBand returns the low/high band covered by a series, or nil for an
// empty series. Candles without explicit high/low fall back to the close.
func PriceBand(candles []models.Candle) *models.Band {
	var band *models.Band
	for _, c := range candles {
		hi, lo := c.High, c.Low
		if hi <= 0 {
			hi = c.Close
		}
		if lo <= 0 {
			lo = c.Close
		}
		if hi <= 0 || lo <= 0 {
			continue
		}
		if band == nil {
			band = &models.Band{Low: lo, High: hi}
			continue
		}
		if lo < band.Low {
			band.Low = lo
		}
		if hi > band.High {
			band.High = hi
		}
	}
	return band
}

// VolumeSum adds up candle volumes, or nil when no candle reports volume.
func VolumeSum(candles []models.Candle) *float64 {
	var total float64
	seen := false
	for _, c := range candles {
		if c.Volume > 0 {
			total += c.Volume
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return &total
}
