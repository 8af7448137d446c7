package engine

// Spread is the relative price difference between a candidate execution price
// and a reference price on the opposite venue: priceA/priceB - 1.
func Spread(priceA, priceB float64) float64 {
	return priceA/priceB - 1
}

// Thresholds holds the spread levels at which each side of the arbitrage
// fires. Buy is negative (the spot price must be cheap relative to the hedge
// venue), Sell positive.
type Thresholds struct {
	Buy  float64
	Sell float64
}

// Symmetric builds Thresholds from a single price differential applied with
// opposite signs to the two sides.
func Symmetric(differential float64) Thresholds {
	return Thresholds{Buy: -differential, Sell: differential}
}

// BuyQualifies reports whether the given spread is low enough to buy.
func (t Thresholds) BuyQualifies(spread float64) bool {
	return spread < t.Buy
}

// SellQualifies reports whether the given spread is high enough to sell.
func (t Thresholds) SellQualifies(spread float64) bool {
	return spread > t.Sell
}
