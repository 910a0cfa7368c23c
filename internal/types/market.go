package types

import "time"

// MarketSnapshot is the per-symbol liquidity view supplied by the external
// market data collaborator at evaluation time.
type MarketSnapshot struct {
	Symbol    string  `yaml:"symbol" json:"symbol"`
	Last      float64 `yaml:"last" json:"last"`
	Spread    float64 `yaml:"spread" json:"spread"`
	AvgVolume float64 `yaml:"avg_volume" json:"avg_volume"`
}

// PriceTick is one observation in a price path. Paths must be in
// chronological order; the execution engine treats a timestamp regression
// as a fatal data error.
type PriceTick struct {
	Time  time.Time `yaml:"time" json:"time"`
	Price float64   `yaml:"price" json:"price"`
}
