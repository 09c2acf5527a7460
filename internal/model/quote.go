package model

import (
	"encoding/json"
	"math"
	"time"
)

// Quote is a single resolved price for a symbol. Source identifies the
// resolver tier that produced it; "synthetic" means every upstream tier
// failed and the pipeline is running on generated data.
type Quote struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	TS     time.Time `json:"ts"`
	Source string    `json:"source"`
}

// Valid reports whether the quote carries a usable price.
func (q Quote) Valid() bool {
	return q.Price > 0 && !math.IsNaN(q.Price) && !math.IsInf(q.Price, 0)
}

// JSON returns the JSON-encoded quote (ignoring errors for hot-path usage).
func (q Quote) JSON() []byte {
	b, _ := json.Marshal(q)
	return b
}
