// Package models defines data structures and domain types.
package models

import (
	"errors"
	"math"
	"time"
)

// ErrNoContent signals that a usage source has nothing for the requested window.
var ErrNoContent = errors.New("no usage in window")

// MicroUSDPerUSD is the number of micro-dollars in one US dollar.
const MicroUSDPerUSD = 1_000_000

// UsageEvent represents one metered LLM call as stored in llm_usages.
// Costs are held in micro-USD so sums stay exact.
type UsageEvent struct {
	Timestamp    time.Time
	RequestID    string
	Provider     string
	Model        string
	ID           int64
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	InputCost    int64
	OutputCost   int64
	TotalCost    int64
}

// Spending is a money/token pair summed over a set of events.
type Spending struct {
	Money  int64 // micro-USD
	Tokens int64
}

// USD returns the money component in dollars.
func (s Spending) USD() float64 {
	return MicroUSDToUSD(s.Money)
}

// UsageGroup holds the events of a single model/provider pair in timestamp order.
type UsageGroup struct {
	Provider string
	Model    string
	Events   []UsageEvent
}

// Snapshot is what a usage source returns for one time window.
type Snapshot struct {
	AllTime Spending
	Current Spending
	Groups  []UsageGroup
}

// IsEmpty reports whether the snapshot carries no events.
func (s Snapshot) IsEmpty() bool {
	for _, g := range s.Groups {
		if len(g.Events) > 0 {
			return false
		}
	}
	return true
}

// MicroUSDToUSD converts micro-dollars to dollars.
func MicroUSDToUSD(v int64) float64 {
	return float64(v) / MicroUSDPerUSD
}

// USDToMicroUSD converts dollars to micro-dollars, rounding half away from zero.
func USDToMicroUSD(v float64) int64 {
	return int64(math.Round(v * MicroUSDPerUSD))
}
