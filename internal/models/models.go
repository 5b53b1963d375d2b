package models

import (
	"fmt"
	"time"
)

// Sensor is a registered pollution-monitoring device belonging to the
// logged-in account. The collection is replaced wholesale on every fetch and
// never mutated in place.
type Sensor struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Reading is one timestamped measurement from a sensor. TxSignature is the
// on-chain transaction signature attesting to the reading's integrity; an
// empty signature means the proof is still pending.
type Reading struct {
	ID          int       `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	CO2         float64   `json:"co2"`
	Temperature float64   `json:"temperature"`
	TxSignature string    `json:"tx_signature"`
}

// Verified reports whether a blockchain proof exists for this reading.
func (r Reading) Verified() bool {
	return r.TxSignature != ""
}

// TimeRange is the relative window used to bound which readings are
// requested from the API.
type TimeRange string

const (
	Range24h TimeRange = "24h"
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
)

// DefaultRange is the window selected when a dashboard session starts.
const DefaultRange = Range24h

// ParseTimeRange validates a range parameter from user input.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case Range24h, Range7d, Range30d:
		return TimeRange(s), nil
	default:
		return "", fmt.Errorf("invalid time range: %q", s)
	}
}

// TimeRanges returns all selectable windows in display order.
func TimeRanges() []TimeRange {
	return []TimeRange{Range24h, Range7d, Range30d}
}

// Backend is a configured sensors-API endpoint. Backends are the only state
// AERO persists; sensor and reading data live in memory for the lifetime of
// a dashboard session and are never written to disk.
type Backend struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`              // unique display name: "airq-prod"
	BaseURL          string    `json:"base_url"`          // sensors API endpoint
	ExplorerProvider string    `json:"explorer_provider"` // e.g. "solana.com"
	ExplorerCluster  string    `json:"explorer_cluster"`  // e.g. "devnet", "mainnet-beta"
	Enabled          bool      `json:"enabled"`
	LastCheckAt      time.Time `json:"last_check_at"`  // last reachability check time
	LastCheckOK      bool      `json:"last_check_ok"`  // true if last check succeeded
	LastCheckErr     string    `json:"last_check_err"` // error message from last failed check
	ConsecFails      int       `json:"consec_fails"`   // consecutive reachability failures
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ExplorerURL returns the transaction-explorer link for a proof signature,
// e.g. https://explorer.solana.com/tx/abc123?cluster=devnet.
func (b Backend) ExplorerURL(txSignature string) string {
	provider := b.ExplorerProvider
	if provider == "" {
		provider = "solana.com"
	}
	u := fmt.Sprintf("https://explorer.%s/tx/%s", provider, txSignature)
	if b.ExplorerCluster != "" {
		u += "?cluster=" + b.ExplorerCluster
	}
	return u
}
