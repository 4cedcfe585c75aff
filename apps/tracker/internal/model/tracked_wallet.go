package model

import (
	"time"
)

type TrackedWallet struct {
	Address     string     `json:"address"`
	ChainKey    string     `json:"chain"`
	Label       string     `json:"label"`
	AddedAt     time.Time  `json:"added_at"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	LastCount   *uint64    `json:"last_count,omitempty"` // nil until the first successful poll
}

// Seen reports whether a baseline transaction count has been recorded
func (w TrackedWallet) Seen() bool {
	return w.LastCount != nil
}

// TruncateAddress shortens an address to 0x1234...abcd for display
func TruncateAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
