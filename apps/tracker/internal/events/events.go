package events

import (
	"time"
)

const EventTypeWalletActivity = "wallet_activity"

// WalletActivityEvent is the message published to the activity topic
type WalletActivityEvent struct {
	EventType       string    `json:"event_type"`
	EventID         string    `json:"event_id"`
	WalletAddress   string    `json:"wallet_address"`
	Chain           string    `json:"chain"`
	ChainID         int64     `json:"chain_id"`
	Label           string    `json:"label"`
	PreviousCount   uint64    `json:"previous_count"`
	ObservedCount   uint64    `json:"observed_count"`
	ObservedBalance *string   `json:"observed_balance,omitempty"`
	ExplorerLink    string    `json:"explorer_link"`
	ObservedAt      time.Time `json:"observed_at"`
	Timestamp       time.Time `json:"timestamp"`
}
