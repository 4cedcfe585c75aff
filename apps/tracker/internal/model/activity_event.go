package model

import (
	"time"
)

type ActivityEvent struct {
	ID              string    `json:"id"`
	Label           string    `json:"label"`
	Address         string    `json:"address"`
	ChainKey        string    `json:"chain"`
	PreviousCount   uint64    `json:"previous_count"`
	ObservedCount   uint64    `json:"observed_count"`
	ObservedBalance *string   `json:"observed_balance,omitempty"` // nullable field
	Timestamp       time.Time `json:"timestamp"`
	ExplorerLink    string    `json:"explorer_link"`
}
