package models

import "time"

// HubEntry one pointer in a hub's append-only log
type HubEntry struct {
	// ID reference to an EncryptedData record
	ID string `json:"id" validate:"required"`
	// Timestamp when the entry was appended
	Timestamp time.Time `json:"timestamp"`
}

// DataLogHub an append-only pointer log grouping encrypted entries of one
// category
//
// A hub never stores payloads directly, only references plus a timestamp
// index. Entries keep insertion order.
type DataLogHub struct {
	// ID hub ID
	ID string `json:"id" validate:"required"`

	// Entries ordered pointer log
	Entries []HubEntry `json:"entries"`
}
