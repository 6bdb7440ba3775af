package models

// PayloadSchemaVersion current schema-evolution tag stamped on new
// encrypted entries
const PayloadSchemaVersion = 1

// EncryptedData an encrypted log entry
//
// Created once per logged event, never mutated. Entries are referenced
// from hub entry lists but have independent lifetime; they are never
// cascade-deleted.
type EncryptedData struct {
	// ID record ID
	ID string `json:"id" validate:"required"`

	// EncryptedPayload the sealed form of an arbitrary JSON-compatible payload
	EncryptedPayload string `json:"encrypted_payload" validate:"required"`

	// Version schema-evolution tag
	Version int `json:"version" validate:"required"`
}
