// Package models - vault data models
package models

import (
	"fmt"
	"time"
)

// DefaultRephraseKey placeholder encryption key reference assigned to a new
// user record. Real key material is managed outside the vault.
const DefaultRephraseKey = "default-key"

// SyncPreferenceENUMType cloud sync cadence preference ENUM value type
type SyncPreferenceENUMType string

const (
	// SyncPreferenceLocal data stays local, automatic sync never runs
	SyncPreferenceLocal SyncPreferenceENUMType = "local"
	// SyncPreferenceDaily data is mirrored to the remote store once a day
	SyncPreferenceDaily SyncPreferenceENUMType = "daily"
	// SyncPreferenceWeekly data is mirrored to the remote store once a week
	SyncPreferenceWeekly SyncPreferenceENUMType = "weekly"
)

// LogCategoryENUMType encrypted log category ENUM value type
type LogCategoryENUMType string

const (
	// LogCategoryMood mood check-in entries
	LogCategoryMood LogCategoryENUMType = "mood"
	// LogCategoryChat chat assistant transcript entries
	LogCategoryChat LogCategoryENUMType = "chat"
	// LogCategoryHealth health record entries
	LogCategoryHealth LogCategoryENUMType = "health"
)

// DoctorAdvice one doctor advice entry embedded in the user record
type DoctorAdvice struct {
	// ID advice entry ID
	ID string `json:"id" validate:"required"`
	// DoctorID the authoring doctor
	DoctorID string `json:"doctor_id" validate:"required"`
	// Advice the advice text
	Advice string `json:"advice" validate:"required"`
	// Timestamp when the advice was recorded
	Timestamp time.Time `json:"timestamp"`
	// Category free-form advice category (e.g. "general")
	Category string `json:"category"`
}

// UserData the singleton per-installation user record
//
// The hub ID fields are weak references by identifier into the DataLogHub
// collection; they are created lazily on the first save in that category.
type UserData struct {
	// ID record ID
	ID string `json:"id" validate:"required"`

	// RephraseKey opaque reference to an encryption key
	RephraseKey string `json:"rephrase_key" validate:"required"`

	// CreatedAt record creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt refreshed on every mutation of this record or its owned hubs
	UpdatedAt time.Time `json:"updated_at"`

	// MoodLogHubID weak reference to the mood log hub
	MoodLogHubID string `json:"mood_log_hub_id,omitempty"`
	// ChatHubID weak reference to the chat log hub
	ChatHubID string `json:"chat_hub_id,omitempty"`
	// HealthRecordHubID weak reference to the health record hub
	HealthRecordHubID string `json:"health_record_hub_id,omitempty"`

	// SyncPreference cloud sync cadence
	SyncPreference SyncPreferenceENUMType `json:"sync_preference" validate:"required,sync_preference"`

	// DoctorAdvices ordered append-only advice list
	DoctorAdvices []DoctorAdvice `json:"doctor_advices"`
}

// HubIDForCategory read the hub reference for a log category
func (u *UserData) HubIDForCategory(category LogCategoryENUMType) (string, error) {
	switch category {
	case LogCategoryMood:
		return u.MoodLogHubID, nil
	case LogCategoryChat:
		return u.ChatHubID, nil
	case LogCategoryHealth:
		return u.HealthRecordHubID, nil
	}
	return "", fmt.Errorf("unknown log category '%s'", category)
}

// SetHubIDForCategory record the hub reference for a log category
func (u *UserData) SetHubIDForCategory(category LogCategoryENUMType, hubID string) error {
	switch category {
	case LogCategoryMood:
		u.MoodLogHubID = hubID
	case LogCategoryChat:
		u.ChatHubID = hubID
	case LogCategoryHealth:
		u.HealthRecordHubID = hubID
	default:
		return fmt.Errorf("unknown log category '%s'", category)
	}
	return nil
}

// HubFieldForCategory document field name carrying the hub reference for
// a log category. This is the field updated inside the document store.
func HubFieldForCategory(category LogCategoryENUMType) (string, error) {
	switch category {
	case LogCategoryMood:
		return "mood_log_hub_id", nil
	case LogCategoryChat:
		return "chat_hub_id", nil
	case LogCategoryHealth:
		return "health_record_hub_id", nil
	}
	return "", fmt.Errorf("unknown log category '%s'", category)
}
