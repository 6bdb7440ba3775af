package models

import (
	"fmt"
)

// VaultStateENUMType vault operating state ENUM
type VaultStateENUMType string

const (
	// VaultStateUninitialized vault has not completed initialization
	VaultStateUninitialized VaultStateENUMType = "UNINITIALIZED"
	// VaultStateReady vault initialized and accepting domain operations
	VaultStateReady VaultStateENUMType = "READY"
	// VaultStateFailed vault initialization failed, domain operations are inert
	VaultStateFailed VaultStateENUMType = "FAILED"
)

// ValidateVaultStateTransition verify the vault can transition to a new state
func ValidateVaultStateTransition(current, next VaultStateENUMType) error {
	statesWithTransitions := map[VaultStateENUMType]map[VaultStateENUMType]bool{
		VaultStateUninitialized: {
			VaultStateUninitialized: true,
			VaultStateReady:         true,
			VaultStateFailed:        true,
		},
		VaultStateReady: {
			VaultStateReady:         true,
			VaultStateUninitialized: true,
		},
		VaultStateFailed: {
			VaultStateFailed:        true,
			VaultStateUninitialized: true,
		},
	}

	availableNextStates, ok := statesWithTransitions[current]
	if !ok {
		return fmt.Errorf("vault can't transition out of state '%s'", current)
	}

	if _, ok := availableNextStates[next]; !ok {
		return fmt.Errorf("vault can't transition from '%s' to '%s'", current, next)
	}

	return nil
}
