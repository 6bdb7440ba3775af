package models

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

/*
RegisterWithValidator register with the validator this custom validation support

	@param v *validator.Validate - the validator to register against
	@return whether successful
*/
func RegisterWithValidator(v *validator.Validate) error {
	if err := v.RegisterValidation(
		"sync_preference", validateSyncPreferenceType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"log_category", validateLogCategoryType,
	); err != nil {
		return err
	}

	if err := v.RegisterValidation(
		"vault_state", validateVaultStateType,
	); err != nil {
		return err
	}

	return nil
}

func validateSyncPreferenceType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch SyncPreferenceENUMType(fl.Field().String()) {
	case SyncPreferenceLocal:
		fallthrough
	case SyncPreferenceDaily:
		fallthrough
	case SyncPreferenceWeekly:
		return true
	}
	return false
}

func validateLogCategoryType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch LogCategoryENUMType(fl.Field().String()) {
	case LogCategoryMood:
		fallthrough
	case LogCategoryChat:
		fallthrough
	case LogCategoryHealth:
		return true
	}
	return false
}

func validateVaultStateType(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	switch VaultStateENUMType(fl.Field().String()) {
	case VaultStateUninitialized:
		fallthrough
	case VaultStateReady:
		fallthrough
	case VaultStateFailed:
		return true
	}
	return false
}
