// Package vault - database facade over the document store
package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alcovedb/alcove/docstore"
	"github.com/alcovedb/alcove/models"
	"github.com/alcovedb/alcove/sealer"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

/*
Vault the sanctioned entry point for all domain reads and writes.

UI consumers call only these operations and the readiness state; they never
touch the document store directly. A vault that failed initialization stays
inert: domain operations log a warning and return their documented empty
result instead of erroring.
*/
type Vault interface {
	/*
		State current lifecycle state

			@returns the vault state
	*/
	State() models.VaultStateENUMType

	/*
		Ready whether domain operations are accepted

			@returns readiness flag
	*/
	Ready() bool

	/*
		SyncPreference the in-memory sync cadence preference

			@returns the preference
	*/
	SyncPreference() models.SyncPreferenceENUMType

	/*
		SetSyncPreference update the sync cadence preference

		The in-memory value changes immediately so callers observe it at once;
		persistence into the user record happens within one write transaction
		when the vault is ready. Failures are logged, not surfaced.

			@param ctx context.Context - execution context
			@param preference models.SyncPreferenceENUMType - the new preference
	*/
	SetSyncPreference(ctx context.Context, preference models.SyncPreferenceENUMType)

	/*
		SaveEncryptedData seal and store one logged event under a category

		Within one write transaction: seal the payload into an EncryptedData
		record, find-or-create the user record, find-or-create the category
		hub, append the pointer entry, and refresh the user record's update
		timestamp. Failures are logged, not surfaced.

			@param ctx context.Context - execution context
			@param payload any - JSON-compatible event payload
			@param category models.LogCategoryENUMType - the log category
	*/
	SaveEncryptedData(ctx context.Context, payload any, category models.LogCategoryENUMType)

	/*
		GetDoctorAdvices list recorded doctor advices in insertion order

			@param ctx context.Context - execution context
			@returns the advices, empty when not ready or absent
	*/
	GetDoctorAdvices(ctx context.Context) []models.DoctorAdvice

	/*
		AddDoctorAdvice append one doctor advice to the user record

			@param ctx context.Context - execution context
			@param doctorID string - the authoring doctor
			@param advice string - the advice text
			@param category string - free-form advice category
	*/
	AddDoctorAdvice(ctx context.Context, doctorID string, advice string, category string)

	/*
		UserData snapshot of the singleton user record

			@param ctx context.Context - execution context
			@returns the record and whether it exists
	*/
	UserData(ctx context.Context) (models.UserData, bool)

	/*
		EncryptedRecords list every stored encrypted entry

			@param ctx context.Context - execution context
			@returns the entries, empty when not ready
	*/
	EncryptedRecords(ctx context.Context) []models.EncryptedData

	/*
		HubEntries list one category hub's pointer log in insertion order

			@param ctx context.Context - execution context
			@param category models.LogCategoryENUMType - the log category
			@returns the entries, empty when the hub does not exist yet
	*/
	HubEntries(ctx context.Context, category models.LogCategoryENUMType) []models.HubEntry

	/*
		OpenPayload unseal the payload of one encrypted entry

			@param record models.EncryptedData - the encrypted entry
			@param out any - decode target
	*/
	OpenPayload(record models.EncryptedData, out any) error

	/*
		Close return the vault to the uninitialized state

			@param ctx context.Context - execution context
	*/
	Close(ctx context.Context)
}

// vaultImpl implements Vault
type vaultImpl struct {
	goutils.Component

	store docstore.DocumentStore
	codec sealer.PayloadCodec

	validator *validator.Validate

	stateLock      *sync.RWMutex
	state          models.VaultStateENUMType
	syncPreference models.SyncPreferenceENUMType
}

/*
NewVault define a new database facade

Initialization confirms every collection is reachable on the durable medium.
On failure the vault enters the FAILED state and stays inert instead of
returning an error; this mirrors the degrade-to-inert policy expected by UI
consumers.

	@param ctx context.Context - execution context
	@param store docstore.DocumentStore - the document store
	@param codec sealer.PayloadCodec - payload sealing codec
	@returns vault instance
*/
func NewVault(
	ctx context.Context, store docstore.DocumentStore, codec sealer.PayloadCodec,
) (Vault, error) {
	logTags := log.Fields{"package": "alcove", "module": "vault", "component": "database-facade"}

	instance := &vaultImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		store:          store,
		codec:          codec,
		validator:      validator.New(),
		stateLock:      &sync.RWMutex{},
		state:          models.VaultStateUninitialized,
		syncPreference: models.SyncPreferenceLocal,
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	instance.initialize(ctx)

	return instance, nil
}

// initialize confirm the collections and load the persisted sync preference
func (v *vaultImpl) initialize(ctx context.Context) {
	for _, collection := range models.AllCollections() {
		if _, err := v.store.Objects(ctx, collection); err != nil {
			log.WithError(err).
				WithFields(v.LogTags).
				Errorf("Initialization failed confirming collection '%s'", collection)
			v.setState(models.VaultStateFailed)
			return
		}
	}

	// Restore the persisted sync preference, if a user record exists
	if userData, found := v.readUserData(ctx); found {
		v.stateLock.Lock()
		v.syncPreference = userData.SyncPreference
		v.stateLock.Unlock()
	}

	v.setState(models.VaultStateReady)
}

// setState transition the lifecycle state machine
func (v *vaultImpl) setState(next models.VaultStateENUMType) {
	v.stateLock.Lock()
	defer v.stateLock.Unlock()

	if err := models.ValidateVaultStateTransition(v.state, next); err != nil {
		log.WithError(err).WithFields(v.LogTags).Error("Rejected vault state transition")
		return
	}

	log.WithFields(v.LogTags).Infof("Vault state %s ==> %s", v.state, next)
	v.state = next
}

/*
State current lifecycle state

	@returns the vault state
*/
func (v *vaultImpl) State() models.VaultStateENUMType {
	v.stateLock.RLock()
	defer v.stateLock.RUnlock()
	return v.state
}

/*
Ready whether domain operations are accepted

	@returns readiness flag
*/
func (v *vaultImpl) Ready() bool {
	return v.State() == models.VaultStateReady
}

/*
SyncPreference the in-memory sync cadence preference

	@returns the preference
*/
func (v *vaultImpl) SyncPreference() models.SyncPreferenceENUMType {
	v.stateLock.RLock()
	defer v.stateLock.RUnlock()
	return v.syncPreference
}

// readUserData fetch the singleton user record without creating it
func (v *vaultImpl) readUserData(ctx context.Context) (models.UserData, bool) {
	doc, found, err := v.store.FindOne(ctx, models.CollectionUserData, nil)
	if err != nil || !found {
		if err != nil {
			log.WithError(err).WithFields(v.LogTags).Warn("Failed to read user record")
		}
		return models.UserData{}, false
	}

	userData, err := docstore.Decode[models.UserData](doc)
	if err != nil {
		log.WithError(err).WithFields(v.LogTags).Warn("User record does not decode")
		return models.UserData{}, false
	}
	return userData, true
}

// findOrCreateUserData fetch the singleton user record, creating it with
// defaults when absent. Must run inside a write transaction so repeated
// callers reuse the same record.
func (v *vaultImpl) findOrCreateUserData(ctx context.Context) (models.UserData, error) {
	if userData, found := v.readUserData(ctx); found {
		return userData, nil
	}

	now := time.Now().UTC()
	newRecord := models.UserData{
		ID:             uuid.NewString(),
		RephraseKey:    models.DefaultRephraseKey,
		CreatedAt:      now,
		UpdatedAt:      now,
		SyncPreference: v.SyncPreference(),
		DoctorAdvices:  []models.DoctorAdvice{},
	}

	if err := v.validator.Struct(&newRecord); err != nil {
		return models.UserData{}, fmt.Errorf("new user record is not valid [%w]", err)
	}

	doc, err := docstore.Encode(newRecord)
	if err != nil {
		return models.UserData{}, fmt.Errorf("new user record does not encode [%w]", err)
	}
	if _, err := v.store.Create(ctx, models.CollectionUserData, doc); err != nil {
		return models.UserData{}, fmt.Errorf("new user record failed insert [%w]", err)
	}

	log.WithFields(v.LogTags).Info("Created singleton user record")
	return newRecord, nil
}

/*
SetSyncPreference update the sync cadence preference

	@param ctx context.Context - execution context
	@param preference models.SyncPreferenceENUMType - the new preference
*/
func (v *vaultImpl) SetSyncPreference(
	ctx context.Context, preference models.SyncPreferenceENUMType,
) {
	// The in-memory value changes first so callers observe it immediately
	v.stateLock.Lock()
	v.syncPreference = preference
	v.stateLock.Unlock()

	if !v.Ready() {
		log.WithFields(v.LogTags).Warn("Vault not ready, sync preference not persisted")
		return
	}

	err := v.store.Write(ctx, func(ctx context.Context) error {
		userData, err := v.findOrCreateUserData(ctx)
		if err != nil {
			return err
		}

		_, _, err = v.store.Update(ctx, models.CollectionUserData, userData.ID, docstore.Document{
			"sync_preference": preference,
			"updated_at":      time.Now().UTC(),
		})
		return err
	})
	if err != nil {
		log.WithError(err).WithFields(v.LogTags).Warn("Failed to persist sync preference")
		return
	}

	log.WithFields(v.LogTags).Infof("Sync preference set to '%s'", preference)
}

/*
SaveEncryptedData seal and store one logged event under a category

	@param ctx context.Context - execution context
	@param payload any - JSON-compatible event payload
	@param category models.LogCategoryENUMType - the log category
*/
func (v *vaultImpl) SaveEncryptedData(
	ctx context.Context, payload any, category models.LogCategoryENUMType,
) {
	if !v.Ready() {
		log.WithFields(v.LogTags).Warn("Vault not ready, cannot save data")
		return
	}

	hubField, err := models.HubFieldForCategory(category)
	if err != nil {
		log.WithError(err).WithFields(v.LogTags).Warn("Refusing save for unknown category")
		return
	}

	err = v.store.Write(ctx, func(ctx context.Context) error {
		// Seal the payload into a new encrypted entry. The entry is written
		// before any pointer to it, preserving referential integrity.
		sealed, err := v.codec.Seal(payload)
		if err != nil {
			return fmt.Errorf("failed to seal payload [%w]", err)
		}

		encRecord := models.EncryptedData{
			ID:               uuid.NewString(),
			EncryptedPayload: sealed,
			Version:          models.PayloadSchemaVersion,
		}
		if err := v.validator.Struct(&encRecord); err != nil {
			return fmt.Errorf("new encrypted entry is not valid [%w]", err)
		}

		encDoc, err := docstore.Encode(encRecord)
		if err != nil {
			return fmt.Errorf("new encrypted entry does not encode [%w]", err)
		}
		if _, err := v.store.Create(ctx, models.CollectionEncryptedData, encDoc); err != nil {
			return fmt.Errorf("new encrypted entry failed insert [%w]", err)
		}

		userData, err := v.findOrCreateUserData(ctx)
		if err != nil {
			return err
		}

		// Find-or-create the category hub, linking it back onto the user
		// record on first use
		userUpdates := docstore.Document{"updated_at": time.Now().UTC()}
		hubID, err := userData.HubIDForCategory(category)
		if err != nil {
			return err
		}
		if hubID == "" {
			hubDoc, err := docstore.Encode(models.DataLogHub{
				ID:      uuid.NewString(),
				Entries: []models.HubEntry{},
			})
			if err != nil {
				return fmt.Errorf("new hub does not encode [%w]", err)
			}
			created, err := v.store.Create(ctx, models.CollectionDataLogHub, hubDoc)
			if err != nil {
				return fmt.Errorf("new '%s' hub failed insert [%w]", category, err)
			}
			hubID = created.ID()
			userUpdates[hubField] = hubID
			log.WithFields(v.LogTags).Infof("Created '%s' data log hub", category)
		}

		// Append the pointer entry to the hub
		hubDoc, found, err := v.store.FindByID(ctx, models.CollectionDataLogHub, hubID)
		if err != nil {
			return fmt.Errorf("failed to fetch hub %s [%w]", hubID, err)
		}
		if !found {
			return fmt.Errorf("user record references missing hub %s", hubID)
		}
		hub, err := docstore.Decode[models.DataLogHub](hubDoc)
		if err != nil {
			return fmt.Errorf("hub %s does not decode [%w]", hubID, err)
		}
		hub.Entries = append(hub.Entries, models.HubEntry{
			ID:        encRecord.ID,
			Timestamp: time.Now().UTC(),
		})
		if _, _, err := v.store.Update(
			ctx, models.CollectionDataLogHub, hubID, docstore.Document{"entries": hub.Entries},
		); err != nil {
			return fmt.Errorf("failed to append to hub %s [%w]", hubID, err)
		}

		// Refresh the user record
		if _, _, err := v.store.Update(
			ctx, models.CollectionUserData, userData.ID, userUpdates,
		); err != nil {
			return fmt.Errorf("failed to refresh user record [%w]", err)
		}

		return nil
	})
	if err != nil {
		log.WithError(err).WithFields(v.LogTags).Warn("Failed to save encrypted data")
		return
	}

	log.WithFields(v.LogTags).Infof("Saved encrypted '%s' data", category)
}

/*
GetDoctorAdvices list recorded doctor advices in insertion order

	@param ctx context.Context - execution context
	@returns the advices, empty when not ready or absent
*/
func (v *vaultImpl) GetDoctorAdvices(ctx context.Context) []models.DoctorAdvice {
	if !v.Ready() {
		return []models.DoctorAdvice{}
	}

	userData, found := v.readUserData(ctx)
	if !found || userData.DoctorAdvices == nil {
		return []models.DoctorAdvice{}
	}
	return userData.DoctorAdvices
}

/*
AddDoctorAdvice append one doctor advice to the user record

	@param ctx context.Context - execution context
	@param doctorID string - the authoring doctor
	@param advice string - the advice text
	@param category string - free-form advice category
*/
func (v *vaultImpl) AddDoctorAdvice(
	ctx context.Context, doctorID string, advice string, category string,
) {
	if !v.Ready() {
		log.WithFields(v.LogTags).Warn("Vault not ready, cannot add doctor advice")
		return
	}

	err := v.store.Write(ctx, func(ctx context.Context) error {
		userData, err := v.findOrCreateUserData(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		newAdvice := models.DoctorAdvice{
			ID:        ulid.Make().String(),
			DoctorID:  doctorID,
			Advice:    advice,
			Timestamp: now,
			Category:  category,
		}
		if err := v.validator.Struct(&newAdvice); err != nil {
			return fmt.Errorf("new doctor advice is not valid [%w]", err)
		}

		advices := append(userData.DoctorAdvices, newAdvice)
		_, _, err = v.store.Update(ctx, models.CollectionUserData, userData.ID, docstore.Document{
			"doctor_advices": advices,
			"updated_at":     now,
		})
		return err
	})
	if err != nil {
		log.WithError(err).WithFields(v.LogTags).Warn("Failed to add doctor advice")
		return
	}

	log.WithFields(v.LogTags).Infof("Added doctor advice from '%s'", doctorID)
}

/*
UserData snapshot of the singleton user record

	@param ctx context.Context - execution context
	@returns the record and whether it exists
*/
func (v *vaultImpl) UserData(ctx context.Context) (models.UserData, bool) {
	if !v.Ready() {
		return models.UserData{}, false
	}
	return v.readUserData(ctx)
}

/*
EncryptedRecords list every stored encrypted entry

	@param ctx context.Context - execution context
	@returns the entries, empty when not ready
*/
func (v *vaultImpl) EncryptedRecords(ctx context.Context) []models.EncryptedData {
	if !v.Ready() {
		return []models.EncryptedData{}
	}

	docs, err := v.store.Objects(ctx, models.CollectionEncryptedData)
	if err != nil {
		log.WithError(err).WithFields(v.LogTags).Warn("Failed to list encrypted entries")
		return []models.EncryptedData{}
	}

	records, err := docstore.DecodeAll[models.EncryptedData](docs)
	if err != nil {
		log.WithError(err).WithFields(v.LogTags).Warn("Encrypted entries do not decode")
		return []models.EncryptedData{}
	}
	return records
}

/*
HubEntries list one category hub's pointer log in insertion order

	@param ctx context.Context - execution context
	@param category models.LogCategoryENUMType - the log category
	@returns the entries, empty when the hub does not exist yet
*/
func (v *vaultImpl) HubEntries(
	ctx context.Context, category models.LogCategoryENUMType,
) []models.HubEntry {
	if !v.Ready() {
		return []models.HubEntry{}
	}

	userData, found := v.readUserData(ctx)
	if !found {
		return []models.HubEntry{}
	}

	hubID, err := userData.HubIDForCategory(category)
	if err != nil || hubID == "" {
		return []models.HubEntry{}
	}

	hubDoc, found, err := v.store.FindByID(ctx, models.CollectionDataLogHub, hubID)
	if err != nil || !found {
		if err != nil {
			log.WithError(err).WithFields(v.LogTags).Warnf("Failed to fetch hub %s", hubID)
		}
		return []models.HubEntry{}
	}

	hub, err := docstore.Decode[models.DataLogHub](hubDoc)
	if err != nil {
		log.WithError(err).WithFields(v.LogTags).Warnf("Hub %s does not decode", hubID)
		return []models.HubEntry{}
	}
	return hub.Entries
}

/*
OpenPayload unseal the payload of one encrypted entry

	@param record models.EncryptedData - the encrypted entry
	@param out any - decode target
*/
func (v *vaultImpl) OpenPayload(record models.EncryptedData, out any) error {
	return v.codec.Open(record.EncryptedPayload, out)
}

/*
Close return the vault to the uninitialized state

	@param ctx context.Context - execution context
*/
func (v *vaultImpl) Close(_ context.Context) {
	v.setState(models.VaultStateUninitialized)
	log.WithFields(v.LogTags).Info("Vault closed")
}
