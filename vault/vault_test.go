package vault_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alcovedb/alcove/docstore"
	"github.com/alcovedb/alcove/medium"
	"github.com/alcovedb/alcove/models"
	"github.com/alcovedb/alcove/sealer"
	"github.com/alcovedb/alcove/vault"
	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

// brokenMedium a medium whose reads always fail, driving the vault into the
// FAILED state during initialization
type brokenMedium struct{}

func (m *brokenMedium) ReadCollection(_ context.Context, collection string) ([]byte, error) {
	return nil, fmt.Errorf("medium unreachable for '%s'", collection)
}

func (m *brokenMedium) WriteCollection(_ context.Context, collection string, _ []byte) error {
	return fmt.Errorf("medium unreachable for '%s'", collection)
}

func definedTestVault(t *testing.T, durable medium.Medium) vault.Vault {
	uut, err := vault.NewVault(
		context.Background(), docstore.NewDocumentStore(durable), sealer.NewBase64PayloadCodec(),
	)
	assert.Nil(t, err)
	return uut
}

func TestVaultInitialization(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// -------------------------------------------------------------------------
	// 1 – A reachable medium yields a ready vault
	uut := definedTestVault(t, medium.NewMemoryMedium())
	assert.Equal(models.VaultStateReady, uut.State())
	assert.True(uut.Ready())

	// 2 – No user record exists before the first write
	_, found := uut.UserData(utCtx)
	assert.False(found)

	// 3 – Close returns the vault to the uninitialized state
	uut.Close(utCtx)
	assert.Equal(models.VaultStateUninitialized, uut.State())
	assert.False(uut.Ready())
}

func TestVaultSaveEncryptedData(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := definedTestVault(t, medium.NewMemoryMedium())

	// -------------------------------------------------------------------------
	// 1 – Saving one mood entry lazily creates the user record and the hub
	payload := map[string]any{"score": float64(7), "note": "slept well"}
	uut.SaveEncryptedData(utCtx, payload, models.LogCategoryMood)

	userData, found := uut.UserData(utCtx)
	assert.True(found)
	assert.NotEmpty(userData.ID)
	assert.Equal(models.DefaultRephraseKey, userData.RephraseKey)
	assert.NotEmpty(userData.MoodLogHubID)
	assert.Empty(userData.ChatHubID)

	entries := uut.HubEntries(utCtx, models.LogCategoryMood)
	assert.Len(entries, 1)
	assert.False(entries[0].Timestamp.IsZero())

	// 2 – The hub entry points at a stored encrypted record whose payload
	//     opens back to the original
	records := uut.EncryptedRecords(utCtx)
	assert.Len(records, 1)
	assert.Equal(entries[0].ID, records[0].ID)
	assert.Equal(models.PayloadSchemaVersion, records[0].Version)
	assert.NotEqual(fmt.Sprintf("%v", payload), records[0].EncryptedPayload)

	var opened map[string]any
	assert.Nil(uut.OpenPayload(records[0], &opened))
	assert.Equal(payload, opened)

	// -------------------------------------------------------------------------
	// 3 – A second save in the same category reuses the hub
	uut.SaveEncryptedData(utCtx, map[string]any{"score": float64(4)}, models.LogCategoryMood)

	userData2, found := uut.UserData(utCtx)
	assert.True(found)
	assert.Equal(userData.ID, userData2.ID)
	assert.Equal(userData.MoodLogHubID, userData2.MoodLogHubID)
	assert.Len(uut.HubEntries(utCtx, models.LogCategoryMood), 2)

	// 4 – A save in a different category creates its own hub on the same
	//     singleton user record
	uut.SaveEncryptedData(utCtx, map[string]any{"text": "hello"}, models.LogCategoryChat)

	userData3, found := uut.UserData(utCtx)
	assert.True(found)
	assert.Equal(userData.ID, userData3.ID)
	assert.NotEmpty(userData3.ChatHubID)
	assert.NotEqual(userData3.MoodLogHubID, userData3.ChatHubID)
	assert.Len(uut.HubEntries(utCtx, models.LogCategoryChat), 1)
	assert.Len(uut.HubEntries(utCtx, models.LogCategoryMood), 2)
	assert.Len(uut.EncryptedRecords(utCtx), 3)
}

func TestVaultDoctorAdvices(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := definedTestVault(t, medium.NewMemoryMedium())

	// -------------------------------------------------------------------------
	// 1 – No advices before the first write
	assert.Empty(uut.GetDoctorAdvices(utCtx))

	// 2 – Advices append in order, each with an ID and timestamp
	uut.AddDoctorAdvice(utCtx, "dr-house", "drink more water", "general")
	uut.AddDoctorAdvice(utCtx, "dr-wilson", "sleep eight hours", "sleep")

	advices := uut.GetDoctorAdvices(utCtx)
	assert.Len(advices, 2)
	assert.Equal("dr-house", advices[0].DoctorID)
	assert.Equal("drink more water", advices[0].Advice)
	assert.Equal("general", advices[0].Category)
	assert.NotEmpty(advices[0].ID)
	assert.False(advices[0].Timestamp.IsZero())
	assert.Equal("dr-wilson", advices[1].DoctorID)
	assert.NotEqual(advices[0].ID, advices[1].ID)

	// 3 – Still only one user record
	userData, found := uut.UserData(utCtx)
	assert.True(found)
	assert.Len(userData.DoctorAdvices, 2)
}

func TestVaultSyncPreference(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	durable := medium.NewMemoryMedium()
	uut := definedTestVault(t, durable)

	// -------------------------------------------------------------------------
	// 1 – Default preference is local
	assert.Equal(models.SyncPreferenceLocal, uut.SyncPreference())

	// 2 – The in-memory value changes immediately
	uut.SetSyncPreference(utCtx, models.SyncPreferenceDaily)
	assert.Equal(models.SyncPreferenceDaily, uut.SyncPreference())

	userData, found := uut.UserData(utCtx)
	assert.True(found)
	assert.Equal(models.SyncPreferenceDaily, userData.SyncPreference)

	// -------------------------------------------------------------------------
	// 3 – A new vault over the same medium restores the persisted preference
	reopened := definedTestVault(t, durable)
	assert.Equal(models.SyncPreferenceDaily, reopened.SyncPreference())

	// 4 – And the singleton user record is reused, not recreated
	reopenedData, found := reopened.UserData(utCtx)
	assert.True(found)
	assert.Equal(userData.ID, reopenedData.ID)
}

func TestVaultDegradesToInert(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := definedTestVault(t, &brokenMedium{})

	// -------------------------------------------------------------------------
	// 1 – Initialization failure is absorbed into the FAILED state
	assert.Equal(models.VaultStateFailed, uut.State())
	assert.False(uut.Ready())

	// 2 – Domain operations are inert: no panics, no errors, empty results
	uut.SaveEncryptedData(utCtx, map[string]any{"score": 1}, models.LogCategoryMood)
	uut.AddDoctorAdvice(utCtx, "dr-house", "rest", "general")
	uut.SetSyncPreference(utCtx, models.SyncPreferenceWeekly)

	_, found := uut.UserData(utCtx)
	assert.False(found)
	assert.Empty(uut.GetDoctorAdvices(utCtx))
	assert.Empty(uut.EncryptedRecords(utCtx))
	assert.Empty(uut.HubEntries(utCtx, models.LogCategoryMood))

	// 3 – The in-memory preference still reflects the caller's choice
	assert.Equal(models.SyncPreferenceWeekly, uut.SyncPreference())
}
