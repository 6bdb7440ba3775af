package alcove_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/alcovedb/alcove"
	"github.com/alcovedb/alcove/cloudsync"
	"github.com/alcovedb/alcove/medium"
	"github.com/alcovedb/alcove/models"
	"github.com/alcovedb/alcove/scheduler"
	"github.com/alcovedb/alcove/sealer"
	"github.com/apex/log"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

// TestLocalVaultEndToEnd performs a full end-to-end test of the SQL-backed
// vault. A temporary SQLite database is created, wellness entries and doctor
// advices are recorded through the facade, the database is reopened through
// a second vault instance, and the restored content is mirrored to an
// in-memory remote store through the sync scheduler.
func TestLocalVaultEndToEnd(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	// ------------------------------------------------------------------
	// 1. Create a vault over a temporary SQLite database
	// ------------------------------------------------------------------
	ctx := context.Background()

	testDB := fmt.Sprintf("/tmp/alcove_ut_%s.db", ulid.Make().String())
	t.Logf("Using %s as test DB file", testDB)
	defer func() {
		assert.Nil(os.Remove(testDB))
	}()

	dataVault, err := alcove.NewLocalVault(ctx, medium.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.True(dataVault.Ready())

	// ------------------------------------------------------------------
	// 2. Record wellness entries across categories
	// ------------------------------------------------------------------
	moodEntry := map[string]any{"score": float64(7), "note": "slept well"}
	dataVault.SaveEncryptedData(ctx, moodEntry, models.LogCategoryMood)
	dataVault.SaveEncryptedData(ctx, map[string]any{"text": "hello"}, models.LogCategoryChat)

	dataVault.AddDoctorAdvice(ctx, "dr-house", "drink more water", "general")
	dataVault.SetSyncPreference(ctx, models.SyncPreferenceDaily)

	userData, found := dataVault.UserData(ctx)
	assert.True(found)
	assert.NotEmpty(userData.MoodLogHubID)
	assert.NotEmpty(userData.ChatHubID)
	assert.Empty(userData.HealthRecordHubID)

	// ------------------------------------------------------------------
	// 3. Reopen the database through a second vault instance
	// ------------------------------------------------------------------
	dataVault.Close(ctx)

	reopened, err := alcove.NewLocalVault(ctx, medium.GetSqliteDialector(testDB), logger.Error)
	assert.Nil(err)
	assert.True(reopened.Ready())

	// ------------------------------------------------------------------
	// 4. Verify the restored content
	// ------------------------------------------------------------------
	restoredUser, found := reopened.UserData(ctx)
	assert.True(found)
	assert.Equal(userData.ID, restoredUser.ID)
	assert.Equal(models.SyncPreferenceDaily, reopened.SyncPreference())

	advices := reopened.GetDoctorAdvices(ctx)
	assert.Len(advices, 1)
	assert.Equal("drink more water", advices[0].Advice)

	moodEntries := reopened.HubEntries(ctx, models.LogCategoryMood)
	assert.Len(moodEntries, 1)
	assert.Len(reopened.HubEntries(ctx, models.LogCategoryChat), 1)

	records := reopened.EncryptedRecords(ctx)
	assert.Len(records, 2)

	var restoredMood map[string]any
	for _, record := range records {
		if record.ID == moodEntries[0].ID {
			assert.Nil(reopened.OpenPayload(record, &restoredMood))
		}
	}
	assert.Equal(moodEntry, restoredMood)

	// ------------------------------------------------------------------
	// 5. Mirror the restored vault to an in-memory remote store
	// ------------------------------------------------------------------
	cipher, err := sealer.NewAESGCMFieldCipher([]byte("e2e-passphrase"), []byte("e2e-salt"))
	assert.Nil(err)

	remote := cloudsync.NewMemoryRemoteStore()
	cloud := cloudsync.NewCloudSync(remote, cipher)
	syncScheduler := scheduler.NewSyncScheduler(reopened, cloud)

	assert.True(syncScheduler.RunNow(ctx))

	fetched, found := cloud.FetchUserData(ctx, userData.ID)
	assert.True(found)
	assert.Equal(userData.ID, fetched.ID)
	assert.Len(fetched.DoctorAdvices, 1)
	assert.Equal("drink more water", fetched.DoctorAdvices[0].Advice)

	for _, record := range records {
		_, found, err := remote.FindOneByID(ctx, cloudsync.RemoteCollectionEncryptedData, record.ID)
		assert.Nil(err)
		assert.True(found)
	}
}
