// Package scheduler - periodic cloud sync driven by the sync preference
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/alcovedb/alcove/cloudsync"
	"github.com/alcovedb/alcove/models"
	"github.com/alcovedb/alcove/vault"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/robfig/cron/v3"
)

/*
CronSpecForPreference the cron schedule implementing a sync preference

	@param preference models.SyncPreferenceENUMType - the sync preference
	@returns the cron spec, and whether automatic sync runs at all
*/
func CronSpecForPreference(preference models.SyncPreferenceENUMType) (string, bool) {
	switch preference {
	case models.SyncPreferenceDaily:
		// 3 AM every day
		return "0 3 * * *", true
	case models.SyncPreferenceWeekly:
		// 3 AM every Sunday
		return "0 3 * * 0", true
	}
	return "", false
}

// SyncScheduler runs the cloud sync adapter on the cadence selected by the
// user's sync preference
type SyncScheduler struct {
	goutils.Component

	vault vault.Vault
	cloud cloudsync.CloudSync

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

/*
NewSyncScheduler define a new sync scheduler

	@param dataVault vault.Vault - the local database facade
	@param cloud cloudsync.CloudSync - the cloud sync adapter
	@returns scheduler instance
*/
func NewSyncScheduler(dataVault vault.Vault, cloud cloudsync.CloudSync) *SyncScheduler {
	logTags := log.Fields{"package": "alcove", "module": "scheduler", "component": "sync-scheduler"}

	return &SyncScheduler{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		vault: dataVault,
		cloud: cloud,
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
		))),
	}
}

/*
Start begin scheduling if the current sync preference enables automatic sync

	@param ctx context.Context - execution context
*/
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	spec, enabled := CronSpecForPreference(s.vault.SyncPreference())
	if !enabled {
		log.WithFields(s.LogTags).Info("Sync scheduler disabled, data stays local")
		return nil
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		s.runSync(context.Background())
	})
	if err != nil {
		return err
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	log.WithFields(s.LogTags).Infof("Sync scheduler started with schedule '%s'", spec)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

/*
Stop gracefully stop the scheduler, waiting for a running sync to finish
*/
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.isRunning = false
	log.WithFields(s.LogTags).Info("Sync scheduler stopped")
}

/*
Reschedule restart with the current sync preference; call after the
preference changes

	@param ctx context.Context - execution context
*/
func (s *SyncScheduler) Reschedule(ctx context.Context) error {
	s.mu.RLock()
	wasRunning := s.isRunning
	s.mu.RUnlock()

	if wasRunning {
		s.Stop()
		s.mu.Lock()
		if s.entryID != 0 {
			s.cron.Remove(s.entryID)
			s.entryID = 0
		}
		s.mu.Unlock()
	}

	return s.Start(ctx)
}

/*
RunNow trigger an immediate sync pass

	@param ctx context.Context - execution context
	@returns whether both collections mirrored successfully
*/
func (s *SyncScheduler) RunNow(ctx context.Context) bool {
	return s.runSync(ctx)
}

/*
IsRunning whether the scheduler is active

	@returns the running flag
*/
func (s *SyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

/*
NextRunTime when the next scheduled sync will occur

	@returns the next run time, or nil when not scheduled
*/
func (s *SyncScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync one sync pass: mirror the user record and every encrypted entry
func (s *SyncScheduler) runSync(ctx context.Context) bool {
	if !s.vault.Ready() {
		log.WithFields(s.LogTags).Warn("Sync skipped, vault not ready")
		return false
	}

	startTime := time.Now()

	userData, found := s.vault.UserData(ctx)
	if !found {
		log.WithFields(s.LogTags).Info("Sync skipped, nothing recorded yet")
		return true
	}

	if !s.cloud.SyncUserData(ctx, userData) {
		log.WithFields(s.LogTags).Warn("Sync pass failed mirroring user data")
		return false
	}

	records := s.vault.EncryptedRecords(ctx)
	if !s.cloud.SyncEncryptedData(ctx, records) {
		log.WithFields(s.LogTags).Warn("Sync pass failed mirroring encrypted entries")
		return false
	}

	log.WithFields(s.LogTags).Infof(
		"Sync pass mirrored %d encrypted entries in %v",
		len(records), time.Since(startTime).Round(time.Millisecond),
	)
	return true
}
