package cloudsync

import (
	"context"
	"fmt"
	"time"

	"github.com/alcovedb/alcove/docstore"
	"github.com/alcovedb/alcove/models"
	"github.com/alcovedb/alcove/sealer"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

/*
CloudSync mirrors the local schema to a remote document database.

Every operation is best effort: connection and sync failures are caught at
this boundary, logged, and surfaced only as a boolean or not-found result.
Reconnection is attempted lazily on each call.
*/
type CloudSync interface {
	/*
		Connect establish the remote connection

			@param ctx context.Context - execution context
			@returns whether the connection is up
	*/
	Connect(ctx context.Context) bool

	/*
		Disconnect tear down the remote connection

			@param ctx context.Context - execution context
	*/
	Disconnect(ctx context.Context)

	/*
		ConnectionStatus whether the remote connection is currently up

			@returns the connection flag
	*/
	ConnectionStatus() bool

	/*
		SyncUserData mirror the user record to the remote store

		Advice text is encrypted with the field cipher before leaving the
		local store, and the remote copy is stamped with a last-synced
		timestamp.

			@param ctx context.Context - execution context
			@param userData models.UserData - the record to mirror
			@returns whether the sync succeeded
	*/
	SyncUserData(ctx context.Context, userData models.UserData) bool

	/*
		SyncEncryptedData mirror a batch of encrypted entries to the remote
		store; success on empty input

			@param ctx context.Context - execution context
			@param items []models.EncryptedData - the entries to mirror
			@returns whether the sync succeeded
	*/
	SyncEncryptedData(ctx context.Context, items []models.EncryptedData) bool

	/*
		FetchUserData fetch the remote user record by identifier, decrypting
		the advice text fields

			@param ctx context.Context - execution context
			@param id string - user record identifier
			@returns the decrypted record and whether it was found
	*/
	FetchUserData(ctx context.Context, id string) (models.UserData, bool)
}

// cloudSyncImpl implements CloudSync
type cloudSyncImpl struct {
	goutils.Component

	remote RemoteStore
	cipher sealer.FieldCipher
}

/*
NewCloudSync define a new cloud sync adapter

	@param remote RemoteStore - remote document store transport
	@param cipher sealer.FieldCipher - server-directed field cipher
	@returns adapter instance
*/
func NewCloudSync(remote RemoteStore, cipher sealer.FieldCipher) CloudSync {
	logTags := log.Fields{"package": "alcove", "module": "cloudsync", "component": "sync-adapter"}

	return &cloudSyncImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		remote: remote,
		cipher: cipher,
	}
}

/*
Connect establish the remote connection

	@param ctx context.Context - execution context
	@returns whether the connection is up
*/
func (s *cloudSyncImpl) Connect(ctx context.Context) bool {
	if err := s.remote.Connect(ctx); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("Failed to connect to remote store")
		return false
	}
	return true
}

/*
Disconnect tear down the remote connection

	@param ctx context.Context - execution context
*/
func (s *cloudSyncImpl) Disconnect(ctx context.Context) {
	if err := s.remote.Disconnect(ctx); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("Failed to disconnect from remote store")
	}
}

/*
ConnectionStatus whether the remote connection is currently up

	@returns the connection flag
*/
func (s *cloudSyncImpl) ConnectionStatus() bool {
	return s.remote.Connected()
}

// ensureConnected lazily reconnect before a sync call
func (s *cloudSyncImpl) ensureConnected(ctx context.Context) error {
	if s.remote.Connected() {
		return nil
	}
	return s.remote.Connect(ctx)
}

// encryptAdvices field-encrypt the advice text of every entry
func (s *cloudSyncImpl) encryptAdvices(
	advices []models.DoctorAdvice,
) ([]models.DoctorAdvice, error) {
	result := make([]models.DoctorAdvice, len(advices))
	for idx, advice := range advices {
		encrypted, err := s.cipher.EncryptField(advice.Advice)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt advice %s [%w]", advice.ID, err)
		}
		advice.Advice = encrypted
		result[idx] = advice
	}
	return result, nil
}

/*
SyncUserData mirror the user record to the remote store

	@param ctx context.Context - execution context
	@param userData models.UserData - the record to mirror
	@returns whether the sync succeeded
*/
func (s *cloudSyncImpl) SyncUserData(ctx context.Context, userData models.UserData) bool {
	if err := s.ensureConnected(ctx); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("User data sync failed to connect")
		return false
	}

	encrypted, err := s.encryptAdvices(userData.DoctorAdvices)
	if err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("User data sync failed to encrypt")
		return false
	}
	userData.DoctorAdvices = encrypted

	doc, err := docstore.Encode(userData)
	if err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("User data does not encode for sync")
		return false
	}
	doc[LastSyncedField] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.remote.ReplaceOne(ctx, RemoteCollectionUserData, userData.ID, doc); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("User data sync failed")
		return false
	}

	log.WithFields(s.LogTags).Info("User data synced to remote store")
	return true
}

/*
SyncEncryptedData mirror a batch of encrypted entries to the remote store

	@param ctx context.Context - execution context
	@param items []models.EncryptedData - the entries to mirror
	@returns whether the sync succeeded
*/
func (s *cloudSyncImpl) SyncEncryptedData(
	ctx context.Context, items []models.EncryptedData,
) bool {
	if len(items) == 0 {
		return true
	}

	if err := s.ensureConnected(ctx); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("Encrypted data sync failed to connect")
		return false
	}

	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	docs := make([]docstore.Document, 0, len(items))
	for _, item := range items {
		doc, err := docstore.Encode(item)
		if err != nil {
			log.WithError(err).WithFields(s.LogTags).Warn("Encrypted entry does not encode for sync")
			return false
		}
		doc[LastSyncedField] = stamp
		docs = append(docs, doc)
	}

	if err := s.remote.BulkReplace(ctx, RemoteCollectionEncryptedData, docs); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("Encrypted data sync failed")
		return false
	}

	log.WithFields(s.LogTags).Infof("Synced %d encrypted entries to remote store", len(docs))
	return true
}

/*
FetchUserData fetch the remote user record by identifier

	@param ctx context.Context - execution context
	@param id string - user record identifier
	@returns the decrypted record and whether it was found
*/
func (s *cloudSyncImpl) FetchUserData(ctx context.Context, id string) (models.UserData, bool) {
	if err := s.ensureConnected(ctx); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("User data fetch failed to connect")
		return models.UserData{}, false
	}

	doc, found, err := s.remote.FindOneByID(ctx, RemoteCollectionUserData, id)
	if err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("User data fetch failed")
		return models.UserData{}, false
	}
	if !found {
		return models.UserData{}, false
	}

	userData, err := docstore.Decode[models.UserData](doc)
	if err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("Remote user data does not decode")
		return models.UserData{}, false
	}

	for idx, advice := range userData.DoctorAdvices {
		decrypted, err := s.cipher.DecryptField(advice.Advice)
		if err != nil {
			log.WithError(err).
				WithFields(s.LogTags).
				Warnf("Failed to decrypt advice %s", advice.ID)
			return models.UserData{}, false
		}
		userData.DoctorAdvices[idx].Advice = decrypted
	}

	return userData, true
}
