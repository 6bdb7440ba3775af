// Package cloudsync - best-effort mirroring of the local schema to a remote
// document database
package cloudsync

import (
	"context"

	"github.com/alcovedb/alcove/docstore"
)

// Remote collection names. One remote collection per local collection,
// documents keyed by the same "id" field.
const (
	// RemoteCollectionUserData remote mirror of the user record collection
	RemoteCollectionUserData = "userData"
	// RemoteCollectionEncryptedData remote mirror of the encrypted entries
	RemoteCollectionEncryptedData = "encryptedData"
)

// LastSyncedField timestamp field added to remote documents, not present
// locally
const LastSyncedField = "last_synced"

// RemoteStore transport toward a remote document database
type RemoteStore interface {
	/*
		Connect establish the remote connection; no-op when already connected

			@param ctx context.Context - execution context
	*/
	Connect(ctx context.Context) error

	/*
		Disconnect tear down the remote connection; no-op when not connected

			@param ctx context.Context - execution context
	*/
	Disconnect(ctx context.Context) error

	/*
		Connected whether a connection is currently established

			@returns the connection flag
	*/
	Connected() bool

	/*
		ReplaceOne upsert one document by identifier

			@param ctx context.Context - execution context
			@param collection string - remote collection name
			@param id string - document identifier
			@param doc docstore.Document - full replacement document
	*/
	ReplaceOne(ctx context.Context, collection string, id string, doc docstore.Document) error

	/*
		BulkReplace upsert a batch of documents by identifier

			@param ctx context.Context - execution context
			@param collection string - remote collection name
			@param docs []docstore.Document - full replacement documents
	*/
	BulkReplace(ctx context.Context, collection string, docs []docstore.Document) error

	/*
		FindOneByID fetch one document by identifier

			@param ctx context.Context - execution context
			@param collection string - remote collection name
			@param id string - document identifier
			@returns the document and whether it was found
	*/
	FindOneByID(ctx context.Context, collection string, id string) (docstore.Document, bool, error)
}
