// Package medium - durable storage media for serialized collections
package medium

import "context"

// KeyPrefix fixed application namespace prefix for collection keys. It keeps
// the vault's keys from colliding with other data sharing the same medium.
const KeyPrefix = "alcove_"

// StorageKey the namespaced durable-medium key for a collection
func StorageKey(collection string) string {
	return KeyPrefix + collection
}

// Medium a durable key-value medium holding one serialized blob per
// collection
//
// Every write replaces the collection's entire serialized representation;
// the medium offers no partial or incremental writes.
type Medium interface {
	/*
		ReadCollection read the serialized form of a collection

			@param ctx context.Context - execution context
			@param collection string - collection name
			@returns the serialized payload, or nil if the collection was never written
	*/
	ReadCollection(ctx context.Context, collection string) ([]byte, error)

	/*
		WriteCollection atomically replace the serialized form of a collection

			@param ctx context.Context - execution context
			@param collection string - collection name
			@param payload []byte - full serialized payload
	*/
	WriteCollection(ctx context.Context, collection string, payload []byte) error
}
