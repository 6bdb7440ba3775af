package cloudsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/alcovedb/alcove/docstore"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// memoryRemoteStore implements RemoteStore with in-process maps. It backs
// offline operation and isolated test instances.
type memoryRemoteStore struct {
	goutils.Component

	lock        *sync.Mutex
	connected   bool
	collections map[string]map[string]docstore.Document
}

/*
NewMemoryRemoteStore define an in-memory remote store

	@returns remote store instance
*/
func NewMemoryRemoteStore() RemoteStore {
	logTags := log.Fields{"package": "alcove", "module": "cloudsync", "component": "memory-remote"}

	return &memoryRemoteStore{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		lock:        &sync.Mutex{},
		collections: make(map[string]map[string]docstore.Document),
	}
}

/*
Connect establish the remote connection; no-op when already connected

	@param ctx context.Context - execution context
*/
func (r *memoryRemoteStore) Connect(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.connected = true
	return nil
}

/*
Disconnect tear down the remote connection; no-op when not connected

	@param ctx context.Context - execution context
*/
func (r *memoryRemoteStore) Disconnect(_ context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.connected = false
	return nil
}

/*
Connected whether a connection is currently established

	@returns the connection flag
*/
func (r *memoryRemoteStore) Connected() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.connected
}

/*
ReplaceOne upsert one document by identifier

	@param ctx context.Context - execution context
	@param collection string - remote collection name
	@param id string - document identifier
	@param doc docstore.Document - full replacement document
*/
func (r *memoryRemoteStore) ReplaceOne(
	_ context.Context, collection string, id string, doc docstore.Document,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.connected {
		return fmt.Errorf("remote store not connected")
	}

	if _, ok := r.collections[collection]; !ok {
		r.collections[collection] = make(map[string]docstore.Document)
	}
	r.collections[collection][id] = doc.Clone()
	return nil
}

/*
BulkReplace upsert a batch of documents by identifier

	@param ctx context.Context - execution context
	@param collection string - remote collection name
	@param docs []docstore.Document - full replacement documents
*/
func (r *memoryRemoteStore) BulkReplace(
	ctx context.Context, collection string, docs []docstore.Document,
) error {
	for _, doc := range docs {
		if err := r.ReplaceOne(ctx, collection, doc.ID(), doc); err != nil {
			return err
		}
	}
	return nil
}

/*
FindOneByID fetch one document by identifier

	@param ctx context.Context - execution context
	@param collection string - remote collection name
	@param id string - document identifier
	@returns the document and whether it was found
*/
func (r *memoryRemoteStore) FindOneByID(
	_ context.Context, collection string, id string,
) (docstore.Document, bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.connected {
		return nil, false, fmt.Errorf("remote store not connected")
	}

	docs, ok := r.collections[collection]
	if !ok {
		return nil, false, nil
	}
	doc, ok := docs[id]
	if !ok {
		return nil, false, nil
	}
	return doc.Clone(), true, nil
}
