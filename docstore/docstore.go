// Package docstore - minimal embedded document store over a durable medium
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/alcovedb/alcove/medium"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/google/uuid"
)

// IDField document field carrying the unique identifier
const IDField = "id"

// Document a record with a unique identifier plus arbitrary JSON-compatible
// fields, the unit of storage
type Document map[string]any

// Predicate exact-match conjunction over document fields; every listed field
// must equal the given value
type Predicate map[string]any

// ID the document's identifier, or empty when unset
func (d Document) ID() string {
	id, ok := d[IDField].(string)
	if !ok {
		return ""
	}
	return id
}

// Clone deep-copy the document through its JSON representation
func (d Document) Clone() Document {
	serialized, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	var copied Document
	if err := json.Unmarshal(serialized, &copied); err != nil {
		return nil
	}
	return copied
}

// DocumentStore generic persistence primitive over named collections,
// modeling a minimal document database
type DocumentStore interface {
	/*
		Create store a new document, assigning an identifier if absent

			@param ctx context.Context - execution context
			@param collection string - collection name
			@param doc Document - the document to store
			@returns the stored document
	*/
	Create(ctx context.Context, collection string, doc Document) (Document, error)

	/*
		Find list documents matching every field of the predicate

		An absent (nil) predicate matches the full collection. An absent
		collection yields an empty result, not an error.

			@param ctx context.Context - execution context
			@param collection string - collection name
			@param query Predicate - exact-match conjunction filter
			@returns matching documents in insertion order
	*/
	Find(ctx context.Context, collection string, query Predicate) ([]Document, error)

	/*
		FindOne first match of Find

			@param ctx context.Context - execution context
			@param collection string - collection name
			@param query Predicate - exact-match conjunction filter
			@returns the document and whether a match was found
	*/
	FindOne(ctx context.Context, collection string, query Predicate) (Document, bool, error)

	/*
		FindByID shorthand for FindOne keyed on identifier

			@param ctx context.Context - execution context
			@param collection string - collection name
			@param id string - document identifier
			@returns the document and whether a match was found
	*/
	FindByID(ctx context.Context, collection string, id string) (Document, bool, error)

	/*
		Update merge partial fields into an existing document

		Leaves the store unchanged when no document matches.

			@param ctx context.Context - execution context
			@param collection string - collection name
			@param id string - document identifier
			@param updates Document - partial fields to merge, last write wins
			@returns the updated document and whether a match was found
	*/
	Update(ctx context.Context, collection string, id string, updates Document) (Document, bool, error)

	/*
		Delete remove a document if present

			@param ctx context.Context - execution context
			@param collection string - collection name
			@param id string - document identifier
			@returns whether a removal occurred
	*/
	Delete(ctx context.Context, collection string, id string) (bool, error)

	/*
		Write execute a multi-operation callback as one logical transaction

		The store offers no partial rollback; an error raised inside the
		callback is surfaced as a failed-transaction condition after any
		operations already applied have persisted.

			@param ctx context.Context - execution context
			@param coreLogic func(ctx context.Context) error - the callback to execute
	*/
	Write(ctx context.Context, coreLogic func(ctx context.Context) error) error

	/*
		Objects alias for Find with no predicate, returning the full collection

			@param ctx context.Context - execution context
			@param collection string - collection name
			@returns every document in the collection
	*/
	Objects(ctx context.Context, collection string) ([]Document, error)
}

// documentStore implements DocumentStore
type documentStore struct {
	goutils.Component
	durable medium.Medium
	lock    *sync.Mutex
}

/*
NewDocumentStore define a new document store over a durable medium

	@param durable medium.Medium - the durable medium holding the collections
	@returns store instance
*/
func NewDocumentStore(durable medium.Medium) DocumentStore {
	logTags := log.Fields{"package": "alcove", "module": "docstore", "component": "document-store"}

	return &documentStore{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		durable: durable,
		lock:    &sync.Mutex{},
	}
}

// readCollection load and deserialize one collection; absent collection
// yields an empty sequence
func (s *documentStore) readCollection(
	ctx context.Context, collection string,
) ([]Document, error) {
	payload, err := s.durable.ReadCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection '%s' [%w]", collection, err)
	}
	if payload == nil {
		return []Document{}, nil
	}

	var docs []Document
	if err := json.Unmarshal(payload, &docs); err != nil {
		return nil, fmt.Errorf("collection '%s' payload corrupt [%w]", collection, err)
	}
	return docs, nil
}

// writeCollection serialize and persist one collection as a whole
func (s *documentStore) writeCollection(
	ctx context.Context, collection string, docs []Document,
) error {
	payload, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to serialize collection '%s' [%w]", collection, err)
	}
	if err := s.durable.WriteCollection(ctx, collection, payload); err != nil {
		return fmt.Errorf("failed to persist collection '%s' [%w]", collection, err)
	}
	return nil
}

/*
Create store a new document, assigning an identifier if absent

	@param ctx context.Context - execution context
	@param collection string - collection name
	@param doc Document - the document to store
	@returns the stored document
*/
func (s *documentStore) Create(
	ctx context.Context, collection string, doc Document,
) (Document, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	stored := doc.Clone()
	if stored == nil {
		return nil, fmt.Errorf("document for collection '%s' is not JSON-compatible", collection)
	}
	if stored.ID() == "" {
		stored[IDField] = uuid.NewString()
	}

	docs, err := s.readCollection(ctx, collection)
	if err != nil {
		return nil, err
	}

	docs = append(docs, stored)
	if err := s.writeCollection(ctx, collection, docs); err != nil {
		return nil, err
	}

	return stored.Clone(), nil
}

// matches whether a document satisfies every predicate field
func matches(doc Document, query Predicate) bool {
	for field, want := range query {
		if !reflect.DeepEqual(doc[field], normalizeValue(want)) {
			return false
		}
	}
	return true
}

// normalizeValue pass a predicate value through the JSON type system so it
// compares against stored field values
func normalizeValue(v any) any {
	serialized, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var normalized any
	if err := json.Unmarshal(serialized, &normalized); err != nil {
		return v
	}
	return normalized
}

/*
Find list documents matching every field of the predicate

	@param ctx context.Context - execution context
	@param collection string - collection name
	@param query Predicate - exact-match conjunction filter
	@returns matching documents in insertion order
*/
func (s *documentStore) Find(
	ctx context.Context, collection string, query Predicate,
) ([]Document, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.find(ctx, collection, query)
}

// find Find without the lock, for reuse inside mutating operations
func (s *documentStore) find(
	ctx context.Context, collection string, query Predicate,
) ([]Document, error) {
	docs, err := s.readCollection(ctx, collection)
	if err != nil {
		return nil, err
	}

	result := []Document{}
	for _, doc := range docs {
		if query == nil || matches(doc, query) {
			result = append(result, doc.Clone())
		}
	}
	return result, nil
}

/*
FindOne first match of Find

	@param ctx context.Context - execution context
	@param collection string - collection name
	@param query Predicate - exact-match conjunction filter
	@returns the document and whether a match was found
*/
func (s *documentStore) FindOne(
	ctx context.Context, collection string, query Predicate,
) (Document, bool, error) {
	found, err := s.Find(ctx, collection, query)
	if err != nil {
		return nil, false, err
	}
	if len(found) == 0 {
		return nil, false, nil
	}
	return found[0], true, nil
}

/*
FindByID shorthand for FindOne keyed on identifier

	@param ctx context.Context - execution context
	@param collection string - collection name
	@param id string - document identifier
	@returns the document and whether a match was found
*/
func (s *documentStore) FindByID(
	ctx context.Context, collection string, id string,
) (Document, bool, error) {
	return s.FindOne(ctx, collection, Predicate{IDField: id})
}

/*
Update merge partial fields into an existing document

	@param ctx context.Context - execution context
	@param collection string - collection name
	@param id string - document identifier
	@param updates Document - partial fields to merge, last write wins
	@returns the updated document and whether a match was found
*/
func (s *documentStore) Update(
	ctx context.Context, collection string, id string, updates Document,
) (Document, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	docs, err := s.readCollection(ctx, collection)
	if err != nil {
		return nil, false, err
	}

	for idx, doc := range docs {
		if doc.ID() != id {
			continue
		}

		merged := doc.Clone()
		for field, value := range updates {
			merged[field] = normalizeValue(value)
		}
		docs[idx] = merged

		if err := s.writeCollection(ctx, collection, docs); err != nil {
			return nil, false, err
		}
		return merged.Clone(), true, nil
	}

	return nil, false, nil
}

/*
Delete remove a document if present

	@param ctx context.Context - execution context
	@param collection string - collection name
	@param id string - document identifier
	@returns whether a removal occurred
*/
func (s *documentStore) Delete(
	ctx context.Context, collection string, id string,
) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	docs, err := s.readCollection(ctx, collection)
	if err != nil {
		return false, err
	}

	for idx, doc := range docs {
		if doc.ID() != id {
			continue
		}

		docs = append(docs[:idx], docs[idx+1:]...)
		if err := s.writeCollection(ctx, collection, docs); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

/*
Write execute a multi-operation callback as one logical transaction

	@param ctx context.Context - execution context
	@param coreLogic func(ctx context.Context) error - the callback to execute
*/
func (s *documentStore) Write(
	ctx context.Context, coreLogic func(ctx context.Context) error,
) error {
	if err := coreLogic(ctx); err != nil {
		log.WithError(err).WithFields(s.LogTags).Warn("Write transaction failed")
		return fmt.Errorf("write transaction failed [%w]", err)
	}
	return nil
}

/*
Objects alias for Find with no predicate, returning the full collection

	@param ctx context.Context - execution context
	@param collection string - collection name
	@returns every document in the collection
*/
func (s *documentStore) Objects(ctx context.Context, collection string) ([]Document, error) {
	return s.Find(ctx, collection, nil)
}
