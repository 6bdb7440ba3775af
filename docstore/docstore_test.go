package docstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alcovedb/alcove/docstore"
	"github.com/alcovedb/alcove/medium"
	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDocumentStoreCreateAndFindByID(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := docstore.NewDocumentStore(medium.NewMemoryMedium())

	collection := uuid.NewString()

	// -------------------------------------------------------------------------
	// 1 – Create a document without an ID; one is assigned
	created, err := uut.Create(utCtx, collection, docstore.Document{"name": "entry-one"})
	assert.Nil(err)
	assert.NotEmpty(created.ID())

	// 2 – FindByID returns a document equal to the created one
	fetched, found, err := uut.FindByID(utCtx, collection, created.ID())
	assert.Nil(err)
	assert.True(found)
	assert.Equal(created, fetched)

	// -------------------------------------------------------------------------
	// 3 – Create a document with an explicit ID; it is kept
	explicitID := uuid.NewString()
	created2, err := uut.Create(utCtx, collection, docstore.Document{
		docstore.IDField: explicitID, "name": "entry-two",
	})
	assert.Nil(err)
	assert.Equal(explicitID, created2.ID())

	fetched2, found, err := uut.FindByID(utCtx, collection, explicitID)
	assert.Nil(err)
	assert.True(found)
	assert.Equal(created2, fetched2)

	// -------------------------------------------------------------------------
	// 4 – FindByID on an unknown ID reports not found, without error
	_, found, err = uut.FindByID(utCtx, collection, uuid.NewString())
	assert.Nil(err)
	assert.False(found)
}

func TestDocumentStoreFind(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := docstore.NewDocumentStore(medium.NewMemoryMedium())

	collection := uuid.NewString()

	// -------------------------------------------------------------------------
	// 1 – An absent collection yields an empty sequence, not an error
	all, err := uut.Find(utCtx, collection, nil)
	assert.Nil(err)
	assert.Empty(all)

	// -------------------------------------------------------------------------
	// 2 – Populate documents with overlapping fields
	for idx := 0; idx < 3; idx++ {
		_, err := uut.Create(utCtx, collection, docstore.Document{
			"group": "a", "rank": idx,
		})
		assert.Nil(err)
	}
	_, err = uut.Create(utCtx, collection, docstore.Document{"group": "b", "rank": 0})
	assert.Nil(err)

	// 3 – An absent predicate returns the full collection, in insertion order
	all, err = uut.Find(utCtx, collection, nil)
	assert.Nil(err)
	assert.Len(all, 4)

	// 4 – Objects is an alias for the unfiltered Find
	objects, err := uut.Objects(utCtx, collection)
	assert.Nil(err)
	assert.Equal(all, objects)

	// 5 – Predicates are exact-match conjunctions over every listed field
	matched, err := uut.Find(utCtx, collection, docstore.Predicate{"group": "a"})
	assert.Nil(err)
	assert.Len(matched, 3)

	matched, err = uut.Find(utCtx, collection, docstore.Predicate{"group": "a", "rank": 0})
	assert.Nil(err)
	assert.Len(matched, 1)

	matched, err = uut.Find(utCtx, collection, docstore.Predicate{"group": "c"})
	assert.Nil(err)
	assert.Empty(matched)

	// 6 – FindOne returns the first match
	first, found, err := uut.FindOne(utCtx, collection, docstore.Predicate{"rank": 0})
	assert.Nil(err)
	assert.True(found)
	assert.Equal("a", first["group"])
}

func TestDocumentStoreUpdate(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := docstore.NewDocumentStore(medium.NewMemoryMedium())

	collection := uuid.NewString()

	created, err := uut.Create(utCtx, collection, docstore.Document{
		"alpha": "one", "beta": "two",
	})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – A sequence of partial updates merges field-wise, last write wins
	_, found, err := uut.Update(utCtx, collection, created.ID(), docstore.Document{
		"beta": "three", "gamma": "four",
	})
	assert.Nil(err)
	assert.True(found)

	updated, found, err := uut.Update(utCtx, collection, created.ID(), docstore.Document{
		"gamma": "five",
	})
	assert.Nil(err)
	assert.True(found)

	assert.Equal("one", updated["alpha"])
	assert.Equal("three", updated["beta"])
	assert.Equal("five", updated["gamma"])

	fetched, found, err := uut.FindByID(utCtx, collection, created.ID())
	assert.Nil(err)
	assert.True(found)
	assert.Equal(updated, fetched)

	// -------------------------------------------------------------------------
	// 2 – Updating an unknown ID leaves the store unchanged
	_, found, err = uut.Update(utCtx, collection, uuid.NewString(), docstore.Document{
		"alpha": "overwritten",
	})
	assert.Nil(err)
	assert.False(found)

	fetched, found, err = uut.FindByID(utCtx, collection, created.ID())
	assert.Nil(err)
	assert.True(found)
	assert.Equal("one", fetched["alpha"])
}

func TestDocumentStoreDelete(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := docstore.NewDocumentStore(medium.NewMemoryMedium())

	collection := uuid.NewString()

	created, err := uut.Create(utCtx, collection, docstore.Document{"name": "victim"})
	assert.Nil(err)
	survivor, err := uut.Create(utCtx, collection, docstore.Document{"name": "survivor"})
	assert.Nil(err)

	// -------------------------------------------------------------------------
	// 1 – Delete removes the document
	removed, err := uut.Delete(utCtx, collection, created.ID())
	assert.Nil(err)
	assert.True(removed)

	_, found, err := uut.FindByID(utCtx, collection, created.ID())
	assert.Nil(err)
	assert.False(found)

	// 2 – Delete on an unknown ID reports false and changes nothing
	removed, err = uut.Delete(utCtx, collection, created.ID())
	assert.Nil(err)
	assert.False(removed)

	remaining, err := uut.Objects(utCtx, collection)
	assert.Nil(err)
	assert.Len(remaining, 1)
	assert.Equal(survivor.ID(), remaining[0].ID())
}

func TestDocumentStoreWrite(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()
	uut := docstore.NewDocumentStore(medium.NewMemoryMedium())

	collection := uuid.NewString()

	// -------------------------------------------------------------------------
	// 1 – A clean callback passes through
	assert.Nil(uut.Write(utCtx, func(ctx context.Context) error {
		_, err := uut.Create(ctx, collection, docstore.Document{"name": "inside"})
		return err
	}))

	// 2 – A failing callback surfaces as a failed transaction; operations
	//     already applied stay persisted (no rollback)
	err := uut.Write(utCtx, func(ctx context.Context) error {
		if _, err := uut.Create(ctx, collection, docstore.Document{"name": "partial"}); err != nil {
			return err
		}
		return fmt.Errorf("deliberate failure")
	})
	assert.Error(err)

	remaining, err := uut.Objects(utCtx, collection)
	assert.Nil(err)
	assert.Len(remaining, 2)
}

func TestDocumentStoreTypedCodec(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	type testRecord struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Count int    `json:"count"`
	}

	utCtx := context.Background()
	uut := docstore.NewDocumentStore(medium.NewMemoryMedium())

	collection := uuid.NewString()

	original := testRecord{ID: uuid.NewString(), Label: "typed", Count: 3}
	doc, err := docstore.Encode(original)
	assert.Nil(err)

	_, err = uut.Create(utCtx, collection, doc)
	assert.Nil(err)

	fetched, found, err := uut.FindByID(utCtx, collection, original.ID)
	assert.Nil(err)
	assert.True(found)

	decoded, err := docstore.Decode[testRecord](fetched)
	assert.Nil(err)
	assert.Equal(original, decoded)
}
