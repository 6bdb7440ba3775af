package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alcovedb/alcove/docstore"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoRemoteStore implements RemoteStore against a MongoDB deployment
type mongoRemoteStore struct {
	goutils.Component

	uri    string
	dbName string

	lock      *sync.Mutex
	client    *mongo.Client
	connected bool
}

/*
NewMongoRemoteStore define a remote store backed by MongoDB

The connection is not established here; it opens lazily on Connect.

	@param uri string - MongoDB connection string
	@param dbName string - remote database name
	@returns remote store instance
*/
func NewMongoRemoteStore(uri string, dbName string) RemoteStore {
	logTags := log.Fields{"package": "alcove", "module": "cloudsync", "component": "mongo-remote"}

	return &mongoRemoteStore{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		uri:    uri,
		dbName: dbName,
		lock:   &sync.Mutex{},
	}
}

/*
Connect establish the remote connection; no-op when already connected

	@param ctx context.Context - execution context
*/
func (r *mongoRemoteStore) Connect(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.connected && r.client != nil {
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(r.uri))
	if err != nil {
		return fmt.Errorf("failed to define MongoDB client [%w]", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to reach MongoDB deployment [%w]", err)
	}

	r.client = client
	r.connected = true
	log.WithFields(r.LogTags).Info("Connected to remote document store")
	return nil
}

/*
Disconnect tear down the remote connection; no-op when not connected

	@param ctx context.Context - execution context
*/
func (r *mongoRemoteStore) Disconnect(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.connected || r.client == nil {
		return nil
	}

	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB [%w]", err)
	}

	r.client = nil
	r.connected = false
	log.WithFields(r.LogTags).Info("Disconnected from remote document store")
	return nil
}

/*
Connected whether a connection is currently established

	@returns the connection flag
*/
func (r *mongoRemoteStore) Connected() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.connected
}

// collection handle for one remote collection
func (r *mongoRemoteStore) collection(name string) (*mongo.Collection, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.connected || r.client == nil {
		return nil, fmt.Errorf("remote store not connected")
	}
	return r.client.Database(r.dbName).Collection(name), nil
}

/*
ReplaceOne upsert one document by identifier

	@param ctx context.Context - execution context
	@param collection string - remote collection name
	@param id string - document identifier
	@param doc docstore.Document - full replacement document
*/
func (r *mongoRemoteStore) ReplaceOne(
	ctx context.Context, collection string, id string, doc docstore.Document,
) error {
	coll, err := r.collection(collection)
	if err != nil {
		return err
	}

	_, err = coll.ReplaceOne(
		ctx, bson.M{docstore.IDField: id}, bson.M(doc), options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert into remote '%s' [%w]", collection, err)
	}
	return nil
}

/*
BulkReplace upsert a batch of documents by identifier

	@param ctx context.Context - execution context
	@param collection string - remote collection name
	@param docs []docstore.Document - full replacement documents
*/
func (r *mongoRemoteStore) BulkReplace(
	ctx context.Context, collection string, docs []docstore.Document,
) error {
	if len(docs) == 0 {
		return nil
	}

	coll, err := r.collection(collection)
	if err != nil {
		return err
	}

	operations := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		operations = append(operations, mongo.NewReplaceOneModel().
			SetFilter(bson.M{docstore.IDField: doc.ID()}).
			SetReplacement(bson.M(doc)).
			SetUpsert(true))
	}

	if _, err := coll.BulkWrite(ctx, operations); err != nil {
		return fmt.Errorf("failed to bulk upsert into remote '%s' [%w]", collection, err)
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
func (r *mongoRemoteStore) FindOneByID(
	ctx context.Context, collection string, id string,
) (docstore.Document, bool, error) {
	coll, err := r.collection(collection)
	if err != nil {
		return nil, false, err
	}

	var doc map[string]any
	err = coll.FindOne(ctx, bson.M{docstore.IDField: id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch from remote '%s' [%w]", collection, err)
	}

	// Strip the Mongo-internal object ID so the document round-trips cleanly
	delete(doc, "_id")
	return docstore.Document(doc), true, nil
}
