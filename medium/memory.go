package medium

import (
	"context"
	"sync"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// memoryMedium implements Medium with an in-process map. It backs ephemeral
// sessions and isolated test instances.
type memoryMedium struct {
	goutils.Component
	lock  *sync.RWMutex
	blobs map[string][]byte
}

/*
NewMemoryMedium define a new in-memory durable medium

	@return new medium
*/
func NewMemoryMedium() Medium {
	logTags := log.Fields{"package": "alcove", "module": "medium", "component": "memory-medium"}

	return &memoryMedium{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		lock:  &sync.RWMutex{},
		blobs: make(map[string][]byte),
	}
}

/*
ReadCollection read the serialized form of a collection

	@param ctx context.Context - execution context
	@param collection string - collection name
	@returns the serialized payload, or nil if the collection was never written
*/
func (m *memoryMedium) ReadCollection(_ context.Context, collection string) ([]byte, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	payload, ok := m.blobs[StorageKey(collection)]
	if !ok {
		return nil, nil
	}

	result := make([]byte, len(payload))
	copy(result, payload)
	return result, nil
}

/*
WriteCollection atomically replace the serialized form of a collection

	@param ctx context.Context - execution context
	@param collection string - collection name
	@param payload []byte - full serialized payload
*/
func (m *memoryMedium) WriteCollection(
	_ context.Context, collection string, payload []byte,
) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	stored := make([]byte, len(payload))
	copy(stored, payload)
	m.blobs[StorageKey(collection)] = stored

	return nil
}
