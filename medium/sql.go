package medium

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

/*
GetSqliteDialector define Sqlite GORM dialector

	@param dbFile string - Sqlite DB file
	@return GORM sqlite dialector
*/
func GetSqliteDialector(dbFile string) gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("%s?_foreign_keys=on", dbFile))
}

// CollectionBlobDBEntry one serialized collection held by the SQL medium
type CollectionBlobDBEntry struct {
	// Name namespaced collection key
	Name string `json:"name" gorm:"column:name;primaryKey;unique" validate:"required"`

	// Payload full serialized collection content
	Payload datatypes.JSON `json:"payload" gorm:"column:payload"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt entry update timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName hard code table name
func (CollectionBlobDBEntry) TableName() string {
	return "collection_blobs"
}

/*
DefineTables helper function meant to be used for unit-testing to prepare a
database with tables

	@param ctx context.Context - execution context
	@param db *gorm.DB - GORM client
*/
func DefineTables(_ context.Context, db *gorm.DB) error {
	return db.AutoMigrate(CollectionBlobDBEntry{})
}

// sqlMedium implements Medium against a SQL database
type sqlMedium struct {
	goutils.Component
	db *gorm.DB
}

/*
NewSQLMedium define a new SQL-backed durable medium

Each instance is backed by a SQL database; two instances using the same
database are essentially copies of each other.

	@param dbDialector gorm.Dialector - GORM dialector
	@param dbLogLevel logger.LogLevel - SQL log level
	@return new medium
*/
func NewSQLMedium(dbDialector gorm.Dialector, dbLogLevel logger.LogLevel) (Medium, error) {
	logTags := log.Fields{"package": "alcove", "module": "medium", "component": "sql-medium"}

	db, err := gorm.Open(dbDialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(dbLogLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect with DB [%w]", err)
	}

	if err := db.AutoMigrate(CollectionBlobDBEntry{}); err != nil {
		return nil, fmt.Errorf("failed to prepare collection blob table [%w]", err)
	}

	instance := &sqlMedium{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db: db,
	}

	return instance, nil
}

/*
ReadCollection read the serialized form of a collection

	@param ctx context.Context - execution context
	@param collection string - collection name
	@returns the serialized payload, or nil if the collection was never written
*/
func (m *sqlMedium) ReadCollection(_ context.Context, collection string) ([]byte, error) {
	var entries []CollectionBlobDBEntry
	if tmp := m.db.Where("name = ?", StorageKey(collection)).Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf(
			"failed to read collection '%s' from medium [%w]", collection, tmp.Error,
		)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return []byte(entries[0].Payload), nil
}

/*
WriteCollection atomically replace the serialized form of a collection

	@param ctx context.Context - execution context
	@param collection string - collection name
	@param payload []byte - full serialized payload
*/
func (m *sqlMedium) WriteCollection(
	_ context.Context, collection string, payload []byte,
) error {
	entry := CollectionBlobDBEntry{
		Name:    StorageKey(collection),
		Payload: datatypes.JSON(payload),
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).Create(&entry).Error
	})
	if err != nil {
		return fmt.Errorf("failed to write collection '%s' to medium [%w]", collection, err)
	}

	return nil
}
