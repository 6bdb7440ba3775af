// Package alcove - embedded encrypted wellness data vault
package alcove

import (
	"context"
	"fmt"

	"github.com/alcovedb/alcove/docstore"
	"github.com/alcovedb/alcove/medium"
	"github.com/alcovedb/alcove/sealer"
	"github.com/alcovedb/alcove/vault"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
NewLocalVault initialize a vault persisted through a SQL database.

Each instance is backed by a SQL database; two instances using the same
database are essentially copies of each other.

	@param ctx context.Context - execution context
	@param dbDialector gorm.Dialector - GORM dialector
	@param dbLogLevel logger.LogLevel - SQL log level
	@returns new vault instance
*/
func NewLocalVault(
	ctx context.Context,
	dbDialector gorm.Dialector,
	dbLogLevel logger.LogLevel,
) (vault.Vault, error) {
	durable, err := medium.NewSQLMedium(dbDialector, dbLogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize durable medium [%w]", err)
	}

	store := docstore.NewDocumentStore(durable)

	dataVault, err := vault.NewVault(ctx, store, sealer.NewBase64PayloadCodec())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database facade [%w]", err)
	}

	return dataVault, nil
}

/*
NewMemoryVault initialize a vault over an in-memory medium.

The memory-backed vault holds data only for the process lifetime; it is
interchangeable with the SQL-backed vault behind the same facade.

	@param ctx context.Context - execution context
	@returns new vault instance
*/
func NewMemoryVault(ctx context.Context) (vault.Vault, error) {
	store := docstore.NewDocumentStore(medium.NewMemoryMedium())

	dataVault, err := vault.NewVault(ctx, store, sealer.NewBase64PayloadCodec())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database facade [%w]", err)
	}

	return dataVault, nil
}
