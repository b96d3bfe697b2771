package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cmcs/internal/dbx"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/claims"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/documents"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repository types inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Claims(db dbx.DBTX) claims.Repository
	Documents(db dbx.DBTX) documents.Repository
}
