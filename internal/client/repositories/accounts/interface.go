// Package accounts is the Local Store: a durable table of resident account
// records keyed by canonical contact, each carrying its sync state.
//
// Two implementations exist: SQLiteRepository for normal operation and
// MemoryRepository for platforms where the database cannot be opened.
// Lookups that find nothing return common.ErrorNotFound.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
)

type Repository interface {
	// Upsert stores rec keyed on its contact. An existing row for the same
	// contact is replaced wholesale (last writer wins) but keeps its local
	// id. rec.LocalID is set on return.
	Upsert(ctx context.Context, rec *models.AccountRecord) error

	FindByContact(ctx context.Context, contact string) (*models.AccountRecord, error)
	// FindByName matches first, middle and last name case-insensitively.
	FindByName(ctx context.Context, first, middle, last string) (*models.AccountRecord, error)
	FindByID(ctx context.Context, localID int64) (*models.AccountRecord, error)
	// Latest returns the most recently created record.
	Latest(ctx context.Context) (*models.AccountRecord, error)

	// List returns every record, newest first.
	List(ctx context.Context) ([]*models.AccountRecord, error)
	// ListUnsynced returns the records still waiting for a push.
	ListUnsynced(ctx context.Context) ([]*models.AccountRecord, error)

	// Update rewrites the row matched by remote id when rec has one, by local
	// id otherwise, and marks it unsynced. A non-empty PendingPlaintext
	// replaces the stored credential.
	Update(ctx context.Context, rec *models.AccountRecord) error
	// MarkSynced records the remote id for contact, flips it to synced and
	// drops its pending plaintext.
	MarkSynced(ctx context.Context, contact string, remoteID int64) error

	Clear(ctx context.Context) error
}
