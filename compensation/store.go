/*
store.go - Persistence interface for the three record collections

PURPOSE:
  The engine persists whole collections, never single rows. Each collection
  is saved as an opaque JSON payload under its name; Load returns the last
  saved payload or reports that none exists (the caller then uses defaults).

KEY INTERFACES:
  CollectionStore:   Load/Save one named collection
  TxCollectionStore: Saves the three collections atomically

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, one row per collection
  - compensation/store/memory.go: In-memory for tests and dev

SEE ALSO:
  - book.go: Book.Load and Book.Save use these interfaces
*/
package compensation

import "context"

// Collection names a persisted collection.
type Collection string

const (
	CollectionInstitution   Collection = "institutionInfo"
	CollectionBeneficiaries Collection = "beneficiaries"
	CollectionCompensations Collection = "compensations"
)

// Collections lists every persisted collection in save order.
var Collections = []Collection{CollectionInstitution, CollectionBeneficiaries, CollectionCompensations}

// CollectionStore persists whole-collection snapshots.
type CollectionStore interface {
	// Load returns the last saved payload. found is false if nothing was saved.
	Load(ctx context.Context, name Collection) (payload []byte, found bool, err error)

	// Save overwrites the collection entirely.
	Save(ctx context.Context, name Collection, payload []byte) error
}

// TxCollectionStore wraps CollectionStore with transaction support.
type TxCollectionStore interface {
	CollectionStore

	// WithTx executes fn within a transaction.
	// If fn returns error, every write made through the given store is rolled back.
	WithTx(ctx context.Context, fn func(CollectionStore) error) error
}
