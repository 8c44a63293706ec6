/*
book.go - The owned store object for institution, registry and ledger

PURPOSE:
  Book is the single object holding all mutable state. It is passed by
  reference to whoever needs it; there are no package-level singletons.
  Cross-collection rules live here:

    DeleteBeneficiary = Registry.Remove + Ledger.Remap   (one step)
    UpsertCompensation requires the beneficiary to exist
    Restore replaces everything or nothing

CONCURRENCY:
  Book is not safe for concurrent use. Hosts that serve concurrent callers
  (see api.Handler) guard it with their own lock, and must not mutate it
  while a payment batch is being encoded from it.

SEE ALSO:
  - registry.go, ledger.go: The two collections
  - snapshot.go: Backup document
  - store.go: Persistence interfaces
*/
package compensation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Book holds the complete compensation state.
type Book struct {
	institution InstitutionInfo
	registry    *Registry
	ledger      *Ledger
}

// NewBook creates an empty book with default institution info.
func NewBook(now time.Time) *Book {
	return &Book{
		institution: DefaultInstitutionInfo(now),
		registry:    NewRegistry(),
		ledger:      NewLedger(),
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

func (b *Book) Institution() InstitutionInfo { return b.institution }
func (b *Book) Beneficiaries() []Beneficiary { return b.registry.List() }
func (b *Book) Compensations() []Record      { return b.ledger.List() }

// SetInstitution replaces the institution record.
func (b *Book) SetInstitution(info InstitutionInfo) { b.institution = info }

// Beneficiary returns a beneficiary by id.
func (b *Book) Beneficiary(id BeneficiaryID) (Beneficiary, bool) { return b.registry.Get(id) }

// Compensation returns the record of a beneficiary.
func (b *Book) Compensation(id BeneficiaryID) (Record, bool) { return b.ledger.Get(id) }

// Summary joins records to beneficiaries with column totals.
func (b *Book) Summary() Summary { return b.ledger.Summarize(b.registry.items) }

// =============================================================================
// MUTATIONS
// =============================================================================

// AddBeneficiary registers a new beneficiary.
func (b *Book) AddBeneficiary(in BeneficiaryInput) (Beneficiary, error) {
	return b.registry.Add(in)
}

// UpdateBeneficiary edits a beneficiary in place; its id is unchanged.
func (b *Book) UpdateBeneficiary(ben Beneficiary) error {
	return b.registry.Update(ben)
}

// DeleteBeneficiary removes a beneficiary and its record, renumbers the
// survivors and remaps every dependent record to the new ids.
func (b *Book) DeleteBeneficiary(id BeneficiaryID) (Renumbering, error) {
	r, err := b.registry.Remove(id)
	if err != nil {
		return Renumbering{}, err
	}
	b.ledger.Remap(r)
	return r, nil
}

// UpsertCompensation stores the record of an existing beneficiary with all
// derived amounts recomputed.
func (b *Book) UpsertCompensation(rec Record) (Record, error) {
	if _, ok := b.registry.Get(rec.BeneficiaryID); !ok {
		return Record{}, ErrBeneficiaryNotFound
	}
	return b.ledger.Upsert(rec), nil
}

// DeleteCompensation removes a beneficiary's record; absence is not an error.
func (b *Book) DeleteCompensation(id BeneficiaryID) bool {
	return b.ledger.RemoveByBeneficiary(id)
}

// =============================================================================
// SNAPSHOT / RESTORE
// =============================================================================

// Snapshot returns a deep copy of the current state as a backup document.
func (b *Book) Snapshot() Snapshot {
	return Snapshot{
		InstitutionInfo: b.institution,
		Beneficiaries:   b.registry.List(),
		Compensations:   b.ledger.List(),
	}
}

// Restore replaces all state atomically. On error the book is untouched.
func (b *Book) Restore(s Snapshot) error {
	norm, err := s.normalize()
	if err != nil {
		return err
	}
	b.institution = norm.InstitutionInfo
	b.registry.Replace(norm.Beneficiaries)
	b.ledger.Replace(norm.Compensations)
	return nil
}

// RestoreJSON parses a backup document and restores it.
func (b *Book) RestoreJSON(data []byte) error {
	s, err := ParseSnapshot(data)
	if err != nil {
		return err
	}
	return b.Restore(s)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Load reads the three collections from store. Collections that were never
// saved keep their defaults. Derived amounts are recomputed on load.
func (b *Book) Load(ctx context.Context, store CollectionStore) error {
	snap := b.Snapshot()
	targets := map[Collection]any{
		CollectionInstitution:   &snap.InstitutionInfo,
		CollectionBeneficiaries: &snap.Beneficiaries,
		CollectionCompensations: &snap.Compensations,
	}
	for _, name := range Collections {
		payload, found, err := store.Load(ctx, name)
		if err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		if !found {
			continue
		}
		if err := json.Unmarshal(payload, targets[name]); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return b.Restore(snap)
}

// Save writes all three collections, atomically when store supports it.
func (b *Book) Save(ctx context.Context, store CollectionStore) error {
	snap := b.Snapshot()
	payloads := make(map[Collection][]byte, len(Collections))
	for name, v := range map[Collection]any{
		CollectionInstitution:   snap.InstitutionInfo,
		CollectionBeneficiaries: snap.Beneficiaries,
		CollectionCompensations: snap.Compensations,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		payloads[name] = data
	}

	write := func(s CollectionStore) error {
		for _, name := range Collections {
			if err := s.Save(ctx, name, payloads[name]); err != nil {
				return fmt.Errorf("save %s: %w", name, err)
			}
		}
		return nil
	}

	if tx, ok := store.(TxCollectionStore); ok {
		return tx.WithTx(ctx, write)
	}
	return write(store)
}

// =============================================================================
// INTEGRITY
// =============================================================================

// Verify checks the cross-collection invariants: beneficiary ids are the
// dense sequence 1..N, accounts are unique, every record references a live
// beneficiary, and no derived amount is stale.
func (b *Book) Verify() error {
	owners := make(map[string]BeneficiaryID, len(b.registry.items))
	for i, ben := range b.registry.items {
		if ben.ID != BeneficiaryID(i+1) {
			return fmt.Errorf("beneficiary at position %d has id %d", i+1, ben.ID)
		}
		if ben.Account == "" {
			continue
		}
		if owner, dup := owners[ben.Account]; dup {
			return &DuplicateAccountError{Account: ben.Account, OwnerID: owner}
		}
		owners[ben.Account] = ben.ID
	}
	for _, rec := range b.ledger.records {
		if _, ok := b.registry.Get(rec.BeneficiaryID); !ok {
			return fmt.Errorf("record references unknown beneficiary %d", rec.BeneficiaryID)
		}
		if rec.IsStale() {
			return fmt.Errorf("record of beneficiary %d is stale", rec.BeneficiaryID)
		}
	}
	return nil
}
