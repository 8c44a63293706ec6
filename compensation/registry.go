/*
registry.go - Beneficiary registry with dense identifier invariant

PURPOSE:
  Owns the beneficiary list. Validates every mutation and keeps ids dense.

CRITICAL INVARIANTS:
  1. DENSE: ids are exactly 1..N, no gaps, no duplicates
  2. UNIQUE ACCOUNT: a CCP belongs to at most one beneficiary
  3. STABLE ORDER: deleting a beneficiary compacts its slot and nothing else

RENUMBERING ON DELETE:
  Removing id=2 from {1,2,3}:

    before: [1:Alice] [2:Bob] [3:Carol]
    after:  [1:Alice] [2:Carol]
    map:    1->1, 3->2   (2 is dropped)

  Remove returns the Renumbering so dependent records can be remapped in
  the same step (see Book.DeleteBeneficiary). The map is built once from
  positional correspondence between the old and new sequences.

SEE ALSO:
  - ledger.go: Applies the Renumbering to compensation records
  - book.go: Runs both in one operation
*/
package compensation

import (
	"regexp"
	"strings"
)

// latinName accepts ASCII letters, the space character and hyphens only.
// Tabs and line breaks would break the fixed-width payment file.
var latinName = regexp.MustCompile(`^[a-zA-Z -]+$`)

// IsLatinName reports whether name is eligible for the payment file.
func IsLatinName(name string) bool {
	return latinName.MatchString(name)
}

// =============================================================================
// RENUMBERING
// =============================================================================

// Renumbering maps every surviving old id to its new id after a deletion.
type Renumbering struct {
	Removed  BeneficiaryID
	OldToNew map[BeneficiaryID]BeneficiaryID
}

// Apply returns the new id for old, or false if old was removed.
func (r Renumbering) Apply(old BeneficiaryID) (BeneficiaryID, bool) {
	id, ok := r.OldToNew[old]
	return id, ok
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds beneficiaries ordered by id.
type Registry struct {
	items []Beneficiary
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Len returns the number of beneficiaries.
func (r *Registry) Len() int { return len(r.items) }

// List returns a copy of all beneficiaries in registry order.
func (r *Registry) List() []Beneficiary {
	out := make([]Beneficiary, len(r.items))
	copy(out, r.items)
	return out
}

// Get returns the beneficiary with the given id.
func (r *Registry) Get(id BeneficiaryID) (Beneficiary, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.items[i], true
	}
	return Beneficiary{}, false
}

// Add validates the candidate and appends it with id = max(ids) + 1.
func (r *Registry) Add(in BeneficiaryInput) (Beneficiary, error) {
	b := Beneficiary{
		Name:    strings.TrimSpace(in.Name),
		Account: strings.TrimSpace(in.Account),
		Meter:   strings.TrimSpace(in.Meter),
	}
	if err := r.validate(b, 0); err != nil {
		return Beneficiary{}, err
	}
	b.ID = r.nextID()
	r.items = append(r.items, b)
	return b, nil
}

// Update replaces the mutable fields of an existing beneficiary in place.
// The account uniqueness check ignores the beneficiary's own entry.
func (r *Registry) Update(b Beneficiary) error {
	i := r.indexOf(b.ID)
	if i < 0 {
		return ErrBeneficiaryNotFound
	}
	b.Name = strings.TrimSpace(b.Name)
	b.Account = strings.TrimSpace(b.Account)
	b.Meter = strings.TrimSpace(b.Meter)
	if err := r.validate(b, b.ID); err != nil {
		return err
	}
	r.items[i] = b
	return nil
}

// Remove deletes a beneficiary and renumbers the survivors to 1..N-1,
// keeping their relative order.
func (r *Registry) Remove(id BeneficiaryID) (Renumbering, error) {
	if r.indexOf(id) < 0 {
		return Renumbering{}, ErrBeneficiaryNotFound
	}

	survivors := make([]Beneficiary, 0, len(r.items)-1)
	mapping := make(map[BeneficiaryID]BeneficiaryID, len(r.items)-1)
	for _, b := range r.items {
		if b.ID == id {
			continue
		}
		newID := BeneficiaryID(len(survivors) + 1)
		mapping[b.ID] = newID
		b.ID = newID
		survivors = append(survivors, b)
	}

	r.items = survivors
	return Renumbering{Removed: id, OldToNew: mapping}, nil
}

// Replace swaps the whole list (restore). Callers validate beforehand.
func (r *Registry) Replace(items []Beneficiary) {
	r.items = make([]Beneficiary, len(items))
	copy(r.items, items)
}

// AccountOwner returns the id holding account, if any.
func (r *Registry) AccountOwner(account string) (BeneficiaryID, bool) {
	account = strings.TrimSpace(account)
	for _, b := range r.items {
		if b.Account == account {
			return b.ID, true
		}
	}
	return 0, false
}

// validate checks a candidate. self is excluded from the uniqueness check
// (0 for a new beneficiary).
func (r *Registry) validate(b Beneficiary, self BeneficiaryID) error {
	if b.Name == "" {
		return &ValidationError{Field: "name", Value: b.Name, Kind: ErrInvalidName}
	}
	if b.Account == "" {
		return &ValidationError{Field: "account", Value: b.Account, Kind: ErrInvalidAccount, Reason: ErrEmptyAccount}
	}
	if !IsLatinName(b.Name) {
		return &ValidationError{Field: "name", Value: b.Name, Kind: ErrInvalidName}
	}
	if owner, ok := r.AccountOwner(b.Account); ok && owner != self {
		return &DuplicateAccountError{Account: b.Account, OwnerID: owner}
	}
	if _, err := DeriveRoutingID(b.Account); err != nil {
		return &ValidationError{Field: "account", Value: b.Account, Kind: ErrInvalidAccount, Reason: err}
	}
	return nil
}

func (r *Registry) nextID() BeneficiaryID {
	var top BeneficiaryID
	for _, b := range r.items {
		if b.ID > top {
			top = b.ID
		}
	}
	return top + 1
}

func (r *Registry) indexOf(id BeneficiaryID) int {
	for i, b := range r.items {
		if b.ID == id {
			return i
		}
	}
	return -1
}
