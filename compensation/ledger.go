/*
ledger.go - Compensation records keyed by beneficiary

PURPOSE:
  The Ledger is a partial function from BeneficiaryID to Record. It holds
  at most one record per beneficiary and keeps every derived amount fresh.

CRITICAL INVARIANTS:
  1. ONE RECORD PER BENEFICIARY: Upsert replaces, never duplicates
  2. FRESH: every stored record has been through Record.Recompute()
  3. NO DANGLING REFERENCES: Remap follows every registry deletion

SEE ALSO:
  - registry.go: Produces the Renumbering applied by Remap
  - book.go: Couples both collections
*/
package compensation

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger stores compensation records in insertion order.
type Ledger struct {
	records []Record
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// List returns a copy of all records in insertion order.
func (l *Ledger) List() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Get returns the record of a beneficiary.
func (l *Ledger) Get(id BeneficiaryID) (Record, bool) {
	if i := l.indexOf(id); i >= 0 {
		return l.records[i], true
	}
	return Record{}, false
}

// Upsert replaces the record with the same BeneficiaryID, or appends it.
// Derived amounts are recomputed before storing.
func (l *Ledger) Upsert(rec Record) Record {
	rec.Recompute()
	if i := l.indexOf(rec.BeneficiaryID); i >= 0 {
		l.records[i] = rec
		return rec
	}
	l.records = append(l.records, rec)
	return rec
}

// RemoveByBeneficiary drops the record of id. Absent records are not an error.
func (l *Ledger) RemoveByBeneficiary(id BeneficiaryID) bool {
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	l.records = append(l.records[:i], l.records[i+1:]...)
	return true
}

// Remap applies a registry renumbering: the removed beneficiary's record is
// dropped and every other record follows its beneficiary's new id.
func (l *Ledger) Remap(r Renumbering) {
	kept := l.records[:0]
	for _, rec := range l.records {
		newID, ok := r.Apply(rec.BeneficiaryID)
		if !ok {
			continue
		}
		rec.BeneficiaryID = newID
		kept = append(kept, rec)
	}
	l.records = kept
}

// Replace swaps the whole record set (restore/load), recomputing each one.
func (l *Ledger) Replace(records []Record) {
	l.records = make([]Record, 0, len(records))
	for _, rec := range records {
		rec.Recompute()
		l.records = append(l.records, rec)
	}
}

func (l *Ledger) indexOf(id BeneficiaryID) int {
	for i, rec := range l.records {
		if rec.BeneficiaryID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// SUMMARY - Records joined to their beneficiaries
// =============================================================================

// Entry is one record joined to its beneficiary.
type Entry struct {
	Beneficiary Beneficiary
	Record      Record
}

// Summary aggregates the joined entries.
type Summary struct {
	Entries    []Entry
	Q1         decimal.Decimal
	Q2         decimal.Decimal
	Q3         decimal.Decimal
	Q4         decimal.Decimal
	Discount   decimal.Decimal
	NetPayable decimal.Decimal
}

// Count returns the number of joined entries.
func (s Summary) Count() int { return len(s.Entries) }

// Join pairs each record with its beneficiary, ordered by beneficiary id.
// Records whose beneficiary no longer exists are filtered out.
func (l *Ledger) Join(beneficiaries []Beneficiary) []Entry {
	return Join(beneficiaries, l.records)
}

// Join pairs records with beneficiaries by id, ordered by beneficiary id.
// Records without a matching beneficiary are filtered out.
func Join(beneficiaries []Beneficiary, records []Record) []Entry {
	byID := make(map[BeneficiaryID]Beneficiary, len(beneficiaries))
	for _, b := range beneficiaries {
		byID[b.ID] = b
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		b, ok := byID[rec.BeneficiaryID]
		if !ok {
			continue
		}
		entries = append(entries, Entry{Beneficiary: b, Record: rec})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Beneficiary.ID < entries[j].Beneficiary.ID
	})
	return entries
}

// Summarize joins records to beneficiaries and totals every column.
func (l *Ledger) Summarize(beneficiaries []Beneficiary) Summary {
	s := Summary{
		Entries:    l.Join(beneficiaries),
		Q1:         decimal.Zero,
		Q2:         decimal.Zero,
		Q3:         decimal.Zero,
		Q4:         decimal.Zero,
		Discount:   decimal.Zero,
		NetPayable: decimal.Zero,
	}
	for _, e := range s.Entries {
		s.Q1 = s.Q1.Add(e.Record.Q1.ComputedAmount)
		s.Q2 = s.Q2.Add(e.Record.Q2.ComputedAmount)
		s.Q3 = s.Q3.Add(e.Record.Q3.ComputedAmount)
		s.Q4 = s.Q4.Add(e.Record.Q4.ComputedAmount)
		s.Discount = s.Discount.Add(e.Record.Discount)
		s.NetPayable = s.NetPayable.Add(e.Record.NetPayable)
	}
	return s
}
