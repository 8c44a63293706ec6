package compensation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compensation-engine/compensation"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestBook(t *testing.T, names ...string) *compensation.Book {
	t.Helper()
	book := compensation.NewBook(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	for i, name := range names {
		_, err := book.AddBeneficiary(compensation.BeneficiaryInput{
			Name:    name,
			Account: accountFor(i),
			Meter:   "M-" + name,
		})
		require.NoError(t, err)
	}
	return book
}

func accountFor(i int) string {
	return []string{"1001", "1002", "1003", "1004", "1005", "1006"}[i]
}

func recordFor(id compensation.BeneficiaryID, noFees string) compensation.Record {
	return compensation.Record{
		BeneficiaryID: id,
		Q1:            compensation.QuarterData{NoFeesAmount: dec(noFees)},
	}
}

func ids(bs []compensation.Beneficiary) []compensation.BeneficiaryID {
	out := make([]compensation.BeneficiaryID, len(bs))
	for i, b := range bs {
		out[i] = b.ID
	}
	return out
}

// =============================================================================
// ADD / UPDATE VALIDATION
// =============================================================================

func TestRegistry_Add_AssignsDenseIDs(t *testing.T) {
	book := newTestBook(t, "Alice", "Bob", "Carol")
	assert.Equal(t, []compensation.BeneficiaryID{1, 2, 3}, ids(book.Beneficiaries()))
}

func TestRegistry_Add_Rejections(t *testing.T) {
	cases := []struct {
		name string
		in   compensation.BeneficiaryInput
		want error
	}{
		{"empty name", compensation.BeneficiaryInput{Name: "", Account: "2001"}, compensation.ErrInvalidName},
		{"empty account", compensation.BeneficiaryInput{Name: "Dan", Account: " "}, compensation.ErrInvalidAccount},
		{"arabic name", compensation.BeneficiaryInput{Name: "محمد", Account: "2001"}, compensation.ErrInvalidName},
		{"digit in name", compensation.BeneficiaryInput{Name: "Dan 2", Account: "2001"}, compensation.ErrInvalidName},
		{"duplicate account", compensation.BeneficiaryInput{Name: "Dan", Account: "1001"}, compensation.ErrDuplicateAccount},
		{"non digit account", compensation.BeneficiaryInput{Name: "Dan", Account: "20A1"}, compensation.ErrInvalidAccount},
		{"account too long", compensation.BeneficiaryInput{Name: "Dan", Account: "123456789012"}, compensation.ErrInvalidAccount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			book := newTestBook(t, "Alice")
			before := book.Beneficiaries()

			_, err := book.AddBeneficiary(tc.in)

			assert.ErrorIs(t, err, tc.want)
			assert.True(t, compensation.IsClientError(err))
			assert.Equal(t, before, book.Beneficiaries(), "rejected mutation must leave state unchanged")
		})
	}
}

func TestRegistry_Add_HyphenatedNameAccepted(t *testing.T) {
	book := newTestBook(t)
	b, err := book.AddBeneficiary(compensation.BeneficiaryInput{Name: "Ben Ali-Yahia", Account: "  77 "})
	require.NoError(t, err)
	assert.Equal(t, compensation.BeneficiaryID(1), b.ID)
	assert.Equal(t, "77", b.Account, "account is stored trimmed")
}

func TestRegistry_ControlCharactersInNameRejected(t *testing.T) {
	// GIVEN: Names holding a line break, a tab or a carriage return
	// WHEN: Adding or editing a beneficiary with them
	// THEN: Both are refused and the registry is unchanged

	for _, name := range []string{"Alice\nBob", "Carol\tDoe", "Dan\rEl", "Eve\fFox"} {
		t.Run(name, func(t *testing.T) {
			book := newTestBook(t, "Alice")
			before := book.Beneficiaries()

			_, err := book.AddBeneficiary(compensation.BeneficiaryInput{Name: name, Account: "2001"})
			assert.ErrorIs(t, err, compensation.ErrInvalidName)

			err = book.UpdateBeneficiary(compensation.Beneficiary{ID: 1, Name: name, Account: "1001"})
			assert.ErrorIs(t, err, compensation.ErrInvalidName)

			assert.Equal(t, before, book.Beneficiaries())
		})
	}
	assert.False(t, compensation.IsLatinName("Alice\nBob"))
	assert.True(t, compensation.IsLatinName("Ben Ali-Yahia"))
}

func TestRegistry_Update_OwnAccountNotADuplicate(t *testing.T) {
	book := newTestBook(t, "Alice", "Bob")

	err := book.UpdateBeneficiary(compensation.Beneficiary{ID: 1, Name: "Alice Renamed", Account: "1001", Meter: "X"})
	require.NoError(t, err)

	b, ok := book.Beneficiary(1)
	require.True(t, ok)
	assert.Equal(t, "Alice Renamed", b.Name)
	assert.Equal(t, compensation.BeneficiaryID(1), b.ID, "id does not change on edit")
}

func TestRegistry_Update_OtherAccountIsDuplicate(t *testing.T) {
	book := newTestBook(t, "Alice", "Bob")

	err := book.UpdateBeneficiary(compensation.Beneficiary{ID: 1, Name: "Alice", Account: "1002"})

	var dupErr *compensation.DuplicateAccountError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, compensation.BeneficiaryID(2), dupErr.OwnerID)
}

func TestRegistry_Update_UnknownID(t *testing.T) {
	book := newTestBook(t, "Alice")
	err := book.UpdateBeneficiary(compensation.Beneficiary{ID: 9, Name: "Ghost", Account: "9"})
	assert.True(t, compensation.IsNotFound(err))
}

// =============================================================================
// DELETE / RENUMBER INVARIANT
// =============================================================================

func TestDeleteBeneficiary_RenumbersAndRemapsRecords(t *testing.T) {
	// GIVEN: Beneficiaries {1,2,3}, each with a record
	// WHEN: Deleting id=2
	// THEN: Survivors are {1,2}; Carol (old 3) is now 2 and keeps her record;
	//       Bob's record is gone

	book := newTestBook(t, "Alice", "Bob", "Carol")
	for id, noFees := range map[compensation.BeneficiaryID]string{1: "10", 2: "20", 3: "30"} {
		_, err := book.UpsertCompensation(recordFor(id, noFees))
		require.NoError(t, err)
	}

	r, err := book.DeleteBeneficiary(2)
	require.NoError(t, err)

	assert.Equal(t, map[compensation.BeneficiaryID]compensation.BeneficiaryID{1: 1, 3: 2}, r.OldToNew)
	assert.Equal(t, []compensation.BeneficiaryID{1, 2}, ids(book.Beneficiaries()))

	carol, ok := book.Beneficiary(2)
	require.True(t, ok)
	assert.Equal(t, "Carol", carol.Name)

	rec, ok := book.Compensation(2)
	require.True(t, ok)
	assertDecimal(t, "30", rec.Q1.NoFeesAmount, "Carol's record followed her to id 2")

	assert.Equal(t, 2, len(book.Compensations()))
	for _, rec := range book.Compensations() {
		_, ok := book.Beneficiary(rec.BeneficiaryID)
		assert.True(t, ok, "record %d references a live beneficiary", rec.BeneficiaryID)
		assert.False(t, rec.Q1.NoFeesAmount.Equal(dec("20")), "Bob's record must be dropped")
	}
}

func TestDeleteBeneficiary_FirstAndLast(t *testing.T) {
	book := newTestBook(t, "Alice", "Bob", "Carol", "Dina")

	_, err := book.DeleteBeneficiary(1)
	require.NoError(t, err)
	_, err = book.DeleteBeneficiary(3) // Dina, formerly 4
	require.NoError(t, err)

	got := book.Beneficiaries()
	require.Len(t, got, 2)
	assert.Equal(t, "Bob", got[0].Name)
	assert.Equal(t, compensation.BeneficiaryID(1), got[0].ID)
	assert.Equal(t, "Carol", got[1].Name)
	assert.Equal(t, compensation.BeneficiaryID(2), got[1].ID)
}

func TestDeleteBeneficiary_WithoutRecords(t *testing.T) {
	book := newTestBook(t, "Alice", "Bob")
	_, err := book.UpsertCompensation(recordFor(2, "5"))
	require.NoError(t, err)

	_, err = book.DeleteBeneficiary(1)
	require.NoError(t, err)

	rec, ok := book.Compensation(1)
	require.True(t, ok, "Bob's record remapped from 2 to 1")
	assertDecimal(t, "5", rec.Q1.NoFeesAmount)
}

func TestDeleteBeneficiary_UnknownID(t *testing.T) {
	book := newTestBook(t, "Alice")
	_, err := book.DeleteBeneficiary(5)
	assert.ErrorIs(t, err, compensation.ErrBeneficiaryNotFound)
	assert.Len(t, book.Beneficiaries(), 1)
}

func TestAddAfterDelete_ContinuesDenseSequence(t *testing.T) {
	book := newTestBook(t, "Alice", "Bob", "Carol")
	_, err := book.DeleteBeneficiary(2)
	require.NoError(t, err)

	b, err := book.AddBeneficiary(compensation.BeneficiaryInput{Name: "Eve", Account: "1009"})
	require.NoError(t, err)
	assert.Equal(t, compensation.BeneficiaryID(3), b.ID)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestLedger_UpsertReplacesExisting(t *testing.T) {
	book := newTestBook(t, "Alice")

	_, err := book.UpsertCompensation(recordFor(1, "100"))
	require.NoError(t, err)
	stored, err := book.UpsertCompensation(recordFor(1, "200"))
	require.NoError(t, err)

	assert.Len(t, book.Compensations(), 1, "one record per beneficiary")
	assertDecimal(t, "100", stored.Q1.ComputedAmount)
	assertDecimal(t, "100", stored.NetPayable)
}

func TestLedger_UpsertUnknownBeneficiary(t *testing.T) {
	book := newTestBook(t, "Alice")
	_, err := book.UpsertCompensation(recordFor(2, "1"))
	assert.ErrorIs(t, err, compensation.ErrBeneficiaryNotFound)
}

func TestLedger_RemoveByBeneficiary_AbsentIsNotError(t *testing.T) {
	book := newTestBook(t, "Alice")
	assert.False(t, book.DeleteCompensation(1))

	_, err := book.UpsertCompensation(recordFor(1, "1"))
	require.NoError(t, err)
	assert.True(t, book.DeleteCompensation(1))
	assert.Empty(t, book.Compensations())
}

func TestLedger_JoinFiltersOrphans(t *testing.T) {
	ledger := compensation.NewLedger()
	ledger.Upsert(recordFor(2, "4"))
	ledger.Upsert(recordFor(7, "4"))
	ledger.Upsert(recordFor(1, "2"))

	entries := ledger.Join([]compensation.Beneficiary{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}})

	require.Len(t, entries, 2)
	assert.Equal(t, compensation.BeneficiaryID(1), entries[0].Beneficiary.ID)
	assert.Equal(t, compensation.BeneficiaryID(2), entries[1].Beneficiary.ID)
}

func TestSummary_Totals(t *testing.T) {
	book := newTestBook(t, "Alice", "Bob")
	a := recordFor(1, "100") // 50
	a.Discount = dec("20")
	_, err := book.UpsertCompensation(a)
	require.NoError(t, err)
	_, err = book.UpsertCompensation(recordFor(2, "30")) // 15
	require.NoError(t, err)

	s := book.Summary()

	assert.Equal(t, 2, s.Count())
	assertDecimal(t, "65", s.Q1)
	assertDecimal(t, "20", s.Discount)
	assertDecimal(t, "45", s.NetPayable)
}
