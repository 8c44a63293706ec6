package compensation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_DetectsDuplicateAccounts(t *testing.T) {
	// GIVEN: A registry whose list was replaced without validation
	// WHEN: Two beneficiaries hold the same account
	// THEN: Verify names the account and its first owner

	book := NewBook(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	book.registry.Replace([]Beneficiary{
		{ID: 1, Name: "Alice", Account: "1001"},
		{ID: 2, Name: "Bob", Account: "1001"},
	})

	err := book.Verify()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateAccount))

	var dupErr *DuplicateAccountError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "1001", dupErr.Account)
	assert.Equal(t, BeneficiaryID(1), dupErr.OwnerID)
}
