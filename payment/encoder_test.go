package payment_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/compensation-engine/compensation"
	"github.com/warp/compensation-engine/payment"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testInstitution() compensation.InstitutionInfo {
	return compensation.InstitutionInfo{
		Institution:     "CEM Test",
		FiscalYear:      "2025",
		FinancialMonth:  "03",
		TreasuryAccount: "1234",
		OrderNumber:     "12",
		TransferNumber:  "7",
	}
}

// netRecord builds a record whose net payable equals net via the discount.
func netRecord(id compensation.BeneficiaryID, net string) compensation.Record {
	rec := compensation.Record{BeneficiaryID: id, Discount: decimal.RequireFromString(net).Neg()}
	rec.Recompute()
	return rec
}

// =============================================================================
// GOLDEN OUTPUT
// =============================================================================

func TestEncode_GoldenFile(t *testing.T) {
	// GIVEN: One valid beneficiary owed 60.00
	// WHEN: Encoding
	// THEN: Header and detail match the fixed-width layout byte for byte

	bens := []compensation.Beneficiary{{ID: 1, Name: "Alice", Account: "1"}}
	recs := []compensation.Record{netRecord(1, "60")}

	batch, err := payment.Encode(testInstitution(), bens, recs)
	require.NoError(t, err)

	wantHeader := "*" + "00799999000000123493" + "0000000006000" + "0000001" + "03" + "2025" + "00000012" + "000007" + "0"
	wantDetail := "*" + "00799999000000000109" + "0000000006000" + "Alice" + strings.Repeat(" ", 22) + "1"

	assert.Equal(t, wantHeader, batch.Header)
	require.Len(t, batch.Lines, 1)
	assert.Equal(t, wantDetail, batch.Lines[0].Text)
	assert.Equal(t, wantHeader+"\n"+wantDetail, batch.String())
	assert.Len(t, batch.Header, payment.LineLength)
	assert.Len(t, batch.Lines[0].Text, payment.LineLength)
}

func TestEncode_IsDeterministic(t *testing.T) {
	bens := []compensation.Beneficiary{
		{ID: 1, Name: "Alice", Account: "1001"},
		{ID: 2, Name: "Bob", Account: "1002"},
	}
	recs := []compensation.Record{netRecord(2, "15.5"), netRecord(1, "40")}

	first, err := payment.Encode(testInstitution(), bens, recs)
	require.NoError(t, err)
	second, err := payment.Encode(testInstitution(), bens, recs)
	require.NoError(t, err)

	assert.Equal(t, first.Bytes(), second.Bytes())
	assert.Equal(t, compensation.BeneficiaryID(1), first.Lines[0].BeneficiaryID, "lines follow beneficiary id")
}

func TestEncode_HeaderTotalsRoundedAmounts(t *testing.T) {
	// GIVEN: Two amounts that each round up
	// WHEN: Encoding
	// THEN: The header total is the sum of the rounded detail amounts

	bens := []compensation.Beneficiary{
		{ID: 1, Name: "Alice", Account: "1001"},
		{ID: 2, Name: "Bob", Account: "1002"},
	}
	recs := []compensation.Record{netRecord(1, "10.005"), netRecord(2, "10.005")}

	batch, err := payment.Encode(testInstitution(), bens, recs)
	require.NoError(t, err)

	assert.Equal(t, int64(2002), batch.TotalCents())
	assert.Equal(t, "0000000002002", batch.Header[21:34])
	assert.Equal(t, "0000000001001", batch.Lines[0].Text[21:34])
	assert.Equal(t, "0000002", batch.Header[34:41])
}

func TestEncode_LongNameTruncated(t *testing.T) {
	bens := []compensation.Beneficiary{{ID: 1, Name: "Abcdefghij Klmnopqrst Uvwxyz Extra", Account: "5"}}

	batch, err := payment.Encode(testInstitution(), bens, []compensation.Record{netRecord(1, "1")})
	require.NoError(t, err)

	assert.Equal(t, "Abcdefghij Klmnopqrst Uvwxy", batch.Lines[0].Text[34:61])
	assert.Len(t, batch.Lines[0].Text, payment.LineLength)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Payment_File_2025.txt", payment.FileName(testInstitution()))
}

// =============================================================================
// EXCLUSIONS
// =============================================================================

func TestEncode_ExcludesInvalidRecords(t *testing.T) {
	// GIVEN: One valid record and three that cannot be paid
	// WHEN: Encoding
	// THEN: Only the valid record is written; the others are reported

	bens := []compensation.Beneficiary{
		{ID: 1, Name: "Alice", Account: "1001"},
		{ID: 2, Name: "Bob 2", Account: "1002"},
		{ID: 3, Name: "Carol", Account: "12345678901"},
		{ID: 4, Name: "Dina", Account: "1004"},
	}
	recs := []compensation.Record{
		netRecord(1, "10"),
		netRecord(2, "10"),
		netRecord(3, "10"),
		netRecord(4, "-3"),
	}

	batch, err := payment.Encode(testInstitution(), bens, recs)
	require.NoError(t, err)

	require.Equal(t, 1, batch.Count())
	assert.Equal(t, "0000001", batch.Header[34:41])

	reasons := map[compensation.BeneficiaryID]payment.SkipReason{}
	for _, s := range batch.Skipped {
		reasons[s.BeneficiaryID] = s.Reason
	}
	assert.Equal(t, map[compensation.BeneficiaryID]payment.SkipReason{
		2: payment.SkipInvalidName,
		3: payment.SkipInvalidRoutingID,
		4: payment.SkipMalformed,
	}, reasons)

	for _, line := range strings.Split(batch.String(), "\n") {
		assert.Len(t, line, payment.LineLength)
	}
}

func TestEncode_ControlCharactersInNameSkipped(t *testing.T) {
	// GIVEN: Restored beneficiaries whose names carry a line break or a tab
	// WHEN: Encoding
	// THEN: They are skipped as invalid names and every physical line is 62 chars

	bens := []compensation.Beneficiary{
		{ID: 1, Name: "Alice\nBob", Account: "1001"},
		{ID: 2, Name: "Carol\tDoe", Account: "1002"},
		{ID: 3, Name: "Dina", Account: "1003"},
	}
	recs := []compensation.Record{netRecord(1, "50"), netRecord(2, "50"), netRecord(3, "50")}

	batch, err := payment.Encode(testInstitution(), bens, recs)
	require.NoError(t, err)

	require.Len(t, batch.Skipped, 2)
	for _, s := range batch.Skipped {
		assert.Equal(t, payment.SkipInvalidName, s.Reason, "beneficiary %d", s.BeneficiaryID)
	}

	lines := strings.Split(batch.String(), "\n")
	require.Len(t, lines, 2, "header plus Dina")
	for i, line := range lines {
		assert.Len(t, line, payment.LineLength, "line %d", i)
		assert.NotContains(t, line, "\t")
		assert.NotContains(t, line, "\r")
	}
}

func TestEncode_OrphanRecordsIgnored(t *testing.T) {
	bens := []compensation.Beneficiary{{ID: 1, Name: "Alice", Account: "1001"}}
	recs := []compensation.Record{netRecord(1, "1"), netRecord(9, "1")}

	batch, err := payment.Encode(testInstitution(), bens, recs)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Count())
	assert.Empty(t, batch.Skipped)
}

// =============================================================================
// WHOLE-BATCH FAILURES
// =============================================================================

func TestEncode_InvalidTreasury(t *testing.T) {
	for _, account := range []string{"", "12AB", "123456789012"} {
		info := testInstitution()
		info.TreasuryAccount = account

		batch, err := payment.Encode(info, []compensation.Beneficiary{{ID: 1, Name: "Alice", Account: "1"}},
			[]compensation.Record{netRecord(1, "1")})

		assert.Nil(t, batch)
		assert.ErrorIs(t, err, compensation.ErrInvalidTreasuryAccount, account)
		assert.True(t, compensation.IsBatchFailure(err))
	}
}

func TestEncode_TreasuryCheckedBeforeRecords(t *testing.T) {
	info := testInstitution()
	info.TreasuryAccount = ""

	_, err := payment.Encode(info, nil, nil)
	assert.ErrorIs(t, err, compensation.ErrInvalidTreasuryAccount)
}

func TestEncode_NoValidRecords(t *testing.T) {
	bens := []compensation.Beneficiary{{ID: 1, Name: "Bob 2", Account: "1"}}

	batch, err := payment.Encode(testInstitution(), bens, []compensation.Record{netRecord(1, "1")})

	assert.Nil(t, batch)
	assert.ErrorIs(t, err, compensation.ErrNoValidRecords)
	var nvr *payment.NoValidRecordsError
	require.True(t, errors.As(err, &nvr))
	assert.Len(t, nvr.Skipped, 1)
}

func TestEncode_EmptyLedger(t *testing.T) {
	_, err := payment.Encode(testInstitution(), []compensation.Beneficiary{{ID: 1, Name: "Alice", Account: "1"}}, nil)
	assert.ErrorIs(t, err, compensation.ErrNoValidRecords)
}

func TestEncode_HeaderFieldOverflow(t *testing.T) {
	info := testInstitution()
	info.OrderNumber = "123456789"

	_, err := payment.Encode(info, []compensation.Beneficiary{{ID: 1, Name: "Alice", Account: "1"}},
		[]compensation.Record{netRecord(1, "1")})

	assert.ErrorIs(t, err, compensation.ErrMalformedRecord)
}

func TestEncode_EmptyHeaderFieldsZeroFilled(t *testing.T) {
	info := testInstitution()
	info.FinancialMonth = ""
	info.OrderNumber = ""
	info.TransferNumber = ""

	batch, err := payment.Encode(info, []compensation.Beneficiary{{ID: 1, Name: "Alice", Account: "1"}},
		[]compensation.Record{netRecord(1, "1")})
	require.NoError(t, err)

	assert.Equal(t, "00"+"2025"+"00000000"+"000000"+"0", batch.Header[41:])
}
