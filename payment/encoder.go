/*
encoder.go - Payment batch encoder

PURPOSE:
  Turns the beneficiary registry and the compensation ledger into the
  fixed-width text batch consumed by the treasury payment system.

FAILURE POLICY:
  Whole-batch failures (no output at all):
    - treasury account cannot produce a routing id -> ErrInvalidTreasuryAccount
    - every candidate record was excluded          -> ErrNoValidRecords
    - a header field cannot be encoded             -> ErrMalformedRecord
  Record-level exclusions (batch proceeds, reported in Batch.Skipped):
    - name is not Latin letters/space/hyphen
    - account cannot produce a routing id
    - net payable cannot be written as an unsigned 13-digit cents field
    - assembled line is not 62 characters

DETERMINISM:
  Output depends only on the inputs. Lines follow ascending beneficiary id.

SEE ALSO:
  - layout.go: Field widths and padding
  - compensation/rip.go: Routing id derivation
*/
package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/compensation"
)

// =============================================================================
// BATCH
// =============================================================================

// Line is one encoded detail record.
type Line struct {
	BeneficiaryID compensation.BeneficiaryID
	Name          string
	RoutingID     compensation.RoutingID
	NetPayable    decimal.Decimal // rounded to 2 places
	Text          string
}

// SkipReason explains why a candidate record was left out of the batch.
type SkipReason string

const (
	SkipInvalidName      SkipReason = "invalid_name"
	SkipInvalidRoutingID SkipReason = "invalid_routing_id"
	SkipMalformed        SkipReason = "malformed"
)

// Skipped is a candidate record excluded from the batch.
type Skipped struct {
	BeneficiaryID compensation.BeneficiaryID
	Name          string
	Reason        SkipReason
	Detail        string
}

// Batch is an encoded payment file.
type Batch struct {
	Header            string
	Lines             []Line
	Skipped           []Skipped
	TreasuryRoutingID compensation.RoutingID
	Total             decimal.Decimal // sum of the rounded net payables
}

// Count returns the number of detail lines.
func (b *Batch) Count() int { return len(b.Lines) }

// TotalCents returns the header total in cents.
func (b *Batch) TotalCents() int64 { return b.Total.Shift(2).IntPart() }

// String returns the header and detail lines joined by newlines.
func (b *Batch) String() string {
	lines := make([]string, 0, len(b.Lines)+1)
	lines = append(lines, b.Header)
	for _, l := range b.Lines {
		lines = append(lines, l.Text)
	}
	return strings.Join(lines, "\n")
}

// Bytes returns the file content.
func (b *Batch) Bytes() []byte { return []byte(b.String()) }

// FileName returns the download name of the batch for a fiscal year.
func FileName(info compensation.InstitutionInfo) string {
	return fmt.Sprintf("Payment_File_%s.txt", info.FiscalYear)
}

// =============================================================================
// ERRORS
// =============================================================================

// TreasuryError wraps the routing id failure of the treasury account.
type TreasuryError struct {
	Account string
	Err     error
}

func (e *TreasuryError) Error() string {
	return fmt.Sprintf("invalid treasury account %q: %v", e.Account, e.Err)
}

func (e *TreasuryError) Unwrap() []error {
	return []error{compensation.ErrInvalidTreasuryAccount, e.Err}
}

// NoValidRecordsError lists every excluded candidate.
type NoValidRecordsError struct {
	Skipped []Skipped
}

func (e *NoValidRecordsError) Error() string {
	return fmt.Sprintf("no valid records: %d candidate(s) excluded", len(e.Skipped))
}

func (e *NoValidRecordsError) Unwrap() error { return compensation.ErrNoValidRecords }

// MalformedRecordError describes a line that could not be assembled.
type MalformedRecordError struct {
	Line          string // "header" or "detail"
	BeneficiaryID compensation.BeneficiaryID
	Reason        string
}

func (e *MalformedRecordError) Error() string {
	if e.Line == "header" {
		return fmt.Sprintf("malformed header: %s", e.Reason)
	}
	return fmt.Sprintf("malformed record for beneficiary %d: %s", e.BeneficiaryID, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return compensation.ErrMalformedRecord }

// =============================================================================
// ENCODER
// =============================================================================

// Encode builds the payment batch from a consistent snapshot of the
// institution, registry and ledger. It returns either a complete batch or an
// error and never a partial file.
func Encode(info compensation.InstitutionInfo, beneficiaries []compensation.Beneficiary, records []compensation.Record) (*Batch, error) {
	treasury, err := compensation.DeriveRoutingID(info.TreasuryAccount)
	if err != nil {
		return nil, &TreasuryError{Account: info.TreasuryAccount, Err: err}
	}

	batch := &Batch{TreasuryRoutingID: treasury, Total: decimal.Zero}
	for _, e := range compensation.Join(beneficiaries, records) {
		line, skip := encodeLine(e)
		if skip != nil {
			batch.Skipped = append(batch.Skipped, *skip)
			continue
		}
		batch.Lines = append(batch.Lines, line)
		batch.Total = batch.Total.Add(line.NetPayable)
	}

	if len(batch.Lines) == 0 {
		return nil, &NoValidRecordsError{Skipped: batch.Skipped}
	}

	header, err := encodeHeader(info, treasury, batch.Total, len(batch.Lines))
	if err != nil {
		return nil, err
	}
	batch.Header = header
	return batch, nil
}

// encodeLine assembles one detail line, or explains why it is excluded.
func encodeLine(e compensation.Entry) (Line, *Skipped) {
	id := e.Beneficiary.ID
	name := strings.TrimSpace(e.Beneficiary.Name)
	skip := func(reason SkipReason, detail string) (Line, *Skipped) {
		return Line{}, &Skipped{BeneficiaryID: id, Name: name, Reason: reason, Detail: detail}
	}

	if !compensation.IsLatinName(name) {
		return skip(SkipInvalidName, "name must use Latin letters, spaces and hyphens")
	}
	rip, err := compensation.DeriveRoutingID(e.Beneficiary.Account)
	if err != nil {
		return skip(SkipInvalidRoutingID, err.Error())
	}

	net := compensation.RoundCurrency(e.Record.NetPayable)
	if net.IsNegative() {
		return skip(SkipMalformed, fmt.Sprintf("negative net payable %s", net.StringFixed(2)))
	}
	cents := net.Shift(2).BigInt().String()
	if len(cents) > centsWidth {
		return skip(SkipMalformed, fmt.Sprintf("net payable %s exceeds %d digits", cents, centsWidth))
	}

	text := lineStart + rip.String() + padLeft(cents, centsWidth, '0') + textField(name, nameWidth) + detailEnd
	if len(text) != LineLength {
		return skip(SkipMalformed, fmt.Sprintf("line length %d", len(text)))
	}

	return Line{BeneficiaryID: id, Name: name, RoutingID: rip, NetPayable: net, Text: text}, nil
}

// encodeHeader assembles the header line. A header that cannot be encoded
// fails the whole batch.
func encodeHeader(info compensation.InstitutionInfo, treasury compensation.RoutingID, total decimal.Decimal, count int) (string, error) {
	month := info.FinancialMonth
	if strings.TrimSpace(month) == "" {
		month = "00"
	}
	year := info.FiscalYear
	if strings.TrimSpace(year) == "" {
		year = "0000"
	}

	fields := []struct {
		name  string
		value string
		width int
	}{
		{"total", total.Shift(2).BigInt().String(), centsWidth},
		{"count", fmt.Sprint(count), countWidth},
		{"financial month", month, monthWidth},
		{"fiscal year", year, yearWidth},
		{"order number", info.OrderNumber, orderWidth},
		{"transfer number", info.TransferNumber, transferWidth},
	}

	var sb strings.Builder
	sb.WriteString(lineStart)
	sb.WriteString(treasury.String())
	for _, f := range fields {
		v, err := numericField(f.name, f.value, f.width)
		if err != nil {
			return "", &MalformedRecordError{Line: "header", Reason: err.Error()}
		}
		sb.WriteString(v)
	}
	sb.WriteString(headerEnd)

	header := sb.String()
	if len(header) != LineLength {
		return "", &MalformedRecordError{Line: "header", Reason: fmt.Sprintf("line length %d", len(header))}
	}
	return header, nil
}
