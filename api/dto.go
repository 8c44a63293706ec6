/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types that are
  already the storage format (Beneficiary, Record, InstitutionInfo) are
  returned as-is; the types here add derived display fields or accept the
  loose input the operator forms send.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

FIGURES:
  Money inputs are Figure values: a JSON number or string, with either '.'
  or ',' as decimal separator. Blank or non-numeric input is zero.

SEE ALSO:
  - handlers.go: Uses these types
  - compensation/types.go: Domain types
*/
package api

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/compensation"
	"github.com/warp/compensation-engine/payment"
	"github.com/warp/compensation-engine/report"
)

// =============================================================================
// FIGURE - Lenient money input
// =============================================================================

// Figure is a money amount accepted from a form field.
type Figure struct {
	decimal.Decimal
}

// UnmarshalJSON accepts numbers, strings and null.
func (f *Figure) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.Decimal = decimal.Zero
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	f.Decimal = compensation.ParseFigure(s)
	return nil
}

// =============================================================================
// BENEFICIARIES
// =============================================================================

// BeneficiaryDTO is a beneficiary with its routing id.
type BeneficiaryDTO struct {
	compensation.Beneficiary
	RIP      string `json:"rip"`
	RIPValid bool   `json:"ripValid"`
}

func toBeneficiaryDTO(b compensation.Beneficiary) BeneficiaryDTO {
	_, err := compensation.DeriveRoutingID(b.Account)
	return BeneficiaryDTO{
		Beneficiary: b,
		RIP:         compensation.RoutingIDText(b.Account),
		RIPValid:    err == nil,
	}
}

// DeleteBeneficiaryResponse reports the renumbering caused by a delete.
type DeleteBeneficiaryResponse struct {
	Removed    compensation.BeneficiaryID                                `json:"removed"`
	Renumbered map[compensation.BeneficiaryID]compensation.BeneficiaryID `json:"renumbered"`
}

// RIPResponse is the routing id lookup result.
type RIPResponse struct {
	Account string `json:"account"`
	RIP     string `json:"rip,omitempty"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
}

// =============================================================================
// CALCULATOR / COMPENSATIONS
// =============================================================================

// QuarterRequest carries the raw figures of one quarter.
type QuarterRequest struct {
	NoFeesAmount      Figure `json:"nofees"`
	AddedValue        Figure `json:"value"`
	StateContribution Figure `json:"contrib"`
}

func (q QuarterRequest) toQuarterData() compensation.QuarterData {
	return compensation.NewQuarterData(q.NoFeesAmount.Decimal, q.AddedValue.Decimal, q.StateContribution.Decimal)
}

// QuarterResponse is the calculator result.
type QuarterResponse struct {
	ComputedAmount decimal.Decimal `json:"calculated"`
	Formatted      string          `json:"formatted"`
}

// CompensationRequest is the body of PUT /api/compensations/{beneficiaryID}.
// Computed amounts and the net payable are always derived server-side.
type CompensationRequest struct {
	Q1       QuarterRequest `json:"q1"`
	Q2       QuarterRequest `json:"q2"`
	Q3       QuarterRequest `json:"q3"`
	Q4       QuarterRequest `json:"q4"`
	Discount Figure         `json:"discount"`
}

func (c CompensationRequest) toRecord(id compensation.BeneficiaryID) compensation.Record {
	return compensation.Record{
		BeneficiaryID: id,
		Q1:            c.Q1.toQuarterData(),
		Q2:            c.Q2.toQuarterData(),
		Q3:            c.Q3.toQuarterData(),
		Q4:            c.Q4.toQuarterData(),
		Discount:      c.Discount.Decimal,
	}
}

// CompensationEntryDTO is one record joined to its beneficiary.
type CompensationEntryDTO struct {
	Beneficiary BeneficiaryDTO      `json:"beneficiary"`
	Record      compensation.Record `json:"record"`
}

// TotalsDTO carries the column totals.
type TotalsDTO struct {
	Count      int             `json:"count"`
	Q1         decimal.Decimal `json:"q1"`
	Q2         decimal.Decimal `json:"q2"`
	Q3         decimal.Decimal `json:"q3"`
	Q4         decimal.Decimal `json:"q4"`
	Discount   decimal.Decimal `json:"discount"`
	NetPayable decimal.Decimal `json:"netPayable"`
	Words      string          `json:"netPayableWords"`
}

// CompensationsResponse is the ledger view.
type CompensationsResponse struct {
	Entries []CompensationEntryDTO `json:"entries"`
	Totals  TotalsDTO              `json:"totals"`
}

func toCompensationsResponse(s compensation.Summary) CompensationsResponse {
	entries := make([]CompensationEntryDTO, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = CompensationEntryDTO{Beneficiary: toBeneficiaryDTO(e.Beneficiary), Record: e.Record}
	}
	return CompensationsResponse{
		Entries: entries,
		Totals: TotalsDTO{
			Count:      s.Count(),
			Q1:         s.Q1,
			Q2:         s.Q2,
			Q3:         s.Q3,
			Q4:         s.Q4,
			Discount:   s.Discount,
			NetPayable: s.NetPayable,
			Words:      report.Words(s.NetPayable),
		},
	}
}

// =============================================================================
// PAYMENT BATCH
// =============================================================================

// SkippedDTO is a record left out of the payment batch.
type SkippedDTO struct {
	BeneficiaryID compensation.BeneficiaryID `json:"beneficiaryId"`
	Name          string                     `json:"name"`
	Reason        payment.SkipReason         `json:"reason"`
	Detail        string                     `json:"detail"`
}

func toSkippedDTOs(skipped []payment.Skipped) []SkippedDTO {
	out := make([]SkippedDTO, len(skipped))
	for i, s := range skipped {
		out[i] = SkippedDTO{BeneficiaryID: s.BeneficiaryID, Name: s.Name, Reason: s.Reason, Detail: s.Detail}
	}
	return out
}

// BatchErrorResponse explains why no payment batch was produced.
type BatchErrorResponse struct {
	Error   string       `json:"error"`
	Details string       `json:"details,omitempty"`
	Skipped []SkippedDTO `json:"skipped,omitempty"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
