/*
Package compensation provides the core of the utility-cost compensation engine.

PURPOSE:
  Tracks beneficiaries of the quarterly electricity/gas compensation scheme,
  computes what each one is owed, and keeps the records that the payment
  file encoder and the reports consume.

KEY CONCEPTS IN THIS FILE (types.go):
  - BeneficiaryID: Dense 1..N identifier assigned by the Registry
  - Beneficiary: A person registered under a postal account (CCP)
  - QuarterData: Raw quarterly figures plus the derived compensation
  - Record: The compensation record of one beneficiary (four quarters)
  - InstitutionInfo: Paying institution, consumed by the batch header

DESIGN PRINCIPLES:
  1. Precision: Every money figure is a decimal.Decimal, never a float
  2. Derived values are never set by callers: Recompute() owns them
  3. Weak references: a Record points to its Beneficiary by id only

SEE ALSO:
  - rip.go: Routing identifier (RIP) derivation
  - calculator.go: Quarterly and net compensation
  - registry.go: Beneficiary identity and renumbering
  - ledger.go: One record per beneficiary
  - book.go: The owned store object tying everything together
*/
package compensation

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// BeneficiaryID is assigned by the Registry. IDs always form the dense
// sequence 1..N; callers never choose one for a new beneficiary.
type BeneficiaryID int

func (id BeneficiaryID) String() string { return strconv.Itoa(int(id)) }

// RoutingID is the 20-digit bank routing identifier (RIP) derived from a CCP.
type RoutingID string

func (r RoutingID) String() string { return string(r) }

// =============================================================================
// BENEFICIARY
// =============================================================================

// Beneficiary is a registered recipient of the compensation.
type Beneficiary struct {
	ID      BeneficiaryID `json:"id"`
	Name    string        `json:"name"`
	Account string        `json:"account"` // CCP
	Meter   string        `json:"meter"`
}

// BeneficiaryInput carries the caller-editable fields of a new beneficiary.
type BeneficiaryInput struct {
	Name    string `json:"name"`
	Account string `json:"account"`
	Meter   string `json:"meter"`
}

// =============================================================================
// QUARTERS
// =============================================================================

// Quarter identifies one of the four fiscal reporting periods.
type Quarter int

const (
	Q1 Quarter = iota + 1
	Q2
	Q3
	Q4
)

// Quarters lists the periods in order.
var Quarters = []Quarter{Q1, Q2, Q3, Q4}

func (q Quarter) String() string { return "q" + strconv.Itoa(int(q)) }

// QuarterData holds the raw figures entered for one quarter.
// ComputedAmount is derived from the other three and must never be stale.
type QuarterData struct {
	NoFeesAmount      decimal.Decimal `json:"nofees"`
	AddedValue        decimal.Decimal `json:"value"`
	StateContribution decimal.Decimal `json:"contrib"`
	ComputedAmount    decimal.Decimal `json:"calculated"`
}

// NewQuarterData builds quarter data with its computed amount filled in.
func NewQuarterData(noFees, addedValue, stateContribution decimal.Decimal) QuarterData {
	q := QuarterData{
		NoFeesAmount:      noFees,
		AddedValue:        addedValue,
		StateContribution: stateContribution,
	}
	q.recompute()
	return q
}

func (q *QuarterData) recompute() {
	q.ComputedAmount = ComputeQuarter(q.NoFeesAmount, q.AddedValue, q.StateContribution)
}

// IsStale reports whether ComputedAmount disagrees with the raw figures.
func (q QuarterData) IsStale() bool {
	return !q.ComputedAmount.Equal(ComputeQuarter(q.NoFeesAmount, q.AddedValue, q.StateContribution))
}

// =============================================================================
// COMPENSATION RECORD
// =============================================================================

// Record is the compensation record of a single beneficiary.
//
// INVARIANTS:
//   - At most one Record per BeneficiaryID (enforced by Ledger)
//   - NetPayable = sum(Qn.ComputedAmount) - Discount
//   - BeneficiaryID always references a live Beneficiary
type Record struct {
	BeneficiaryID BeneficiaryID   `json:"beneficiaryId"`
	Q1            QuarterData     `json:"q1"`
	Q2            QuarterData     `json:"q2"`
	Q3            QuarterData     `json:"q3"`
	Q4            QuarterData     `json:"q4"`
	Discount      decimal.Decimal `json:"discount"`
	NetPayable    decimal.Decimal `json:"netPayable"`
}

// Quarter returns the data of the given quarter.
func (r *Record) Quarter(q Quarter) *QuarterData {
	switch q {
	case Q1:
		return &r.Q1
	case Q2:
		return &r.Q2
	case Q3:
		return &r.Q3
	case Q4:
		return &r.Q4
	}
	return nil
}

// Recompute refreshes every derived field from the raw figures.
func (r *Record) Recompute() {
	for _, q := range Quarters {
		r.Quarter(q).recompute()
	}
	r.NetPayable = ComputeNet(r.Q1, r.Q2, r.Q3, r.Q4, r.Discount)
}

// IsStale reports whether any derived field disagrees with the raw figures.
func (r Record) IsStale() bool {
	for _, q := range Quarters {
		if r.Quarter(q).IsStale() {
			return true
		}
	}
	return !r.NetPayable.Equal(ComputeNet(r.Q1, r.Q2, r.Q3, r.Q4, r.Discount))
}

// =============================================================================
// INSTITUTION
// =============================================================================

// InstitutionInfo describes the paying institution. The descriptive fields
// only feed reports; the treasury and numbering fields feed the batch header.
type InstitutionInfo struct {
	Republic        string `json:"republic"`
	Ministry        string `json:"ministry"`
	Directorate     string `json:"directorate"`
	Institution     string `json:"institution"`
	FiscalYear      string `json:"fiscalYear"`
	FinancialMonth  string `json:"financialMonth"`
	TreasuryAccount string `json:"treasuryAccount"`
	TreasuryKey     string `json:"treasuryKey"`
	OrderNumber     string `json:"orderNumber"`
	TransferNumber  string `json:"transferNumber"`
}

// DefaultInstitutionInfo returns the record used when nothing was saved yet.
func DefaultInstitutionInfo(now time.Time) InstitutionInfo {
	return InstitutionInfo{
		Republic:    "الجمهورية الجزائرية الديمقراطية الشعبية",
		Ministry:    "وزارة التربية الوطنية",
		Directorate: "مديرية التربية",
		FiscalYear:  strconv.Itoa(now.Year()),
	}
}
