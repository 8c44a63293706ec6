/*
Package report builds the beneficiary compensation report.

PURPOSE:
  One Report value feeds every rendering: the on-screen HTML table, the
  printable HTML with signature blocks, and the XLSX export. Rows are the
  ledger joined to the registry, ordered by beneficiary id.

KEY CONCEPTS:
  - Row: One beneficiary with the four computed quarters and the net payable
  - Totals: Count, column sums, and the net payable in Arabic words
  - RIP column: the routing id, or the reason there is none

SEE ALSO:
  - words.go: Arabic amount-in-words renderer
  - html.go, xlsx.go: Renderings
*/
package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/compensation"
)

// Row is one line of the report.
type Row struct {
	ID         compensation.BeneficiaryID
	Name       string
	Meter      string
	RIP        string // routing id or error text
	Q1         decimal.Decimal
	Q2         decimal.Decimal
	Q3         decimal.Decimal
	Q4         decimal.Decimal
	Discount   decimal.Decimal
	NetPayable decimal.Decimal
}

// Totals summarizes all rows.
type Totals struct {
	Count      int
	Q1         decimal.Decimal
	Q2         decimal.Decimal
	Q3         decimal.Decimal
	Q4         decimal.Decimal
	Discount   decimal.Decimal
	NetPayable decimal.Decimal
}

// Words renders the net payable total in Arabic words.
func (t Totals) Words() string { return Words(t.NetPayable) }

// Report is the full compensation report of a fiscal year.
type Report struct {
	Institution compensation.InstitutionInfo
	Rows        []Row
	Totals      Totals
}

// Build joins records to beneficiaries and totals every column.
// Records of unknown beneficiaries are left out.
func Build(info compensation.InstitutionInfo, beneficiaries []compensation.Beneficiary, records []compensation.Record) *Report {
	r := &Report{
		Institution: info,
		Totals: Totals{
			Q1:         decimal.Zero,
			Q2:         decimal.Zero,
			Q3:         decimal.Zero,
			Q4:         decimal.Zero,
			Discount:   decimal.Zero,
			NetPayable: decimal.Zero,
		},
	}

	for _, e := range compensation.Join(beneficiaries, records) {
		row := Row{
			ID:         e.Beneficiary.ID,
			Name:       e.Beneficiary.Name,
			Meter:      e.Beneficiary.Meter,
			RIP:        compensation.RoutingIDText(e.Beneficiary.Account),
			Q1:         e.Record.Q1.ComputedAmount,
			Q2:         e.Record.Q2.ComputedAmount,
			Q3:         e.Record.Q3.ComputedAmount,
			Q4:         e.Record.Q4.ComputedAmount,
			Discount:   e.Record.Discount,
			NetPayable: e.Record.NetPayable,
		}
		r.Rows = append(r.Rows, row)

		t := &r.Totals
		t.Q1 = t.Q1.Add(row.Q1)
		t.Q2 = t.Q2.Add(row.Q2)
		t.Q3 = t.Q3.Add(row.Q3)
		t.Q4 = t.Q4.Add(row.Q4)
		t.Discount = t.Discount.Add(row.Discount)
		t.NetPayable = t.NetPayable.Add(row.NetPayable)
	}
	r.Totals.Count = len(r.Rows)
	return r
}

// FromBook builds the report of the current book state.
func FromBook(b *compensation.Book) *Report {
	return Build(b.Institution(), b.Beneficiaries(), b.Compensations())
}

// IsEmpty reports whether there is nothing to export.
func (r *Report) IsEmpty() bool { return len(r.Rows) == 0 }

// XLSXFileName returns the spreadsheet download name.
func XLSXFileName(info compensation.InstitutionInfo) string {
	return fmt.Sprintf("Compensation_Report_%s.xlsx", info.FiscalYear)
}

// HTMLFileName returns the HTML report download name.
func HTMLFileName(info compensation.InstitutionInfo) string {
	return fmt.Sprintf("Compensation_Report_%s.html", info.FiscalYear)
}
