package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/compensation-engine/compensation"
	"github.com/warp/compensation-engine/report"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleReport() *report.Report {
	info := compensation.InstitutionInfo{
		Republic:    "الجمهورية",
		Institution: "CEM Test",
		FiscalYear:  "2025",
	}
	bens := []compensation.Beneficiary{
		{ID: 1, Name: "Alice", Account: "1", Meter: "M-1"},
		{ID: 2, Name: "Bob", Account: "", Meter: "M-2"},
	}
	a := compensation.Record{BeneficiaryID: 1, Q1: compensation.QuarterData{NoFeesAmount: dec("100")}, Discount: dec("10")}
	b := compensation.Record{BeneficiaryID: 2, Q2: compensation.QuarterData{NoFeesAmount: dec("41"), AddedValue: dec("0.5")}}
	orphan := compensation.Record{BeneficiaryID: 7, Q1: compensation.QuarterData{NoFeesAmount: dec("1")}}
	recs := []compensation.Record{b, orphan, a}
	for i := range recs {
		recs[i].Recompute()
	}
	return report.Build(info, bens, recs)
}

// =============================================================================
// BUILD
// =============================================================================

func TestBuild_RowsAndTotals(t *testing.T) {
	r := sampleReport()

	require.Len(t, r.Rows, 2, "orphan record left out")
	assert.Equal(t, compensation.BeneficiaryID(1), r.Rows[0].ID)
	assert.Equal(t, "00799999000000000109", r.Rows[0].RIP)
	assert.Equal(t, "CCP فارغ", r.Rows[1].RIP)

	assert.Equal(t, 2, r.Totals.Count)
	assert.True(t, dec("50").Equal(r.Totals.Q1))
	assert.True(t, dec("20.75").Equal(r.Totals.Q2))
	assert.True(t, dec("10").Equal(r.Totals.Discount))
	assert.True(t, dec("60.75").Equal(r.Totals.NetPayable), r.Totals.NetPayable.String())
}

func TestFileNames(t *testing.T) {
	info := compensation.InstitutionInfo{FiscalYear: "2025"}
	assert.Equal(t, "Compensation_Report_2025.xlsx", report.XLSXFileName(info))
	assert.Equal(t, "Compensation_Report_2025.html", report.HTMLFileName(info))
}

// =============================================================================
// WORDS
// =============================================================================

func TestWords(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"0", "صفر دينار"},
		{"0.001", "صفر دينار"},
		{"1", "واحد دينار"},
		{"12", "اثنا عشر دينار"},
		{"21", "واحد و عشرون دينار"},
		{"100", "مائة دينار"},
		{"250", "مائتان و خمسون دينار"},
		{"1000", "واحد ألف دينار"},
		{"2000", "اثنان ألفان دينار"},
		{"3000", "ثلاثة آلاف دينار"},
		{"1250.5", "واحد ألف و مائتان و خمسون دينار و خمسون سنتيم"},
		{"0.75", "خمسة و سبعون سنتيم"},
		{"1000000", "واحد مليون دينار"},
		{"5000001", "خمسة ملايين و واحد دينار"},
		{"12.3", "اثنا عشر دينار و ثلاثون سنتيم"},
		{"-5", "سالب خمسة دينار"},
	}

	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			assert.Equal(t, tc.want, report.Words(dec(tc.amount)))
		})
	}
}

// =============================================================================
// HTML
// =============================================================================

func TestHTML_ScreenAndPrint(t *testing.T) {
	r := sampleReport()

	screen, err := r.HTML(false)
	require.NoError(t, err)
	printed, err := r.HTML(true)
	require.NoError(t, err)

	page := string(screen)
	assert.Contains(t, page, `dir="rtl"`)
	assert.Contains(t, page, "CEM Test")
	assert.Contains(t, page, "00799999000000000109")
	assert.Contains(t, page, "60,75")
	assert.Contains(t, page, "أوقف الجدول على مجموع مستفيدين قدره: 2")
	assert.Contains(t, page, report.Words(dec("60.75")))
	assert.NotContains(t, page, "المسير المالي")

	assert.Contains(t, string(printed), "المسير المالي")
}

func TestHTML_EscapesNames(t *testing.T) {
	r := report.Build(compensation.InstitutionInfo{FiscalYear: "2025"},
		[]compensation.Beneficiary{{ID: 1, Name: "<b>x</b>", Account: "1"}},
		[]compensation.Record{{BeneficiaryID: 1}})

	page, err := r.HTML(false)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(page), "<b>x</b>"))
}

// =============================================================================
// XLSX
// =============================================================================

func TestXLSX_Workbook(t *testing.T) {
	data, err := sampleReport().XLSX()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "الرقم", rows[0][0])
	assert.Equal(t, "Alice", rows[1][1])
	assert.Equal(t, "00799999000000000109", rows[1][3])
	assert.Equal(t, "40", rows[1][9])
}

func TestXLSX_EmptyReport(t *testing.T) {
	r := report.Build(compensation.InstitutionInfo{}, nil, nil)
	_, err := r.XLSX()
	assert.ErrorIs(t, err, report.ErrEmptyReport)
}
