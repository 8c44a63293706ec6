/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built books that populate the server with realistic data
	for demos and manual testing of the exports.

AVAILABLE SCENARIOS:

	school-year:     Three beneficiaries with full-year records, valid treasury
	mixed-validity:  Records the payment file must skip (names, accounts, negatives)
	fresh-start:     Default institution info, no beneficiaries

HOW SCENARIOS WORK:
 1. Build a fresh Book through the normal mutation API (same validation)
 2. Replace the handler's book with it
 3. Autosave all three collections

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "school-year"}

NOTE:

	Scenarios replace all data. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Restore uses the same replace-and-save path
*/
package api

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/compensation-engine/compensation"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "school-year",
		Name:        "School Year",
		Description: "Three beneficiaries with four quarters each and a valid treasury account",
	},
	{
		ID:          "mixed-validity",
		Name:        "Mixed Validity",
		Description: "Records excluded from the payment file: Arabic name, bad account, negative net",
	},
	{
		ID:          "fresh-start",
		Name:        "Fresh Start",
		Description: "Default institution info and an empty registry",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the book with a demo scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var build func(*compensation.Book) error
	switch req.ScenarioID {
	case "school-year":
		build = buildSchoolYear
	case "mixed-validity":
		build = buildMixedValidity
	case "fresh-start":
		build = func(*compensation.Book) error { return nil }
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	book := compensation.NewBook(h.Now())
	if err := build(book); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.withBook(func(*compensation.Book) {
		h.book = book
		h.currentScenario = req.ScenarioID
		h.commitLocked(r.Context(), "load_scenario")
	})

	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

type demoBeneficiary struct {
	name, account, meter string
	quarters             [4][3]string // nofees, value, contrib
	discount             string
}

func seed(book *compensation.Book, info compensation.InstitutionInfo, people []demoBeneficiary) error {
	book.SetInstitution(info)
	for _, p := range people {
		ben, err := book.AddBeneficiary(compensation.BeneficiaryInput{Name: p.name, Account: p.account, Meter: p.meter})
		if err != nil {
			return fmt.Errorf("add %s: %w", p.name, err)
		}
		rec := compensation.Record{BeneficiaryID: ben.ID, Discount: compensation.ParseFigure(p.discount)}
		for i, q := range compensation.Quarters {
			f := p.quarters[i]
			*rec.Quarter(q) = compensation.NewQuarterData(
				compensation.ParseFigure(f[0]),
				compensation.ParseFigure(f[1]),
				compensation.ParseFigure(f[2]),
			)
		}
		if _, err := book.UpsertCompensation(rec); err != nil {
			return fmt.Errorf("record %s: %w", p.name, err)
		}
	}
	return nil
}

func demoInstitution(book *compensation.Book) compensation.InstitutionInfo {
	info := book.Institution()
	info.Institution = "متوسطة الشهيد أحمد زبانة"
	info.FinancialMonth = "12"
	info.TreasuryAccount = "3060012"
	info.TreasuryKey = "57"
	info.OrderNumber = "145"
	info.TransferNumber = "12"
	return info
}

func buildSchoolYear(book *compensation.Book) error {
	return seed(book, demoInstitution(book), []demoBeneficiary{
		{
			name: "Benali Karim", account: "1234567", meter: "E-40122",
			quarters: [4][3]string{{"4200", "680", "1500"}, {"3900", "620", "1500"}, {"5100", "810", "1500"}, {"4700", "750", "1500"}},
		},
		{
			name: "Haddad Samira", account: "7654321", meter: "E-40177",
			quarters: [4][3]string{{"3100", "500", "1200"}, {"2950", "470", "1200"}, {"3600", "575", "1200"}, {"3300", "530", "1200"}},
			discount: "250",
		},
		{
			name: "Ait-Ahmed Yacine", account: "998877", meter: "G-11820",
			quarters: [4][3]string{{"6100", "980", "2000"}, {"5800", "925", "2000"}, {"6900", "1100", "2000"}, {"6400", "1020", "2000"}},
		},
	})
}

func buildMixedValidity(book *compensation.Book) error {
	if err := buildSchoolYear(book); err != nil {
		return err
	}

	// Registration rejects these, so they arrive the way an old backup would.
	snap := book.Snapshot()
	next := compensation.BeneficiaryID(len(snap.Beneficiaries))
	add := func(name, account string, discount string) {
		next++
		snap.Beneficiaries = append(snap.Beneficiaries, compensation.Beneficiary{ID: next, Name: name, Account: account, Meter: "E-0"})
		rec := compensation.Record{
			BeneficiaryID: next,
			Q1:            compensation.NewQuarterData(decimal.NewFromInt(2000), decimal.NewFromInt(300), decimal.NewFromInt(1000)),
			Discount:      compensation.ParseFigure(discount),
		}
		snap.Compensations = append(snap.Compensations, rec)
	}
	add("محمد أمين", "445566", "")
	add("Ziani Lotfi", "12A45", "")
	add("Mansouri Nadia", "334455", "900")
	return book.Restore(snap)
}
