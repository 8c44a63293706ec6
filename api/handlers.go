/*
handlers.go - HTTP API handlers for the compensation engine

PURPOSE:
  Exposes the compensation book via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the compensation, payment and report
  packages.

ENDPOINTS:
  Institution:
    GET    /api/institution                      Current institution info
    PUT    /api/institution                      Replace institution info

  Beneficiaries:
    GET    /api/beneficiaries                    List with routing ids
    POST   /api/beneficiaries                    Register
    PUT    /api/beneficiaries/{id}               Edit (id unchanged)
    DELETE /api/beneficiaries/{id}               Delete and renumber

  Calculator:
    GET    /api/rip/{account}                    Routing id of an account
    POST   /api/calculator/quarter               Quarterly compensation

  Compensations:
    GET    /api/compensations                    Joined records with totals
    PUT    /api/compensations/{beneficiaryID}    Upsert a record
    DELETE /api/compensations/{beneficiaryID}    Remove a record

  Exports:
    GET    /api/exports/payment.txt              Fixed-width payment batch
    GET    /api/exports/report.xlsx              Spreadsheet report
    GET    /api/exports/report.html[?print=1][&download=1]  HTML report
    GET    /api/batches                          Produced batch audit trail

  Backup:
    GET    /api/backup                           Download the backup document
    POST   /api/restore                          Replace all state from a backup

ARCHITECTURE:
  Handler owns the single compensation.Book and guards it with a mutex.
  Every mutation runs under the lock and is followed by an autosave of all
  three collections. A failed autosave leaves the handler dirty; the
  Checkpointer retries it.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, invalid backup
  - 404: Beneficiary not found
  - 409: Duplicate account
  - 422: Payment batch could not be produced
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The server is meant for a single institution's LAN.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/compensation-engine/compensation"
	"github.com/warp/compensation-engine/metrics"
	"github.com/warp/compensation-engine/payment"
	"github.com/warp/compensation-engine/report"
	"github.com/warp/compensation-engine/store/sqlite"
)

// maxBodyBytes bounds request bodies, backups included.
const maxBodyBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Now     func() time.Time

	mu    sync.Mutex
	book  *compensation.Book
	dirty bool

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:   store,
		Metrics: m,
		Logger:  logger,
		Now:     time.Now,
		book:    compensation.NewBook(time.Now()),
	}
}

// LoadBook reads the persisted collections into the book. Collections that
// were never saved keep their defaults.
func (h *Handler) LoadBook(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	book := compensation.NewBook(h.Now())
	if err := book.Load(ctx, h.Store); err != nil {
		return err
	}
	h.book = book
	h.observeLocked()
	h.Logger.Info("book loaded",
		"beneficiaries", len(book.Beneficiaries()),
		"compensations", len(book.Compensations()))
	return nil
}

// withBook runs fn with exclusive access to the book.
func (h *Handler) withBook(fn func(b *compensation.Book)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.book)
}

// commitLocked autosaves after an accepted mutation. The mutation stands even
// when the save fails; the handler stays dirty until a save succeeds.
func (h *Handler) commitLocked(ctx context.Context, operation string) {
	h.Metrics.IncrementMutation(operation)
	h.observeLocked()
	h.saveLocked(ctx)
}

func (h *Handler) saveLocked(ctx context.Context) error {
	if err := h.book.Save(ctx, h.Store); err != nil {
		h.dirty = true
		h.Metrics.Autosaves.WithLabelValues("failed").Inc()
		h.Logger.Error("autosave failed", "error", err)
		return err
	}
	h.dirty = false
	h.Metrics.Autosaves.WithLabelValues("ok").Inc()
	return nil
}

func (h *Handler) observeLocked() {
	s := h.book.Summary()
	net, _ := s.NetPayable.Float64()
	h.Metrics.Observe(len(h.book.Beneficiaries()), len(h.book.Compensations()), net)
}

// =============================================================================
// INSTITUTION HANDLERS
// =============================================================================

// GetInstitution returns the institution info.
func (h *Handler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	var info compensation.InstitutionInfo
	h.withBook(func(b *compensation.Book) { info = b.Institution() })
	writeJSON(w, http.StatusOK, info)
}

// UpdateInstitution replaces the institution info.
func (h *Handler) UpdateInstitution(w http.ResponseWriter, r *http.Request) {
	var info compensation.InstitutionInfo
	if err := decodeJSON(r, &info); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.withBook(func(b *compensation.Book) {
		b.SetInstitution(info)
		h.commitLocked(r.Context(), "update_institution")
	})
	writeJSON(w, http.StatusOK, info)
}

// =============================================================================
// BENEFICIARY HANDLERS
// =============================================================================

// ListBeneficiaries returns all beneficiaries ordered by id.
func (h *Handler) ListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	var list []compensation.Beneficiary
	h.withBook(func(b *compensation.Book) { list = b.Beneficiaries() })

	dtos := make([]BeneficiaryDTO, len(list))
	for i, b := range list {
		dtos[i] = toBeneficiaryDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBeneficiary registers a beneficiary.
func (h *Handler) CreateBeneficiary(w http.ResponseWriter, r *http.Request) {
	var req compensation.BeneficiaryInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var (
		created compensation.Beneficiary
		err     error
	)
	h.withBook(func(b *compensation.Book) {
		created, err = b.AddBeneficiary(req)
		if err == nil {
			h.commitLocked(r.Context(), "add_beneficiary")
		}
	})
	if err != nil {
		h.writeDomainError(w, "Failed to add beneficiary", err)
		return
	}

	h.Logger.Info("beneficiary added", "id", created.ID, "request_id", middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusCreated, toBeneficiaryDTO(created))
}

// UpdateBeneficiary edits a beneficiary in place.
func (h *Handler) UpdateBeneficiary(w http.ResponseWriter, r *http.Request) {
	id, ok := beneficiaryIDParam(w, r, "id")
	if !ok {
		return
	}
	var req compensation.BeneficiaryInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var (
		updated compensation.Beneficiary
		err     error
	)
	h.withBook(func(b *compensation.Book) {
		err = b.UpdateBeneficiary(compensation.Beneficiary{ID: id, Name: req.Name, Account: req.Account, Meter: req.Meter})
		if err == nil {
			updated, _ = b.Beneficiary(id)
			h.commitLocked(r.Context(), "update_beneficiary")
		}
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update beneficiary", err)
		return
	}
	writeJSON(w, http.StatusOK, toBeneficiaryDTO(updated))
}

// DeleteBeneficiary removes a beneficiary and its record. Survivors are
// renumbered to stay dense; the response carries the old-to-new mapping.
func (h *Handler) DeleteBeneficiary(w http.ResponseWriter, r *http.Request) {
	id, ok := beneficiaryIDParam(w, r, "id")
	if !ok {
		return
	}

	var (
		renum compensation.Renumbering
		err   error
	)
	h.withBook(func(b *compensation.Book) {
		renum, err = b.DeleteBeneficiary(id)
		if err == nil {
			h.commitLocked(r.Context(), "delete_beneficiary")
		}
	})
	if err != nil {
		h.writeDomainError(w, "Failed to delete beneficiary", err)
		return
	}

	h.Logger.Info("beneficiary deleted", "id", id, "survivors", len(renum.OldToNew))
	writeJSON(w, http.StatusOK, DeleteBeneficiaryResponse{Removed: renum.Removed, Renumbered: renum.OldToNew})
}

// =============================================================================
// CALCULATOR HANDLERS
// =============================================================================

// GetRIP derives the routing id of an account.
func (h *Handler) GetRIP(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	rip, err := compensation.DeriveRoutingID(account)
	if err != nil {
		writeJSON(w, http.StatusOK, RIPResponse{Account: account, Error: compensation.RoutingIDText(account)})
		return
	}
	writeJSON(w, http.StatusOK, RIPResponse{Account: account, RIP: rip.String(), Valid: true})
}

// ComputeQuarter evaluates the quarterly compensation formula.
func (h *Handler) ComputeQuarter(w http.ResponseWriter, r *http.Request) {
	var req QuarterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	q := req.toQuarterData()
	writeJSON(w, http.StatusOK, QuarterResponse{
		ComputedAmount: q.ComputedAmount,
		Formatted:      compensation.FormatCurrency(q.ComputedAmount),
	})
}

// =============================================================================
// COMPENSATION HANDLERS
// =============================================================================

// ListCompensations returns every record joined to its beneficiary.
func (h *Handler) ListCompensations(w http.ResponseWriter, r *http.Request) {
	var s compensation.Summary
	h.withBook(func(b *compensation.Book) { s = b.Summary() })
	writeJSON(w, http.StatusOK, toCompensationsResponse(s))
}

// PutCompensation creates or replaces the record of a beneficiary.
func (h *Handler) PutCompensation(w http.ResponseWriter, r *http.Request) {
	id, ok := beneficiaryIDParam(w, r, "beneficiaryID")
	if !ok {
		return
	}
	var req CompensationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var (
		stored compensation.Record
		err    error
	)
	h.withBook(func(b *compensation.Book) {
		stored, err = b.UpsertCompensation(req.toRecord(id))
		if err == nil {
			h.commitLocked(r.Context(), "upsert_compensation")
		}
	})
	if err != nil {
		h.writeDomainError(w, "Failed to save compensation", err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// DeleteCompensation removes the record of a beneficiary. Absence is not an error.
func (h *Handler) DeleteCompensation(w http.ResponseWriter, r *http.Request) {
	id, ok := beneficiaryIDParam(w, r, "beneficiaryID")
	if !ok {
		return
	}
	h.withBook(func(b *compensation.Book) {
		if b.DeleteCompensation(id) {
			h.commitLocked(r.Context(), "delete_compensation")
		}
	})
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// ExportPayment produces the fixed-width payment batch. The batch is encoded
// from one consistent view of the book; no mutation can interleave.
func (h *Handler) ExportPayment(w http.ResponseWriter, r *http.Request) {
	var (
		batch *payment.Batch
		info  compensation.InstitutionInfo
		err   error
	)
	h.withBook(func(b *compensation.Book) {
		info = b.Institution()
		batch, err = payment.Encode(info, b.Beneficiaries(), b.Compensations())
	})
	if err != nil {
		h.writeBatchError(w, err)
		return
	}

	h.Metrics.BatchesProduced.Inc()
	for _, s := range batch.Skipped {
		h.Metrics.BatchRecordsSkipped.WithLabelValues(string(s.Reason)).Inc()
		h.Logger.Warn("beneficiary excluded from payment batch",
			"beneficiary_id", s.BeneficiaryID, "reason", s.Reason, "detail", s.Detail)
	}

	run := &sqlite.BatchRun{
		FiscalYear:        info.FiscalYear,
		FinancialMonth:    info.FinancialMonth,
		TreasuryRoutingID: batch.TreasuryRoutingID.String(),
		RecordCount:       batch.Count(),
		SkippedCount:      len(batch.Skipped),
		TotalCents:        batch.TotalCents(),
	}
	if len(batch.Skipped) > 0 {
		run.Skipped, _ = json.Marshal(toSkippedDTOs(batch.Skipped))
	}
	if err := h.Store.SaveBatchRun(r.Context(), run); err != nil {
		h.Logger.Error("failed to record batch run", "error", err)
	}

	h.Logger.Info("payment batch produced",
		"batch_id", run.ID,
		"records", batch.Count(),
		"skipped", len(batch.Skipped),
		"total_cents", batch.TotalCents())

	w.Header().Set("X-Batch-ID", run.ID)
	w.Header().Set("X-Skipped-Records", strconv.Itoa(len(batch.Skipped)))
	writeAttachment(w, "text/plain; charset=utf-8", payment.FileName(info), batch.Bytes())
}

// ExportXLSX produces the spreadsheet report.
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	var rep *report.Report
	h.withBook(func(b *compensation.Book) { rep = report.FromBook(b) })

	data, err := rep.XLSX()
	if errors.Is(err, report.ErrEmptyReport) {
		writeError(w, http.StatusUnprocessableEntity, "No data to export", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build spreadsheet", err)
		return
	}
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		report.XLSXFileName(rep.Institution), data)
}

// ExportHTML renders the HTML report; ?print=1 adds the signature blocks.
func (h *Handler) ExportHTML(w http.ResponseWriter, r *http.Request) {
	var rep *report.Report
	h.withBook(func(b *compensation.Book) { rep = report.FromBook(b) })

	forPrint, _ := strconv.ParseBool(r.URL.Query().Get("print"))
	download, _ := strconv.ParseBool(r.URL.Query().Get("download"))
	data, err := rep.HTML(forPrint)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render report", err)
		return
	}

	name := report.HTMLFileName(rep.Institution)
	if download {
		writeAttachment(w, "text/html; charset=utf-8", name, data)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ListBatches returns the payment batch audit trail, most recent first.
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.Store.ListBatchRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list batches", err)
		return
	}
	if runs == nil {
		runs = []sqlite.BatchRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// =============================================================================
// BACKUP / RESTORE HANDLERS
// =============================================================================

// Backup downloads the three collections as one JSON document.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	var snap compensation.Snapshot
	h.withBook(func(b *compensation.Book) { snap = b.Snapshot() })

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode backup", err)
		return
	}
	writeAttachment(w, "application/json", compensation.BackupFileName(h.Now()), data)
}

// Restore replaces all state from a backup document. An invalid document
// leaves the current state untouched.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read backup", err)
		return
	}

	var resp CompensationsResponse
	h.withBook(func(b *compensation.Book) {
		if err = b.RestoreJSON(data); err != nil {
			return
		}
		h.currentScenario = ""
		h.commitLocked(r.Context(), "restore")
		resp = toCompensationsResponse(b.Summary())
	})
	if err != nil {
		h.Metrics.Restores.WithLabelValues("rejected").Inc()
		h.writeDomainError(w, "Invalid backup file", err)
		return
	}

	h.Metrics.Restores.WithLabelValues("ok").Inc()
	h.Logger.Info("backup restored", "records", resp.Totals.Count)
	writeJSON(w, http.StatusOK, resp)
}

// Health reports whether the store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(v)
}

func beneficiaryIDParam(w http.ResponseWriter, r *http.Request, name string) (compensation.BeneficiaryID, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid beneficiary id", fmt.Errorf("%s: %q", name, raw))
		return 0, false
	}
	return compensation.BeneficiaryID(id), true
}

// writeDomainError maps compensation errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case compensation.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, compensation.ErrDuplicateAccount):
		h.Metrics.ValidationFailures.WithLabelValues("duplicate_account").Inc()
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, compensation.ErrInvalidName):
		h.Metrics.ValidationFailures.WithLabelValues("invalid_name").Inc()
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, compensation.ErrInvalidAccount):
		h.Metrics.ValidationFailures.WithLabelValues("invalid_account").Inc()
		writeError(w, http.StatusBadRequest, message, err)
	case compensation.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// writeBatchError explains a failed payment batch.
func (h *Handler) writeBatchError(w http.ResponseWriter, err error) {
	if !compensation.IsBatchFailure(err) {
		writeError(w, http.StatusInternalServerError, "Failed to produce payment file", err)
		return
	}

	resp := BatchErrorResponse{Details: err.Error()}
	switch {
	case errors.Is(err, compensation.ErrInvalidTreasuryAccount):
		h.Metrics.BatchFailures.WithLabelValues("invalid_treasury_account").Inc()
		resp.Error = "Invalid treasury account"
	case errors.Is(err, compensation.ErrNoValidRecords):
		h.Metrics.BatchFailures.WithLabelValues("no_valid_records").Inc()
		resp.Error = "No valid records to export"
		var nvr *payment.NoValidRecordsError
		if errors.As(err, &nvr) {
			resp.Skipped = toSkippedDTOs(nvr.Skipped)
		}
	default:
		h.Metrics.BatchFailures.WithLabelValues("malformed_record").Inc()
		resp.Error = "Malformed payment file"
	}
	h.Logger.Warn("payment batch refused", "error", err)
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
