/*
handlers.go - HTTP API handlers for the stock tracking system

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Catalog:
    GET    /api/drinks                 List the drink catalog
    POST   /api/drinks                 Create or replace a drink
    DELETE /api/drinks/{name}          Remove a drink

  Managers:
    GET    /api/managers               List managers
    POST   /api/managers               Create or update a manager
    DELETE /api/managers/{id}          Remove a manager

  Working state:
    GET    /api/deliveries             Pending deliveries (valued)
    POST   /api/deliveries             Record a delivery
    DELETE /api/deliveries/{id}        Remove a pending delivery
    GET    /api/stock                  Current counts + valued snapshot
    PUT    /api/stock                  Replace the counts

  Reconciliation:
    POST   /api/reconcile/preview      Derive the chain, persist nothing
    POST   /api/reconcile/save         Commit the period atomically

  History:
    GET    /api/history                All entries, most recent first
    GET    /api/history/{id}           One entry with its correction log
    POST   /api/history/{id}/corrections  Apply a correction
    DELETE /api/admin/history/{id}     Administrative deletion

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: persistence (history.Store; sqlite in production)
  - Recorder: atomic save/correction orchestration
  - DrinkFactory: JSON to catalog.Drink conversion

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (valuation, reconcile, history)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 500: Persistence failures, internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barstock/inventory-engine/catalog"
	"github.com/barstock/inventory-engine/factory"
	"github.com/barstock/inventory-engine/history"
	"github.com/barstock/inventory-engine/reconcile"
	"github.com/barstock/inventory-engine/valuation"
)

const dateLayout = "2006-01-02"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        history.Store
	Recorder     *history.Recorder
	DrinkFactory *factory.DrinkFactory
}

// NewHandler creates a new handler backed by the given store.
func NewHandler(store history.Store) *Handler {
	return &Handler{
		Store:        store,
		Recorder:     history.NewRecorder(store),
		DrinkFactory: factory.NewDrinkFactory(),
	}
}

// catalogFromStore loads the persisted drinks into a lookup catalog.
func (h *Handler) catalogFromStore(ctx context.Context) (*catalog.Catalog, error) {
	drinks, err := h.Store.ListDrinks(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.New(drinks), nil
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListDrinks returns the full catalog.
// GET /api/drinks
func (h *Handler) ListDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := h.Store.ListDrinks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list drinks", err)
		return
	}
	dtos := make([]DrinkDTO, len(drinks))
	for i, d := range drinks {
		dtos[i] = toDrinkDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveDrink creates or replaces a drink. The body is the factory's
// flexible drink JSON.
// POST /api/drinks
func (h *Handler) SaveDrink(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	drink, err := h.DrinkFactory.ParseDrink(string(body))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid drink definition", err)
		return
	}
	if err := h.Store.SaveDrink(r.Context(), drink); err != nil {
		writeError(w, statusFor(err), "Failed to save drink", err)
		return
	}
	writeJSON(w, http.StatusOK, toDrinkDTO(drink))
}

// DeleteDrink removes a drink from the catalog. History entries that
// reference it keep their placeholder lines.
// DELETE /api/drinks/{name}
func (h *Handler) DeleteDrink(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Store.DeleteDrink(r.Context(), name); err != nil {
		writeError(w, statusFor(err), "Failed to delete drink", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MANAGER HANDLERS
// =============================================================================

// ListManagers returns all managers.
// GET /api/managers
func (h *Handler) ListManagers(w http.ResponseWriter, r *http.Request) {
	managers, err := h.Store.ListManagers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list managers", err)
		return
	}
	dtos := make([]ManagerDTO, len(managers))
	for i, m := range managers {
		dtos[i] = toManagerDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveManager creates or updates a manager.
// POST /api/managers
func (h *Handler) SaveManager(w http.ResponseWriter, r *http.Request) {
	var req SaveManagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Manager name is required", nil)
		return
	}

	m := history.Manager{ID: req.ID, Name: req.Name, Phone: req.Phone}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start date", err)
			return
		}
		m.StartDate = start
	}

	if err := h.Store.SaveManager(r.Context(), m); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save manager", err)
		return
	}
	writeJSON(w, http.StatusOK, toManagerDTO(m))
}

// DeleteManager removes a manager.
// DELETE /api/managers/{id}
func (h *Handler) DeleteManager(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteManager(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "Failed to delete manager", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WORKING STATE HANDLERS
// =============================================================================

// ListDeliveries returns the pending deliveries with their valuations.
// GET /api/deliveries
func (h *Handler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.Store.ListDeliveries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list deliveries", err)
		return
	}
	dtos := make([]DeliveryDTO, len(deliveries))
	for i, d := range deliveries {
		dtos[i] = toDeliveryDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddDelivery values and records a received delivery.
// POST /api/deliveries
func (h *Handler) AddDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AddDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	delivery, err := h.buildDelivery(ctx, req)
	if err != nil {
		writeError(w, statusFor(err), "Invalid delivery", err)
		return
	}
	if err := h.Store.AddDelivery(ctx, delivery); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record delivery", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeliveryDTO(delivery))
}

// DeleteDelivery removes a pending delivery before reconciliation.
// DELETE /api/deliveries/{id}
func (h *Handler) DeleteDelivery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteDelivery(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "Failed to delete delivery", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) buildDelivery(ctx context.Context, req AddDeliveryRequest) (valuation.Delivery, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return valuation.Delivery{}, fmt.Errorf("%w: invalid date %q", reconcile.ErrInvalidLedgerInput, req.Date)
	}
	if len(req.Entries) == 0 {
		return valuation.Delivery{}, fmt.Errorf("%w: delivery has no entries", reconcile.ErrInvalidLedgerInput)
	}

	cat, err := h.catalogFromStore(ctx)
	if err != nil {
		return valuation.Delivery{}, err
	}

	entries := make([]valuation.Entry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = valuation.Entry{
			Name:        e.Name,
			Quantity:    decimal.NewFromFloat(e.Quantity),
			PackageSize: e.PackageSize,
		}
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	return valuation.BuildDeliverySnapshot(id, date, entries, cat)
}

// GetStock returns the current counts and their valuation.
// GET /api/stock
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	quantities, err := h.Store.StockQuantities(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load stock state", err)
		return
	}
	cat, err := h.catalogFromStore(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load catalog", err)
		return
	}
	snapshot, err := valuation.BuildStockSnapshot(time.Now(), quantities, cat)
	if err != nil {
		writeError(w, statusFor(err), "Failed to value stock", err)
		return
	}

	out := StockStateDTO{Quantities: make(map[string]float64, len(quantities)), Snapshot: toSnapshotDTO(snapshot)}
	for name, q := range quantities {
		out.Quantities[name] = q.InexactFloat64()
	}
	writeJSON(w, http.StatusOK, out)
}

// SetStock replaces the counted quantities wholesale.
// PUT /api/stock
func (h *Handler) SetStock(w http.ResponseWriter, r *http.Request) {
	var req SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	quantities := make(map[string]decimal.Decimal, len(req.Quantities))
	for name, q := range req.Quantities {
		if q < 0 {
			writeError(w, http.StatusBadRequest, "Quantities cannot be negative", fmt.Errorf("%s: %v", name, q))
			return
		}
		quantities[name] = decimal.NewFromFloat(q)
	}

	if err := h.Store.SetStockQuantities(r.Context(), quantities); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save stock state", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// PreviewReconciliation derives the full chain without persisting.
// POST /api/reconcile/preview
func (h *Handler) PreviewReconciliation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeReconcileRequest(w, r)
	if !ok {
		return
	}

	input, err := h.buildPeriodInput(ctx, req, nil)
	if err != nil {
		writeError(w, statusFor(err), "Invalid reconciliation input", err)
		return
	}

	session := reconcile.NewSession()
	ledger, err := session.Compute(input)
	if err != nil {
		writeError(w, statusFor(err), "Failed to compute reconciliation", err)
		return
	}

	resp := PreviewResponse{
		Ledger:     toLedgerDTO(ledger),
		Stock:      toSnapshotDTO(input.EndingStock),
		Deliveries: make([]DeliveryDTO, len(input.Deliveries)),
	}
	for i, d := range input.Deliveries {
		resp.Deliveries[i] = toDeliveryDTO(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveReconciliation commits the period: one new history entry, the
// working state cleared, all in one transaction.
// POST /api/reconcile/save
func (h *Handler) SaveReconciliation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeReconcileRequest(w, r)
	if !ok {
		return
	}

	input, err := h.buildPeriodInput(ctx, req, nil)
	if err != nil {
		writeError(w, statusFor(err), "Invalid reconciliation input", err)
		return
	}

	session := reconcile.NewSession()
	if _, err := session.Compute(input); err != nil {
		writeError(w, statusFor(err), "Failed to compute reconciliation", err)
		return
	}

	entry, err := h.Recorder.Save(ctx, session)
	if err != nil {
		writeError(w, statusFor(err), "Failed to save reconciliation", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// CorrectEntry applies a correction to a persisted entry. Omitted
// stock quantities and deliveries default to the entry's saved values,
// so a correction only has to send what changed.
// POST /api/history/{id}/corrections
func (h *Handler) CorrectEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entryID := chi.URLParam(r, "id")

	original, err := h.Store.GetEntry(ctx, entryID)
	if err != nil {
		writeError(w, statusFor(err), "Entry not found", err)
		return
	}

	req, ok := decodeReconcileRequest(w, r)
	if !ok {
		return
	}

	input, err := h.buildPeriodInput(ctx, req, &original)
	if err != nil {
		writeError(w, statusFor(err), "Invalid correction input", err)
		return
	}

	session := reconcile.NewCorrectionSession(entryID)
	if _, err := session.Compute(input); err != nil {
		writeError(w, statusFor(err), "Failed to compute correction", err)
		return
	}

	updated, changes, err := h.Recorder.Correct(ctx, session)
	if err != nil {
		writeError(w, statusFor(err), "Failed to apply correction", err)
		return
	}

	writeJSON(w, http.StatusOK, CorrectionResponse{
		Entry:   toEntryDTO(updated),
		Changes: toChangeDTOs(changes),
		Skipped: len(changes) == 0,
	})
}

func decodeReconcileRequest(w http.ResponseWriter, r *http.Request) (ReconcileRequest, bool) {
	var req ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return ReconcileRequest{}, false
	}
	return req, true
}

// buildPeriodInput assembles the engine input from the request plus
// stored state. For corrections (original != nil) the defaults come
// from the entry being revised instead of the working state.
func (h *Handler) buildPeriodInput(ctx context.Context, req ReconcileRequest, original *history.Entry) (reconcile.PeriodInput, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return reconcile.PeriodInput{}, fmt.Errorf("%w: invalid date %q", reconcile.ErrInvalidLedgerInput, req.Date)
	}

	cat, err := h.catalogFromStore(ctx)
	if err != nil {
		return reconcile.PeriodInput{}, err
	}

	// Ending stock: explicit quantities win; otherwise the stored
	// counts (normal save) or the entry's saved snapshot (correction).
	var stock valuation.Snapshot
	switch {
	case req.StockQuantities != nil:
		quantities := make(map[string]decimal.Decimal, len(req.StockQuantities))
		for name, q := range req.StockQuantities {
			quantities[name] = decimal.NewFromFloat(q)
		}
		stock, err = valuation.BuildStockSnapshot(date, quantities, cat)
	case original != nil:
		stock = original.StockDetails
	default:
		var quantities map[string]decimal.Decimal
		quantities, err = h.Store.StockQuantities(ctx)
		if err == nil {
			stock, err = valuation.BuildStockSnapshot(date, quantities, cat)
		}
	}
	if err != nil {
		return reconcile.PeriodInput{}, err
	}

	// Deliveries follow the same defaulting.
	var deliveries []valuation.Delivery
	switch {
	case req.Deliveries != nil:
		deliveries = make([]valuation.Delivery, len(req.Deliveries))
		for i, dr := range req.Deliveries {
			deliveries[i], err = h.buildDelivery(ctx, dr)
			if err != nil {
				return reconcile.PeriodInput{}, err
			}
		}
	case original != nil:
		deliveries = original.DeliveryDetails
	default:
		deliveries, err = h.Store.ListDeliveries(ctx)
		if err != nil {
			return reconcile.PeriodInput{}, err
		}
	}

	// Carried stock: explicit override, the corrected entry's value,
	// or the latest entry's ending stock.
	var carried catalog.Money
	switch {
	case req.CarriedStock != nil:
		carried = catalog.Money(*req.CarriedStock)
	case original != nil:
		carried = original.Ledger.CarriedStock
	default:
		carried, err = h.Recorder.CarriedStock(ctx)
		if err != nil {
			return reconcile.PeriodInput{}, err
		}
	}

	expenses := make([]reconcile.Expense, len(req.Expenses))
	for i, e := range req.Expenses {
		expenses[i] = reconcile.Expense{Motive: e.Motive, Amount: catalog.Money(e.Amount)}
	}

	return reconcile.PeriodInput{
		Date:              date,
		Manager:           req.Manager,
		CarriedStock:      carried,
		Deliveries:        deliveries,
		EndingStock:       stock,
		CashCollected:     catalog.Money(req.CashCollected),
		Expenses:          expenses,
		ManagerCashOnHand: catalog.Money(req.ManagerCashOnHand),
	}, nil
}

// =============================================================================
// HISTORY HANDLERS
// =============================================================================

// ListHistory returns all entries, most recent first.
// GET /api/history
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListEntries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list history", err)
		return
	}
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEntry returns one entry with its full correction log.
// GET /api/history/{id}
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.Store.GetEntry(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), "Entry not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// DeleteEntry removes an entry. Administrative only; the engine never
// deletes history.
// DELETE /api/admin/history/{id}
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteEntry(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "Failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

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

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrEntryNotFound),
		errors.Is(err, history.ErrManagerNotFound),
		errors.Is(err, history.ErrDeliveryNotFound),
		errors.Is(err, catalog.ErrDrinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidDrink),
		errors.Is(err, reconcile.ErrInvalidLedgerInput),
		errors.Is(err, reconcile.ErrInvalidTransition),
		errors.Is(err, valuation.ErrInvalidValuationInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
