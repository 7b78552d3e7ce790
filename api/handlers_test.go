/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Catalog CRUD over HTTP
- Delivery recording and valuation
- Reconciliation preview / save / correction round trips
- Error status mapping
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/barstock/inventory-engine/catalog"
	"github.com/barstock/inventory-engine/history/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	srv := httptest.NewServer(NewRouter(NewHandler(mem)))
	t.Cleanup(srv.Close)
	return srv, mem
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func seedCatalog(t *testing.T, mem *store.Memory) {
	t.Helper()
	ctx := context.Background()
	drinks := []catalog.Drink{
		{Name: "Castel", UnitPrice: 500, Packaging: catalog.PackagingCase, PackageSizes: []int{12, 20}},
		{Name: "Guinness Pt", UnitPrice: 1000, Packaging: catalog.PackagingCase, PackageSizes: []int{12}},
	}
	for _, d := range drinks {
		if err := mem.SaveDrink(ctx, d); err != nil {
			t.Fatalf("Failed to seed drink: %v", err)
		}
	}
}

// =============================================================================
// CATALOG
// =============================================================================

func TestSaveDrink_FlexibleJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	// WHEN: posting the historical export form (scalar sizes, bool special)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/drinks", map[string]any{
		"name": "La Beninoise Pt", "price": 350, "sizes": 24, "packaging": "case", "special": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	// THEN: the drink is stored with the lot rule expanded
	dto := decode[DrinkDTO](t, resp)
	if dto.Special == nil || dto.Special.Rule != "lot" || dto.Special.GroupPrice != 1000 {
		t.Errorf("Unexpected special pricing: %+v", dto.Special)
	}

	list := decode[[]DrinkDTO](t, doJSON(t, http.MethodGet, srv.URL+"/api/drinks", nil))
	if len(list) != 1 {
		t.Fatalf("Expected 1 drink, got %d", len(list))
	}
}

func TestSaveDrink_InvalidDefinition(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/drinks", map[string]any{
		"name": "X", "price": 500, "sizes": 12, "packaging": "keg",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteDrink_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/drinks/Ghost", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

// =============================================================================
// MANAGERS
// =============================================================================

func TestManagers_CRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decode[ManagerDTO](t, doJSON(t, http.MethodPost, srv.URL+"/api/managers", SaveManagerRequest{
		Name: "Koffi", Phone: "+229 90 00 00 00", StartDate: "2024-06-01",
	}))
	if created.ID == "" {
		t.Fatal("Expected a server-assigned id")
	}

	list := decode[[]ManagerDTO](t, doJSON(t, http.MethodGet, srv.URL+"/api/managers", nil))
	if len(list) != 1 || list[0].Name != "Koffi" {
		t.Fatalf("Unexpected manager list: %+v", list)
	}

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/managers/"+created.ID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", resp.StatusCode)
	}
}

func TestSaveManager_RequiresName(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/managers", SaveManagerRequest{Phone: "123"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

// =============================================================================
// WORKING STATE
// =============================================================================

func TestAddDelivery_ValuesEntries(t *testing.T) {
	srv, mem := newTestServer(t)
	seedCatalog(t, mem)

	// WHEN: recording 3 cases of 20 at 500/unit
	dto := decode[DeliveryDTO](t, doJSON(t, http.MethodPost, srv.URL+"/api/deliveries", AddDeliveryRequest{
		Date:    "2025-03-08",
		Entries: []DeliveryEntryRequest{{Name: "Castel", Quantity: 3, PackageSize: 20}},
	}))

	// THEN: the delivery is valued at 3 x 20 x 500
	if dto.Total != 30000 {
		t.Errorf("Expected total 30000, got %d", dto.Total)
	}
	if dto.ID == "" {
		t.Error("Expected a server-assigned id")
	}

	list := decode[[]DeliveryDTO](t, doJSON(t, http.MethodGet, srv.URL+"/api/deliveries", nil))
	if len(list) != 1 {
		t.Fatalf("Expected 1 pending delivery, got %d", len(list))
	}
}

func TestAddDelivery_RejectsUnlistedSize(t *testing.T) {
	srv, mem := newTestServer(t)
	seedCatalog(t, mem)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/deliveries", AddDeliveryRequest{
		Date:    "2025-03-08",
		Entries: []DeliveryEntryRequest{{Name: "Castel", Quantity: 3, PackageSize: 15}},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestStock_ReplaceAndValue(t *testing.T) {
	srv, mem := newTestServer(t)
	seedCatalog(t, mem)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/stock", SetStockRequest{
		Quantities: map[string]float64{"Castel": 3, "Guinness Pt": 1.5},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", resp.StatusCode)
	}

	state := decode[StockStateDTO](t, doJSON(t, http.MethodGet, srv.URL+"/api/stock", nil))
	// Castel 3 x 12 x 500 + Guinness 1.5 x 12 x 1000
	if state.Snapshot.Total != 18000+18000 {
		t.Errorf("Expected total 36000, got %d", state.Snapshot.Total)
	}
}

func TestSetStock_RejectsNegative(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/stock", SetStockRequest{
		Quantities: map[string]float64{"Castel": -1},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func reconcileBody() ReconcileRequest {
	return ReconcileRequest{
		Date:              "2025-03-10",
		Manager:           "Koffi",
		CashCollected:     20000,
		ManagerCashOnHand: 1500,
		Expenses:          []ExpenseDTO{{Motive: "Transport", Amount: 500}},
	}
}

func setupPeriod(t *testing.T, srv *httptest.Server, mem *store.Memory) {
	t.Helper()
	seedCatalog(t, mem)
	doJSON(t, http.MethodPost, srv.URL+"/api/deliveries", AddDeliveryRequest{
		Date:    "2025-03-08",
		Entries: []DeliveryEntryRequest{{Name: "Castel", Quantity: 3, PackageSize: 20}},
	}).Body.Close()
	doJSON(t, http.MethodPut, srv.URL+"/api/stock", SetStockRequest{
		Quantities: map[string]float64{"Castel": 3},
	}).Body.Close()
}

func TestPreview_DerivesChainWithoutPersisting(t *testing.T) {
	srv, mem := newTestServer(t)
	setupPeriod(t, srv, mem)

	preview := decode[PreviewResponse](t, doJSON(t, http.MethodPost, srv.URL+"/api/reconcile/preview", reconcileBody()))

	// carried 0 + deliveries 30000 - ending 18000 = sales 12000
	if preview.Ledger.DeliveryTotal != 30000 {
		t.Errorf("Expected delivery total 30000, got %d", preview.Ledger.DeliveryTotal)
	}
	if preview.Ledger.TheoreticalSales != 12000 {
		t.Errorf("Expected theoretical sales 12000, got %d", preview.Ledger.TheoreticalSales)
	}

	// Nothing was written
	entries := decode[[]EntryDTO](t, doJSON(t, http.MethodGet, srv.URL+"/api/history", nil))
	if len(entries) != 0 {
		t.Errorf("Preview must not persist, found %d entries", len(entries))
	}
	deliveries := decode[[]DeliveryDTO](t, doJSON(t, http.MethodGet, srv.URL+"/api/deliveries", nil))
	if len(deliveries) != 1 {
		t.Errorf("Preview must not clear working state")
	}
}

func TestSave_CommitsAndClearsWorkingState(t *testing.T) {
	srv, mem := newTestServer(t)
	setupPeriod(t, srv, mem)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/reconcile/save", reconcileBody())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	entry := decode[EntryDTO](t, resp)
	if entry.ID == "" {
		t.Fatal("Expected an entry id")
	}
	// sales 12000 - cash 20000 = -8000; -8000 - 500 = -8500; 1500 - (-8500) = 10000
	if entry.Ledger.FinalResult != 10000 {
		t.Errorf("Expected final result 10000, got %d", entry.Ledger.FinalResult)
	}

	deliveries := decode[[]DeliveryDTO](t, doJSON(t, http.MethodGet, srv.URL+"/api/deliveries", nil))
	if len(deliveries) != 0 {
		t.Errorf("Save must clear pending deliveries, found %d", len(deliveries))
	}
	state := decode[StockStateDTO](t, doJSON(t, http.MethodGet, srv.URL+"/api/stock", nil))
	if len(state.Quantities) != 0 {
		t.Errorf("Save must clear stock counts, found %v", state.Quantities)
	}

	// The next period carries the ending stock forward.
	preview := decode[PreviewResponse](t, doJSON(t, http.MethodPost, srv.URL+"/api/reconcile/preview", ReconcileRequest{
		Date: "2025-03-11", Manager: "Koffi",
	}))
	if preview.Ledger.CarriedStock != entry.Ledger.EndingStockTotal {
		t.Errorf("Expected carried stock %d, got %d", entry.Ledger.EndingStockTotal, preview.Ledger.CarriedStock)
	}
}

func TestSave_InvalidInput(t *testing.T) {
	srv, mem := newTestServer(t)
	seedCatalog(t, mem)

	body := reconcileBody()
	body.Manager = ""
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/reconcile/save", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

func TestCorrection_RecordsChanges(t *testing.T) {
	srv, mem := newTestServer(t)
	setupPeriod(t, srv, mem)

	entry := decode[EntryDTO](t, doJSON(t, http.MethodPost, srv.URL+"/api/reconcile/save", reconcileBody()))

	// WHEN: correcting only the collected cash
	body := reconcileBody()
	body.CashCollected = 21000
	correction := decode[CorrectionResponse](t,
		doJSON(t, http.MethodPost, srv.URL+"/api/history/"+entry.ID+"/corrections", body))

	// THEN: one field change is recorded on the same entry
	if correction.Skipped {
		t.Fatal("Expected the correction to apply")
	}
	if len(correction.Changes) != 1 || correction.Changes[0].Label != "cashCollected" {
		t.Fatalf("Unexpected changes: %+v", correction.Changes)
	}
	if len(correction.Entry.CorrectionLog) != 1 {
		t.Errorf("Expected 1 correction log entry, got %d", len(correction.Entry.CorrectionLog))
	}
	if correction.Entry.ID != entry.ID {
		t.Error("Corrections must not create a new entry")
	}
}

func TestCorrection_NoEffectiveChange(t *testing.T) {
	srv, mem := newTestServer(t)
	setupPeriod(t, srv, mem)

	entry := decode[EntryDTO](t, doJSON(t, http.MethodPost, srv.URL+"/api/reconcile/save", reconcileBody()))

	// Identical resubmission: skipped, no log growth.
	correction := decode[CorrectionResponse](t,
		doJSON(t, http.MethodPost, srv.URL+"/api/history/"+entry.ID+"/corrections", reconcileBody()))
	if !correction.Skipped {
		t.Fatal("Expected the correction to be skipped")
	}
	if len(correction.Entry.CorrectionLog) != 0 {
		t.Errorf("Skipped corrections must not append to the log")
	}
}

func TestCorrection_UnknownEntry(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/history/ghost/corrections", reconcileBody())
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_GetAndAdminDelete(t *testing.T) {
	srv, mem := newTestServer(t)
	setupPeriod(t, srv, mem)

	entry := decode[EntryDTO](t, doJSON(t, http.MethodPost, srv.URL+"/api/reconcile/save", reconcileBody()))

	got := decode[EntryDTO](t, doJSON(t, http.MethodGet, srv.URL+"/api/history/"+entry.ID, nil))
	if got.Ledger.Manager != "Koffi" {
		t.Errorf("Unexpected entry: %+v", got.Ledger)
	}

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/admin/history/"+entry.ID, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/history/"+entry.ID, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after deletion, got %d", resp.StatusCode)
	}
}
