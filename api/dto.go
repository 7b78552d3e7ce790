/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Catalog:
    DrinkDTO (drinks POST bodies use factory.DrinkJSON directly)

  Managers:
    ManagerDTO, SaveManagerRequest

  Working state:
    DeliveryDTO, AddDeliveryRequest, StockStateDTO, SetStockRequest

  Reconciliation:
    ReconcileRequest, LedgerDTO, PreviewResponse

  History:
    EntryDTO, SnapshotDTO, LineDTO, ModificationDTO, ChangeDTO

MONEY AND QUANTITIES:
  Money travels as integer CFA francs (the currency has no subunit).
  Quantities travel as JSON numbers; fractional packages are legal.
  encoding/json rejects NaN and infinities, so the engine never sees a
  non-finite quantity.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/drink.go: DrinkJSON type
*/
package api

import (
	"time"

	"github.com/barstock/inventory-engine/audit"
	"github.com/barstock/inventory-engine/catalog"
	"github.com/barstock/inventory-engine/history"
	"github.com/barstock/inventory-engine/reconcile"
	"github.com/barstock/inventory-engine/valuation"
)

// =============================================================================
// CATALOG TYPES
// =============================================================================

// DrinkDTO represents a drink in API responses.
type DrinkDTO struct {
	Name      string   `json:"name"`
	Price     int64    `json:"price"`
	Sizes     []int    `json:"sizes"`
	Packaging string   `json:"packaging"`
	Special   *SpecialDTO `json:"special,omitempty"`
}

// SpecialDTO mirrors catalog.SpecialPricing.
type SpecialDTO struct {
	Rule       string `json:"rule"`
	GroupSize  int    `json:"group_size"`
	GroupPrice int64  `json:"group_price"`
}

func toDrinkDTO(d catalog.Drink) DrinkDTO {
	dto := DrinkDTO{
		Name:      d.Name,
		Price:     int64(d.UnitPrice),
		Sizes:     d.PackageSizes,
		Packaging: string(d.Packaging),
	}
	if d.Special != nil {
		dto.Special = &SpecialDTO{
			Rule:       string(d.Special.Rule),
			GroupSize:  d.Special.GroupSize,
			GroupPrice: int64(d.Special.GroupPrice),
		}
	}
	return dto
}

// =============================================================================
// MANAGER TYPES
// =============================================================================

// ManagerDTO represents a manager in API responses.
type ManagerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	StartDate string `json:"start_date,omitempty"`
}

// SaveManagerRequest creates or updates a manager. ID is assigned by
// the server when empty.
type SaveManagerRequest struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	StartDate string `json:"start_date,omitempty"`
}

func toManagerDTO(m history.Manager) ManagerDTO {
	dto := ManagerDTO{ID: m.ID, Name: m.Name, Phone: m.Phone}
	if !m.StartDate.IsZero() {
		dto.StartDate = m.StartDate.Format("2006-01-02")
	}
	return dto
}

// =============================================================================
// WORKING STATE TYPES
// =============================================================================

// LineDTO is one valued snapshot line.
type LineDTO struct {
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	PackageSize int     `json:"package_size"`
	Value       int64   `json:"value"`
	Unknown     bool    `json:"unknown,omitempty"`
}

// SnapshotDTO is a valued stock or delivery snapshot.
type SnapshotDTO struct {
	Date  string    `json:"date"`
	Lines []LineDTO `json:"lines"`
	Total int64     `json:"total"`
}

// DeliveryDTO is a recorded delivery with its valuation.
type DeliveryDTO struct {
	ID string `json:"id"`
	SnapshotDTO
}

// DeliveryEntryRequest is one (drink, quantity, size) triple.
type DeliveryEntryRequest struct {
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	PackageSize int     `json:"package_size,omitempty"` // 0 means the drink's default
}

// AddDeliveryRequest records a delivery received on a date. ID is
// assigned by the server when empty; corrections resend deliveries
// with their original IDs.
type AddDeliveryRequest struct {
	ID      string                 `json:"id,omitempty"`
	Date    string                 `json:"date"` // YYYY-MM-DD
	Entries []DeliveryEntryRequest `json:"entries"`
}

// StockStateDTO is the current counted quantities plus their valuation.
type StockStateDTO struct {
	Quantities map[string]float64 `json:"quantities"`
	Snapshot   SnapshotDTO        `json:"snapshot"`
}

// SetStockRequest replaces the counted quantities wholesale.
type SetStockRequest struct {
	Quantities map[string]float64 `json:"quantities"`
}

func toSnapshotDTO(s valuation.Snapshot) SnapshotDTO {
	dto := SnapshotDTO{
		Date:  s.Date.Format("2006-01-02"),
		Lines: make([]LineDTO, len(s.Lines)),
		Total: int64(s.Total),
	}
	for i, l := range s.Lines {
		dto.Lines[i] = LineDTO{
			Name:        l.Name,
			Quantity:    l.Quantity.InexactFloat64(),
			PackageSize: l.PackageSize,
			Value:       int64(l.Value),
			Unknown:     l.Unknown,
		}
	}
	return dto
}

func toDeliveryDTO(d valuation.Delivery) DeliveryDTO {
	return DeliveryDTO{ID: d.ID, SnapshotDTO: toSnapshotDTO(d.Snapshot)}
}

// =============================================================================
// RECONCILIATION TYPES
// =============================================================================

// ExpenseDTO is one period expense.
type ExpenseDTO struct {
	Motive string `json:"motive"`
	Amount int64  `json:"amount"`
}

// ReconcileRequest carries the operator-entered side of a period.
// Stock quantities and deliveries default to the stored working state
// when omitted; corrections send revised values explicitly.
type ReconcileRequest struct {
	Date              string             `json:"date"` // YYYY-MM-DD
	Manager           string             `json:"manager"`
	CashCollected     int64              `json:"cash_collected"`
	ManagerCashOnHand int64              `json:"manager_cash_on_hand"`
	Expenses          []ExpenseDTO       `json:"expenses,omitempty"`
	StockQuantities   map[string]float64 `json:"stock_quantities,omitempty"`
	Deliveries        []AddDeliveryRequest `json:"deliveries,omitempty"` // corrections only
	CarriedStock      *int64             `json:"carried_stock,omitempty"` // override; default = latest entry
}

// LedgerDTO is the fully derived reconciliation chain.
type LedgerDTO struct {
	Date              string `json:"date"`
	Manager           string `json:"manager"`
	CarriedStock      int64  `json:"carried_stock"`
	DeliveryTotal     int64  `json:"delivery_total"`
	GrossStock        int64  `json:"gross_stock"`
	EndingStockTotal  int64  `json:"ending_stock_total"`
	TheoreticalSales  int64  `json:"theoretical_sales"`
	CashCollected     int64  `json:"cash_collected"`
	CashRemainder     int64  `json:"cash_remainder"`
	TotalExpenses     int64  `json:"total_expenses"`
	FinalRemainder    int64  `json:"final_remainder"`
	ManagerCashOnHand int64  `json:"manager_cash_on_hand"`
	FinalResult       int64  `json:"final_result"`
	Outcome           string `json:"outcome"`
}

// PreviewResponse is the computed chain plus the snapshots it valued,
// so the client can render the breakdown before saving.
type PreviewResponse struct {
	Ledger     LedgerDTO     `json:"ledger"`
	Stock      SnapshotDTO   `json:"stock"`
	Deliveries []DeliveryDTO `json:"deliveries"`
}

func toLedgerDTO(l reconcile.Ledger) LedgerDTO {
	return LedgerDTO{
		Date:              l.Date.Format("2006-01-02"),
		Manager:           l.Manager,
		CarriedStock:      int64(l.CarriedStock),
		DeliveryTotal:     int64(l.DeliveryTotal),
		GrossStock:        int64(l.GrossStock),
		EndingStockTotal:  int64(l.EndingStockTotal),
		TheoreticalSales:  int64(l.TheoreticalSales),
		CashCollected:     int64(l.CashCollected),
		CashRemainder:     int64(l.CashRemainder),
		TotalExpenses:     int64(l.TotalExpenses),
		FinalRemainder:    int64(l.FinalRemainder),
		ManagerCashOnHand: int64(l.ManagerCashOnHand),
		FinalResult:       int64(l.FinalResult),
		Outcome:           string(l.Outcome()),
	}
}

// =============================================================================
// HISTORY TYPES
// =============================================================================

// ChangeDTO is one recorded difference in a correction.
type ChangeDTO struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ModificationDTO is one correction pass over an entry.
type ModificationDTO struct {
	Timestamp string      `json:"timestamp"`
	Changes   []ChangeDTO `json:"changes"`
}

// EntryDTO is a persisted reconciliation with its audit trail.
type EntryDTO struct {
	ID              string            `json:"id"`
	Ledger          LedgerDTO         `json:"ledger"`
	Stock           SnapshotDTO       `json:"stock"`
	Deliveries      []DeliveryDTO     `json:"deliveries"`
	Expenses        []ExpenseDTO      `json:"expenses"`
	SavedAt         string            `json:"saved_at"`
	LastCorrectedAt string            `json:"last_corrected_at,omitempty"`
	CorrectionLog   []ModificationDTO `json:"correction_log,omitempty"`
}

// CorrectionResponse is the updated entry plus the changes this pass
// recorded. Changes is empty when the correction was a no-op.
type CorrectionResponse struct {
	Entry   EntryDTO    `json:"entry"`
	Changes []ChangeDTO `json:"changes"`
	Skipped bool        `json:"skipped"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toChangeDTOs(changes []audit.ChangeRecord) []ChangeDTO {
	dtos := make([]ChangeDTO, len(changes))
	for i, c := range changes {
		dtos[i] = ChangeDTO{Kind: string(c.Kind), Label: c.Label, Old: c.Old, New: c.New}
	}
	return dtos
}

func toEntryDTO(e history.Entry) EntryDTO {
	dto := EntryDTO{
		ID:         e.ID,
		Ledger:     toLedgerDTO(e.Ledger),
		Stock:      toSnapshotDTO(e.StockDetails),
		Deliveries: make([]DeliveryDTO, len(e.DeliveryDetails)),
		Expenses:   make([]ExpenseDTO, len(e.ExpenseDetails)),
		SavedAt:    e.SavedAt.UTC().Format(time.RFC3339),
	}
	for i, d := range e.DeliveryDetails {
		dto.Deliveries[i] = toDeliveryDTO(d)
	}
	for i, x := range e.ExpenseDetails {
		dto.Expenses[i] = ExpenseDTO{Motive: x.Motive, Amount: int64(x.Amount)}
	}
	if !e.LastCorrectedAt.IsZero() {
		dto.LastCorrectedAt = e.LastCorrectedAt.UTC().Format(time.RFC3339)
	}
	for _, m := range e.CorrectionLog {
		dto.CorrectionLog = append(dto.CorrectionLog, ModificationDTO{
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
			Changes:   toChangeDTOs(m.Changes),
		})
	}
	return dto
}
