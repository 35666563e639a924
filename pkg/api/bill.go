// Package api holds the wire messages of the moneyshare.v1 BillService.
//
// Messages travel as JSON. Ids are int64 values that do not fit a
// JavaScript number, so they are encoded as strings.
package api

// Bill modes as they appear on the wire.
const (
	ModeNormal = "NORMAL"
	ModeFood   = "FOOD"
)

type Expense struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	Quantity  int     `json:"quantity,omitempty" validate:"gte=0"`
	PaidBy    string  `json:"paidBy,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
	SubBillID int64   `json:"subBillId,omitempty,string"`
}

type Bill struct {
	ID             int64     `json:"id,omitempty,string"`
	Mode           string    `json:"mode" validate:"required"`
	Name           string    `json:"name,omitempty"`
	Address        string    `json:"address,omitempty"`
	Date           string    `json:"date,omitempty"`
	Participants   []string  `json:"participants,omitempty"`
	Expenses       []Expense `json:"expenses" validate:"dive"`
	DiscountAmount float64   `json:"discountAmount,omitempty" validate:"gte=0"`
	ShipAmount     float64   `json:"shipAmount,omitempty" validate:"gte=0"`
	ActualTotal    float64   `json:"actualTotal,omitempty" validate:"gte=0"`
	IsSubBill      bool      `json:"isSubBill,omitempty"`

	// Derived totals, filled in on responses and ignored on requests.
	TotalAmount        float64 `json:"totalAmount"`
	TotalAmountAll     float64 `json:"totalAmountAll"`
	TotalAfterDiscount float64 `json:"totalAfterDiscount"`
	DiscountRatio      float64 `json:"discountRatio"`
	AverageAmount      float64 `json:"averageAmount,omitempty"`
}

type Balance struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

type Transfer struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// BillResponse is returned by every call that changes one bill.
type BillResponse struct {
	Bill Bill `json:"bill"`
}

type CreateBillRequest struct {
	Mode           string    `json:"mode" validate:"required"`
	Name           string    `json:"name,omitempty"`
	Address        string    `json:"address,omitempty"`
	Participants   []string  `json:"participants,omitempty"`
	Expenses       []Expense `json:"expenses,omitempty" validate:"dive"`
	DiscountAmount float64   `json:"discountAmount,omitempty" validate:"gte=0"`
	ShipAmount     float64   `json:"shipAmount,omitempty" validate:"gte=0"`
	ActualTotal    float64   `json:"actualTotal,omitempty" validate:"gte=0"`
}

type GetBillRequest struct {
	BillID int64 `json:"billId,string" validate:"required"`
}

type ListBillsRequest struct {
	IncludeSubBills bool `json:"includeSubBills,omitempty"`
}

type ListBillsResponse struct {
	Bills []Bill `json:"bills"`
}

// SaveBillRequest upserts a whole bill. A zero id creates a new one.
type SaveBillRequest struct {
	Bill   Bill `json:"bill"`
	Notify bool `json:"notify,omitempty"`
}

type SaveBillResponse struct {
	Bill    Bill `json:"bill"`
	Created bool `json:"created"`
}

type DeleteBillRequest struct {
	BillID int64 `json:"billId,string" validate:"required"`
}

type DeleteBillResponse struct{}

type AddParticipantRequest struct {
	BillID int64  `json:"billId,string" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

type RemoveParticipantRequest struct {
	BillID int64  `json:"billId,string" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

type AddExpenseRequest struct {
	BillID  int64   `json:"billId,string" validate:"required"`
	Expense Expense `json:"expense"`
}

type RemoveExpenseRequest struct {
	BillID    int64  `json:"billId,string" validate:"required"`
	ExpenseID string `json:"expenseId" validate:"required"`
}

type RemoveExpenseResponse struct {
	Bill Bill `json:"bill"`
	// RemovedSubBillID is set when the expense linked a sub-bill that was
	// deleted along with it.
	RemovedSubBillID int64 `json:"removedSubBillId,omitempty,string"`
}

// UpdateAdjustmentsRequest changes bill-wide amounts. Omitted fields keep
// their value.
type UpdateAdjustmentsRequest struct {
	BillID         int64    `json:"billId,string" validate:"required"`
	DiscountAmount *float64 `json:"discountAmount,omitempty" validate:"omitempty,gte=0"`
	ShipAmount     *float64 `json:"shipAmount,omitempty" validate:"omitempty,gte=0"`
	ActualTotal    *float64 `json:"actualTotal,omitempty" validate:"omitempty,gte=0"`
}

// ScanBillRequest decodes a receipt image into a FOOD bill. With a bill
// id the stored bill is used as the base; the result is a preview and is
// not saved.
type ScanBillRequest struct {
	BillID int64  `json:"billId,omitempty,string"`
	Image  string `json:"image" validate:"required"`
}

type CreateSubBillRequest struct {
	ParentID       int64     `json:"parentId,string" validate:"required"`
	Name           string    `json:"name,omitempty"`
	PaidBy         string    `json:"paidBy" validate:"required"`
	Expenses       []Expense `json:"expenses,omitempty" validate:"dive"`
	Image          string    `json:"image,omitempty"`
	DiscountAmount float64   `json:"discountAmount,omitempty" validate:"gte=0"`
	ShipAmount     float64   `json:"shipAmount,omitempty" validate:"gte=0"`
	ActualTotal    float64   `json:"actualTotal,omitempty" validate:"gte=0"`
}

type CreateSubBillResponse struct {
	Parent  Bill `json:"parent"`
	SubBill Bill `json:"subBill"`
}

// CalculateBalancesRequest computes balances for a stored bill, or for an
// unsaved draft when Draft is set.
type CalculateBalancesRequest struct {
	BillID int64 `json:"billId,omitempty,string"`
	Draft  *Bill `json:"draft,omitempty"`
}

type CalculateBalancesResponse struct {
	Mode     string    `json:"mode"`
	Balances []Balance `json:"balances"`
	// ByName is the name-keyed view older clients expect. Lines sharing a
	// name collapse into one entry.
	ByName    map[string]float64 `json:"byName"`
	Transfers []Transfer         `json:"transfers,omitempty"`
	RealPaid  bool               `json:"realPaid"`
}

type ShareSummaryRequest struct {
	BillID int64 `json:"billId,string" validate:"required"`
}

type ShareSummaryResponse struct {
	Text string `json:"text"`
}

type ExportReportRequest struct {
	BillID int64 `json:"billId,string" validate:"required"`
}

type ExportReportResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}
