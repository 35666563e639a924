package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BillMode selects the allocation algorithm applied to a bill.
type BillMode int

const (
	// ModeNormal splits the total equally among named participants.
	ModeNormal BillMode = 1
	// ModeFood allocates itemized prices, no participant roster needed.
	ModeFood BillMode = 2
)

// String returns the canonical upper-case name of the mode.
func (m BillMode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeFood:
		return "FOOD"
	default:
		return fmt.Sprintf("BillMode(%d)", int(m))
	}
}

// Label returns the human readable name used in summaries and reports.
func (m BillMode) Label() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeFood:
		return "Food"
	default:
		return "Unknown"
	}
}

// Valid reports whether m is one of the known modes.
func (m BillMode) Valid() bool {
	return m == ModeNormal || m == ModeFood
}

// ParseBillMode accepts "NORMAL"/"FOOD" (any case) or "1"/"2".
func ParseBillMode(s string) (BillMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NORMAL", "1":
		return ModeNormal, nil
	case "FOOD", "2":
		return ModeFood, nil
	default:
		return 0, ValidationError{Reason: fmt.Sprintf("unknown bill mode %q", s)}
	}
}

// MarshalJSON keeps the numeric discriminant of the stored blob.
func (m BillMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(m))
}

// UnmarshalJSON accepts both the numeric and the named form.
func (m *BillMode) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*m = BillMode(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("bill mode must be a number or string: %w", err)
	}
	parsed, err := ParseBillMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Expense is one line item on a bill.
type Expense struct {
	// ID is a stable identifier for the line (UUID format).
	// Balances of FOOD bills are keyed by it.
	ID string `json:"id,omitempty"`

	// Name is the free-text description (dish, service, ...).
	Name string `json:"name"`

	// Amount is the unit price before any discount.
	Amount float64 `json:"amount" validate:"gte=0"`

	// Quantity defaults to 1 when left at zero.
	Quantity int `json:"quantity,omitempty" validate:"gte=0"`

	// PaidBy names the participant who paid. Ignored in FOOD mode.
	PaidBy string `json:"paidBy,omitempty"`

	// CreatedAt is an RFC3339 timestamp, descriptive only.
	CreatedAt string `json:"createdAt,omitempty"`

	// SubBillID references a nested sub-bill whose computed total this
	// line summarizes. Zero means no sub-bill.
	SubBillID int64 `json:"subBillId,omitempty"`
}

// Units returns the quantity, treating zero as 1.
func (e Expense) Units() int {
	if e.Quantity <= 0 {
		return 1
	}
	return e.Quantity
}

// LineTotal returns amount × quantity.
func (e Expense) LineTotal() float64 {
	return e.lineTotal().InexactFloat64()
}

func (e Expense) lineTotal() decimal.Decimal {
	return decimal.NewFromFloat(e.Amount).Mul(decimal.NewFromInt(int64(e.Units())))
}

// Bill is one shareable financial record, either a parent (NORMAL or FOOD)
// bill or a FOOD sub-bill nested in a NORMAL bill's expense line.
//
// Bill values are treated as immutable; the With* methods return updated
// copies.
type Bill struct {
	ID           int64     `json:"id"`
	Mode         BillMode  `json:"type" validate:"required"`
	Participants []string  `json:"participants,omitempty" validate:"dive,required"`
	Expenses     []Expense `json:"expenses" validate:"dive"`

	DiscountAmount float64 `json:"discountAmount,omitempty" validate:"gte=0"`
	ShipAmount     float64 `json:"shipAmount,omitempty" validate:"gte=0"`

	// ActualTotal is what was really charged (FOOD only). Zero means
	// absent.
	ActualTotal float64 `json:"actualTotal,omitempty" validate:"gte=0"`

	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Date    string `json:"date,omitempty"`

	IsSubBill bool `json:"isSubBill,omitempty"`
}

// TotalAmount is the sum of amount × quantity over all expenses.
func (b Bill) TotalAmount() float64 {
	return b.totalAmount().InexactFloat64()
}

// TotalAmountAll is the pre-discount total including shipping.
func (b Bill) TotalAmountAll() float64 {
	return b.totalAmount().Add(decimal.NewFromFloat(b.ShipAmount)).InexactFloat64()
}

// TotalAfterDiscount is max(0, total + ship - discount).
func (b Bill) TotalAfterDiscount() float64 {
	return b.totalAfterDiscount().InexactFloat64()
}

// DiscountRatio is the fraction of the original total retained after
// discount and shipping, or 1 when the original total is zero.
func (b Bill) DiscountRatio() float64 {
	return b.DiscountRatioDecimal().InexactFloat64()
}

// DiscountRatioDecimal is DiscountRatio without the float conversion.
func (b Bill) DiscountRatioDecimal() decimal.Decimal {
	total := b.totalAmount()
	if !total.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return b.totalAfterDiscount().Div(total)
}

// AverageAmount is the rounded equal share per participant, 0 without
// participants.
func (b Bill) AverageAmount() float64 {
	return b.AverageAmountDecimal().InexactFloat64()
}

// AverageAmountDecimal is AverageAmount without the float conversion.
func (b Bill) AverageAmountDecimal() decimal.Decimal {
	if len(b.Participants) == 0 {
		return decimal.Zero
	}
	return Round(b.totalAmount().Div(decimal.NewFromInt(int64(len(b.Participants)))))
}

// HasActualTotal reports whether a usable real paid total is set.
func (b Bill) HasActualTotal() bool {
	return b.ActualTotal > 0
}

// LinkedAmount is the amount a parent bill records for this sub-bill:
// the actual total when present, otherwise the total after discount.
func (b Bill) LinkedAmount() float64 {
	if b.HasActualTotal() {
		return b.ActualTotal
	}
	return b.TotalAfterDiscount()
}

// SubBillIDs returns the sub-bill ids referenced by the expenses, in
// expense order and without duplicates.
func (b Bill) SubBillIDs() []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, e := range b.Expenses {
		if e.SubBillID == 0 || seen[e.SubBillID] {
			continue
		}
		seen[e.SubBillID] = true
		ids = append(ids, e.SubBillID)
	}
	return ids
}

// HasParticipant reports whether name is in the roster.
func (b Bill) HasParticipant(name string) bool {
	for _, p := range b.Participants {
		if p == name {
			return true
		}
	}
	return false
}

// ExpenseByID returns the expense with the given id.
func (b Bill) ExpenseByID(id string) (Expense, int, bool) {
	for i, e := range b.Expenses {
		if e.ID == id {
			return e, i, true
		}
	}
	return Expense{}, -1, false
}

func (b Bill) totalAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range b.Expenses {
		sum = sum.Add(e.lineTotal())
	}
	return sum
}

func (b Bill) totalAfterDiscount() decimal.Decimal {
	total := b.totalAmount().
		Add(decimal.NewFromFloat(b.ShipAmount)).
		Sub(decimal.NewFromFloat(b.DiscountAmount))
	return decimal.Max(decimal.Zero, total)
}

// Round rounds to the nearest whole currency unit, halves away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// DecodedBill is the parsed result of a bill image. It never carries a
// total: totals are always derived from the expenses.
type DecodedBill struct {
	Expenses       []Expense
	DiscountAmount float64
	ShipAmount     float64
	ActualTotal    float64

	// Name and Address are read off the receipt when present.
	Name    string
	Address string
}
