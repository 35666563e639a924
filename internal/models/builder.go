package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Option configures a bill built by NewBill.
type Option func(*Bill)

// WithName sets the trimmed bill name.
func WithName(name string) Option {
	return func(b *Bill) { b.Name = strings.TrimSpace(name) }
}

// WithAddress sets the trimmed venue address.
func WithAddress(address string) Option {
	return func(b *Bill) { b.Address = strings.TrimSpace(address) }
}

// WithParticipants appends participants in order.
func WithParticipants(names ...string) Option {
	return func(b *Bill) { b.Participants = append(b.Participants, names...) }
}

// WithExpenses appends expense lines in order.
func WithExpenses(expenses ...Expense) Option {
	return func(b *Bill) { b.Expenses = append(b.Expenses, expenses...) }
}

// AsSubBill marks the bill as a child of another bill's expense line.
func AsSubBill() Option {
	return func(b *Bill) { b.IsSubBill = true }
}

// NewBill builds a validated bill of the given mode. The id is left at
// zero; the store assigns one on create.
func NewBill(mode BillMode, opts ...Option) (Bill, error) {
	b := Bill{Mode: mode, Expenses: []Expense{}}
	for _, opt := range opts {
		opt(&b)
	}
	b = b.Normalize()
	if err := b.Validate(); err != nil {
		return Bill{}, err
	}
	return b, nil
}

// Clone returns a deep copy of the bill.
func (b Bill) Clone() Bill {
	c := b
	c.Participants = slices.Clone(b.Participants)
	c.Expenses = slices.Clone(b.Expenses)
	if c.Expenses == nil {
		c.Expenses = []Expense{}
	}
	return c
}

// Normalize applies the defaults a loaded or freshly built bill needs:
// missing expense ids, quantity 1, no payer on FOOD lines.
func (b Bill) Normalize() Bill {
	c := b.Clone()
	for i := range c.Expenses {
		c.Expenses[i] = c.normalizeExpense(c.Expenses[i])
	}
	return c
}

func (b Bill) normalizeExpense(e Expense) Expense {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Quantity <= 0 {
		e.Quantity = 1
	}
	e.Name = strings.TrimSpace(e.Name)
	e.PaidBy = strings.TrimSpace(e.PaidBy)
	if b.Mode == ModeFood {
		e.PaidBy = ""
	}
	return e
}

// WithParticipant appends a participant to a NORMAL bill's roster.
func (b Bill) WithParticipant(name string) (Bill, error) {
	name = strings.TrimSpace(name)
	if b.Mode != ModeNormal {
		return Bill{}, ValidationError{Reason: "participants are only used by NORMAL bills"}
	}
	if name == "" {
		return Bill{}, ValidationError{Reason: "participant name is required"}
	}
	if b.HasParticipant(name) {
		return Bill{}, ValidationError{Reason: "Name already exists"}
	}
	c := b.Clone()
	c.Participants = append(c.Participants, name)
	return c, nil
}

// WithoutParticipant removes a participant together with every expense
// they paid for.
func (b Bill) WithoutParticipant(name string) (Bill, error) {
	if !b.HasParticipant(name) {
		return Bill{}, NotFoundError{Kind: "participant", ID: name}
	}
	c := b.Clone()
	c.Participants = slices.DeleteFunc(c.Participants, func(p string) bool { return p == name })
	c.Expenses = slices.DeleteFunc(c.Expenses, func(e Expense) bool { return e.PaidBy == name })
	return c, nil
}

// RemovedSubBills returns the sub-bill ids referenced by b but no longer
// referenced by next.
func (b Bill) RemovedSubBills(next Bill) []int64 {
	var removed []int64
	for _, id := range b.SubBillIDs() {
		if !slices.Contains(next.SubBillIDs(), id) {
			removed = append(removed, id)
		}
	}
	return removed
}

// WithExpense appends an expense line.
func (b Bill) WithExpense(e Expense) (Bill, error) {
	e = b.normalizeExpense(e)
	if e.CreatedAt == "" {
		e.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := b.checkExpense(e); err != nil {
		return Bill{}, err
	}
	if _, _, exists := b.ExpenseByID(e.ID); exists {
		return Bill{}, ValidationError{Reason: fmt.Sprintf("expense %s already exists", e.ID)}
	}
	c := b.Clone()
	c.Expenses = append(c.Expenses, e)
	return c, nil
}

// WithoutExpense removes the expense with the given id and returns it, so
// the caller can cascade its sub-bill.
func (b Bill) WithoutExpense(id string) (Bill, Expense, error) {
	removed, i, ok := b.ExpenseByID(id)
	if !ok {
		return Bill{}, Expense{}, NotFoundError{Kind: "expense", ID: id}
	}
	c := b.Clone()
	c.Expenses = slices.Delete(c.Expenses, i, i+1)
	return c, removed, nil
}

// WithExpenseAmount replaces the unit amount of one expense line.
func (b Bill) WithExpenseAmount(id string, amount float64) (Bill, error) {
	if amount < 0 {
		return Bill{}, ValidationError{Reason: "amount must not be negative"}
	}
	_, i, ok := b.ExpenseByID(id)
	if !ok {
		return Bill{}, NotFoundError{Kind: "expense", ID: id}
	}
	c := b.Clone()
	c.Expenses[i].Amount = amount
	return c, nil
}

// Adjustments carries optional changes to the bill-wide amounts. Nil
// fields are left unchanged.
type Adjustments struct {
	Discount    *float64
	Ship        *float64
	ActualTotal *float64
}

// WithAdjustments applies discount, shipping and actual-total changes.
func (b Bill) WithAdjustments(adj Adjustments) (Bill, error) {
	c := b.Clone()
	if adj.Discount != nil {
		if *adj.Discount < 0 {
			return Bill{}, ValidationError{Reason: "discount must not be negative"}
		}
		c.DiscountAmount = *adj.Discount
	}
	if adj.Ship != nil {
		if *adj.Ship < 0 {
			return Bill{}, ValidationError{Reason: "ship amount must not be negative"}
		}
		c.ShipAmount = *adj.Ship
	}
	if adj.ActualTotal != nil {
		if *adj.ActualTotal < 0 {
			return Bill{}, ValidationError{Reason: "actual total must not be negative"}
		}
		c.ActualTotal = *adj.ActualTotal
	}
	return c, nil
}

// WithDecoded replaces the itemized content of a FOOD bill with a decoded
// receipt. The id is kept; name and address are only filled in when
// empty.
func (b Bill) WithDecoded(d DecodedBill) (Bill, error) {
	if b.Mode != ModeFood {
		return Bill{}, ValidationError{Reason: "only FOOD bills can be scanned"}
	}
	c := b.Clone()
	c.Expenses = make([]Expense, 0, len(d.Expenses))
	c.DiscountAmount = d.DiscountAmount
	c.ShipAmount = d.ShipAmount
	c.ActualTotal = d.ActualTotal
	if c.Name == "" {
		c.Name = strings.TrimSpace(d.Name)
	}
	if c.Address == "" {
		c.Address = strings.TrimSpace(d.Address)
	}
	for _, e := range d.Expenses {
		e.SubBillID = 0
		c.Expenses = append(c.Expenses, c.normalizeExpense(e))
	}
	if err := c.Validate(); err != nil {
		return Bill{}, err
	}
	return c, nil
}

func (b Bill) checkExpense(e Expense) error {
	if e.Amount < 0 {
		return ValidationError{Reason: "amount must not be negative"}
	}
	switch b.Mode {
	case ModeNormal:
		if e.PaidBy == "" {
			return ValidationError{Reason: "paidBy is required for NORMAL bills"}
		}
		if !b.HasParticipant(e.PaidBy) {
			return ValidationError{Reason: fmt.Sprintf("paidBy %q must be one of the participants", e.PaidBy)}
		}
	case ModeFood:
	default:
		return ValidationError{Reason: fmt.Sprintf("unknown bill mode %d", int(b.Mode))}
	}
	if b.IsSubBill && e.SubBillID != 0 {
		return ValidationError{Reason: "sub-bills cannot reference further sub-bills"}
	}
	return nil
}

// WithSubBillLine points every expense linking to sub at its current
// linked amount. It reports whether any line changed.
func (b Bill) WithSubBillLine(sub Bill) (Bill, bool) {
	c := b.Clone()
	changed := false
	amount := sub.LinkedAmount()
	for i, e := range c.Expenses {
		if e.SubBillID != sub.ID || sub.ID == 0 {
			continue
		}
		if e.Amount != amount || e.Units() != 1 {
			c.Expenses[i].Amount = amount
			c.Expenses[i].Quantity = 1
			changed = true
		}
	}
	return c, changed
}

// LinkingExpense builds the parent line that summarizes a saved sub-bill.
func LinkingExpense(sub Bill, paidBy string) Expense {
	return Expense{
		Name:      sub.Name,
		Amount:    sub.LinkedAmount(),
		Quantity:  1,
		PaidBy:    paidBy,
		SubBillID: sub.ID,
	}
}

// WithLegacyExpenseIDs fills in ids for stored expenses that predate
// expense ids. The ids derive from the bill id and line position, so
// repeated loads of the same blob agree.
func (b Bill) WithLegacyExpenseIDs() Bill {
	c := b.Clone()
	for i, e := range c.Expenses {
		if e.ID == "" {
			c.Expenses[i].ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("moneyshare:bill/%d/expense/%d", b.ID, i))).String()
		}
	}
	return c
}
