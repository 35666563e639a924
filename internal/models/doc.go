// Package models defines the bill domain shared by the allocation engine,
// the store and the RPC service.
//
// # Bills
//
// A Bill is either NORMAL (an equal split among named participants, each
// expense paid by one of them) or FOOD (an itemized receipt whose prices are
// scaled by discount and shipping, no roster). A FOOD bill may hang off a
// NORMAL bill's expense line as a sub-bill; the line then carries the
// sub-bill's id in Expense.SubBillID and its amount mirrors the sub-bill's
// linked amount.
//
// # Values, not references
//
// Bill values are copied, never shared. Mutations go through the With*
// methods, which return an updated copy and leave the receiver untouched.
// Relationships use ids (SubBillID, Expense.ID) instead of pointers.
//
// # Money
//
// Amounts are whole VND units held in float64 at the edges. Sums and ratios
// are computed with shopspring/decimal and rounded half away from zero.
package models
