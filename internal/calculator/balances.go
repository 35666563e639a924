package calculator

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/moneyshare/internal/models"
)

// Transfer is one payment that settles part of a NORMAL bill.
type Transfer struct {
	From   string // Participant who owes
	To     string // Participant who is owed
	Amount float64
}

type position struct {
	name   string
	amount decimal.Decimal
}

// SuggestTransfers turns the net balances of a NORMAL allocation into a
// short list of payments.
//
// Algorithm:
// - Split participants into debtors (negative) and creditors (positive)
// - Sort both by size, largest first, roster order breaking ties
// - Greedily match the head debtor with the head creditor for the smaller
//   of the two amounts, advancing whichever side is settled
//
// Rounding leftovers (the balances of a NORMAL bill sum to zero only up to
// rounding) stay unassigned.
func SuggestTransfers(res Result) ([]Transfer, error) {
	if res.Mode != models.ModeNormal {
		return nil, models.ValidationError{Reason: "transfers are only defined for NORMAL bills"}
	}

	var debtors, creditors []position
	for _, b := range res.Balances {
		amount := decimal.NewFromFloat(b.Amount)
		switch amount.Sign() {
		case -1:
			debtors = append(debtors, position{name: b.Key, amount: amount.Neg()})
		case 1:
			creditors = append(creditors, position{name: b.Key, amount: amount})
		}
	}
	bySize := func(a, b position) int { return cmp.Compare(b.amount.InexactFloat64(), a.amount.InexactFloat64()) }
	slices.SortStableFunc(debtors, bySize)
	slices.SortStableFunc(creditors, bySize)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]
		amount := decimal.Min(d.amount, c.amount)
		if amount.IsPositive() {
			transfers = append(transfers, Transfer{From: d.name, To: c.name, Amount: amount.InexactFloat64()})
		}
		d.amount = d.amount.Sub(amount)
		c.amount = c.amount.Sub(amount)
		if !d.amount.IsPositive() {
			i++
		}
		if !c.amount.IsPositive() {
			j++
		}
	}
	return transfers, nil
}
