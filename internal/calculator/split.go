package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/moneyshare/internal/models"
)

// Balance is the settlement amount for one entity of a bill.
//
// For NORMAL bills the entity is a participant and Amount is the net
// position: positive receives, negative pays. For FOOD bills the entity is
// an expense line and Amount is its per-unit price after adjustment.
type Balance struct {
	// Key identifies the entity: the participant name, or the expense id.
	Key string
	// Label is the display name: the participant name, or the expense name.
	Label  string
	Amount float64
}

// Result holds the balances of one allocation, in roster or expense order.
type Result struct {
	Mode     models.BillMode
	Balances []Balance
}

// ByKey indexes the balances by their stable key.
func (r Result) ByKey() map[string]float64 {
	m := make(map[string]float64, len(r.Balances))
	for _, b := range r.Balances {
		m[b.Key] = b.Amount
	}
	return m
}

// ByLabel indexes the balances by display name. Lines sharing a name
// collapse, the later one winning.
func (r Result) ByLabel() map[string]float64 {
	m := make(map[string]float64, len(r.Balances))
	for _, b := range r.Balances {
		m[b.Label] = b.Amount
	}
	return m
}

// Sum adds up all balance amounts.
func (r Result) Sum() float64 {
	sum := decimal.Zero
	for _, b := range r.Balances {
		sum = sum.Add(decimal.NewFromFloat(b.Amount))
	}
	return sum.InexactFloat64()
}

// Calculate runs the allocation a bill's mode calls for: FOOD bills are
// reallocated against the real payment (falling back to the discount ratio
// when none is recorded), NORMAL bills are split equally.
func Calculate(bill models.Bill) (Result, error) {
	if bill.Mode == models.ModeFood {
		return CalculateBalancesByRealPayment(bill)
	}
	return CalculateBalances(bill)
}

// CalculateBalances computes the equal split of a NORMAL bill or the
// discount-ratio split of a FOOD bill.
func CalculateBalances(bill models.Bill) (Result, error) {
	switch bill.Mode {
	case models.ModeNormal:
		return equalSplit(bill)
	case models.ModeFood:
		return ratioSplit(bill)
	default:
		return Result{}, models.ValidationError{Reason: fmt.Sprintf("unknown bill mode %d", int(bill.Mode))}
	}
}

// CalculateBalancesByRealPayment redistributes a FOOD bill's actual total
// across its lines in proportion to each line's original weight.
//
// person_unit_price = round(actual_total × line_total / total_original / quantity)
func CalculateBalancesByRealPayment(bill models.Bill) (Result, error) {
	if !bill.HasActualTotal() {
		return ratioSplit(bill)
	}
	if len(bill.Expenses) == 0 {
		return Result{}, models.ErrNoExpenses
	}

	totalOriginal := decimal.Zero
	for _, e := range bill.Expenses {
		totalOriginal = totalOriginal.Add(lineTotal(e))
	}
	if totalOriginal.IsZero() {
		return Result{}, models.ErrZeroOriginalTotal
	}

	actual := decimal.NewFromFloat(bill.ActualTotal)
	res := Result{Mode: models.ModeFood, Balances: make([]Balance, 0, len(bill.Expenses))}
	for i, e := range bill.Expenses {
		units := decimal.NewFromInt(int64(e.Units()))
		totalReal := actual.Mul(lineTotal(e)).Div(totalOriginal)
		perUnit := models.Round(totalReal.Div(units))
		res.Balances = append(res.Balances, expenseBalance(i, e, perUnit))
	}
	return res, nil
}

func equalSplit(bill models.Bill) (Result, error) {
	if len(bill.Participants) == 0 {
		return Result{}, models.ErrNoParticipants
	}
	if len(bill.Expenses) == 0 {
		return Result{}, models.ErrNoExpenses
	}

	// Lines without a payer on the roster raise the average but count as
	// nobody's payment.
	paid := make(map[string]decimal.Decimal, len(bill.Participants))
	for _, e := range bill.Expenses {
		if e.PaidBy == "" {
			continue
		}
		paid[e.PaidBy] = paid[e.PaidBy].Add(lineTotal(e))
	}

	avg := bill.AverageAmountDecimal()
	res := Result{Mode: models.ModeNormal, Balances: make([]Balance, 0, len(bill.Participants))}
	for _, p := range bill.Participants {
		res.Balances = append(res.Balances, Balance{
			Key:    p,
			Label:  p,
			Amount: models.Round(paid[p].Sub(avg)).InexactFloat64(),
		})
	}
	return res, nil
}

func ratioSplit(bill models.Bill) (Result, error) {
	if len(bill.Expenses) == 0 {
		return Result{}, models.ErrNoExpenses
	}

	ratio := bill.DiscountRatioDecimal()
	res := Result{Mode: models.ModeFood, Balances: make([]Balance, 0, len(bill.Expenses))}
	for i, e := range bill.Expenses {
		final := models.Round(lineTotal(e).Mul(ratio))
		perUnit := final.Div(decimal.NewFromInt(int64(e.Units())))
		res.Balances = append(res.Balances, expenseBalance(i, e, perUnit))
	}
	return res, nil
}

func expenseBalance(i int, e models.Expense, amount decimal.Decimal) Balance {
	key := e.ID
	if key == "" {
		key = fmt.Sprintf("expense-%d", i)
	}
	return Balance{Key: key, Label: e.Name, Amount: amount.InexactFloat64()}
}

func lineTotal(e models.Expense) decimal.Decimal {
	return decimal.NewFromFloat(e.Amount).Mul(decimal.NewFromInt(int64(e.Units())))
}
