package service

import (
	"github.com/mmynk/moneyshare/internal/calculator"
	"github.com/mmynk/moneyshare/internal/models"
	"github.com/mmynk/moneyshare/pkg/api"
)

func toAPIBill(b models.Bill) api.Bill {
	out := api.Bill{
		ID:                 b.ID,
		Mode:               b.Mode.String(),
		Name:               b.Name,
		Address:            b.Address,
		Date:               b.Date,
		Participants:       b.Participants,
		Expenses:           toAPIExpenses(b.Expenses),
		DiscountAmount:     b.DiscountAmount,
		ShipAmount:         b.ShipAmount,
		ActualTotal:        b.ActualTotal,
		IsSubBill:          b.IsSubBill,
		TotalAmount:        b.TotalAmount(),
		TotalAmountAll:     b.TotalAmountAll(),
		TotalAfterDiscount: b.TotalAfterDiscount(),
		DiscountRatio:      b.DiscountRatio(),
	}
	if b.Mode == models.ModeNormal && len(b.Participants) > 0 {
		out.AverageAmount = b.AverageAmount()
	}
	return out
}

func toAPIBills(bills []models.Bill) []api.Bill {
	out := make([]api.Bill, len(bills))
	for i, b := range bills {
		out[i] = toAPIBill(b)
	}
	return out
}

func toAPIExpenses(expenses []models.Expense) []api.Expense {
	out := make([]api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = api.Expense{
			ID:        e.ID,
			Name:      e.Name,
			Amount:    e.Amount,
			Quantity:  e.Quantity,
			PaidBy:    e.PaidBy,
			CreatedAt: e.CreatedAt,
			SubBillID: e.SubBillID,
		}
	}
	return out
}

func fromAPIExpense(e api.Expense) models.Expense {
	return models.Expense{
		ID:        e.ID,
		Name:      e.Name,
		Amount:    e.Amount,
		Quantity:  e.Quantity,
		PaidBy:    e.PaidBy,
		CreatedAt: e.CreatedAt,
		SubBillID: e.SubBillID,
	}
}

func fromAPIExpenses(expenses []api.Expense) []models.Expense {
	out := make([]models.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = fromAPIExpense(e)
	}
	return out
}

// fromAPIBill converts a client-supplied bill. Derived totals on the wire
// are ignored.
func fromAPIBill(b api.Bill) (models.Bill, error) {
	mode, err := models.ParseBillMode(b.Mode)
	if err != nil {
		return models.Bill{}, err
	}
	return models.Bill{
		ID:             b.ID,
		Mode:           mode,
		Name:           b.Name,
		Address:        b.Address,
		Date:           b.Date,
		Participants:   b.Participants,
		Expenses:       fromAPIExpenses(b.Expenses),
		DiscountAmount: b.DiscountAmount,
		ShipAmount:     b.ShipAmount,
		ActualTotal:    b.ActualTotal,
		IsSubBill:      b.IsSubBill,
	}, nil
}

func toAPIBalances(res calculator.Result) []api.Balance {
	out := make([]api.Balance, len(res.Balances))
	for i, b := range res.Balances {
		out[i] = api.Balance{Key: b.Key, Label: b.Label, Amount: b.Amount}
	}
	return out
}

func toAPITransfers(transfers []calculator.Transfer) []api.Transfer {
	if len(transfers) == 0 {
		return nil
	}
	out := make([]api.Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = api.Transfer{From: t.From, To: t.To, Amount: t.Amount}
	}
	return out
}
