package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/mmynk/moneyshare/internal/models"
)

func TestCalculateBalances(t *testing.T) {
	tests := []struct {
		name         string
		bill         models.Bill
		wantErr      error
		validateFunc func(t *testing.T, res Result)
	}{
		{
			name: "two-person equal split",
			bill: models.Bill{
				Mode:         models.ModeNormal,
				Participants: []string{"A", "B"},
				Expenses:     []models.Expense{{Name: "Taxi", Amount: 100, Quantity: 1, PaidBy: "A"}},
			},
			validateFunc: func(t *testing.T, res Result) {
				got := res.ByKey()
				if got["A"] != 50 {
					t.Errorf("A = %v, want 50", got["A"])
				}
				if got["B"] != -50 {
					t.Errorf("B = %v, want -50", got["B"])
				}
				if res.Sum() != 0 {
					t.Errorf("sum = %v, want 0", res.Sum())
				}
			},
		},
		{
			name: "three people with rounding",
			bill: models.Bill{
				Mode:         models.ModeNormal,
				Participants: []string{"An", "Binh", "Chi"},
				Expenses: []models.Expense{
					{Name: "Hotel", Amount: 1000000, Quantity: 1, PaidBy: "An"},
					{Name: "Fuel", Amount: 250000, Quantity: 1, PaidBy: "Binh"},
					{Name: "Snacks", Amount: 10000, Quantity: 3, PaidBy: "Chi"},
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				// total 1,280,000, average round(426,666.67) = 426,667
				want := map[string]float64{"An": 573333, "Binh": -176667, "Chi": -396667}
				for k, v := range want {
					if got := res.ByKey()[k]; got != v {
						t.Errorf("%s = %v, want %v", k, got, v)
					}
				}
				if math.Abs(res.Sum()) > float64(len(res.Balances)) {
					t.Errorf("sum = %v drifted beyond rounding", res.Sum())
				}
			},
		},
		{
			name: "orphaned expense raises the average without a payer",
			bill: models.Bill{
				Mode:         models.ModeNormal,
				Participants: []string{"A", "B"},
				Expenses: []models.Expense{
					{Name: "Taxi", Amount: 100, Quantity: 1, PaidBy: "A"},
					{Name: "Tip", Amount: 100, Quantity: 1, PaidBy: "Ghost"},
					{Name: "Water", Amount: 100, Quantity: 1},
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				got := res.ByKey()
				if got["A"] != -50 || got["B"] != -150 {
					t.Errorf("got %v, want A=-50 B=-150", got)
				}
				if _, ok := got["Ghost"]; ok {
					t.Errorf("payer outside the roster must not get a balance")
				}
			},
		},
		{
			name:    "no participants",
			bill:    models.Bill{Mode: models.ModeNormal, Expenses: []models.Expense{{Amount: 1, PaidBy: "A"}}},
			wantErr: models.ErrNoParticipants,
		},
		{
			name:    "no expenses",
			bill:    models.Bill{Mode: models.ModeNormal, Participants: []string{"A"}},
			wantErr: models.ErrNoExpenses,
		},
		{
			name: "food ratio split",
			bill: models.Bill{
				Mode:           models.ModeFood,
				DiscountAmount: 20,
				Expenses:       []models.Expense{{ID: "x", Name: "X", Amount: 100, Quantity: 1}},
			},
			validateFunc: func(t *testing.T, res Result) {
				if got := res.ByLabel()["X"]; got != 80 {
					t.Errorf("X = %v, want 80", got)
				}
				if got := res.ByKey()["x"]; got != 80 {
					t.Errorf("key x = %v, want 80", got)
				}
			},
		},
		{
			name: "food ratio split is per unit",
			bill: models.Bill{
				Mode:           models.ModeFood,
				DiscountAmount: 30000,
				ShipAmount:     15000,
				Expenses: []models.Expense{
					{ID: "1", Name: "Com tam", Amount: 50000, Quantity: 2},
					{ID: "2", Name: "Tra da", Amount: 5000, Quantity: 4},
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				// ratio 0.875: 100,000 -> 87,500 / 2, 20,000 -> 17,500 / 4
				if got := res.ByKey()["1"]; got != 43750 {
					t.Errorf("Com tam = %v, want 43750", got)
				}
				if got := res.ByKey()["2"]; got != 4375 {
					t.Errorf("Tra da = %v, want 4375", got)
				}
			},
		},
		{
			name: "food lines without an id fall back to their index",
			bill: models.Bill{
				Mode:     models.ModeFood,
				Expenses: []models.Expense{{Name: "A", Amount: 10}, {Name: "B", Amount: 20}},
			},
			validateFunc: func(t *testing.T, res Result) {
				if res.Balances[1].Key != "expense-1" {
					t.Errorf("key = %q, want expense-1", res.Balances[1].Key)
				}
			},
		},
		{
			name: "duplicate names keep separate keys",
			bill: models.Bill{
				Mode: models.ModeFood,
				Expenses: []models.Expense{
					{ID: "a", Name: "Tea", Amount: 10},
					{ID: "b", Name: "Tea", Amount: 20},
				},
			},
			validateFunc: func(t *testing.T, res Result) {
				if len(res.ByKey()) != 2 {
					t.Errorf("ByKey = %v, want two entries", res.ByKey())
				}
				if got := res.ByLabel()["Tea"]; got != 20 {
					t.Errorf("ByLabel Tea = %v, want last line 20", got)
				}
			},
		},
		{
			name:    "food without expenses",
			bill:    models.Bill{Mode: models.ModeFood},
			wantErr: models.ErrNoExpenses,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CalculateBalances(tt.bill)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CalculateBalances() unexpected error: %v", err)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, res)
			}
		})
	}
}

func TestCalculateBalancesUnknownMode(t *testing.T) {
	_, err := CalculateBalances(models.Bill{Mode: 7})
	if !models.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCalculateBalancesByRealPayment(t *testing.T) {
	tests := []struct {
		name    string
		bill    models.Bill
		want    map[string]float64
		wantErr error
	}{
		{
			name: "proportional reallocation",
			bill: models.Bill{
				Mode:        models.ModeFood,
				ActualTotal: 360,
				Expenses: []models.Expense{
					{ID: "x", Name: "X", Amount: 100, Quantity: 1},
					{ID: "y", Name: "Y", Amount: 300, Quantity: 1},
				},
			},
			want: map[string]float64{"x": 90, "y": 270},
		},
		{
			name: "per unit with rounding",
			bill: models.Bill{
				Mode:        models.ModeFood,
				ActualTotal: 100,
				Expenses: []models.Expense{
					{ID: "x", Name: "X", Amount: 10, Quantity: 3},
					{ID: "y", Name: "Y", Amount: 40, Quantity: 1},
				},
			},
			// 100 * 30/70 / 3 = 14.29, 100 * 40/70 = 57.14
			want: map[string]float64{"x": 14, "y": 57},
		},
		{
			name: "no actual total degrades to ratio split",
			bill: models.Bill{
				Mode:           models.ModeFood,
				DiscountAmount: 20,
				Expenses:       []models.Expense{{ID: "x", Name: "X", Amount: 100, Quantity: 1}},
			},
			want: map[string]float64{"x": 80},
		},
		{
			name: "zero original total",
			bill: models.Bill{
				Mode:        models.ModeFood,
				ActualTotal: 50,
				Expenses:    []models.Expense{{ID: "x", Name: "Free", Amount: 0, Quantity: 1}},
			},
			wantErr: models.ErrZeroOriginalTotal,
		},
		{
			name:    "no expenses",
			bill:    models.Bill{Mode: models.ModeFood, ActualTotal: 50},
			wantErr: models.ErrNoExpenses,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CalculateBalancesByRealPayment(tt.bill)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := res.ByKey()
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestRealPaymentTotalsStayClose(t *testing.T) {
	bill := models.Bill{
		Mode:        models.ModeFood,
		ActualTotal: 487000,
		Expenses: []models.Expense{
			{ID: "1", Name: "Lau thai", Amount: 259000, Quantity: 1},
			{ID: "2", Name: "Bia", Amount: 22000, Quantity: 7},
			{ID: "3", Name: "Khan lanh", Amount: 3000, Quantity: 5},
		},
	}
	res, err := CalculateBalancesByRealPayment(bill)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sum float64
	for i, b := range res.Balances {
		sum += b.Amount * float64(bill.Expenses[i].Units())
	}
	// each unit price rounds by at most 0.5
	if math.Abs(sum-bill.ActualTotal) > 0.5*13 {
		t.Errorf("reallocated total = %v, want about %v", sum, bill.ActualTotal)
	}
}

func TestCalculateIsPure(t *testing.T) {
	bill := models.Bill{
		Mode:           models.ModeFood,
		DiscountAmount: 7,
		Expenses: []models.Expense{
			{ID: "1", Name: "A", Amount: 33, Quantity: 3},
			{ID: "2", Name: "B", Amount: 17, Quantity: 1},
		},
	}
	first, err := Calculate(bill)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Calculate(bill)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Balances) != len(second.Balances) {
		t.Fatalf("result sizes differ")
	}
	for i := range first.Balances {
		if first.Balances[i] != second.Balances[i] {
			t.Errorf("balance %d differs: %v vs %v", i, first.Balances[i], second.Balances[i])
		}
	}
	if bill.Expenses[0].Amount != 33 || bill.DiscountAmount != 7 {
		t.Errorf("bill was mutated")
	}
}

func TestCalculateDispatch(t *testing.T) {
	food := models.Bill{
		Mode:        models.ModeFood,
		ActualTotal: 360,
		Expenses: []models.Expense{
			{ID: "x", Name: "X", Amount: 100, Quantity: 1},
			{ID: "y", Name: "Y", Amount: 300, Quantity: 1},
		},
	}
	res, err := Calculate(food)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ByKey()["y"] != 270 {
		t.Errorf("FOOD bills should use the real payment, got %v", res.ByKey())
	}

	normal := models.Bill{
		Mode:         models.ModeNormal,
		Participants: []string{"A", "B"},
		Expenses:     []models.Expense{{Amount: 100, Quantity: 1, PaidBy: "B"}},
	}
	res, err = Calculate(normal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mode != models.ModeNormal || res.ByKey()["B"] != 50 {
		t.Errorf("unexpected NORMAL result %+v", res)
	}
}
