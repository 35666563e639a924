package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillTotals(t *testing.T) {
	tests := []struct {
		name              string
		bill              Bill
		wantTotal         float64
		wantTotalAll      float64
		wantAfterDiscount float64
		wantDiscountRatio float64
	}{
		{
			name:              "empty bill",
			bill:              Bill{Mode: ModeFood},
			wantTotal:         0,
			wantTotalAll:      0,
			wantAfterDiscount: 0,
			wantDiscountRatio: 1,
		},
		{
			name: "quantities multiply",
			bill: Bill{Mode: ModeNormal, Expenses: []Expense{
				{Name: "Beer", Amount: 100, Quantity: 2},
				{Name: "Chips", Amount: 50, Quantity: 1},
			}},
			wantTotal:         250,
			wantTotalAll:      250,
			wantAfterDiscount: 250,
			wantDiscountRatio: 1,
		},
		{
			name: "zero quantity counts as one",
			bill: Bill{Mode: ModeFood, Expenses: []Expense{
				{Name: "Pho", Amount: 45000},
			}},
			wantTotal:         45000,
			wantTotalAll:      45000,
			wantAfterDiscount: 45000,
			wantDiscountRatio: 1,
		},
		{
			name: "discount",
			bill: Bill{Mode: ModeFood, DiscountAmount: 20, Expenses: []Expense{
				{Name: "X", Amount: 100, Quantity: 1},
			}},
			wantTotal:         100,
			wantTotalAll:      100,
			wantAfterDiscount: 80,
			wantDiscountRatio: 0.8,
		},
		{
			name: "discount and shipping",
			bill: Bill{Mode: ModeFood, DiscountAmount: 30000, ShipAmount: 15000, Expenses: []Expense{
				{Name: "Com tam", Amount: 50000, Quantity: 2},
				{Name: "Tra da", Amount: 5000, Quantity: 4},
			}},
			wantTotal:         120000,
			wantTotalAll:      135000,
			wantAfterDiscount: 105000,
			wantDiscountRatio: 0.875,
		},
		{
			name: "discount larger than total clamps at zero",
			bill: Bill{Mode: ModeFood, DiscountAmount: 1_000_000, Expenses: []Expense{
				{Name: "X", Amount: 100, Quantity: 1},
			}},
			wantTotal:         100,
			wantTotalAll:      100,
			wantAfterDiscount: 0,
			wantDiscountRatio: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantTotal, tt.bill.TotalAmount(), 1e-9)
			assert.InDelta(t, tt.wantTotalAll, tt.bill.TotalAmountAll(), 1e-9)
			assert.InDelta(t, tt.wantAfterDiscount, tt.bill.TotalAfterDiscount(), 1e-9)
			assert.InDelta(t, tt.wantDiscountRatio, tt.bill.DiscountRatio(), 1e-9)
			assert.GreaterOrEqual(t, tt.bill.TotalAfterDiscount(), 0.0)
		})
	}
}

func TestAverageAmount(t *testing.T) {
	tests := []struct {
		name         string
		participants []string
		expenses     []Expense
		want         float64
	}{
		{"no participants", nil, []Expense{{Amount: 100}}, 0},
		{"even split", []string{"A", "B"}, []Expense{{Amount: 100, Quantity: 1, PaidBy: "A"}}, 50},
		{"rounds half away from zero", []string{"A", "B"}, []Expense{{Amount: 101, Quantity: 1, PaidBy: "A"}}, 51},
		{"rounds down below half", []string{"A", "B", "C"}, []Expense{{Amount: 100, Quantity: 1, PaidBy: "A"}}, 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Bill{Mode: ModeNormal, Participants: tt.participants, Expenses: tt.expenses}
			assert.Equal(t, tt.want, b.AverageAmount())
		})
	}
}

func TestLinkedAmount(t *testing.T) {
	b := Bill{Mode: ModeFood, DiscountAmount: 10, Expenses: []Expense{{Name: "X", Amount: 100}}}
	assert.Equal(t, 90.0, b.LinkedAmount())

	b.ActualTotal = 95
	assert.True(t, b.HasActualTotal())
	assert.Equal(t, 95.0, b.LinkedAmount())
}

func TestSubBillIDs(t *testing.T) {
	b := Bill{Mode: ModeNormal, Expenses: []Expense{
		{Name: "a", SubBillID: 42},
		{Name: "b"},
		{Name: "c", SubBillID: 7},
		{Name: "d", SubBillID: 42},
	}}
	assert.Equal(t, []int64{42, 7}, b.SubBillIDs())
	assert.Nil(t, Bill{}.SubBillIDs())
}

func TestBillModeJSON(t *testing.T) {
	t.Run("marshals as number", func(t *testing.T) {
		data, err := json.Marshal(Bill{ID: 1, Mode: ModeFood, Expenses: []Expense{}})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"type":2`)
	})

	t.Run("accepts legacy numeric and named forms", func(t *testing.T) {
		var b Bill
		require.NoError(t, json.Unmarshal([]byte(`{"id":5,"type":1,"expenses":[]}`), &b))
		assert.Equal(t, ModeNormal, b.Mode)

		require.NoError(t, json.Unmarshal([]byte(`{"id":5,"type":"food","expenses":[]}`), &b))
		assert.Equal(t, ModeFood, b.Mode)
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		var b Bill
		err := json.Unmarshal([]byte(`{"type":"GROCERY"}`), &b)
		require.Error(t, err)
	})
}

func TestParseBillMode(t *testing.T) {
	for in, want := range map[string]BillMode{
		"NORMAL": ModeNormal, "normal": ModeNormal, "1": ModeNormal,
		"FOOD": ModeFood, " food ": ModeFood, "2": ModeFood,
	} {
		got, err := ParseBillMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseBillMode("3")
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Normal", ModeNormal.Label())
	assert.Equal(t, "FOOD", ModeFood.String())
}
