package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTime_UnmarshalVariants(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-03-05T10:20:30"`, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{`"2024-03-05T10:20:30.123456"`, time.Date(2024, 3, 5, 10, 20, 30, 123456000, time.UTC)},
		{`"2024-03-05T10:20:30Z"`, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{`"2024-03-05 10:20:30"`, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)},
		{`"2024-03-05"`, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{`null`, time.Time{}},
		{`""`, time.Time{}},
	}
	for _, tt := range tests {
		var got Time
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, got.Time, tt.want)
		}
	}
}

func TestTime_UnmarshalGarbage(t *testing.T) {
	var got Time
	if err := json.Unmarshal([]byte(`"last tuesday"`), &got); err == nil {
		t.Fatal("expected error for unparseable time")
	}
}

func TestTransaction_Decode(t *testing.T) {
	raw := `[
		{"_id":"r1","type":"receipt","description":"Cafe","amount":12.5,"date":"2024-01-02T08:00:00","category":"Receipt","receipt_id":"r1"},
		{"_id":"e1","type":"expense","description":"Bus","amount":2,"date":"2024-01-03T09:00:00","category":"Transport","receipt_id":null}
	]`
	var txs []Transaction
	if err := json.Unmarshal([]byte(raw), &txs); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("len = %d, want 2", len(txs))
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("amount = %s, want 12.5", txs[0].Amount)
	}
	if !txs[0].IsReceipt() || txs[1].IsReceipt() {
		t.Errorf("IsReceipt = %v,%v, want true,false", txs[0].IsReceipt(), txs[1].IsReceipt())
	}
	if txs[1].ReceiptID != "" {
		t.Errorf("ReceiptID = %q, want empty for null", txs[1].ReceiptID)
	}
}

func TestTransaction_DeleteTargetID(t *testing.T) {
	linked := Transaction{ID: "e9", Type: TypeExpense, ReceiptID: "r3"}
	if got := linked.DeleteTargetID(); got != "r3" {
		t.Errorf("linked expense target = %q, want r3", got)
	}
	manual := Transaction{ID: "e1", Type: TypeExpense}
	if got := manual.DeleteTargetID(); got != "e1" {
		t.Errorf("manual expense target = %q, want e1", got)
	}
}

func TestTransaction_Matches(t *testing.T) {
	tx := Transaction{Description: "Corner Grocery", Category: "Food"}
	for _, q := range []string{"", "grocery", "FOOD", "corner g"} {
		if !tx.Matches(q) {
			t.Errorf("Matches(%q) = false, want true", q)
		}
	}
	if tx.Matches("transport") {
		t.Error("Matches(transport) = true, want false")
	}
}

func TestProfilePatch_Apply(t *testing.T) {
	u := User{Username: "ana", FullName: "Ana", Currency: "USD", MonthlyBudget: decimal.NewFromInt(2000)}
	name := "Ana Lopez"
	cur := "EUR"
	got := ProfilePatch{FullName: &name, Currency: &cur}.Apply(u)

	if got.FullName != name || got.Currency != cur {
		t.Fatalf("Apply = %+v, want name and currency updated", got)
	}
	if !got.MonthlyBudget.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("MonthlyBudget = %s, want untouched 2000", got.MonthlyBudget)
	}
	if got.Username != "ana" {
		t.Fatalf("Username = %q, want ana", got.Username)
	}
}

func TestUser_CurrencyCode(t *testing.T) {
	if got := (User{}).CurrencyCode(); got != "USD" {
		t.Errorf("empty currency = %q, want USD", got)
	}
	if got := (User{Currency: "NPR"}).CurrencyCode(); got != "NPR" {
		t.Errorf("NPR currency = %q", got)
	}
}
