package store

import (
	"math/rand"
	"testing"
)

func TestSeedDemoData(t *testing.T) {
	st := NewInMemoryStore()
	rng := rand.New(rand.NewSource(1))

	if err := SeedDemoData(st, 3, rng); err != nil {
		t.Fatalf("SeedDemoData failed: %v", err)
	}

	// The first seeded customer always takes ID 1.
	customer, err := st.GetCustomer(1)
	if err != nil {
		t.Fatalf("GetCustomer failed: %v", err)
	}
	if customer == nil {
		t.Fatal("no customer seeded at ID 1")
	}
	if customer.Phone == "" || customer.ZipCode == "" || customer.Balance < 5000 {
		t.Errorf("seeded customer incomplete: %+v", customer)
	}

	rows, err := st.GetRecentTransactions(1, 5)
	if err != nil {
		t.Fatalf("GetRecentTransactions failed: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("seeded customer has %d recent transactions, want 5", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Date > rows[i-1].Date {
			t.Errorf("transactions out of order: %q before %q", rows[i-1].Date, rows[i].Date)
		}
	}
	for _, row := range rows {
		if row.Amount >= 0 {
			t.Errorf("seeded transaction %q should be a debit, amount = %v", row.Description, row.Amount)
		}
	}
}

func TestSeedDemoDataDefaultsCount(t *testing.T) {
	st := NewInMemoryStore()
	if err := SeedDemoData(st, 0, rand.New(rand.NewSource(2))); err != nil {
		t.Fatalf("SeedDemoData failed: %v", err)
	}
	customer, err := st.GetCustomer(1)
	if err != nil || customer == nil {
		t.Fatalf("default-count seeding produced no customers: (%v, %v)", customer, err)
	}
}
