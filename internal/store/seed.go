// Package store provides storage backends for FinAssist.
//
// This file seeds demo customer data so the assistant can be exercised
// without a real banking backend.
package store

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/BTreeMap/FinAssist/internal/models"
)

// Demo data generation constants.
const (
	// DefaultSeedCustomerCount is the number of demo customers generated.
	DefaultSeedCustomerCount = 50
)

var seedFirstNames = []string{
	"Jane", "James", "Maria", "David", "Linda", "Robert", "Susan", "Michael",
	"Karen", "Thomas", "Nancy", "Daniel", "Laura", "Kevin", "Angela", "Brian",
}

var seedLastNames = []string{
	"Doe", "Smith", "Garcia", "Johnson", "Brown", "Miller", "Davis", "Wilson",
	"Moore", "Taylor", "Anderson", "Thomas", "Jackson", "White", "Harris", "Martin",
}

// seedTransactionTypes pairs a description with a base debit amount; each
// generated transaction jitters the base slightly.
var seedTransactionTypes = []struct {
	Description string
	BaseAmount  float64
}{
	{"Rent Payment", -1200},
	{"WiFi Bill", -60},
	{"Car Insurance", -150},
	{"Health Insurance", -200},
	{"Water Bill", -30},
	{"Gas Station", -50},
	{"Groceries", -100},
	{"Dining Out", -80},
	{"Movie Night", -40},
	{"Gym Membership", -45},
}

// SeedDemoData populates the store with count demo customers, each with one
// transaction per category dated progressively further in the past. It is
// idempotent in effect only insofar as phone numbers are random; callers
// should seed an empty store.
func SeedDemoData(st Store, count int, rng *rand.Rand) error {
	if count <= 0 {
		count = DefaultSeedCustomerCount
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	slog.Debug("store.SeedDemoData: generating demo customers", "count", count)

	for i := 0; i < count; i++ {
		first := seedFirstNames[rng.Intn(len(seedFirstNames))]
		last := seedLastNames[rng.Intn(len(seedLastNames))]
		customer := models.Customer{
			FirstName:     first,
			LastName:      last,
			Phone:         fmt.Sprintf("555%07d", rng.Intn(10000000)),
			Email:         fmt.Sprintf("%s.%s%d@example.com", first, last, i),
			ZipCode:       fmt.Sprintf("%05d", rng.Intn(100000)),
			AccountNumber: fmt.Sprintf("ACCT%010d", rng.Intn(1000000000)),
			Balance:       5000 + rng.Float64()*15000,
		}
		id, err := st.AddCustomer(customer)
		if err != nil {
			return fmt.Errorf("failed to seed customer %d: %w", i, err)
		}

		date := time.Now()
		for _, tt := range seedTransactionTypes {
			amount := tt.BaseAmount + (rng.Float64()*10 - 5)
			if err := st.AddTransaction(models.Transaction{
				CustomerID:  id,
				Date:        date.Format("2006-01-02"),
				Description: tt.Description,
				Amount:      amount,
			}); err != nil {
				return fmt.Errorf("failed to seed transaction for customer %d: %w", id, err)
			}
			date = date.AddDate(0, 0, -(1 + rng.Intn(5)))
		}
	}

	slog.Info("store.SeedDemoData: demo data seeded", "customers", count)
	return nil
}
