package store

import (
	"database/sql"
	"fmt"

	"github.com/BTreeMap/FinAssist/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanCustomerRow scans a Customer from a single sql.Row.
func scanCustomerRow(row *sql.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &c.ZipCode, &c.AccountNumber, &c.Balance)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanTransactions scans Transaction rows from sql.Rows.
func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Date, &t.Description, &t.Amount); err != nil {
			return nil, fmt.Errorf("scan transaction failed: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows failed: %w", err)
	}
	return transactions, nil
}

// scanLeads scans Lead rows from sql.Rows.
func scanLeads(rows *sql.Rows) ([]models.Lead, error) {
	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead failed: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lead rows failed: %w", err)
	}
	return leads, nil
}
