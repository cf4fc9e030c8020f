// Package store provides storage backends for FinAssist.
//
// This file implements a SQLite-backed store for customers, transactions, and leads.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/BTreeMap/FinAssist/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("SQLiteStore failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("SQLiteStore failed to open connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLiteStore ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("SQLiteStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLiteStore migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetCustomerByPhone resolves a customer by exact phone match.
func (s *SQLiteStore) GetCustomerByPhone(phone string) (*models.Customer, error) {
	row := s.db.QueryRow(`SELECT id, first_name, last_name, phone, COALESCE(email, ''), zip_code, account_number, balance FROM customers WHERE phone = ?`, phone)
	c, err := scanCustomerRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore.GetCustomerByPhone not found")
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetCustomerByPhone failed", "error", err)
		return nil, fmt.Errorf("failed to query customer by phone: %w", err)
	}
	return c, nil
}

// GetCustomer resolves a customer by ID.
func (s *SQLiteStore) GetCustomer(id int64) (*models.Customer, error) {
	row := s.db.QueryRow(`SELECT id, first_name, last_name, phone, COALESCE(email, ''), zip_code, account_number, balance FROM customers WHERE id = ?`, id)
	c, err := scanCustomerRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore.GetCustomer not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore.GetCustomer failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query customer %d: %w", id, err)
	}
	return c, nil
}

// GetRecentTransactions returns up to limit transactions ordered by date descending.
func (s *SQLiteStore) GetRecentTransactions(customerID int64, limit int) ([]models.Transaction, error) {
	rows, err := s.db.Query(`SELECT id, customer_id, date, description, amount FROM transactions WHERE customer_id = ? ORDER BY date DESC LIMIT ?`, customerID, limit)
	if err != nil {
		slog.Error("SQLiteStore.GetRecentTransactions query failed", "error", err, "customerID", customerID)
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()
	transactions, err := scanTransactions(rows)
	if err != nil {
		slog.Error("SQLiteStore.GetRecentTransactions scan failed", "error", err, "customerID", customerID)
		return nil, err
	}
	slog.Debug("SQLiteStore.GetRecentTransactions succeeded", "customerID", customerID, "count", len(transactions))
	return transactions, nil
}

// AddLead persists a captured lead.
func (s *SQLiteStore) AddLead(lead models.Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT INTO leads (name, phone, email) VALUES (?, ?, ?)`, lead.Name, lead.Phone, lead.Email)
	if err != nil {
		slog.Error("SQLiteStore.AddLead failed", "error", err)
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	slog.Debug("SQLiteStore.AddLead succeeded", "name", lead.Name)
	return nil
}

// GetLeads returns all captured leads ordered by creation time.
func (s *SQLiteStore) GetLeads() ([]models.Lead, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, email, created_at FROM leads ORDER BY created_at`)
	if err != nil {
		slog.Error("SQLiteStore.GetLeads query failed", "error", err)
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()
	return scanLeads(rows)
}

// AddCustomer inserts a customer record and returns its assigned ID.
func (s *SQLiteStore) AddCustomer(c models.Customer) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO customers (first_name, last_name, phone, email, zip_code, account_number, balance) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.FirstName, c.LastName, c.Phone, nilIfEmpty(c.Email), c.ZipCode, c.AccountNumber, c.Balance)
	if err != nil {
		slog.Error("SQLiteStore.AddCustomer failed", "error", err)
		return 0, fmt.Errorf("failed to insert customer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted customer ID: %w", err)
	}
	return id, nil
}

// AddTransaction inserts a transaction record.
func (s *SQLiteStore) AddTransaction(t models.Transaction) error {
	_, err := s.db.Exec(`INSERT INTO transactions (customer_id, date, description, amount) VALUES (?, ?, ?, ?)`,
		t.CustomerID, t.Date, t.Description, t.Amount)
	if err != nil {
		slog.Error("SQLiteStore.AddTransaction failed", "error", err, "customerID", t.CustomerID)
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
