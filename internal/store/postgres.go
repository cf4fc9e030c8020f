// Package store provides storage backends for FinAssist.
//
// This file implements a PostgreSQL-backed store for customers, transactions, and leads.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/FinAssist/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	// Apply options
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	// Determine DSN (required)
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("PostgresStore failed to open connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("PostgresStore ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("PostgresStore failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("PostgresStore migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// GetCustomerByPhone resolves a customer by exact phone match.
func (s *PostgresStore) GetCustomerByPhone(phone string) (*models.Customer, error) {
	row := s.db.QueryRow(`SELECT id, first_name, last_name, phone, COALESCE(email, ''), zip_code, account_number, balance FROM customers WHERE phone = $1`, phone)
	c, err := scanCustomerRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore.GetCustomerByPhone not found")
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetCustomerByPhone failed", "error", err)
		return nil, fmt.Errorf("failed to query customer by phone: %w", err)
	}
	return c, nil
}

// GetCustomer resolves a customer by ID.
func (s *PostgresStore) GetCustomer(id int64) (*models.Customer, error) {
	row := s.db.QueryRow(`SELECT id, first_name, last_name, phone, COALESCE(email, ''), zip_code, account_number, balance FROM customers WHERE id = $1`, id)
	c, err := scanCustomerRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore.GetCustomer not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore.GetCustomer failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query customer %d: %w", id, err)
	}
	return c, nil
}

// GetRecentTransactions returns up to limit transactions ordered by date descending.
func (s *PostgresStore) GetRecentTransactions(customerID int64, limit int) ([]models.Transaction, error) {
	rows, err := s.db.Query(`SELECT id, customer_id, date, description, amount FROM transactions WHERE customer_id = $1 ORDER BY date DESC LIMIT $2`, customerID, limit)
	if err != nil {
		slog.Error("PostgresStore.GetRecentTransactions query failed", "error", err, "customerID", customerID)
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()
	transactions, err := scanTransactions(rows)
	if err != nil {
		slog.Error("PostgresStore.GetRecentTransactions scan failed", "error", err, "customerID", customerID)
		return nil, err
	}
	slog.Debug("PostgresStore.GetRecentTransactions succeeded", "customerID", customerID, "count", len(transactions))
	return transactions, nil
}

// AddLead persists a captured lead.
func (s *PostgresStore) AddLead(lead models.Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT INTO leads (name, phone, email) VALUES ($1, $2, $3)`, lead.Name, lead.Phone, lead.Email)
	if err != nil {
		slog.Error("PostgresStore.AddLead failed", "error", err)
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	slog.Debug("PostgresStore.AddLead succeeded", "name", lead.Name)
	return nil
}

// GetLeads returns all captured leads ordered by creation time.
func (s *PostgresStore) GetLeads() ([]models.Lead, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, email, created_at FROM leads ORDER BY created_at`)
	if err != nil {
		slog.Error("PostgresStore.GetLeads query failed", "error", err)
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()
	return scanLeads(rows)
}

// AddCustomer inserts a customer record and returns its assigned ID.
func (s *PostgresStore) AddCustomer(c models.Customer) (int64, error) {
	var id int64
	err := s.db.QueryRow(`INSERT INTO customers (first_name, last_name, phone, email, zip_code, account_number, balance) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		c.FirstName, c.LastName, c.Phone, nilIfEmpty(c.Email), c.ZipCode, c.AccountNumber, c.Balance).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore.AddCustomer failed", "error", err)
		return 0, fmt.Errorf("failed to insert customer: %w", err)
	}
	return id, nil
}

// AddTransaction inserts a transaction record.
func (s *PostgresStore) AddTransaction(t models.Transaction) error {
	_, err := s.db.Exec(`INSERT INTO transactions (customer_id, date, description, amount) VALUES ($1, $2, $3, $4)`,
		t.CustomerID, t.Date, t.Description, t.Amount)
	if err != nil {
		slog.Error("PostgresStore.AddTransaction failed", "error", err, "customerID", t.CustomerID)
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
