// Package store provides storage backends for FinAssist.
//
// It implements the identity store (customer and transaction lookup) and lead
// persistence behind a single Store interface, with in-memory, SQLite, and
// PostgreSQL implementations.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/BTreeMap/FinAssist/internal/models"
)

// Store defines the persistence operations the conversation flow depends on.
// Lookups that find no row return (nil, nil); errors are reserved for backend
// failures.
type Store interface {
	// GetCustomerByPhone resolves a customer by exact phone match.
	GetCustomerByPhone(phone string) (*models.Customer, error)

	// GetCustomer resolves a customer by ID.
	GetCustomer(id int64) (*models.Customer, error)

	// GetRecentTransactions returns up to limit transactions for the customer,
	// ordered by date descending.
	GetRecentTransactions(customerID int64, limit int) ([]models.Transaction, error)

	// AddLead persists a captured lead.
	AddLead(lead models.Lead) error

	// GetLeads returns all captured leads.
	GetLeads() ([]models.Lead, error)

	// AddCustomer inserts a customer record and returns its assigned ID.
	AddCustomer(c models.Customer) (int64, error)

	// AddTransaction inserts a transaction record.
	AddTransaction(t models.Transaction) error

	// Close releases backend resources.
	Close() error
}

// Opts holds configuration options for store construction.
type Opts struct {
	// DSN is the data source name: a file path for SQLite or a PostgreSQL
	// connection string.
	DSN string
}

// Option configures store construction.
type Option func(*Opts)

// WithSQLiteDSN configures a SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN configures a PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// use URL or key=value forms; anything else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if len(dsn) >= 11 && dsn[:11] == "postgres://" {
		return "postgres"
	}
	if len(dsn) >= 13 && dsn[:13] == "postgresql://" {
		return "postgres"
	}
	for i := 0; i+5 <= len(dsn); i++ {
		if dsn[i:i+5] == "host=" {
			return "postgres"
		}
	}
	return "sqlite"
}

// InMemoryStore is a simple in-memory store used for tests and DSN-less runs.
type InMemoryStore struct {
	mu           sync.RWMutex
	customers    map[int64]models.Customer
	transactions map[int64][]models.Transaction
	leads        []models.Lead
	nextID       int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		customers:    make(map[int64]models.Customer),
		transactions: make(map[int64][]models.Transaction),
		nextID:       1,
	}
}

// GetCustomerByPhone resolves a customer by exact phone match.
func (s *InMemoryStore) GetCustomerByPhone(phone string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.Phone == phone {
			found := c
			return &found, nil
		}
	}
	return nil, nil
}

// GetCustomer resolves a customer by ID.
func (s *InMemoryStore) GetCustomer(id int64) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, nil
	}
	found := c
	return &found, nil
}

// GetRecentTransactions returns up to limit transactions ordered by date descending.
func (s *InMemoryStore) GetRecentTransactions(customerID int64, limit int) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]models.Transaction, len(s.transactions[customerID]))
	copy(rows, s.transactions[customerID])
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// AddLead persists a captured lead.
func (s *InMemoryStore) AddLead(lead models.Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lead.ID = s.nextID
	s.nextID++
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	s.leads = append(s.leads, lead)
	return nil
}

// GetLeads returns all captured leads.
func (s *InMemoryStore) GetLeads() ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	leads := make([]models.Lead, len(s.leads))
	copy(leads, s.leads)
	return leads, nil
}

// AddCustomer inserts a customer record and returns its assigned ID.
func (s *InMemoryStore) AddCustomer(c models.Customer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextID
	s.nextID++
	s.customers[c.ID] = c
	return c.ID, nil
}

// AddTransaction inserts a transaction record.
func (s *InMemoryStore) AddTransaction(t models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	s.transactions[t.CustomerID] = append(s.transactions[t.CustomerID], t)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
