package repository

import (
	"context"
	"fmt"

	"github.com/andy/apothecary/internal/db"
)

// Repos bundles every repository bound to the same Querier
type Repos struct {
	Medicines MedicineRepository
	Customers CustomerRepository
	Users     UserRepository
	Stock     StockRepository
	Orders    OrderRepository
	Invoices  InvoiceRepository
}

// NewRepos binds all repositories to q (the pool or an open transaction)
func NewRepos(q db.Querier) *Repos {
	return &Repos{
		Medicines: NewMedicineRepo(q),
		Customers: NewCustomerRepo(q),
		Users:     NewUserRepo(q),
		Stock:     NewStockRepo(q),
		Orders:    NewOrderRepo(q),
		Invoices:  NewInvoiceRepo(q),
	}
}

// UnitOfWork is the transactional boundary used by services. Within runs fn
// against repositories bound to a single transaction, committing only when
// fn returns nil.
type UnitOfWork interface {
	Repos() *Repos
	Within(ctx context.Context, fn func(r *Repos) error) error
}

// Store is the SQLite UnitOfWork
type Store struct {
	db    *db.DB
	repos *Repos
}

// NewStore creates a Store over an open database
func NewStore(database *db.DB) *Store {
	return &Store{
		db:    database,
		repos: NewRepos(database),
	}
}

// Repos returns repositories that run outside any transaction
func (s *Store) Repos() *Repos {
	return s.repos
}

// Within runs fn in a transaction. The transaction is rolled back on every
// exit path except a successful commit, including panics in fn.
func (s *Store) Within(ctx context.Context, fn func(r *Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
