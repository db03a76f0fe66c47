// Package store persists account aggregates in a document store.
//
// Accounts are written as whole documents; concurrent mutations of one
// account are serialized through Update's optimistic read-modify-write
// loop rather than through any in-process lock.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by lookups that miss.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by Create when the normalized email
	// is already indexed.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrConflict is returned by Update when the optimistic write keeps
	// losing against concurrent writers after bounded retries.
	ErrConflict = errors.New("account update conflict")
	// ErrUnavailable wraps backend transport failures.
	ErrUnavailable = errors.New("account store unavailable")
)

// Store is the persistence collaborator for account aggregates.
//
// Update must be atomic with respect to other Update and Save calls for
// the same account: the mutation function observes a consistent
// snapshot and its result is written back only if no concurrent write
// landed in between.
type Store interface {
	// Create persists a new account and claims its email atomically.
	Create(ctx context.Context, account *Account) error

	// FindByEmail resolves the normalized email to an account.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByID loads an account by its opaque id.
	FindByID(ctx context.Context, id string) (*Account, error)

	// Save writes the document unconditionally. Prefer Update for any
	// mutation that races with other requests for the same account.
	Save(ctx context.Context, account *Account) error

	// Update runs fn against the current document and writes the result
	// back atomically. An error returned by fn aborts the write and is
	// propagated unchanged.
	Update(ctx context.Context, id string, fn func(*Account) error) (*Account, error)
}
