package store

import (
	"context"
	"errors"
	"time"

	"github.com/courseloop/campus-auth/internal/auth/domain"
	"github.com/courseloop/campus-auth/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. Sub-repositories keep concerns tidy and let tests
// substitute fakes per concern.
type Store interface {
	Users() Users
	Passcodes() Passcodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction; rollback on error, commit
	// on nil. Preferred over Tx for multi-step invariants (issue =
	// invalidate-then-insert, reset = consume-then-update).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the underlying connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store: the same repositories plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the consumed credential-store surface. Identity rows are owned
// elsewhere; this core only reads them and overwrites password hashes
// during reset.
type Users interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)

	// GetByUsername resolves the login identifier in its primary form.
	GetByUsername(ctx context.Context, username string) (domain.User, error)

	// GetByEmail resolves the login identifier fallback and the reset flows.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// Create inserts a new user and returns the assigned id. Used for
	// seeding and test fixtures.
	Create(ctx context.Context, u domain.User) (int64, error)

	// UpdatePasswordHash sets password_hash and bumps updated_at. The only
	// mutation the auth core performs on identity state.
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error

	// IsEmpty reports whether there are no users (seeding guard).
	IsEmpty(ctx context.Context) (bool, error)
}

// Passcodes is the append-only one-time-code ledger.
type Passcodes interface {
	// Create inserts a new passcode row.
	Create(ctx context.Context, p domain.Passcode) error

	// Latest returns the single most-recently-issued passcode for
	// (subject, purpose), consumed or not. Verification only ever looks
	// at this row.
	Latest(ctx context.Context, subjectID int64, purpose domain.PasscodePurpose) (domain.Passcode, error)

	// ConsumeActive marks every active code for (subject, purpose) as
	// consumed at now and returns how many rows were touched. Runs as the
	// first step of issuance so at most one code stays active.
	ConsumeActive(ctx context.Context, subjectID int64, purpose domain.PasscodePurpose, now time.Time) (int64, error)

	// Consume sets consumed_at on a single row only if it is still null.
	// Returns false when another caller spent the code first; this is the
	// compare-and-set that makes verification at-most-once.
	Consume(ctx context.Context, id idx.ID, now time.Time) (bool, error)

	// Count returns the total number of ledger rows.
	Count(ctx context.Context) (int64, error)
}
