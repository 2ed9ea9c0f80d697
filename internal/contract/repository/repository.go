package repository

import (
	"context"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
)

// ErrNotFound is returned by every repository when the addressed row is absent.
var ErrNotFound = contract.ErrNotFound

// Contracts persists the root aggregate. List returns newest first.
type Contracts interface {
	Create(ctx context.Context, c *contract.Contract) error
	Get(ctx context.Context, id string) (*contract.Contract, error)
	List(ctx context.Context) ([]*contract.Contract, error)
	Update(ctx context.Context, c *contract.Contract) error
	Delete(ctx context.Context, id string) error
}

// Obligations are listed by ascending due date, undated last.
type Obligations interface {
	Create(ctx context.Context, o *contract.Obligation) error
	Get(ctx context.Context, id string) (*contract.Obligation, error)
	List(ctx context.Context) ([]*contract.Obligation, error)
	ListByContract(ctx context.Context, contractID string) ([]*contract.Obligation, error)
	SetStatus(ctx context.Context, id string, status contract.ObligationStatus) error
	Delete(ctx context.Context, id string) error
	DeleteByContract(ctx context.Context, contractID string) error
}

// Categories are listed by name.
type Categories interface {
	Create(ctx context.Context, c *contract.Category) error
	Get(ctx context.Context, id string) (*contract.Category, error)
	GetBySlug(ctx context.Context, slug string) (*contract.Category, error)
	List(ctx context.Context) ([]*contract.Category, error)
	Delete(ctx context.Context, id string) error
}

// Files are listed newest first.
type Files interface {
	Create(ctx context.Context, f *contract.File) error
	Get(ctx context.Context, id string) (*contract.File, error)
	ListByContract(ctx context.Context, contractID string) ([]*contract.File, error)
	Delete(ctx context.Context, id string) error
	DeleteByContract(ctx context.Context, contractID string) error
}

// History is append-only; entries are removed only together with their contract.
type History interface {
	Append(ctx context.Context, e *contract.StatusHistoryEntry) error
	ListByContract(ctx context.Context, contractID string) ([]*contract.StatusHistoryEntry, error)
	DeleteByContract(ctx context.Context, contractID string) error
}

// CascadeDeleter is implemented by backends that can remove a contract and
// every owned row in one transaction.
type CascadeDeleter interface {
	DeleteContractCascade(ctx context.Context, id string) error
}

// Store bundles the five collections behind one backend.
type Store struct {
	Contracts   Contracts
	Obligations Obligations
	Categories  Categories
	Files       Files
	History     History

	// Cascade is nil when the backend has no transactional delete.
	Cascade CascadeDeleter
}
