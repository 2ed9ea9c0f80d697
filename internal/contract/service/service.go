package service

import (
	"context"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/cache"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract/repository"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/storage"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/logger"
)

const defaultFileURLTTL = 15 * time.Minute

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Email  string
	Name   string
	Admin  bool
}

func (a Actor) userID() *string {
	if a.UserID == "" {
		return nil
	}
	id := a.UserID
	return &id
}

func (a Actor) displayName() *string {
	n := a.Name
	if n == "" {
		n = a.Email
	}
	if n == "" {
		return nil
	}
	return &n
}

// Options tunes a Service. Zero values select defaults.
type Options struct {
	Dashboard  contract.SummaryOptions
	FileURLTTL time.Duration
	Now        func() time.Time
}

// Service implements the contract workflows on top of a repository Store,
// an object store for attachments and a collection cache.
type Service struct {
	store   *repository.Store
	objects storage.ObjectStore
	cache   cache.Cache

	dashboard contract.SummaryOptions
	urlTTL    time.Duration
	now       func() time.Time
}

func New(store *repository.Store, objects storage.ObjectStore, c cache.Cache, opts Options) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if objects == nil {
		objects = storage.NewMemoryStorage()
	}
	s := &Service{
		store:     store,
		objects:   objects,
		cache:     c,
		dashboard: opts.Dashboard,
		urlTTL:    opts.FileURLTTL,
		now:       opts.Now,
	}
	if s.urlTTL <= 0 {
		s.urlTTL = defaultFileURLTTL
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func requireAdmin(a Actor) error {
	if !a.Admin {
		return contract.ErrForbidden
	}
	return nil
}

// cached returns the collection stored under key, loading and caching it on a
// miss. Cache failures are logged and the repository result is used.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) ([]*T, error)) ([]*T, error) {
	var out []*T
	ok, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		logger.FromContext(ctx).Warnf("cache get %s: %v", key, err)
	}
	if ok {
		return out, nil
	}
	out, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out); err != nil {
		logger.FromContext(ctx).Warnf("cache set %s: %v", key, err)
	}
	return out, nil
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		logger.FromContext(ctx).Warnf("cache invalidate %v: %v", keys, err)
	}
}

func (s *Service) allContracts(ctx context.Context) ([]*contract.Contract, error) {
	return cached(ctx, s, cache.KeyContracts, s.store.Contracts.List)
}

func (s *Service) allObligations(ctx context.Context) ([]*contract.Obligation, error) {
	return cached(ctx, s, cache.KeyObligations, s.store.Obligations.List)
}

func (s *Service) allCategories(ctx context.Context) ([]*contract.Category, error) {
	return cached(ctx, s, cache.KeyCategories, s.store.Categories.List)
}

// Now exposes the service clock so views compute day distances consistently.
func (s *Service) Now() time.Time { return s.now() }

// Dashboard summarizes the full contract and obligation collections.
func (s *Service) Dashboard(ctx context.Context) (contract.Summary, error) {
	contracts, err := s.allContracts(ctx)
	if err != nil {
		return contract.Summary{}, err
	}
	obligations, err := s.allObligations(ctx)
	if err != nil {
		return contract.Summary{}, err
	}
	categories, err := s.allCategories(ctx)
	if err != nil {
		return contract.Summary{}, err
	}
	opts := s.dashboard
	opts.KnownCategories = make(map[string]bool, len(categories))
	for _, c := range categories {
		opts.KnownCategories[c.ID] = true
	}
	return contract.Summarize(contracts, obligations, s.now(), opts), nil
}
