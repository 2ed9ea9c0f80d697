package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/cache"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/seed"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/logger"
)

func (s *Service) ListCategories(ctx context.Context) ([]*contract.Category, error) {
	return s.allCategories(ctx)
}

// CreateCategory stores a category under the slug derived from name. A name
// whose slug is already taken yields contract.ErrConflict.
func (s *Service) CreateCategory(ctx context.Context, actor Actor, name, icon string) (*contract.Category, error) {
	name = strings.TrimSpace(name)
	slug := contract.Slugify(name)
	v := &contract.ValidationError{}
	if name == "" {
		v.Add("name", "is required")
	} else if slug == "" {
		v.Add("name", "must contain letters or digits")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.store.Categories.GetBySlug(ctx, slug); err == nil {
		return nil, fmt.Errorf("category %q: %w", slug, contract.ErrConflict)
	} else if !errors.Is(err, contract.ErrNotFound) {
		return nil, err
	}

	c := &contract.Category{
		Name:      name,
		Slug:      slug,
		Icon:      strings.TrimSpace(icon),
		CreatedBy: actor.userID(),
		CreatedAt: s.now(),
	}
	if err := s.store.Categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx, cache.KeyCategories)
	return c, nil
}

// DeleteCategory removes a category. Contracts keep their category id and are
// reported as uncategorized from then on.
func (s *Service) DeleteCategory(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.Categories.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, cache.KeyCategories)
	return nil
}

// EnsureCategories creates the seed categories whose slug is not yet taken and
// returns how many were added.
func (s *Service) EnsureCategories(ctx context.Context, seeds []seed.Category) (int, error) {
	created := 0
	for _, sc := range seeds {
		_, err := s.CreateCategory(ctx, Actor{}, sc.Name, sc.Icon)
		switch {
		case err == nil:
			created++
		case errors.Is(err, contract.ErrConflict):
		default:
			return created, fmt.Errorf("seed category %q: %w", sc.Name, err)
		}
	}
	if created > 0 {
		logger.FromContext(ctx).Infof("seeded %d categories", created)
	}
	return created, nil
}
