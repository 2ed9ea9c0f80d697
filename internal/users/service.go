package users

import (
	"context"
	"strings"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/models"
)

// Service encapsulates user-related business logic
type Service struct {
	repo          UserRepository
	adminSubjects map[string]bool
	adminEmails   map[string]bool
}

// NewService builds the service. Subjects and emails listed in admins are
// granted the admin role the first time EnsureRole sees them.
func NewService(r UserRepository, adminSubjects, adminEmails []string) *Service {
	s := &Service{repo: r, adminSubjects: map[string]bool{}, adminEmails: map[string]bool{}}
	for _, sub := range adminSubjects {
		s.adminSubjects[sub] = true
	}
	for _, e := range adminEmails {
		s.adminEmails[strings.ToLower(e)] = true
	}
	return s
}

// UpsertFromClaims creates or updates a user using OIDC claims map
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return nil, nil
	}
	if name == "" {
		name, _ = claims["preferred_username"].(string)
	}
	u := &models.User{
		Sub:   sub,
		Email: email,
		Name:  name,
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// EnsureRole makes sure the user identified by claims exists and has a role,
// and returns it. It is idempotent: an existing role is never changed.
func (s *Service) EnsureRole(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}
	u, err := s.repo.GetBySub(ctx, sub)
	if err != nil {
		return nil, err
	}
	if u == nil {
		if u, err = s.UpsertFromClaims(ctx, claims); err != nil {
			return nil, err
		}
	}
	if u.Role != "" {
		return u, nil
	}
	role := models.RoleUser
	if s.adminSubjects[u.Sub] || (u.Email != "" && s.adminEmails[strings.ToLower(u.Email)]) {
		role = models.RoleAdmin
	}
	if err := s.repo.SetRole(ctx, u.Sub, role); err != nil {
		return nil, err
	}
	u.Role = role
	return u, nil
}

// IsAdmin reports whether the subject currently holds the admin role.
func (s *Service) IsAdmin(ctx context.Context, sub string) (bool, error) {
	u, err := s.repo.GetBySub(ctx, sub)
	if err != nil {
		return false, err
	}
	return u.IsAdmin(), nil
}
