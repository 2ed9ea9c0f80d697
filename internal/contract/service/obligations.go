package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/cache"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/metrics"
)

type ObligationInput struct {
	Type        contract.ObligationType
	Description string
	DueDate     *time.Time
	Amount      *float64
}

// ObligationEntry is an obligation resolved for display at a point in time.
type ObligationEntry struct {
	*contract.Obligation
	ContractTitle   string                    `json:"contractTitle,omitempty"`
	EffectiveStatus contract.ObligationStatus `json:"effectiveStatus"`
	DaysUntil       *int                      `json:"daysUntil"`
}

func (s *Service) entries(obs []*contract.Obligation, titles map[string]string) []ObligationEntry {
	now := s.now()
	out := make([]ObligationEntry, 0, len(obs))
	for _, o := range obs {
		out = append(out, ObligationEntry{
			Obligation:      o,
			ContractTitle:   titles[o.ContractID],
			EffectiveStatus: contract.EffectiveObligationStatus(o, now),
			DaysUntil:       contract.ObligationDays(o, now),
		})
	}
	return out
}

// CreateObligation adds a pending obligation to an existing contract.
func (s *Service) CreateObligation(ctx context.Context, contractID string, in ObligationInput) (*contract.Obligation, error) {
	if _, err := s.store.Contracts.Get(ctx, contractID); err != nil {
		return nil, err
	}
	o := &contract.Obligation{
		ContractID:  contractID,
		Type:        in.Type,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Status:      contract.ObligationPending,
		Amount:      in.Amount,
		CreatedAt:   s.now(),
	}
	if o.Type == "" {
		o.Type = contract.ObligationOther
	}
	v := &contract.ValidationError{}
	if !o.Type.Valid() {
		v.Add("type", fmt.Sprintf("unknown obligation type %q", o.Type))
	}
	if o.Description == "" {
		v.Add("description", "is required")
	}
	if o.DueDate == nil {
		v.Add("due_date", "is required")
	}
	if o.Amount != nil && *o.Amount < 0 {
		v.Add("amount", "must not be negative")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.store.Obligations.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create obligation: %w", err)
	}
	s.invalidate(ctx, cache.KeyObligations)
	return o, nil
}

// ListObligations returns every obligation matching f, joined with its
// contract title and ordered by due date.
func (s *Service) ListObligations(ctx context.Context, f contract.ObligationFilter) ([]ObligationEntry, error) {
	all, err := s.allObligations(ctx)
	if err != nil {
		return nil, err
	}
	contracts, err := s.allContracts(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(contracts))
	for _, c := range contracts {
		titles[c.ID] = c.Title
	}

	now := s.now()
	matched := make([]*contract.Obligation, 0, len(all))
	for _, o := range all {
		if f.Match(o, now) {
			matched = append(matched, o)
		}
	}
	contract.SortObligationsByDue(matched)
	return s.entries(matched, titles), nil
}

func (s *Service) ListContractObligations(ctx context.Context, contractID string) ([]ObligationEntry, error) {
	c, err := s.store.Contracts.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	obs, err := s.store.Obligations.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return s.entries(obs, map[string]string{c.ID: c.Title}), nil
}

// MarkObligationCompleted sets an obligation to completed. Completing an
// already completed obligation succeeds without a write.
func (s *Service) MarkObligationCompleted(ctx context.Context, id string) (*contract.Obligation, error) {
	o, err := s.store.Obligations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == contract.ObligationCompleted {
		return o, nil
	}
	if err := s.store.Obligations.SetStatus(ctx, id, contract.ObligationCompleted); err != nil {
		return nil, fmt.Errorf("complete obligation: %w", err)
	}
	s.invalidate(ctx, cache.KeyObligations)
	metrics.ObligationsCompleted.Inc()
	o.Status = contract.ObligationCompleted
	return o, nil
}

func (s *Service) DeleteObligation(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.Obligations.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, cache.KeyObligations)
	return nil
}
