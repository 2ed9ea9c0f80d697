package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/cache"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/logger"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/metrics"
)

// ContractInput carries the fields of a new contract request.
type ContractInput struct {
	Title          string
	Partner        string
	Department     string
	Requester      string
	Priority       contract.Priority
	CategoryID     *string
	Value          *float64
	Description    string
	DocLink        *string
	ReviewDeadline *time.Time
	StartDate      *time.Time
	EndDate        *time.Time
}

// ContractPatch holds the editable fields of a contract. Nil fields are left
// unchanged; an empty CategoryID or DocLink clears the value. Status is changed
// through ChangeStatus only.
type ContractPatch struct {
	Title          *string
	Partner        *string
	Department     *string
	Requester      *string
	Priority       *contract.Priority
	CategoryID     *string
	Value          *float64
	Description    *string
	DocLink        *string
	ReviewDeadline *time.Time
	StartDate      *time.Time
	EndDate        *time.Time
}

// AttachmentError reports a file that failed to attach after the contract
// itself was stored.
type AttachmentError struct {
	FileName string
	Err      error
}

func (e AttachmentError) Error() string { return e.FileName + ": " + e.Err.Error() }

func (e AttachmentError) Unwrap() error { return e.Err }

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// validateContract checks the stored shape of c. The category reference is only
// resolved when checkCategory is set, so a contract whose category was deleted
// stays editable.
func validateContract(ctx context.Context, s *Service, c *contract.Contract, checkCategory bool) error {
	v := &contract.ValidationError{}
	for field, val := range map[string]string{
		"title":      c.Title,
		"partner":    c.Partner,
		"department": c.Department,
		"requester":  c.Requester,
	} {
		if val == "" {
			v.Add(field, "is required")
		}
	}
	if !c.Priority.Valid() {
		v.Add("priority", fmt.Sprintf("unknown priority %q", c.Priority))
	}
	// Value and date-range checks go past the required-field rule. They stand
	// in for the check constraints a relational schema would carry, so every
	// backend rejects the same rows.
	if c.Value != nil && *c.Value < 0 {
		v.Add("value", "must not be negative")
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		v.Add("end_date", "must not be before start_date")
	}
	if checkCategory && c.CategoryID != nil {
		if _, err := s.store.Categories.Get(ctx, *c.CategoryID); err != nil {
			if !errors.Is(err, contract.ErrNotFound) {
				return err
			}
			v.Add("category_id", "unknown category")
		}
	}
	return v.OrNil()
}

// CreateContractRequest stores a new contract in pending_review, records the
// initial history entry and then uploads the attachments one by one. Attachment
// failures do not undo the contract; they are returned alongside it.
func (s *Service) CreateContractRequest(ctx context.Context, actor Actor, in ContractInput, attachments ...Attachment) (*contract.Contract, []AttachmentError, error) {
	c := &contract.Contract{
		Title:           strings.TrimSpace(in.Title),
		Partner:         strings.TrimSpace(in.Partner),
		Department:      strings.TrimSpace(in.Department),
		Requester:       strings.TrimSpace(in.Requester),
		RequesterUserID: actor.userID(),
		Status:          contract.StatusPendingReview,
		Priority:        in.Priority,
		CategoryID:      optional(in.CategoryID),
		Value:           in.Value,
		Description:     strings.TrimSpace(in.Description),
		DocLink:         optional(in.DocLink),
		ReviewDeadline:  in.ReviewDeadline,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
	}
	if c.Priority == "" {
		c.Priority = contract.PriorityMedium
	}
	if err := validateContract(ctx, s, c, true); err != nil {
		return nil, nil, err
	}

	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := s.store.Contracts.Create(ctx, c); err != nil {
		return nil, nil, fmt.Errorf("create contract: %w", err)
	}
	s.invalidate(ctx, cache.KeyContracts)
	metrics.ContractsCreated.Inc()

	entry := &contract.StatusHistoryEntry{
		ContractID:    c.ID,
		NewStatus:     c.Status,
		ChangedBy:     actor.userID(),
		ChangedByName: actor.displayName(),
		CreatedAt:     now,
	}
	if err := s.store.History.Append(ctx, entry); err != nil {
		logger.FromContext(ctx).Errorf("contract %s: initial history entry: %v", c.ID, err)
	}

	var failed []AttachmentError
	for _, a := range attachments {
		a.Liquidation = false
		if _, err := s.attach(ctx, actor, c, a); err != nil {
			logger.FromContext(ctx).Warnf("contract %s: attachment %q: %v", c.ID, a.FileName, err)
			failed = append(failed, AttachmentError{FileName: a.FileName, Err: err})
		}
	}
	return c, failed, nil
}

func (s *Service) GetContract(ctx context.Context, id string) (*contract.Contract, error) {
	return s.store.Contracts.Get(ctx, id)
}

// ListContracts returns the filtered contract collection, newest first.
func (s *Service) ListContracts(ctx context.Context, f contract.ContractFilter) ([]*contract.Contract, error) {
	all, err := s.allContracts(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(all), nil
}

// UpdateContract applies a patch. Administrators may edit any contract;
// other users only the contracts they requested.
func (s *Service) UpdateContract(ctx context.Context, actor Actor, id string, p ContractPatch) (*contract.Contract, error) {
	c, err := s.store.Contracts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && (c.RequesterUserID == nil || actor.UserID == "" || *c.RequesterUserID != actor.UserID) {
		return nil, contract.ErrForbidden
	}

	setString := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setString(&c.Title, p.Title)
	setString(&c.Partner, p.Partner)
	setString(&c.Department, p.Department)
	setString(&c.Requester, p.Requester)
	setString(&c.Description, p.Description)
	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.CategoryID != nil {
		c.CategoryID = optional(p.CategoryID)
	}
	if p.DocLink != nil {
		c.DocLink = optional(p.DocLink)
	}
	if p.Value != nil {
		c.Value = p.Value
	}
	if p.ReviewDeadline != nil {
		c.ReviewDeadline = p.ReviewDeadline
	}
	if p.StartDate != nil {
		c.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		c.EndDate = p.EndDate
	}
	if err := validateContract(ctx, s, c, p.CategoryID != nil); err != nil {
		return nil, err
	}

	c.UpdatedAt = s.now()
	if err := s.store.Contracts.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update contract: %w", err)
	}
	s.invalidate(ctx, cache.KeyContracts)
	return c, nil
}

// Transitions lists the statuses the contract may move to.
func (s *Service) Transitions(ctx context.Context, id string) ([]contract.Status, error) {
	c, err := s.store.Contracts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return contract.TransitionTargets(c.Status), nil
}

// ChangeStatus moves a contract to a new status and appends a history entry.
// Requesting the current status is a no-op; liquidated contracts are final.
func (s *Service) ChangeStatus(ctx context.Context, actor Actor, id string, to contract.Status, note string) (*contract.Contract, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c, err := s.store.Contracts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == to {
		return c, nil
	}
	if err := contract.CheckTransition(c.Status, to); err != nil {
		return nil, err
	}

	old := c.Status
	now := s.now()
	c.Status = to
	c.UpdatedAt = now
	if err := s.store.Contracts.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s.invalidate(ctx, cache.KeyContracts)
	metrics.StatusTransitions.WithLabelValues(string(to)).Inc()

	entry := &contract.StatusHistoryEntry{
		ContractID:    c.ID,
		OldStatus:     &old,
		NewStatus:     to,
		ChangedBy:     actor.userID(),
		ChangedByName: actor.displayName(),
		Note:          optional(&note),
		CreatedAt:     now,
	}
	if err := s.store.History.Append(ctx, entry); err != nil {
		logger.FromContext(ctx).Errorf("contract %s: history %s -> %s not recorded: %v", c.ID, old, to, err)
	}
	logger.FromContext(ctx).Infof("contract %s: status %s -> %s", c.ID, old, to)
	return c, nil
}

// StatusHistory returns the audit trail of a contract, oldest first.
func (s *Service) StatusHistory(ctx context.Context, actor Actor, id string) ([]*contract.StatusHistoryEntry, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.store.Contracts.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.History.ListByContract(ctx, id)
}

// DeleteContract removes a contract with its obligations, files and history.
// Stored objects are removed afterwards; failures there only leave orphans.
func (s *Service) DeleteContract(ctx context.Context, actor Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.store.Contracts.Get(ctx, id); err != nil {
		return err
	}
	files, err := s.store.Files.ListByContract(ctx, id)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	if s.store.Cascade != nil {
		if err := s.store.Cascade.DeleteContractCascade(ctx, id); err != nil {
			return fmt.Errorf("delete contract: %w", err)
		}
	} else {
		if err := s.deleteOwned(ctx, id); err != nil {
			return err
		}
	}
	s.invalidate(ctx, cache.KeyContracts, cache.KeyObligations)

	for _, f := range files {
		if err := s.objects.DeleteFile(ctx, f.FilePath); err != nil {
			logger.FromContext(ctx).Warnf("contract %s: orphaned object %s: %v", id, f.FilePath, err)
		}
	}
	logger.FromContext(ctx).Infof("contract %s deleted with %d file(s)", id, len(files))
	return nil
}

func (s *Service) deleteOwned(ctx context.Context, id string) error {
	if err := s.store.Obligations.DeleteByContract(ctx, id); err != nil {
		return fmt.Errorf("delete obligations: %w", err)
	}
	if err := s.store.Files.DeleteByContract(ctx, id); err != nil {
		return fmt.Errorf("delete files: %w", err)
	}
	if err := s.store.History.DeleteByContract(ctx, id); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if err := s.store.Contracts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	return nil
}
