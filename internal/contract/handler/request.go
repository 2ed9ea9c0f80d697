package handler

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract/service"
)

// Date accepts either a calendar date ("2024-06-30") or an RFC 3339 timestamp.
// Calendar dates are read as midnight UTC.
type Date struct{ time.Time }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t.UTC()
	return nil
}

func (d *Date) ptr() *time.Time {
	if d == nil || d.Time.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

type contractRequest struct {
	Title          string   `json:"title"`
	Partner        string   `json:"partner"`
	Department     string   `json:"department"`
	Requester      string   `json:"requester"`
	Priority       string   `json:"priority"`
	CategoryID     *string  `json:"categoryId"`
	Value          *float64 `json:"value"`
	Description    string   `json:"description"`
	DocLink        *string  `json:"docLink"`
	ReviewDeadline *Date    `json:"reviewDeadline"`
	StartDate      *Date    `json:"startDate"`
	EndDate        *Date    `json:"endDate"`
}

func (r contractRequest) input() service.ContractInput {
	return service.ContractInput{
		Title:          r.Title,
		Partner:        r.Partner,
		Department:     r.Department,
		Requester:      r.Requester,
		Priority:       contract.Priority(r.Priority),
		CategoryID:     r.CategoryID,
		Value:          r.Value,
		Description:    r.Description,
		DocLink:        r.DocLink,
		ReviewDeadline: r.ReviewDeadline.ptr(),
		StartDate:      r.StartDate.ptr(),
		EndDate:        r.EndDate.ptr(),
	}
}

type patchRequest struct {
	Title          *string  `json:"title"`
	Partner        *string  `json:"partner"`
	Department     *string  `json:"department"`
	Requester      *string  `json:"requester"`
	Priority       *string  `json:"priority"`
	CategoryID     *string  `json:"categoryId"`
	Value          *float64 `json:"value"`
	Description    *string  `json:"description"`
	DocLink        *string  `json:"docLink"`
	ReviewDeadline *Date    `json:"reviewDeadline"`
	StartDate      *Date    `json:"startDate"`
	EndDate        *Date    `json:"endDate"`
	Status         *string  `json:"status"`
}

func (r patchRequest) patch() service.ContractPatch {
	p := service.ContractPatch{
		Title:          r.Title,
		Partner:        r.Partner,
		Department:     r.Department,
		Requester:      r.Requester,
		CategoryID:     r.CategoryID,
		Value:          r.Value,
		Description:    r.Description,
		DocLink:        r.DocLink,
		ReviewDeadline: r.ReviewDeadline.ptr(),
		StartDate:      r.StartDate.ptr(),
		EndDate:        r.EndDate.ptr(),
	}
	if r.Priority != nil {
		pr := contract.Priority(*r.Priority)
		p.Priority = &pr
	}
	return p
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type obligationRequest struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	DueDate     *Date    `json:"dueDate"`
	Amount      *float64 `json:"amount"`
}

type categoryRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}
