package handler

import (
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/contract/service"
)

type contractView struct {
	*contract.Contract
	StatusBadge     contract.Badge    `json:"statusBadge"`
	PriorityBadge   contract.Badge    `json:"priorityBadge"`
	DepartmentLabel string            `json:"departmentLabel"`
	ReviewDaysUntil *int              `json:"reviewDaysUntil,omitempty"`
	ReviewDueText   string            `json:"reviewDueText,omitempty"`
	Transitions     []contract.Status `json:"transitions,omitempty"`
}

func newContractView(c *contract.Contract, now time.Time) contractView {
	v := contractView{
		Contract:        c,
		StatusBadge:     contract.StatusBadge(c.Status),
		PriorityBadge:   contract.PriorityBadge(c.Priority),
		DepartmentLabel: contract.DepartmentLabel(c.Department),
	}
	if c.ReviewDeadline != nil {
		d := contract.DaysUntil(*c.ReviewDeadline, now)
		v.ReviewDaysUntil = &d
		v.ReviewDueText = contract.DueText(d)
	}
	return v
}

func contractViews(cs []*contract.Contract, now time.Time) []contractView {
	out := make([]contractView, 0, len(cs))
	for _, c := range cs {
		out = append(out, newContractView(c, now))
	}
	return out
}

// obligationDisplay carries the presentation fields shared by obligation views.
type obligationDisplay struct {
	StatusBadge contract.Badge `json:"statusBadge"`
	TypeLabel   string         `json:"typeLabel"`
	DueText     string         `json:"dueText,omitempty"`
}

func display(o *contract.Obligation, status contract.ObligationStatus, days *int) obligationDisplay {
	d := obligationDisplay{
		StatusBadge: contract.ObligationStatusBadge(status),
		TypeLabel:   contract.ObligationTypeLabel(o.Type),
	}
	if days != nil {
		d.DueText = contract.DueText(*days)
	}
	return d
}

type obligationView struct {
	service.ObligationEntry
	obligationDisplay
}

func obligationViews(es []service.ObligationEntry) []obligationView {
	out := make([]obligationView, 0, len(es))
	for _, e := range es {
		out = append(out, obligationView{
			ObligationEntry:   e,
			obligationDisplay: display(e.Obligation, e.EffectiveStatus, e.DaysUntil),
		})
	}
	return out
}

type attentionView struct {
	contract.ObligationItem
	obligationDisplay
}

type dashboardView struct {
	contract.Summary
	PendingContracts []contractView  `json:"pendingContracts"`
	Expiring         []contractView  `json:"expiring"`
	Attention        []attentionView `json:"attention"`
}

func newDashboardView(s contract.Summary) dashboardView {
	v := dashboardView{
		Summary:          s,
		PendingContracts: contractViews(s.PendingContracts, s.GeneratedAt),
		Expiring:         contractViews(s.Expiring, s.GeneratedAt),
		Attention:        make([]attentionView, 0, len(s.Attention)),
	}
	for _, it := range s.Attention {
		v.Attention = append(v.Attention, attentionView{
			ObligationItem:    it,
			obligationDisplay: display(it.Obligation, it.EffectiveStatus, it.DaysUntil),
		})
	}
	return v
}

type historyView struct {
	*contract.StatusHistoryEntry
	OldStatusBadge *contract.Badge `json:"oldStatusBadge,omitempty"`
	NewStatusBadge contract.Badge  `json:"newStatusBadge"`
}

func historyViews(hs []*contract.StatusHistoryEntry) []historyView {
	out := make([]historyView, 0, len(hs))
	for _, h := range hs {
		v := historyView{StatusHistoryEntry: h, NewStatusBadge: contract.StatusBadge(h.NewStatus)}
		if h.OldStatus != nil {
			b := contract.StatusBadge(*h.OldStatus)
			v.OldStatusBadge = &b
		}
		out = append(out, v)
	}
	return out
}
