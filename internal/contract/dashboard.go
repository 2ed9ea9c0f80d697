package contract

import (
	"sort"
	"time"
)

const (
	DefaultExpiringWindow = 30 * day
	DefaultUpcomingLimit  = 5
)

// SummaryOptions tunes the dashboard buckets. Zero values fall back to the
// defaults above.
type SummaryOptions struct {
	ExpiringWithin time.Duration
	UpcomingLimit  int

	// KnownCategories, when non-nil, holds the ids of existing categories.
	// Contracts pointing at an id outside the set are counted as uncategorized.
	KnownCategories map[string]bool
}

type CategoryCount struct {
	CategoryID *string `json:"categoryId"`
	Count      int     `json:"count"`
}

type ObligationCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	Completed int `json:"completed"`
}

// ObligationItem is an obligation with its read-time status and day distance.
type ObligationItem struct {
	*Obligation
	EffectiveStatus ObligationStatus `json:"effectiveStatus"`
	DaysUntil       *int             `json:"daysUntil"`
}

type Summary struct {
	TotalContracts   int              `json:"totalContracts"`
	PendingReview    int              `json:"pendingReview"`
	SignedActive     int              `json:"signedActive"`
	ExpiringSoon     int              `json:"expiringSoon"`
	PendingContracts []*Contract      `json:"pendingContracts"`
	Expiring         []*Contract      `json:"expiring"`
	ByCategory       []CategoryCount  `json:"byCategory"`
	Obligations      ObligationCounts `json:"obligations"`
	Attention        []ObligationItem `json:"attention"`
	GeneratedAt      time.Time        `json:"generatedAt"`
}

func IsPendingReview(s Status) bool { return s == StatusPendingReview || s == StatusInReview }
func IsSignedActive(s Status) bool  { return s == StatusSigned || s == StatusActive }

// IsExpiringSoon reports whether c is signed or active and ends within
// [now, now+window].
func IsExpiringSoon(c *Contract, now time.Time, window time.Duration) bool {
	if !IsSignedActive(c.Status) || c.EndDate == nil {
		return false
	}
	end := *c.EndDate
	return !end.Before(now) && !end.After(now.Add(window))
}

// Summarize derives every dashboard figure from the full collections. It is a
// pure function and is recomputed on each request.
func Summarize(contracts []*Contract, obligations []*Obligation, now time.Time, opts SummaryOptions) Summary {
	window := opts.ExpiringWithin
	if window <= 0 {
		window = DefaultExpiringWindow
	}
	limit := opts.UpcomingLimit
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}

	s := Summary{
		TotalContracts:   len(contracts),
		PendingContracts: []*Contract{},
		Expiring:         []*Contract{},
		Attention:        []ObligationItem{},
		GeneratedAt:      now,
	}

	byCat := map[string]int{}
	uncategorized := 0
	for _, c := range contracts {
		if IsPendingReview(c.Status) {
			s.PendingReview++
			s.PendingContracts = append(s.PendingContracts, c)
		}
		if IsSignedActive(c.Status) {
			s.SignedActive++
		}
		if IsExpiringSoon(c, now, window) {
			s.ExpiringSoon++
			s.Expiring = append(s.Expiring, c)
		}
		if c.CategoryID == nil || *c.CategoryID == "" || (opts.KnownCategories != nil && !opts.KnownCategories[*c.CategoryID]) {
			uncategorized++
		} else {
			byCat[*c.CategoryID]++
		}
	}
	s.ByCategory = categoryCounts(byCat, uncategorized)

	var overdue, pending []ObligationItem
	for _, o := range obligations {
		item := ObligationItem{
			Obligation:      o,
			EffectiveStatus: EffectiveObligationStatus(o, now),
			DaysUntil:       ObligationDays(o, now),
		}
		s.Obligations.Total++
		switch item.EffectiveStatus {
		case ObligationOverdue:
			s.Obligations.Overdue++
			overdue = append(overdue, item)
		case ObligationPending:
			s.Obligations.Pending++
			pending = append(pending, item)
		case ObligationCompleted:
			s.Obligations.Completed++
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return dueBefore(pending[i].DueDate, pending[j].DueDate)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	s.Attention = append(s.Attention, overdue...)
	s.Attention = append(s.Attention, pending...)
	return s
}

func categoryCounts(byCat map[string]int, uncategorized int) []CategoryCount {
	ids := make([]string, 0, len(byCat))
	for id := range byCat {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]CategoryCount, 0, len(ids)+1)
	for _, id := range ids {
		id := id
		out = append(out, CategoryCount{CategoryID: &id, Count: byCat[id]})
	}
	if uncategorized > 0 {
		out = append(out, CategoryCount{Count: uncategorized})
	}
	return out
}

// dueBefore orders due dates ascending with missing dates last.
func dueBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
