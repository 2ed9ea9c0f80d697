package contract

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func at(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestDaysUntil(t *testing.T) {
	cases := []struct {
		name string
		due  time.Time
		want int
	}{
		{"exactly now", testNow, 0},
		{"earlier today", *at(2026, 3, 10), 0},
		{"yesterday", *at(2026, 3, 9), -1},
		{"in 33 hours", *at(2026, 3, 12), 2},
		{"in one hour", testNow.Add(time.Hour), 1},
		{"a week ago", testNow.Add(-7 * 24 * time.Hour), -7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DaysUntil(tc.due, testNow))
		})
	}
}

func TestDueText(t *testing.T) {
	require.Equal(t, "due today", DueText(0))
	require.Equal(t, "1 day remaining", DueText(1))
	require.Equal(t, "12 days remaining", DueText(12))
	require.Equal(t, "overdue by 1 day", DueText(-1))
	require.Equal(t, "overdue by 4 days", DueText(-4))
}

func TestEffectiveObligationStatus(t *testing.T) {
	pendingToday := &Obligation{Status: ObligationPending, DueDate: at(2026, 3, 10)}
	require.Equal(t, ObligationPending, EffectiveObligationStatus(pendingToday, testNow))
	require.Equal(t, 0, *ObligationDays(pendingToday, testNow))

	pendingPast := &Obligation{Status: ObligationPending, DueDate: at(2026, 3, 1)}
	require.Equal(t, ObligationOverdue, EffectiveObligationStatus(pendingPast, testNow))

	completedPast := &Obligation{Status: ObligationCompleted, DueDate: at(2026, 3, 1)}
	require.Equal(t, ObligationCompleted, EffectiveObligationStatus(completedPast, testNow))

	storedOverdue := &Obligation{Status: ObligationOverdue, DueDate: at(2026, 4, 1)}
	require.Equal(t, ObligationOverdue, EffectiveObligationStatus(storedOverdue, testNow))

	undated := &Obligation{Status: ObligationPending}
	require.Equal(t, ObligationPending, EffectiveObligationStatus(undated, testNow))
	require.Nil(t, ObligationDays(undated, testNow))
}

func TestNonNegativeDaysNeverDerivedOverdue(t *testing.T) {
	for h := 0; h < 24*40; h += 5 {
		due := testNow.Add(time.Duration(h-24*20) * time.Hour)
		o := &Obligation{Status: ObligationPending, DueDate: &due}
		if DaysUntil(due, testNow) >= 0 {
			require.NotEqual(t, ObligationOverdue, EffectiveObligationStatus(o, testNow), "due=%s", due)
		}
	}
}

func TestTransitionTargets(t *testing.T) {
	targets := TransitionTargets(StatusDraft)
	require.Len(t, targets, len(AllStatuses)-1)
	require.NotContains(t, targets, StatusDraft)
	require.Contains(t, targets, StatusLiquidated)

	require.Empty(t, TransitionTargets(StatusLiquidated))
}

func TestCheckTransition(t *testing.T) {
	require.NoError(t, CheckTransition(StatusDraft, StatusExpired))
	require.NoError(t, CheckTransition(StatusActive, StatusDraft))
	require.True(t, errors.Is(CheckTransition(StatusLiquidated, StatusActive), ErrTerminalStatus))

	err := CheckTransition(StatusDraft, Status("archived"))
	require.True(t, IsValidation(err))
}

func TestAcceptsLiquidationDocument(t *testing.T) {
	require.True(t, AcceptsLiquidationDocument(StatusSigned))
	require.True(t, AcceptsLiquidationDocument(StatusLiquidated))
	require.False(t, AcceptsLiquidationDocument(StatusPendingReview))
	require.False(t, AcceptsLiquidationDocument(StatusDraft))
}
