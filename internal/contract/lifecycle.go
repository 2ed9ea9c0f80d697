package contract

import (
	"fmt"
	"math"
	"time"
)

const day = 24 * time.Hour

// DaysUntil returns ceil((due-now)/1 day). Negative values mean the date has
// passed by at least one full day; a due date within the current partial day
// yields 0 (due today).
func DaysUntil(due, now time.Time) int {
	d := math.Ceil(float64(due.Sub(now)) / float64(day))
	if d == 0 {
		// ceil can produce -0 for small negative spans
		return 0
	}
	return int(d)
}

// DueText phrases a day distance for display.
func DueText(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("overdue by %d %s", -days, plural(-days))
	case days == 0:
		return "due today"
	default:
		return fmt.Sprintf("%d %s remaining", days, plural(days))
	}
}

func plural(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}

// EffectiveObligationStatus derives the status to display at read time:
// a pending obligation whose due date is at least one day past reads as
// overdue. Stored values are never rewritten by this function.
func EffectiveObligationStatus(o *Obligation, now time.Time) ObligationStatus {
	if o.Status != ObligationPending || o.DueDate == nil {
		return o.Status
	}
	if DaysUntil(*o.DueDate, now) < 0 {
		return ObligationOverdue
	}
	return ObligationPending
}

// ObligationDays returns the day distance for an obligation, or nil when it has
// no due date.
func ObligationDays(o *Obligation, now time.Time) *int {
	if o.DueDate == nil {
		return nil
	}
	d := DaysUntil(*o.DueDate, now)
	return &d
}

// IsTerminal reports whether no status change may follow s.
func IsTerminal(s Status) bool {
	return s == StatusLiquidated
}

// TransitionTargets lists every status an administrator may move a contract to
// from current. Transitions are free choices; only liquidated is terminal.
func TransitionTargets(current Status) []Status {
	if IsTerminal(current) {
		return nil
	}
	out := make([]Status, 0, len(AllStatuses)-1)
	for _, s := range AllStatuses {
		if s != current {
			out = append(out, s)
		}
	}
	return out
}

// CheckTransition validates a requested status change.
func CheckTransition(from, to Status) error {
	if !to.Valid() {
		return (&ValidationError{}).Add("status", fmt.Sprintf("unknown status %q", to))
	}
	if IsTerminal(from) {
		return ErrTerminalStatus
	}
	return nil
}

// AcceptsLiquidationDocument reports whether a closeout document may be
// attached to a contract in status s.
func AcceptsLiquidationDocument(s Status) bool {
	switch s {
	case StatusSigned, StatusActive, StatusExpired, StatusLiquidated:
		return true
	}
	return false
}
