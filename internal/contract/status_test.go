package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusBadge(t *testing.T) {
	b := StatusBadge(StatusPendingReview)
	require.Equal(t, "Pending review", b.Label)
	require.Equal(t, SeverityWarning, b.Severity)

	require.Equal(t, SeverityDanger, StatusBadge(StatusRejected).Severity)

	for _, s := range AllStatuses {
		require.True(t, s.Valid(), string(s))
		require.NotEqual(t, string(s), StatusBadge(s).Label)
	}
}

func TestUnknownCodesFallBackToRawCode(t *testing.T) {
	b := StatusBadge(Status("on_hold"))
	require.Equal(t, "on_hold", b.Label)
	require.Equal(t, SeverityNeutral, b.Severity)

	require.Equal(t, "critical", PriorityBadge(Priority("critical")).Label)
	require.Equal(t, "waived", ObligationStatusBadge(ObligationStatus("waived")).Label)
	require.Equal(t, "insurance", ObligationTypeLabel(ObligationType("insurance")))
	require.Equal(t, "legal", DepartmentLabel("legal"))
}

func TestPriorityBadge(t *testing.T) {
	require.Equal(t, SeverityDanger, PriorityBadge(PriorityUrgent).Severity)
	require.Equal(t, SeverityWarning, PriorityBadge(PriorityHigh).Severity)
	require.Equal(t, "Low", PriorityBadge(PriorityLow).Label)
}

func TestValidationError(t *testing.T) {
	var v ValidationError
	require.NoError(t, v.OrNil())
	v.Add("title", "required").Add("partner", "required")
	err := v.OrNil()
	require.Error(t, err)
	require.True(t, IsValidation(err))
	require.Equal(t, "validation failed: partner: required, title: required", err.Error())
}
