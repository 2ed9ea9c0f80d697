package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContractFilter(t *testing.T) {
	contracts := []*Contract{
		{ID: "1", Title: "Cloud services agreement", Partner: "FPT Telecom", Status: StatusPendingReview, CategoryID: strp("it")},
		{ID: "2", Title: "Office lease", Partner: "Landmark Holdings", Status: StatusActive},
		{ID: "3", Title: "Marketing retainer", Partner: "Cloudy Media", Status: StatusActive, CategoryID: strp("mkt")},
	}

	ids := func(cs []*Contract) []string {
		out := []string{}
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}

	require.Equal(t, []string{"1", "2", "3"}, ids(ContractFilter{}.Apply(contracts)))
	require.Equal(t, []string{"1", "2", "3"}, ids(ContractFilter{Status: All, CategoryID: All}.Apply(contracts)))

	// partner-only match still returns the contract
	require.Equal(t, []string{"2"}, ids(ContractFilter{Search: "LANDMARK"}.Apply(contracts)))
	require.Equal(t, []string{"1", "3"}, ids(ContractFilter{Search: "cloud"}.Apply(contracts)))
	require.Equal(t, []string{"3"}, ids(ContractFilter{Search: "cloud", Status: "active"}.Apply(contracts)))
	require.Equal(t, []string{"1"}, ids(ContractFilter{CategoryID: "it"}.Apply(contracts)))
	require.Empty(t, ContractFilter{Search: "cloud services", CategoryID: "mkt"}.Apply(contracts))
	require.Empty(t, ContractFilter{Search: "clod"}.Apply(contracts))
}

func TestObligationFilter(t *testing.T) {
	late := &Obligation{Type: ObligationPayment, Status: ObligationPending, DueDate: at(2026, 3, 1)}
	soon := &Obligation{Type: ObligationDelivery, Status: ObligationPending, DueDate: at(2026, 3, 20)}

	require.True(t, ObligationFilter{Status: "overdue"}.Match(late, testNow))
	require.False(t, ObligationFilter{Status: "pending"}.Match(late, testNow))
	require.True(t, ObligationFilter{Type: "delivery", Status: All}.Match(soon, testNow))
	require.False(t, ObligationFilter{Type: "payment"}.Match(soon, testNow))
}

func TestSortObligationsByDue(t *testing.T) {
	obs := []*Obligation{
		{ID: "none"},
		{ID: "b", DueDate: at(2026, 5, 1)},
		{ID: "a", DueDate: at(2026, 4, 1)},
	}
	SortObligationsByDue(obs)
	require.Equal(t, "a", obs[0].ID)
	require.Equal(t, "b", obs[1].ID)
	require.Equal(t, "none", obs[2].ID)
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "hop-dong-dich-vu", Slugify("Hợp đồng dịch vụ"))
	require.Equal(t, "it-cloud", Slugify("  IT & Cloud  "))
	require.Equal(t, "nda-2026", Slugify("NDA 2026"))
	require.Equal(t, "", Slugify("!!!"))
}
