package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabKeys(t *testing.T) {
	assert.Equal(t, []string{TabAll, TabPending, TabPreparing, TabOnTheWay, TabDelivered}, TabKeys(RoleCustomer))
	assert.Equal(t, []string{TabAll, TabPending, TabPreparing, TabOutForDelivery, TabDelivered, TabCancelled}, TabKeys(RoleAdmin))
	assert.Equal(t, []string{TabAll, TabPreparing, TabOutForDelivery, TabDelivered}, TabKeys(RoleRider))
}

func TestTabStatuses(t *testing.T) {
	testCases := []struct {
		name string
		role string
		tab  string
		want []string
	}{
		{name: "all means no filter", role: RoleCustomer, tab: TabAll, want: nil},
		{name: "empty means no filter", role: RoleCustomer, tab: "", want: nil},
		{name: "unknown tab means no filter", role: RoleCustomer, tab: "refunds", want: nil},
		{
			name: "customer preparing collapses three statuses",
			role: RoleCustomer, tab: TabPreparing,
			want: []string{OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReadyForPickup},
		},
		{
			name: "customer on the way",
			role: RoleCustomer, tab: TabOnTheWay,
			want: []string{OrderStatusOutForDelivery},
		},
		{
			name: "admin cancelled tab",
			role: RoleAdmin, tab: TabCancelled,
			want: []string{OrderStatusCancelled},
		},
		{
			name: "rider preparing is only ready_for_pickup",
			role: RoleRider, tab: TabPreparing,
			want: []string{OrderStatusReadyForPickup},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TabStatuses(tc.role, tc.tab))
		})
	}
}

func TestTabStatuses_ReturnsCopy(t *testing.T) {
	first := TabStatuses(RoleCustomer, TabPreparing)
	require.NotEmpty(t, first)
	first[0] = "mutated"

	second := TabStatuses(RoleCustomer, TabPreparing)
	assert.Equal(t, OrderStatusConfirmed, second[0])
}

func TestTabCounts(t *testing.T) {
	byStatus := map[string]int64{
		OrderStatusPending:        2,
		OrderStatusConfirmed:      1,
		OrderStatusPreparing:      3,
		OrderStatusReadyForPickup: 1,
		OrderStatusOutForDelivery: 4,
		OrderStatusDelivered:      10,
		OrderStatusCancelled:      2,
	}

	counts := TabCounts(RoleCustomer, byStatus)
	assert.Equal(t, int64(23), counts[TabAll])
	assert.Equal(t, int64(2), counts[TabPending])
	assert.Equal(t, int64(5), counts[TabPreparing])
	assert.Equal(t, int64(4), counts[TabOnTheWay])
	assert.Equal(t, int64(10), counts[TabDelivered])

	adminCounts := TabCounts(RoleAdmin, byStatus)
	assert.Equal(t, int64(2), adminCounts[TabCancelled])
}
