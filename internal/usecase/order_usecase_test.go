package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kainan-backend/internal/domain"
	"kainan-backend/internal/events"
)

var testPricing = CheckoutPricing{
	DeliveryFees: map[string]float64{"inside_city": 49, "outside_city": 89},
	TaxRate:      0.12,
	DefaultETA:   45 * time.Minute,
}

var testNow = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

func newTestOrderUsecase(orderRepo *fakeOrderRepo, assignmentRepo *fakeAssignmentRepo) (*OrderUsecase, *capturePublisher, *fakeCache) {
	pub := &capturePublisher{}
	memCache := newFakeCache()
	uc := NewOrderUsecase(orderRepo, assignmentRepo, fakeTxManager{}, pub, memCache, time.Minute, testPricing)
	uc.now = func() time.Time { return testNow }
	return uc, pub, memCache
}

func checkoutReq() CheckoutReq {
	return CheckoutReq{
		Items: []CheckoutItem{
			{ProductID: "p1", ProductName: "Pepperoni Pizza", Quantity: 2, UnitPrice: 250},
			{ProductID: "p2", ProductName: "Garlic Bread", Quantity: 1, UnitPrice: 80},
		},
		PaymentMethod:   domain.PaymentMethodCOD,
		FulfillmentType: domain.FulfillmentDelivery,
		DeliveryZone:    "inside_city",
		DeliveryAddress: domain.JSONB{"street": "123 Mabini St", "city": "Quezon City"},
	}
}

func TestCheckout_ComputesTotals(t *testing.T) {
	repo := newFakeOrderRepo()
	uc, _, _ := newTestOrderUsecase(repo, newFakeAssignmentRepo())

	order, err := uc.Checkout(context.Background(), "user-1", checkoutReq())
	require.NoError(t, err)

	// 2*250 + 80 = 580 subtotal; 49 fee; 12% tax.
	assert.Equal(t, 580.0, order.Subtotal)
	assert.Equal(t, 49.0, order.DeliveryFee)
	assert.InDelta(t, 69.6, order.Tax, 0.001)
	assert.InDelta(t, 698.6, order.TotalAmount, 0.001)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	require.NotNil(t, order.EstimatedDeliveryTime)
	assert.Equal(t, testNow.Add(45*time.Minute), *order.EstimatedDeliveryTime)
	assert.NotEmpty(t, order.OrderNumber)

	history, err := uc.GetOrderHistory(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusPending, history[0].NewStatus)
}

func TestCheckout_DiscountCappedAtSubtotal(t *testing.T) {
	uc, _, _ := newTestOrderUsecase(newFakeOrderRepo(), newFakeAssignmentRepo())

	req := checkoutReq()
	req.Discount = 10000

	order, err := uc.Checkout(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, order.Subtotal, order.Discount)
	assert.GreaterOrEqual(t, order.TotalAmount, 0.0)
}

func TestCheckout_ValidationFailures(t *testing.T) {
	uc, _, _ := newTestOrderUsecase(newFakeOrderRepo(), newFakeAssignmentRepo())
	ctx := context.Background()

	req := checkoutReq()
	req.Items = nil
	_, err := uc.Checkout(ctx, "user-1", req)
	assert.Error(t, err)

	req = checkoutReq()
	req.DeliveryAddress = nil
	_, err = uc.Checkout(ctx, "user-1", req)
	assert.Error(t, err)

	req = checkoutReq()
	req.FulfillmentType = domain.FulfillmentPickup
	req.PickupLocation = nil
	_, err = uc.Checkout(ctx, "user-1", req)
	assert.Error(t, err)

	req = checkoutReq()
	req.DeliveryZone = "another_planet"
	_, err = uc.Checkout(ctx, "user-1", req)
	assert.Error(t, err)
}

func TestCheckout_PickupHasNoDeliveryFee(t *testing.T) {
	uc, _, _ := newTestOrderUsecase(newFakeOrderRepo(), newFakeAssignmentRepo())

	req := checkoutReq()
	req.FulfillmentType = domain.FulfillmentPickup
	req.PickupLocation = domain.JSONB{"branch": "Main"}
	req.DeliveryAddress = nil

	order, err := uc.Checkout(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, order.DeliveryFee)
}

func TestGetOrderByID_CacheAside(t *testing.T) {
	order := &domain.Order{ID: "o1", UserID: "user-1", Status: domain.OrderStatusPending}
	repo := newFakeOrderRepo(order)
	uc, _, _ := newTestOrderUsecase(repo, newFakeAssignmentRepo())
	ctx := context.Background()

	_, err := uc.GetOrderByID(ctx, "o1")
	require.NoError(t, err)
	_, err = uc.GetOrderByID(ctx, "o1")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.getByIDCalls)
}

func TestGetOrderView_CustomerCannotSeeOthersOrders(t *testing.T) {
	order := &domain.Order{ID: "o1", UserID: "user-1", Status: domain.OrderStatusPending, CreatedAt: testNow}
	uc, _, _ := newTestOrderUsecase(newFakeOrderRepo(order), newFakeAssignmentRepo())

	_, err := uc.GetOrderView(context.Background(), "o1", &domain.User{ID: "user-2", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	view, err := uc.GetOrderView(context.Background(), "o1", &domain.User{ID: "user-1", Role: domain.RoleCustomer})
	require.NoError(t, err)
	assert.Equal(t, "Pending", view.Status.Label)
}

func TestGetOrderView_ToleratesMissingAssignment(t *testing.T) {
	order := &domain.Order{ID: "o1", UserID: "user-1", Status: domain.OrderStatusPreparing, CreatedAt: testNow}
	uc, _, _ := newTestOrderUsecase(newFakeOrderRepo(order), newFakeAssignmentRepo())

	view, err := uc.GetOrderView(context.Background(), "o1", &domain.User{ID: "admin-1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Nil(t, view.Assignment)
}

func TestGetOrdersByTab_CustomerScopedAndFiltered(t *testing.T) {
	orders := []*domain.Order{
		{ID: "o1", UserID: "user-1", Status: domain.OrderStatusPending},
		{ID: "o2", UserID: "user-1", Status: domain.OrderStatusPreparing},
		{ID: "o3", UserID: "user-1", Status: domain.OrderStatusDelivered},
		{ID: "o4", UserID: "user-2", Status: domain.OrderStatusPending},
	}
	uc, _, _ := newTestOrderUsecase(newFakeOrderRepo(orders...), newFakeAssignmentRepo())

	customer := &domain.User{ID: "user-1", Role: domain.RoleCustomer}
	got, tabCounts, total, err := uc.GetOrdersByTab(context.Background(), customer, domain.TabPreparing, 1, 20)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "o2", got[0].ID)
	assert.Equal(t, int64(1), total)

	// Counts reflect only this customer's orders.
	assert.Equal(t, int64(3), tabCounts[domain.TabAll])
	assert.Equal(t, int64(1), tabCounts[domain.TabPending])
	assert.Equal(t, int64(1), tabCounts[domain.TabDelivered])
}

func TestUpdateOrderStatus_ValidTransition(t *testing.T) {
	order := &domain.Order{ID: "o1", UserID: "user-1", Status: domain.OrderStatusPending}
	repo := newFakeOrderRepo(order)
	uc, pub, memCache := newTestOrderUsecase(repo, newFakeAssignmentRepo())
	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}

	updated, err := uc.UpdateOrderStatus(context.Background(), "o1", domain.OrderStatusConfirmed, "", admin)
	require.NoError(t, err)

	// The returned order is the re-fetched record, not the stale one.
	assert.Equal(t, domain.OrderStatusConfirmed, updated.Status)

	evts := pub.published()
	require.Len(t, evts, 1)
	assert.Equal(t, events.EventOrderUpdated, evts[0].Type)
	assert.Equal(t, "o1", evts[0].OrderID)
	assert.Equal(t, domain.OrderStatusConfirmed, evts[0].Status)

	// Cache holds the fresh snapshot.
	cached, ok := memCache.Get("order:o1")
	require.True(t, ok)
	assert.Equal(t, domain.OrderStatusConfirmed, cached.(*domain.Order).Status)

	history, _ := repo.GetHistory(context.Background(), "o1")
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusConfirmed, history[0].NewStatus)
}

func TestUpdateOrderStatus_RejectsInvalidTransition(t *testing.T) {
	order := &domain.Order{ID: "o1", Status: domain.OrderStatusDelivered}
	uc, pub, _ := newTestOrderUsecase(newFakeOrderRepo(order), newFakeAssignmentRepo())
	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}

	_, err := uc.UpdateOrderStatus(context.Background(), "o1", domain.OrderStatusCancelled, "", admin)
	assert.Error(t, err)
	assert.Empty(t, pub.published())
}

func TestVerifyPayment(t *testing.T) {
	admin := &domain.User{ID: "admin-1", Role: domain.RoleAdmin}
	ctx := context.Background()

	t.Run("verifies pending gcash", func(t *testing.T) {
		order := &domain.Order{ID: "o1", Status: domain.OrderStatusPending, PaymentMethod: domain.PaymentMethodGCash, PaymentStatus: domain.PaymentStatusPending}
		uc, pub, _ := newTestOrderUsecase(newFakeOrderRepo(order), newFakeAssignmentRepo())

		updated, err := uc.VerifyPayment(ctx, "o1", admin)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusVerified, updated.PaymentStatus)
		assert.Len(t, pub.published(), 1)
	})

	t.Run("rejects COD", func(t *testing.T) {
		order := &domain.Order{ID: "o1", Status: domain.OrderStatusPending, PaymentMethod: domain.PaymentMethodCOD, PaymentStatus: domain.PaymentStatusPending}
		uc, _, _ := newTestOrderUsecase(newFakeOrderRepo(order), newFakeAssignmentRepo())

		_, err := uc.VerifyPayment(ctx, "o1", admin)
		assert.Error(t, err)
	})

	t.Run("rejects already verified", func(t *testing.T) {
		order := &domain.Order{ID: "o1", Status: domain.OrderStatusPending, PaymentMethod: domain.PaymentMethodGCash, PaymentStatus: domain.PaymentStatusVerified}
		uc, _, _ := newTestOrderUsecase(newFakeOrderRepo(order), newFakeAssignmentRepo())

		_, err := uc.VerifyPayment(ctx, "o1", admin)
		assert.Error(t, err)
	})
}

func TestGetTabCounts(t *testing.T) {
	orders := []*domain.Order{
		{ID: "o1", Status: domain.OrderStatusPending},
		{ID: "o2", Status: domain.OrderStatusOutForDelivery},
		{ID: "o3", Status: domain.OrderStatusOutForDelivery},
	}
	uc, _, _ := newTestOrderUsecase(newFakeOrderRepo(orders...), newFakeAssignmentRepo())

	counts, err := uc.GetTabCounts(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[domain.TabAll])
	assert.Equal(t, int64(2), counts[domain.TabOutForDelivery])
}
