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

func newTestRiderUsecase(orderRepo *fakeOrderRepo, assignmentRepo *fakeAssignmentRepo) (*RiderUsecase, *capturePublisher) {
	orders, pub, _ := newTestOrderUsecase(orderRepo, assignmentRepo)
	uc := NewRiderUsecase(orders)
	uc.now = func() time.Time { return testNow }
	return uc, pub
}

func availableOrder(id string) *domain.Order {
	return &domain.Order{
		ID:              id,
		UserID:          "user-1",
		Status:          domain.OrderStatusReadyForPickup,
		PaymentMethod:   domain.PaymentMethodCOD,
		PaymentStatus:   domain.PaymentStatusPending,
		FulfillmentType: domain.FulfillmentDelivery,
	}
}

func assignedTo(orderID, riderID string) *domain.DeliveryAssignment {
	return &domain.DeliveryAssignment{
		ID: "a-" + orderID, OrderID: orderID, RiderID: riderID,
		Status: domain.AssignmentStatusAssigned, Active: true,
	}
}

func TestClaimOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("claims an available order", func(t *testing.T) {
		uc, pub := newTestRiderUsecase(newFakeOrderRepo(availableOrder("o1")), newFakeAssignmentRepo())

		a, err := uc.ClaimOrder(ctx, "o1", "rider-1")
		require.NoError(t, err)
		assert.Equal(t, "rider-1", a.RiderID)
		assert.Equal(t, domain.AssignmentStatusAssigned, a.Status)

		evts := pub.published()
		require.Len(t, evts, 1)
		assert.Equal(t, events.EventAssignmentChanged, evts[0].Type)
	})

	t.Run("second claim loses", func(t *testing.T) {
		uc, _ := newTestRiderUsecase(newFakeOrderRepo(availableOrder("o1")), newFakeAssignmentRepo())

		_, err := uc.ClaimOrder(ctx, "o1", "rider-1")
		require.NoError(t, err)
		_, err = uc.ClaimOrder(ctx, "o1", "rider-2")
		assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
	})

	t.Run("rejects orders not ready for pickup", func(t *testing.T) {
		order := availableOrder("o1")
		order.Status = domain.OrderStatusPreparing
		uc, _ := newTestRiderUsecase(newFakeOrderRepo(order), newFakeAssignmentRepo())

		_, err := uc.ClaimOrder(ctx, "o1", "rider-1")
		assert.Error(t, err)
	})

	t.Run("rejects pickup orders", func(t *testing.T) {
		order := availableOrder("o1")
		order.FulfillmentType = domain.FulfillmentPickup
		uc, _ := newTestRiderUsecase(newFakeOrderRepo(order), newFakeAssignmentRepo())

		_, err := uc.ClaimOrder(ctx, "o1", "rider-1")
		assert.Error(t, err)
	})
}

func TestMarkPickedUp(t *testing.T) {
	ctx := context.Background()

	t.Run("moves order out for delivery", func(t *testing.T) {
		repo := newFakeOrderRepo(availableOrder("o1"))
		assignments := newFakeAssignmentRepo(assignedTo("o1", "rider-1"))
		uc, pub := newTestRiderUsecase(repo, assignments)

		order, err := uc.MarkPickedUp(ctx, "o1", "rider-1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusOutForDelivery, order.Status)

		a, err := assignments.GetActiveByOrderID(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.AssignmentStatusPickedUp, a.Status)
		require.NotNil(t, a.PickedUpAt)

		require.Len(t, pub.published(), 1)
	})

	t.Run("another rider cannot pick up", func(t *testing.T) {
		uc, _ := newTestRiderUsecase(newFakeOrderRepo(availableOrder("o1")), newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		_, err := uc.MarkPickedUp(ctx, "o1", "rider-2")
		assert.Error(t, err)
	})

	t.Run("no assignment means no pickup", func(t *testing.T) {
		uc, _ := newTestRiderUsecase(newFakeOrderRepo(availableOrder("o1")), newFakeAssignmentRepo())

		_, err := uc.MarkPickedUp(ctx, "o1", "rider-1")
		assert.ErrorIs(t, err, domain.ErrAssignmentNotFound)
	})
}

func outForDeliveryOrder(id, paymentMethod, paymentStatus string, proof *string) *domain.Order {
	o := availableOrder(id)
	o.Status = domain.OrderStatusOutForDelivery
	o.PaymentMethod = paymentMethod
	o.PaymentStatus = paymentStatus
	o.ProofOfDeliveryURL = proof
	return o
}

func TestVerifyCODPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("records cash collection", func(t *testing.T) {
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodCOD, domain.PaymentStatusPending, nil))
		uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		order, err := uc.VerifyCODPayment(ctx, "o1", "rider-1")
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusVerified, order.PaymentStatus)
	})

	t.Run("not eligible for gcash", func(t *testing.T) {
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodGCash, domain.PaymentStatusPending, nil))
		uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		_, err := uc.VerifyCODPayment(ctx, "o1", "rider-1")
		assert.ErrorIs(t, err, domain.ErrNotEligible)
	})

	t.Run("not eligible twice", func(t *testing.T) {
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodCOD, domain.PaymentStatusVerified, nil))
		uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		_, err := uc.VerifyCODPayment(ctx, "o1", "rider-1")
		assert.ErrorIs(t, err, domain.ErrNotEligible)
	})
}

func TestAttachProof(t *testing.T) {
	ctx := context.Background()

	t.Run("stores proof url", func(t *testing.T) {
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodCOD, domain.PaymentStatusVerified, nil))
		uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		order, err := uc.AttachProof(ctx, "o1", "rider-1", "https://cdn.example.com/proofs/o1/p.webp")
		require.NoError(t, err)
		require.NotNil(t, order.ProofOfDeliveryURL)
		assert.Equal(t, "https://cdn.example.com/proofs/o1/p.webp", *order.ProofOfDeliveryURL)
	})

	t.Run("re-upload replaces previous proof", func(t *testing.T) {
		old := "https://cdn.example.com/proofs/o1/old.webp"
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodCOD, domain.PaymentStatusVerified, &old))
		uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		order, err := uc.AttachProof(ctx, "o1", "rider-1", "https://cdn.example.com/proofs/o1/new.webp")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/proofs/o1/new.webp", *order.ProofOfDeliveryURL)
	})

	t.Run("blocked before COD cash is collected", func(t *testing.T) {
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodCOD, domain.PaymentStatusPending, nil))
		uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		_, err := uc.AttachProof(ctx, "o1", "rider-1", "url")
		assert.ErrorIs(t, err, domain.ErrNotEligible)
	})
}

func TestMarkDelivered(t *testing.T) {
	ctx := context.Background()

	t.Run("with existing proof", func(t *testing.T) {
		proof := "https://cdn.example.com/proofs/o1/p.webp"
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodCOD, domain.PaymentStatusVerified, &proof))
		uc, pub := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		order, err := uc.MarkDelivered(ctx, "o1", "rider-1", "")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusDelivered, order.Status)
		require.NotNil(t, order.ActualDeliveryTime)
		assert.Equal(t, testNow, *order.ActualDeliveryTime)

		require.Len(t, pub.published(), 1)
		assert.Equal(t, domain.OrderStatusDelivered, pub.published()[0].Status)
	})

	t.Run("with proof in the same operation", func(t *testing.T) {
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodGCash, domain.PaymentStatusVerified, nil))
		uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		order, err := uc.MarkDelivered(ctx, "o1", "rider-1", "https://cdn.example.com/proofs/o1/p.webp")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusDelivered, order.Status)
		require.NotNil(t, order.ProofOfDeliveryURL)
	})

	t.Run("rejected without any proof", func(t *testing.T) {
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodCOD, domain.PaymentStatusVerified, nil))
		uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		_, err := uc.MarkDelivered(ctx, "o1", "rider-1", "")
		assert.Error(t, err)
	})

	t.Run("rejected before COD cash is collected", func(t *testing.T) {
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodCOD, domain.PaymentStatusPending, nil))
		uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		_, err := uc.MarkDelivered(ctx, "o1", "rider-1", "https://cdn.example.com/proofs/o1/p.webp")
		assert.ErrorIs(t, err, domain.ErrNotEligible)
	})

	t.Run("rejected for another rider", func(t *testing.T) {
		proof := "url"
		repo := newFakeOrderRepo(outForDeliveryOrder("o1", domain.PaymentMethodCOD, domain.PaymentStatusVerified, &proof))
		uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo(assignedTo("o1", "rider-1")))

		_, err := uc.MarkDelivered(ctx, "o1", "rider-2", "")
		assert.Error(t, err)
	})
}

func TestGetAvailableOrders(t *testing.T) {
	pickup := availableOrder("o2")
	pickup.FulfillmentType = domain.FulfillmentPickup
	pending := availableOrder("o3")
	pending.Status = domain.OrderStatusPending

	repo := newFakeOrderRepo(availableOrder("o1"), pickup, pending)
	uc, _ := newTestRiderUsecase(repo, newFakeAssignmentRepo())

	orders, err := uc.GetAvailableOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
}
