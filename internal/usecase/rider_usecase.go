package usecase

import (
	"context"
	"fmt"
	"time"

	"kainan-backend/internal/domain"
	"kainan-backend/internal/events"
	"kainan-backend/pkg/logger"
)

// RiderUsecase covers the delivery side: claiming available orders, pickup,
// COD collection and delivery confirmation. Every mutation goes through the
// eligibility resolver first, so the server enforces exactly what the client
// renders.
type RiderUsecase struct {
	orders *OrderUsecase
	now    func() time.Time
}

func NewRiderUsecase(orders *OrderUsecase) *RiderUsecase {
	return &RiderUsecase{orders: orders, now: time.Now}
}

// GetAvailableOrders lists delivery orders that are ready for pickup and not
// yet claimed by any rider.
func (u *RiderUsecase) GetAvailableOrders(ctx context.Context) ([]domain.Order, error) {
	return u.orders.orderRepo.GetAvailable(ctx)
}

// ClaimOrder assigns an available order to the rider. The single-active-
// assignment invariant is enforced by the repository; a concurrent claim
// loses with ErrAlreadyAssigned.
func (u *RiderUsecase) ClaimOrder(ctx context.Context, orderID, riderID string) (*domain.DeliveryAssignment, error) {
	order, err := u.orders.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusReadyForPickup {
		return nil, fmt.Errorf("order is %s, only ready_for_pickup orders can be claimed", order.Status)
	}
	if order.FulfillmentType != domain.FulfillmentDelivery {
		return nil, fmt.Errorf("pickup orders are not assigned to riders")
	}

	assignment := &domain.DeliveryAssignment{
		OrderID: orderID,
		RiderID: riderID,
		Status:  domain.AssignmentStatusAssigned,
	}
	if err := u.orders.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}

	if u.orders.publisher != nil {
		u.orders.publisher.Publish(events.Event{
			Type:    events.EventAssignmentChanged,
			OrderID: orderID,
			Status:  assignment.Status,
		})
	}
	return assignment, nil
}

// activeAssignment loads the order's active assignment and checks ownership.
func (u *RiderUsecase) activeAssignment(ctx context.Context, orderID, riderID string) (*domain.DeliveryAssignment, error) {
	assignment, err := u.orders.assignmentRepo.GetActiveByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if assignment.RiderID != riderID {
		return nil, fmt.Errorf("order is assigned to another rider")
	}
	return assignment, nil
}

// MarkPickedUp moves an assigned order out for delivery.
func (u *RiderUsecase) MarkPickedUp(ctx context.Context, orderID, riderID string) (*domain.Order, error) {
	order, err := u.orders.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	assignment, err := u.activeAssignment(ctx, orderID, riderID)
	if err != nil {
		return nil, err
	}

	if !hasAction(order, assignment, riderID, domain.ActionMarkPickedUp) {
		return nil, domain.ErrNotEligible
	}

	pickedUpAt := u.now()
	oldStatus := order.Status
	err = u.orders.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orders.assignmentRepo.UpdateStatus(txCtx, assignment.ID, domain.AssignmentStatusPickedUp, &pickedUpAt); err != nil {
			return err
		}
		if err := u.orders.orderRepo.UpdateStatus(txCtx, orderID, domain.OrderStatusOutForDelivery); err != nil {
			return err
		}
		reason := "Picked up by rider"
		return u.orders.orderRepo.CreateHistory(txCtx, &domain.OrderHistory{
			OrderID:        orderID,
			PreviousStatus: &oldStatus,
			NewStatus:      domain.OrderStatusOutForDelivery,
			Reason:         &reason,
			CreatedBy:      &riderID,
		})
	})
	if err != nil {
		return nil, err
	}

	return u.orders.refresh(ctx, orderID, domain.OrderStatusOutForDelivery)
}

// VerifyCODPayment records the rider's cash acknowledgment for a COD order
// that is out for delivery.
func (u *RiderUsecase) VerifyCODPayment(ctx context.Context, orderID, riderID string) (*domain.Order, error) {
	order, err := u.orders.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	assignment, err := u.activeAssignment(ctx, orderID, riderID)
	if err != nil {
		return nil, err
	}

	if !hasAction(order, assignment, riderID, domain.ActionVerifyCODPayment) {
		return nil, domain.ErrNotEligible
	}

	err = u.orders.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orders.orderRepo.UpdatePaymentStatus(txCtx, orderID, domain.PaymentStatusVerified); err != nil {
			return err
		}
		reason := "COD payment collected by rider"
		return u.orders.orderRepo.CreateHistory(txCtx, &domain.OrderHistory{
			OrderID:        orderID,
			PreviousStatus: &order.Status,
			NewStatus:      order.Status,
			Reason:         &reason,
			CreatedBy:      &riderID,
		})
	})
	if err != nil {
		return nil, err
	}

	return u.orders.refresh(ctx, orderID, order.Status)
}

// AttachProof stores the proof-of-delivery URL on the order. Re-uploading
// replaces the previous proof.
func (u *RiderUsecase) AttachProof(ctx context.Context, orderID, riderID, url string) (*domain.Order, error) {
	order, err := u.orders.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	assignment, err := u.activeAssignment(ctx, orderID, riderID)
	if err != nil {
		return nil, err
	}

	if !hasAction(order, assignment, riderID, domain.ActionUploadProof) {
		return nil, domain.ErrNotEligible
	}

	if err := u.orders.orderRepo.SetProofOfDelivery(ctx, orderID, url); err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Info().Str("order_id", orderID).Str("rider_id", riderID).Msg("proof of delivery attached")

	return u.orders.refresh(ctx, orderID, order.Status)
}

// MarkDelivered finishes a delivery. A proof photo must exist: either one
// attached earlier, or the caller attaches one in the same operation via
// proofURL. Reusing a previously uploaded proof (proofURL empty) is an
// intentional idempotent retry path, not a bypass.
func (u *RiderUsecase) MarkDelivered(ctx context.Context, orderID, riderID string, proofURL string) (*domain.Order, error) {
	order, err := u.orders.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	assignment, err := u.activeAssignment(ctx, orderID, riderID)
	if err != nil {
		return nil, err
	}

	hasProof := order.ProofOfDeliveryURL != nil && *order.ProofOfDeliveryURL != ""
	if proofURL == "" && !hasProof {
		return nil, fmt.Errorf("proof of delivery is required before marking delivered")
	}

	// Eligibility is checked against the post-proof state: a fresh proofURL
	// satisfies the proof gate even though the order row is not updated yet.
	eligible := order
	if proofURL != "" {
		clone := *order
		clone.ProofOfDeliveryURL = &proofURL
		eligible = &clone
	}
	if !hasAction(eligible, assignment, riderID, domain.ActionMarkDelivered) {
		return nil, domain.ErrNotEligible
	}

	deliveredAt := u.now()
	oldStatus := order.Status
	err = u.orders.txManager.Do(ctx, func(txCtx context.Context) error {
		if proofURL != "" {
			if err := u.orders.orderRepo.SetProofOfDelivery(txCtx, orderID, proofURL); err != nil {
				return err
			}
		}
		if err := u.orders.orderRepo.UpdateStatus(txCtx, orderID, domain.OrderStatusDelivered); err != nil {
			return err
		}
		if err := u.orders.orderRepo.SetActualDeliveryTime(txCtx, orderID, deliveredAt); err != nil {
			return err
		}
		reason := "Delivered by rider"
		return u.orders.orderRepo.CreateHistory(txCtx, &domain.OrderHistory{
			OrderID:        orderID,
			PreviousStatus: &oldStatus,
			NewStatus:      domain.OrderStatusDelivered,
			Reason:         &reason,
			CreatedBy:      &riderID,
		})
	})
	if err != nil {
		return nil, err
	}

	return u.orders.refresh(ctx, orderID, domain.OrderStatusDelivered)
}

// hasAction reports whether the resolver offers the given enabled action for
// the rider on this order.
func hasAction(order *domain.Order, assignment *domain.DeliveryAssignment, riderID, kind string) bool {
	resolution := domain.EligibleActions(order, domain.RoleRider, assignment, riderID)
	for _, a := range resolution.Actions {
		if a.Kind == kind && a.Enabled {
			return true
		}
	}
	return false
}
