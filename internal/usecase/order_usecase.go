package usecase

import (
	"context"
	"fmt"
	"time"

	"kainan-backend/internal/domain"
	"kainan-backend/internal/events"
	"kainan-backend/pkg/cache"
	"kainan-backend/pkg/logger"
	"kainan-backend/pkg/utils"
)

// CheckoutPricing carries the business-rule inputs for totals computation.
type CheckoutPricing struct {
	DeliveryFees map[string]float64 // zone key -> fee
	TaxRate      float64
	DefaultETA   time.Duration
}

type OrderUsecase struct {
	orderRepo      domain.OrderRepository
	assignmentRepo domain.AssignmentRepository
	txManager      domain.TransactionManager
	publisher      events.Publisher
	cache          cache.CacheService
	cacheTTL       time.Duration
	pricing        CheckoutPricing
	now            func() time.Time
}

func NewOrderUsecase(
	orderRepo domain.OrderRepository,
	assignmentRepo domain.AssignmentRepository,
	txManager domain.TransactionManager,
	publisher events.Publisher,
	memCache cache.CacheService,
	cacheTTL time.Duration,
	pricing CheckoutPricing,
) *OrderUsecase {
	return &OrderUsecase{
		orderRepo:      orderRepo,
		assignmentRepo: assignmentRepo,
		txManager:      txManager,
		publisher:      publisher,
		cache:          memCache,
		cacheTTL:       cacheTTL,
		pricing:        pricing,
		now:            time.Now,
	}
}

func orderCacheKey(id string) string { return "order:" + id }

// --- Checkout ---

type CheckoutItem struct {
	ProductID     string                `json:"productId" validate:"required"`
	ProductName   string                `json:"productName" validate:"required"`
	Quantity      int                   `json:"quantity" validate:"required,gt=0"`
	UnitPrice     float64               `json:"unitPrice" validate:"gte=0"`
	Customization *domain.Customization `json:"customization,omitempty"`
	Note          *string               `json:"note,omitempty"`
}

type CheckoutReq struct {
	Items           []CheckoutItem `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string         `json:"paymentMethod" validate:"required,oneof=cod gcash paymaya"`
	FulfillmentType string         `json:"fulfillmentType" validate:"required,oneof=delivery pickup"`
	DeliveryZone    string         `json:"deliveryZone,omitempty"`
	DeliveryAddress domain.JSONB   `json:"deliveryAddress,omitempty"`
	PickupLocation  domain.JSONB   `json:"pickupLocation,omitempty"`
	Discount        float64        `json:"discount,omitempty" validate:"gte=0"`
}

// Checkout builds and persists an order from the submitted menu snapshot.
// Totals are computed here and are the only authoritative ones; clients
// render but never recompute them.
func (u *OrderUsecase) Checkout(ctx context.Context, userID string, req CheckoutReq) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order has no items")
	}

	switch req.FulfillmentType {
	case domain.FulfillmentDelivery:
		if len(req.DeliveryAddress) == 0 {
			return nil, fmt.Errorf("delivery orders require a delivery address")
		}
	case domain.FulfillmentPickup:
		if len(req.PickupLocation) == 0 {
			return nil, fmt.Errorf("pickup orders require a pickup location")
		}
	default:
		return nil, fmt.Errorf("unknown fulfillment type %q", req.FulfillmentType)
	}

	var subtotal float64
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("item %s has non-positive quantity", it.ProductID)
		}
		lineTotal := it.UnitPrice * float64(it.Quantity)
		subtotal += lineTotal
		items = append(items, domain.OrderItem{
			ID:            utils.GenerateUUID(),
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			TotalPrice:    lineTotal,
			Customization: it.Customization,
			Note:          it.Note,
		})
	}

	deliveryFee := 0.0
	if req.FulfillmentType == domain.FulfillmentDelivery {
		zone := req.DeliveryZone
		if zone == "" {
			zone = "inside_city"
		}
		fee, ok := u.pricing.DeliveryFees[zone]
		if !ok {
			return nil, fmt.Errorf("delivery fee configuration for %s not found", zone)
		}
		deliveryFee = fee
	}

	tax := subtotal * u.pricing.TaxRate
	discount := req.Discount
	if discount > subtotal {
		discount = subtotal
	}
	total := subtotal + deliveryFee + tax - discount

	now := u.now()
	eta := now.Add(u.pricing.DefaultETA)

	order := &domain.Order{
		ID:                    utils.GenerateUUID(),
		OrderNumber:           utils.GenerateOrderNumber(now),
		UserID:                userID,
		Status:                domain.OrderStatusPending,
		PaymentMethod:         req.PaymentMethod,
		PaymentStatus:         domain.PaymentStatusPending,
		Subtotal:              subtotal,
		DeliveryFee:           deliveryFee,
		Tax:                   tax,
		Discount:              discount,
		TotalAmount:           total,
		FulfillmentType:       req.FulfillmentType,
		Items:                 items,
		EstimatedDeliveryTime: &eta,
	}
	if req.FulfillmentType == domain.FulfillmentDelivery {
		order.DeliveryAddress = req.DeliveryAddress
	} else {
		order.PickupLocation = req.PickupLocation
	}

	err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.Create(txCtx, order); err != nil {
			return err
		}
		reason := "Order placed"
		return u.orderRepo.CreateHistory(txCtx, &domain.OrderHistory{
			OrderID:   order.ID,
			NewStatus: order.Status,
			Reason:    &reason,
			CreatedBy: &userID,
		})
	})
	if err != nil {
		return nil, err
	}

	return u.orderRepo.GetByID(ctx, order.ID)
}

// --- Reads ---

func (u *OrderUsecase) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	if cached, ok := u.cache.Get(orderCacheKey(id)); ok {
		if order, ok := cached.(*domain.Order); ok {
			return order, nil
		}
	}

	order, err := u.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.cache.Set(orderCacheKey(id), order, u.cacheTTL)
	return order, nil
}

// GetOrderView resolves an order together with its assignment and the
// role-specific presentation the client renders: status label, eligible
// actions, display strings.
func (u *OrderUsecase) GetOrderView(ctx context.Context, id string, actor *domain.User) (*OrderView, error) {
	order, err := u.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == domain.RoleCustomer && order.UserID != actor.ID {
		return nil, domain.ErrOrderNotFound
	}

	assignment, err := u.assignmentRepo.GetActiveByOrderID(ctx, id)
	if err != nil && err != domain.ErrAssignmentNotFound {
		return nil, err
	}

	return NewOrderView(order, assignment, actor, u.now()), nil
}

func (u *OrderUsecase) GetAdminOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	return u.orderRepo.GetAll(ctx, filter)
}

// GetOrdersByTab lists a user's own orders filtered through the tab
// vocabulary, along with per-tab counts for the summary row.
func (u *OrderUsecase) GetOrdersByTab(ctx context.Context, actor *domain.User, tabKey string, page, limit int) ([]domain.Order, map[string]int64, int64, error) {
	filter := domain.OrderFilter{
		Page:     page,
		Limit:    limit,
		Statuses: domain.TabStatuses(actor.Role, tabKey),
	}
	countUserID := ""
	switch actor.Role {
	case domain.RoleCustomer:
		filter.UserID = actor.ID
		countUserID = actor.ID
	case domain.RoleRider:
		filter.RiderID = actor.ID
	}

	orders, total, err := u.orderRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, nil, 0, err
	}

	byStatus, err := u.orderRepo.CountByStatus(ctx, countUserID)
	if err != nil {
		return nil, nil, 0, err
	}

	return orders, domain.TabCounts(actor.Role, byStatus), total, nil
}

// GetTabCounts returns store-wide per-tab counts for the given role's tab
// vocabulary.
func (u *OrderUsecase) GetTabCounts(ctx context.Context, role string) (map[string]int64, error) {
	byStatus, err := u.orderRepo.CountByStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	return domain.TabCounts(role, byStatus), nil
}

func (u *OrderUsecase) GetOrderHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	return u.orderRepo.GetHistory(ctx, orderID)
}

// --- Mutations ---

// UpdateOrderStatus applies an admin-driven status transition. The lifecycle
// is enforced: forward-only, cancelled terminal and reachable from any
// non-delivered status.
func (u *OrderUsecase) UpdateOrderStatus(ctx context.Context, orderID, newStatus, note string, actor *domain.User) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	oldStatus := order.Status

	if err := domain.ValidateTransition(oldStatus, newStatus); err != nil {
		return nil, err
	}

	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.UpdateStatus(txCtx, orderID, newStatus); err != nil {
			return err
		}

		finalReason := note
		if finalReason == "" {
			finalReason = fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus)
		}
		return u.orderRepo.CreateHistory(txCtx, &domain.OrderHistory{
			OrderID:        orderID,
			PreviousStatus: &oldStatus,
			NewStatus:      newStatus,
			Reason:         &finalReason,
			CreatedBy:      &actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info().
		Str("order_id", orderID).
		Str("from", oldStatus).
		Str("to", newStatus).
		Str("actor", actor.ID).
		Msg("order status updated")

	return u.refresh(ctx, orderID, newStatus)
}

// VerifyPayment records an admin's manual verification of a non-COD payment.
// COD payments are verified by the assigned rider, not here.
func (u *OrderUsecase) VerifyPayment(ctx context.Context, orderID string, admin *domain.User) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentMethod == domain.PaymentMethodCOD {
		return nil, fmt.Errorf("COD payments are verified by the assigned rider")
	}
	if order.PaymentStatus == domain.PaymentStatusVerified {
		return nil, fmt.Errorf("payment already verified")
	}

	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.UpdatePaymentStatus(txCtx, orderID, domain.PaymentStatusVerified); err != nil {
			return err
		}
		reason := fmt.Sprintf("Payment verified (%s)", order.PaymentMethod)
		return u.orderRepo.CreateHistory(txCtx, &domain.OrderHistory{
			OrderID:        orderID,
			PreviousStatus: &order.Status,
			NewStatus:      order.Status,
			Reason:         &reason,
			CreatedBy:      &admin.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	return u.refresh(ctx, orderID, order.Status)
}

// refresh drops the cached snapshot, re-fetches the order and publishes an
// update event. Mutations always return the re-fetched record so callers
// never see optimistic local state.
func (u *OrderUsecase) refresh(ctx context.Context, orderID, status string) (*domain.Order, error) {
	u.cache.Delete(orderCacheKey(orderID))

	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	u.cache.Set(orderCacheKey(orderID), order, u.cacheTTL)

	if u.publisher != nil {
		u.publisher.Publish(events.Event{
			Type:    events.EventOrderUpdated,
			OrderID: orderID,
			Status:  status,
		})
	}
	return order, nil
}
