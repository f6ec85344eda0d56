package usecase

import (
	"time"

	"kainan-backend/internal/domain"
)

// OrderView is the order plus everything the client renders around it:
// role-specific status presentation, eligible next actions and display
// strings. All of it derives from the order snapshot; nothing here is stored.
type OrderView struct {
	Order       *domain.Order              `json:"order"`
	Assignment  *domain.DeliveryAssignment `json:"assignment,omitempty"`
	Status      domain.StatusPresentation  `json:"status"`
	Actions     []domain.Action            `json:"actions"`
	Notice      string                     `json:"notice,omitempty"`
	PlacedAt    string                     `json:"placedAt"`
	ETA         string                     `json:"eta,omitempty"`
	ItemSummary []ItemSummary              `json:"itemSummary"`
}

type ItemSummary struct {
	ProductName   string `json:"productName"`
	Quantity      int    `json:"quantity"`
	Customization string `json:"customization,omitempty"`
}

func NewOrderView(order *domain.Order, assignment *domain.DeliveryAssignment, actor *domain.User, now time.Time) *OrderView {
	resolution := domain.EligibleActions(order, actor.Role, assignment, actor.ID)

	view := &OrderView{
		Order:      order,
		Assignment: assignment,
		Status:     domain.PresentStatus(order.Status, actor.Role, false),
		Actions:    resolution.Actions,
		Notice:     resolution.Notice,
		PlacedAt:   domain.FormatOrderDate(order.CreatedAt, now),
	}
	if order.Status != domain.OrderStatusDelivered && order.Status != domain.OrderStatusCancelled {
		view.ETA = domain.FormatETA(order.EstimatedDeliveryTime, now)
	}

	view.ItemSummary = make([]ItemSummary, 0, len(order.Items))
	for _, item := range order.Items {
		view.ItemSummary = append(view.ItemSummary, ItemSummary{
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			Customization: domain.CustomizationSummary(item.Customization),
		})
	}
	return view
}
