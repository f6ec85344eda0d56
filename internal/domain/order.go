package domain

import (
	"context"
	"time"
)

type OrderFilter struct {
	Page          int
	Limit         int
	Statuses      []string // resolved from a tab key; empty = no status filter
	PaymentStatus string
	UserID        string
	RiderID       string
	Search        string
}

// --- Order Entities ---

type Order struct {
	ID            string  `json:"id"`
	OrderNumber   string  `json:"orderNumber"`
	UserID        string  `json:"userId"`
	User          User    `json:"user"`
	Status        string  `json:"status"`
	PaymentMethod string  `json:"paymentMethod"`
	PaymentStatus string  `json:"paymentStatus"`
	Subtotal      float64 `json:"subtotal"`
	DeliveryFee   float64 `json:"deliveryFee"`
	Tax           float64 `json:"tax"`
	Discount      float64 `json:"discount"`
	TotalAmount   float64 `json:"totalAmount"`

	FulfillmentType string `json:"fulfillmentType"` // delivery or pickup
	// Exactly one of DeliveryAddress / PickupLocation is set, depending on
	// FulfillmentType.
	DeliveryAddress JSONB `json:"deliveryAddress,omitempty"`
	PickupLocation  JSONB `json:"pickupLocation,omitempty"`

	ProofOfDeliveryURL *string `json:"proofOfDeliveryUrl,omitempty"`

	Items []OrderItem `json:"items"`

	CreatedAt             time.Time  `json:"createdAt"`
	EstimatedDeliveryTime *time.Time `json:"estimatedDeliveryTime,omitempty"`
	ActualDeliveryTime    *time.Time `json:"actualDeliveryTime,omitempty"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

type OrderItem struct {
	ID            string         `json:"id"`
	OrderID       string         `json:"orderId"`
	ProductID     string         `json:"productId"`
	ProductName   string         `json:"productName"`
	Quantity      int            `json:"quantity"`
	UnitPrice     float64        `json:"unitPrice"`
	TotalPrice    float64        `json:"totalPrice"`
	Customization *Customization `json:"customization,omitempty"`
	Note          *string        `json:"note,omitempty"`
}

// Customization is the typed shape of an item's options. Optional fields are
// pointers or nil slices so absent values render as omitted, not zero values.
type Customization struct {
	Size                *string  `json:"size,omitempty"`
	Crust               *string  `json:"crust,omitempty"`
	Toppings            []string `json:"toppings,omitempty"`
	SpecialInstructions *string  `json:"specialInstructions,omitempty"`
}

type OrderHistory struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	PreviousStatus *string   `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Reason         *string   `json:"reason"`
	CreatedBy      *string   `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// --- Delivery Assignment ---

type DeliveryAssignment struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"orderId"`
	RiderID    string     `json:"riderId"`
	Status     string     `json:"status"` // Assigned, PickedUp
	Active     bool       `json:"active"`
	AssignedAt time.Time  `json:"assignedAt"`
	PickedUpAt *time.Time `json:"pickedUpAt,omitempty"`
}

// --- Repositories ---

type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetAll(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	CountByStatus(ctx context.Context, userID string) (map[string]int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdatePaymentStatus(ctx context.Context, id, status string) error
	SetProofOfDelivery(ctx context.Context, id, url string) error
	SetActualDeliveryTime(ctx context.Context, id string, t time.Time) error

	// Orders that are ready for pickup and have no active assignment.
	GetAvailable(ctx context.Context) ([]Order, error)

	CreateHistory(ctx context.Context, h *OrderHistory) error
	GetHistory(ctx context.Context, orderID string) ([]OrderHistory, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *DeliveryAssignment) error
	GetActiveByOrderID(ctx context.Context, orderID string) (*DeliveryAssignment, error)
	GetActiveByRiderID(ctx context.Context, riderID string) ([]DeliveryAssignment, error)
	UpdateStatus(ctx context.Context, id, status string, pickedUpAt *time.Time) error
}

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
