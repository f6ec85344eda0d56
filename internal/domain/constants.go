package domain

// Order Statuses
const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPreparing      = "preparing"
	OrderStatusReadyForPickup = "ready_for_pickup"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// Payment Statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusVerified = "verified"
	PaymentStatusFailed   = "failed"
)

// Payment Methods
const (
	PaymentMethodCOD     = "cod"
	PaymentMethodGCash   = "gcash"
	PaymentMethodPayMaya = "paymaya"
)

// Fulfillment Types
const (
	FulfillmentDelivery = "delivery"
	FulfillmentPickup   = "pickup"
)

// Roles
const (
	RoleCustomer = "customer"
	RoleRider    = "rider"
	RoleAdmin    = "admin"
)

// Assignment Statuses
const (
	AssignmentStatusAssigned = "Assigned"
	AssignmentStatusPickedUp = "PickedUp"
)

// List Exports for API
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReadyForPickup,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var PaymentStatuses = []string{
	PaymentStatusPending,
	PaymentStatusVerified,
	PaymentStatusFailed,
}

var PaymentMethods = []string{
	PaymentMethodCOD,
	PaymentMethodGCash,
	PaymentMethodPayMaya,
}

var FulfillmentTypes = []string{
	FulfillmentDelivery,
	FulfillmentPickup,
}
