package domain

// Action kinds a client may invoke next on an order.
const (
	ActionConfirm          = "Confirm"
	ActionStartPreparing   = "StartPreparing"
	ActionMarkReady        = "MarkReady"
	ActionMarkPickedUp     = "MarkPickedUp"
	ActionVerifyPayment    = "VerifyPayment"
	ActionVerifyCODPayment = "VerifyCODPayment"
	ActionUploadProof      = "UploadProof"
	ActionMarkDelivered    = "MarkDelivered"
	ActionCancel           = "Cancel"
)

type Action struct {
	Kind    string `json:"kind"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

// ActionResolution is the ordered set of permissible next actions plus an
// optional notice to render when no action is available.
type ActionResolution struct {
	Actions []Action `json:"actions"`
	Notice  string   `json:"notice,omitempty"`
}

// EligibleActions determines which actions the given role may invoke on an
// order in its current state. Pure and total: it never returns an error, and
// any unrecognized status/payment combination degrades to an empty action
// list so rendering never blocks on it.
//
// When several actions are eligible they come back in fixed priority order:
// payment verification always gates delivery confirmation for COD.
func EligibleActions(order *Order, role string, assignment *DeliveryAssignment, actorID string) ActionResolution {
	if order == nil {
		return ActionResolution{}
	}

	switch role {
	case RoleRider:
		return riderActions(order, assignment, actorID)
	case RoleAdmin:
		return adminActions(order)
	default:
		return ActionResolution{}
	}
}

func riderActions(order *Order, assignment *DeliveryAssignment, riderID string) ActionResolution {
	switch order.Status {
	case OrderStatusDelivered:
		return ActionResolution{Notice: "This order has already been delivered."}

	case OrderStatusReadyForPickup:
		if assignment == nil || assignment.RiderID != riderID {
			return ActionResolution{}
		}
		if assignment.Status != AssignmentStatusAssigned && assignment.Status != "" {
			return ActionResolution{}
		}
		return ActionResolution{Actions: []Action{
			{Kind: ActionMarkPickedUp, Label: "Mark as Picked Up", Enabled: true},
		}}

	case OrderStatusOutForDelivery:
		// GCash settles through the admin; the rider can only wait.
		if order.PaymentMethod == PaymentMethodGCash && order.PaymentStatus != PaymentStatusVerified {
			return ActionResolution{Notice: "Awaiting admin payment verification."}
		}

		// COD is collected and acknowledged by the rider before anything else.
		if order.PaymentMethod == PaymentMethodCOD && order.PaymentStatus == PaymentStatusPending {
			return ActionResolution{Actions: []Action{
				{Kind: ActionVerifyCODPayment, Label: "Confirm Cash Received", Enabled: true},
			}}
		}

		if order.PaymentStatus == PaymentStatusVerified || order.PaymentMethod != PaymentMethodCOD {
			uploadLabel := "Upload Proof of Delivery"
			if order.ProofOfDeliveryURL != nil && *order.ProofOfDeliveryURL != "" {
				uploadLabel = "Update Proof of Delivery"
			}
			markDelivered := Action{Kind: ActionMarkDelivered, Label: "Mark as Delivered", Enabled: true}
			if order.ProofOfDeliveryURL == nil || *order.ProofOfDeliveryURL == "" {
				markDelivered.Enabled = false
				markDelivered.Reason = "Proof of delivery required"
			}
			return ActionResolution{Actions: []Action{
				{Kind: ActionUploadProof, Label: uploadLabel, Enabled: true},
				markDelivered,
			}}
		}
	}

	return ActionResolution{}
}

func adminActions(order *Order) ActionResolution {
	var actions []Action

	// Non-COD payments await manual verification by the admin.
	if order.PaymentMethod != PaymentMethodCOD &&
		order.PaymentStatus == PaymentStatusPending &&
		order.Status != OrderStatusCancelled {
		actions = append(actions, Action{Kind: ActionVerifyPayment, Label: "Verify Payment", Enabled: true})
	}

	switch order.Status {
	case OrderStatusPending:
		actions = append(actions, Action{Kind: ActionConfirm, Label: "Confirm Order", Enabled: true})
	case OrderStatusConfirmed:
		actions = append(actions, Action{Kind: ActionStartPreparing, Label: "Start Preparing", Enabled: true})
	case OrderStatusPreparing:
		actions = append(actions, Action{Kind: ActionMarkReady, Label: "Mark Ready for Pickup", Enabled: true})
	case OrderStatusDelivered:
		return ActionResolution{Actions: actions, Notice: "This order has already been delivered."}
	case OrderStatusCancelled:
		return ActionResolution{}
	}

	if order.Status != OrderStatusDelivered && order.Status != OrderStatusCancelled {
		actions = append(actions, Action{Kind: ActionCancel, Label: "Cancel Order", Enabled: true})
	}

	return ActionResolution{Actions: actions}
}
