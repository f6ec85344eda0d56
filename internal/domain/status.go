package domain

// StatusPresentation is what a client renders for an order status: a
// role-specific label plus color and icon tokens resolved by the app theme.
type StatusPresentation struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type statusEntry struct {
	label   string
	compact string // shorter label for narrow layouts; empty = same as label
	color   string
	icon    string
}

// Per-role vocabularies. Customers see friendlier wording ("On the Way"),
// admins and riders see operational wording ("Out for Delivery").
var customerStatusTable = map[string]statusEntry{
	OrderStatusPending:        {label: "Pending", color: "warning", icon: "clock"},
	OrderStatusConfirmed:      {label: "Confirmed", color: "info", icon: "check-circle"},
	OrderStatusPreparing:      {label: "Preparing", color: "info", icon: "chef-hat"},
	OrderStatusReadyForPickup: {label: "Ready for Pickup", compact: "Ready", color: "info", icon: "package"},
	OrderStatusOutForDelivery: {label: "On the Way", color: "primary", icon: "bike"},
	OrderStatusDelivered:      {label: "Delivered", color: "success", icon: "check-done"},
	OrderStatusCancelled:      {label: "Cancelled", color: "danger", icon: "x-circle"},
}

var adminStatusTable = map[string]statusEntry{
	OrderStatusPending:        {label: "Pending", color: "warning", icon: "clock"},
	OrderStatusConfirmed:      {label: "Confirmed", color: "info", icon: "check-circle"},
	OrderStatusPreparing:      {label: "Preparing", color: "info", icon: "chef-hat"},
	OrderStatusReadyForPickup: {label: "Ready for Pickup", compact: "Ready", color: "info", icon: "package"},
	OrderStatusOutForDelivery: {label: "Out for Delivery", compact: "Out", color: "primary", icon: "bike"},
	OrderStatusDelivered:      {label: "Delivered", color: "success", icon: "check-done"},
	OrderStatusCancelled:      {label: "Cancelled", color: "danger", icon: "x-circle"},
}

var riderStatusTable = map[string]statusEntry{
	OrderStatusPending:        {label: "Pending", color: "warning", icon: "clock"},
	OrderStatusConfirmed:      {label: "Confirmed", color: "info", icon: "check-circle"},
	OrderStatusPreparing:      {label: "Being Prepared", compact: "Preparing", color: "info", icon: "chef-hat"},
	OrderStatusReadyForPickup: {label: "Ready for Pickup", compact: "Ready", color: "primary", icon: "package"},
	OrderStatusOutForDelivery: {label: "Out for Delivery", compact: "Out", color: "primary", icon: "bike"},
	OrderStatusDelivered:      {label: "Delivered", color: "success", icon: "check-done"},
	OrderStatusCancelled:      {label: "Cancelled", color: "danger", icon: "x-circle"},
}

var unknownStatusEntry = statusEntry{label: "Processing", color: "neutral", icon: "help-circle"}

// PresentStatus maps a raw status code to its display form for the given role.
// Total over all statuses: an unrecognized code falls back to a generic
// neutral presentation instead of failing, so rendering never blocks here.
// Stateless and safe to call on every render.
func PresentStatus(status, role string, compact bool) StatusPresentation {
	var table map[string]statusEntry
	switch role {
	case RoleAdmin:
		table = adminStatusTable
	case RoleRider:
		table = riderStatusTable
	default:
		table = customerStatusTable
	}

	entry, ok := table[status]
	if !ok {
		entry = unknownStatusEntry
	}

	label := entry.label
	if compact && entry.compact != "" {
		label = entry.compact
	}

	return StatusPresentation{Label: label, Color: entry.color, Icon: entry.icon}
}
