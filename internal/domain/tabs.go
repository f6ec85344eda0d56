package domain

// Tab keys shared across roles. Each role exposes a subset; the mapping from
// a tab to raw status codes is intentionally coarser than the status set, so
// several statuses may collapse into one tab.
const (
	TabAll            = "all"
	TabPending        = "pending"
	TabPreparing      = "preparing"
	TabOnTheWay       = "on_the_way"
	TabOutForDelivery = "out_for_delivery"
	TabDelivered      = "delivered"
	TabCancelled      = "cancelled"
)

var customerTabs = map[string][]string{
	TabPending:   {OrderStatusPending},
	TabPreparing: {OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReadyForPickup},
	TabOnTheWay:  {OrderStatusOutForDelivery},
	TabDelivered: {OrderStatusDelivered},
}

var adminTabs = map[string][]string{
	TabPending:        {OrderStatusPending},
	TabPreparing:      {OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReadyForPickup},
	TabOutForDelivery: {OrderStatusOutForDelivery},
	TabDelivered:      {OrderStatusDelivered},
	TabCancelled:      {OrderStatusCancelled},
}

var riderTabs = map[string][]string{
	TabPreparing:      {OrderStatusReadyForPickup},
	TabOutForDelivery: {OrderStatusOutForDelivery},
	TabDelivered:      {OrderStatusDelivered},
}

// TabKeys returns the ordered tab set for a role, "all" first.
func TabKeys(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{TabAll, TabPending, TabPreparing, TabOutForDelivery, TabDelivered, TabCancelled}
	case RoleRider:
		return []string{TabAll, TabPreparing, TabOutForDelivery, TabDelivered}
	default:
		return []string{TabAll, TabPending, TabPreparing, TabOnTheWay, TabDelivered}
	}
}

// TabStatuses resolves a tab key to the status codes it covers for the given
// role. Nil means no filter ("all"). An unknown tab key also resolves to nil
// rather than an error: the list simply comes back unfiltered.
//
// A status not covered by any tab is invisible under every non-"all" tab.
// That is accepted behavior, since tab vocabularies are coarser than raw
// status codes.
func TabStatuses(role, tabKey string) []string {
	if tabKey == "" || tabKey == TabAll {
		return nil
	}

	var tabs map[string][]string
	switch role {
	case RoleAdmin:
		tabs = adminTabs
	case RoleRider:
		tabs = riderTabs
	default:
		tabs = customerTabs
	}

	statuses, ok := tabs[tabKey]
	if !ok {
		return nil
	}
	out := make([]string, len(statuses))
	copy(out, statuses)
	return out
}

// TabCounts collapses per-status counts into per-tab counts for summary rows.
func TabCounts(role string, byStatus map[string]int64) map[string]int64 {
	counts := make(map[string]int64, len(TabKeys(role)))
	var total int64
	for _, n := range byStatus {
		total += n
	}
	counts[TabAll] = total

	for _, key := range TabKeys(role) {
		if key == TabAll {
			continue
		}
		var n int64
		for _, status := range TabStatuses(role, key) {
			n += byStatus[status]
		}
		counts[key] = n
	}
	return counts
}
