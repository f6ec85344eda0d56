package domain

import (
	"fmt"
	"strings"
	"time"
)

// CustomizationSummary assembles a single display line from an item's
// customization payload, e.g. "Large, Thin Crust, +Pepperoni, +Olives".
// Empty when nothing was customized.
func CustomizationSummary(c *Customization) string {
	if c == nil {
		return ""
	}

	var parts []string
	if c.Size != nil && *c.Size != "" {
		parts = append(parts, *c.Size)
	}
	if c.Crust != nil && *c.Crust != "" {
		parts = append(parts, *c.Crust)
	}
	for _, t := range c.Toppings {
		if t != "" {
			parts = append(parts, "+"+t)
		}
	}
	if c.SpecialInstructions != nil && *c.SpecialInstructions != "" {
		parts = append(parts, fmt.Sprintf("Note: %s", *c.SpecialInstructions))
	}
	return strings.Join(parts, ", ")
}

// FormatOrderDate renders an order timestamp for list rows: time-of-day for
// today, weekday within the last week, otherwise a short date.
func FormatOrderDate(t, now time.Time) string {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format("3:04 PM")
	}
	if now.Sub(t) < 7*24*time.Hour && t.Before(now) {
		return t.Format("Mon 3:04 PM")
	}
	return t.Format("Jan 2, 2006")
}

// FormatETA renders an estimated delivery time as minutes remaining, or the
// clock time once it is more than an hour out. Empty when no estimate exists.
func FormatETA(eta *time.Time, now time.Time) string {
	if eta == nil {
		return ""
	}
	remaining := eta.Sub(now)
	if remaining <= 0 {
		return "Any moment now"
	}
	if remaining < time.Hour {
		mins := int(remaining.Round(time.Minute) / time.Minute)
		if mins < 1 {
			mins = 1
		}
		return fmt.Sprintf("%d min", mins)
	}
	return eta.Format("3:04 PM")
}
