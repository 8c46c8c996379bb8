package returns

import (
	"fmt"
	"math"
	"time"
)

// Urgency buckets a deadline by how soon it needs attention.
type Urgency string

const (
	UrgencyOverdue Urgency = "overdue"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyDueSoon Urgency = "due_soon"
	UrgencySafe    Urgency = "safe"
)

// unlimitedWindowYears encodes a zero-day return window. Retailers with no
// enforced window get a far-future deadline instead of a null one, so
// sorting and day arithmetic never special-case it.
const unlimitedWindowYears = 10

// Deadline computes the return deadline for a purchase. windowDays of zero
// means the retailer accepts returns indefinitely. Calendar arithmetic, not
// fixed 24h steps, so month and year lengths are respected.
func Deadline(purchaseDate time.Time, windowDays int) time.Time {
	if windowDays == 0 {
		return purchaseDate.AddDate(unlimitedWindowYears, 0, 0)
	}
	return purchaseDate.AddDate(0, 0, windowDays)
}

// DaysRemaining returns the whole days left until the deadline, rounded up.
// Negative values mean the deadline already passed.
func DaysRemaining(deadline, now time.Time) int {
	diff := deadline.Sub(now)
	return int(math.Ceil(diff.Hours() / 24))
}

// UrgencyFor partitions day counts into the four urgency buckets. Ties at
// 2 and 7 fall into the more urgent bucket.
func UrgencyFor(daysRemaining int) Urgency {
	switch {
	case daysRemaining < 0:
		return UrgencyOverdue
	case daysRemaining <= 2:
		return UrgencyUrgent
	case daysRemaining <= 7:
		return UrgencyDueSoon
	default:
		return UrgencySafe
	}
}

// FormatDaysRemaining renders the day count the way the mobile app shows it.
func FormatDaysRemaining(daysRemaining int) string {
	switch {
	case daysRemaining < 0:
		n := -daysRemaining
		if n == 1 {
			return "Overdue by 1 day"
		}
		return fmt.Sprintf("Overdue by %d days", n)
	case daysRemaining == 0:
		return "Due today"
	case daysRemaining == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", daysRemaining)
	}
}
