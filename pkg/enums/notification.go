package enums

import "fmt"

// NotificationCategory groups notifications for dashboard filtering.
type NotificationCategory string

const (
	NotificationCategoryInfo    NotificationCategory = "info"
	NotificationCategoryPayment NotificationCategory = "payment"
	NotificationCategorySystem  NotificationCategory = "system"
	NotificationCategoryAlert   NotificationCategory = "alert"
)

var validNotificationCategories = []NotificationCategory{
	NotificationCategoryInfo,
	NotificationCategoryPayment,
	NotificationCategorySystem,
	NotificationCategoryAlert,
}

func (n NotificationCategory) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationCategory.
func (n NotificationCategory) IsValid() bool {
	for _, candidate := range validNotificationCategories {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationCategory converts raw input into a NotificationCategory.
func ParseNotificationCategory(value string) (NotificationCategory, error) {
	for _, candidate := range validNotificationCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification category %q", value)
}

// NotificationPriority orders notifications in the dashboard inbox.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

var validNotificationPriorities = []NotificationPriority{
	NotificationPriorityLow,
	NotificationPriorityNormal,
	NotificationPriorityHigh,
}

func (n NotificationPriority) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationPriority.
func (n NotificationPriority) IsValid() bool {
	for _, candidate := range validNotificationPriorities {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationPriority converts raw input into a NotificationPriority.
func ParseNotificationPriority(value string) (NotificationPriority, error) {
	for _, candidate := range validNotificationPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification priority %q", value)
}
