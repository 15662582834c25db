package enums

import "fmt"

// AdminEventType classifies audit log entries shown on the admin dashboard.
type AdminEventType string

const (
	AdminEventSubscriptionActivated AdminEventType = "subscription_activated"
	AdminEventSubscriptionCancelled AdminEventType = "subscription_cancelled"
	AdminEventSubscriptionExpired   AdminEventType = "subscription_expired"
	AdminEventCheckoutCreated       AdminEventType = "checkout_created"
	AdminEventCheckoutAbandoned     AdminEventType = "checkout_abandoned"
	AdminEventWebhookSwallowed      AdminEventType = "webhook_swallowed"
)

var validAdminEventTypes = []AdminEventType{
	AdminEventSubscriptionActivated,
	AdminEventSubscriptionCancelled,
	AdminEventSubscriptionExpired,
	AdminEventCheckoutCreated,
	AdminEventCheckoutAbandoned,
	AdminEventWebhookSwallowed,
}

// String implements fmt.Stringer.
func (t AdminEventType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known AdminEventType.
func (t AdminEventType) IsValid() bool {
	for _, candidate := range validAdminEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseAdminEventType converts raw input into an AdminEventType.
func ParseAdminEventType(value string) (AdminEventType, error) {
	for _, candidate := range validAdminEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin event type %q", value)
}
