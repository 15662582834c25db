package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateSubscription OutboxAggregateType = "subscription"
	AggregateTransaction  OutboxAggregateType = "transaction"
	AggregateAdminEvent   OutboxAggregateType = "admin_event"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSubscription,
	AggregateTransaction,
	AggregateAdminEvent,
}

func (a OutboxAggregateType) String() string {
	return string(a)
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventSubscriptionActivated OutboxEventType = "subscription_activated"
	EventSubscriptionCancelled OutboxEventType = "subscription_cancelled"
	EventSubscriptionExpired   OutboxEventType = "subscription_expired"
	EventCheckoutCreated       OutboxEventType = "checkout_created"
	EventCheckoutAbandoned     OutboxEventType = "checkout_abandoned"
	EventPaymentSettled        OutboxEventType = "payment_settled"
	EventPaymentFailed         OutboxEventType = "payment_failed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSubscriptionActivated,
	EventSubscriptionCancelled,
	EventSubscriptionExpired,
	EventCheckoutCreated,
	EventCheckoutAbandoned,
	EventPaymentSettled,
	EventPaymentFailed,
}

func (e OutboxEventType) String() string {
	return string(e)
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
