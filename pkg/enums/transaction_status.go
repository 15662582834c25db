package enums

import "fmt"

// TransactionStatus is the internal status a gateway callback maps onto.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusSettlement TransactionStatus = "settlement"
	TransactionStatusExpire     TransactionStatus = "expire"
	TransactionStatusCancel     TransactionStatus = "cancel"
	TransactionStatusDeny       TransactionStatus = "deny"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusSettlement,
	TransactionStatusExpire,
	TransactionStatusCancel,
	TransactionStatusDeny,
}

// Transaction statuses only move forward. Pending ranks below every
// terminal status so a stale pending replay never clobbers a settlement.
var transactionStatusRank = map[TransactionStatus]int{
	TransactionStatusPending:    0,
	TransactionStatusSettlement: 1,
	TransactionStatusExpire:     1,
	TransactionStatusCancel:     1,
	TransactionStatusDeny:       1,
}

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s TransactionStatus) IsValid() bool {
	for _, candidate := range validTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends a purchase attempt.
func (s TransactionStatus) IsTerminal() bool {
	return transactionStatusRank[s] > 0
}

// CanTransitionTo reports whether moving from s to next is a forward move.
// Same-status replays are allowed; they are idempotent no-ops upstream.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next {
		return true
	}
	return transactionStatusRank[next] >= transactionStatusRank[s]
}

// ParseTransactionStatus converts raw input into a TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	for _, candidate := range validTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction status %q", value)
}
