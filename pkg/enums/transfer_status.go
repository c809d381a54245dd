package enums

import "fmt"

// TransferStatus tracks the lifecycle of a branch-to-branch transfer.
type TransferStatus string

const (
	TransferStatusRequested         TransferStatus = "REQUESTED"
	TransferStatusApproved          TransferStatus = "APPROVED"
	TransferStatusRejected          TransferStatus = "REJECTED"
	TransferStatusInTransit         TransferStatus = "IN_TRANSIT"
	TransferStatusPartiallyReceived TransferStatus = "PARTIALLY_RECEIVED"
	TransferStatusCompleted         TransferStatus = "COMPLETED"
	TransferStatusCancelled         TransferStatus = "CANCELLED"
)

var validTransferStatuses = []TransferStatus{
	TransferStatusRequested,
	TransferStatusApproved,
	TransferStatusRejected,
	TransferStatusInTransit,
	TransferStatusPartiallyReceived,
	TransferStatusCompleted,
	TransferStatusCancelled,
}

// String implements fmt.Stringer.
func (s TransferStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransferStatus.
func (s TransferStatus) IsValid() bool {
	for _, candidate := range validTransferStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition can occur.
// COMPLETED transfers remain reversible, but reversal creates a linked new
// transfer rather than transitioning the original.
func (s TransferStatus) IsTerminal() bool {
	switch s {
	case TransferStatusRejected, TransferStatusCancelled, TransferStatusCompleted:
		return true
	}
	return false
}

// ParseTransferStatus converts raw input into a TransferStatus.
func ParseTransferStatus(value string) (TransferStatus, error) {
	for _, candidate := range validTransferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transfer status %q", value)
}
