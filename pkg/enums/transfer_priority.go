package enums

import "fmt"

// TransferPriority orders transfers in branch fulfillment queues.
type TransferPriority string

const (
	TransferPriorityLow    TransferPriority = "LOW"
	TransferPriorityNormal TransferPriority = "NORMAL"
	TransferPriorityHigh   TransferPriority = "HIGH"
	TransferPriorityUrgent TransferPriority = "URGENT"
)

var validTransferPriorities = []TransferPriority{
	TransferPriorityLow,
	TransferPriorityNormal,
	TransferPriorityHigh,
	TransferPriorityUrgent,
}

// String implements fmt.Stringer.
func (p TransferPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known TransferPriority.
func (p TransferPriority) IsValid() bool {
	for _, candidate := range validTransferPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseTransferPriority converts raw input into a TransferPriority.
func ParseTransferPriority(value string) (TransferPriority, error) {
	for _, candidate := range validTransferPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transfer priority %q", value)
}
