package enums

import "fmt"

// LoadStatus tracks the lifecycle of a load.
type LoadStatus string

const (
	LoadStatusScheduled    LoadStatus = "scheduled"
	LoadStatusLoading      LoadStatus = "loading"
	LoadStatusDeparted     LoadStatus = "departed"
	LoadStatusInTransit    LoadStatus = "in_transit"
	LoadStatusArrivedDepot LoadStatus = "arrived_depot"
	LoadStatusCompleted    LoadStatus = "completed"
	LoadStatusCancelled    LoadStatus = "cancelled"
)

var validLoadStatuses = []LoadStatus{
	LoadStatusScheduled,
	LoadStatusLoading,
	LoadStatusDeparted,
	LoadStatusInTransit,
	LoadStatusArrivedDepot,
	LoadStatusCompleted,
	LoadStatusCancelled,
}

// ActiveLoadStatuses are the statuses counted as in-transit for inventory math.
var ActiveLoadStatuses = []LoadStatus{
	LoadStatusDeparted,
	LoadStatusInTransit,
	LoadStatusArrivedDepot,
}

// String implements fmt.Stringer.
func (l LoadStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LoadStatus.
func (l LoadStatus) IsValid() bool {
	for _, candidate := range validLoadStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (l LoadStatus) IsTerminal() bool {
	return l == LoadStatusCompleted || l == LoadStatusCancelled
}

// ParseLoadStatus converts raw input into a LoadStatus.
func ParseLoadStatus(value string) (LoadStatus, error) {
	for _, candidate := range validLoadStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid load status %q", value)
}
