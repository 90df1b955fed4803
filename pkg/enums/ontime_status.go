package enums

import "fmt"

// OnTimeStatus classifies an actual time against a scheduled one.
type OnTimeStatus string

const (
	OnTimeStatusEarly   OnTimeStatus = "early"
	OnTimeStatusOnTime  OnTimeStatus = "on_time"
	OnTimeStatusDelayed OnTimeStatus = "delayed"
)

var validOnTimeStatuses = []OnTimeStatus{
	OnTimeStatusEarly,
	OnTimeStatusOnTime,
	OnTimeStatusDelayed,
}

// String implements fmt.Stringer.
func (o OnTimeStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OnTimeStatus.
func (o OnTimeStatus) IsValid() bool {
	for _, candidate := range validOnTimeStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOnTimeStatus converts raw input into an OnTimeStatus.
func ParseOnTimeStatus(value string) (OnTimeStatus, error) {
	for _, candidate := range validOnTimeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid on-time status %q", value)
}
