package enums

import "fmt"

// ResponseStatus maps to the response_status enum in Postgres.
type ResponseStatus string

const (
	ResponseStatusAccepted   ResponseStatus = "accepted"
	ResponseStatusDeclined   ResponseStatus = "declined"
	ResponseStatusReassigned ResponseStatus = "reassigned"
)

var validResponseStatuses = []ResponseStatus{
	ResponseStatusAccepted,
	ResponseStatusDeclined,
	ResponseStatusReassigned,
}

// IsValid checks whether the given status matches the canonical enum.
func (s ResponseStatus) IsValid() bool {
	for _, candidate := range validResponseStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseResponseStatus converts raw strings into ResponseStatus.
func ParseResponseStatus(value string) (ResponseStatus, error) {
	for _, candidate := range validResponseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid response status %q", value)
}
