package enums

import "fmt"

// QueueEntryStatus maps to the queue_entry_status enum in Postgres.
type QueueEntryStatus string

const (
	QueueEntryStatusPending    QueueEntryStatus = "pending"
	QueueEntryStatusNotified   QueueEntryStatus = "notified"
	QueueEntryStatusAccepted   QueueEntryStatus = "accepted"
	QueueEntryStatusDeclined   QueueEntryStatus = "declined"
	QueueEntryStatusExpired    QueueEntryStatus = "expired"
	QueueEntryStatusReassigned QueueEntryStatus = "reassigned"
	QueueEntryStatusCompleted  QueueEntryStatus = "completed"
)

var validQueueEntryStatuses = []QueueEntryStatus{
	QueueEntryStatusPending,
	QueueEntryStatusNotified,
	QueueEntryStatusAccepted,
	QueueEntryStatusDeclined,
	QueueEntryStatusExpired,
	QueueEntryStatusReassigned,
	QueueEntryStatusCompleted,
}

// OpenQueueEntryStatuses are the non-terminal statuses; at most one entry per
// target may hold one of these at any time.
var OpenQueueEntryStatuses = []QueueEntryStatus{
	QueueEntryStatusPending,
	QueueEntryStatusNotified,
}

// IsValid checks whether the given status matches the canonical enum.
func (s QueueEntryStatus) IsValid() bool {
	for _, candidate := range validQueueEntryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsOpen reports whether the status is non-terminal.
func (s QueueEntryStatus) IsOpen() bool {
	return s == QueueEntryStatusPending || s == QueueEntryStatusNotified
}

// ParseQueueEntryStatus converts raw strings into QueueEntryStatus.
func ParseQueueEntryStatus(value string) (QueueEntryStatus, error) {
	for _, candidate := range validQueueEntryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid queue entry status %q", value)
}
