package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeOfferReceived  NotificationType = "offer_received"
	NotificationTypeOfferExpired   NotificationType = "offer_expired"
	NotificationTypeQueueGenerated NotificationType = "queue_generated"
	NotificationTypeQueueExhausted NotificationType = "queue_exhausted"
	NotificationTypeTargetAssigned NotificationType = "target_assigned"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOfferReceived,
	NotificationTypeOfferExpired,
	NotificationTypeQueueGenerated,
	NotificationTypeQueueExhausted,
	NotificationTypeTargetAssigned,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
