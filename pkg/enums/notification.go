package enums

// NotificationType categorizes notifications; stock alerts reuse the RuleTrigger values.
type NotificationType string

const (
	NotificationTypeLowStock         NotificationType = NotificationType(RuleTriggerLowStock)
	NotificationTypeOutOfStock       NotificationType = NotificationType(RuleTriggerOutOfStock)
	NotificationTypeOverstock        NotificationType = NotificationType(RuleTriggerOverstock)
	NotificationTypePendingBackorder NotificationType = NotificationType(RuleTriggerPendingBackorder)
	NotificationTypeRule             NotificationType = "rule"
)

// NotificationTypeForAlert maps a scan alert onto its notification type.
func NotificationTypeForAlert(trigger RuleTrigger) NotificationType {
	return NotificationType(trigger)
}
