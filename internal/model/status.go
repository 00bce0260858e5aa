package model

// DeliveryStatus is the lifecycle tag on a Message or Attachment.
// A row starts at pending when created locally and transitions to exactly
// one of sent or error. It never reverts.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryError   DeliveryStatus = "error"
)
