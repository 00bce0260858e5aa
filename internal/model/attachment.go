package model

import "time"

// Attachment is a file linked to a message. URL stays nil until the upload
// to blob storage completes; an attachment cannot be sent before its owning
// message row exists server-side.
type Attachment struct {
	ID          int64
	MessageID   int64
	Name        string
	URL         *string
	ContentType *string
	Size        *int64
	StoragePath string
	CreatedAt   time.Time
	Status      DeliveryStatus
}
