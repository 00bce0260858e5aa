package messaging

import "errors"

var (
	// ErrNoViewer is returned when an operation needs an authenticated
	// viewer and none is set.
	ErrNoViewer = errors.New("no authenticated viewer")

	// ErrNoConversation is returned by Send when no conversation is
	// selected and none was named.
	ErrNoConversation = errors.New("no conversation selected")

	// ErrSendInFlight is returned when a send is already running for the
	// target conversation.
	ErrSendInFlight = errors.New("send already in flight for conversation")
)
