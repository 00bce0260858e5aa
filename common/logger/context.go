package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs
// within a context. Fields flow through context enrichment, so business
// context (conversation_id, message_id, ...) shows up on every log
// statement without being threaded by hand.
type LogFields struct {
	ConversationID *int64  // Conversation the operation targets
	MessageID      *int64  // Message row id (server id once known)
	ViewerID       *int64  // Authenticated viewer's user id
	SendKey        *string // Correlation key of an optimistic send
	FeedEventID    *string // Feed stream entry id
	Component      string  // Component name (e.g., "messaging.send")
}

// WithLogFields enriches context with structured log fields. Multiple calls
// merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context. Returns empty LogFields
// if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.ConversationID != nil {
		result.ConversationID = new.ConversationID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.ViewerID != nil {
		result.ViewerID = new.ViewerID
	}
	if new.SendKey != nil {
		result.SendKey = new.SendKey
	}
	if new.FeedEventID != nil {
		result.FeedEventID = new.FeedEventID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value. Useful for setting
// LogFields inline: logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging potentially long message bodies.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
