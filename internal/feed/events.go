package feed

import (
	"encoding/json"
	"fmt"

	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
)

// Kind tags a stream entry with the table the insert happened on.
type Kind string

const (
	KindMessage    Kind = "message"
	KindAttachment Kind = "attachment"
)

// Stream entry field names.
const (
	fieldKind    = "kind"
	fieldPayload = "payload"
	fieldTraceID = "trace_id"
)

// decodeEvent maps one stream entry's fields to a typed feed event.
func decodeEvent(values map[string]any) (messaging.Event, error) {
	kind, _ := values[fieldKind].(string)
	payload, _ := values[fieldPayload].(string)
	if payload == "" {
		return messaging.Event{}, fmt.Errorf("entry has no payload")
	}

	switch Kind(kind) {
	case KindMessage:
		var msg model.Message
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return messaging.Event{}, fmt.Errorf("decoding message payload: %w", err)
		}
		return messaging.Event{Kind: messaging.EventMessageInserted, Message: &msg}, nil
	case KindAttachment:
		var att model.Attachment
		if err := json.Unmarshal([]byte(payload), &att); err != nil {
			return messaging.Event{}, fmt.Errorf("decoding attachment payload: %w", err)
		}
		return messaging.Event{Kind: messaging.EventAttachmentInserted, Attachment: &att}, nil
	default:
		return messaging.Event{}, fmt.Errorf("unknown entry kind %q", kind)
	}
}
