package common

import (
	"time"
)

type MessageEventType string

const (
	MessageCreatedType MessageEventType = "message_created"
)

// MessageEvent is published after a message is committed.
type MessageEvent struct {
	Type       MessageEventType
	MessageID  string
	RoomID     string
	CreatorID  string
	OccurredAt time.Time
}

// MessageContentType is the kind of a message as reported to bots.
type MessageContentType string

const (
	ContentText       MessageContentType = "text"
	ContentAttachment MessageContentType = "attachment"
	ContentSound      MessageContentType = "sound"
)

func (ct MessageContentType) String() string {
	return string(ct)
}

// AttachmentMetadata is filled in by the attachment analyzer.
type AttachmentMetadata struct {
	DetectedType string `json:"detected_type,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}
