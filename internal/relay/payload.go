package relay

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"botrelay/internal/common"
	"botrelay/internal/dbmysql"
)

// Payload is the JSON document POSTed to a bot webhook. Fields are only
// ever added, never renamed.
type Payload struct {
	User    PayloadUser    `json:"user"`
	Room    PayloadRoom    `json:"room"`
	Message PayloadMessage `json:"message"`
}

type PayloadUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PayloadRoom struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Path is where the bot posts messages of its own.
	Path string `json:"path"`
}

type PayloadMessage struct {
	ID          string             `json:"id"`
	Body        string             `json:"body"`
	HTML        string             `json:"html"`
	Path        string             `json:"path"`
	ContentType string             `json:"content_type"`
	Attachment  *PayloadAttachment `json:"attachment,omitempty"`
}

type PayloadAttachment struct {
	Filename    string                    `json:"filename"`
	ContentType string                    `json:"content_type"`
	Size        int64                     `json:"size"`
	URL         string                    `json:"url"`
	Metadata    common.AttachmentMetadata `json:"metadata"`
	Base64      string                    `json:"base64,omitempty"`
}

type PayloadOptions struct {
	// Body is the classifier's cleaned text.
	Body        string
	BaseLinkURL string
	// Base64 is the encoded attachment content; empty when not embedded.
	Base64 string
}

// BuildPayload describes msg for one recipient bot. The recipient's own
// mention is removed from the forwarded body.
func BuildPayload(msg *dbmysql.Message, recipient *dbmysql.User, opts PayloadOptions) Payload {
	p := Payload{
		Message: PayloadMessage{
			ID:          msg.ID,
			Body:        stripMention(opts.Body, recipient),
			HTML:        msg.Body,
			Path:        MessagePath(msg.RoomID, msg.ID),
			ContentType: msg.ContentType().String(),
		},
		Room: PayloadRoom{
			ID:   msg.RoomID,
			Path: BotMessagesPath(msg.RoomID),
		},
		User: PayloadUser{ID: msg.CreatorID},
	}
	if msg.Creator != nil {
		p.User.Name = msg.Creator.Name
	}
	if msg.Room != nil {
		p.Room.Name = msg.Room.Name
	}

	if msg.HasAttachment() {
		att := msg.Attachment
		p.Message.Attachment = &PayloadAttachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Size:        att.ByteSize,
			URL:         MediaURL(opts.BaseLinkURL, att.FileID),
			Metadata:    att.Metadata,
			Base64:      opts.Base64,
		}
	}
	return p
}

func MessagePath(roomID, messageID string) string {
	return fmt.Sprintf("/api/v1/rooms/%s/messages/%s", roomID, messageID)
}

func BotMessagesPath(roomID string) string {
	return fmt.Sprintf("/api/v1/rooms/%s/bot_messages", roomID)
}

func MediaURL(baseLinkURL, fileID string) string {
	return strings.TrimRight(baseLinkURL, "/") + "/media/" + fileID
}

var mentionWord = regexp.MustCompile(`@[\p{L}\p{N}_.\-]+`)

// stripMention removes whole mentions of recipient. Trailing dots count as
// punctuation unless they are part of the name.
func stripMention(body string, recipient *dbmysql.User) string {
	if recipient != nil && recipient.Name != "" {
		mention := recipient.MentionText()
		body = mentionWord.ReplaceAllStringFunc(body, func(word string) string {
			if word == mention {
				return ""
			}
			if trimmed := strings.TrimRight(word, "."); trimmed == mention {
				return word[len(trimmed):]
			}
			return word
		})
	}
	return strings.TrimFunc(body, unicode.IsSpace)
}
