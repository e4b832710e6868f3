package dbmysql

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"botrelay/internal/common"
)

type Message struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	RoomID    string `gorm:"size:36;not null;index:idx_room_creator_created,priority:1;uniqueIndex:idx_room_client_message,priority:1" json:"room_id"`
	Room      *Room  `gorm:"foreignKey:RoomID" json:"-"`
	CreatorID string `gorm:"size:36;not null;index:idx_room_creator_created,priority:2" json:"creator_id"`
	Creator   *User  `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`

	Body      string `gorm:"type:text" json:"body"`       // rich text (HTML)
	PlainBody string `gorm:"type:text" json:"plain_body"` // plain-text projection of Body

	ClientMessageID   string  `gorm:"size:36;not null;uniqueIndex:idx_room_client_message,priority:2" json:"client_message_id"`
	CausedByMessageID *string `gorm:"size:36;index" json:"caused_by_message_id,omitempty"`

	Attachment *Attachment `gorm:"foreignKey:MessageID" json:"attachment,omitempty"`
	Mentionees []User      `gorm:"many2many:message_mentions;" json:"-"`

	CreatedAt time.Time `gorm:"index:idx_room_creator_created,priority:3" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.ClientMessageID == "" {
		m.ClientMessageID = uuid.NewString()
	}
	return nil
}

func (m *Message) HasAttachment() bool {
	return m.Attachment != nil && m.Attachment.FileID != ""
}

// PlainTextBody falls back to the attachment filename for attachment-only messages.
func (m *Message) PlainTextBody() string {
	if m.PlainBody != "" {
		return m.PlainBody
	}
	if m.HasAttachment() {
		return m.Attachment.Filename
	}
	return ""
}

var soundCommand = regexp.MustCompile(`^/play (\w+)$`)

// SoundName returns the sound requested by a "/play <name>" message.
func (m *Message) SoundName() string {
	if match := soundCommand.FindStringSubmatch(m.PlainBody); match != nil {
		return match[1]
	}
	return ""
}

func (m *Message) ContentType() common.MessageContentType {
	switch {
	case m.HasAttachment():
		return common.ContentAttachment
	case m.SoundName() != "":
		return common.ContentSound
	default:
		return common.ContentText
	}
}
