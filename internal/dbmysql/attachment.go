package dbmysql

import (
	"time"

	"botrelay/internal/common"
)

// Attachment describes a file stored in GridFS and attached to one message.
type Attachment struct {
	ID          uint                      `gorm:"primaryKey" json:"id"`
	MessageID   string                    `gorm:"size:36;uniqueIndex;not null" json:"message_id"`
	FileID      string                    `gorm:"size:24;index;not null" json:"file_id"` // MongoDB ObjectID
	Filename    string                    `gorm:"size:255" json:"filename"`
	ContentType string                    `gorm:"size:100" json:"content_type"`
	ByteSize    int64                     `json:"byte_size"`
	Analyzed    bool                      `gorm:"not null;default:false" json:"analyzed"`
	Metadata    common.AttachmentMetadata `gorm:"serializer:json;type:text" json:"metadata"`
	CreatedAt   time.Time                 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}
