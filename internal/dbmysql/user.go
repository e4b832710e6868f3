package dbmysql

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Bot          bool      `gorm:"not null;default:false;index" json:"bot"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	BotTokenHash string    `gorm:"size:255" json:"-"`
	Webhook      *Webhook  `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) IsActiveBot() bool {
	return u != nil && u.Bot && u.Active
}

// MentionText is how a mention of this user reads in a plain-text body.
func (u *User) MentionText() string {
	return "@" + u.Name
}

// Webhook is the outbound endpoint of a bot user. Zero values fall back to
// the relay-wide defaults.
type Webhook struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	UserID           string        `gorm:"size:36;uniqueIndex;not null" json:"user_id"`
	URL              string        `gorm:"size:2048;not null" json:"url"`
	Timeout          time.Duration `json:"timeout"`
	RetryCount       int           `json:"retry_count"`
	RetryBackoff     time.Duration `json:"retry_backoff"`
	EmbedAttachments bool          `gorm:"not null;default:false" json:"embed_attachments"`
	CreatedAt        time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}
