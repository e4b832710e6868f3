package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"botrelay/internal/common"
)

type AttachmentRepository interface {
	ByMessageID(ctx context.Context, messageID string) (*Attachment, error)
	MarkAnalyzed(ctx context.Context, id uint, metadata common.AttachmentMetadata) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{
		db: db,
	}
}

func (r *attachmentRepository) ByMessageID(ctx context.Context, messageID string) (*Attachment, error) {
	var attachment Attachment

	if err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&attachment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("attachment for message %s: %w", messageID, common.ErrMessageNotFound)
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	return &attachment, nil
}

func (r *attachmentRepository) MarkAnalyzed(ctx context.Context, id uint, metadata common.AttachmentMetadata) error {
	result := r.db.WithContext(ctx).
		Model(&Attachment{ID: id}).
		Select("analyzed", "metadata", "updated_at").
		Updates(&Attachment{Analyzed: true, Metadata: metadata, UpdatedAt: time.Now()})

	if result.Error != nil {
		return fmt.Errorf("failed to mark attachment analyzed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("attachment not found: %d", id)
	}

	return nil
}
