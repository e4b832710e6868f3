package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"botrelay/internal/common"
	"botrelay/internal/dbmysql"
)

type ChatRepository interface {
	// Save inserts the message, its attachment and its mention links. Mentioned
	// users must already exist.
	Save(ctx context.Context, msg *dbmysql.Message) error
	// ByID loads a message with its room, creator, attachment and mentionees.
	ByID(ctx context.Context, messageID string) (*dbmysql.Message, error)
	// PreviousByCreator returns the creator's latest message in the same room
	// created strictly before msg, or nil when there is none.
	PreviousByCreator(ctx context.Context, msg *dbmysql.Message) (*dbmysql.Message, error)
	FetchHistory(ctx context.Context, roomID string, limit int) ([]*dbmysql.Message, error)

	RoomByID(ctx context.Context, roomID string) (*dbmysql.Room, error)
	RoomMembers(ctx context.Context, roomID string) ([]dbmysql.User, error)
}

type chatRepo struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepo{
		db: db,
	}
}

func (r *chatRepo) Save(ctx context.Context, msg *dbmysql.Message) error {
	if err := r.db.WithContext(ctx).Omit("Mentionees.*", "Room", "Creator").Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (r *chatRepo) ByID(ctx context.Context, messageID string) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("Creator").
		Preload("Attachment").
		Preload("Mentionees").
		Where("id = ?", messageID).
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message %s: %w", messageID, common.ErrMessageNotFound)
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

func (r *chatRepo) PreviousByCreator(ctx context.Context, msg *dbmysql.Message) (*dbmysql.Message, error) {
	var previous dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("Mentionees").
		Where("room_id = ? AND creator_id = ? AND id <> ? AND created_at < ?",
			msg.RoomID, msg.CreatorID, msg.ID, msg.CreatedAt).
		Order("created_at DESC").
		First(&previous).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get previous message: %w", err)
	}
	return &previous, nil
}

func (r *chatRepo) FetchHistory(ctx context.Context, roomID string, limit int) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("Attachment").
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	return messages, nil
}

func (r *chatRepo) RoomByID(ctx context.Context, roomID string) (*dbmysql.Room, error) {
	var room dbmysql.Room
	if err := r.db.WithContext(ctx).Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("room %s: %w", roomID, common.ErrRoomNotFound)
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

func (r *chatRepo) RoomMembers(ctx context.Context, roomID string) ([]dbmysql.User, error) {
	var members []dbmysql.User
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.room_id = ?", roomID).
		Order("users.id").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list room members: %w", err)
	}
	return members, nil
}
