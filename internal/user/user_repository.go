package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"botrelay/internal/common"
	"botrelay/internal/dbmysql"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *dbmysql.User) error
	GetUserByID(ctx context.Context, userID string) (*dbmysql.User, error)
	CheckBotExists(ctx context.Context, name string) (bool, error)
	AddMemberships(ctx context.Context, userID string, roomIDs []string) error

	// ActiveBotsInRoom returns the active bot members of a room, ordered by ID.
	ActiveBotsInRoom(ctx context.Context, roomID string) ([]dbmysql.User, error)
	// ActiveBotsByIDs keeps only the active bots among the given users, ordered by ID.
	ActiveBotsByIDs(ctx context.Context, userIDs []string) ([]dbmysql.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateUser inserts the user together with its webhook, if any.
func (r *userRepository) CreateUser(ctx context.Context, user *dbmysql.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*dbmysql.User, error) {
	var user dbmysql.User
	err := r.db.WithContext(ctx).Preload("Webhook").Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, common.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) CheckBotExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&dbmysql.User{}).Where("name = ? AND bot = ?", name, true).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) AddMemberships(ctx context.Context, userID string, roomIDs []string) error {
	if len(roomIDs) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		rows = append(rows, map[string]interface{}{"room_id": roomID, "user_id": userID})
	}
	err := r.db.WithContext(ctx).
		Table("memberships").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rows).Error
	if err != nil {
		return fmt.Errorf("failed to add memberships: %w", err)
	}
	return nil
}

func (r *userRepository) ActiveBotsInRoom(ctx context.Context, roomID string) ([]dbmysql.User, error) {
	var bots []dbmysql.User
	err := r.db.WithContext(ctx).
		Preload("Webhook").
		Joins("JOIN memberships ON memberships.user_id = users.id").
		Where("memberships.room_id = ? AND users.bot = ? AND users.active = ?", roomID, true, true).
		Order("users.id").
		Find(&bots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list room bots: %w", err)
	}
	return bots, nil
}

func (r *userRepository) ActiveBotsByIDs(ctx context.Context, userIDs []string) ([]dbmysql.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var bots []dbmysql.User
	err := r.db.WithContext(ctx).
		Preload("Webhook").
		Where("id IN ? AND bot = ? AND active = ?", userIDs, true, true).
		Order("id").
		Find(&bots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bots: %w", err)
	}
	return bots, nil
}
