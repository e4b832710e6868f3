package relay

import (
	"context"
	"errors"
	"fmt"

	"botrelay/internal/chat/repository"
	"botrelay/internal/common"
	"botrelay/internal/dbmysql"
	"botrelay/internal/user"
)

// Store is the read side the relay needs from persistence.
type Store interface {
	MessageByID(ctx context.Context, messageID string) (*dbmysql.Message, error)
	ActiveBotsInRoom(ctx context.Context, roomID string) ([]dbmysql.User, error)
	ActiveBotsAmong(ctx context.Context, userIDs []string) ([]dbmysql.User, error)
	// PreviousMessageOf returns nil when the creator has no earlier message in the room.
	PreviousMessageOf(ctx context.Context, msg *dbmysql.Message) (*dbmysql.Message, error)
	AttachmentAnalyzed(ctx context.Context, messageID string) (bool, error)
}

type repoStore struct {
	users       user.UserRepository
	messages    repository.ChatRepository
	attachments dbmysql.AttachmentRepository
}

func NewStore(users user.UserRepository, messages repository.ChatRepository, attachments dbmysql.AttachmentRepository) Store {
	return &repoStore{
		users:       users,
		messages:    messages,
		attachments: attachments,
	}
}

func (s *repoStore) MessageByID(ctx context.Context, messageID string) (*dbmysql.Message, error) {
	return s.messages.ByID(ctx, messageID)
}

func (s *repoStore) ActiveBotsInRoom(ctx context.Context, roomID string) ([]dbmysql.User, error) {
	return s.users.ActiveBotsInRoom(ctx, roomID)
}

func (s *repoStore) ActiveBotsAmong(ctx context.Context, userIDs []string) ([]dbmysql.User, error) {
	return s.users.ActiveBotsByIDs(ctx, userIDs)
}

func (s *repoStore) PreviousMessageOf(ctx context.Context, msg *dbmysql.Message) (*dbmysql.Message, error) {
	return s.messages.PreviousByCreator(ctx, msg)
}

// AttachmentAnalyzed is false for messages without an attachment row.
func (s *repoStore) AttachmentAnalyzed(ctx context.Context, messageID string) (bool, error) {
	att, err := s.attachments.ByMessageID(ctx, messageID)
	if err != nil {
		if errors.Is(err, common.ErrMessageNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("attachment status: %w", err)
	}
	return att.Analyzed, nil
}
