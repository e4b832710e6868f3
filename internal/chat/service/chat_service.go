package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"botrelay/internal/chat/repository"
	"botrelay/internal/common"
	"botrelay/internal/dbmongo"
	"botrelay/internal/dbmysql"
)

// ChatService defines the interface exposed to the handler layer and to the relay.
type ChatService interface {
	// CreateMessage persists a message and publishes it. Bot notification
	// happens afterwards and never fails the call.
	CreateMessage(ctx context.Context, req NewMessage) (*dbmysql.Message, error)
	GetMessage(ctx context.Context, viewerID, roomID, messageID string) (*dbmysql.Message, error)
	GetMessageHistory(ctx context.Context, viewerID, roomID string, limit int) ([]*dbmysql.Message, error)
}

type NewMessage struct {
	RoomID            string
	CreatorID         string
	Body              string // rich text (HTML)
	ClientMessageID   string
	MentioneeIDs      []string
	CausedByMessageID *string
	Attachment        *NewAttachment
}

type NewAttachment struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

type BlobStore interface {
	UploadFile(ctx context.Context, filename, contentType, uploaderID string, content io.Reader) (*dbmongo.MediaFile, error)
	DeleteFile(ctx context.Context, fileID string) error
}

type EventPublisher interface {
	NotifyAsync(event common.MessageEvent)
}

type AttachmentAnalyzer interface {
	AnalyzeAsync(attachment dbmysql.Attachment)
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type chatService struct {
	repo      repository.ChatRepository
	blobs     BlobStore
	publisher EventPublisher
	analyzer  AttachmentAnalyzer
	log       zerolog.Logger
}

// Constructor used in DI/wire
func NewChatService(r repository.ChatRepository, blobs BlobStore, publisher EventPublisher, analyzer AttachmentAnalyzer, log zerolog.Logger) ChatService {
	return &chatService{
		repo:      r,
		blobs:     blobs,
		publisher: publisher,
		analyzer:  analyzer,
		log:       log.With().Str("component", "chat").Logger(),
	}
}

func (s *chatService) CreateMessage(ctx context.Context, req NewMessage) (*dbmysql.Message, error) {
	if req.RoomID == "" {
		return nil, errors.New("room ID cannot be empty")
	}
	if req.CreatorID == "" {
		return nil, errors.New("creator ID cannot be empty")
	}
	body := strings.TrimSpace(req.Body)
	if body == "" && req.Attachment == nil {
		return nil, common.ErrEmptyMessage
	}

	room, err := s.repo.RoomByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.RoomMembers(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	creator := findUser(members, req.CreatorID)
	if creator == nil {
		return nil, common.ErrNotRoomMember
	}

	plain := common.PlainText(body)
	msg := &dbmysql.Message{
		RoomID:            room.ID,
		CreatorID:         creator.ID,
		Body:              body,
		PlainBody:         plain,
		ClientMessageID:   req.ClientMessageID,
		CausedByMessageID: req.CausedByMessageID,
		Mentionees:        mentionees(members, req.MentioneeIDs, plain),
		CreatedAt:         time.Now().UTC(),
	}

	if req.Attachment != nil {
		file, err := s.blobs.UploadFile(ctx, req.Attachment.Filename, req.Attachment.ContentType, creator.ID, req.Attachment.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
		msg.Attachment = &dbmysql.Attachment{
			FileID:      file.ID,
			Filename:    file.Filename,
			ContentType: file.ContentType,
			ByteSize:    file.Size,
		}
	}

	if err := s.repo.Save(ctx, msg); err != nil {
		if msg.Attachment != nil {
			if delErr := s.blobs.DeleteFile(context.WithoutCancel(ctx), msg.Attachment.FileID); delErr != nil {
				s.log.Warn().Err(delErr).Str("file_id", msg.Attachment.FileID).Msg("orphaned attachment blob")
			}
		}
		return nil, err
	}

	msg.Room = room
	msg.Creator = creator

	if msg.Attachment != nil {
		s.analyzer.AnalyzeAsync(*msg.Attachment)
	}

	s.publisher.NotifyAsync(common.MessageEvent{
		Type:       common.MessageCreatedType,
		MessageID:  msg.ID,
		RoomID:     msg.RoomID,
		CreatorID:  msg.CreatorID,
		OccurredAt: msg.CreatedAt,
	})

	s.log.Debug().
		Str("message_id", msg.ID).
		Str("room_id", msg.RoomID).
		Str("creator_id", msg.CreatorID).
		Int("mentionees", len(msg.Mentionees)).
		Msg("message created")

	return msg, nil
}

func (s *chatService) GetMessage(ctx context.Context, viewerID, roomID, messageID string) (*dbmysql.Message, error) {
	if err := s.checkMember(ctx, viewerID, roomID); err != nil {
		return nil, err
	}

	msg, err := s.repo.ByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.RoomID != roomID {
		return nil, fmt.Errorf("message %s: %w", messageID, common.ErrMessageNotFound)
	}
	return msg, nil
}

// GetMessageHistory returns the newest messages of a room, newest first.
func (s *chatService) GetMessageHistory(ctx context.Context, viewerID, roomID string, limit int) ([]*dbmysql.Message, error) {
	if roomID == "" {
		return nil, errors.New("room ID is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	if err := s.checkMember(ctx, viewerID, roomID); err != nil {
		return nil, err
	}

	return s.repo.FetchHistory(ctx, roomID, limit)
}

func (s *chatService) checkMember(ctx context.Context, userID, roomID string) error {
	if _, err := s.repo.RoomByID(ctx, roomID); err != nil {
		return err
	}
	members, err := s.repo.RoomMembers(ctx, roomID)
	if err != nil {
		return err
	}
	if findUser(members, userID) == nil {
		return common.ErrNotRoomMember
	}
	return nil
}

func findUser(users []dbmysql.User, id string) *dbmysql.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

var mentionToken = regexp.MustCompile(`(?:^|\s)@([\p{L}\p{N}_.\-]+)`)

// mentionees collects the room members named explicitly by ID or by an
// @Name token in the plain body. Unknown IDs and names are ignored.
func mentionees(members []dbmysql.User, ids []string, plain string) []dbmysql.User {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	names := make(map[string]bool)
	for _, m := range mentionToken.FindAllStringSubmatch(plain, -1) {
		names[strings.ToLower(strings.TrimRight(m[1], ".-"))] = true
	}

	var out []dbmysql.User
	for _, member := range members {
		if wanted[member.ID] || names[strings.ToLower(member.Name)] {
			out = append(out, dbmysql.User{ID: member.ID, Name: member.Name, Bot: member.Bot, Active: member.Active})
		}
	}
	return out
}
