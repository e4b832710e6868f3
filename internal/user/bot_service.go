package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"botrelay/internal/common"
	"botrelay/internal/dbmysql"
)

type BotService interface {
	// RegisterBot creates an active bot user with its webhook and returns the
	// bot key. The key is not stored and cannot be recovered later.
	RegisterBot(ctx context.Context, req RegisterBotRequest) (*dbmysql.User, string, error)
	AuthenticateBot(ctx context.Context, botKey string) (*dbmysql.User, error)
}

type RegisterBotRequest struct {
	Name             string
	WebhookURL       string
	Timeout          time.Duration
	RetryCount       int
	RetryBackoff     time.Duration
	EmbedAttachments bool
	RoomIDs          []string
}

type botService struct {
	userRepo UserRepository
}

func NewBotService(userRepo UserRepository) BotService {
	return &botService{userRepo: userRepo}
}

func (s *botService) RegisterBot(ctx context.Context, req RegisterBotRequest) (*dbmysql.User, string, error) {
	name := strings.TrimSpace(req.Name)
	if err := common.ValidateBotName(name); err != nil {
		return nil, "", err
	}
	// An empty URL leaves the bot on the relay's shared endpoint.
	if req.WebhookURL != "" {
		if err := common.ValidateWebhookURL(req.WebhookURL); err != nil {
			return nil, "", err
		}
	}

	exists, err := s.userRepo.CheckBotExists(ctx, name)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", errors.New("bot name already exists")
	}

	token, hash, err := common.NewBotToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate bot token: %w", err)
	}

	bot := &dbmysql.User{
		Name:         name,
		Bot:          true,
		Active:       true,
		BotTokenHash: hash,
		Webhook: &dbmysql.Webhook{
			URL:              req.WebhookURL,
			Timeout:          req.Timeout,
			RetryCount:       req.RetryCount,
			RetryBackoff:     req.RetryBackoff,
			EmbedAttachments: req.EmbedAttachments,
		},
	}

	if err := s.userRepo.CreateUser(ctx, bot); err != nil {
		return nil, "", err
	}

	if err := s.userRepo.AddMemberships(ctx, bot.ID, req.RoomIDs); err != nil {
		return nil, "", err
	}

	return bot, common.BotKey(bot.ID, token), nil
}

func (s *botService) AuthenticateBot(ctx context.Context, botKey string) (*dbmysql.User, error) {
	userID, token, err := common.SplitBotKey(botKey)
	if err != nil {
		return nil, err
	}

	bot, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrInvalidBotKey
		}
		return nil, err
	}

	if !bot.IsActiveBot() || bot.BotTokenHash == "" {
		return nil, common.ErrInvalidBotKey
	}
	if err := common.CheckBotToken(token, bot.BotTokenHash); err != nil {
		return nil, common.ErrInvalidBotKey
	}

	return bot, nil
}
