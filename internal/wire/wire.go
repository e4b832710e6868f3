//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"botrelay/internal/chat/handler"
	"botrelay/internal/chat/repository"
	"botrelay/internal/chat/service"
	"botrelay/internal/config"
	"botrelay/internal/dbmongo"
	"botrelay/internal/dbmysql"
	"botrelay/internal/media"
	"botrelay/internal/notif"
	"botrelay/internal/relay"
	"botrelay/internal/user"
)

var storageSet = wire.NewSet(
	ProvideDatabase,
	ProvideMongo,
	dbmongo.NewMediaStorage,
	dbmysql.NewAttachmentRepository,
	user.NewUserRepository,
	repository.NewChatRepository,
)

var chatSet = wire.NewSet(
	ProvideEventBus,
	media.NewAnalyzer,
	service.NewChatService,
	user.NewBotService,
	ProvideLimiter,
	ProvideTokenIssuer,
	ProvideAuthMiddleware,
	handler.NewChatHandler,
	media.NewHTTPServer,
	wire.Bind(new(media.FileSource), new(*dbmongo.MediaStorage)),
	wire.Bind(new(media.AttachmentMarker), new(dbmysql.AttachmentRepository)),
	wire.Bind(new(service.BlobStore), new(*dbmongo.MediaStorage)),
	wire.Bind(new(service.EventPublisher), new(*notif.EventBus)),
	wire.Bind(new(service.AttachmentAnalyzer), new(*media.Analyzer)),
)

var relaySet = wire.NewSet(
	relay.NewStore,
	ProvideRuleset,
	relay.NewClassifier,
	ProvideEngine,
	relay.NewIngestor,
	ProvideGuard,
	ProvideRelay,
	wire.Bind(new(relay.BlobStore), new(*dbmongo.MediaStorage)),
	wire.Bind(new(relay.MessageCreator), new(service.ChatService)),
)

// InitializeApplication builds the relay service. The cleanup function
// releases the database, MongoDB and Redis connections.
func InitializeApplication(cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	wire.Build(
		storageSet,
		chatSet,
		relaySet,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}

// InitializeBotService is used by relayctl, which needs MySQL only.
func InitializeBotService(cfg *config.Config, log zerolog.Logger) (user.BotService, func(), error) {
	wire.Build(
		ProvideDatabase,
		user.NewUserRepository,
		user.NewBotService,
	)
	return nil, nil, nil
}
