package di

import (
	"chatbot-api/backend/internal/ai"
	"chatbot-api/backend/internal/api"
	"chatbot-api/backend/internal/repository"
	"chatbot-api/backend/internal/service"
	"chatbot-api/backend/internal/ws"
	"chatbot-api/backend/pkg/cache"
	"chatbot-api/backend/pkg/config"
	"chatbot-api/backend/pkg/jwt"
	"chatbot-api/backend/pkg/logger"
	"chatbot-api/backend/shared/observability"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB         *gorm.DB
	Logger     *logger.Logger
	JWTService *jwt.Service
	Cache      *cache.Cache

	ConversationRepository repository.ConversationRepository
	UserRepository         repository.UserRepository
	BillingRepository      repository.BillingRepository

	ConversationService *service.ConversationService
	UserService         *service.UserService
	BillingService      *service.BillingService

	Provider       ai.Provider
	TicketRegistry *ws.TicketRegistry
	Relay          *ws.Relay
	StreamMetrics  *observability.StreamMetrics

	ChatController         *api.ChatController
	ConversationController *api.ConversationController
	UserController         *api.UserController
	BillingController      *api.BillingController
}

// Options carries the pieces the container cannot build itself
type Options struct {
	JWTSecret     string
	Provider      ai.Provider
	StreamMetrics *observability.StreamMetrics
}

// New wires the application graph from the database up to the controllers
func New(db *gorm.DB, log *logger.Logger, opts Options) (*Container, error) {
	cfg := config.Get()

	jwtService := jwt.NewService(opts.JWTSecret, cfg.JWT.Audience)
	c := cache.New()

	conversationRepo := repository.NewGormConversationRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	billingRepo := repository.NewGormBillingRepository(db)

	conversationService := service.NewConversationService(conversationRepo)
	userService := service.NewUserService(userRepo, c)
	billingService := service.NewBillingService(billingRepo, userRepo)

	provider := opts.Provider
	if provider == nil {
		p, err := ai.NewOpenAIProvider()
		if err != nil {
			return nil, err
		}
		provider = ai.NewResilientProvider(p, log)
	}

	registry := ws.NewTicketRegistry(cfg.Chat.TicketTTL)
	store := service.NewChatStoreAdapter(conversationRepo)
	relay := ws.NewRelay(registry, store, provider, log, opts.StreamMetrics, cfg.Chat.CheckpointThreshold)

	return &Container{
		DB:         db,
		Logger:     log,
		JWTService: jwtService,
		Cache:      c,

		ConversationRepository: conversationRepo,
		UserRepository:         userRepo,
		BillingRepository:      billingRepo,

		ConversationService: conversationService,
		UserService:         userService,
		BillingService:      billingService,

		Provider:       provider,
		TicketRegistry: registry,
		Relay:          relay,
		StreamMetrics:  opts.StreamMetrics,

		ChatController:         api.NewChatController(conversationService, registry, relay),
		ConversationController: api.NewConversationController(conversationService),
		UserController:         api.NewUserController(userService),
		BillingController:      api.NewBillingController(billingService),
	}, nil
}
