package bootstrap

import (
	"context"
	"log"
	"time"

	"wizzmo-be/internal/config"
	"wizzmo-be/internal/controller"
	"wizzmo-be/internal/handler"
	"wizzmo-be/internal/pkg/logger"
	"wizzmo-be/internal/pkg/mailer"
	"wizzmo-be/internal/pkg/serverutils"
	"wizzmo-be/internal/pkg/storage"
	"wizzmo-be/internal/repository/memory"
	"wizzmo-be/internal/repository/unitofwork"
	"wizzmo-be/internal/service"
	"wizzmo-be/internal/websocket"

	pktNats "wizzmo-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const profileCacheTTL = 5 * time.Minute

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	OAuthController    controller.IOAuthController
	UserController     controller.IUserController
	CategoryController controller.ICategoryController
	QuestionController controller.IQuestionController
	MentorController   controller.IMentorController
	SessionController  controller.ISessionController
	MessageController  controller.IMessageController
	RpcController      controller.IRpcController

	// Background services, run by main
	ConsumerService service.IConsumerService
	RealtimeService service.IRealtimeService

	// Realtime
	RealtimeHandler *handler.RealtimeHandler
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger
}

// NewContainer wires every dependency. ctx bounds the lifetime of websocket
// sessions served by the realtime handler.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	serverutils.SetJwtSecret(cfg.Auth.JwtSecret)

	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	rtLogger := logger.NewIsolatedLogger(cfg.App.RealtimeLogPath)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	profileCache := memory.NewCacheRepository(profileCacheTTL)
	fileStore := storage.NewLocalStorage(
		cfg.Storage.UploadDir,
		cfg.App.BaseURL,
		cfg.Storage.MaxAvatarSize,
		cfg.Storage.MaxMediaSize,
	)

	// 2. Event bus for mentor stats jobs
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)

	// 3. Cluster infrastructure. Both NATS and Redis are optional; without
	// them the node still delivers row changes to its own sockets.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, rtLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	wsHub := websocket.NewHub(rdb, rtLogger)
	feed := service.NewChangeFeed(natsPub, wsHub, rtLogger)

	// 4. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Realtime.StatsTopic)
	consumerService := service.NewConsumerService(pubSub, cfg.Realtime.StatsTopic, uowFactory, profileCache, feed, sysLogger)
	realtimeService := service.NewRealtimeService(uowFactory, natsSub, wsHub, rtLogger)

	authService := service.NewAuthService(uowFactory, emailService, cfg.Auth, sysLogger)
	oauthService := service.NewOAuthService(uowFactory, cfg.Google, cfg.Auth, sysLogger)
	userService := service.NewUserService(uowFactory, profileCache, fileStore, emailService, feed, sysLogger)
	categoryService := service.NewCategoryService(uowFactory, profileCache, sysLogger)
	questionService := service.NewQuestionService(uowFactory, feed, sysLogger)
	sessionService := service.NewSessionService(uowFactory, emailService, publisherService, feed, cfg.App.AppLink, sysLogger)
	messageService := service.NewMessageService(uowFactory, fileStore, feed, sysLogger)
	mentorService := service.NewMentorService(uowFactory, sysLogger)

	// 5. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService),
		OAuthController:    controller.NewOAuthController(oauthService, cfg.App.AppDeepLink, sysLogger),
		UserController:     controller.NewUserController(userService),
		CategoryController: controller.NewCategoryController(categoryService),
		QuestionController: controller.NewQuestionController(questionService),
		MentorController:   controller.NewMentorController(mentorService),
		SessionController:  controller.NewSessionController(sessionService),
		MessageController:  controller.NewMessageController(messageService),
		RpcController:      controller.NewRpcController(sessionService, userService, mentorService),

		ConsumerService: consumerService,
		RealtimeService: realtimeService,

		RealtimeHandler: handler.NewRealtimeHandler(ctx, wsHub, rtLogger),
		WebSocketHub:    wsHub,

		Logger: sysLogger,
	}
}
