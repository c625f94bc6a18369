package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/resource-booking-backend/internal/api"
	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
	"github.com/nekogravitycat/resource-booking-backend/internal/booking"
	"github.com/nekogravitycat/resource-booking-backend/internal/config"
	"github.com/nekogravitycat/resource-booking-backend/internal/db"
	"github.com/nekogravitycat/resource-booking-backend/internal/file"
	"github.com/nekogravitycat/resource-booking-backend/internal/issuereport"
	"github.com/nekogravitycat/resource-booking-backend/internal/notification"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/events"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
	"github.com/nekogravitycat/resource-booking-backend/internal/user"
)

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager

	// closers run in reverse order on Close.
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func(ctx context.Context) error
}

func (c *Container) onClose(name string, fn func(ctx context.Context) error) {
	c.closers = append(c.closers, namedCloser{name: name, close: fn})
}

// NewContainer connects the backing stores and initializes all modules.
// On error every connection opened so far is closed again.
func NewContainer(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *Container, err error) {
	c := &Container{}
	defer func() {
		if err != nil {
			_ = c.Close(context.WithoutCancel(ctx))
		}
	}()

	// Postgres: users, resources, bookings, issue reports, files
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c.onClose("postgres", func(context.Context) error { pool.Close(); return nil })

	// MongoDB: notification inbox
	mongoClient, mongoDB, err := db.NewMongoDatabase(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	c.onClose("mongo", mongoClient.Disconnect)
	if err := notification.EnsureIndexes(ctx, mongoDB); err != nil {
		return nil, err
	}

	// Idempotency keys: Redis when configured, process memory otherwise
	var idemStore idempotency.Store
	if cfg.RedisAddr != "" {
		rdb, err := db.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.onClose("redis", func(context.Context) error { return rdb.Close() })
		idemStore = idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL)
	} else {
		mem := idempotency.NewMemoryStore(cfg.IdempotencyTTL)
		c.onClose("idempotency", func(context.Context) error { mem.Stop(); return nil })
		idemStore = mem
		log.Warn("REDIS_ADDR not set, idempotency keys are kept in process memory")
	}

	// Events: Kafka when configured
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("create kafka publisher: %w", err)
		}
		c.onClose("kafka", func(context.Context) error { return kp.Close() })
		publisher = kp
	}

	store, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init upload storage: %w", err)
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	c.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)

	// User Module
	userService := user.NewService(user.NewPgxRepository(pool), passwordHasher)

	// Resource Module
	resService := resource.NewService(resource.NewPgxRepository(pool))

	// File Module
	fileService := file.NewService(file.NewPgxRepository(pool), store)

	// Notification Module
	notificationService := notification.NewService(notification.NewMongoRepository(mongoDB), publisher)
	// Registered after mongo and kafka so queued deliveries drain before they close.
	c.onClose("notifications", notificationService.Close)

	// Booking Module
	bookingService := booking.NewService(
		booking.NewPgxRepository(pool),
		resService,
		notificationService,
		booking.NewClock(cfg.BookingLocation),
	)

	// Issue Report Module
	issueService := issuereport.NewService(
		issuereport.NewPgxRepository(pool),
		resService,
		notificationService,
		fileService,
	)

	// Router
	c.Router, err = api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Logger:              log,
		UserService:         userService,
		BookingService:      bookingService,
		IssueReportService:  issueService,
		NotificationService: notificationService,
		FileService:         fileService,
		IdempotencyStore:    idemStore,
		JWTManager:          c.JWTManager,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	return c, nil
}

// Close releases every backing connection, newest first.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		cl := c.closers[i]
		if err := cl.close(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close component", "component", cl.name, "error", err)
			errs = append(errs, fmt.Errorf("close %s: %w", cl.name, err))
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
