package api

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
	"github.com/nekogravitycat/resource-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/resource-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/resource-booking-backend/internal/file"
	fileHttp "github.com/nekogravitycat/resource-booking-backend/internal/file/http"
	"github.com/nekogravitycat/resource-booking-backend/internal/issuereport"
	issueHttp "github.com/nekogravitycat/resource-booking-backend/internal/issuereport/http"
	"github.com/nekogravitycat/resource-booking-backend/internal/notification"
	notificationHttp "github.com/nekogravitycat/resource-booking-backend/internal/notification/http"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/idempotency"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/resource-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/resource-booking-backend/internal/user/http"
)

// Config carries everything the router needs to mount the API.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	Logger       *logger.Logger

	UserService         user.Service
	BookingService      booking.Service
	IssueReportService  issuereport.Service
	NotificationService notification.Service
	FileService         file.Service
	IdempotencyStore    idempotency.Store
	JWTManager          *auth.JWTManager
}

// RegisterValidators installs the enum tags used in request DTOs.
func RegisterValidators() error {
	if err := request.RegisterEnum("booking_status", booking.StatusStrings()...); err != nil {
		return fmt.Errorf("register booking_status: %w", err)
	}
	if err := request.RegisterEnum("issue_status", issuereport.StatusStrings()...); err != nil {
		return fmt.Errorf("register issue_status: %w", err)
	}
	return nil
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) (*gin.Engine, error) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// Global Middleware:
	// - RequestLogging: one structured line per request, tagged with X-Request-ID.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(logger.RequestLogging(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = cfg.ProdOrigins
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", idempotency.HeaderName, "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", idempotency.ReplayedHeader}
	r.Use(cors.New(corsConfig))

	// authMiddleware: a valid JWT whose user is still allowed to sign in.
	authMiddleware := gin.HandlersChain{
		auth.AuthRequired(cfg.JWTManager),
		RequireActiveUser(cfg.UserService),
	}
	adminMiddleware := RequireRoles(user.RoleAdmin)
	idempotencyMiddleware := idempotency.Middleware(cfg.IdempotencyStore, auth.GetUserID)

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	issueHandler := issueHttp.NewHandler(cfg.IssueReportService, cfg.FileService)
	notificationHandler := notificationHttp.NewHandler(cfg.NotificationService)
	fileHandler := fileHttp.NewHandler(cfg.FileService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, adminMiddleware, idempotencyMiddleware)
		issueHttp.RegisterRoutes(v1, issueHandler, authMiddleware, adminMiddleware, idempotencyMiddleware)
		notificationHttp.RegisterRoutes(v1, notificationHandler, authMiddleware)
		fileHttp.RegisterRoutes(v1, fileHandler, authMiddleware)
	}

	return r, nil
}
