package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"property-system/internal/controllers"
	"property-system/internal/listeners"
	"property-system/internal/repositories"
	"property-system/internal/services"
	"property-system/pkg/config"
	"property-system/pkg/eventbus"
	"property-system/pkg/mailer"
	"property-system/pkg/middleware"
	"property-system/pkg/search"
	"property-system/pkg/service"
	"property-system/pkg/whatsapp"
)

// InitRouter arma todo el grafo de dependencias y registra las rutas.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, logger *zap.Logger, cfg *config.Config) {
	logger.Info("InitRouter: registrando rutas")

	apiGroup := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)

	// --- repositorios ---
	txManager := repositories.NewTxManager(dbConn)
	userRepo := repositories.NewUserRepository(dbConn)
	propertyRepo := repositories.NewPropertyRepository(dbConn)
	providerRepo := repositories.NewProviderRepository(dbConn)
	ticketRepo := repositories.NewTicketRepository(dbConn)
	commentRepo := repositories.NewCommentRepository(dbConn)
	approvalRepo := repositories.NewApprovalRepository(dbConn)
	reportRepo := repositories.NewReportRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- infraestructura saliente ---
	whatsappSvc := whatsapp.NewService(cfg.WhatsApp)
	mailerSvc := mailer.NewService(cfg.SMTP)
	searchSvc := search.NewService(cfg.Search)
	bus := eventbus.New(logger)

	// --- servicios ---
	var notificationSvc services.NotificationServiceInterface
	if cfg.WhatsApp.AccessToken == "" {
		// sin credenciales se simula el envío; útil en desarrollo local
		notificationSvc = services.NewMockNotificationService(logger)
	} else {
		notificationSvc = services.NewNotificationService(whatsappSvc, mailerSvc, logger)
	}

	matchingSvc := services.NewMatchingService(providerRepo, cacheRepo, searchSvc, logger)
	authService := services.NewAuthService(userRepo, cacheRepo, jwtSvc, notificationSvc, logger)
	propertyService := services.NewPropertyService(propertyRepo, userRepo, logger)
	providerService := services.NewProviderService(providerRepo, userRepo, logger)
	ticketService := services.NewTicketService(
		txManager, ticketRepo, commentRepo, approvalRepo,
		propertyRepo, providerRepo, userRepo,
		matchingSvc, bus, logger,
	)
	reportService := services.NewReportService(reportRepo, logger)

	// --- suscriptores de eventos ---
	notificationListener := listeners.NewNotificationListener(notificationSvc, userRepo, providerRepo, logger)
	notificationListener.Register(bus)

	// --- controladores ---
	authController := controllers.NewAuthController(authService, logger)
	propertyController := controllers.NewPropertyController(propertyService, logger)
	providerController := controllers.NewProviderController(providerService, logger)
	ticketController := controllers.NewTicketController(ticketService, logger)
	reportController := controllers.NewReportController(reportService, logger)

	// --- rutas ---
	secureGroup := apiGroup.Group("", authMW.Auth)

	runAuthRouter(apiGroup, secureGroup, authController)
	runPropertyRouter(secureGroup, propertyController)
	runProviderRouter(secureGroup, providerController)
	runTicketRouter(secureGroup, ticketController)
	runReportRouter(secureGroup, reportController)

	logger.Info("InitRouter: rutas registradas")
}
