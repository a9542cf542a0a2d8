// Archivo: cmd/sweep/main.go
//
// Ejecuta el barrido de aprobación automática. Una pasada por defecto;
// con -interval se queda corriendo como demonio.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"property-system/internal/listeners"
	"property-system/internal/repositories"
	"property-system/internal/services"
	"property-system/pkg/config"
	"property-system/pkg/database/postgresql"
	"property-system/pkg/eventbus"
	applogger "property-system/pkg/logger"
	"property-system/pkg/mailer"
	"property-system/pkg/whatsapp"
)

func main() {
	interval := flag.Duration("interval", 0, "intervalo entre pasadas; 0 = una sola pasada")
	flag.Parse()

	logger := applogger.NewLogger()
	cfg := config.New()

	dbConn := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbConn.Close()

	txManager := repositories.NewTxManager(dbConn)
	ticketRepo := repositories.NewTicketRepository(dbConn)
	commentRepo := repositories.NewCommentRepository(dbConn)
	propertyRepo := repositories.NewPropertyRepository(dbConn)
	userRepo := repositories.NewUserRepository(dbConn)
	providerRepo := repositories.NewProviderRepository(dbConn)

	bus := eventbus.New(logger)

	var notificationSvc services.NotificationServiceInterface
	if cfg.WhatsApp.AccessToken == "" {
		notificationSvc = services.NewMockNotificationService(logger)
	} else {
		notificationSvc = services.NewNotificationService(
			whatsapp.NewService(cfg.WhatsApp),
			mailer.NewService(cfg.SMTP),
			logger,
		)
	}
	listeners.NewNotificationListener(notificationSvc, userRepo, providerRepo, logger).Register(bus)

	sweepSvc := services.NewSweepService(
		txManager, ticketRepo, commentRepo, propertyRepo,
		bus, logger, cfg.Sweep.ReviewWindow, cfg.Sweep.BatchSize,
	)

	runOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := sweepSvc.Run(ctx); err != nil {
			logger.Error("El barrido terminó con error", zap.Error(err))
		}
	}

	runOnce()
	if *interval <= 0 {
		// pausa corta para que los avisos en goroutines alcancen a salir
		time.Sleep(5 * time.Second)
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	logger.Info("Barrido en modo demonio", zap.Duration("interval", *interval))
	for range ticker.C {
		runOnce()
	}
}
