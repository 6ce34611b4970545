package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/trainer-service/internal/api/http"
	"github.com/spec-kit/trainer-service/internal/api/http/handlers"
	"github.com/spec-kit/trainer-service/internal/config"
	"github.com/spec-kit/trainer-service/internal/events"
	"github.com/spec-kit/trainer-service/internal/identity"
	"github.com/spec-kit/trainer-service/internal/observability"
	"github.com/spec-kit/trainer-service/internal/persistence"
	"github.com/spec-kit/trainer-service/internal/repository"
	"github.com/spec-kit/trainer-service/internal/service"
	"github.com/spec-kit/trainer-service/internal/session"
	"github.com/spec-kit/trainer-service/internal/tenancy"
	"github.com/spec-kit/trainer-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	principalRepo := repository.NewPrincipalRepository(pool)
	trainerRepo := repository.NewTrainerRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	sheetRepo := repository.NewTrainingSheetRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	enforcer := tenancy.NewEnforcer()

	keyCache := identity.NewKeyCache(cfg.Identity, redis.Client, logger)
	verifier := identity.NewTokenVerifier(cfg.Identity, keyCache)
	resolver := identity.NewResolver(principalRepo, cfg.Auth.AutoProvision, logger)

	// The gate stays nil unless the process runs outside production with the
	// flag explicitly enabled. A nil gate means no bypass code path exists.
	var gate *identity.BypassGate
	if cfg.Auth.DevBypass {
		gate, err = identity.NewBypassGate(cfg.App, principalRepo, logger)
		if err != nil {
			logger.Fatal("failed to enable dev bypass", zap.Error(err))
		}
	}

	sessionStore := session.NewStore(redis.Client, cfg.Auth)
	authMiddleware := identity.NewAuthMiddleware(verifier, resolver, gate, sessionStore, principalRepo, studentRepo)

	principalService := service.NewPrincipalService(service.PrincipalDependencies{
		PrincipalRepo: principalRepo,
		TrainerRepo:   trainerRepo,
		Dispatcher:    dispatcher,
	})
	sessionService := service.NewSessionService(sessionStore)
	studentService := service.NewStudentService(service.StudentDependencies{
		StudentRepo: studentRepo,
		Enforcer:    enforcer,
	})
	scheduleService := service.NewScheduleService(service.ScheduleDependencies{
		ScheduleRepo: scheduleRepo,
		StudentRepo:  studentRepo,
		Enforcer:     enforcer,
		Dispatcher:   dispatcher,
	})
	trainingService := service.NewTrainingService(service.TrainingDependencies{
		SheetRepo:   sheetRepo,
		StudentRepo: studentRepo,
		Enforcer:    enforcer,
	})
	paymentService := service.NewPaymentService(service.PaymentDependencies{
		PaymentRepo: paymentRepo,
		StudentRepo: studentRepo,
		Enforcer:    enforcer,
	})
	progressService := service.NewProgressService(service.ProgressDependencies{
		ProgressRepo: progressRepo,
		StudentRepo:  studentRepo,
		Enforcer:     enforcer,
	})

	auditService := service.NewAuditService(dispatcher, metrics, logger)
	worker.StartAuditWorker(auditService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, dispatcher, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Principals:     handlers.NewPrincipalsHandler(principalService),
		Sessions:       handlers.NewSessionsHandler(sessionService),
		Students:       handlers.NewStudentsHandler(studentService),
		Schedules:      handlers.NewSchedulesHandler(scheduleService),
		TrainingSheets: handlers.NewTrainingSheetsHandler(trainingService),
		Payments:       handlers.NewPaymentsHandler(paymentService),
		Progress:       handlers.NewProgressHandler(progressService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
