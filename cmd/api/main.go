package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Activos-api/internal/application/audit"
	"github.com/jhoicas/Activos-api/internal/application/auth"
	"github.com/jhoicas/Activos-api/internal/application/plan"
	"github.com/jhoicas/Activos-api/internal/application/ports"
	"github.com/jhoicas/Activos-api/internal/application/vision"
	infraai "github.com/jhoicas/Activos-api/internal/infrastructure/ai"
	"github.com/jhoicas/Activos-api/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/Activos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Activos-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Activos-api/internal/interfaces/http"
	"github.com/jhoicas/Activos-api/pkg/config"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios atados al pool; TxRunner produce los atados a cada tx.
	userRepo := postgres.NewUserRepository(pool)
	assetRepo := postgres.NewAssetRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	itemRepo := postgres.NewInventoryItemRepository(pool)
	logRepo := postgres.NewRecognitionLogRepository(pool)
	planRepo := postgres.NewPlanRepository(pool)
	resolver := postgres.NewAssigneeResolver(pool)
	txRunner := postgres.NewTxRunner(pool)

	notifier := notify.NewLogNotifier(log)
	reportGen := infrapdf.NewMarotoReportGenerator()

	scanUC := audit.NewScanUseCase(txRunner, assetRepo, taskRepo, sessionRepo, itemRepo)
	taskUC := audit.NewTaskUseCase(txRunner, taskRepo, sessionRepo, itemRepo, assetRepo, resolver, notifier)
	syncUC := audit.NewSyncUseCase(txRunner, taskRepo, sessionRepo, itemRepo)
	sessionUC := audit.NewSessionUseCase(txRunner, sessionRepo, taskRepo, itemRepo, assetRepo, reportGen)

	planSvc := plan.NewService(planRepo, logRepo, cfg.Plan.CacheTTL)

	anthropicSvc := infraai.NewAnthropicVision(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
	geminiSvc := infraai.NewGeminiVision(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
	visionUC := vision.NewUseCase(
		[]ports.VisionService{anthropicSvc, geminiSvc},
		planSvc, taskUC, txRunner, logRepo, itemRepo, assetRepo,
	)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30, // los PDFs y el sync pueden tardar más que un GET simple
		IdleTimeout:  time.Second * 60,
		BodyLimit:    8 * 1024 * 1024, // fotos base64 de ai-identify/ai-verify
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Activos Audit API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		TaskUC:    taskUC,
		ScanUC:    scanUC,
		SyncUC:    syncUC,
		SessionUC: sessionUC,
		VisionUC:  visionUC,
		PlanSvc:   planSvc,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
