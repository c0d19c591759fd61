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

	"github.com/jhoicas/relief-inventory/internal/application/inventory"
	"github.com/jhoicas/relief-inventory/internal/application/request"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
	"github.com/jhoicas/relief-inventory/internal/infrastructure/memory"
	"github.com/jhoicas/relief-inventory/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/relief-inventory/internal/infrastructure/pdf"
	"github.com/jhoicas/relief-inventory/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/relief-inventory/internal/interfaces/http"
	"github.com/jhoicas/relief-inventory/pkg/config"
	"github.com/jhoicas/relief-inventory/pkg/logger"
)

// storage repositorios y runner del driver elegido.
type storage struct {
	txRunner  inventory.TxRunner
	stocks    repository.StockRepository
	movements repository.MovementRepository
	requests  repository.RequestRepository
	shelters  repository.ShelterDirectory
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Ledger.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	var recorder inventory.Recorder = inventory.NopRecorder{}
	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New("relief")
		recorder = appMetrics
	}

	ledgerCfg := inventory.LedgerConfig{
		ProvincialID:         cfg.Ledger.ProvincialID,
		ProvincialName:       cfg.Ledger.ProvincialName,
		DefaultMinStock:      cfg.Ledger.DefaultMinStock,
		DefaultCriticalLevel: cfg.Ledger.DefaultCriticalLevel,
	}
	locations := inventory.NewLocations(ledgerCfg, st.shelters)

	ledgerUC := inventory.NewLedgerUseCase(st.txRunner, st.stocks, locations, recorder, log.Component("ledger"))
	transferUC := inventory.NewTransferUseCase(st.txRunner, st.stocks, locations, ledgerCfg, recorder, log.Component("transfer"))
	historyUC := inventory.NewHistoryUseCase(st.txRunner, st.stocks, st.movements, log.Component("history"))
	importUC := inventory.NewImportUseCase(st.stocks, ledgerUC, transferUC, log.Component("import"))
	replenishmentUC := inventory.NewReplenishmentUseCase(st.stocks, locations)
	summaryUC := inventory.NewSummaryUseCase(st.stocks, locations)

	// PDF: guía de despacho de solicitudes aprobadas
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	workflowUC := request.NewWorkflowUseCase(
		st.txRunner, st.requests, st.stocks, locations, transferUC, pdfGenerator, recorder, log.Component("requests"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))
	if appMetrics != nil {
		app.Use(appMetrics.Middleware())
		app.Get(cfg.Metrics.Path, appMetrics.Handler())
	}

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.Docs.Enabled {
		if _, err := os.Stat(cfg.Docs.FilePath); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.Docs.FilePath,
				Path:     cfg.Docs.Path,
				Title:    "Relief Inventory API",
			}))
		} else {
			log.Warn().Str("file", cfg.Docs.FilePath).Msg("documentación OpenAPI no encontrada, /docs deshabilitado")
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Ledger.StorageDriver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:        ledgerUC,
		Transfers:     transferUC,
		History:       historyUC,
		Import:        importUC,
		Replenishment: replenishmentUC,
		Summary:       summaryUC,
		Workflow:      workflowUC,
		JWTSecret:     cfg.JWT.Secret,
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

// openStorage abre el driver configurado y siembra el directorio de albergues.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Ledger.StorageDriver == config.StorageMemory {
		store := memory.NewStore(memory.WithLockTimeout(cfg.Ledger.LockTimeout))
		for id, name := range cfg.Ledger.Shelters {
			store.AddShelter(id, name)
		}
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &storage{
			txRunner:  store,
			stocks:    store.Stocks(),
			movements: store.Movements(),
			requests:  store.Requests(),
			shelters:  store,
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.Ledger.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	shelters := postgres.NewShelterRepository(pool)
	for id, name := range cfg.Ledger.Shelters {
		if err := shelters.Upsert(ctx, &entity.Shelter{ID: id, Name: name}); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &storage{
		txRunner:  postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		stocks:    postgres.NewStockRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		requests:  postgres.NewRequestRepository(pool),
		shelters:  shelters,
		close:     pool.Close,
	}, nil
}
