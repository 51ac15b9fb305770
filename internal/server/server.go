package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cicdguard/backend/internal/config"
	"github.com/cicdguard/backend/internal/metrics"
	"github.com/cicdguard/backend/internal/queue"
	mid "github.com/cicdguard/backend/internal/server/middleware"
	"github.com/cicdguard/backend/internal/view"
	"github.com/cicdguard/backend/pkg/logger"
	"github.com/cicdguard/backend/pkg/vocabulary"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance serving app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e, app)
	return e
}

// Init wires the server from the environment and runs it until SIGINT or
// SIGTERM.
func Init(cfg config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := config.NewTransport(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create graph transport", "backend", cfg.Backend, "err", err)
	}
	defer t.Close()

	m := metrics.New()
	views := view.NewRegistry(view.RegistryParams{
		Transport:    t,
		Observer:     m,
		Gauge:        m.OpenViews,
		Fallback:     cfg.DefaultStatement(),
		StabilizeFor: cfg.StabilizeFor,
	})
	defer views.Close()

	app := &mid.App{
		Views:      views,
		Vocabulary: vocabulary.NewService(t, cfg.DefaultStatement()),
		Transport:  t,
		Metrics:    m,
	}
	e := New(app)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port, "backend", cfg.Backend)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.QueueEnabled {
		g.Go(func() error {
			// the viewer keeps serving without scan notifications
			if err := runScanConsumer(gctx, cfg, app); err != nil {
				logger.Error("[Queue] Scan consumer stopped", "err", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "err", err)
		return
	}
	logger.Info("Server stopped")
}

func runScanConsumer(ctx context.Context, cfg config.Config, app *mid.App) error {
	conn, err := queue.Init(ctx, cfg.QueueURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch, []string{cfg.ScanQueue}); err != nil {
		return err
	}

	consumer := queue.NewConsumer(queue.NewConsumerParams{
		QueueName: cfg.ScanQueue,
		Channel:   ch,
		Processor: &queue.ScanProcessor{
			Vocabulary: app.Vocabulary,
			Views:      app.Views,
		},
		Counter: queue.CounterFunc(func(o queue.Outcome) {
			app.Metrics.ScanEvents.WithLabelValues(string(o)).Inc()
		}),
	})
	return consumer.Run(ctx)
}
