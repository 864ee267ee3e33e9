// Package financeapi собирает HTTP-приложение: хранилище, кеш, сервисы и маршруты.
package financeapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/bizfinance/internal/cache"
	"github.com/magabrotheeeer/bizfinance/internal/config"
	"github.com/magabrotheeeer/bizfinance/internal/grpc/health"
	healthhandler "github.com/magabrotheeeer/bizfinance/internal/http/handlers/health"
	"github.com/magabrotheeeer/bizfinance/internal/lib/jwt"
	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
	"github.com/magabrotheeeer/bizfinance/internal/migrations"
	"github.com/magabrotheeeer/bizfinance/internal/rabbitmq"
	"github.com/magabrotheeeer/bizfinance/internal/ratecache"
	accountservice "github.com/magabrotheeeer/bizfinance/internal/services/accounts"
	analysisservice "github.com/magabrotheeeer/bizfinance/internal/services/analysis"
	authservice "github.com/magabrotheeeer/bizfinance/internal/services/auth"
	billingservice "github.com/magabrotheeeer/bizfinance/internal/services/billing"
	documentservice "github.com/magabrotheeeer/bizfinance/internal/services/documents"
	projectservice "github.com/magabrotheeeer/bizfinance/internal/services/projects"
	rateservice "github.com/magabrotheeeer/bizfinance/internal/services/rates"
	receiptservice "github.com/magabrotheeeer/bizfinance/internal/services/receipts"
	"github.com/magabrotheeeer/bizfinance/internal/storage"
)

// App собранное приложение: HTTP-сервер, gRPC health и их зависимости.
type App struct {
	server    *http.Server
	health    *health.Server
	logger    *slog.Logger
	db        *storage.Storage
	cache     *cache.Cache
	publisher *rabbitmq.Publisher
	amqpConn  *amqp.Connection
}

// New подключает хранилища и собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "financeapi.New"

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{logger: logger, db: db}
	checks := map[string]healthhandler.Pinger{"postgres": db}

	// Redis необязателен: без него курсы кешируются только в памяти процесса
	var shared ratecache.Shared
	if cfg.AddressRedis != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.cache = cacheRedis
		shared = cacheRedis
		checks["redis"] = cacheRedis
	}

	jwtMaker, err := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var publisher billingservice.Publisher
	if cfg.AMQPURL != "" {
		conn, err := rabbitmq.Connect(cfg.AMQPURL, 5, 2*time.Second)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqpConn = conn
		ch, err := rabbitmq.SetupExchange(conn, cfg.AMQPExchange)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.publisher = rabbitmq.NewPublisher(ch, cfg.AMQPExchange)
		publisher = app.publisher
	}

	services := Services{
		Auth:      authservice.NewAuthService(db, jwtMaker, cfg.DeveloperEmail),
		Projects:  projectservice.New(logger, db),
		Accounts:  accountservice.New(logger, db),
		Receipts:  receiptservice.New(logger, db),
		Documents: documentservice.New(logger, db),
		Rates: rateservice.New(logger, ratecache.New(logger, shared),
			cfg.UpstreamURL, cfg.RatesTTL, cfg.RatesTimeout),
		Analysis: analysisservice.New(logger, cfg.AIURL, cfg.AIKey, cfg.AIModel, cfg.AITimeout),
		Billing:  billingservice.New(logger, db, publisher),
		Health:   checks,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services, RouteOptions{
		WebhookSecret:    cfg.WebhookSecret,
		WebhookTolerance: cfg.WebhookTolerance,
		RateLimit:        cfg.RateLimit,
		RateBurst:        cfg.RateBurst,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.AITimeout + cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if cfg.AddressGRPC != "" {
		app.health, err = health.New(cfg.AddressGRPC, db, cfg.ProbeInterval, logger)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return app, nil
}

// Run обслуживает запросы до отмены ctx и затем закрывает ресурсы.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if a.health != nil {
		g.Go(func() error {
			return a.health.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	})

	err := g.Wait()
	a.close()
	return err
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("failed to close amqp publisher", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Error("failed to close amqp connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
