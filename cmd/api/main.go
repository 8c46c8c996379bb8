package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/retoro-app/retoro-backend/api/routes"
	"github.com/retoro-app/retoro-backend/internal/auth"
	"github.com/retoro-app/retoro-backend/internal/currency"
	"github.com/retoro-app/retoro-backend/internal/invoices"
	"github.com/retoro-app/retoro-backend/internal/retailers"
	"github.com/retoro-app/retoro-backend/internal/returns"
	"github.com/retoro-app/retoro-backend/internal/settings"
	"github.com/retoro-app/retoro-backend/internal/support"
	"github.com/retoro-app/retoro-backend/pkg/config"
	"github.com/retoro-app/retoro-backend/pkg/db"
	"github.com/retoro-app/retoro-backend/pkg/exchange"
	"github.com/retoro-app/retoro-backend/pkg/invoiceparse"
	"github.com/retoro-app/retoro-backend/pkg/logger"
	"github.com/retoro-app/retoro-backend/pkg/mailer"
	"github.com/retoro-app/retoro-backend/pkg/migrate"
	"github.com/retoro-app/retoro-backend/pkg/oauth"
	"github.com/retoro-app/retoro-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	exchangeClient := exchange.NewClient(cfg.Exchange)

	var mailClient *mailer.Mailgun
	if cfg.Mailgun.APIKey != "" {
		mailClient = mailer.NewMailgun(cfg.Mailgun)
	} else {
		logg.Warn(context.Background(), "mailgun not configured, magic links and support mail disabled")
	}

	appleVerifier := oauth.NewAppleVerifier(cfg.Apple)

	var googleClient *oauth.GoogleClient
	if cfg.Google.Configured() {
		googleClient, err = oauth.NewGoogleClient(cfg.Google)
		if err != nil {
			logg.Error(context.Background(), "failed to build google oauth client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "google oauth not configured, google sign-in disabled")
	}

	factories := auth.GormFactories(dbClient.DB())
	authParams := auth.ServiceParams{
		TxRunner:        dbClient,
		UserRepoFactory: factories.Users,
		SessionFactory:  factories.Sessions,
		SettingsFactory: factories.Settings,
		ItemFactory:     factories.Items,
		TokenFactory:    factories.Tokens,
		PasswordConfig:  cfg.Password,
		SessionConfig:   cfg.Session,
	}
	if mailClient != nil {
		authParams.Mailer = mailClient
	}
	authParams.Apple = appleVerifier
	if googleClient != nil {
		authParams.Google = googleClient
	}
	authService, err := auth.NewService(authParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	retailersRepo := retailers.NewRepository(dbClient.DB())
	retailersService, err := retailers.NewService(retailersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create retailers service", err)
		os.Exit(1)
	}

	returnsRepo := returns.NewRepository(dbClient.DB())
	returnsService, err := returns.NewService(returns.ServiceParams{
		Repo:      returnsRepo,
		Retailers: retailersRepo,
		Exchange:  exchangeClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create returns service", err)
		os.Exit(1)
	}

	currencyService, err := currency.NewService(currency.ServiceParams{Exchange: exchangeClient})
	if err != nil {
		logg.Error(context.Background(), "failed to create currency service", err)
		os.Exit(1)
	}

	settingsService, err := settings.NewService(settings.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}

	supportService := support.NewService(nil)
	if mailClient != nil {
		supportService = support.NewService(mailClient)
	}

	invoicesService, err := invoices.NewService(invoices.ServiceParams{
		Parser:    invoiceparse.NewClient(cfg.Invoice),
		Retailers: retailersService,
		Items:     returnsRepo,
		Exchange:  exchangeClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoices service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
		Auth:      authService,
		Returns:   returnsService,
		Retailers: retailersService,
		Currency:  currencyService,
		Settings:  settingsService,
		Support:   supportService,
		Invoices:  invoicesService,
	}, registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
