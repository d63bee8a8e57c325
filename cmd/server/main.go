package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"compost-backend/internal/config"
	"compost-backend/internal/database"
	"compost-backend/internal/handlers"
	"compost-backend/internal/logger"
	"compost-backend/internal/middleware"
	"compost-backend/internal/services"
	"compost-backend/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ FATAL ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dotenv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "compost-backend")
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("🚀 COMPOST BACKEND SERVER STARTING", zap.Bool("dotenv_loaded", dotenv))

	if cfg.JWTSecret == "" {
		return errors.New("APP_JWT_SECRET environment variable is required")
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, log)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}
	if err := database.SeedMaterials(db, log); err != nil {
		return fmt.Errorf("material seeding failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := database.NewStore(db, log)

	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	log.Info("✅ WebSocket hub started")

	geocoder, err := initGeocoder(cfg, log)
	if err != nil {
		return err
	}

	notifier := initNotifier(ctx, cfg, store, log)

	units := services.NewUnitService(store, store, store, geocoder, cfg.Timezone, log)
	activity := services.NewActivityService(store, store, store, notifier, hub, log)
	users := services.NewUserService(store, cfg.JWTSecret, log)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", websocket.HandleWebSocket(hub, cfg.JWTSecret))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", handlers.Register(users, log))
		r.Post("/auth/login", handlers.Login(users, log))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret, log))

			r.Get("/welcome", handlers.Welcome(users, log))
			r.Get("/profile", handlers.GetProfile(users, log))
			r.Patch("/profile", handlers.UpdateProfile(users, log))
			r.Post("/fcm-token", handlers.RegisterFCMToken(users, log))
			r.Get("/materials", handlers.ListMaterials(activity, log))

			r.Get("/dashboard", handlers.Dashboard(units, log))
			r.Get("/statistics", handlers.Statistics(units, log))
			r.Post("/demo-data", handlers.CreateDemoData(units, log))
			r.Post("/readings", handlers.CreateReading(activity, log))

			r.Get("/units", handlers.ListUnits(units, log))
			r.Post("/units", handlers.CreateUnit(units, log))
			r.Route("/units/{id}", func(r chi.Router) {
				r.Get("/", handlers.GetUnit(units, log))
				r.Delete("/", handlers.DeleteUnit(units, log))
				r.Patch("/status", handlers.UpdateUnitStatus(units, log))
				r.Get("/readings", handlers.ListReadings(activity, log))
				r.Post("/readings", handlers.CreateReading(activity, log))
				r.Get("/readings/export", handlers.ExportReadings(units, log))
				r.Get("/monitoring", handlers.ListMonitoring(activity, log))
				r.Post("/monitoring", handlers.CreateMonitoring(activity, log))
				r.Get("/temperature-chart", handlers.TemperatureChart(units, log))
				r.Get("/entries", handlers.ListEntries(activity, log))
				r.Post("/entries", handlers.CreateEntry(activity, log))
				r.Get("/harvests", handlers.ListHarvests(activity, log))
				r.Post("/harvests", handlers.CreateHarvest(activity, log))
			})
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🌐 Server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("🛑 Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// initGeocoder picks Google when configured, HERE otherwise. Units are stored without
// coordinates when neither key is set.
func initGeocoder(cfg *config.Config, log *zap.Logger) (services.Geocoder, error) {
	switch {
	case cfg.GoogleMapsKey != "":
		g, err := services.NewGeocodingService(cfg.GoogleMapsKey, "", log)
		if err != nil {
			return nil, err
		}
		log.Info("✅ Geocoding enabled", zap.String("provider", "google"))
		return services.NewCachingGeocoder(g, 0, 0), nil
	case cfg.HEREAPIKey != "":
		g, err := services.NewHEREGeocodingService(cfg.HEREAPIKey, "", log)
		if err != nil {
			return nil, err
		}
		log.Info("✅ Geocoding enabled", zap.String("provider", "here"))
		return services.NewCachingGeocoder(g, 0, 0), nil
	default:
		log.Warn("⚠️  No geocoding key set, units are stored without coordinates")
		return nil, nil
	}
}

// initNotifier sets up push notifications. Base64 credentials take precedence over the
// credentials file; without either, unit-full alerts are only sent over the WebSocket.
func initNotifier(ctx context.Context, cfg *config.Config, tokens services.TokenStore, log *zap.Logger) services.Notifier {
	if cfg.FirebaseBase64 != "" {
		fcm, err := services.NewFCMServiceFromBase64(ctx, cfg.FirebaseBase64, tokens, log)
		if err != nil {
			log.Warn("⚠️  Failed to initialize FCM from base64, push notifications disabled", zap.Error(err))
			return services.NopNotifier{}
		}
		log.Info("✅ Firebase Cloud Messaging initialized from base64 credentials")
		return fcm
	}

	if _, err := os.Stat(cfg.FirebaseCredsFile); err != nil {
		log.Warn("⚠️  Firebase credentials not found, push notifications disabled",
			zap.String("file", cfg.FirebaseCredsFile))
		return services.NopNotifier{}
	}
	fcm, err := services.NewFCMService(ctx, cfg.FirebaseCredsFile, tokens, log)
	if err != nil {
		log.Warn("⚠️  Failed to initialize FCM from file, push notifications disabled", zap.Error(err))
		return services.NopNotifier{}
	}
	log.Info("✅ Firebase Cloud Messaging initialized from file")
	return fcm
}
