package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"shopsheet-sync/internal/application"
	"shopsheet-sync/internal/domain"
	googleinfra "shopsheet-sync/internal/infrastructure/google"
	"shopsheet-sync/internal/infrastructure/lock"
	"shopsheet-sync/internal/infrastructure/metrics"
	"shopsheet-sync/internal/infrastructure/repository"
	shopifyinfra "shopsheet-sync/internal/infrastructure/shopify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}

	shopifyAPIKey := os.Getenv("SHOPIFY_API_KEY")
	shopifyAPISecret := os.Getenv("SHOPIFY_API_SECRET")
	if shopifyAPIKey == "" || shopifyAPISecret == "" {
		logger.Fatal().Msg("SHOPIFY_API_KEY and SHOPIFY_API_SECRET environment variables are required")
	}

	googleClientID := os.Getenv("GOOGLE_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if googleClientID == "" || googleClientSecret == "" {
		logger.Fatal().Msg("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables are required")
	}

	pageSize := 100
	if v := os.Getenv("SYNC_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}

	leaseTTL := 5 * time.Minute
	if v := os.Getenv("SYNC_LEASE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			leaseTTL = d
		}
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(os.Getenv("MONGODB_DATABASE"))

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()

	// Initialize repositories
	connectorRepo := repository.NewMongoConnectorRepository(db)
	stateRepo := repository.NewMongoStateRepository(db)

	// Initialize infrastructure adapters
	shopifyClient := shopifyinfra.NewClient(shopifyAPIKey, shopifyAPISecret, appURL+"/auth/shopify/callback", logger)
	googleOAuth := googleinfra.NewOAuth(googleClientID, googleClientSecret, appURL+"/auth/google/callback", logger)
	sheetsClient := googleinfra.NewSheetsClient(logger)
	locker := lock.NewRedisLocker(redisClient, leaseTTL, logger)

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	syncMetrics := metrics.NewSyncMetrics(registry)

	// Initialize application services
	connectorService := application.NewConnectorService(connectorRepo, stateRepo, googleOAuth, shopifyClient, logger)
	extractor := application.NewExtractor(shopifyClient, pageSize, logger)
	syncService := application.NewSyncService(connectorRepo, connectorService, extractor, sheetsClient, locker, syncMetrics, logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// OAuth routes
	r.Get("/auth/shopify", shopifyAuthHandler(connectorService, logger))
	r.Get("/auth/shopify/callback", shopifyCallbackHandler(connectorService, logger))
	r.Get("/auth/google", googleAuthHandler(connectorService, logger))
	r.Get("/auth/google/callback", googleCallbackHandler(connectorService, logger))

	// Sync and disconnect
	r.Post("/sync/{shop}", syncHandler(syncService, logger))
	r.Delete("/connectors/{shop}/{provider}", disconnectHandler(connectorService, logger))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting API server")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// shopifyAuthHandler initiates the Shopify OAuth flow
func shopifyAuthHandler(connectorService *application.ConnectorService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := r.URL.Query().Get("shop")
		if shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		authURL, err := connectorService.ShopifyAuthURL(r.Context(), shop)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to build shopify auth URL")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// shopifyCallbackHandler handles the Shopify OAuth callback
func shopifyCallbackHandler(connectorService *application.ConnectorService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := r.URL.Query().Get("shop")
		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		if shop == "" || code == "" || state == "" {
			http.Error(w, "Missing required parameters", http.StatusBadRequest)
			return
		}

		connector, err := connectorService.CompleteShopify(r.Context(), shop, state, code)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidOAuthState) {
				http.Error(w, "Invalid session", http.StatusUnauthorized)
				return
			}
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to complete shopify oauth")
			http.Error(w, "Failed to complete installation", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status": "connected",
			"shop":   connector.ShopDomain,
		})
	}
}

// googleAuthHandler initiates the Google OAuth flow
func googleAuthHandler(connectorService *application.ConnectorService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := r.URL.Query().Get("shop")
		if shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}

		authURL, err := connectorService.GoogleAuthURL(r.Context(), shop)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to build google auth URL")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// googleCallbackHandler handles the Google OAuth callback
func googleCallbackHandler(connectorService *application.ConnectorService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		if code == "" || state == "" {
			http.Error(w, "Missing required parameters", http.StatusBadRequest)
			return
		}

		connector, err := connectorService.CompleteGoogle(r.Context(), state, code)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidOAuthState) {
				http.Error(w, "Invalid session", http.StatusUnauthorized)
				return
			}
			logger.Error().Err(err).Msg("Failed to complete google oauth")
			http.Error(w, "Failed to connect Google account", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status": "connected",
			"shop":   connector.ShopDomain,
		})
	}
}

// syncHandler triggers one sync run for a shop
func syncHandler(syncService *application.SyncService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := chi.URLParam(r, "shop")

		summary, err := syncService.Run(r.Context(), shop)
		if err != nil {
			status := http.StatusBadGateway
			switch {
			case errors.Is(err, domain.ErrNotConnected):
				status = http.StatusConflict
			case errors.Is(err, domain.ErrSyncInProgress):
				status = http.StatusConflict
			}

			var locatorErr *domain.LocatorPersistError
			if errors.As(err, &locatorErr) {
				// The spreadsheet exists but is not recorded; a blind
				// retry would create another one.
				logger.Error().Err(err).Str("shop", shop).Str("orphanedUrl", locatorErr.SpreadsheetURL).Msg("Sync failed after spreadsheet creation")
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error":           "spreadsheet created but not recorded",
					"spreadsheet_url": locatorErr.SpreadsheetURL,
				})
				return
			}

			logger.Error().Err(err).Str("shop", shop).Msg("Sync failed")
			writeJSON(w, status, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}

// disconnectHandler removes a shop's connector for a provider
func disconnectHandler(connectorService *application.ConnectorService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := chi.URLParam(r, "shop")
		provider := domain.Provider(chi.URLParam(r, "provider"))
		if provider != domain.ProviderGoogle && provider != domain.ProviderShopify {
			http.Error(w, "unknown provider", http.StatusBadRequest)
			return
		}

		count, err := connectorService.Disconnect(r.Context(), shop, provider)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to disconnect")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]int64{"deleted": count})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
