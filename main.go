package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime"
	"time"

	"pechincha/config"
	"pechincha/database"
	"pechincha/handlers"
	"pechincha/middleware"
	"pechincha/repository"
	"pechincha/scheduler"
	"pechincha/scraper"
	"pechincha/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

var startTime = time.Now()

// Metrics struct for basic monitoring
type Metrics struct {
	Timestamp      time.Time `json:"timestamp"`
	Uptime         string    `json:"uptime"`
	Goroutines     int       `json:"goroutines"`
	MemoryUsage    string    `json:"memory_usage"`
	ActiveProducts int       `json:"active_products"`
	CacheEntries   int       `json:"cache_entries"`
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Initialize database
	if err := database.InitDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Create tables
	if err := database.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	// Extraction cache: Redis when configured, in-process otherwise
	var cache services.KeyValueStore
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		cache = redisCache
	} else {
		cache = services.NewMemoryCache(cfg.CacheTTL)
	}

	// Extraction strategy chain
	fetcher := scraper.NewFetcher(cfg.FetchTimeout, cfg.FetchUserAgent)
	crawlClient := scraper.NewAnyCrawlClient(cfg.AnyCrawl)
	gemini := scraper.NewGeminiClient(cfg.Gemini)
	llm := scraper.NewLLMExtractor(cfg.OpenAI, gemini)
	crawl := scraper.NewCrawlExtractor(crawlClient, llm)
	css := scraper.NewCSSExtractor()
	screenshot := scraper.NewScreenshotCapturer(cfg.ScreenshotEnabled)
	vision := scraper.NewVisionExtractor(gemini)
	cascade := scraper.NewCascade(fetcher, crawl, llm, css, screenshot, vision, cache, cfg.CacheTTL)

	affiliate := scraper.NewShopeeAffiliate(cfg.Affiliate)

	productRepo := repository.NewProductRepository()
	history := services.NewMemoryHistory()
	notifications := services.NewNotificationEngine()

	// Initialize handlers
	h := handlers.NewHandlers(productRepo, cascade, affiliate, vision, crawlClient, history, notifications)
	defer h.Close()

	// Initialize and start price checker
	priceChecker := scheduler.NewPriceChecker(cascade, history, notifications, cache)
	priceChecker.Start()
	defer priceChecker.Stop()

	// Setup router
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(10))

	// Health and monitoring endpoints
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/metrics", metricsHandler(productRepo, cache)).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Product tracking
	api.HandleFunc("/products", h.AddProduct).Methods("POST")
	api.HandleFunc("/products", h.GetProducts).Methods("GET")
	api.HandleFunc("/products/{id}", h.GetProductDetails).Methods("GET")
	api.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE")
	api.HandleFunc("/products/{id}/history", h.GetPriceHistory).Methods("GET")
	api.HandleFunc("/products/{id}/variation", h.GetPriceVariation).Methods("GET")

	// Notification rules and notifications
	api.HandleFunc("/products/{id}/rules", h.SetRule).Methods("POST")
	api.HandleFunc("/products/{id}/rules/{userId}/{type}", h.DeleteRule).Methods("DELETE")
	api.HandleFunc("/users/{userId}/rules", h.GetUserRules).Methods("GET")
	api.HandleFunc("/users/{userId}/notifications", h.GetNotifications).Methods("GET")
	api.HandleFunc("/users/{userId}/notifications/{notificationId}/read", h.MarkNotificationRead).Methods("POST")

	// Extraction endpoints
	api.HandleFunc("/extract/vision", h.VisionExtract).Methods("POST")
	api.HandleFunc("/extract/async", h.ExtractAsync).Methods("POST")
	api.HandleFunc("/tasks/stats", h.GetTaskStats).Methods("GET")
	api.HandleFunc("/tasks/{taskId}", h.GetTaskStatus).Methods("GET")
	api.HandleFunc("/credits", h.GetCrawlCredits).Methods("GET")

	// CORS configuration
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{allowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	host := os.Getenv("HOST")
	if host == "" {
		host = "0.0.0.0"
	}

	log.Printf("🌐 Server starting on port %s", port)
	log.Printf("📋 Endpoints:")
	log.Printf("   GET  /health - Health check")
	log.Printf("   GET  /metrics - System metrics")
	log.Printf("   POST /api/v1/products - Track a product URL")
	log.Printf("   GET  /api/v1/products - List tracked products")
	log.Printf("   POST /api/v1/extract/vision - Extract from screenshot")
	log.Printf("   POST /api/v1/extract/async - Queue async extraction")

	// Start server
	log.Fatal(http.ListenAndServe(host+":"+port, c.Handler(r)))
}

func metricsHandler(productRepo *repository.ProductRepository, cache services.KeyValueStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		activeProducts := 0
		if products, err := productRepo.GetProducts(); err == nil {
			activeProducts = len(products)
		}

		metricsData := Metrics{
			Timestamp:      time.Now(),
			Uptime:         time.Since(startTime).String(),
			Goroutines:     runtime.NumGoroutine(),
			MemoryUsage:    fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			ActiveProducts: activeProducts,
			CacheEntries:   cache.Size(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(metricsData)
	}
}
