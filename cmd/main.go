package main

import (
	"net/http"

	"github.com/Alonso-dfg/Project-Alimentos/internal/handler"
	mid "github.com/Alonso-dfg/Project-Alimentos/internal/middleware"
	"github.com/Alonso-dfg/Project-Alimentos/internal/upload"
	"github.com/Alonso-dfg/Project-Alimentos/internal/web"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/config"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/database"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/logger"
	"github.com/Alonso-dfg/Project-Alimentos/pkg/openfoodfacts"
	"github.com/Alonso-dfg/Project-Alimentos/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting catalog service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.Connect(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize upload storage
	uploads, err := upload.NewStore(appConfig.Upload.Dir)
	if err != nil {
		log.Fatal("Failed to initialize upload storage", zap.Error(err))
	}

	// Outbound Open Food Facts client
	off := openfoodfacts.NewClient(
		appConfig.OpenFoodFacts.BaseURL,
		appConfig.OpenFoodFacts.Timeout,
		log,
	)

	// Initialize Echo instance
	e := echo.New()

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatal("Failed to parse HTML templates", zap.Error(err))
	}
	e.Renderer = renderer

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Handlers
	categories := handler.NewCategoryHandler(db)
	suppliers := handler.NewSupplierHandler(db)
	users := handler.NewUserHandler(db, uploads)
	products := handler.NewProductHandler(db, uploads)
	external := handler.NewExternalHandler(db, off, appConfig.OpenFoodFacts)
	pages := web.NewHandler(db, uploads)

	// Category API routes
	categoryAPI := e.Group("/api/categories")
	categoryAPI.GET("", categories.List)
	categoryAPI.GET("/inactive", categories.ListInactive)
	categoryAPI.GET("/:id", categories.Get)
	categoryAPI.POST("", categories.Create)
	categoryAPI.PUT("/:id", categories.Update)
	categoryAPI.DELETE("/:id", categories.Deactivate)
	categoryAPI.PUT("/reactivate/:id", categories.Reactivate)

	// Supplier API routes
	supplierAPI := e.Group("/api/suppliers")
	supplierAPI.GET("", suppliers.List)
	supplierAPI.GET("/inactive", suppliers.ListInactive)
	supplierAPI.GET("/:id", suppliers.Get)
	supplierAPI.POST("", suppliers.Create)
	supplierAPI.PUT("/:id", suppliers.Update)
	supplierAPI.DELETE("/:id", suppliers.Deactivate)
	supplierAPI.PUT("/reactivate/:id", suppliers.Reactivate)

	// User API routes
	userAPI := e.Group("/api/users")
	userAPI.GET("", users.List)
	userAPI.GET("/inactive", users.ListInactive)
	userAPI.GET("/:id", users.Get)
	userAPI.POST("", users.Create)
	userAPI.PUT("/:id", users.Update)
	userAPI.DELETE("/:id", users.Deactivate)
	userAPI.PUT("/reactivate/:id", users.Reactivate)

	// Product API routes
	productAPI := e.Group("/api/products")
	productAPI.GET("", products.List)
	productAPI.GET("/inactive", products.ListInactive)
	productAPI.GET("/search", products.Search)
	productAPI.GET("/:id", products.Get)
	productAPI.POST("", products.Create)
	productAPI.PUT("/:id", products.Update)
	productAPI.DELETE("/:id", products.Deactivate)
	productAPI.PUT("/reactivate/:id", products.Reactivate)

	// External catalog importer routes
	externalAPI := e.Group("/api/external")
	externalAPI.GET("/products", external.Import)
	externalAPI.GET("/products/:barcode", external.GetByBarcode)

	// HTML pages and static files
	e.GET("/", pages.Index)
	e.GET("/web/categories/new", pages.CategoryForm)
	e.POST("/web/categories/new", pages.CategoryCreate)
	e.GET("/web/suppliers/new", pages.SupplierForm)
	e.POST("/web/suppliers/new", pages.SupplierCreate)
	e.GET("/web/users/new", pages.UserForm)
	e.POST("/web/users/new", pages.UserCreate)
	e.GET("/web/products/new", pages.ProductForm)
	e.POST("/web/products/new", pages.ProductCreate)
	e.Static("/static/uploads", uploads.Dir())

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
