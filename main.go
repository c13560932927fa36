package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/atelier-jewels/atelier-api/config"
	"github.com/atelier-jewels/atelier-api/controllers"
	"github.com/atelier-jewels/atelier-api/logger"
	"github.com/atelier-jewels/atelier-api/middleware"
	"github.com/atelier-jewels/atelier-api/models"
	"github.com/atelier-jewels/atelier-api/seed"
	"github.com/atelier-jewels/atelier-api/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// server holds the stores every handler is built from
type server struct {
	cfg       *config.Config
	db        *gorm.DB
	sessions  *services.SessionService
	catalog   *services.CatalogService
	cart      *services.CartService
	checkout  *services.CheckoutService
	orders    *services.CustomOrderService
	designers *services.DesignerService
	images    services.ImageService
}

func newServer(cfg *config.Config, db *gorm.DB, backend services.SessionBackend, verifier services.IdentityVerifier, images services.ImageService) *server {
	catalog := services.NewCatalogService(db)
	cart := services.NewCartService(db, catalog)
	return &server{
		cfg:       cfg,
		db:        db,
		sessions:  services.NewSessionService(db, backend, verifier),
		catalog:   catalog,
		cart:      cart,
		checkout:  services.NewCheckoutService(cart),
		orders:    services.NewCustomOrderService(db),
		designers: services.NewDesignerService(db, catalog),
		images:    images,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.GoEnv, cfg.LogLevel)
	defer logger.Sync()
	zlog := logger.L()
	zlog.Info("starting Atelier API server", zap.String("env", cfg.GoEnv))

	ctx := context.Background()

	if err := config.ConnectDatabase(cfg); err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	db := config.GetDB()
	if err := config.Migrate(db); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}
	zlog.Info("database migration completed")

	backend, err := sessionBackend(ctx, cfg)
	if err != nil {
		zlog.Fatal("failed to set up session backend", zap.Error(err))
	}

	var verifier services.IdentityVerifier
	if cfg.AuthEnabled() {
		verifier = services.NewAuth0Service(cfg)
	} else {
		zlog.Warn("AUTH0_DOMAIN/AUTH0_AUDIENCE not set, sessions are identified by " + middleware.SessionHeader)
	}

	images, err := imageService(ctx, cfg)
	if err != nil {
		zlog.Fatal("failed to set up image storage", zap.Error(err))
	}

	srv := newServer(cfg, db, backend, verifier, images)

	collection, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		zlog.Fatal("failed to load seed collection", zap.Error(err))
	}
	if _, err := seed.Apply(ctx, db, srv.seedStores(), collection); err != nil {
		zlog.Fatal("failed to seed database", zap.Error(err))
	}

	router := setupRouter(srv)

	addr := ":" + cfg.Port
	zlog.Info("server is running", zap.String("addr", "http://localhost"+addr))
	if err := router.Run(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}

func sessionBackend(ctx context.Context, cfg *config.Config) (services.SessionBackend, error) {
	if cfg.SessionBackend == "redis" {
		client, err := services.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return services.NewRedisSessionBackend(client, cfg.SessionTTL), nil
	}
	return services.NewMemorySessionBackend(cfg.SessionTTL), nil
}

func imageService(ctx context.Context, cfg *config.Config) (services.ImageService, error) {
	if !cfg.StorageEnabled() {
		logger.L().Warn("AWS_S3_BUCKET not set, images are kept in memory")
		return services.NewMockImageService(), nil
	}
	s3Service, err := services.NewS3Service(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return services.NewImageService(s3Service), nil
}

func (s *server) seedStores() seed.Stores {
	return seed.Stores{
		Catalog:   s.catalog,
		Designers: s.designers,
		Orders:    s.orders,
	}
}

// identify resolves the caller's session id from a verified token, or from
// the session header when Auth0 is not configured
func (s *server) identify() gin.HandlerFunc {
	if s.cfg.AuthEnabled() {
		return middleware.EnsureValidToken(s.cfg)
	}
	return middleware.DevSession()
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.SessionHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.SessionHeader, middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// setupRouter builds the engine with every route of the API
func setupRouter(s *server) *gin.Engine {
	router := gin.New()
	router.Use(
		cors.New(corsConfig(s.cfg.CORSAllowedOrigins)),
		middleware.RequestID(),
		middleware.RequestLogger(),
		gin.Recovery(),
	)

	limiter := middleware.NewRateLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst)

	products := controllers.NewProductController(s.catalog)
	cart := controllers.NewCartController(s.cart, s.checkout)
	orders := controllers.NewCustomOrderController(s.orders, s.designers, s.images, s.sessions)
	designers := controllers.NewDesignerController(s.designers, s.catalog)
	users := controllers.NewUserController(s.sessions)
	uploads := controllers.NewUploadController(s.images)

	admin := middleware.RequireRole(s.sessions, models.RoleAdmin)
	staff := middleware.RequireRole(s.sessions, models.RoleDesigner, models.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", s.databaseStatus)
	}

	// Browsing needs no session
	public := v1.Group("", limiter.Middleware())
	{
		public.GET("/products", products.ListProducts)
		public.GET("/products/featured", products.GetFeatured)
		public.GET("/products/categories", products.GetCategories)
		public.GET("/products/metals", products.GetMetalTypes)
		public.GET("/products/price-range", products.GetPriceRange)
		public.GET("/products/:id", products.GetProduct)

		public.GET("/designers", designers.ListDesigners)
		public.GET("/designers/specialties", designers.GetSpecialties)
		public.GET("/designers/locations", designers.GetLocations)
		public.GET("/designers/:id", designers.GetDesigner)
		public.GET("/designers/:id/products", designers.GetDesignerProducts)

		public.GET("/uploads/:filename", uploads.GetUploadedImage)
	}

	session := v1.Group("", s.identify(), limiter.Middleware())
	{
		session.POST("/auth/login", users.Login)
		session.POST("/auth/logout", users.Logout)
		session.GET("/users/me", users.GetMyProfile)
		session.PUT("/users/me", users.UpdateMyProfile)
		session.GET("/users", admin, users.ListUsers)

		session.POST("/products", admin, products.CreateProduct)
		session.PUT("/products/:id", admin, products.UpdateProduct)
		session.DELETE("/products/:id", admin, products.DeleteProduct)

		session.GET("/cart", cart.GetCart)
		session.GET("/cart/total", cart.GetTotal)
		session.GET("/cart/count", cart.GetCount)
		session.POST("/cart/items", cart.AddItem)
		session.PUT("/cart/items/:id", cart.UpdateItem)
		session.DELETE("/cart/items/:id", cart.RemoveItem)
		session.DELETE("/cart", cart.ClearCart)
		session.POST("/checkout", cart.Checkout)

		session.GET("/custom-orders", orders.ListOrders)
		session.GET("/custom-orders/stats", staff, orders.GetStatistics)
		session.GET("/custom-orders/:id", orders.GetOrder)
		session.POST("/custom-orders", orders.CreateOrder)
		session.PUT("/custom-orders/:id", orders.UpdateOrder)
		session.DELETE("/custom-orders/:id", admin, orders.DeleteOrder)
		session.POST("/custom-orders/:id/assign", admin, orders.AssignDesigner)
		session.PATCH("/custom-orders/:id/milestones/:milestoneId", staff, orders.UpdateMilestone)
		session.POST("/custom-orders/:id/milestones/:milestoneId/images", staff, orders.UploadMilestoneImage)

		session.POST("/designers", admin, designers.CreateDesigner)
		session.PUT("/designers/:id", admin, designers.UpdateDesigner)
		session.DELETE("/designers/:id", admin, designers.DeleteDesigner)
		session.POST("/designers/:id/portfolio", staff, designers.AddPortfolioItem)
		session.DELETE("/designers/:id/portfolio/:itemId", staff, designers.RemovePortfolioItem)
		session.POST("/designers/:id/jewelry", staff, designers.UploadJewelry)

		session.POST("/uploads", uploads.UploadImage)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Atelier API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func (s *server) databaseStatus(c *gin.Context) {
	// Get the underlying SQL database to check connection
	sqlDB, err := s.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := s.db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
