package router

import (
	"time"

	"pantrio/internal/clock"
	"pantrio/internal/config"
	"pantrio/internal/handler"
	"pantrio/internal/infra"
	"pantrio/internal/middleware"
	"pantrio/internal/repository"
	"pantrio/internal/service"
	"pantrio/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher, mailCB *infra.CircuitBreaker, clk clock.Clock) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	shoppingRepo := repository.NewShoppingRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	stockSvc := service.NewStockService(batchRepo, movementRepo, productRepo, rdb, clk)
	productSvc := service.NewProductService(productRepo, categoryRepo, batchRepo, stockSvc)
	categorySvc := service.NewCategoryService(categoryRepo)
	alertSvc := service.NewAlertService(alertRepo, batchRepo, productRepo, dispatcher, clk)
	shoppingSvc := service.NewShoppingService(shoppingRepo, productRepo, batchRepo, stockSvc, clk)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	stocksH := handler.NewStocksHandler(stockSvc, cfg.ExpiryWarnDaysDefault)
	alertsH := handler.NewAlertsHandler(alertSvc, authSvc)
	shoppingH := handler.NewShoppingHandler(shoppingSvc, authSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes — everything below requires a valid token.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/me", usersH.Me)

		products := v1.Group("/products")
		{
			products.POST("", productsH.Create)
			products.GET("", productsH.List)
			products.GET("/needing-restock", productsH.NeedingRestock)
			products.GET("/:id", productsH.Get)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Delete)
		}

		categories := v1.Group("/categories")
		{
			categories.POST("", categoriesH.Create)
			categories.GET("", categoriesH.List)
			categories.PUT("/:id", categoriesH.Update)
			categories.DELETE("/:id", categoriesH.Delete)
		}

		locations := v1.Group("/locations")
		{
			locations.POST("", productsH.CreateLocation)
			locations.GET("", productsH.ListLocations)
		}

		stocks := v1.Group("/stocks")
		{
			stocks.POST("/batches", stocksH.CreateBatch)
			stocks.GET("/batches", stocksH.ListBatches)
			stocks.GET("/batches/:id", stocksH.GetBatch)
			stocks.POST("/batches/:id/consume", stocksH.ConsumeBatch)
			stocks.POST("/products/:id/consume", stocksH.Consume)
			stocks.POST("/movements", stocksH.RecordMovement)
			stocks.GET("/movements", stocksH.ListMovements)
			stocks.GET("/summary", stocksH.Summary)
			stocks.GET("/expiring-soon", stocksH.ExpiringSoon)
			stocks.GET("/expired", stocksH.Expired)
			stocks.GET("/to-consume-first", stocksH.ToConsumeFirst)
			stocks.GET("/consumption-stats", stocksH.ConsumptionStats)
		}

		alerts := v1.Group("/alerts")
		{
			alerts.GET("", alertsH.List)
			alerts.GET("/unread", alertsH.Unread)
			alerts.POST("/scan", alertsH.Scan)
			alerts.PATCH("/:id/read", alertsH.MarkRead)
			alerts.POST("/read-all", alertsH.MarkAllRead)
		}

		shopping := v1.Group("/shopping-lists")
		{
			shopping.POST("", shoppingH.Create)
			shopping.GET("", shoppingH.List)
			shopping.POST("/generate", shoppingH.Generate)
			shopping.GET("/:id", shoppingH.Get)
			shopping.DELETE("/:id", shoppingH.Delete)
			shopping.GET("/:id/by-category", shoppingH.ItemsByCategory)
			shopping.GET("/:id/pdf", shoppingH.PDF)
			shopping.POST("/:id/activate", shoppingH.Activate)
			shopping.POST("/:id/complete", shoppingH.Complete)
			shopping.POST("/:id/archive", shoppingH.Archive)
			shopping.POST("/:id/items", shoppingH.AddItem)
		}

		items := v1.Group("/shopping-items")
		{
			items.POST("/:id/toggle-check", shoppingH.ToggleCheck)
			items.PATCH("/:id/actuals", shoppingH.SetActuals)
		}

		// User administration — admin only
		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
