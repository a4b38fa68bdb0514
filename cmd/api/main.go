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

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"lifeos/internal/bootstrap"
	"lifeos/internal/config"
	"lifeos/internal/handlers"
	"lifeos/internal/logger"
	"lifeos/internal/metrics"
	"lifeos/internal/middleware"
	"lifeos/internal/validator"

	_ "lifeos/internal/docs" // Import swagger docs
)

// @title           LifeOS API
// @version         1.0
// @description     LifeOS tracks expenses, budgets, subscriptions and utility bills, and reminds users before renewals.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey JobKey
// @in header
// @name X-API-Key

// @securityDefinitions.apikey TelegramSecret
// @in header
// @name X-Telegram-Bot-Api-Secret-Token

func main() {
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	app, err := bootstrap.New(appConfig, true)
	if err != nil {
		return err
	}
	defer app.Close()

	router := newRouter(app)

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting LifeOS server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(app *bootstrap.App) *gin.Engine {
	authHandler := handlers.NewAuthHandler(app.Users, app.Audit)
	categoryHandler := handlers.NewCategoryHandler(app.Categories, app.Audit)
	expenseHandler := handlers.NewExpenseHandler(app.Expenses, app.Audit)
	budgetHandler := handlers.NewBudgetHandler(app.Budgets, app.Audit)
	subscriptionHandler := handlers.NewSubscriptionHandler(app.Subscriptions, app.Audit)
	billHandler := handlers.NewUtilityBillHandler(app.UtilityBills, app.Audit)
	notificationHandler := handlers.NewNotificationHandler(app.Notifications, app.Audit)
	telegramHandler := handlers.NewTelegramHandler(app.Telegram, app.Audit, app.Bot)
	jobHandler := handlers.NewJobHandler(app.Jobs)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", handlers.Health(app.DB.DB()))
	if app.Config.MetricsEnable {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	v1.POST("/telegram/webhook", middleware.TelegramWebhookAuth(app.Config.TelegramWebhookSecret), telegramHandler.Webhook)

	jobs := v1.Group("/jobs", middleware.JobAuthMiddleware(app.Config.JobAPIKey))
	jobs.POST("/renewal-reminders", jobHandler.RunRenewalReminders)
	jobs.POST("/auto-renewals", jobHandler.RunAutoRenewals)
	jobs.POST("/daily", jobHandler.RunDaily)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.POST("/import", expenseHandler.ImportExpenses)
	expenses.GET("/export", expenseHandler.ExportExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/overview", budgetHandler.GetBudgetsOverview)
	budgets.GET("/alerts", budgetHandler.GetBudgetAlerts)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/status", budgetHandler.GetBudgetStatus)

	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.CreateSubscription)
	subscriptions.GET("", subscriptionHandler.GetSubscriptions)
	subscriptions.GET("/upcoming", subscriptionHandler.GetUpcomingRenewals)
	subscriptions.GET("/monthly-cost", subscriptionHandler.GetMonthlyCost)
	subscriptions.GET("/:id", subscriptionHandler.GetSubscription)
	subscriptions.PUT("/:id", subscriptionHandler.UpdateSubscription)
	subscriptions.DELETE("/:id", subscriptionHandler.DeleteSubscription)
	subscriptions.POST("/:id/pause", subscriptionHandler.PauseSubscription)
	subscriptions.POST("/:id/resume", subscriptionHandler.ResumeSubscription)
	subscriptions.POST("/:id/cancel", subscriptionHandler.CancelSubscription)

	bills := protected.Group("/utility-bills")
	bills.POST("", billHandler.CreateUtilityBill)
	bills.GET("", billHandler.GetUtilityBills)
	bills.GET("/:id", billHandler.GetUtilityBill)
	bills.PUT("/:id", billHandler.UpdateUtilityBill)
	bills.DELETE("/:id", billHandler.DeleteUtilityBill)
	bills.POST("/:id/pay", billHandler.MarkPaid)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)
	notifications.POST("/:id/read", notificationHandler.MarkRead)
	notifications.GET("/preferences/:type", notificationHandler.GetPreference)
	notifications.PUT("/preferences/:type", notificationHandler.UpdatePreference)

	telegram := protected.Group("/telegram")
	telegram.GET("/link", telegramHandler.GetLink)
	telegram.POST("/generate-code", telegramHandler.GenerateCode)
	telegram.DELETE("/unlink", telegramHandler.Unlink)

	return router
}
