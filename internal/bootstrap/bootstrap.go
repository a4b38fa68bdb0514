// Package bootstrap wires the database, services and notification channels
// shared by the API server and the jobs CLI.
package bootstrap

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lifeos/internal/config"
	"lifeos/internal/database"
	"lifeos/internal/logger"
	"lifeos/internal/notify"
	"lifeos/internal/services"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config *config.Config
	DB     *database.Manager
	Bot    notify.Sender

	Users         services.UserServicer
	Audit         services.AuditServicer
	Categories    services.CategoryServicer
	Expenses      services.ExpenseServicer
	Budgets       services.BudgetServicer
	Subscriptions services.SubscriptionServicer
	UtilityBills  services.UtilityBillServicer
	Notifications services.NotificationServicer
	Telegram      services.TelegramServicer
	Jobs          services.RenewalJobServicer
}

// New connects to the database, optionally applies migrations and builds
// every service.
func New(cfg *config.Config, migrate bool) (*App, error) {
	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if migrate {
		if err := dbManager.RunMigrations(); err != nil {
			_ = dbManager.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	return Wire(cfg, dbManager, newBot(cfg.TelegramBotToken)), nil
}

// Wire builds every service on top of an open database. bot may be nil.
func Wire(cfg *config.Config, dbManager *database.Manager, bot notify.Sender) *App {
	db := dbManager.DB()
	app := &App{Config: cfg, DB: dbManager, Bot: bot}

	app.Users = services.NewUserService(db)
	app.Audit = services.NewAuditService(db)
	app.Categories = services.NewCategoryService(db)
	app.Expenses = services.NewExpenseService(db)
	app.Budgets = services.NewBudgetService(db)
	app.Subscriptions = services.NewSubscriptionService(db)
	app.UtilityBills = services.NewUtilityBillService(db, app.Expenses)
	app.Notifications = services.NewNotificationService(db)
	app.Telegram = services.NewTelegramService(db)

	dispatcher := notify.NewDispatcher(
		notify.NewDatabaseChannel(app.Notifications),
		notify.NewEmailChannel(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}),
		notify.NewTelegramChannel(app.Bot, app.Telegram),
	)
	app.Jobs = services.NewRenewalJobService(db, app.Expenses, app.Notifications, dispatcher)

	return app
}

// newBot connects to the Telegram Bot API. Without a token, or when the
// token is rejected, push delivery is disabled.
func newBot(token string) notify.Sender {
	if token == "" {
		return nil
	}
	log := logger.Named("bootstrap")
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Warnw("Telegram bot unavailable, push notifications disabled", "error", err)
		return nil
	}
	log.Infow("Telegram bot authorised", "username", bot.Self.UserName)
	return bot
}

// Close releases the database pool.
func (a *App) Close() {
	if err := a.DB.Close(); err != nil {
		logger.Get().Warnw("Failed to close database", "error", err)
	}
}
