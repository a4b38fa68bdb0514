package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"lifeos/internal/budget"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/renewal"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	UpdateProfile(userID string, firstName, lastName, timezone *string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest, categoryType *models.CategoryType) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name, description, icon, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// ExpenseInput carries the fields of a new expense.
type ExpenseInput struct {
	CategoryID  *string
	Amount      decimal.Decimal
	Currency    string
	Date        time.Time
	Description string
	Status      models.ExpenseStatus
	Tags        []string
}

// ExpenseUpdate carries optional changes to an expense. Nil fields are left alone.
type ExpenseUpdate struct {
	CategoryID  *string
	Amount      *decimal.Decimal
	Currency    *string
	Date        *time.Time
	Description *string
	Status      *models.ExpenseStatus
	Tags        *[]string
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	CategoryID *string
	Tag        *string
	Status     *models.ExpenseStatus
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Imported int      `json:"imported"`
	IDs      []string `json:"ids"`
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(userID string, in ExpenseInput) (*models.Expense, error)
	GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, expenseID string, upd ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(userID, expenseID string) error
	ImportExpenses(userID string, payload []byte) (*ImportResult, error)
	ExportExpenses(userID string, filter ExpenseFilter, w io.Writer) error
	TagsOnDate(userID string, date time.Time) ([]string, error)
	CreateTaggedExpenseOnce(req renewal.ExpenseRequest) (*models.Expense, bool, error)
	MoveTaggedExpense(userID, tag string, date time.Time) (*models.Expense, error)
}

// BudgetInput carries the fields of a new budget.
type BudgetInput struct {
	CategoryID     *string
	Name           string
	Amount         decimal.Decimal
	Currency       string
	StartDate      time.Time
	EndDate        time.Time
	AlertThreshold float64
	RolloverUnused bool
	Notes          string
}

// BudgetUpdate carries optional changes to a budget.
type BudgetUpdate struct {
	Name           *string
	Amount         *decimal.Decimal
	StartDate      *time.Time
	EndDate        *time.Time
	AlertThreshold *float64
	IsActive       *bool
	RolloverUnused *bool
	Notes          *string
}

// BudgetStatus pairs a budget with its evaluated figures.
type BudgetStatus struct {
	Budget models.Budget `json:"budget"`
	budget.Result
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, in BudgetInput) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, isActive *bool, categoryID *string) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, upd BudgetUpdate) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetStatus(userID, budgetID string, asOf time.Time) (*BudgetStatus, error)
	GetBudgetsOverview(userID string, asOf time.Time) ([]BudgetStatus, error)
	GetBudgetAlerts(userID string, asOf time.Time) ([]BudgetStatus, error)
}

// SubscriptionInput carries the fields of a new subscription.
type SubscriptionInput struct {
	ServiceName     string
	CategoryID      *string
	Cost            decimal.Decimal
	Currency        string
	BillingCycle    models.BillingCycle
	CustomDays      int
	StartDate       time.Time
	NextBillingDate *time.Time
	AutoRenewal     bool
	Notes           string
}

// SubscriptionUpdate carries optional changes to a subscription.
type SubscriptionUpdate struct {
	ServiceName     *string
	CategoryID      *string
	Cost            *decimal.Decimal
	Currency        *string
	BillingCycle    *models.BillingCycle
	CustomDays      *int
	NextBillingDate *time.Time
	AutoRenewal     *bool
	Notes           *string
}

// CurrencyCost is a normalised monthly total in one currency.
type CurrencyCost struct {
	Currency string          `json:"currency"`
	Monthly  decimal.Decimal `json:"monthly"`
	Yearly   decimal.Decimal `json:"yearly"`
	Count    int             `json:"count"`
}

// SubscriptionServicer defines the contract for subscription-related business logic.
type SubscriptionServicer interface {
	CreateSubscription(userID string, in SubscriptionInput) (*models.Subscription, error)
	GetUserSubscriptions(userID string, page pagination.PageRequest, status *models.SubscriptionStatus) (*pagination.PageResponse[models.Subscription], error)
	GetSubscriptionByID(userID, subscriptionID string) (*models.Subscription, error)
	UpdateSubscription(userID, subscriptionID string, upd SubscriptionUpdate) (*models.Subscription, error)
	PauseSubscription(userID, subscriptionID string) (*models.Subscription, error)
	ResumeSubscription(userID, subscriptionID string, today time.Time) (*models.Subscription, error)
	CancelSubscription(userID, subscriptionID string) (*models.Subscription, error)
	DeleteSubscription(userID, subscriptionID string) error
	GetUpcomingRenewals(userID string, today time.Time, days int) ([]models.Subscription, error)
	GetMonthlyCost(userID string) ([]CurrencyCost, error)
}

// PreferenceUpdate carries optional changes to a notification preference.
type PreferenceUpdate struct {
	Enabled         *bool
	EmailEnabled    *bool
	DatabaseEnabled *bool
	PushEnabled     *bool
	Days            *[]int
}

// NotificationServicer defines the contract for notification preferences,
// the in-app feed and dispatch bookkeeping.
type NotificationServicer interface {
	GetPreference(userID string, notificationType models.NotificationType) (*models.NotificationPreference, error)
	UpsertPreference(userID string, notificationType models.NotificationType, upd PreferenceUpdate) (*models.NotificationPreference, error)
	CreateNotification(userID string, notificationType models.NotificationType, title, body string) (*models.Notification, error)
	ListNotifications(userID string, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error)
	MarkRead(userID, notificationID string) (*models.Notification, error)
	MarkAllRead(userID string) (int64, error)
	ClaimDispatch(dispatch *models.NotificationDispatch) (bool, error)
	ReleaseDispatch(dedupeKey string) error
}

// UtilityBillInput carries the fields of a new utility bill.
type UtilityBillInput struct {
	CategoryID         *string
	UtilityType        models.UtilityType
	Provider           string
	AccountNumber      string
	Amount             decimal.Decimal
	Currency           string
	BillingPeriodStart time.Time
	BillingPeriodEnd   time.Time
	DueDate            time.Time
	PaymentStatus      models.PaymentStatus
	PaymentDate        *time.Time
	Notes              string
}

// UtilityBillUpdate carries optional changes to a utility bill.
type UtilityBillUpdate struct {
	CategoryID    *string
	Provider      *string
	Amount        *decimal.Decimal
	DueDate       *time.Time
	PaymentStatus *models.PaymentStatus
	PaymentDate   *time.Time
	Notes         *string
}

// UtilityBillServicer defines the contract for utility bills. Every write
// that leaves a bill paid records its expense exactly once.
type UtilityBillServicer interface {
	CreateUtilityBill(userID string, in UtilityBillInput) (*models.UtilityBill, error)
	GetUserUtilityBills(userID string, page pagination.PageRequest, status *models.PaymentStatus) (*pagination.PageResponse[models.UtilityBill], error)
	GetUtilityBillByID(userID, billID string) (*models.UtilityBill, error)
	UpdateUtilityBill(userID, billID string, upd UtilityBillUpdate) (*models.UtilityBill, error)
	MarkPaid(userID, billID string, paymentDate time.Time) (*models.UtilityBill, error)
	DeleteUtilityBill(userID, billID string) error
}

// TelegramServicer defines the contract for linking Telegram chats to users.
type TelegramServicer interface {
	GetLinkByUserID(userID string) (*models.TelegramLink, error)
	GenerateLinkCode(userID string) (*models.TelegramLink, error)
	CompleteLink(linkCode string, chatID int64, username string) (*models.TelegramLink, error)
	UnlinkAccount(userID string) error
	ChatIDForUser(userID string) (int64, error)
}

// JobReport summarises one run of a scheduled job.
type JobReport struct {
	Job        string   `json:"job"`
	Date       string   `json:"date"`
	Considered int      `json:"considered"`
	Processed  int      `json:"processed"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

// RenewalJobServicer runs the daily subscription jobs.
type RenewalJobServicer interface {
	RunRenewalReminders(ctx context.Context, today time.Time) (*JobReport, error)
	RunAutoRenewals(ctx context.Context, today time.Time) (*JobReport, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
