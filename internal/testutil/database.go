// Package testutil provides test helpers for setting up in-memory databases,
// creating fixtures, and making assertions.
package testutil

import (
	"strings"
	"testing"

	"lifeos/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// allModels is the list of all GORM models to auto-migrate in tests.
var allModels = []interface{}{
	&models.User{},
	&models.Category{},
	&models.Expense{},
	&models.ExpenseTag{},
	&models.Budget{},
	&models.Subscription{},
	&models.UtilityBill{},
	&models.NotificationPreference{},
	&models.NotificationDispatch{},
	&models.Notification{},
	&models.TelegramLink{},
	&models.AuditLog{},
}

// provenanceIndex mirrors the partial unique index from the SQL migrations.
const provenanceIndex = `CREATE UNIQUE INDEX IF NOT EXISTS uq_expense_tags_provenance
ON expense_tags (tag, date)
WHERE deleted_at IS NULL AND (tag LIKE 'subscription:%' OR tag LIKE 'utility-bill:%')`

// SetupTestDB creates an in-memory SQLite database with all models migrated.
// Each test gets its own database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := db.Exec(provenanceIndex).Error; err != nil {
		t.Fatalf("failed to create provenance index: %v", err)
	}

	return db
}

// TeardownTestDB closes the underlying database connection.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("failed to get underlying DB for teardown: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}
