package database

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite database, runs the migrations and
// installs it as the package-level connection for the duration of the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if _, err := SetupDB(WithExistingDB(db)); err != nil {
		t.Fatalf("failed to set up test database: %v", err)
	}

	t.Cleanup(func() {
		DB = nil
	})

	return db
}

func TestSetupDBRequiresConnection(t *testing.T) {
	DB = nil
	t.Cleanup(func() { DB = nil })

	if _, err := SetupDB(WithDialector(nil), WithAutoMigrate(false)); err == nil {
		t.Fatal("expected an error when no dialector or connection is provided")
	}
}

func TestHandlersRejectUninitialisedDB(t *testing.T) {
	DB = nil

	if err := RecordRequest("10.0.0.1", "GET", "", "/", 0, 0); err == nil {
		t.Error("RecordRequest should fail without a database")
	}
	if _, _, err := IsBanned("10.0.0.1"); err == nil {
		t.Error("IsBanned should fail without a database")
	}
	if err := LogSecurityEvent("10.0.0.1", "TEST", "", ""); err == nil {
		t.Error("LogSecurityEvent should fail without a database")
	}
}
