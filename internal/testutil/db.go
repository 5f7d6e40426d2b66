// Package testutil provides a migrated throwaway database for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"customerapp/internal/config"
	"customerapp/internal/db"
	"customerapp/internal/models"
)

// OpenDB returns a migrated SQLite database stored under t.TempDir with
// foreign keys enforced.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	gdb, err := db.Open(config.Database{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// CreateCustomer inserts a customer with a throwaway password hash.
func CreateCustomer(t testing.TB, gdb *gorm.DB, email string) models.Customer {
	t.Helper()
	c := models.Customer{Name: email, Email: email, PasswordHash: "x"}
	if err := gdb.Create(&c).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

// CreateProduct inserts a product priced at price for customerID.
func CreateProduct(t testing.TB, gdb *gorm.DB, customerID uint, price string) models.Product {
	t.Helper()
	p := models.Product{
		CustomerID: customerID,
		Name:       "product " + price,
		Price:      decimal.RequireFromString(price),
	}
	if err := gdb.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}
