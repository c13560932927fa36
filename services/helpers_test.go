package services

import (
	"context"
	"testing"
	"time"

	"github.com/atelier-jewels/atelier-api/config"
	"github.com/atelier-jewels/atelier-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a private in-memory database with every table migrated.
// A single connection keeps the in-memory database alive and shared.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db), "Failed to migrate test database")
	return db
}

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// seedCatalog creates a small catalog: ids 1..4
func seedCatalog(t *testing.T, catalog *CatalogService) []models.Product {
	t.Helper()

	fixtures := []models.Product{
		{Name: "Solitaire Diamond Ring", Description: "Classic round brilliant", Category: "Rings", Metal: "Platinum", Gemstones: models.StringList([]string{"Diamond"}), Price: price(125000), Stock: 3},
		{Name: "Gold Hoop Earrings", Description: "Everyday hoops", Category: "Earrings", Metal: "Gold", Price: price(18000), Stock: 10},
		{Name: "Emerald Pendant", Description: "Vintage style 50% off", Category: "Necklaces", Metal: "Gold", Gemstones: models.StringList([]string{"Emerald"}), Price: price(45000), Stock: 2},
		{Name: "Silver Cuff", Description: "Hammered finish", Category: "Bracelets", Metal: "Silver", Price: price(6500), Stock: 0},
	}

	products := make([]models.Product, 0, len(fixtures))
	for _, f := range fixtures {
		p, err := catalog.Create(context.Background(), f)
		require.NoError(t, err)
		products = append(products, *p)
	}
	return products
}

// steppingClock returns a clock that advances one minute per call
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}
