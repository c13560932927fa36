package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/atelier-jewels/atelier-api/config"
	"github.com/atelier-jewels/atelier-api/models"
	"github.com/atelier-jewels/atelier-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupSeedDB(t *testing.T) (*gorm.DB, Stores) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	catalog := services.NewCatalogService(db)
	return db, Stores{
		Catalog:   catalog,
		Designers: services.NewDesignerService(db, catalog),
		Orders:    services.NewCustomOrderService(db),
	}
}

func TestDefaultParses(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)

	assert.Len(t, f.Users, 5)
	assert.Len(t, f.Designers, 3)
	assert.Len(t, f.Products, 8)
	assert.Len(t, f.CustomOrders, 2)
	assert.Equal(t, "priya@example.com", f.Users[0].Email)
	assert.Equal(t, models.RoleAdmin, f.Users[4].Role)
	assert.Equal(t, float64(125000), f.Products[0].Price)
}

func TestParse(t *testing.T) {
	t.Run("Role defaults to customer", func(t *testing.T) {
		f, err := Parse([]byte("users:\n  - name: Guest\n    email: guest@example.com\n"))
		require.NoError(t, err)
		require.Len(t, f.Users, 1)
		assert.Equal(t, models.RoleCustomer, f.Users[0].Role)
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		_, err := Parse([]byte("users: [unclosed"))
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - name: Test Ring\n    category: Rings\n    metal: Gold\n    price: 100\n"), 0644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Products, 1)
	assert.Equal(t, "Test Ring", f.Products[0].Name)

	embedded, err := LoadFile("")
	require.NoError(t, err)
	assert.Len(t, embedded.Products, 8)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	db, stores := setupSeedDB(t)
	f, err := Default()
	require.NoError(t, err)

	summary, err := Apply(ctx, db, stores, f)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 5, Designers: 3, Products: 8, CustomOrders: 2}, summary)

	asha, err := stores.Designers.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", asha.Name)
	assert.Equal(t, 4.9, asha.Rating)
	assert.Equal(t, 142, asha.CompletedOrders)
	assert.Len(t, asha.Portfolio, 2)

	solitaire, err := stores.Catalog.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, solitaire.DesignerID)
	assert.Equal(t, uint(2), *solitaire.DesignerID, "designer resolved by name")

	pendant, err := stores.Catalog.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, pendant.DesignerID)

	order, err := stores.Orders.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "In Progress", order.Status)
	assert.Equal(t, "Metal Casting", order.CurrentMilestone)
	assert.Equal(t, "Asha Rao", *order.DesignerName)
	assert.Equal(t, models.PriorityHigh, order.Priority)

	fresh, err := stores.Orders.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Order Received", fresh.Status)
	assert.Equal(t, models.PriorityMedium, fresh.Priority)
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, stores := setupSeedDB(t)
	f, err := Default()
	require.NoError(t, err)

	_, err = Apply(ctx, db, stores, f)
	require.NoError(t, err)

	again, err := Apply(ctx, db, stores, f)
	require.NoError(t, err)
	assert.Equal(t, &Summary{}, again)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(8), count)
}
