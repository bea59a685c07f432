package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/indipaws/petstore-backend/pkg/db/models"
	pkgerrors "github.com/indipaws/petstore-backend/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  description TEXT,
  price_cents INTEGER NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(products).Error)
	return conn
}

func seedProduct(t *testing.T, conn *gorm.DB, stock int, active bool) models.Product {
	t.Helper()

	product := models.Product{
		ID:         uuid.New(),
		Name:       "Chew Toy",
		SKU:        "SKU-" + uuid.NewString()[:8],
		PriceCents: 1299,
		StockQty:   stock,
		IsActive:   active,
	}
	require.NoError(t, conn.Create(&product).Error)
	return product
}

func TestDecrementAllHappyPath(t *testing.T) {
	conn := setupCatalogTestDB(t)
	ledger, err := NewLedger(conn)
	require.NoError(t, err)

	first := seedProduct(t, conn, 10, true)
	second := seedProduct(t, conn, 4, true)

	ctx := context.Background()
	tx := conn.Begin()
	issues, err := ledger.DecrementAll(ctx, tx, []Line{
		{ProductID: first.ID, Qty: 3},
		{ProductID: second.ID, Qty: 4},
	})
	require.NoError(t, err)
	require.Empty(t, issues)
	require.NoError(t, tx.Commit().Error)

	var got models.Product
	require.NoError(t, conn.First(&got, "id = ?", first.ID).Error)
	assert.Equal(t, 7, got.StockQty)
	got = models.Product{}
	require.NoError(t, conn.First(&got, "id = ?", second.ID).Error)
	assert.Equal(t, 0, got.StockQty)
}

func TestDecrementAllReportsEveryShortfall(t *testing.T) {
	conn := setupCatalogTestDB(t)
	ledger, err := NewLedger(conn)
	require.NoError(t, err)

	plenty := seedProduct(t, conn, 10, true)
	scarce := seedProduct(t, conn, 1, true)
	inactive := seedProduct(t, conn, 50, false)

	ctx := context.Background()
	tx := conn.Begin()
	issues, err := ledger.DecrementAll(ctx, tx, []Line{
		{ProductID: plenty.ID, Qty: 2},
		{ProductID: scarce.ID, Qty: 5},
		{ProductID: inactive.ID, Qty: 1},
	})
	require.Error(t, err)
	require.NoError(t, tx.Rollback().Error)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, coded.Code())

	require.Len(t, issues, 2)
	assert.Equal(t, scarce.ID, issues[0].ProductID)
	assert.Equal(t, 5, issues[0].Requested)
	assert.Equal(t, 1, issues[0].Available)
	assert.Equal(t, inactive.ID, issues[1].ProductID)
	assert.Equal(t, 0, issues[1].Available)

	// rollback must leave the satisfiable line untouched
	var got models.Product
	require.NoError(t, conn.First(&got, "id = ?", plenty.ID).Error)
	assert.Equal(t, 10, got.StockQty)
}

func TestAdjustGuardsNegativeStock(t *testing.T) {
	conn := setupCatalogTestDB(t)
	ledger, err := NewLedger(conn)
	require.NoError(t, err)

	product := seedProduct(t, conn, 2, true)
	ctx := context.Background()

	tx := conn.Begin()
	err = ledger.Adjust(ctx, tx, product.ID, -5)
	require.Error(t, err)
	require.NoError(t, tx.Rollback().Error)

	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, coded.Code())

	tx = conn.Begin()
	require.NoError(t, ledger.Adjust(ctx, tx, product.ID, -2))
	require.NoError(t, ledger.Adjust(ctx, tx, product.ID, 7))
	require.NoError(t, tx.Commit().Error)

	var got models.Product
	require.NoError(t, conn.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 7, got.StockQty)
}

func TestRestoreIncrementsStock(t *testing.T) {
	conn := setupCatalogTestDB(t)
	ledger, err := NewLedger(conn)
	require.NoError(t, err)

	product := seedProduct(t, conn, 0, true)
	ctx := context.Background()

	tx := conn.Begin()
	require.NoError(t, ledger.Restore(ctx, tx, []Line{{ProductID: product.ID, Qty: 3}}))
	require.NoError(t, tx.Commit().Error)

	var got models.Product
	require.NoError(t, conn.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 3, got.StockQty)
}

func TestAvailabilityReads(t *testing.T) {
	conn := setupCatalogTestDB(t)
	ledger, err := NewLedger(conn)
	require.NoError(t, err)
	ctx := context.Background()

	active := seedProduct(t, conn, 5, true)
	inactive := seedProduct(t, conn, 5, false)

	ok, err := ledger.IsAvailable(ctx, active.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.IsAvailable(ctx, active.ID, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	qty, err := ledger.AvailableQty(ctx, inactive.ID)
	require.NoError(t, err)
	assert.Zero(t, qty)

	_, err = ledger.AvailableQty(ctx, uuid.New())
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeNotFound, coded.Code())
}
