package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/indipaws/petstore-backend/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestCartsMigrationEnforcesSingleOwner(t *testing.T) {
	content := readMigration(t, "*_create_carts.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"CONSTRAINT chk_carts_single_owner CHECK",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_session_id",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_carts_user_id",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_cart_product",
		"FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS carts",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProductsMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_products.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CHECK (stock_qty >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_products_sku",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationEnforcesIdempotencyKeys(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_payment_intent_id",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestShippingOptionsMigrationSeedsDefaults(t *testing.T) {
	content := readMigration(t, "*_create_shipping_options.sql")

	for _, code := range []string{"'standard'", "'express'", "'overnight'"} {
		if !strings.Contains(content, code) {
			t.Errorf("missing seeded shipping option %s", code)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
