package models_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/dam/supermarket/app/database"
	"github.com/dam/supermarket/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

const productsDDL = `CREATE TABLE products (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT,
	description TEXT,
	price       DECIMAL(10,2),
	stock       INTEGER,
	category    TEXT
)`

var dbSeq atomic.Int64

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:products_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Open(context.Background(), database.Config{
		Driver:       database.DriverSQLite,
		DSN:          dsn,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(productsDDL)
	require.NoError(t, err)
	return db
}

func newTestRepo(t *testing.T) *models.ProductsRepository {
	t.Helper()
	return models.NewProductsRepository(newTestDB(t))
}

func newProduct(name, category, price string, stock int) *models.Product {
	return &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		Category:    category,
	}
}

// seedGroceries inserts Milk, Bread and Cheese in that order.
func seedGroceries(t *testing.T, repo *models.ProductsRepository) []*models.Product {
	t.Helper()
	ctx := context.Background()

	products := []*models.Product{
		newProduct("Milk", "Dairy", "1.20", 30),
		newProduct("Bread", "Bakery", "2.50", 0),
		newProduct("Cheese", "Dairy", "4.00", 5),
	}
	for _, p := range products {
		_, err := repo.Save(ctx, p)
		require.NoError(t, err)
	}
	return products
}

func names(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

// --- Tests: CRUD ---

func TestSave_AssignsIDAndRoundTrips(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	p := newProduct("Yogurt", "Dairy", "0.85", 40)
	saved, err := repo.Save(ctx, p)
	require.NoError(t, err)

	assert.Same(t, p, saved, "Save should return the product it was given")
	assert.True(t, saved.IsPersisted())

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "Yogurt", got.Name)
	assert.Equal(t, "Yogurt description", got.Description)
	assert.True(t, decimal.RequireFromString("0.85").Equal(got.Price))
	assert.Equal(t, 40, got.Stock)
	assert.Equal(t, "Dairy", got.Category)
}

func TestSave_AssignsDistinctIDs(t *testing.T) {
	repo := newTestRepo(t)
	products := seedGroceries(t, repo)

	seen := map[int64]bool{}
	for _, p := range products {
		assert.False(t, seen[p.ID], "id %d assigned twice", p.ID)
		seen[p.ID] = true
	}
}

func TestFindByID_NeverAssignedIsNotFound(t *testing.T) {
	repo := newTestRepo(t)
	seedGroceries(t, repo)

	for _, id := range []int64{0, -1, 999} {
		got, err := repo.FindByID(context.Background(), id)
		assert.ErrorIs(t, err, models.ErrProductNotFound, "id %d", id)
		assert.Nil(t, got)
	}
}

func TestFindByID_StoreErrorIsNotNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := models.NewProductsRepository(db)
	require.NoError(t, db.Close())

	_, err := repo.FindByID(context.Background(), 1)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrProductNotFound)
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	products := seedGroceries(t, repo)

	t.Run("Existing id overwrites every field", func(t *testing.T) {
		changed := *products[0]
		changed.Name = "Skimmed Milk"
		changed.Description = ""
		changed.Price = decimal.RequireFromString("1.10")
		changed.Stock = 0
		changed.Category = "Drinks"

		n, err := repo.Update(ctx, changed)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.FindByID(ctx, changed.ID)
		require.NoError(t, err)
		assert.Equal(t, "Skimmed Milk", got.Name)
		assert.Equal(t, "", got.Description)
		assert.True(t, decimal.RequireFromString("1.10").Equal(got.Price))
		assert.Equal(t, 0, got.Stock)
		assert.Equal(t, "Drinks", got.Category)
	})

	t.Run("Unknown id affects nothing", func(t *testing.T) {
		before, err := repo.FindAll(ctx)
		require.NoError(t, err)

		ghost := *newProduct("Ghost", "None", "9.99", 1)
		ghost.ID = 12345
		n, err := repo.Update(ctx, ghost)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		after, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestDeleteByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	products := seedGroceries(t, repo)

	n, err := repo.DeleteByID(ctx, products[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByID(ctx, products[1].ID)
	assert.ErrorIs(t, err, models.ErrProductNotFound)

	n, err = repo.DeleteByID(ctx, products[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "Second delete should be a no-op")

	n, err = repo.DeleteByID(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCount_MatchesFindableProducts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	products := seedGroceries(t, repo)
	_, err = repo.DeleteByID(ctx, products[0].ID)
	require.NoError(t, err)

	count, err = repo.Count(ctx)
	require.NoError(t, err)

	var found int64
	for _, p := range products {
		if _, err := repo.FindByID(ctx, p.ID); err == nil {
			found++
		}
	}
	assert.Equal(t, int64(2), count)
	assert.Equal(t, found, count)
}

// --- Tests: Queries ---

func TestFindAll(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all, "Empty table should yield an empty slice")
	assert.Len(t, all, 0)

	seedGroceries(t, repo)
	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Milk", "Bread", "Cheese"}, names(all))
}

func TestQueries_GroceryScenario(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedGroceries(t, repo)

	testCases := []struct {
		name     string
		run      func() ([]models.Product, error)
		expected []string
	}{
		{
			name:     "By category keeps scan order",
			run:      func() ([]models.Product, error) { return repo.FindByCategory(ctx, "Dairy") },
			expected: []string{"Milk", "Cheese"},
		},
		{
			name:     "By category is exact match",
			run:      func() ([]models.Product, error) { return repo.FindByCategory(ctx, "dairy") },
			expected: []string{},
		},
		{
			name:     "All ordered by price",
			run:      func() ([]models.Product, error) { return repo.FindAllOrderedByPrice(ctx) },
			expected: []string{"Milk", "Bread", "Cheese"},
		},
		{
			name: "Max price is inclusive and ascending",
			run: func() ([]models.Product, error) {
				return repo.FindByPriceLessThanOrEqual(ctx, decimal.RequireFromString("2.50"))
			},
			expected: []string{"Milk", "Bread"},
		},
		{
			name: "Max price below everything",
			run: func() ([]models.Product, error) {
				return repo.FindByPriceLessThanOrEqual(ctx, decimal.RequireFromString("1.00"))
			},
			expected: []string{},
		},
		{
			name:     "Name fragment ignores case",
			run:      func() ([]models.Product, error) { return repo.FindByNameContaining(ctx, "EA") },
			expected: []string{"Bread"},
		},
		{
			name:     "Name fragment matches substring",
			run:      func() ([]models.Product, error) { return repo.FindByNameContaining(ctx, "ee") },
			expected: []string{"Cheese"},
		},
		{
			name:     "Name fragment wildcards are literal",
			run:      func() ([]models.Product, error) { return repo.FindByNameContaining(ctx, "%") },
			expected: []string{},
		},
		{
			name:     "Stock positive",
			run:      func() ([]models.Product, error) { return repo.FindByStockPositive(ctx) },
			expected: []string{"Milk", "Cheese"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.run()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, names(got))
		})
	}
}

func TestFindAllOrderedByPrice_ReturnsExactPrices(t *testing.T) {
	repo := newTestRepo(t)
	seedGroceries(t, repo)

	got, err := repo.FindAllOrderedByPrice(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, want := range []string{"1.20", "2.50", "4.00"} {
		assert.True(t, decimal.RequireFromString(want).Equal(got[i].Price), "position %d: got %s", i, got[i].Price)
	}
}

func TestFindAllCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	categories, err := repo.FindAllCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{}, categories)

	seedGroceries(t, repo)
	_, err = repo.Save(ctx, newProduct("Butter", "Dairy", "3.10", 8))
	require.NoError(t, err)
	_, err = repo.Save(ctx, newProduct("Apple", "Fruit", "0.40", 100))
	require.NoError(t, err)

	categories, err = repo.FindAllCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bakery", "Dairy", "Fruit"}, categories)
}

func TestSave_StoreErrorIsPropagated(t *testing.T) {
	db := newTestDB(t)
	repo := models.NewProductsRepository(db)
	_, err := db.Exec("DROP TABLE products")
	require.NoError(t, err)

	p := newProduct("Milk", "Dairy", "1.20", 1)
	_, err = repo.Save(context.Background(), p)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNoGeneratedKey)
	assert.False(t, p.IsPersisted())
}

func TestSave_NoGeneratedKey(t *testing.T) {
	db := newTestDB(t)
	repo := models.NewProductsRepository(db)
	_, err := db.Exec(`CREATE TRIGGER skip_insert BEFORE INSERT ON products
		BEGIN SELECT RAISE(IGNORE); END`)
	require.NoError(t, err)

	p := newProduct("Milk", "Dairy", "1.20", 1)
	saved, err := repo.Save(context.Background(), p)

	assert.ErrorIs(t, err, models.ErrNoGeneratedKey)
	assert.Nil(t, saved)
	assert.False(t, p.IsPersisted())

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
