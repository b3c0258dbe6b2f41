package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

// ErrNoGeneratedKey is returned when an insert does not report the id the
// store assigned.
var ErrNoGeneratedKey = errors.New("store returned no generated key")

const (
	selectProducts = "SELECT " + productColumns + " FROM products"

	insertProduct = `INSERT INTO products (name, description, price, stock, category)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	updateProduct = `UPDATE products
		SET name = $1, description = $2, price = $3, stock = $4, category = $5
		WHERE id = $6`
)

// ProductsRepository owns every SQL statement run against the products
// table. Each method runs a single statement on a connection borrowed from
// the pool.
type ProductsRepository struct {
	db *sql.DB
}

func NewProductsRepository(db *sql.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// FindAll returns every product in insertion order.
func (r *ProductsRepository) FindAll(ctx context.Context) ([]Product, error) {
	return r.query(ctx, selectProducts+" ORDER BY id")
}

// FindByID returns ErrProductNotFound when no row has the id. Any other
// failure is returned as is so callers can tell the two apart.
func (r *ProductsRepository) FindByID(ctx context.Context, id int64) (*Product, error) {
	rows, err := r.db.QueryContext(ctx, selectProducts+" WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query product %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read product %d: %w", id, err)
		}
		return nil, ErrProductNotFound
	}

	product, err := ScanProduct(rows)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Save inserts p, stores the generated id on it and returns it.
func (r *ProductsRepository) Save(ctx context.Context, p *Product) (*Product, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, insertProduct,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.Category,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoGeneratedKey
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	p.ID = id
	return p, nil
}

// Update overwrites every column but id and returns the affected row count.
func (r *ProductsRepository) Update(ctx context.Context, p Product) (int64, error) {
	res, err := r.db.ExecContext(ctx, updateProduct,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.Category,
		p.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}
	return affected(res)
}

// DeleteByID returns the affected row count.
func (r *ProductsRepository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return affected(res)
}

func (r *ProductsRepository) Count(ctx context.Context) (int64, error) {
	var count sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count.Int64, nil
}

func (r *ProductsRepository) FindByCategory(ctx context.Context, category string) ([]Product, error) {
	return r.query(ctx, selectProducts+" WHERE category = $1 ORDER BY id", category)
}

// FindByNameContaining matches fragment anywhere in the name, ignoring case.
// LIKE wildcards in fragment are matched literally.
func (r *ProductsRepository) FindByNameContaining(ctx context.Context, fragment string) ([]Product, error) {
	pattern := "%" + escapeLike(fragment) + "%"
	return r.query(ctx, selectProducts+` WHERE LOWER(name) LIKE LOWER($1) ESCAPE '\' ORDER BY id`, pattern)
}

// FindByPriceLessThanOrEqual returns products priced at most maxPrice, cheapest first.
func (r *ProductsRepository) FindByPriceLessThanOrEqual(ctx context.Context, maxPrice decimal.Decimal) ([]Product, error) {
	return r.query(ctx, selectProducts+" WHERE price <= $1 ORDER BY price, id", maxPrice)
}

func (r *ProductsRepository) FindByStockPositive(ctx context.Context) ([]Product, error) {
	return r.query(ctx, selectProducts+" WHERE stock > 0 ORDER BY id")
}

// FindAllCategories returns the distinct categories in ascending order.
func (r *ProductsRepository) FindAllCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT category FROM products WHERE category IS NOT NULL ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}
	return categories, nil
}

func (r *ProductsRepository) FindAllOrderedByPrice(ctx context.Context) ([]Product, error) {
	return r.query(ctx, selectProducts+" ORDER BY price ASC, id")
}

func (r *ProductsRepository) query(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := ScanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during row iteration: %w", err)
	}
	return products, nil
}

func affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
