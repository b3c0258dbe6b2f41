package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrColumnMismatch is returned when a result set does not carry exactly the
// product columns. It means the schema and the code disagree.
var ErrColumnMismatch = errors.New("product columns do not match schema")

// productColumns is the column list every product query selects.
const productColumns = "id, name, description, price, stock, category"

// RowScanner is the part of *sql.Rows the row mapper needs.
type RowScanner interface {
	Columns() ([]string, error)
	Scan(dest ...any) error
}

// ScanProduct maps the current row into a new Product, binding each column
// by name. NULL text maps to "", NULL price and stock map to zero.
func ScanProduct(row RowScanner) (Product, error) {
	cols, err := row.Columns()
	if err != nil {
		return Product{}, fmt.Errorf("failed to read columns: %w", err)
	}

	var (
		id          sql.NullInt64
		name        sql.NullString
		description sql.NullString
		price       decimal.NullDecimal
		stock       sql.NullInt64
		category    sql.NullString
	)
	targets := map[string]any{
		"id":          &id,
		"name":        &name,
		"description": &description,
		"price":       &price,
		"stock":       &stock,
		"category":    &category,
	}

	dest := make([]any, len(cols))
	bound := make(map[string]bool, len(targets))
	for i, col := range cols {
		key := strings.ToLower(col)
		target, ok := targets[key]
		if !ok {
			return Product{}, fmt.Errorf("%w: unexpected column %q", ErrColumnMismatch, col)
		}
		if bound[key] {
			return Product{}, fmt.Errorf("%w: duplicate column %q", ErrColumnMismatch, col)
		}
		bound[key] = true
		dest[i] = target
	}
	if len(bound) != len(targets) {
		var missing []string
		for _, col := range strings.Split(productColumns, ", ") {
			if !bound[col] {
				missing = append(missing, col)
			}
		}
		return Product{}, fmt.Errorf("%w: missing columns %s", ErrColumnMismatch, strings.Join(missing, ", "))
	}

	if err := row.Scan(dest...); err != nil {
		return Product{}, fmt.Errorf("failed to scan product row: %w", err)
	}

	p := Product{
		ID:          id.Int64,
		Name:        name.String,
		Description: description.String,
		Stock:       int(stock.Int64),
		Category:    category.String,
	}
	if price.Valid {
		p.Price = price.Decimal
	}
	return p, nil
}
