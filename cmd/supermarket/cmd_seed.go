package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dam/supermarket/models"
)

// supermarket seed: insert the sample assortment.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a sample assortment of products",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		n, err := seedProducts(cmd.Context(), a.products)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products\n", n)
		return nil
	},
}

type productCreator interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
}

func sampleProducts() []models.Product {
	return []models.Product{
		{Name: "Milk", Description: "Whole milk 1L", Price: decimal.RequireFromString("1.20"), Stock: 50, Category: "Dairy"},
		{Name: "Bread", Description: "Baguette", Price: decimal.RequireFromString("2.50"), Stock: 20, Category: "Bakery"},
		{Name: "Cheese", Description: "Cured cheese 250g", Price: decimal.RequireFromString("4.00"), Stock: 15, Category: "Dairy"},
		{Name: "Yogurt", Description: "Natural yogurt pack of 4", Price: decimal.RequireFromString("1.85"), Stock: 40, Category: "Dairy"},
		{Name: "Croissant", Description: "Butter croissant", Price: decimal.RequireFromString("0.90"), Stock: 0, Category: "Bakery"},
		{Name: "Apple", Description: "Golden apple 1kg", Price: decimal.RequireFromString("2.10"), Stock: 60, Category: "Fruit"},
		{Name: "Orange juice", Description: "Fresh orange juice 1L", Price: decimal.RequireFromString("3.25"), Stock: 12, Category: "Drinks"},
		{Name: "Olive oil", Description: "Extra virgin olive oil 1L", Price: decimal.RequireFromString("8.95"), Stock: 8, Category: "Pantry"},
	}
}

func seedProducts(ctx context.Context, svc productCreator) (int, error) {
	products := sampleProducts()
	for i := range products {
		if _, err := svc.Create(ctx, &products[i]); err != nil {
			return i, fmt.Errorf("seed %s: %w", products[i].Name, err)
		}
	}
	return len(products), nil
}
