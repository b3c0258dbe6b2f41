package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dam/supermarket/models"
)

var demoCategory string

// supermarket demo: console walkthrough of the catalog.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Print the catalog, its categories, one category and the product count",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		return printDemo(cmd.Context(), cmd.OutOrStdout(), a.products, demoCategory)
	},
}

func init() {
	demoCmd.Flags().StringVar(&demoCategory, "category", "Dairy", "category to list")
}

type demoCatalog interface {
	ListAll(ctx context.Context) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
}

func printDemo(ctx context.Context, w io.Writer, svc demoCatalog, category string) error {
	rule := strings.Repeat("-", 65)

	products, err := svc.ListAll(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "PRODUCT LISTING")
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found. Run `supermarket seed` to load the sample assortment.")
		return nil
	}

	fmt.Fprintf(w, "Products found: %d\n%s\n", len(products), rule)
	for _, p := range products {
		fmt.Fprintf(w, "#%-4d %-20s %-12s %8s EUR  stock %d\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.Stock)
	}
	fmt.Fprintln(w, rule)

	categories, err := svc.ListCategories(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nCategories:")
	for _, c := range categories {
		fmt.Fprintf(w, "  * %s\n", c)
	}

	inCategory, err := svc.ListByCategory(ctx, category)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nProducts in %q:\n", category)
	for _, p := range inCategory {
		fmt.Fprintf(w, "  * %s - %s EUR\n", p.Name, p.Price.StringFixed(2))
	}

	total, err := svc.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal products in store: %d\n", total)
	return nil
}
