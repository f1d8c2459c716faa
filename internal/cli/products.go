package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	catalogports "github.com/dejobratic/errorfix/internal/catalog/ports"
)

func newProductsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}
	cmd.AddCommand(newProductsListCommand(opts))
	cmd.AddCommand(newProductsShowCommand(opts))
	return cmd
}

func newProductsListCommand(opts *RootOptions) *cobra.Command {
	var filter catalogports.ListFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *Session, out *printer) error {
				products, err := s.Client.ListProducts(ctx, filter)
				if err != nil {
					return err
				}
				return out.products(products)
			})
		},
	}

	cmd.Flags().StringVar(&filter.Category, "category", "", "only products in this category")
	cmd.Flags().BoolVar(&filter.FeaturedOnly, "featured", false, "only featured products")
	return cmd
}

func newProductsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show one product and its variants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(ctx context.Context, s *Session, out *printer) error {
				product, err := s.Client.Product(ctx, id)
				if err != nil {
					return err
				}
				return out.product(product)
			})
		},
	}
}

func parseProductID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return id, nil
}
