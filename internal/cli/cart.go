package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cartdomain "github.com/dejobratic/errorfix/internal/cart/domain"
)

type variantFlags struct {
	size  string
	color string
}

func (v *variantFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&v.size, "size", "", "selected size")
	cmd.Flags().StringVar(&v.color, "color", "", "selected color")
}

func newCartCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the persisted cart",
	}
	cmd.AddCommand(newCartShowCommand(opts))
	cmd.AddCommand(newCartAddCommand(opts))
	cmd.AddCommand(newCartUpdateCommand(opts))
	cmd.AddCommand(newCartRemoveCommand(opts))
	cmd.AddCommand(newCartClearCommand(opts))
	return cmd
}

func newCartShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show cart lines and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(_ context.Context, s *Session, out *printer) error {
				return out.cart(s.Client.Cart().Snapshot())
			})
		},
	}
}

func newCartAddCommand(opts *RootOptions) *cobra.Command {
	var (
		variant  variantFlags
		quantity int
	)

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product variant to the cart",
		Long:  "Add a product variant to the cart. Without --size or --color the product's first option is used.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			if quantity < 1 {
				return errors.New("quantity must be at least 1")
			}
			return withSession(cmd, opts, func(ctx context.Context, s *Session, out *printer) error {
				if err := s.Client.AddProduct(ctx, id, variant.size, variant.color, quantity); err != nil {
					return err
				}
				return out.message("Added %d x product %d. Cart holds %d items.", quantity, id, s.Client.Cart().ItemCount())
			})
		},
	}

	variant.register(cmd)
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "units to add")
	return cmd
}

func newCartUpdateCommand(opts *RootOptions) *cobra.Command {
	var variant variantFlags

	cmd := &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return withSession(cmd, opts, func(ctx context.Context, s *Session, out *printer) error {
				key, err := resolveLine(s.Client.Cart().Lines(), id, variant)
				if err != nil {
					return err
				}
				if err := s.Client.Cart().UpdateQuantity(ctx, key, quantity); err != nil {
					return err
				}
				return out.cart(s.Client.Cart().Snapshot())
			})
		},
	}

	variant.register(cmd)
	return cmd
}

func newCartRemoveCommand(opts *RootOptions) *cobra.Command {
	var variant variantFlags

	cmd := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProductID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(ctx context.Context, s *Session, out *printer) error {
				key, err := resolveLine(s.Client.Cart().Lines(), id, variant)
				if err != nil {
					return err
				}
				if err := s.Client.Cart().RemoveItem(ctx, key); err != nil {
					return err
				}
				return out.cart(s.Client.Cart().Snapshot())
			})
		},
	}

	variant.register(cmd)
	return cmd
}

func newCartClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *Session, out *printer) error {
				if err := s.Client.Cart().Clear(ctx); err != nil {
					return err
				}
				return out.message("Cart cleared.")
			})
		},
	}
}

// resolveLine finds the single line of productID matching the given variant
// flags. Empty flags match any value.
func resolveLine(lines []cartdomain.CartLine, productID int64, variant variantFlags) (cartdomain.LineKey, error) {
	var matches []cartdomain.LineKey
	for _, line := range lines {
		if line.ProductID != productID {
			continue
		}
		if variant.size != "" && line.SelectedSize != variant.size {
			continue
		}
		if variant.color != "" && line.SelectedColor != variant.color {
			continue
		}
		matches = append(matches, line.Key())
	}

	switch len(matches) {
	case 0:
		return cartdomain.LineKey{}, fmt.Errorf("no cart line for product %d", productID)
	case 1:
		return matches[0], nil
	default:
		return cartdomain.LineKey{}, fmt.Errorf("product %d has %d lines in the cart; pass --size and --color", productID, len(matches))
	}
}
