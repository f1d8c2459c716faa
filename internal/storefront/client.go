// Package storefront composes the cart, auth and purchase stores into one
// client session, the way the storefront pages use them together.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	authapp "github.com/dejobratic/errorfix/internal/auth/app"
	authdomain "github.com/dejobratic/errorfix/internal/auth/domain"
	cartapp "github.com/dejobratic/errorfix/internal/cart/app"
	cartdomain "github.com/dejobratic/errorfix/internal/cart/domain"
	catalogdomain "github.com/dejobratic/errorfix/internal/catalog/domain"
	catalogports "github.com/dejobratic/errorfix/internal/catalog/ports"
	purchaseapp "github.com/dejobratic/errorfix/internal/purchase/app"
	purchasedomain "github.com/dejobratic/errorfix/internal/purchase/domain"
	"github.com/dejobratic/errorfix/internal/result"
)

var ErrEmptyCart = errors.New("cart is empty")

const MessageEmptyCart = "Your cart is empty."

// Client is one storefront session. Logging out clears the cart and resets
// the purchase workflow.
type Client struct {
	catalog  catalogports.ProductRepository
	cart     *cartapp.Store
	auth     *authapp.Store
	purchase *purchaseapp.Workflow
	logger   *slog.Logger
}

func New(
	catalog catalogports.ProductRepository,
	cart *cartapp.Store,
	auth *authapp.Store,
	purchase *purchaseapp.Workflow,
	logger *slog.Logger,
) *Client {
	c := &Client{
		catalog:  catalog,
		cart:     cart,
		auth:     auth,
		purchase: purchase,
		logger:   logger,
	}

	auth.OnLogout(func(ctx context.Context) error {
		return cart.Clear(ctx)
	})
	auth.OnLogout(func(context.Context) error {
		purchase.ResetPurchaseState()
		return nil
	})

	return c
}

func (c *Client) Cart() *cartapp.Store            { return c.cart }
func (c *Client) Auth() *authapp.Store            { return c.auth }
func (c *Client) Purchase() *purchaseapp.Workflow { return c.purchase }

// Restore reloads the persisted cart and session.
func (c *Client) Restore(ctx context.Context) error {
	return errors.Join(c.cart.Restore(ctx), c.auth.Restore(ctx))
}

// ListProducts returns the catalog filtered by filter.
func (c *Client) ListProducts(ctx context.Context, filter catalogports.ListFilter) ([]catalogdomain.Product, error) {
	return c.catalog.List(ctx, filter)
}

// Product returns one catalog entry.
func (c *Client) Product(ctx context.Context, id int64) (*catalogdomain.Product, error) {
	return c.catalog.GetByID(ctx, id)
}

// AddProduct looks productID up in the catalog and adds quantity units of the
// chosen variant. Empty size or color picks the product's first option.
func (c *Client) AddProduct(ctx context.Context, productID int64, size, color string, quantity int) error {
	product, err := c.catalog.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("look up product %d: %w", productID, err)
	}

	defaultSize, defaultColor := product.DefaultVariant()
	if size == "" {
		size = defaultSize
	}
	if color == "" {
		color = defaultColor
	}
	if err := product.ValidateVariant(size, color); err != nil {
		return err
	}

	return c.cart.AddItem(ctx, cartdomain.CartLine{
		ProductID:     product.ID,
		Name:          product.Name,
		UnitPrice:     product.Price,
		ImageRef:      product.PrimaryImage(),
		SelectedSize:  size,
		SelectedColor: color,
		Quantity:      quantity,
	})
}

// Checkout purchases the whole cart and empties it on success.
func (c *Client) Checkout(ctx context.Context, payment purchasedomain.PaymentDetails) result.Result {
	session := c.auth.Session()
	if !session.IsAuthenticated() {
		return result.Fail(purchasedomain.ErrNotAuthenticated, purchasedomain.MessageUnauthorized)
	}

	snapshot := c.cart.Snapshot()
	if len(snapshot.Lines) == 0 {
		return result.Fail(ErrEmptyCart, MessageEmptyCart)
	}

	res := c.purchase.MakePurchase(ctx, purchasedomain.Request{
		Items:          toPurchaseItems(snapshot.Lines),
		TotalAmount:    snapshot.TotalPrice,
		User:           toCustomer(session.User),
		PaymentDetails: &payment,
	})
	if !res.Success {
		return res
	}

	if err := c.cart.Clear(ctx); err != nil {
		c.logger.WarnContext(ctx, "purchase completed but cart was not cleared", "error", err)
	}
	return res
}

// Logout ends the session; the cart and purchase state are reset by the
// hooks registered in New.
func (c *Client) Logout(ctx context.Context) error {
	return c.auth.Logout(ctx)
}

func toPurchaseItems(lines []cartdomain.CartLine) []purchasedomain.LineItem {
	items := make([]purchasedomain.LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, purchasedomain.LineItem{
			ID:            line.ProductID,
			Name:          line.Name,
			Price:         line.UnitPrice,
			Image:         line.ImageRef,
			Quantity:      line.Quantity,
			SelectedSize:  line.SelectedSize,
			SelectedColor: line.SelectedColor,
		})
	}
	return items
}

func toCustomer(user *authdomain.User) purchasedomain.Customer {
	if user == nil {
		return purchasedomain.Customer{}
	}
	return purchasedomain.Customer{ID: user.ID, Email: user.Email, Name: user.Name}
}
