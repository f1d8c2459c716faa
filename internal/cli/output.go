package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	cartapp "github.com/dejobratic/errorfix/internal/cart/app"
	cartdomain "github.com/dejobratic/errorfix/internal/cart/domain"
	catalogdomain "github.com/dejobratic/errorfix/internal/catalog/domain"
)

type cartView struct {
	Items      []cartdomain.CartLine `json:"items"`
	ItemCount  int                   `json:"itemCount"`
	TotalPrice decimal.Decimal       `json:"totalPrice"`
}

// printer writes command results as text tables or indented JSON.
type printer struct {
	format string
	w      io.Writer
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// message prints a one-line confirmation, or {"success":true,"message":...}
// in JSON mode.
func (p *printer) message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.format == "json" {
		return p.json(map[string]any{"success": true, "message": msg})
	}
	_, err := fmt.Fprintln(p.w, msg)
	return err
}

func (p *printer) products(products []catalogdomain.Product) error {
	if p.format == "json" {
		return p.json(products)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tIN STOCK")
	for _, product := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n",
			product.ID, product.Name, product.Category, money(product.Price), product.InStock)
	}
	return tw.Flush()
}

func (p *printer) product(product *catalogdomain.Product) error {
	if p.format == "json" {
		return p.json(product)
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%d\n", product.ID)
	fmt.Fprintf(tw, "Name\t%s\n", product.Name)
	fmt.Fprintf(tw, "Description\t%s\n", product.Description)
	fmt.Fprintf(tw, "Price\t%s\n", money(product.Price))
	fmt.Fprintf(tw, "Category\t%s\n", product.Category)
	fmt.Fprintf(tw, "Rating\t%.1f (%d reviews)\n", product.Rating, product.ReviewCount)
	fmt.Fprintf(tw, "Sizes\t%s\n", strings.Join(product.Sizes, ", "))
	fmt.Fprintf(tw, "Colors\t%s\n", strings.Join(product.Colors, ", "))
	return tw.Flush()
}

func (p *printer) cart(snapshot cartapp.Snapshot) error {
	if p.format == "json" {
		return p.json(cartView{Items: snapshot.Lines, ItemCount: snapshot.ItemCount, TotalPrice: snapshot.TotalPrice})
	}

	if len(snapshot.Lines) == 0 {
		_, err := fmt.Fprintln(p.w, "Your cart is empty.")
		return err
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tCOLOR\tQTY\tPRICE\tSUBTOTAL")
	for _, line := range snapshot.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			line.ProductID, line.Name, line.SelectedSize, line.SelectedColor,
			line.Quantity, money(line.UnitPrice), money(line.Subtotal()))
	}
	fmt.Fprintf(tw, "\t\t\t\t%d items\t\t%s\n", snapshot.ItemCount, money(snapshot.TotalPrice))
	return tw.Flush()
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
