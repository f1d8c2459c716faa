package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	purchasedomain "github.com/dejobratic/errorfix/internal/purchase/domain"
)

func newCheckoutCommand(opts *RootOptions) *cobra.Command {
	var payment purchasedomain.PaymentDetails

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Purchase everything in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *Session, out *printer) error {
				total := s.Client.Cart().TotalPrice()

				res := s.Client.Checkout(ctx, payment)
				if !res.Success {
					return errors.New(res.Error)
				}

				state := s.Client.Purchase().State()
				if out.format == "json" {
					return out.json(map[string]any{
						"success":       true,
						"transactionId": state.TransactionID,
						"amount":        total,
					})
				}
				return out.message("Purchase complete. Transaction %s, charged %s.", state.TransactionID, money(total))
			})
		},
	}

	cmd.Flags().StringVar(&payment.CardNumber, "card", "", "card number")
	cmd.Flags().StringVar(&payment.CardholderName, "name", "", "cardholder name")
	cmd.Flags().StringVar(&payment.ExpiryDate, "expiry", "", "expiry date (MM/YY)")
	cmd.Flags().StringVar(&payment.CVV, "cvv", "", "card security code")
	_ = cmd.MarkFlagRequired("card")
	return cmd
}
