package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrymomot/go-env"
	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/easypmnt/liqpay-gateway/repository"
	"github.com/easypmnt/liqpay-gateway/utils"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq" // init pg driver
)

func newMigrateCmd() *cobra.Command {
	var dbURL string

	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back order store migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbURL == "" {
				return errors.New("database url is required")
			}

			db, err := sql.Open("postgres", dbURL)
			if err != nil {
				return fmt.Errorf("failed to open db connection: %w", err)
			}
			defer db.Close()

			dir := migrate.Up
			if args[0] == "down" {
				dir = migrate.Down
			}

			n, err := repository.Migrate(db, dir)
			if err != nil {
				return err
			}

			utils.PrintOK(cmd.OutOrStdout(), "applied %d migrations %s", n, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&dbURL, "database-url", env.GetString("DATABASE_URL", ""), "postgres connection string")

	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <order_id>",
		Short: "Ask the processor for the payment status of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}

			resp, err := c.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			utils.PrintField(cmd.OutOrStdout(), "status", resp.Status)
			utils.Fprint(cmd.OutOrStdout(), resp.Raw)
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	var data, signature string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a notification envelope and print its data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if privateKey == "" {
				return fmt.Errorf("%w: private key is required", liqpay.ErrConfiguration)
			}

			var n map[string]interface{}
			if err := liqpay.NewSigner(privateKey).Open(liqpay.Envelope{Data: data, Signature: signature}, &n); err != nil {
				return err
			}

			utils.PrintOK(cmd.OutOrStdout(), "signature is valid")
			utils.Fprint(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "base64 encoded data")
	cmd.Flags().StringVar(&signature, "signature", "", "signature")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("signature")

	return cmd
}

func newLinkCmd() *cobra.Command {
	var (
		req         liqpay.PaymentRequest
		amount      string
		checkoutURL string
		form        bool
	)

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Build a signed hosted checkout link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			req.Version = liqpay.Version
			req.Amount = a

			if err := req.Validate(); err != nil {
				return err
			}

			c, err := liqpay.NewClient(publicKey, privateKey, liqpay.WithCheckoutURL(checkoutURL))
			if err != nil {
				return err
			}

			if form {
				f, err := c.CheckoutForm(req)
				if err != nil {
					return err
				}
				utils.Fprint(cmd.OutOrStdout(), f)
				return nil
			}

			link, err := c.CheckoutLink(req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Action, "action", liqpay.ActionPay, "checkout action")
	cmd.Flags().StringVar(&amount, "amount", "", "payment amount")
	cmd.Flags().StringVar(&req.Currency, "currency", "UAH", "currency code")
	cmd.Flags().StringVar(&req.Description, "description", "", "payment description")
	cmd.Flags().StringVar(&req.OrderID, "order-id", "", "merchant order id")
	cmd.Flags().StringVar(&req.Email, "email", "", "payer email")
	cmd.Flags().StringVar(&req.ResultURL, "result-url", "", "return URL")
	cmd.Flags().StringVar(&req.ServerURL, "server-url", "", "notification URL")
	cmd.Flags().StringVar(&req.Language, "language", liqpay.LangUK, "checkout page language")
	cmd.Flags().StringVar(&checkoutURL, "checkout-url", env.GetString("LIQPAY_CHECKOUT_URL", liqpay.DefaultCheckoutURL), "checkout page URL")
	cmd.Flags().BoolVar(&form, "form", false, "print the form fields instead of a link")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("order-id")

	return cmd
}
