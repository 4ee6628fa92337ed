package main

import (
	"os"

	"github.com/dmitrymomot/go-env"
	"github.com/easypmnt/liqpay-gateway/liqpay"
	"github.com/easypmnt/liqpay-gateway/utils"
	"github.com/spf13/cobra"

	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

var (
	publicKey  string
	privateKey string
	apiURL     string
	timeout    = env.GetDuration("LIQPAY_TIMEOUT", liqpay.DefaultTimeout)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		utils.PrintError(os.Stderr, "%v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "liqpayctl",
		Short:         "LiqPay gateway tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&publicKey, "public-key", env.GetString("LIQPAY_PUBLIC_KEY", ""), "merchant public key")
	root.PersistentFlags().StringVar(&privateKey, "private-key", env.GetString("LIQPAY_PRIVATE_KEY", ""), "merchant private key")
	root.PersistentFlags().StringVar(&apiURL, "api-url", env.GetString("LIQPAY_API_URL", liqpay.DefaultAPIURL), "processor API base URL")

	root.AddCommand(
		newMigrateCmd(),
		newStatusCmd(),
		newVerifyCmd(),
		newLinkCmd(),
	)

	return root
}

func newClient() (*liqpay.Client, error) {
	return liqpay.NewClient(publicKey, privateKey,
		liqpay.WithAPIURL(apiURL),
		liqpay.WithTimeout(timeout),
	)
}
