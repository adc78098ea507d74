package lib

import (
	"context"
	"fmt"
	"os"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

type CheckoutLine struct {
	Name      string
	UnitPrice float32
	Currency  string
}

// CreateCheckoutSession builds a hosted checkout for an order. The payment
// reference rides along as metadata so the callback can find the order again.
func CreateCheckoutSession(reference string, lines []CheckoutLine) (*stripe.CheckoutSession, error) {
	sc := GetStripeClient()
	successUrl := fmt.Sprintf("%s/checkout/callback/success", os.Getenv("APP_HOST"))
	params := stripe.CheckoutSessionCreateParams{
		SuccessURL: stripe.String(successUrl),
		UIMode:     stripe.String("hosted"),
		Mode:       stripe.String("payment"),
		Metadata: map[string]string{
			"reference": reference,
		},
	}
	lineItems := []*stripe.CheckoutSessionCreateLineItemParams{}
	for _, line := range lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(line.Currency),
				UnitAmount: stripe.Int64(int64(line.UnitPrice * 100)),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
		})
	}
	params.LineItems = lineItems
	return sc.V1CheckoutSessions.Create(context.Background(), &params)
}

// RetrieveCheckoutSession re-reads a session from the gateway so a callback
// payload is never trusted on its own.
func RetrieveCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	sc := GetStripeClient()
	return sc.V1CheckoutSessions.Retrieve(context.Background(), id, &stripe.CheckoutSessionRetrieveParams{})
}
