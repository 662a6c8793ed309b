package stripeapi

import (
	"regexp"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// Client is the slice of the Stripe API the payment core uses. Handlers
// depend on this interface so tests can run against a scripted fake.
type Client interface {
	CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	CheckoutSession(id string) (*stripe.CheckoutSession, error)
	Customer(id string) (*stripe.Customer, error)
	ActivePrices() ([]*stripe.Price, error)
}

// cs_<mode>_<token>, the shape Stripe uses for checkout session ids. A
// client-supplied id that does not match is rejected before any API call.
var sessionIDPattern = regexp.MustCompile(`^cs_(test|live)_[A-Za-z0-9]+$`)

func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

type apiClient struct {
	api *client.API
}

var _ Client = (*apiClient)(nil)

// New builds a Client bound to the given secret key. The key lives on the
// client, not in a package-level variable.
func New(secretKey string) Client {
	return &apiClient{api: client.New(secretKey, nil)}
}

func (c *apiClient) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return c.api.CheckoutSessions.New(params)
}

func (c *apiClient) CheckoutSession(id string) (*stripe.CheckoutSession, error) {
	return c.api.CheckoutSessions.Get(id, nil)
}

func (c *apiClient) Customer(id string) (*stripe.Customer, error) {
	return c.api.Customers.Get(id, nil)
}

func (c *apiClient) ActivePrices() ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{}
	params.Active = stripe.Bool(true)
	params.Type = stripe.String("recurring")
	params.AddExpand("data.product")

	it := c.api.Prices.List(params)

	var prices []*stripe.Price
	for it.Next() {
		p := it.Price()
		if !p.Active || p.Recurring == nil {
			continue
		}
		if p.Product == nil || !p.Product.Active {
			continue
		}
		if p.Metadata["visible"] == "false" {
			continue
		}
		prices = append(prices, p)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}
