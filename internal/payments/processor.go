package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	pkgstripe "github.com/TetyanaPavlyuk/library-api-service/pkg/stripe"
)

// SessionRequest describes a one-line checkout session.
type SessionRequest struct {
	Name        string
	AmountCents int64
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the processor handle stored on the payment.
type CheckoutSession struct {
	ID  string
	URL string
}

// Processor opens checkout sessions and reports whether they were paid.
type Processor interface {
	CreateSession(ctx context.Context, req SessionRequest) (*CheckoutSession, error)
	SessionPaid(ctx context.Context, sessionID string) (bool, error)
}

// StripeProcessor runs Checkout Sessions in payment mode.
type StripeProcessor struct {
	currency   string
	newSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getSession func(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// NewStripeProcessor binds the processor to an initialized Stripe client.
func NewStripeProcessor(client *pkgstripe.Client) (*StripeProcessor, error) {
	if client == nil {
		return nil, errors.New("stripe client required")
	}
	return &StripeProcessor{
		currency:   client.Currency(),
		newSession: session.New,
		getSession: session.Get,
	}, nil
}

func (p *StripeProcessor) CreateSession(ctx context.Context, req SessionRequest) (*CheckoutSession, error) {
	if req.AmountCents <= 0 {
		return nil, errors.New("checkout amount must be positive")
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(p.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Name),
				},
				UnitAmount: stripe.Int64(req.AmountCents),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx

	sess, err := p.newSession(params)
	if err != nil {
		return nil, err
	}
	if sess == nil || strings.TrimSpace(sess.ID) == "" {
		return nil, errors.New("stripe returned an empty checkout session")
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProcessor) SessionPaid(ctx context.Context, sessionID string) (bool, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := p.getSession(sessionID, params)
	if err != nil {
		return false, err
	}
	return sess != nil && sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}
