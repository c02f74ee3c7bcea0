package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
)

func TestStripeProcessorBuildsPaymentModeSession(t *testing.T) {
	var captured *stripe.CheckoutSessionParams
	p := &StripeProcessor{
		currency: "usd",
		newSession: func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			captured = params
			return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}, nil
		},
	}

	ctx := context.Background()
	sess, err := p.CreateSession(ctx, SessionRequest{
		Name:        "Payment for Dune, Emma",
		AmountCents: 525,
		SuccessURL:  "http://localhost:8080/api/library/payments/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   "http://localhost:8080/api/library/payments/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", sess.URL)

	require.NotNil(t, captured)
	assert.Equal(t, ctx, captured.Context)
	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *captured.Mode)
	assert.Equal(t, "http://localhost:8080/api/library/payments/cancel", *captured.CancelURL)
	require.Len(t, captured.LineItems, 1)
	item := captured.LineItems[0]
	assert.Equal(t, int64(1), *item.Quantity)
	assert.Equal(t, "usd", *item.PriceData.Currency)
	assert.Equal(t, int64(525), *item.PriceData.UnitAmount)
	assert.Equal(t, "Payment for Dune, Emma", *item.PriceData.ProductData.Name)
}

func TestStripeProcessorRejectsEmptyAmount(t *testing.T) {
	called := false
	p := &StripeProcessor{newSession: func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		called = true
		return nil, nil
	}}
	_, err := p.CreateSession(context.Background(), SessionRequest{AmountCents: 0})
	require.Error(t, err)
	assert.False(t, called)
}

func TestStripeProcessorPropagatesErrors(t *testing.T) {
	p := &StripeProcessor{newSession: func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		return nil, errors.New("card_declined")
	}}
	_, err := p.CreateSession(context.Background(), SessionRequest{AmountCents: 100})
	require.EqualError(t, err, "card_declined")
}

func TestStripeProcessorSessionPaid(t *testing.T) {
	statuses := map[string]stripe.CheckoutSessionPaymentStatus{
		"cs_paid":   stripe.CheckoutSessionPaymentStatusPaid,
		"cs_unpaid": stripe.CheckoutSessionPaymentStatusUnpaid,
	}
	p := &StripeProcessor{getSession: func(id string, _ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		status, ok := statuses[id]
		if !ok {
			return nil, errors.New("no such checkout session")
		}
		return &stripe.CheckoutSession{ID: id, PaymentStatus: status}, nil
	}}

	paid, err := p.SessionPaid(context.Background(), "cs_paid")
	require.NoError(t, err)
	assert.True(t, paid)

	paid, err = p.SessionPaid(context.Background(), "cs_unpaid")
	require.NoError(t, err)
	assert.False(t, paid)

	_, err = p.SessionPaid(context.Background(), "cs_missing")
	require.Error(t, err)
}

func TestNewStripeProcessorRequiresClient(t *testing.T) {
	_, err := NewStripeProcessor(nil)
	require.Error(t, err)
}
