package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func TestStripeCreateAccount(t *testing.T) {
	g := NewStripeGateway("sk_test", "", nil)

	var got *stripe.AccountParams
	g.newAccount = func(p *stripe.AccountParams) (*stripe.Account, error) {
		got = p
		return &stripe.Account{ID: "acct_new"}, nil
	}

	id, err := g.CreateAccount(context.Background(), AccountRequest{
		ProviderID: "p1", Name: "Joe", Email: "joe@barber.test", Country: "br",
	})
	require.NoError(t, err)
	assert.Equal(t, "acct_new", id)

	require.NotNil(t, got)
	assert.Equal(t, string(stripe.AccountTypeExpress), *got.Type)
	assert.Equal(t, "BR", *got.Country)
	assert.Equal(t, "joe@barber.test", *got.Email)
	assert.True(t, *got.Capabilities.Transfers.Requested)
	assert.Equal(t, "p1", got.Metadata["providerId"])
	assert.Equal(t, "connect-p1", *got.IdempotencyKey)
}

func TestStripeCreateOnboardingLink(t *testing.T) {
	g := NewStripeGateway("sk_test", "", nil)

	var got *stripe.AccountLinkParams
	g.newAccountLink = func(p *stripe.AccountLinkParams) (*stripe.AccountLink, error) {
		got = p
		return &stripe.AccountLink{URL: "https://connect.test/onboard"}, nil
	}

	url, err := g.CreateOnboardingLink(context.Background(), "acct_1", "https://app.test/r", "https://app.test/ok")
	require.NoError(t, err)
	assert.Equal(t, "https://connect.test/onboard", url)
	assert.Equal(t, "acct_1", *got.Account)
	assert.Equal(t, string(stripe.AccountLinkTypeAccountOnboarding), *got.Type)
	assert.Equal(t, "https://app.test/ok", *got.ReturnURL)
}

func TestStripeConnectErrors(t *testing.T) {
	_, err := NewStripeGateway("", "", nil).CreateAccount(context.Background(), AccountRequest{ProviderID: "p1"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	g := NewStripeGateway("sk_test", "", nil)
	g.newAccountLink = func(*stripe.AccountLinkParams) (*stripe.AccountLink, error) {
		return nil, errors.New("stripe down")
	}
	_, err = g.CreateOnboardingLink(context.Background(), "acct_1", "", "")
	assert.Error(t, err)
}
