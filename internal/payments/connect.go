package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
)

// AccountRequest describes the provider a payout account is opened for.
type AccountRequest struct {
	ProviderID string
	Name       string
	Email      string
	Country    string
}

// AccountOnboarder opens destination accounts and the hosted page where the
// provider completes them. Readiness arrives later as an account update event.
type AccountOnboarder interface {
	CreateAccount(ctx context.Context, req AccountRequest) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
}

var _ AccountOnboarder = (*StripeGateway)(nil)

func (g *StripeGateway) CreateAccount(
	ctx context.Context,
	req AccountRequest,
) (string, error) {

	if strings.TrimSpace(g.secretKey) == "" {
		return "", ErrNotConfigured
	}
	stripe.Key = g.secretKey

	params := &stripe.AccountParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Country:      stripe.String(strings.ToUpper(req.Country)),
		BusinessType: stripe.String(string(stripe.AccountBusinessTypeIndividual)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
		BusinessProfile: &stripe.AccountBusinessProfileParams{
			Name:               stripe.String(req.Name),
			ProductDescription: stripe.String("Barber services by " + req.Name),
		},
	}
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	params.AddMetadata("providerId", req.ProviderID)
	params.Context = ctx
	// Two concurrent onboarding requests for one provider get the same account.
	params.IdempotencyKey = stripe.String("connect-" + req.ProviderID)

	acct, err := g.newAccount(params)
	if err != nil {
		return "", fmt.Errorf("stripe account: %w", err)
	}
	return acct.ID, nil
}

func (g *StripeGateway) CreateOnboardingLink(
	ctx context.Context,
	accountID string,
	refreshURL string,
	returnURL string,
) (string, error) {

	if strings.TrimSpace(g.secretKey) == "" {
		return "", ErrNotConfigured
	}
	stripe.Key = g.secretKey

	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	}
	params.Context = ctx

	link, err := g.newAccountLink(params)
	if err != nil {
		return "", fmt.Errorf("stripe account link: %w", err)
	}
	return link.URL, nil
}
