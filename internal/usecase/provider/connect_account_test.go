package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/payments"
)

type fakeOnboarder struct {
	created   []payments.AccountRequest
	linkedFor []string
	returnURL string
	createErr error
}

func (f *fakeOnboarder) CreateAccount(_ context.Context, req payments.AccountRequest) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, req)
	return "acct_new", nil
}

func (f *fakeOnboarder) CreateOnboardingLink(_ context.Context, accountID, _, returnURL string) (string, error) {
	f.linkedFor = append(f.linkedFor, accountID)
	f.returnURL = returnURL
	return "https://connect.test/" + accountID, nil
}

func TestConnectPaymentAccountCreatesOnce(t *testing.T) {
	repo := repository.NewMemoryRepository()
	id := create(t, repo)
	ob := &fakeOnboarder{}
	uc := NewConnectPaymentAccount(repo, ob, nil, nil, "https://app.test/", "BR")
	ctx := context.Background()

	res, err := uc.Execute(ctx, owner, id, ConnectAccountInput{Email: "Joe@Barber.test"})
	require.NoError(t, err)
	assert.False(t, res.AlreadyExisted)
	assert.Equal(t, "acct_new", res.AccountID)
	assert.Equal(t, AccountPending, res.AccountStatus)
	assert.Equal(t, "https://connect.test/acct_new", res.OnboardingURL)
	assert.Equal(t, "https://app.test/providers/"+id+"/payments?success=true", ob.returnURL)

	require.Len(t, ob.created, 1)
	assert.Equal(t, "joe@barber.test", ob.created[0].Email)
	assert.Equal(t, "BR", ob.created[0].Country)
	assert.Equal(t, "Barber Joe", ob.created[0].Name)

	p, err := repo.GetProvider(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "acct_new", p.PaymentAccountID)

	// A second call only issues a new link.
	res, err = uc.Execute(ctx, admin, id, ConnectAccountInput{})
	require.NoError(t, err)
	assert.True(t, res.AlreadyExisted)
	assert.Len(t, ob.created, 1)
	assert.Equal(t, []string{"acct_new", "acct_new"}, ob.linkedFor)
}

func TestConnectPaymentAccountRules(t *testing.T) {
	repo := repository.NewMemoryRepository()
	id := create(t, repo)
	ctx := context.Background()

	uc := NewConnectPaymentAccount(repo, &fakeOnboarder{}, nil, nil, "", "BR")
	_, err := uc.Execute(ctx, stranger, id, ConnectAccountInput{})
	assert.True(t, httperr.IsBusiness(err, "not_provider_owner"))

	_, err = uc.Execute(ctx, owner, id, ConnectAccountInput{Email: "nope"})
	assert.True(t, httperr.IsBusiness(err, "invalid_email"))

	_, err = NewConnectPaymentAccount(repo, nil, nil, nil, "", "BR").Execute(ctx, owner, id, ConnectAccountInput{})
	assert.True(t, httperr.IsBusiness(err, "payment_unavailable"))

	failing := &fakeOnboarder{createErr: errors.New("stripe down")}
	_, err = NewConnectPaymentAccount(repo, failing, nil, nil, "", "BR").Execute(ctx, owner, id, ConnectAccountInput{})
	assert.True(t, httperr.IsKind(err, httperr.KindUpstream))

	p, err := repo.GetProvider(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, p.PaymentAccountID)
}

func TestAccountStatusOverrideIsAdminOnly(t *testing.T) {
	repo := repository.NewMemoryRepository()
	id := create(t, repo)
	uc := NewUpdateProvider(repo, nil)
	ctx := context.Background()

	active := payments.AccountActive
	_, err := uc.Execute(ctx, admin, id, UpdateProviderInput{PaymentAccountStatus: &active})
	assert.True(t, httperr.IsBusiness(err, "payment_account_missing"))

	acct := "collector-77"
	_, err = uc.Execute(ctx, owner, id, UpdateProviderInput{PaymentAccountID: &acct, PaymentAccountStatus: &active})
	assert.True(t, httperr.IsKind(err, httperr.KindForbidden))

	_, err = uc.Execute(ctx, owner, id, UpdateProviderInput{PaymentAccountID: &acct})
	require.NoError(t, err)

	bogus := "great"
	_, err = uc.Execute(ctx, admin, id, UpdateProviderInput{PaymentAccountStatus: &bogus})
	assert.True(t, httperr.IsBusiness(err, "invalid_account_status"))

	p, err := uc.Execute(ctx, admin, id, UpdateProviderInput{PaymentAccountStatus: &active})
	require.NoError(t, err)
	assert.Equal(t, payments.AccountActive, p.PaymentAccountStatus)
}
