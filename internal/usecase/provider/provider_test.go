package provider

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/infra/repository"
)

var (
	admin    = access.Actor{UserID: "u-admin", Role: access.RoleAdmin}
	owner    = access.Actor{UserID: "u-owner", Role: access.RoleProvider}
	stranger = access.Actor{UserID: "u-x", Role: access.RoleProvider}
	customer = access.Actor{UserID: "u-c", Role: access.RoleCustomer}

	defaults = Defaults{Timezone: "America/Sao_Paulo", SlotDurationMin: 30, DefaultPrice: 2500, Currency: "brl"}
)

func create(t *testing.T, repo *repository.MemoryRepository) string {
	t.Helper()
	p, err := NewCreateProvider(repo, nil, defaults).Execute(context.Background(), admin, CreateProviderInput{
		UserID: owner.UserID,
		Name:   "Barber Joe",
	})
	require.NoError(t, err)
	return p.ID
}

func TestCreateProviderAppliesDefaults(t *testing.T) {
	repo := repository.NewMemoryRepository()
	id := create(t, repo)

	p, err := repo.GetProvider(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", p.Timezone)
	assert.Equal(t, 30, p.SlotDurationMin)
	assert.Equal(t, int64(2500), p.DefaultPrice)
	assert.Equal(t, "BRL", p.Currency)
	assert.Equal(t, AccountNone, p.PaymentAccountStatus)
	assert.True(t, p.Active)
}

func TestCreateProviderRules(t *testing.T) {
	repo := repository.NewMemoryRepository()
	uc := NewCreateProvider(repo, nil, defaults)
	ctx := context.Background()

	_, err := uc.Execute(ctx, owner, CreateProviderInput{UserID: "u1", Name: "X"})
	assert.True(t, httperr.IsBusiness(err, "admin_only"))

	_, err = uc.Execute(ctx, admin, CreateProviderInput{Name: "X"})
	assert.True(t, httperr.IsBusiness(err, "user_required"))

	_, err = uc.Execute(ctx, admin, CreateProviderInput{UserID: "u1", Name: "X", Timezone: "Mars/Olympus"})
	assert.True(t, httperr.IsBusiness(err, "invalid_timezone"))

	_, err = uc.Execute(ctx, admin, CreateProviderInput{UserID: "u1", Name: "X", SlotDurationMin: 1})
	assert.True(t, httperr.IsBusiness(err, "invalid_slot_duration"))

	create(t, repo)
	_, err = uc.Execute(ctx, admin, CreateProviderInput{UserID: owner.UserID, Name: "Again"})
	assert.True(t, httperr.IsBusiness(err, "provider_exists"))
}

func TestUpdateProviderPartial(t *testing.T) {
	repo := repository.NewMemoryRepository()
	id := create(t, repo)
	uc := NewUpdateProvider(repo, nil)
	ctx := context.Background()

	price := int64(4000)
	acct := "acct_9"
	p, err := uc.Execute(ctx, owner, id, UpdateProviderInput{DefaultPrice: &price, PaymentAccountID: &acct})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), p.DefaultPrice)
	assert.Equal(t, "Barber Joe", p.Name)
	assert.Equal(t, AccountPending, p.PaymentAccountStatus)

	_, err = uc.Execute(ctx, stranger, id, UpdateProviderInput{DefaultPrice: &price})
	assert.True(t, httperr.IsBusiness(err, "not_provider_owner"))

	bad := "usd1"
	_, err = uc.Execute(ctx, admin, id, UpdateProviderInput{Currency: &bad})
	assert.True(t, httperr.IsBusiness(err, "invalid_currency"))
}

func TestInactiveProviderHiddenFromPublic(t *testing.T) {
	repo := repository.NewMemoryRepository()
	id := create(t, repo)
	ctx := context.Background()

	off := false
	_, err := NewUpdateProvider(repo, nil).Execute(ctx, owner, id, UpdateProviderInput{Active: &off})
	require.NoError(t, err)

	list, err := NewListProviders(repo).Execute(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = NewGetProvider(repo).Execute(ctx, customer, id)
	assert.True(t, httperr.IsKind(err, httperr.KindNotFound))

	p, err := NewGetProvider(repo).Execute(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
}

func TestSyncPaymentAccount(t *testing.T) {
	repo := repository.NewMemoryRepository()
	id := create(t, repo)
	ctx := context.Background()

	acct := "acct_9"
	_, err := NewUpdateProvider(repo, nil).Execute(ctx, owner, id, UpdateProviderInput{PaymentAccountID: &acct})
	require.NoError(t, err)

	p, err := NewSyncPaymentAccount(repo, nil).Execute(ctx, "acct_9", "active")
	require.NoError(t, err)
	assert.Equal(t, "active", p.PaymentAccountStatus)

	_, err = NewSyncPaymentAccount(repo, nil).Execute(ctx, "acct_unknown", "active")
	assert.True(t, httperr.IsKind(err, httperr.KindNotFound))
}

type memStore struct {
	key  string
	data []byte
	err  error
}

func (s *memStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.key, s.data = key, data
	if s.err != nil {
		return "", s.err
	}
	return "https://cdn.test/" + key, nil
}

func TestUploadImage(t *testing.T) {
	repo := repository.NewMemoryRepository()
	id := create(t, repo)
	store := &memStore{}
	uc := NewUploadImage(repo, store, nil)
	ctx := context.Background()

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 40, 40))))

	p, err := uc.Execute(ctx, owner, id, &img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(store.key, "providers/"+id+"/"))
	assert.True(t, strings.HasSuffix(p.ImageURL, ".webp"))
	assert.NotEmpty(t, store.data)

	_, err = uc.Execute(ctx, owner, id, strings.NewReader("nope"))
	assert.True(t, httperr.IsBusiness(err, "invalid_image"))

	store.err = errors.New("denied")
	var img2 bytes.Buffer
	require.NoError(t, png.Encode(&img2, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	_, err = uc.Execute(ctx, owner, id, &img2)
	assert.True(t, httperr.IsBusiness(err, "storage_unavailable"))

	_, err = NewUploadImage(repo, nil, nil).Execute(ctx, owner, id, &img2)
	assert.True(t, httperr.IsBusiness(err, "storage_unavailable"))
}
