package booking

import (
	"context"
	"strings"

	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/validators"
)

type GetProfile struct {
	repo domain.Repository
}

func NewGetProfile(repo domain.Repository) *GetProfile {
	return &GetProfile{repo: repo}
}

func (uc *GetProfile) Execute(ctx context.Context, actor access.Actor) (*models.CustomerProfile, error) {
	if err := actor.Authenticated(); err != nil {
		return nil, err
	}
	return uc.repo.GetOrCreateCustomer(ctx, actor.UserID, placeholderName, placeholderEmail(actor.UserID))
}

type UpdateProfileInput struct {
	Name  string
	Email string
}

type UpdateProfile struct {
	repo        domain.Repository
	checkDomain func(ctx context.Context, email string) bool
}

func NewUpdateProfile(repo domain.Repository) *UpdateProfile {
	return &UpdateProfile{
		repo:        repo,
		checkDomain: validators.IsEmailDomainValid,
	}
}

func (uc *UpdateProfile) Execute(
	ctx context.Context,
	actor access.Actor,
	in UpdateProfileInput,
) (*models.CustomerProfile, error) {

	if err := actor.Authenticated(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" || len(name) > 100 {
		return nil, httperr.ErrInvalid("invalid_name")
	}
	if !validators.IsEmailFormatValid(email) {
		return nil, httperr.ErrInvalid("invalid_email")
	}
	if uc.checkDomain != nil && !uc.checkDomain(ctx, email) {
		return nil, httperr.ErrInvalid("invalid_email_domain")
	}

	p, err := uc.repo.GetOrCreateCustomer(ctx, actor.UserID, name, email)
	if err != nil {
		return nil, err
	}

	p.Name = name
	p.Email = email
	if err := uc.repo.UpdateCustomer(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
