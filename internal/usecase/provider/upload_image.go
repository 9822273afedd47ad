package provider

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/provider"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/media"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type UploadImage struct {
	repo  domain.Repository
	store ImageStore
	audit *audit.Dispatcher
}

func NewUploadImage(
	repo domain.Repository,
	store ImageStore,
	audit *audit.Dispatcher,
) *UploadImage {
	return &UploadImage{
		repo:  repo,
		store: store,
		audit: audit,
	}
}

func (uc *UploadImage) Execute(
	ctx context.Context,
	actor access.Actor,
	providerID string,
	upload io.Reader,
) (*models.Provider, error) {

	p, err := uc.repo.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireProvider(p.UserID); err != nil {
		return nil, err
	}
	if uc.store == nil {
		return nil, httperr.ErrUpstream("storage_unavailable", media.ErrStorageDisabled)
	}

	data, err := media.ToWebP(upload, media.ProfileImageSide)
	if err != nil {
		if errors.Is(err, media.ErrImageTooLarge) {
			return nil, httperr.ErrInvalid("image_too_large")
		}
		return nil, httperr.ErrInvalid("invalid_image")
	}

	url, err := uc.store.Put(ctx, "providers/"+p.ID+"/"+uuid.NewString()+".webp", data, "image/webp")
	if err != nil {
		return nil, httperr.ErrUpstream("storage_unavailable", err)
	}

	p.ImageURL = url
	if err := uc.repo.UpdateProvider(ctx, p); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: p.ID,
		ActorID:    actor.UserID,
		Action:     "provider_image_uploaded",
		Entity:     "provider",
		EntityID:   p.ID,
	})

	return p, nil
}
