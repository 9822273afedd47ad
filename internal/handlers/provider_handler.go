package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	ucProvider "github.com/BruksfildServices01/barber-booking/internal/usecase/provider"
)

type ProviderHandler struct {
	create      *ucProvider.CreateProvider
	update      *ucProvider.UpdateProvider
	list        *ucProvider.ListProviders
	get         *ucProvider.GetProvider
	uploadImage *ucProvider.UploadImage
	connect     *ucProvider.ConnectPaymentAccount
}

func NewProviderHandler(
	create *ucProvider.CreateProvider,
	update *ucProvider.UpdateProvider,
	list *ucProvider.ListProviders,
	get *ucProvider.GetProvider,
	uploadImage *ucProvider.UploadImage,
	connect *ucProvider.ConnectPaymentAccount,
) *ProviderHandler {
	return &ProviderHandler{
		create:      create,
		update:      update,
		list:        list,
		get:         get,
		uploadImage: uploadImage,
		connect:     connect,
	}
}

func (h *ProviderHandler) List(c *gin.Context) {
	providers, err := h.list.Execute(c.Request.Context())
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, providers)
}

func (h *ProviderHandler) Get(c *gin.Context) {
	provider, err := h.get.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, provider)
}

func (h *ProviderHandler) Create(c *gin.Context) {
	var req ucProvider.CreateProviderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	provider, err := h.create.Execute(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.Created(c, provider)
}

func (h *ProviderHandler) Update(c *gin.Context) {
	var req ucProvider.UpdateProviderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	provider, err := h.update.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, provider)
}

// UploadImage expects a multipart form with the file under "image".
func (h *ProviderHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		httperr.BadRequest(c, "image_required", "Multipart field image is required.")
		return
	}

	file, err := header.Open()
	if err != nil {
		httperr.BadRequest(c, "invalid_image", "Could not read the uploaded image.")
		return
	}
	defer file.Close()

	provider, err := h.uploadImage.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), file)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, provider)
}

// ConnectPaymentAccount accepts an empty body.
func (h *ProviderHandler) ConnectPaymentAccount(c *gin.Context) {
	var req ucProvider.ConnectAccountInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.BadRequest(c, "invalid_request", "Invalid request body.")
			return
		}
	}

	result, err := h.connect.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, result)
}
