package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking/internal/handlers"
	"github.com/BruksfildServices01/barber-booking/internal/infra/cache"
	infraRepo "github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/payments"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
	ucAvailability "github.com/BruksfildServices01/barber-booking/internal/usecase/availability"
	ucBooking "github.com/BruksfildServices01/barber-booking/internal/usecase/booking"
	ucHousekeeping "github.com/BruksfildServices01/barber-booking/internal/usecase/housekeeping"
	ucProvider "github.com/BruksfildServices01/barber-booking/internal/usecase/provider"
)

// Deps are the singletons built by main. Gateway, Onboarder, Images and Ping
// may be nil.
type Deps struct {
	Store       infraRepo.Store
	Audit       *audit.Dispatcher
	AuditReader handlers.AuditReader
	Metrics     *metrics.BookingMetrics
	Gatherer    prometheus.Gatherer
	Gateway     payments.Gateway
	Onboarder   payments.AccountOnboarder
	Webhooks    []payments.WebhookParser
	Processed   cache.ProcessedStore
	Images      ucProvider.ImageStore
	Ping        func(ctx context.Context) error
	Log         *zap.Logger
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins()))

	store := deps.Store
	log := deps.Log
	if deps.Processed == nil {
		deps.Processed = cache.NewMemoryProcessedStore(0)
	}

	// ======================================================
	// USE CASES: PROVIDERS
	// ======================================================
	getProviderUC := ucProvider.NewGetProvider(store)
	createProviderUC := ucProvider.NewCreateProvider(store, deps.Audit, ucProvider.Defaults{
		Timezone:        cfg.DefaultTimezone,
		SlotDurationMin: cfg.SlotDurationMin,
		DefaultPrice:    cfg.DefaultPriceMinor,
		Currency:        cfg.Currency,
	})
	updateProviderUC := ucProvider.NewUpdateProvider(store, deps.Audit)
	listProvidersUC := ucProvider.NewListProviders(store)
	uploadImageUC := ucProvider.NewUploadImage(store, deps.Images, deps.Audit)
	syncAccountUC := ucProvider.NewSyncPaymentAccount(store, deps.Audit)
	connectAccountUC := ucProvider.NewConnectPaymentAccount(store, deps.Onboarder, deps.Audit, log, cfg.PublicAppURL, cfg.PaymentAccountCountry)

	// ======================================================
	// USE CASES: AVAILABILITY
	// ======================================================
	generateSlotsUC := ucAvailability.NewGenerateSlots(store, deps.Metrics, log)
	listSlotsUC := ucAvailability.NewListSlots(generateSlotsUC)
	listTemplatesUC := ucAvailability.NewListTemplates(store)
	saveTemplateUC := ucAvailability.NewSaveTemplate(store, deps.Audit, log)
	seedDefaultUC := ucAvailability.NewSeedDefaultSlots(generateSlotsUC, deps.Audit)
	setAvailabilityUC := ucAvailability.NewSetSlotAvailability(store, deps.Audit)

	// ======================================================
	// USE CASES: BOOKINGS
	// ======================================================
	claimUC := ucBooking.NewClaimSlot(store, deps.Audit, deps.Metrics, log)
	cancelUC := ucBooking.NewCancelBooking(store, deps.Audit, log)
	checkoutUC := ucBooking.NewCreateCheckout(store, deps.Gateway, deps.Audit, log, cfg.PublicAppURL)
	listBookingsUC := ucBooking.NewListCustomerBookings(store)
	applyOutcomeUC := ucBooking.NewApplyPaymentOutcome(store, deps.Audit, deps.Metrics, log)
	getProfileUC := ucBooking.NewGetProfile(store)
	updateProfileUC := ucBooking.NewUpdateProfile(store)

	// ======================================================
	// USE CASES: APPOINTMENTS / HOUSEKEEPING
	// ======================================================
	completeAppointmentUC := ucAppointment.NewCompleteAppointment(store, deps.Audit, log)
	listAppointmentsUC := ucAppointment.NewListProviderAppointments(store)

	reconcileUC := ucHousekeeping.NewReconcile(store, deps.Metrics, log)
	cleanupUC := ucHousekeeping.NewCleanup(store, deps.Metrics, log)
	expireUC := ucHousekeeping.NewExpirePending(store, deps.Audit, deps.Metrics, log)

	// ======================================================
	// HANDLERS
	// ======================================================
	healthHandler := handlers.NewHealthHandler(deps.Ping)
	providerHandler := handlers.NewProviderHandler(
		createProviderUC,
		updateProviderUC,
		listProvidersUC,
		getProviderUC,
		uploadImageUC,
		connectAccountUC,
	)
	availabilityHandler := handlers.NewAvailabilityHandler(
		getProviderUC,
		listSlotsUC,
		listTemplatesUC,
		saveTemplateUC,
		seedDefaultUC,
		setAvailabilityUC,
	)
	bookingHandler := handlers.NewBookingHandler(claimUC, cancelUC, checkoutUC, listBookingsUC)
	meHandler := handlers.NewMeHandler(getProfileUC, updateProfileUC)
	appointmentHandler := handlers.NewAppointmentHandler(completeAppointmentUC, listAppointmentsUC)
	webhookHandler := handlers.NewWebhookHandler(deps.Processed, applyOutcomeUC, syncAccountUC, log, deps.Webhooks...)
	housekeepingHandler := handlers.NewHousekeepingHandler(
		reconcileUC,
		cleanupUC,
		expireUC,
		cfg.CleanupRetentionDays,
		cfg.ReservationTTL(),
	)

	claimLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, log)

	// ======================================================
	// INFRA ENDPOINTS
	// ======================================================
	r.GET("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		public := api.Group("/")
		public.Use(middleware.OptionalAuthMiddleware(cfg.JWTSecret))
		{
			public.GET("/providers", providerHandler.List)
			public.GET("/providers/:id", providerHandler.Get)
			public.GET("/providers/:id/slots", availabilityHandler.ListSlots)
			public.GET("/providers/:id/templates", availabilityHandler.ListTemplates)
		}

		// ------------------------------
		// WEBHOOKS (signature checked per processor)
		// ------------------------------
		api.POST("/webhooks/stripe", webhookHandler.Receive("stripe"))
		api.POST("/webhooks/mercadopago", webhookHandler.Receive("mercadopago"))

		// ------------------------------
		// AUTHENTICATED
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		{
			secured.GET("/me/profile", meHandler.GetProfile)
			secured.PUT("/me/profile", meHandler.UpdateProfile)
			secured.GET("/me/bookings", bookingHandler.ListMine)

			// ------------------------------
			// BOOKINGS
			// ------------------------------
			secured.POST("/bookings", claimLimiter.Handler(), bookingHandler.Claim)
			secured.POST("/bookings/:id/checkout", bookingHandler.Checkout)
			secured.POST("/bookings/:id/cancel", bookingHandler.Cancel)

			// ------------------------------
			// PROVIDER SETTINGS
			// ------------------------------
			secured.PUT("/providers/:id", providerHandler.Update)
			secured.POST("/providers/:id/image", providerHandler.UploadImage)
			secured.POST("/providers/:id/payment-account", providerHandler.ConnectPaymentAccount)
			secured.PUT("/providers/:id/templates", availabilityHandler.SaveWeek)
			secured.PUT("/providers/:id/templates/:weekday", availabilityHandler.SaveTemplate)
			secured.POST("/providers/:id/slots/seed", availabilityHandler.SeedDefault)
			secured.PATCH("/slots/:id/availability", availabilityHandler.SetSlotAvailability)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.GET("/providers/:id/appointments", appointmentHandler.List)
			secured.POST("/appointments/:id/complete", appointmentHandler.Complete)
		}

		// ------------------------------
		// ADMIN
		// ------------------------------
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg.JWTSecret), middleware.RequireRole(access.RoleAdmin))
		{
			admin.POST("/providers", providerHandler.Create)
			if deps.AuditReader != nil {
				admin.GET("/audit-logs", handlers.NewAuditLogsHandler(deps.AuditReader).List)
			}
		}

		// ------------------------------
		// HOUSEKEEPING (scheduler key or admin)
		// ------------------------------
		housekeeping := api.Group("/housekeeping")
		housekeeping.Use(middleware.HousekeepingAuth(cfg.JWTSecret, cfg.HousekeepingKeyHash))
		{
			housekeeping.POST("/reconcile", housekeepingHandler.Reconcile)
			housekeeping.POST("/cleanup", housekeepingHandler.Cleanup)
			housekeeping.POST("/expire", housekeepingHandler.Expire)
		}
	}
}
