package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	"github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
)

const jwtSecret = "routes-secret"

type app struct {
	t      *testing.T
	engine *gin.Engine
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)
	cfg.JWTSecret = jwtSecret
	cfg.CORSOrigins = ""

	hash, err := bcrypt.GenerateFromPassword([]byte("sweep-key"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg.HousekeepingKeyHash = string(hash)

	reg := prometheus.NewRegistry()
	auditLog := audit.NewMemoryLog()
	dispatcher := audit.NewDispatcher(nil, auditLog)
	t.Cleanup(dispatcher.Close)

	r := gin.New()
	RegisterRoutes(r, cfg, Deps{
		Store:       repository.NewMemoryRepository(),
		Audit:       dispatcher,
		AuditReader: auditLog,
		Metrics:     metrics.NewBookingMetrics(reg),
		Gatherer:    reg,
	})
	return &app{t: t, engine: r}
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return s
}

func (a *app) call(method, path, bearer string, body any, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func nextMonday() string {
	d := time.Now().UTC().AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func TestBookingFlowOverHTTP(t *testing.T) {
	a := newApp(t)
	admin := token(t, "u-admin", "admin")
	owner := token(t, "u-owner", "barber")
	alice := token(t, "u-alice", "customer")
	bob := token(t, "u-bob", "user")

	// provider + template
	w, body := a.call(http.MethodPost, "/api/admin/providers", admin, map[string]any{
		"user_id": "u-owner",
		"name":    "Downtown Cuts",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	providerID := body["id"].(string)

	w, _ = a.call(http.MethodPost, "/api/admin/providers", owner, map[string]any{"user_id": "u-x", "name": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = a.call(http.MethodPut, "/api/providers/"+providerID+"/templates/mon", owner, map[string]any{
		"start_times": []int{600, 630},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = a.call(http.MethodPut, "/api/providers/"+providerID+"/templates/mon", bob, map[string]any{
		"start_times": []int{600},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// slots are generated on first read
	monday := nextMonday()
	w, body = a.call(http.MethodGet, "/api/providers/"+providerID+"/slots?date="+monday, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	available := body["available"].([]any)
	require.Len(t, available, 2)
	slotID := available[0].(map[string]any)["id"].(string)

	// claims
	w, _ = a.call(http.MethodPost, "/api/bookings", "", map[string]any{"slot_id": slotID})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body = a.call(http.MethodPost, "/api/bookings", alice, map[string]any{"slot_id": slotID, "service_name": "Haircut"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookingID := body["booking"].(map[string]any)["id"].(string)

	w, body = a.call(http.MethodPost, "/api/bookings", bob, map[string]any{"slot_id": slotID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "slot_already_booked", body["error_code"])
	assert.Equal(t, "This slot was just booked, please choose another.", body["message"])

	w, body = a.call(http.MethodGet, "/api/providers/"+providerID+"/slots?date="+monday, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["booked"].([]any), 1)

	w, body = a.call(http.MethodGet, "/api/me/bookings", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])

	w, body = a.call(http.MethodGet, "/api/providers/"+providerID+"/appointments", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])

	// checkout needs a payout account
	w, body = a.call(http.MethodPost, "/api/bookings/"+bookingID+"/checkout", alice, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "provider_payments_disabled", body["error_code"])

	// onboarding is owner only and needs a processor
	w, _ = a.call(http.MethodPost, "/api/providers/"+providerID+"/payment-account", bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = a.call(http.MethodPost, "/api/providers/"+providerID+"/payment-account", owner, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "payment_unavailable", body["error_code"])

	// cancel frees the slot for bob
	w, _ = a.call(http.MethodPost, "/api/bookings/"+bookingID+"/cancel", bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = a.call(http.MethodPost, "/api/bookings/"+bookingID+"/cancel", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["released"])

	w, _ = a.call(http.MethodPost, "/api/bookings", bob, map[string]any{"slot_id": slotID})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestSlotDateAcceptsEpochMillis(t *testing.T) {
	a := newApp(t)
	admin := token(t, "u-admin", "admin")

	_, body := a.call(http.MethodPost, "/api/admin/providers", admin, map[string]any{"user_id": "u-owner", "name": "Cuts", "timezone": "UTC"})
	providerID := body["id"].(string)

	noon := time.Date(2031, 3, 10, 12, 0, 0, 0, time.UTC).UnixMilli()
	w, body := a.call(http.MethodGet, "/api/providers/"+providerID+"/slots?date="+jsonNumber(noon), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2031-03-10", body["date"])
	assert.Equal(t, "no_template", body["status"])

	w, body = a.call(http.MethodGet, "/api/providers/"+providerID+"/slots?date=tomorrow", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_date", body["error_code"])
}

func jsonNumber(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestHousekeepingRequiresKeyOrAdmin(t *testing.T) {
	a := newApp(t)

	w, _ := a.call(http.MethodPost, "/api/housekeeping/reconcile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.call(http.MethodPost, "/api/housekeeping/reconcile", token(t, "u-c", "customer"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := a.call(http.MethodPost, "/api/housekeeping/reconcile", "", nil, "X-Housekeeping-Key", "sweep-key")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(0), body["corrected"])

	w, body = a.call(http.MethodPost, "/api/housekeeping/cleanup?retention_days=7", token(t, "u-admin", "admin"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(0), body["deleted"])

	w, _ = a.call(http.MethodPost, "/api/housekeeping/cleanup?retention_days=-1", "", nil, "X-Housekeeping-Key", "sweep-key")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = a.call(http.MethodPost, "/api/housekeeping/expire", "", nil, "X-Housekeeping-Key", "sweep-key")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInfraEndpoints(t *testing.T) {
	a := newApp(t)

	w, body := a.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, _ = a.call(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = a.call(http.MethodGet, "/api/admin/audit-logs", token(t, "u-c", "customer"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = a.call(http.MethodGet, "/api/admin/audit-logs?limit=500", token(t, "u-admin", "admin"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(50), body["limit"])

	w, _ = a.call(http.MethodPost, "/api/webhooks/stripe", "", map[string]any{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
