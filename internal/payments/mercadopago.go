package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"go.uber.org/zap"
)

type preferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentGetter interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

type MercadoPagoGateway struct {
	webhookKey      string
	notificationURL string
	log             *zap.Logger

	preferences preferenceCreator
	payments    paymentGetter
}

func NewMercadoPagoGateway(
	accessToken string,
	webhookKey string,
	notificationURL string,
	log *zap.Logger,
) (*MercadoPagoGateway, error) {

	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrNotConfigured
	}

	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}

	return &MercadoPagoGateway{
		webhookKey:      webhookKey,
		notificationURL: notificationURL,
		log:             log,
		preferences:     preference.NewClient(cfg),
		payments:        payment.NewClient(cfg),
	}, nil
}

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

// ======================================================
// CHECKOUT
// ======================================================

func (g *MercadoPagoGateway) CreateCheckout(
	ctx context.Context,
	req CheckoutRequest,
) (*CheckoutSession, error) {

	fee := ApplicationFee(req.Amount, req.FeePercent)

	// Preference metadata keys come back snake_cased.
	res, err := g.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{
			{
				ID:         req.SlotID,
				Title:      req.Title,
				Quantity:   1,
				UnitPrice:  minorToMajor(req.Amount),
				CurrencyID: strings.ToUpper(req.Currency),
			},
		},
		ExternalReference: req.BookingID,
		Metadata: map[string]any{
			"booking_id":  req.BookingID,
			"slot_id":     req.SlotID,
			"provider_id": req.ProviderID,
			"customer_id": req.CustomerID,
		},
		MarketplaceFee:  minorToMajor(fee),
		NotificationURL: g.notificationURL,
		BackURLs: &preference.BackURLsRequest{
			Success: req.SuccessURL,
			Failure: req.CancelURL,
			Pending: req.SuccessURL,
		},
		AutoReturn: "approved",
	})
	if err != nil {
		return nil, fmt.Errorf("mercadopago preference: %w", err)
	}

	return &CheckoutSession{
		Provider:  g.Name(),
		Reference: res.ID,
		URL:       res.InitPoint,
	}, nil
}

func minorToMajor(v int64) float64 {
	return float64(v) / 100
}

// ======================================================
// WEBHOOK
// ======================================================

type mpNotification struct {
	ID     json.Number `json:"id"`
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (g *MercadoPagoGateway) ParseWebhook(
	ctx context.Context,
	req WebhookRequest,
) (*Event, error) {

	var n mpNotification
	if err := json.Unmarshal(req.Body, &n); err != nil {
		return nil, fmt.Errorf("%w: mercadopago notification: %v", ErrInvalidPayload, err)
	}

	dataID := req.Query.Get("data.id")
	if dataID == "" {
		dataID = n.Data.ID
	}

	if err := verifyMercadoPagoSignature(
		g.webhookKey,
		req.Header.Get("x-signature"),
		req.Header.Get("x-request-id"),
		dataID,
	); err != nil {
		return nil, err
	}

	out := &Event{
		ID:       "mp:" + n.ID.String(),
		Provider: g.Name(),
		Type:     n.Type,
	}
	if n.Type != "payment" || dataID == "" {
		return out, nil
	}

	paymentID, err := strconv.Atoi(dataID)
	if err != nil {
		return nil, fmt.Errorf("%w: mercadopago payment id %q", ErrInvalidPayload, dataID)
	}

	p, err := g.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("mercadopago payment lookup: %w", err)
	}

	// A payment moves through several statuses under one notification id.
	out.ID = fmt.Sprintf("mp:payment:%d:%s", p.ID, p.Status)
	out.Outcome = mercadoPagoOutcome(p.Status)
	out.BookingID = p.ExternalReference
	out.SlotID = metadataString(p.Metadata, "slot_id")
	out.ProviderID = metadataString(p.Metadata, "provider_id")
	out.ExternalReference = p.ExternalReference
	out.ReceiptReference = strconv.Itoa(p.ID)

	return out, nil
}

func mercadoPagoOutcome(status string) string {
	switch status {
	case "approved":
		return OutcomeSucceeded
	case "rejected", "cancelled":
		return OutcomeFailed
	case "refunded", "charged_back":
		return OutcomeRefunded
	}
	return ""
}

func metadataString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// verifyMercadoPagoSignature checks the x-signature header ("ts=...,v1=...")
// against HMAC-SHA256 of "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func verifyMercadoPagoSignature(secret, header, requestID, dataID string) error {
	if strings.TrimSpace(secret) == "" {
		return ErrNotConfigured
	}

	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "v1":
			v1 = v
		}
	}
	if ts == "" || v1 == "" {
		return ErrInvalidSignature
	}

	expected := MercadoPagoSignature(secret, dataID, requestID, ts)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return ErrInvalidSignature
	}
	return nil
}

func MercadoPagoSignature(secret, dataID, requestID, ts string) string {
	var manifest strings.Builder
	if dataID != "" {
		manifest.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		manifest.WriteString("request-id:" + requestID + ";")
	}
	manifest.WriteString("ts:" + ts + ";")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest.String()))
	return hex.EncodeToString(mac.Sum(nil))
}
