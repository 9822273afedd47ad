package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/payments"
)

var (
	fixedNow = time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	owner    = access.Actor{UserID: "u-owner", Role: access.RoleProvider}
	alice    = access.Actor{UserID: "u-alice-123456", Role: access.RoleCustomer}
	bob      = access.Actor{UserID: "u-bob", Role: access.RoleCustomer}
	admin    = access.Actor{UserID: "u-admin", Role: access.RoleAdmin}
)

type fixture struct {
	repo    *repository.MemoryRepository
	claim   *ClaimSlot
	outcome *ApplyPaymentOutcome
	cancel  *CancelBooking
}

func setup(t *testing.T) *fixture {
	t.Helper()

	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.CreateProvider(context.Background(), &models.Provider{
		ID:                   "p1",
		UserID:               owner.UserID,
		Name:                 "Barber",
		Active:               true,
		Timezone:             "UTC",
		SlotDurationMin:      30,
		DefaultPrice:         2500,
		Currency:             "USD",
		PaymentAccountID:     "acct_1",
		PaymentAccountStatus: "active",
	}))
	repo.PutSlot(models.Slot{
		ID: "s1", ProviderID: "p1", Date: "2025-03-10",
		StartTime: 540, EndTime: 570, Weekday: 1,
		Available: true, Price: 3000,
	})

	clock := func() time.Time { return fixedNow }

	claim := NewClaimSlot(repo, nil, nil, nil)
	claim.now = clock
	outcome := NewApplyPaymentOutcome(repo, nil, nil, nil)
	outcome.now = clock
	cancel := NewCancelBooking(repo, nil, nil)
	cancel.now = clock

	return &fixture{repo: repo, claim: claim, outcome: outcome, cancel: cancel}
}

func (f *fixture) slot(t *testing.T, id string) *models.Slot {
	t.Helper()
	s, err := f.repo.GetSlot(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (f *fixture) booking(t *testing.T, id string) *models.Booking {
	t.Helper()
	b, err := f.repo.GetBooking(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) appointment(t *testing.T, id string) *models.Appointment {
	t.Helper()
	ap, err := f.repo.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	return ap
}

func (f *fixture) claimS1(t *testing.T) *ClaimResult {
	t.Helper()
	res, err := f.claim.Execute(context.Background(), alice, ClaimInput{SlotID: "s1", ServiceName: "Haircut"})
	require.NoError(t, err)
	return res
}

// ======================================================
// CLAIM
// ======================================================

func TestClaimCreatesLinkedPendingRecords(t *testing.T) {
	f := setup(t)

	res := f.claimS1(t)

	b := f.booking(t, res.Booking.ID)
	assert.Equal(t, "pending", b.Status)
	assert.Equal(t, "pending", b.PaymentStatus)
	assert.Equal(t, int64(3000), b.Amount)
	assert.Equal(t, "usd", b.Currency)

	ap := f.appointment(t, b.AppointmentID)
	assert.Equal(t, b.ID, ap.BookingID)
	assert.Equal(t, "pending", ap.Status)
	assert.Equal(t, []string{"Haircut"}, ap.Services)

	assert.True(t, f.slot(t, "s1").Booked)
	assert.Empty(t, res.Degraded)
}

func TestClaimCreatesPlaceholderProfile(t *testing.T) {
	f := setup(t)
	f.claimS1(t)

	p, err := f.repo.GetOrCreateCustomer(context.Background(), alice.UserID, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, "Guest User", p.Name)
	assert.Equal(t, "user-u-alice-@example.com", p.Email)
}

func TestClaimRejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.repo.PutSlot(models.Slot{ID: "withdrawn", ProviderID: "p1", Date: "2025-03-10", StartTime: 600, EndTime: 630})
	f.repo.PutSlot(models.Slot{ID: "past", ProviderID: "p1", Date: "2025-03-03", StartTime: 540, EndTime: 570, Available: true})

	_, err := f.claim.Execute(ctx, alice, ClaimInput{SlotID: "missing"})
	assert.True(t, httperr.IsBusiness(err, "slot_not_found"))

	_, err = f.claim.Execute(ctx, alice, ClaimInput{SlotID: "withdrawn"})
	assert.True(t, httperr.IsBusiness(err, "slot_unavailable"))

	_, err = f.claim.Execute(ctx, alice, ClaimInput{SlotID: "past"})
	assert.True(t, httperr.IsBusiness(err, "slot_in_past"))

	_, err = f.claim.Execute(ctx, alice, ClaimInput{})
	assert.True(t, httperr.IsBusiness(err, "slot_required"))

	_, err = f.claim.Execute(ctx, access.Actor{}, ClaimInput{SlotID: "s1"})
	assert.True(t, httperr.IsKind(err, httperr.KindForbidden))
}

func TestSecondClaimConflicts(t *testing.T) {
	f := setup(t)
	f.claimS1(t)

	_, err := f.claim.Execute(context.Background(), bob, ClaimInput{SlotID: "s1"})
	assert.True(t, httperr.IsBusiness(err, "slot_already_booked"))
}

func TestConcurrentClaimsExactlyOneWins(t *testing.T) {
	f := setup(t)

	const n = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)

	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			actor := access.Actor{UserID: fmt.Sprintf("u-%02d", i), Role: access.RoleCustomer}
			_, err := f.claim.Execute(context.Background(), actor, ClaimInput{SlotID: "s1"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case httperr.IsKind(err, httperr.KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)

	active, err := f.repo.ListActiveBookingsForSlots(context.Background(), []string{"s1"})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

// ======================================================
// PAYMENT OUTCOMES
// ======================================================

func TestPaymentSuccessConverges(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)

	// Drift: the booked flag got lost after the claim.
	s := *f.slot(t, "s1")
	s.Booked = false
	f.repo.PutSlot(s)

	out, err := f.outcome.Execute(context.Background(), PaymentOutcome{
		SlotID: "s1", ProviderID: "p1", Outcome: "succeeded",
		ExternalReference: "cs_1", ReceiptReference: "pi_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", out.Status)
	assert.Empty(t, out.Degraded)

	b := f.booking(t, res.Booking.ID)
	assert.Equal(t, "confirmed", b.Status)
	assert.Equal(t, "succeeded", b.PaymentStatus)
	assert.Equal(t, "cs_1", b.ExternalReference)
	assert.Equal(t, "pi_1", b.ReceiptReference)

	assert.True(t, f.slot(t, "s1").Booked)

	ap := f.appointment(t, b.AppointmentID)
	assert.Equal(t, "paid", ap.Status)
	assert.Equal(t, "pi_1", ap.PaymentRef)

	// Redelivery changes nothing.
	again, err := f.outcome.Execute(context.Background(), PaymentOutcome{SlotID: "s1", Outcome: "succeeded"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", again.Status)
	assert.Equal(t, "confirmed", f.booking(t, res.Booking.ID).Status)
}

func TestPaymentFailureReleasesSlotAndCancelsAppointment(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)

	out, err := f.outcome.Execute(context.Background(), PaymentOutcome{SlotID: "s1", Outcome: "failed"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)

	b := f.booking(t, res.Booking.ID)
	assert.Equal(t, "cancelled", b.Status)
	assert.Equal(t, "failed", b.PaymentStatus)
	assert.False(t, f.slot(t, "s1").Booked)
	assert.Equal(t, "cancelled", f.appointment(t, b.AppointmentID).Status)

	// The slot can be claimed again.
	_, err = f.claim.Execute(context.Background(), bob, ClaimInput{SlotID: "s1"})
	assert.NoError(t, err)
}

func TestFailureAfterSuccessIsIgnored(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)
	ctx := context.Background()

	_, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", Outcome: "succeeded"})
	require.NoError(t, err)

	out, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", Outcome: "failed"})
	require.NoError(t, err)
	assert.True(t, out.Ignored)
	assert.Equal(t, "failure_after_success", out.Reason)

	assert.Equal(t, "confirmed", f.booking(t, res.Booking.ID).Status)
	assert.True(t, f.slot(t, "s1").Booked)
}

func TestLateSuccessReclaimsFreeSlot(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)
	ctx := context.Background()

	_, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", Outcome: "failed"})
	require.NoError(t, err)

	out, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", Outcome: "succeeded"})
	require.NoError(t, err)
	assert.Empty(t, out.Inconsistent)

	assert.Equal(t, "confirmed", f.booking(t, res.Booking.ID).Status)
	assert.True(t, f.slot(t, "s1").Booked)
	assert.Equal(t, "paid", f.appointment(t, res.Appointment.ID).Status)
}

func TestLateSuccessOnRebookedSlotIsInconsistent(t *testing.T) {
	f := setup(t)
	first := f.claimS1(t)
	ctx := context.Background()

	_, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", Outcome: "failed"})
	require.NoError(t, err)

	second, err := f.claim.Execute(ctx, bob, ClaimInput{SlotID: "s1"})
	require.NoError(t, err)

	// The late success can only be matched by reference now.
	b := f.booking(t, first.Booking.ID)
	b.CheckoutReference = "cs_first"
	f.repo.PutBooking(*b)

	out, err := f.outcome.Execute(ctx, PaymentOutcome{ExternalReference: "cs_first", Outcome: "succeeded"})
	require.NoError(t, err)
	assert.Equal(t, "paid_after_release", out.Inconsistent)

	stale := f.booking(t, first.Booking.ID)
	assert.Equal(t, "cancelled", stale.Status)
	assert.Equal(t, "succeeded", stale.PaymentStatus)

	assert.Equal(t, "pending", f.booking(t, second.Booking.ID).Status)
	assert.True(t, f.slot(t, "s1").Booked)
}

func TestLateEventsForReleasedBookingSkipTheNextCustomer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.claimS1(t)
	b := f.booking(t, first.Booking.ID)
	b.CheckoutReference = "cs_alice"
	f.repo.PutBooking(*b)

	_, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", ExternalReference: "cs_alice", Outcome: "failed"})
	require.NoError(t, err)
	require.Equal(t, "cancelled", f.booking(t, first.Booking.ID).Status)

	second, err := f.claim.Execute(ctx, bob, ClaimInput{SlotID: "s1"})
	require.NoError(t, err)

	// redelivered failure
	out, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", ExternalReference: "cs_alice", Outcome: "failed"})
	require.NoError(t, err)
	assert.Equal(t, first.Booking.ID, out.BookingID)
	assert.Equal(t, "pending", f.booking(t, second.Booking.ID).Status)
	assert.True(t, f.slot(t, "s1").Booked)

	// late success
	out, err = f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", ExternalReference: "cs_alice", Outcome: "succeeded"})
	require.NoError(t, err)
	assert.Equal(t, first.Booking.ID, out.BookingID)
	assert.Equal(t, "paid_after_release", out.Inconsistent)

	bobs := f.booking(t, second.Booking.ID)
	assert.Equal(t, "pending", bobs.Status)
	assert.Equal(t, "pending", bobs.PaymentStatus)
	assert.True(t, f.slot(t, "s1").Booked)

	// the booking id alone is enough
	out, err = f.outcome.Execute(ctx, PaymentOutcome{BookingID: first.Booking.ID, SlotID: "s1", Outcome: "failed"})
	require.NoError(t, err)
	assert.Equal(t, first.Booking.ID, out.BookingID)
	assert.Equal(t, "pending", f.booking(t, second.Booking.ID).Status)
}

func TestSlotMatchWithForeignReferenceIsInconsistent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res := f.claimS1(t)
	b := f.booking(t, res.Booking.ID)
	b.CheckoutReference = "cs_alice"
	f.repo.PutBooking(*b)

	out, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", ExternalReference: "cs_someone_else", Outcome: "failed"})
	require.NoError(t, err)
	assert.Equal(t, "reference_mismatch", out.Inconsistent)
	assert.Equal(t, "pending", f.booking(t, res.Booking.ID).Status)
	assert.True(t, f.slot(t, "s1").Booked)

	out, err = f.outcome.Execute(ctx, PaymentOutcome{BookingID: res.Booking.ID, SlotID: "s2", Outcome: "failed"})
	require.NoError(t, err)
	assert.Equal(t, "slot_mismatch", out.Inconsistent)
	assert.Equal(t, "pending", f.booking(t, res.Booking.ID).Status)

	// Mercado Pago echoes the booking id as its reference.
	out, err = f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", ExternalReference: res.Booking.ID, Outcome: "succeeded"})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", out.Status)
}

func TestRefundReleasesSlot(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)
	ctx := context.Background()

	_, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", Outcome: "succeeded"})
	require.NoError(t, err)

	out, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", Outcome: "refunded"})
	require.NoError(t, err)
	assert.Equal(t, "refunded", out.Status)

	assert.False(t, f.slot(t, "s1").Booked)
	assert.Equal(t, "refunded", f.appointment(t, res.Appointment.ID).Status)

	// A success arriving after the refund stays ignored.
	late, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", Outcome: "succeeded"})
	require.NoError(t, err)
	assert.True(t, late.Ignored)
}

func TestOutcomeWithoutBookingIsReported(t *testing.T) {
	f := setup(t)

	out, err := f.outcome.Execute(context.Background(), PaymentOutcome{SlotID: "s1", Outcome: "succeeded"})
	require.NoError(t, err)
	assert.Equal(t, "booking_not_found", out.Inconsistent)
}

func TestOutcomeValidation(t *testing.T) {
	f := setup(t)
	f.claimS1(t)
	ctx := context.Background()

	_, err := f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", Outcome: "maybe"})
	assert.True(t, httperr.IsBusiness(err, "invalid_outcome"))

	_, err = f.outcome.Execute(ctx, PaymentOutcome{SlotID: "s1", ProviderID: "other", Outcome: "succeeded"})
	assert.True(t, httperr.IsBusiness(err, "provider_mismatch"))
}

// ======================================================
// CANCEL
// ======================================================

func TestCancelReleasesAndIsIdempotent(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)
	ctx := context.Background()

	out, err := f.cancel.Execute(ctx, alice, res.Booking.ID)
	require.NoError(t, err)
	assert.True(t, out.Released)
	assert.Equal(t, "cancelled", out.Booking.Status)
	assert.Equal(t, "cancelled", out.Booking.PaymentStatus)
	assert.False(t, f.slot(t, "s1").Booked)
	assert.Equal(t, "cancelled", f.appointment(t, res.Appointment.ID).Status)

	again, err := f.cancel.Execute(ctx, alice, res.Booking.ID)
	require.NoError(t, err)
	assert.False(t, again.Released)
	assert.Equal(t, "cancelled", again.Booking.Status)
}

func TestCancelAuthorization(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)
	ctx := context.Background()

	_, err := f.cancel.Execute(ctx, bob, res.Booking.ID)
	assert.True(t, httperr.IsBusiness(err, "not_booking_owner"))

	_, err = f.cancel.Execute(ctx, owner, res.Booking.ID)
	assert.NoError(t, err)

	_, err = f.cancel.Execute(ctx, admin, "missing")
	assert.True(t, httperr.IsBusiness(err, "booking_not_found"))
}

func TestCancelCompletedBookingIsRejected(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)

	b := f.booking(t, res.Booking.ID)
	b.Status = "completed"
	f.repo.PutBooking(*b)

	_, err := f.cancel.Execute(context.Background(), alice, res.Booking.ID)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
	assert.True(t, f.slot(t, "s1").Booked)
}

// ======================================================
// CHECKOUT
// ======================================================

type fakeGateway struct {
	got payments.CheckoutRequest
	err error
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreateCheckout(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	g.got = req
	if g.err != nil {
		return nil, g.err
	}
	return &payments.CheckoutSession{Provider: "fake", Reference: "cs_42", URL: "https://pay.test/cs_42"}, nil
}

func TestCheckoutMovesPaymentToProcessing(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)
	gw := &fakeGateway{}

	uc := NewCreateCheckout(f.repo, gw, nil, nil, "https://app.test/")
	sess, err := uc.Execute(context.Background(), alice, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.test/cs_42", sess.URL)

	assert.Equal(t, int64(3000), gw.got.Amount)
	assert.Equal(t, "acct_1", gw.got.DestinationAccount)
	assert.Equal(t, int64(payments.PlatformFeePercent), gw.got.FeePercent)
	assert.Equal(t, "s1", gw.got.Metadata()["slotId"])
	assert.Equal(t, "https://app.test/bookings/"+res.Booking.ID+"?checkout=success", gw.got.SuccessURL)
	assert.Empty(t, gw.got.CustomerEmail)

	b := f.booking(t, res.Booking.ID)
	assert.Equal(t, "processing", b.PaymentStatus)
	assert.Equal(t, "cs_42", b.CheckoutReference)

	// The reference alone finds the booking.
	out, err := f.outcome.Execute(context.Background(), PaymentOutcome{ExternalReference: "cs_42", Outcome: "succeeded"})
	require.NoError(t, err)
	assert.Equal(t, res.Booking.ID, out.BookingID)
}

func TestCheckoutFailures(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)
	ctx := context.Background()

	_, err := NewCreateCheckout(f.repo, &fakeGateway{}, nil, nil, "").Execute(ctx, bob, res.Booking.ID)
	assert.True(t, httperr.IsBusiness(err, "not_booking_owner"))

	_, err = NewCreateCheckout(f.repo, &fakeGateway{err: errors.New("down")}, nil, nil, "").Execute(ctx, alice, res.Booking.ID)
	assert.True(t, httperr.IsBusiness(err, "payment_unavailable"))
	assert.Equal(t, "pending", f.booking(t, res.Booking.ID).PaymentStatus)

	p, err := f.repo.GetProvider(ctx, "p1")
	require.NoError(t, err)
	p.PaymentAccountStatus = "restricted"
	require.NoError(t, f.repo.UpdateProvider(ctx, p))

	gw := &fakeGateway{}
	_, err = NewCreateCheckout(f.repo, gw, nil, nil, "").Execute(ctx, alice, res.Booking.ID)
	assert.True(t, httperr.IsBusiness(err, "payment_account_not_active"))
	assert.Empty(t, gw.got.BookingID)

	p.PaymentAccountID = ""
	require.NoError(t, f.repo.UpdateProvider(ctx, p))

	_, err = NewCreateCheckout(f.repo, &fakeGateway{}, nil, nil, "").Execute(ctx, alice, res.Booking.ID)
	assert.True(t, httperr.IsBusiness(err, "provider_payments_disabled"))
}

// ======================================================
// LISTS / PROFILE
// ======================================================

func TestListCustomerBookingsJoinsSlots(t *testing.T) {
	f := setup(t)
	res := f.claimS1(t)

	views, err := NewListCustomerBookings(f.repo).Execute(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, res.Booking.ID, views[0].ID)
	require.NotNil(t, views[0].Slot)
	assert.Equal(t, "09:00", views[0].Slot.Start)
	assert.Equal(t, "09:30", views[0].Slot.End)

	empty, err := NewListCustomerBookings(f.repo).Execute(context.Background(), bob)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateProfile(t *testing.T) {
	f := setup(t)
	uc := NewUpdateProfile(f.repo)
	uc.checkDomain = func(context.Context, string) bool { return true }
	ctx := context.Background()

	p, err := uc.Execute(ctx, alice, UpdateProfileInput{Name: " Alice ", Email: "Alice@Mail.com"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "alice@mail.com", p.Email)

	got, err := NewGetProfile(f.repo).Execute(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	_, err = uc.Execute(ctx, alice, UpdateProfileInput{Name: "Alice", Email: "nope"})
	assert.True(t, httperr.IsBusiness(err, "invalid_email"))

	_, err = uc.Execute(ctx, alice, UpdateProfileInput{Name: "", Email: "alice@mail.com"})
	assert.True(t, httperr.IsBusiness(err, "invalid_name"))

	uc.checkDomain = func(context.Context, string) bool { return false }
	_, err = uc.Execute(ctx, alice, UpdateProfileInput{Name: "Alice", Email: "alice@mail.com"})
	assert.True(t, httperr.IsBusiness(err, "invalid_email_domain"))
}
