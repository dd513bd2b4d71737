package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nesta/models"
)

// fakeStore is an in-memory Store that enforces the same unique-key
// semantics as the Mongo indexes: inserting a booking whose activeKey or
// holdKey is already held fails with ErrDuplicateKey.
type fakeStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: make(map[string]*models.Booking)}
}

func (f *fakeStore) BookingsForDay(_ context.Context, buildingID string, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.BuildingID == buildingID && !b.Date.Before(dayStart) && b.Date.Before(dayEnd) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) ActiveForUser(_ context.Context, userID, buildingID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.UserID == userID && b.BuildingID == buildingID && b.Status.Active() {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Insert(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.bookings {
		if existing.ActiveKey != "" && existing.ActiveKey == b.ActiveKey {
			return ErrDuplicateKey
		}
		if existing.HoldKey != "" && existing.HoldKey == b.HoldKey {
			return ErrDuplicateKey
		}
	}
	cp := *b
	f.bookings[b.BookingID] = &cp
	return nil
}

func (f *fakeStore) Get(_ context.Context, bookingID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) SetStatus(_ context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[bookingID]
	if !ok {
		return nil, ErrNotFound
	}
	b.Status = status
	if status == models.BookingCancelled {
		b.ActiveKey = ""
		b.HoldKey = ""
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) ByUser(_ context.Context, userID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) BySeller(_ context.Context, sellerID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.SellerID == sellerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) LatestLiveTour(_ context.Context, buildingID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Booking
	for _, b := range f.bookings {
		if b.BuildingID != buildingID || b.Type != models.BookingLiveTour || !b.Status.Active() {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testDay = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	return NewService(store, &fakeClock{now: testDay.Add(8 * time.Hour)}, "https://meet.example.com")
}

func TestCatalogIsOrderedCopy(t *testing.T) {
	first := Catalog()
	if len(first) != 9 {
		t.Fatalf("expected 9 slots, got %d", len(first))
	}
	if first[0] != "09:00 AM" || first[len(first)-1] != "05:00 PM" {
		t.Fatalf("unexpected catalog bounds: %v", first)
	}

	first[0] = "mutated"
	if Catalog()[0] != "09:00 AM" {
		t.Fatal("Catalog must return a copy")
	}
}

func TestAvailableSlotsSubsetAndIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "10:00 AM", Type: models.BookingPhysical,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.AvailableSlots(ctx, "b1", testDay)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}

	catalog := Catalog()
	idx := 0
	for _, slot := range got {
		found := false
		for ; idx < len(catalog); idx++ {
			if catalog[idx] == slot {
				found = true
				idx++
				break
			}
		}
		if !found {
			t.Fatalf("slot %q out of catalog order in %v", slot, got)
		}
	}

	again, err := svc.AvailableSlots(ctx, "b1", testDay)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(again) != len(got) {
		t.Fatalf("availability not idempotent: %v vs %v", got, again)
	}
}

func TestPendingDoesNotOccupySlot(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	// pending at 09:00
	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "09:00 AM", Type: models.BookingPhysical,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	// confirmed at 10:00
	b2, err := svc.Create(ctx, CreateRequest{
		UserID: "u2", BuildingID: "b1", Date: testDay, TimeSlot: "10:00 AM", Type: models.BookingPhysical,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetStatus(ctx, b2.BookingID, models.BookingConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	got, err := svc.AvailableSlots(ctx, "b1", testDay)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}

	has := func(slot string) bool {
		for _, s := range got {
			if s == slot {
				return true
			}
		}
		return false
	}
	if !has("09:00 AM") {
		t.Error("pending booking must not hide its slot from availability")
	}
	if has("10:00 AM") {
		t.Error("confirmed booking must hide its slot from availability")
	}
}

func TestCreateLiveTourMetadata(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	b, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", BuildingID: "b1", SellerID: "s1",
		Date: testDay.Add(13 * time.Hour), // embedded time-of-day must be normalized away
		TimeSlot: "02:00 PM", Type: models.BookingLiveTour,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != models.BookingPending {
		t.Errorf("new booking status = %s, want pending", b.Status)
	}
	if !b.Date.Equal(testDay) {
		t.Errorf("date not normalized to UTC midnight: %v", b.Date)
	}
	if b.TourRoomID == "" || !strings.HasPrefix(b.TourJoinURL, "https://meet.example.com/") {
		t.Errorf("missing tour metadata: room=%q url=%q", b.TourRoomID, b.TourJoinURL)
	}
	if b.HostJoined || b.GuestJoined {
		t.Error("joined flags must initialize false")
	}
}

func TestCreatePhysicalHasNoTourMetadata(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	b, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "11:00 AM", Type: models.BookingPhysical,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.TourRoomID != "" || b.TourJoinURL != "" {
		t.Errorf("physical booking carries tour metadata: %+v", b)
	}
}

func TestSlotConflict(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "09:00 AM", Type: models.BookingPhysical,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.Create(ctx, CreateRequest{
		UserID: "u2", BuildingID: "b1", Date: testDay, TimeSlot: "09:00 AM", Type: models.BookingPhysical,
	})
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Reason != ReasonSlotTaken {
		t.Fatalf("expected slot-taken conflict, got %v", err)
	}
}

func TestPerUserExclusivity(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "09:00 AM", Type: models.BookingPhysical,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Different slot, same building: still blocked, citing the per-user reason.
	_, err := svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "03:00 PM", Type: models.BookingPhysical,
	})
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Reason != ReasonUserHasBooking {
		t.Fatalf("expected user-has-booking conflict, got %v", err)
	}

	// Same slot too: both invariants violated, the per-user reason wins.
	_, err = svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "09:00 AM", Type: models.BookingPhysical,
	})
	if !errors.As(err, &ce) || ce.Reason != ReasonUserHasBooking {
		t.Fatalf("expected user-has-booking conflict, got %v", err)
	}

	// A different building is fine.
	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b2", Date: testDay, TimeSlot: "09:00 AM", Type: models.BookingPhysical,
	}); err != nil {
		t.Fatalf("create on other building: %v", err)
	}
}

func TestConcurrentCreateOneWinner(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), CreateRequest{
				UserID:     "user" + string(rune('a'+n)),
				BuildingID: "b1",
				Date:       testDay,
				TimeSlot:   "12:00 PM",
				Type:       models.BookingPhysical,
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one winner, got %d", ok)
	}
	if conflicts != workers-1 {
		t.Fatalf("expected %d conflicts, got %d", workers-1, conflicts)
	}
}

func TestStatusTransitions(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	b, err := svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "04:00 PM", Type: models.BookingPhysical,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.SetStatus(ctx, b.BookingID, models.BookingPending); err == nil {
		t.Error("pending to pending must be rejected")
	}

	confirmed, err := svc.SetStatus(ctx, b.BookingID, models.BookingConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != models.BookingConfirmed {
		t.Fatalf("status = %s, want confirmed", confirmed.Status)
	}

	if _, err := svc.SetStatus(ctx, b.BookingID, models.BookingPending); err == nil {
		t.Error("confirmed to pending must be rejected")
	}

	cancelled, err := svc.Cancel(ctx, b.BookingID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.BookingCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	// Cancelling again is a no-op, not an error.
	if _, err := svc.Cancel(ctx, b.BookingID); err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
	if _, err := svc.SetStatus(ctx, b.BookingID, models.BookingConfirmed); err == nil {
		t.Error("nothing may leave cancelled")
	}
}

func TestCancelFreesSlotAndHold(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	ctx := context.Background()

	b, err := svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "01:00 PM", Type: models.BookingPhysical,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetStatus(ctx, b.BookingID, models.BookingConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.Cancel(ctx, b.BookingID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got, err := svc.AvailableSlots(ctx, "b1", testDay)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	found := false
	for _, s := range got {
		if s == "01:00 PM" {
			found = true
		}
	}
	if !found {
		t.Error("cancelled booking must release its slot")
	}

	// The same user can book the building again after cancelling.
	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "01:00 PM", Type: models.BookingPhysical,
	}); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
}

// failingStore simulates an unreachable backing store.
type failingStore struct {
	fakeStore
}

func (f *failingStore) Insert(context.Context, *models.Booking) error {
	return &StoreError{Op: "insert", Err: context.DeadlineExceeded}
}

func TestStoreErrorSurfacesAsUnknownOutcome(t *testing.T) {
	svc := NewService(&failingStore{fakeStore: fakeStore{bookings: map[string]*models.Booking{}}}, &fakeClock{now: testDay}, "https://meet.example.com")

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "09:00 AM", Type: models.BookingPhysical,
	})
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if IsConflict(err) {
		t.Fatal("a store failure must never read as a conflict")
	}
}

func TestLiveTourLookup(t *testing.T) {
	store := newFakeStore()
	clock := &fakeClock{now: testDay.Add(13*time.Hour + 55*time.Minute)} // 13:55 UTC
	svc := NewService(store, clock, "https://meet.example.com")
	ctx := context.Background()

	if _, _, err := svc.LiveTour(ctx, "b1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "u1", BuildingID: "b1", Date: testDay, TimeSlot: "02:00 PM", Type: models.BookingLiveTour,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, status, err := svc.LiveTour(ctx, "b1")
	if err != nil {
		t.Fatalf("live tour: %v", err)
	}
	if status.State != Waiting || status.MinutesLeft != 5 {
		t.Fatalf("expected Waiting(5), got %+v", status)
	}

	clock.Advance(6 * time.Minute)
	_, status, err = svc.LiveTour(ctx, "b1")
	if err != nil {
		t.Fatalf("live tour: %v", err)
	}
	if status.State != Joinable {
		t.Fatalf("expected Joinable, got %+v", status)
	}
}
