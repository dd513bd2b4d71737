package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nesta/models"

	"github.com/google/uuid"
)

// Store is the booking collection as seen by the service. Implementations
// must return ErrDuplicateKey from Insert when a unique booking key
// collides, ErrNotFound where noted, and wrap transport failures in
// StoreError.
type Store interface {
	// BookingsForDay returns every booking for buildingID whose date lies in
	// [dayStart, dayEnd), regardless of status.
	BookingsForDay(ctx context.Context, buildingID string, dayStart, dayEnd time.Time) ([]models.Booking, error)
	// ActiveForUser returns the user's pending/confirmed booking on the
	// building, or nil when there is none.
	ActiveForUser(ctx context.Context, userID, buildingID string) (*models.Booking, error)
	Insert(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, bookingID string) (*models.Booking, error)
	// SetStatus updates a booking's status and returns the updated record.
	// Cancelling releases the booking's unique keys.
	SetStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error)
	ByUser(ctx context.Context, userID string) ([]models.Booking, error)
	BySeller(ctx context.Context, sellerID string) ([]models.Booking, error)
	// LatestLiveTour returns the most recently created active live-tour
	// booking for the building, or nil.
	LatestLiveTour(ctx context.Context, buildingID string) (*models.Booking, error)
}

// Clock abstracts time.Now so tests can pin the current instant.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Service holds the booking core: slot availability, the conflict guard and
// booking lifecycle. All dependencies are passed in explicitly.
type Service struct {
	store    Store
	clock    Clock
	meetBase string
}

func NewService(store Store, clock Clock, meetBase string) *Service {
	return &Service{store: store, clock: clock, meetBase: strings.TrimRight(meetBase, "/")}
}

// AvailableSlots returns the catalog slots not occupied by a confirmed
// booking for the building on the given UTC day, in catalog order. Pending
// bookings do not occupy a slot here; they are still enforced against
// double-booking at creation time. Recomputed from the store on every call.
func (s *Service) AvailableSlots(ctx context.Context, buildingID string, date time.Time) ([]string, error) {
	if buildingID == "" {
		return nil, errors.New("missing buildingId")
	}

	dayStart, dayEnd := DayBounds(date)
	bookings, err := s.store.BookingsForDay(ctx, buildingID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if b.Status == models.BookingConfirmed {
			taken[b.TimeSlot] = true
		}
	}

	available := []string{}
	for _, slot := range slotCatalog {
		if !taken[slot] {
			available = append(available, slot)
		}
	}
	return available, nil
}

// HasActiveBooking reports whether the user already holds a pending or
// confirmed booking on the building, regardless of slot.
func (s *Service) HasActiveBooking(ctx context.Context, userID, buildingID string) (bool, error) {
	b, err := s.store.ActiveForUser(ctx, userID, buildingID)
	if err != nil {
		return false, err
	}
	return b != nil, nil
}

type CreateRequest struct {
	UserID     string
	BuildingID string
	SellerID   string
	Date       time.Time
	TimeSlot   string
	Type       models.BookingType
}

// Create runs the conflict guard and inserts a pending booking.
//
// The guard re-checks both uniqueness invariants at call time to close the
// race between an earlier availability read and this write, but the checks
// alone are not a serialization point: true safety comes from the store's
// unique keys (ActiveKey, HoldKey). A concurrent duplicate insert fails
// there and is converted into the matching ConflictError.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	if req.UserID == "" || req.BuildingID == "" || req.TimeSlot == "" {
		return nil, errors.New("missing required fields")
	}
	if !InCatalog(req.TimeSlot) {
		return nil, &ParseError{Label: req.TimeSlot, Msg: "not in slot catalog"}
	}
	if req.Type != models.BookingPhysical && req.Type != models.BookingLiveTour {
		return nil, fmt.Errorf("invalid booking type %q", req.Type)
	}

	// Per-user check first: when both invariants would be violated the
	// caller surfaces the more specific reason.
	if existing, err := s.store.ActiveForUser(ctx, req.UserID, req.BuildingID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUserHasBooking
	}

	day, dayEnd := DayBounds(req.Date)
	sameDay, err := s.store.BookingsForDay(ctx, req.BuildingID, day, dayEnd)
	if err != nil {
		return nil, err
	}
	for _, b := range sameDay {
		if b.TimeSlot == req.TimeSlot && b.Status.Active() {
			return nil, ErrSlotTaken
		}
	}

	now := s.clock.Now()
	b := &models.Booking{
		BookingID:  uuid.NewString(),
		BuildingID: req.BuildingID,
		UserID:     req.UserID,
		SellerID:   req.SellerID,
		Date:       day,
		TimeSlot:   req.TimeSlot,
		Type:       req.Type,
		Status:     models.BookingPending,
		CreatedAt:  now,
		ActiveKey:  activeKey(req.BuildingID, day, req.TimeSlot),
		HoldKey:    holdKey(req.UserID, req.BuildingID),
	}

	if req.Type == models.BookingLiveTour {
		b.TourRoomID = fmt.Sprintf("%s_%s_%d", req.BuildingID, req.UserID, now.UnixMilli())
		b.TourJoinURL = fmt.Sprintf("%s/%s", s.meetBase, b.TourRoomID)
	}

	if err := s.store.Insert(ctx, b); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			// A concurrent writer won the race between check and insert.
			// Distinguish the reason so the caller can report the right one.
			if existing, lookErr := s.store.ActiveForUser(ctx, req.UserID, req.BuildingID); lookErr == nil && existing != nil {
				return nil, ErrUserHasBooking
			}
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return b, nil
}

// SetStatus applies an external approval or rejection. Allowed transitions:
// pending to confirmed or cancelled, confirmed to cancelled. Nothing leaves
// cancelled.
func (s *Service) SetStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	current, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canTransition(current.Status, status) {
		return nil, fmt.Errorf("cannot move booking from %s to %s", current.Status, status)
	}
	return s.store.SetStatus(ctx, bookingID, status)
}

// Cancel is a shortcut for the cancelled transition; cancelling an already
// cancelled booking is a no-op.
func (s *Service) Cancel(ctx context.Context, bookingID string) (*models.Booking, error) {
	current, err := s.store.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.BookingCancelled {
		return current, nil
	}
	return s.store.SetStatus(ctx, bookingID, models.BookingCancelled)
}

// UserBookings returns the bookings where the user is the buyer and those on
// buildings the user is selling.
func (s *Service) UserBookings(ctx context.Context, userID string) (buyer, seller []models.Booking, err error) {
	if buyer, err = s.store.ByUser(ctx, userID); err != nil {
		return nil, nil, err
	}
	if seller, err = s.store.BySeller(ctx, userID); err != nil {
		return nil, nil, err
	}
	return buyer, seller, nil
}

// LiveTour fetches the building's latest active live-tour booking together
// with its meeting-entry join status.
func (s *Service) LiveTour(ctx context.Context, buildingID string) (*models.Booking, JoinStatus, error) {
	b, err := s.store.LatestLiveTour(ctx, buildingID)
	if err != nil {
		return nil, JoinStatus{}, err
	}
	if b == nil {
		return nil, JoinStatus{}, ErrNotFound
	}
	start, err := SlotStart(b.Date, b.TimeSlot)
	if err != nil {
		return nil, JoinStatus{}, err
	}
	return b, MeetingEntryPolicy(s.clock.Now(), start), nil
}

func canTransition(from, to models.BookingStatus) bool {
	switch from {
	case models.BookingPending:
		return to == models.BookingConfirmed || to == models.BookingCancelled
	case models.BookingConfirmed:
		return to == models.BookingCancelled
	}
	return false
}

func activeKey(buildingID string, day time.Time, slot string) string {
	return fmt.Sprintf("%s|%s|%s", buildingID, day.Format("2006-01-02"), slot)
}

func holdKey(userID, buildingID string) string {
	return fmt.Sprintf("%s|%s", userID, buildingID)
}
