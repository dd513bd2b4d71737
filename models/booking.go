package models

import "time"

type BookingType string

const (
	BookingPhysical BookingType = "physical"
	BookingLiveTour BookingType = "live_tour"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Active reports whether a booking still occupies its slot.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

type Booking struct {
	BookingID  string        `json:"bookingid" bson:"bookingid"`
	BuildingID string        `json:"buildingId" bson:"buildingId"`
	UserID     string        `json:"userId" bson:"userId"`
	SellerID   string        `json:"sellerId,omitempty" bson:"sellerId,omitempty"`
	Date       time.Time     `json:"date" bson:"date"`
	TimeSlot   string        `json:"timeSlot" bson:"timeSlot"`
	Type       BookingType   `json:"booking_type" bson:"booking_type"`
	Status     BookingStatus `json:"status" bson:"status"`
	CreatedAt  time.Time     `json:"createdAt" bson:"createdAt"`

	// Live tour metadata, present only when Type == BookingLiveTour.
	TourRoomID  string `json:"tourRoom,omitempty" bson:"tourRoom,omitempty"`
	TourJoinURL string `json:"tourLink,omitempty" bson:"tourLink,omitempty"`
	HostJoined  bool   `json:"hostJoined" bson:"hostJoined"`
	GuestJoined bool   `json:"userJoined" bson:"userJoined"`

	// Uniqueness keys, set while the booking is active and cleared on
	// cancellation. Each is covered by a unique sparse index so the store
	// rejects a second active booking atomically.
	ActiveKey string `json:"-" bson:"activeKey,omitempty"`
	HoldKey   string `json:"-" bson:"holdKey,omitempty"`
}
