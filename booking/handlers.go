package booking

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"nesta/db"
	"nesta/globals"
	"nesta/models"
	"nesta/mq"
	"nesta/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

// Svc is the package-wide booking service wired to MongoDB. Handlers go
// through it; tests construct their own Service with fakes.
var Svc = NewService(NewMongoStore(db.BookingsCollection), SystemClock{}, meetBase())

func meetBase() string {
	if v := os.Getenv("TOUR_MEET_BASE_URL"); v != "" {
		return v
	}
	return "https://meet.ffmuc.net"
}

// EnsureIndexes sets up the unique booking-key indexes at startup.
func EnsureIndexes(ctx context.Context) {
	NewMongoStore(db.BookingsCollection).EnsureIndexes(ctx)
}

func requestUserID(r *http.Request) string {
	id, _ := r.Context().Value(globals.UserIDKey).(string)
	return id
}

// GET /api/bookings/slots
func GetSlotCatalog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"slots": Catalog()})
}

// GET /api/bookings/availability/:buildingId/:date
func GetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	buildingID := ps.ByName("buildingId")
	date, err := time.Parse("2006-01-02", ps.ByName("date"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	slots, err := Svc.AvailableSlots(r.Context(), buildingID, date)
	if err != nil {
		log.Printf("availability query failed: %v", err)
		utils.RespondWithError(w, http.StatusServiceUnavailable, "could not load availability")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"available": slots})
}

// GET /api/bookings/active/:buildingId
func CheckActiveBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := requestUserID(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	has, err := Svc.HasActiveBooking(r.Context(), userID, ps.ByName("buildingId"))
	if err != nil {
		log.Printf("active booking check failed: %v", err)
		utils.RespondWithError(w, http.StatusServiceUnavailable, "could not check bookings")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"active": has})
}

// POST /api/bookings
func CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := requestUserID(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	var body struct {
		BuildingID string `json:"buildingId"`
		Date       string `json:"date"`
		TimeSlot   string `json:"timeSlot"`
		Type       string `json:"booking_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	date, err := time.Parse("2006-01-02", body.Date)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	req := CreateRequest{
		UserID:     userID,
		BuildingID: body.BuildingID,
		Date:       date,
		TimeSlot:   body.TimeSlot,
		Type:       models.BookingType(body.Type),
	}
	req.SellerID = lookupSellerID(r.Context(), body.BuildingID)

	b, err := Svc.Create(r.Context(), req)
	if err != nil {
		var ce *ConflictError
		switch {
		case errors.As(err, &ce):
			utils.RespondWithJSON(w, http.StatusConflict, utils.M{"ok": false, "reason": ce.Reason, "error": ce.Error()})
		case errors.As(err, new(*StoreError)):
			log.Printf("booking insert outcome unknown: %v", err)
			utils.RespondWithError(w, http.StatusServiceUnavailable, "booking outcome unknown, please re-check your bookings")
		default:
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	BroadcastUpdate(b.BuildingID)
	mq.Emit(r.Context(), "booking-created", models.Index{
		EntityType: "booking", Method: "POST", EntityId: b.BuildingID, ItemId: b.BookingID, ItemType: string(b.Type),
	})
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "booking": b})
}

// PATCH /api/booking/:id/status
func UpdateBookingStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	status := models.BookingStatus(body.Status)
	if status != models.BookingConfirmed && status != models.BookingCancelled {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid status")
		return
	}

	updated, err := Svc.SetStatus(r.Context(), ps.ByName("id"), status)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "booking not found")
			return
		}
		utils.RespondWithError(w, http.StatusConflict, err.Error())
		return
	}
	BroadcastUpdate(updated.BuildingID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "booking": updated})
}

// POST /api/booking/:id/cancel
func CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	updated, err := Svc.Cancel(r.Context(), ps.ByName("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "booking not found")
			return
		}
		log.Printf("cancel failed: %v", err)
		utils.RespondWithError(w, http.StatusServiceUnavailable, "could not cancel booking")
		return
	}
	BroadcastUpdate(updated.BuildingID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "booking": updated})
}

// GET /api/bookings/mine
func GetMyBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := requestUserID(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	buyer, seller, err := Svc.UserBookings(r.Context(), userID)
	if err != nil {
		log.Printf("bookings listing failed: %v", err)
		utils.RespondWithError(w, http.StatusServiceUnavailable, "could not load bookings")
		return
	}

	// Decorate live tours with the listing badge state so the client can
	// show "Join Live Tour" without re-deriving slot times.
	now := Svc.clock.Now()
	badges := map[string]JoinStatus{}
	for _, b := range append(append([]models.Booking{}, buyer...), seller...) {
		if b.Type != models.BookingLiveTour || !b.Status.Active() {
			continue
		}
		start, err := SlotStart(b.Date, b.TimeSlot)
		if err != nil {
			// A catalog label that fails to parse is a configuration bug;
			// report it loudly instead of silently hiding the badge.
			log.Printf("unparseable slot on booking %s: %v", b.BookingID, err)
			continue
		}
		badges[b.BookingID] = ListingBadgePolicy(now, start)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"buyerBookings":  buyer,
		"sellerBookings": seller,
		"joinBadges":     badges,
	})
}

// GET /api/building/:id/live-tour
func GetLiveTour(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, status, err := Svc.LiveTour(r.Context(), ps.ByName("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "live tour not found or has expired")
			return
		}
		log.Printf("live tour lookup failed: %v", err)
		utils.RespondWithError(w, http.StatusServiceUnavailable, "could not load live tour")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": b, "join": status})
}

func lookupSellerID(ctx context.Context, buildingID string) string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var building models.Building
	if err := db.BuildingsCollection.FindOne(ctx, bson.M{"buildingid": buildingID}).Decode(&building); err != nil {
		return ""
	}
	return building.SellerID
}
