package routes

import (
	"nesta/auth"
	"nesta/booking"
	"nesta/buildings"
	"nesta/chats"
	"nesta/middleware"
	"nesta/ratelim"
	"nesta/recognition"
	"nesta/reviews"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.GET("/api/auth/me", middleware.Authenticate(auth.CurrentUser))
	router.GET("/api/users/:id", auth.GetUserProfile)
}

func AddBuildingRoutes(router *httprouter.Router) {
	router.GET("/api/buildings", buildings.GetBuildings)
	router.GET("/api/buildings/latest", buildings.GetLatestBuildings)
	router.GET("/api/buildings/liked", middleware.Authenticate(buildings.GetLikedBuildings))
	router.GET("/api/buildings/mine", middleware.Authenticate(buildings.GetMyListedBuildings))
	router.POST("/api/buildings", middleware.Authenticate(buildings.CreateBuilding))

	router.GET("/api/building/:id", buildings.GetBuildingByID)
	router.PUT("/api/building/:id", middleware.Authenticate(buildings.UpdateBuilding))
	router.POST("/api/building/:id/photos", middleware.Authenticate(buildings.UploadBuildingPhoto))
	router.POST("/api/building/:id/like", middleware.Authenticate(buildings.LikeBuilding))
	router.DELETE("/api/building/:id/like", middleware.Authenticate(buildings.UnlikeBuilding))
	router.GET("/api/building/:id/liked", middleware.Authenticate(buildings.IsBuildingLiked))

	router.POST("/api/building/:id/reviews", middleware.Authenticate(reviews.CreateReview))
	router.GET("/api/building/:id/reviews", reviews.GetReviews)

	router.GET("/api/building/:id/live-tour", middleware.Authenticate(booking.GetLiveTour))
}

func AddBookingRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/bookings/slots", booking.GetSlotCatalog)
	router.GET("/api/bookings/availability/:buildingId/:date", booking.GetAvailability)
	router.GET("/api/bookings/active/:buildingId", middleware.Authenticate(booking.CheckActiveBooking))
	router.GET("/api/bookings/mine", middleware.Authenticate(booking.GetMyBookings))
	router.POST("/api/bookings", rl.Limit(middleware.Authenticate(booking.CreateBooking)))

	router.PATCH("/api/booking/:id/status", middleware.Authenticate(booking.UpdateBookingStatus))
	router.POST("/api/booking/:id/cancel", middleware.Authenticate(booking.CancelBooking))
	router.GET("/api/booking/:id/pass", middleware.Authenticate(booking.BookingPass))

	router.GET("/ws/bookings/:buildingId", booking.HandleWS)
}

func AddChatRoutes(router *httprouter.Router, hub *chats.Hub) {
	router.POST("/api/chats", middleware.Authenticate(chats.StartChat))
	router.GET("/api/chats", middleware.Authenticate(chats.GetUserChats))
	router.GET("/api/chat/:id", middleware.Authenticate(chats.GetChatByID))
	router.GET("/api/chat/:id/messages", middleware.Authenticate(chats.GetMessages))
	router.POST("/api/chat/:id/messages", middleware.Authenticate(chats.SendMessage(hub)))

	router.GET("/ws/chats/:id", middleware.OptionalAuth(chats.WebSocketHandler(hub)))
}

func AddRecognitionRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/recognition/search", rl.Limit(recognition.SearchByImage))
}
