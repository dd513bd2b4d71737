package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nesta/db"
	"nesta/globals"
	"nesta/models"
	"nesta/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// POST /api/building/:id/reviews
func CreateReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	buildingID := ps.ByName("id")
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	var body struct {
		Rating  float64 `json:"rating"`
		Comment string  `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if body.Rating < 1 || body.Rating > 5 {
		utils.RespondWithError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := db.ReviewsCollection.CountDocuments(ctx, bson.M{"userId": userID, "buildingId": buildingID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if count > 0 {
		utils.RespondWithError(w, http.StatusConflict, "you have already reviewed this property")
		return
	}

	review := models.Review{
		ReviewID:   utils.GenerateRandomDigitString(22),
		BuildingID: buildingID,
		UserID:     userID,
		Rating:     body.Rating,
		Comment:    body.Comment,
		CreatedAt:  time.Now(),
	}
	if _, err := db.ReviewsCollection.InsertOne(ctx, review); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db insert failed")
		return
	}

	updateRatingAverage(ctx, buildingID)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"review": review})
}

// GET /api/building/:id/reviews
func GetReviews(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.ReviewsCollection.Find(ctx, bson.M{"buildingId": ps.ByName("id")},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"reviews": reviews})
}

// updateRatingAverage recomputes the building's average rating and review
// count from its reviews.
func updateRatingAverage(ctx context.Context, buildingID string) {
	cur, err := db.ReviewsCollection.Find(ctx, bson.M{"buildingId": buildingID})
	if err != nil {
		return
	}
	var reviews []models.Review
	if err := cur.All(ctx, &reviews); err != nil || len(reviews) == 0 {
		return
	}

	var sum float64
	for _, rv := range reviews {
		sum += rv.Rating
	}
	avg := sum / float64(len(reviews))

	_, _ = db.BuildingsCollection.UpdateOne(ctx,
		bson.M{"buildingid": buildingID},
		bson.M{"$set": bson.M{"rating": avg, "reviewcount": len(reviews)}},
	)
}
