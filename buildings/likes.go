package buildings

import (
	"context"
	"net/http"
	"time"

	"nesta/db"
	"nesta/globals"
	"nesta/models"
	"nesta/rdx"
	"nesta/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

// POST /api/building/:id/like
func LikeBuilding(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	buildingID := ps.ByName("id")
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := db.LikesCollection.CountDocuments(ctx, bson.M{"userId": userID, "buildingId": buildingID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if count > 0 {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "liked": true})
		return
	}

	like := models.Like{UserID: userID, BuildingID: buildingID, CreatedAt: time.Now()}
	if _, err := db.LikesCollection.InsertOne(ctx, like); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db insert failed")
		return
	}
	rdx.IncrLikeCount(buildingID, 1)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "liked": true})
}

// DELETE /api/building/:id/like
func UnlikeBuilding(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	buildingID := ps.ByName("id")
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := db.LikesCollection.DeleteOne(ctx, bson.M{"userId": userID, "buildingId": buildingID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	if res.DeletedCount > 0 {
		rdx.IncrLikeCount(buildingID, -1)
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "liked": false})
}

// GET /api/building/:id/liked
func IsBuildingLiked(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := db.LikesCollection.CountDocuments(ctx, bson.M{"userId": userID, "buildingId": ps.ByName("id")})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"liked": count > 0})
}

// GET /api/buildings/liked
func GetLikedBuildings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.LikesCollection.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var likes []models.Like
	if err := cur.All(ctx, &likes); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	ids := make([]string, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.BuildingID)
	}

	var buildings []models.Building
	if len(ids) > 0 {
		if bcur, err := db.BuildingsCollection.Find(ctx, bson.M{"buildingid": bson.M{"$in": ids}}); err == nil {
			_ = bcur.All(ctx, &buildings)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"buildings": buildings})
}
