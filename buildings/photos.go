package buildings

import (
	"context"
	"net/http"
	"time"

	"nesta/db"
	"nesta/globals"
	"nesta/models"
	"nesta/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

const buildingPhotoDir = "./static/buildingpic"

// POST /api/building/:id/photos — multipart upload, stores original plus
// thumbnail and appends to the gallery.
func UploadBuildingPhoto(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	buildingID := ps.ByName("id")
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var building models.Building
	if err := db.BuildingsCollection.FindOne(ctx, bson.M{"buildingid": buildingID}).Decode(&building); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "building not found")
		return
	}
	if building.SellerID != userID {
		utils.RespondWithError(w, http.StatusForbidden, "not your listing")
		return
	}

	if err := r.ParseMultipartForm(20 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "missing photo")
		return
	}
	defer file.Close()

	if !utils.ValidateImageFileType(w, header) {
		return
	}

	filename, err := utils.SaveImageWithThumbnail(file, header, buildingPhotoDir)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	if _, err := db.BuildingsCollection.UpdateOne(ctx,
		bson.M{"buildingid": buildingID},
		bson.M{"$push": bson.M{"gallery": filename}, "$set": bson.M{"updated_at": time.Now()}},
	); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "photo": filename})
}
