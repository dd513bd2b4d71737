package buildings

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"nesta/db"
	"nesta/globals"
	"nesta/models"
	"nesta/mq"
	"nesta/recognition"
	"nesta/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type detailInput struct {
	Bedrooms  int     `json:"bedrooms"`
	Bathrooms int     `json:"bathrooms"`
	Area      float64 `json:"area"`
	Floor     int     `json:"floor"`
	Facing    string  `json:"facing"`
	Pricing   []struct {
		Price      float64 `json:"price"`
		Negotiable bool    `json:"negotiable"`
		Currency   string  `json:"currency"`
	} `json:"pricing"`
}

type buildingInput struct {
	Name     string             `json:"name"`
	Address  string             `json:"address"`
	Type     string             `json:"type"`
	Image    string             `json:"image"`
	Gallery  []string           `json:"gallery"`
	Location models.Coordinates `json:"location"`
	Details  []detailInput      `json:"details"`
}

// POST /api/buildings
func CreateBuilding(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	sellerID, _ := r.Context().Value(globals.UserIDKey).(string)
	if sellerID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	var input buildingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if input.Name == "" || input.Address == "" || len(input.Details) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	building := models.Building{
		BuildingID: utils.GenerateRandomDigitString(22),
		Name:       input.Name,
		Address:    input.Address,
		Type:       input.Type,
		SellerID:   sellerID,
		Image:      input.Image,
		Gallery:    input.Gallery,
		Location:   input.Location,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	// Feature vectors power image-based similarity search; a failed
	// extraction must not block the listing.
	if len(input.Gallery) > 0 {
		vectors, err := recognition.FetchFeatureVector(ctx, input.Gallery)
		if err != nil {
			log.Printf("feature vector extraction failed for %s: %v", building.BuildingID, err)
		} else {
			building.FeatureVector = vectors
		}
	}

	for _, d := range input.Details {
		detail := models.BuildingDetail{
			DetailID:   utils.GenerateRandomDigitString(22),
			BuildingID: building.BuildingID,
			Bedrooms:   d.Bedrooms,
			Bathrooms:  d.Bathrooms,
			Area:       d.Area,
			Floor:      d.Floor,
			Facing:     d.Facing,
		}
		for _, p := range d.Pricing {
			pricing := models.Pricing{
				PricingID:  utils.GenerateRandomDigitString(22),
				DetailID:   detail.DetailID,
				Price:      p.Price,
				Negotiable: p.Negotiable,
				Currency:   p.Currency,
			}
			if _, err := db.PricingCollection.InsertOne(ctx, pricing); err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, "db insert failed")
				return
			}
			detail.PricingIDs = append(detail.PricingIDs, pricing.PricingID)
		}
		if _, err := db.BuildingDetailsCollection.InsertOne(ctx, detail); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "db insert failed")
			return
		}
		building.DetailIDs = append(building.DetailIDs, detail.DetailID)
	}

	if _, err := db.BuildingsCollection.InsertOne(ctx, building); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db insert failed")
		return
	}

	mq.Emit(r.Context(), "building-created", models.Index{
		EntityType: "building", Method: "POST", EntityId: building.BuildingID,
	})
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"building": building})
}

// PUT /api/building/:id
func UpdateBuilding(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sellerID, _ := r.Context().Value(globals.UserIDKey).(string)
	buildingID := ps.ByName("id")

	var input buildingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var existing models.Building
	if err := db.BuildingsCollection.FindOne(ctx, bson.M{"buildingid": buildingID}).Decode(&existing); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "building not found")
		return
	}
	if existing.SellerID != sellerID {
		utils.RespondWithError(w, http.StatusForbidden, "not your listing")
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if input.Name != "" {
		set["name"] = input.Name
	}
	if input.Address != "" {
		set["address"] = input.Address
	}
	if input.Type != "" {
		set["type"] = input.Type
	}
	if input.Image != "" {
		set["image"] = input.Image
	}
	if len(input.Gallery) > 0 {
		set["gallery"] = input.Gallery
		if vectors, err := recognition.FetchFeatureVector(ctx, input.Gallery); err == nil {
			set["featureVector"] = vectors
		}
	}

	if _, err := db.BuildingsCollection.UpdateOne(ctx, bson.M{"buildingid": buildingID}, bson.M{"$set": set}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	mq.Emit(r.Context(), "building-updated", models.Index{
		EntityType: "building", Method: "PUT", EntityId: buildingID,
	})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}
