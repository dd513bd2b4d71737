package buildings

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"nesta/db"
	"nesta/globals"
	"nesta/models"
	"nesta/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GET /api/buildings/latest
func GetLatestBuildings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.BuildingsCollection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(5))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var buildings []models.Building
	if err := cur.All(ctx, &buildings); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"buildings": buildings})
}

// GET /api/buildings?type=&bedrooms=&bathrooms=&minPrice=&maxPrice=&minArea=&maxArea=&rating=&negotiable=&query=&limit=
func GetBuildings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()

	filter := bson.M{}
	if t := q.Get("type"); t != "" {
		filter["type"] = bson.M{"$in": utils.SplitTags(t)}
	}
	if rating := q.Get("rating"); rating != "" {
		if v, err := strconv.ParseFloat(rating, 64); err == nil {
			filter["rating"] = bson.M{"$gte": v}
		}
	}
	if query := q.Get("query"); query != "" {
		filter["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": query, "$options": "i"}},
			bson.M{"address": bson.M{"$regex": query, "$options": "i"}},
		}
	}

	limit := int64(20)
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.ParseInt(l, 10, 64); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.BuildingsCollection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var buildings []models.Building
	if err := cur.All(ctx, &buildings); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	// Unit-level filters need the detail and pricing rows.
	buildings = filterByDetails(ctx, buildings, q)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"buildings": buildings})
}

func filterByDetails(ctx context.Context, buildings []models.Building, q map[string][]string) []models.Building {
	get := func(key string) string {
		if v, ok := q[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	bedrooms, hasBedrooms := atoiOpt(get("bedrooms"))
	bathrooms, hasBathrooms := atoiOpt(get("bathrooms"))
	minArea, hasMinArea := atofOpt(get("minArea"))
	maxArea, hasMaxArea := atofOpt(get("maxArea"))
	minPrice, hasMinPrice := atofOpt(get("minPrice"))
	maxPrice, hasMaxPrice := atofOpt(get("maxPrice"))
	negotiable := get("negotiable") == "true"

	if !hasBedrooms && !hasBathrooms && !hasMinArea && !hasMaxArea && !hasMinPrice && !hasMaxPrice && !negotiable {
		return buildings
	}

	var out []models.Building
	for _, b := range buildings {
		cur, err := db.BuildingDetailsCollection.Find(ctx, bson.M{"buildingId": b.BuildingID})
		if err != nil {
			continue
		}
		var details []models.BuildingDetail
		if err := cur.All(ctx, &details); err != nil {
			continue
		}

		for _, d := range details {
			if hasBedrooms && d.Bedrooms != bedrooms {
				continue
			}
			if hasBathrooms && d.Bathrooms != bathrooms {
				continue
			}
			if hasMinArea && d.Area < minArea {
				continue
			}
			if hasMaxArea && d.Area > maxArea {
				continue
			}
			if !priceMatches(ctx, d.DetailID, minPrice, hasMinPrice, maxPrice, hasMaxPrice, negotiable) {
				continue
			}
			out = append(out, b)
			break
		}
	}
	return out
}

func priceMatches(ctx context.Context, detailID string, minPrice float64, hasMin bool, maxPrice float64, hasMax, negotiable bool) bool {
	if !hasMin && !hasMax && !negotiable {
		return true
	}
	cur, err := db.PricingCollection.Find(ctx, bson.M{"detailId": detailID})
	if err != nil {
		return false
	}
	var rows []models.Pricing
	if err := cur.All(ctx, &rows); err != nil {
		return false
	}
	for _, p := range rows {
		if hasMin && p.Price < minPrice {
			continue
		}
		if hasMax && p.Price > maxPrice {
			continue
		}
		if negotiable && !p.Negotiable {
			continue
		}
		return true
	}
	return false
}

// GET /api/building/:id — building joined with its details, pricing and reviews
func GetBuildingByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	buildingID := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var building models.Building
	if err := db.BuildingsCollection.FindOne(ctx, bson.M{"buildingid": buildingID}).Decode(&building); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "building not found")
		return
	}

	var details []models.BuildingDetail
	if cur, err := db.BuildingDetailsCollection.Find(ctx, bson.M{"buildingId": buildingID}); err == nil {
		_ = cur.All(ctx, &details)
	}

	pricing := map[string][]models.Pricing{}
	for _, d := range details {
		var rows []models.Pricing
		if cur, err := db.PricingCollection.Find(ctx, bson.M{"detailId": d.DetailID}); err == nil {
			_ = cur.All(ctx, &rows)
		}
		pricing[d.DetailID] = rows
	}

	var reviews []models.Review
	if cur, err := db.ReviewsCollection.Find(ctx, bson.M{"buildingId": buildingID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})); err == nil {
		_ = cur.All(ctx, &reviews)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"building": building,
		"details":  details,
		"pricing":  pricing,
		"reviews":  reviews,
	})
}

// GET /api/buildings/mine
func GetMyListedBuildings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.BuildingsCollection.Find(ctx, bson.M{"sellerId": userID})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var buildings []models.Building
	if err := cur.All(ctx, &buildings); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"buildings": buildings})
}

func atoiOpt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func atofOpt(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
