package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"nesta/db"
	"nesta/models"
	"nesta/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

var client = &http.Client{Timeout: 20 * time.Second}

func serviceURL() string {
	if v := os.Getenv("RECOGNITION_URL"); v != "" {
		return v
	}
	return "http://localhost:8000"
}

// FetchFeatureVector sends image URLs to the external ML service and returns
// one serialized feature vector per image.
func FetchFeatureVector(ctx context.Context, images []string) ([]string, error) {
	payload, err := json.Marshal(map[string]any{"images": images})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceURL()+"/extract", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recognition service returned %d", resp.StatusCode)
	}

	var out struct {
		Vectors []string `json:"vectors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Vectors, nil
}

// POST /api/recognition/search — find listings whose photos look like the
// submitted image. The ML service does the ranking; we hydrate its ids.
func SearchByImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Image == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing image")
		return
	}

	vectors, err := FetchFeatureVector(r.Context(), []string{body.Image})
	if err != nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "recognition service unavailable")
		return
	}
	if len(vectors) == 0 {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"buildings": []models.Building{}})
		return
	}

	payload, _ := json.Marshal(map[string]any{"vector": vectors[0]})
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, serviceURL()+"/match", bytes.NewReader(payload))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "recognition service unavailable")
		return
	}
	defer resp.Body.Close()

	var match struct {
		BuildingIDs []string `json:"buildingIds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&match); err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, "bad recognition response")
		return
	}

	var buildings []models.Building
	if len(match.BuildingIDs) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if cur, err := db.BuildingsCollection.Find(ctx, bson.M{"buildingid": bson.M{"$in": match.BuildingIDs}}); err == nil {
			_ = cur.All(ctx, &buildings)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"buildings": buildings})
}
