package chats

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
	"go.mongodb.org/mongo-driver/mongo"
)

// POST /api/chats — get-or-create the buyer/seller chat for a building.
func StartChat(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	buyerID, _ := r.Context().Value(globals.UserIDKey).(string)
	if buyerID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	var body struct {
		BuildingID string `json:"buildingId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.BuildingID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "missing buildingId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var building models.Building
	if err := db.BuildingsCollection.FindOne(ctx, bson.M{"buildingid": body.BuildingID}).Decode(&building); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "building not found")
		return
	}
	if building.SellerID == buyerID {
		utils.RespondWithError(w, http.StatusBadRequest, "cannot chat with yourself")
		return
	}

	var chat models.Chat
	err := db.ChatsCollection.FindOne(ctx, bson.M{
		"buyerId":  buyerID,
		"sellerId": building.SellerID,
	}).Decode(&chat)
	if err == nil {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"chat": chat})
		return
	}
	if err != mongo.ErrNoDocuments {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	chat = models.Chat{
		ChatID:     utils.GenerateRandomDigitString(22),
		BuyerID:    buyerID,
		SellerID:   building.SellerID,
		BuildingID: body.BuildingID,
		CreatedAt:  time.Now().Unix(),
	}
	if _, err := db.ChatsCollection.InsertOne(ctx, chat); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db insert failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"chat": chat})
}

// GET /api/chats
func GetUserChats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.ChatsCollection.Find(ctx, bson.M{"$or": bson.A{
		bson.M{"buyerId": userID},
		bson.M{"sellerId": userID},
	}})
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var chats []models.Chat
	if err := cur.All(ctx, &chats); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"chats": chats})
}

// GET /api/chat/:id
func GetChatByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, _ := r.Context().Value(globals.UserIDKey).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var chat models.Chat
	if err := db.ChatsCollection.FindOne(ctx, bson.M{"chatid": ps.ByName("id")}).Decode(&chat); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "chat not found")
		return
	}
	if chat.BuyerID != userID && chat.SellerID != userID {
		utils.RespondWithError(w, http.StatusForbidden, "not a participant")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"chat": chat})
}
