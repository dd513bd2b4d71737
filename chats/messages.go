package chats

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
	"nesta/rdx"
	"nesta/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type outboundPayload struct {
	Action  string `json:"action"`
	Content string `json:"content,omitempty"`
}

// POST /api/chat/:id/messages
func SendMessage(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		senderID, _ := r.Context().Value(globals.UserIDKey).(string)
		chatID := ps.ByName("id")
		if senderID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "missing user")
			return
		}

		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "missing text")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		count, err := db.ChatsCollection.CountDocuments(ctx, bson.M{
			"chatid": chatID,
			"$or":    bson.A{bson.M{"buyerId": senderID}, bson.M{"sellerId": senderID}},
		})
		if err != nil || count == 0 {
			utils.RespondWithError(w, http.StatusForbidden, "not a participant")
			return
		}

		msg := models.Message{
			MessageID: utils.GenerateRandomDigitString(16),
			ChatID:    chatID,
			SenderID:  senderID,
			Text:      body.Text,
			Timestamp: time.Now().Unix(),
		}

		// Buffer in Redis; the flush loop bulk-inserts into Mongo.
		if err := rdx.BufferMessage(chatID, msg); err != nil {
			log.Printf("message buffer failed, writing through: %v", err)
			if _, err := db.MessagesCollection.InsertOne(ctx, msg); err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, "db insert failed")
				return
			}
		}

		if data, err := json.Marshal(msg); err == nil {
			hub.Broadcast(chatID, data)
		}
		mq.Emit(r.Context(), "message-created", models.Index{
			EntityType: "message", Method: "POST", EntityId: chatID, ItemId: msg.MessageID,
		})
		utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": msg})
	}
}

// GET /api/chat/:id/messages
func GetMessages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	chatID := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cur, err := db.MessagesCollection.Find(ctx, bson.M{"chatId": chatID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer cur.Close(ctx)

	var messages []models.Message
	if err := cur.All(ctx, &messages); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	// Include anything still sitting in the Redis buffer.
	if buffered, err := rdx.Conn.LRange(globals.Ctx, "chat:"+chatID+":messages", 0, -1).Result(); err == nil {
		for i := len(buffered) - 1; i >= 0; i-- {
			var m models.Message
			if err := json.Unmarshal([]byte(buffered[i]), &m); err == nil {
				messages = append(messages, m)
			}
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"messages": messages})
}

// WebSocketHandler subscribes a participant to live messages for one chat.
// GET /ws/chats/:id
func WebSocketHandler(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room := ps.ByName("id")
		userID, _ := r.Context().Value(globals.UserIDKey).(string)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Room:   room,
			UserID: userID,
		}

		// Replay the last 30 messages before handing the client to the hub.
		// Until registration the send channel is exclusively ours, so the
		// hub cannot close it mid-write; the buffer holds the full replay.
		func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			opts := options.Find().
				SetSort(bson.D{{Key: "timestamp", Value: -1}}).
				SetLimit(30)

			cur, err := db.MessagesCollection.Find(ctx, bson.M{"chatId": room}, opts)
			if err != nil {
				return
			}
			defer cur.Close(ctx)
			var msgs []models.Message
			if err := cur.All(ctx, &msgs); err != nil {
				return
			}
			for i := len(msgs) - 1; i >= 0; i-- {
				if data, err := json.Marshal(msgs[i]); err == nil {
					client.Send <- data
				}
			}
		}()

		hub.register <- client
		go writePump(client)
		go readPump(client, hub)
	}
}

func writePump(c *Client) {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

func readPump(c *Client, hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}

		var in outboundPayload
		if err := json.Unmarshal(data, &in); err != nil {
			log.Printf("invalid payload: %v", err)
			continue
		}
		if in.Action != "chat" || in.Content == "" {
			continue
		}

		msg := models.Message{
			MessageID: utils.GenerateRandomDigitString(16),
			ChatID:    c.Room,
			SenderID:  c.UserID,
			Text:      in.Content,
			Timestamp: time.Now().Unix(),
		}
		if err := rdx.BufferMessage(c.Room, msg); err != nil {
			if _, err := db.MessagesCollection.InsertOne(context.Background(), msg); err != nil {
				log.Printf("insert error: %v", err)
				continue
			}
		}
		if out, err := json.Marshal(msg); err == nil {
			hub.Broadcast(c.Room, out)
		}
	}
}
