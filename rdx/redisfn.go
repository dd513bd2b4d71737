package rdx

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"nesta/db"
	"nesta/globals"
	"nesta/models"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{Addr: addr})
}

func SetCache(key, value string, ttl time.Duration) {
	if err := Conn.Set(globals.Ctx, key, value, ttl).Err(); err != nil {
		log.Println("Redis SET error:", err)
	}
}

func GetCache(key string) (string, bool) {
	val, err := Conn.Get(globals.Ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func DelCache(key string) {
	Conn.Del(globals.Ctx, key)
}

// BufferMessage queues a chat message in Redis; FlushRedisMessages moves the
// buffers into MongoDB in bulk.
func BufferMessage(chatID string, m models.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return Conn.LPush(globals.Ctx, "chat:"+chatID+":messages", data).Err()
}

// Flush messages from Redis to MongoDB in bulk.
func FlushRedisMessages() {
	ticker := time.NewTicker(30 * time.Second)
	for range ticker.C {
		keys, err := Conn.Keys(globals.Ctx, "chat:*:messages").Result()
		if err != nil {
			log.Println("Redis scan error:", err)
			continue
		}
		for _, key := range keys {
			msgs, err := Conn.LRange(globals.Ctx, key, 0, -1).Result()
			if err != nil {
				log.Println("Redis LRange error:", err)
				continue
			}
			if len(msgs) == 0 {
				continue
			}
			messagesBulk := decodeBuffered(msgs)
			if len(messagesBulk) > 0 {
				if _, err := db.MessagesCollection.InsertMany(globals.Ctx, messagesBulk); err != nil {
					log.Println("MongoDB InsertMany error:", err)
					continue
				}
			}
			// LPush prepends, so the entries just read sit at the tail;
			// trimming them keeps anything buffered since the LRange.
			if err := Conn.LTrim(globals.Ctx, key, 0, int64(-(len(msgs)+1))).Err(); err != nil {
				log.Println("Redis LTrim error:", err)
			}
		}
	}
}

// decodeBuffered unmarshals buffered chat messages, skipping corrupt entries.
func decodeBuffered(raw []string) []interface{} {
	var out []interface{}
	for _, s := range raw {
		var m models.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			log.Println("JSON unmarshal error:", err)
			continue
		}
		out = append(out, m)
	}
	return out
}

// IncrLikeCount bumps the in-Redis like counter for a building.
func IncrLikeCount(buildingID string, delta int64) {
	key := "like:count:building:" + buildingID
	if err := Conn.IncrBy(globals.Ctx, key, delta).Err(); err != nil {
		log.Println("Redis INCRBY error:", err)
	}
	Conn.Expire(globals.Ctx, key, 10*time.Minute)
}

// FlushRedisLikes periodically folds buffered like counters back into the
// buildings collection.
func FlushRedisLikes() {
	ticker := time.NewTicker(30 * time.Second)
	for range ticker.C {
		keys, err := Conn.Keys(globals.Ctx, "like:count:building:*").Result()
		if err != nil {
			log.Println("Redis scan error:", err)
			continue
		}
		for _, key := range keys {
			parts := strings.Split(key, ":")
			if len(parts) != 4 {
				log.Println("Invalid Redis like key format:", key)
				continue
			}
			buildingID := parts[3]

			val, err := Conn.Get(globals.Ctx, key).Result()
			if err != nil {
				continue
			}
			delta, err := strconv.ParseInt(val, 10, 64)
			if err != nil || delta == 0 {
				Conn.Del(globals.Ctx, key)
				continue
			}

			_, err = db.BuildingsCollection.UpdateOne(globals.Ctx,
				bson.M{"buildingid": buildingID},
				bson.M{"$inc": bson.M{"likes": delta}},
			)
			if err != nil {
				log.Println("MongoDB like flush error:", err)
				continue
			}
			Conn.Del(globals.Ctx, key)
		}
	}
}
