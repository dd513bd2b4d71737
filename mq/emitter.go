package mq

import (
	"context"
	"encoding/json"
	"log"

	"nesta/models"
	"nesta/rdx"
)

const eventChannel = "created-events"

// Emit publishes a created-document event to the realtime channel. Consumers
// (the chat hub, cache invalidation) subscribe via StartEventWorker.
func Emit(ctx context.Context, eventName string, content models.Index) {
	data, err := json.Marshal(content)
	if err != nil {
		log.Printf("[Emit] Failed to marshal event content: %v", err)
		return
	}

	if err := rdx.Conn.Publish(ctx, eventChannel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish %s: %v", eventName, err)
		return
	}
}

// StartEventWorker consumes created-document events and drops stale caches.
func StartEventWorker() {
	ctx := context.Background()
	sub := rdx.Conn.Subscribe(ctx, eventChannel)
	ch := sub.Channel()

	log.Println("[EventWorker] Listening for created-document events...")

	for msg := range ch {
		var event models.Index
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("[EventWorker] Failed to parse event: %v", err)
			continue
		}
		switch event.EntityType {
		case "booking":
			rdx.DelCache("availability:" + event.EntityId)
		case "building":
			rdx.DelCache("building:" + event.EntityId)
		}
	}
}
