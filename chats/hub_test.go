package chats

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send: make(chan []byte, 10),
		Room: "chat1",
	}

	hub.register <- client

	msg := outboundPayload{Action: "chat", Content: "hello test"}
	data, _ := json.Marshal(msg)
	hub.Broadcast("chat1", data)

	select {
	case got := <-client.Send:
		if string(got) != string(data) {
			t.Fatalf("expected %s, got %s", data, got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.unregister <- client
}

func TestHubUnregisterAfterSlowClientEviction(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	// An unbuffered send channel with no reader trips the broadcast
	// eviction path, which closes it.
	slow := &Client{Send: make(chan []byte), Room: "chat1"}
	hub.register <- slow
	hub.Broadcast("chat1", []byte("ping"))

	// Unregistering the already-evicted client must not kill the hub.
	hub.unregister <- slow

	live := &Client{Send: make(chan []byte, 1), Room: "chat1"}
	done := make(chan struct{})
	go func() {
		hub.register <- live
		hub.Broadcast("chat1", []byte("pong"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("hub stopped serving after slow-client eviction")
	}
	select {
	case <-live.Send:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHubSurvivesClientChurn(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &Client{Send: make(chan []byte), Room: "busy"}
			hub.register <- c
			hub.Broadcast("busy", []byte("x"))
			hub.unregister <- c
		}()
	}
	wg.Wait()

	live := &Client{Send: make(chan []byte, 1), Room: "busy"}
	done := make(chan struct{})
	go func() {
		hub.register <- live
		hub.Broadcast("busy", []byte("still here"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("hub stopped serving under register/broadcast/unregister churn")
	}
	select {
	case <-live.Send:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHubBroadcastSkipsOtherRooms(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	inRoom := &Client{Send: make(chan []byte, 1), Room: "chat1"}
	otherRoom := &Client{Send: make(chan []byte, 1), Room: "chat2"}
	hub.register <- inRoom
	hub.register <- otherRoom

	hub.Broadcast("chat1", []byte("ping"))

	select {
	case <-inRoom.Send:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}

	select {
	case got := <-otherRoom.Send:
		t.Fatalf("unexpected message in other room: %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}
