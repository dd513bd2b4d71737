package rdx

import (
	"encoding/json"
	"testing"

	"nesta/models"
)

func TestDecodeBufferedSkipsCorruptEntries(t *testing.T) {
	first, _ := json.Marshal(models.Message{MessageID: "m1", ChatID: "c1", SenderID: "u1", Text: "hello"})
	second, _ := json.Marshal(models.Message{MessageID: "m2", ChatID: "c1", SenderID: "u2", Text: "hi"})

	out := decodeBuffered([]string{string(first), "{not json", string(second)})
	if len(out) != 2 {
		t.Fatalf("expected 2 decoded messages, got %d", len(out))
	}

	m, ok := out[0].(models.Message)
	if !ok {
		t.Fatalf("unexpected element type %T", out[0])
	}
	if m.MessageID != "m1" || m.Text != "hello" {
		t.Fatalf("unexpected first message: %+v", m)
	}
}

func TestDecodeBufferedEmpty(t *testing.T) {
	if out := decodeBuffered(nil); len(out) != 0 {
		t.Fatalf("expected no messages, got %d", len(out))
	}
	if out := decodeBuffered([]string{"garbage"}); len(out) != 0 {
		t.Fatalf("expected no messages, got %d", len(out))
	}
}
