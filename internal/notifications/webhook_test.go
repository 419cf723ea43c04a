package notifications

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend_NoURLConfigured(t *testing.T) {
	s := NewSender("", "")
	if s.Enabled() {
		t.Fatal("sender without URL should be disabled")
	}
	// Must not panic or block.
	s.Send("provider chain exhausted for BTC-USD")
}

func TestSend_DiscordPayload(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewSender(srv.URL+"/discord/webhook", "coindash-test")
	s.Send("stream disconnected")

	if received == nil {
		t.Fatal("webhook not called")
	}
	if received["content"] == "" {
		t.Fatalf("expected discord content field, got %v", received)
	}
	if received["username"] != "coindash-test" {
		t.Fatalf("username = %q", received["username"])
	}
}

func TestSend_SlackPayload(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "")
	s.Send("all quote providers failed")

	if received["text"] == "" {
		t.Fatalf("expected slack text field, got %v", received)
	}
}
