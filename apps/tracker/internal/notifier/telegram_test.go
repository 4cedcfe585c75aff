package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// mockBotAPI mimics the Telegram Bot API endpoints used by the notifier
type mockBotAPI struct {
	mu       sync.Mutex
	messages []map[string]string
	failSend bool
}

func (m *mockBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"id": 1, "is_bot": true, "first_name": "Tracker", "username": "tracker_bot"},
		})
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		fail := m.failSend
		if !fail {
			m.messages = append(m.messages, map[string]string{
				"chat_id": r.FormValue("chat_id"),
				"text":    r.FormValue("text"),
			})
		}
		m.mu.Unlock()

		if fail {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"ok": false, "error_code": 400, "description": "Bad Request: chat not found",
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": map[string]interface{}{
				"message_id": 7,
				"date":       time.Now().Unix(),
				"chat":       map[string]interface{}{"id": -100, "type": "group"},
			},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestTelegramNotifier(t *testing.T, api *mockBotAPI) *TelegramNotifier {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	n, err := NewTelegramNotifier("test-token", -100, server.URL+"/bot%s/%s", 2*time.Second, newTestRegistry(t), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create telegram notifier: %v", err)
	}
	return n
}

func TestTelegramNotifierSendsMessage(t *testing.T) {
	api := &mockBotAPI{}
	n := newTestTelegramNotifier(t, api)

	balance := "0.5"
	if err := n.Notify(context.Background(), testEvent(&balance)); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(api.messages))
	}
	if api.messages[0]["chat_id"] != "-100" {
		t.Errorf("Expected chat -100, got %s", api.messages[0]["chat_id"])
	}
	if !strings.Contains(api.messages[0]["text"], "Balance: 0.5 ETH") {
		t.Errorf("Unexpected message text %q", api.messages[0]["text"])
	}
}

func TestTelegramNotifierDeliveryFailed(t *testing.T) {
	api := &mockBotAPI{failSend: true}
	n := newTestTelegramNotifier(t, api)

	err := n.Notify(context.Background(), testEvent(nil))
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("Expected ErrDeliveryFailed, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Notify(ctx, testEvent(nil)); !errors.Is(err, ErrDeliveryFailed) {
		t.Errorf("Expected ErrDeliveryFailed for cancelled context, got %v", err)
	}
}

func TestNewTelegramNotifierRejectsBadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error_code": 401, "description": "Unauthorized"})
	}))
	defer server.Close()

	_, err := NewTelegramNotifier("bad", 1, server.URL+"/bot%s/%s", time.Second, newTestRegistry(t), zap.NewNop())
	if !errors.Is(err, ErrBotUnauthorized) {
		t.Fatalf("Expected ErrBotUnauthorized, got %v", err)
	}

	if _, err := NewTelegramSink("bad", 1, server.URL+"/bot%s/%s", time.Second, newTestRegistry(t), zap.NewNop()); !errors.Is(err, ErrBotUnauthorized) {
		t.Errorf("Expected sink construction to fail on a rejected token, got %v", err)
	}
}

func TestNewTelegramSinkFallsBackWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL + "/bot%s/%s"
	server.Close()

	sink, err := NewTelegramSink("test-token", -100, endpoint, time.Second, newTestRegistry(t), zap.NewNop())
	if err != nil {
		t.Fatalf("Expected fallback instead of error, got %v", err)
	}
	if sink.Name != "log" {
		t.Errorf("Expected log sink, got %s", sink.Name)
	}
	if _, ok := sink.Notifier.(*LogNotifier); !ok {
		t.Errorf("Expected *LogNotifier, got %T", sink.Notifier)
	}
}

func TestNewTelegramSink(t *testing.T) {
	server := httptest.NewServer(&mockBotAPI{})
	defer server.Close()

	sink, err := NewTelegramSink("test-token", -100, server.URL+"/bot%s/%s", time.Second, newTestRegistry(t), zap.NewNop())
	if err != nil {
		t.Fatalf("NewTelegramSink failed: %v", err)
	}
	if sink.Name != "telegram" {
		t.Errorf("Expected telegram sink, got %s", sink.Name)
	}
}
