package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jengzang/location-bridge-go/internal/models"
)

func TestHubEmit(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register()
	defer hub.Unregister(client)

	hub.Emit(models.EventLocationChanged, models.LocationEvent{WatchID: 3})

	select {
	case msg := <-client.Send:
		var env struct {
			Event string              `json:"event"`
			Data  models.LocationEvent `json:"data"`
		}
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Event != models.EventLocationChanged || env.Data.WatchID != 3 {
			t.Fatalf("unexpected envelope %s", msg)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubFilter(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register(models.EventHeadingChanged)
	defer hub.Unregister(client)

	hub.Emit(models.EventLocationChanged, nil)
	hub.Emit(models.EventHeadingChanged, nil)

	msg := <-client.Send
	if !strings.Contains(string(msg), models.EventHeadingChanged) {
		t.Fatalf("expected only heading events, got %s", msg)
	}
	select {
	case extra := <-client.Send:
		t.Fatalf("unexpected message %s", extra)
	default:
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register()
	hub.Unregister(client)
	hub.Unregister(client)

	if _, ok := <-client.Send; ok {
		t.Fatalf("expected channel closed")
	}
	if hub.Clients() != 0 {
		t.Fatalf("expected no clients")
	}
}

func TestSlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register()
	defer hub.Unregister(client)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Emit(models.EventLocationChanged, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a slow client")
	}
	if len(client.Send) != cap(client.Send) {
		t.Fatalf("expected a full buffer, got %d", len(client.Send))
	}
}

func TestHandlerWebsocketStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	r := gin.New()
	r.GET("/events", Handler(hub))

	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events?events=locationChanged"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	hub.Emit(models.EventHeadingChanged, nil)
	hub.Emit(models.EventLocationChanged, models.LocationEvent{WatchID: 8})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !strings.Contains(string(msg), `"watchId":8`) {
		t.Fatalf("unexpected message %s", msg)
	}

	conn.Close()
	deadline = time.Now().Add(time.Second)
	for hub.Clients() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Clients() != 0 {
		t.Fatal("disconnected client was not unregistered")
	}
}

func TestHandlerUpgradeRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/events", Handler(NewHub(nil)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	if w.Code == http.StatusOK {
		t.Fatalf("expected non-200 for non-websocket request")
	}
}
