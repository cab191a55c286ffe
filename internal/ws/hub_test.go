package ws

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func TestHub_PublishOnlyToOwner(t *testing.T) {
	h := NewHub()
	a := &Client{UserID: 1, Send: make(chan []byte, 4), hub: h}
	a2 := &Client{UserID: 1, Send: make(chan []byte, 4), hub: h}
	b := &Client{UserID: 2, Send: make(chan []byte, 4), hub: h}
	h.Register(a)
	h.Register(a2)
	h.Register(b)

	h.Publish(1, "transaction", map[string]int{"id": 5})

	for _, c := range []*Client{a, a2} {
		select {
		case msg := <-c.Send:
			var ev struct {
				Type string         `json:"type"`
				Data map[string]int `json:"data"`
			}
			if err := json.Unmarshal(msg, &ev); err != nil || ev.Type != "transaction" || ev.Data["id"] != 5 {
				t.Fatalf("event = %s, %v", msg, err)
			}
		default:
			t.Fatal("owner did not receive event")
		}
	}
	if len(b.Send) != 0 {
		t.Fatal("event leaked to another user")
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	h := NewHub()
	c := &Client{UserID: 1, Send: make(chan []byte, 1), hub: h}
	h.Register(c)

	h.Publish(1, "transaction", 1)
	h.Publish(1, "transaction", 2)

	if h.ConnectionCount(1) != 0 {
		t.Fatal("slow client still registered")
	}
	// канал закрыт, второй Unregister не паникует
	h.Unregister(c)
}

type staticTokens map[string]int64

func (s staticTokens) ValidateToken(token string) (int64, bool, error) {
	if id, ok := s[token]; ok {
		return id, false, nil
	}
	return 0, false, errors.New("bad token")
}

func TestHandleWS_DeliversEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", NewWSHandler(hub, staticTokens{"good": 9}, []string{"*"}).HandleWS())
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	if _, resp, err := websocket.DefaultDialer.Dial(url+"?token=bad", nil); err == nil || resp == nil || resp.StatusCode != 401 {
		t.Fatalf("bad token: err=%v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectionCount(9) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.Publish(9, "withdrawal", map[string]string{"status": "completed"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got []string
	for len(got) < 2 {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		got = append(got, string(msg))
	}
	if got[0] != `{"type":"ready"}` || !strings.Contains(got[1], `"status":"completed"`) {
		t.Fatalf("messages = %v", got)
	}
}
