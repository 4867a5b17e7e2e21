package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/logging"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   nil,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(logging.Discard())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 2)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(logging.Discard())
	c := mockClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got, true
	case <-time.After(50 * time.Millisecond):
		return Message{}, false
	}
}

func TestNotifyReachesOnlyRecipients(t *testing.T) {
	hub := NewHub(logging.Discard())

	alicePhone := mockClient(hub, 1)
	aliceTablet := mockClient(hub, 1)
	bob := mockClient(hub, 2)
	carol := mockClient(hub, 3)
	for _, c := range []*Client{alicePhone, aliceTablet, bob, carol} {
		hub.Register(c)
	}

	hub.Notify("shopping_item", "created", 42, []int64{1, 2})

	for _, c := range []*Client{alicePhone, aliceTablet, bob} {
		got, ok := receive(t, c)
		if !ok {
			t.Fatalf("user %d: timeout waiting for message", c.userID)
		}
		if got.Type != "shopping_item_created" {
			t.Errorf("expected type shopping_item_created, got %s", got.Type)
		}
		if got.Entity != "shopping_item" {
			t.Errorf("expected entity shopping_item, got %s", got.Entity)
		}
		if got.ID != 42 {
			t.Errorf("expected id 42, got %d", got.ID)
		}
	}

	if got, ok := receive(t, carol); ok {
		t.Errorf("user outside the audience received %+v", got)
	}
}

func TestNotifyNoRecipients(t *testing.T) {
	hub := NewHub(logging.Discard())
	c := mockClient(hub, 1)
	hub.Register(c)

	hub.Notify("todo", "deleted", 1, nil)

	if got, ok := receive(t, c); ok {
		t.Errorf("expected nothing, got %+v", got)
	}
}

func TestSendEmptyHub(t *testing.T) {
	hub := NewHub(logging.Discard())
	// Should not panic
	hub.Send(NewMessage("mood", "updated", 1), []int64{1})
}

func TestSendFullBuffer(t *testing.T) {
	hub := NewHub(logging.Discard())

	c := mockClient(hub, 7)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.Send(NewMessage("test", "fill", int64(i)), []int64{7})
	}

	// This should drop the message, not panic or block
	hub.Send(NewMessage("test", "dropped", 999), []int64{7})

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("todo_list", "updated", 5)
	if msg.Type != "todo_list_updated" {
		t.Errorf("expected type todo_list_updated, got %s", msg.Type)
	}
	if msg.Entity != "todo_list" {
		t.Errorf("expected entity todo_list, got %s", msg.Entity)
	}
	if msg.Action != "updated" {
		t.Errorf("expected action updated, got %s", msg.Action)
	}
	if msg.ID != 5 {
		t.Errorf("expected id 5, got %d", msg.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(logging.Discard())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			c := mockClient(hub, id)
			hub.Register(c)
			hub.Notify("test", "concurrent", 0, []int64{id, id + 1})
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}(int64(i))
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}

func TestHandleWebSocketRequiresActor(t *testing.T) {
	hub := NewHub(logging.Discard())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)

	HandleWebSocket(hub, logging.Discard())(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
