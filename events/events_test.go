package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestPublishFanout(t *testing.T) {
	bus := NewBus()

	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish("session_started", map[string]string{"sessionId": "abc"})

	for _, sub := range []chan Event{a, b} {
		select {
		case event := <-sub:
			if event.Type != "session_started" {
				t.Errorf("expected event type 'session_started', got %q", event.Type)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for the event")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()

	sub := bus.Subscribe()
	bus.Unsubscribe(sub)

	if _, open := <-sub; open {
		t.Fatal("expected the channel to be closed")
	}

	// Publishing after unsubscribe must not panic.
	bus.Publish("session_started", nil)
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()

	sub := bus.Subscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			bus.Publish("tick", i)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	bus.Unsubscribe(sub)
}

func TestWSHubStreamsEvents(t *testing.T) {
	bus := NewBus()
	hub := NewWSHub(bus)

	svr := httptest.NewServer(hub)
	defer svr.Close()

	url := "ws" + strings.TrimPrefix(svr.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	// Wait for the hub to register the connection.
	deadline := time.Now().Add(5 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the client to register")
		}
		time.Sleep(10 * time.Millisecond)
	}

	bus.Publish("session_started", map[string]string{"sessionId": "abc"})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatal(err)
	}

	if event.Type != "session_started" {
		t.Errorf("expected event type 'session_started', got %q", event.Type)
	}
}
