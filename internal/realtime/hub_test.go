package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/curiofm/curio-backend/internal/platform/logger"
)

func recvMessage(t *testing.T, ch <-chan Message, timeout time.Duration) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for realtime message")
	}
	return Message{}
}

func TestHubBroadcastOrderingAndReconnect(t *testing.T) {
	hub := NewHub(logger.Nop())

	a := hub.NewClient()
	hub.Subscribe(a, FeedChannel)
	hub.Broadcast(Message{Channel: FeedChannel, Event: EventTrackShared, Data: map[string]any{"seq": 1}})
	hub.Broadcast(Message{Channel: FeedChannel, Event: EventTipRecorded, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, a.Outbound, time.Second); got.Event != EventTrackShared {
		t.Fatalf("first event: want=%s got=%s", EventTrackShared, got.Event)
	}
	if got := recvMessage(t, a.Outbound, time.Second); got.Event != EventTipRecorded {
		t.Fatalf("second event: want=%s got=%s", EventTipRecorded, got.Event)
	}

	hub.Close(a)
	hub.Close(a)
	if _, ok := <-a.Outbound; ok {
		t.Fatalf("outbound should be closed after Close")
	}
	if n := hub.Subscribers(FeedChannel); n != 0 {
		t.Fatalf("subscribers after close: want 0 got %d", n)
	}

	b := hub.NewClient()
	hub.Subscribe(b, FeedChannel)
	hub.Broadcast(Message{Channel: FeedChannel, Event: EventCosignAdded})
	if got := recvMessage(t, b.Outbound, time.Second); got.Event != EventCosignAdded {
		t.Fatalf("reconnect event: want=%s got=%s", EventCosignAdded, got.Event)
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(logger.Nop())
	var drops int
	hub.OnDrop(func(string) { drops++ })

	c := hub.NewClient()
	hub.Subscribe(c, CuratorChannel(7))
	for i := 0; i < clientBuffer+3; i++ {
		hub.Broadcast(Message{Channel: "curator:7", Event: EventTipRecorded})
	}
	if drops != 3 {
		t.Fatalf("drops: want 3 got %d", drops)
	}
	if len(c.Outbound) != clientBuffer {
		t.Fatalf("buffer: want %d got %d", clientBuffer, len(c.Outbound))
	}
}

func TestHubServeWritesEvents(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := hub.NewClient()
	hub.Subscribe(c, FeedChannel)
	hub.Broadcast(Message{Channel: FeedChannel, Event: EventTrackShared, Data: map[string]any{"id": "x"}})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	hub.Serve(rec, req, c)

	body := rec.Body.String()
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: got %q", ct)
	}
	if !strings.Contains(body, "event: track.shared") {
		t.Fatalf("body missing event line: %q", body)
	}
	if !strings.Contains(body, `"channel":"feed"`) {
		t.Fatalf("body missing payload: %q", body)
	}
}
