package websocket

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/internal/scan"
)

func testHubConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		Enabled:             true,
		Path:                "/ws",
		BroadcastDetections: true,
		BroadcastSystem:     true,
		BroadcastConnects:   true,
	}
}

func TestShouldBroadcastEvent(t *testing.T) {
	cfg := testHubConfig()
	cfg.BroadcastDetections = false
	hub := NewHub(cfg, zap.NewNop())

	if hub.shouldBroadcastEvent(EventTypeDetection) {
		t.Error("Detection events should be gated off")
	}
	if !hub.shouldBroadcastEvent(EventTypeSystemStatus) {
		t.Error("System events should pass")
	}
	if hub.shouldBroadcastEvent("unknown") {
		t.Error("Unknown event types should never broadcast")
	}
}

func TestShouldSendToClient(t *testing.T) {
	hub := NewHub(testHubConfig(), zap.NewNop())
	event := Event{Type: EventTypeDetection, Timestamp: time.Now()}

	t.Run("NoSubscriptionReceivesAll", func(t *testing.T) {
		client := &Client{}
		if !hub.shouldSendToClient(client, event) {
			t.Error("Unfiltered client should receive every event")
		}
	})

	t.Run("SubscriptionFilters", func(t *testing.T) {
		client := &Client{Subscription: &SubscriptionRequest{
			Events: []EventType{EventTypeSystemStatus},
		}}
		if hub.shouldSendToClient(client, event) {
			t.Error("Client subscribed to system events received a detection")
		}

		client.Subscription.Events = append(client.Subscription.Events, EventTypeDetection)
		if !hub.shouldSendToClient(client, event) {
			t.Error("Subscribed client did not receive the event")
		}
	})
}

func TestBroadcastEventQueues(t *testing.T) {
	hub := NewHub(testHubConfig(), zap.NewNop())

	hub.BroadcastEvent(Event{Type: EventTypeDetection, Timestamp: time.Now()})
	select {
	case event := <-hub.broadcast:
		if event.Type != EventTypeDetection {
			t.Errorf("Queued event type = %q", event.Type)
		}
	default:
		t.Fatal("Event was not queued")
	}
}

// Registration spawns a connection broadcast on its own goroutine, so slow
// clients can be evicted from two goroutines at once. Evictions mutate the
// client map; this exercises that path under the race detector.
func TestConcurrentBroadcastAndRegistration(t *testing.T) {
	hub := NewHub(testHubConfig(), zap.NewNop())
	go hub.Run()

	// Single-slot send buffers fill after one event, so every later
	// broadcast hits the eviction path.
	for i := 0; i < 25; i++ {
		hub.register <- &Client{
			ID:   fmt.Sprintf("slow-%d", i),
			Send: make(chan Event, 1),
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 25; i < 50; i++ {
			hub.register <- &Client{
				ID:   fmt.Sprintf("late-%d", i),
				Send: make(chan Event, 1),
			}
		}
	}()
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				hub.BroadcastEvent(Event{Type: EventTypeDetection, Timestamp: time.Now()})
			}
		}()
	}
	wg.Wait()

	// Wait for the hub loop to drain the queued broadcasts.
	deadline := time.Now().Add(2 * time.Second)
	for len(hub.broadcast) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	stats := hub.GetStats()
	if stats.TotalConnections != 50 {
		t.Errorf("TotalConnections = %d, want 50", stats.TotalConnections)
	}
	if stats.ActiveConnections < 0 || stats.ActiveConnections > 50 {
		t.Errorf("ActiveConnections = %d, want 0..50", stats.ActiveConnections)
	}
}

func TestNewDetectionEvent(t *testing.T) {
	var matches scan.MatchSet
	matches.Add("email", "a@b.com")
	matches.Add("ssn", "123-45-6789")

	audit := scan.Event{
		Identity:  "tenant-a",
		Timestamp: time.Now(),
		Action:    scan.ActionScan,
		Severity:  scan.SeverityMedium,
		Matches:   matches,
		FileNames: "contacts.txt",
	}

	event := NewDetectionEvent(audit)
	data, ok := event.Data.(DetectionEvent)
	if !ok {
		t.Fatalf("Data has type %T", event.Data)
	}
	if data.Identity != "tenant-a" || data.FileNames != "contacts.txt" {
		t.Errorf("Data = %+v", data)
	}
	if len(data.PatternNames) != 2 {
		t.Errorf("PatternNames = %v", data.PatternNames)
	}
	// The live feed must never carry matched literals
	if data.PatternNames[0] != "email" && data.PatternNames[0] != "ssn" {
		t.Errorf("Unexpected pattern name %q", data.PatternNames[0])
	}
}
