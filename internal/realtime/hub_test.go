package realtime

import (
	"strconv"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestClient(eventID uuid.UUID, id string) *Client {
	return &Client{
		ID:      id,
		EventID: eventID,
		UserID:  uuid.New(),
		send:    make(chan WSMessage, 8),
		logger:  zap.NewNop(),
	}
}

func TestBroadcastDeliversToRoom(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	eventID := uuid.New()
	other := uuid.New()

	in := newTestClient(eventID, "in-room")
	out := newTestClient(other, "other-room")
	hub.Register(in)
	hub.Register(out)

	hub.Broadcast(eventID, EventRSVPRequested, map[string]string{"id": "r1"})

	select {
	case msg := <-in.send:
		if msg.Event != EventRSVPRequested {
			t.Errorf("event = %q, want %q", msg.Event, EventRSVPRequested)
		}
	default:
		t.Fatal("client in room received nothing")
	}
	select {
	case msg := <-out.send:
		t.Fatalf("client in other room received %q", msg.Event)
	default:
	}
}

func TestRoomSize(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	eventID := uuid.New()

	a := newTestClient(eventID, "a")
	b := newTestClient(eventID, "b")
	hub.Register(a)
	hub.Register(b)
	if n := hub.RoomSize(eventID); n != 2 {
		t.Errorf("RoomSize = %d, want 2", n)
	}
	hub.Unregister(a)
	if n := hub.RoomSize(eventID); n != 1 {
		t.Errorf("RoomSize after unregister = %d, want 1", n)
	}
	hub.Unregister(b)
	if n := hub.RoomSize(eventID); n != 0 {
		t.Errorf("RoomSize after last leave = %d, want 0", n)
	}
}

func TestBroadcastDuringMembershipChurn(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	eventID := uuid.New()

	var wg sync.WaitGroup
	const workers = 4
	const rounds = 500

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				c := newTestClient(eventID, strconv.Itoa(w)+"-"+strconv.Itoa(i))
				hub.Register(c)
				hub.Unregister(c)
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < workers*rounds; i++ {
			hub.Broadcast(eventID, EventRSVPDecided, nil)
		}
	}()
	wg.Wait()

	if n := hub.RoomSize(eventID); n != 0 {
		t.Errorf("RoomSize after churn = %d, want 0", n)
	}
}
