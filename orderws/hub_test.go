package orderws

import (
	"encoding/json"
	"testing"
	"time"

	"mediloon/models"
	"mediloon/pipeline"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send: make(chan []byte, 10),
		Room: "sess-1",
	}
	hub.register <- client

	reply := pipeline.Reply{SessionID: "sess-1", Status: models.StatusInReview, Stage: models.StageSafety}
	hub.SessionUpdate("sess-1", reply)

	select {
	case got := <-client.Send:
		var decoded pipeline.Reply
		if err := json.Unmarshal(got, &decoded); err != nil {
			t.Fatalf("unmarshal update: %v", err)
		}
		if decoded.Status != models.StatusInReview || decoded.Stage != models.StageSafety {
			t.Fatalf("unexpected update %+v", decoded)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for update")
	}

	hub.unregister <- client
}

func TestHubUpdatesStayInRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	mine := &Client{Send: make(chan []byte, 10), Room: "sess-1"}
	other := &Client{Send: make(chan []byte, 10), Room: "sess-2"}
	hub.register <- mine
	hub.register <- other

	hub.SessionUpdate("sess-1", pipeline.Reply{SessionID: "sess-1", Status: models.StatusCommitted})

	select {
	case <-mine.Send:
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for update in own room")
	}

	select {
	case msg := <-other.Send:
		t.Fatalf("update leaked into another session's room: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
