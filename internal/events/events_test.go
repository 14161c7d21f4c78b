package events

import (
	"errors"
	"testing"
	"time"

	"github.com/ytget/ryt/internal/model"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventJobUpdated)

	bus.PublishJob(model.Job{ID: 1, URL: "https://example.com/a", Progress: 42}, model.JobStatusDownloading)

	select {
	case received := <-ch:
		ev, ok := received.(*JobEvent)
		if !ok {
			t.Fatal("Expected JobEvent")
		}
		if ev.Job.ID != 1 {
			t.Errorf("Expected job id 1, got %d", ev.Job.ID)
		}
		if ev.Job.Progress != 42 {
			t.Errorf("Expected progress 42, got %f", ev.Job.Progress)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_SubscribeAllReceivesEveryType(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.SubscribeAll()

	bus.PublishJob(model.Job{ID: 1}, model.JobStatusDownloading)
	bus.PublishHistory(EventHistoryRefreshed, 3, nil)

	got := make([]EventType, 0, 2)
	for i := 0; i < 2; i++ {
		select {
		case ev := <-ch:
			got = append(got, ev.Type())
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for event %d", i)
		}
	}

	if got[0] != EventJobUpdated || got[1] != EventHistoryRefreshed {
		t.Errorf("Unexpected event order: %v", got)
	}
}

func TestEventBus_TypeFiltering(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventHistoryCleared)
	bus.PublishJob(model.Job{ID: 1}, model.JobStatusDownloading)

	select {
	case ev := <-ch:
		t.Errorf("Did not expect event, got %s", ev.Type())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	_ = bus.Subscribe(EventJobUpdated)
	bus.PublishJob(model.Job{ID: 1}, model.JobStatusDownloading)
	bus.PublishJob(model.Job{ID: 2}, model.JobStatusDownloading)

	if dropped := bus.GetDroppedEventCount(); dropped != 1 {
		t.Errorf("Expected 1 dropped event, got %d", dropped)
	}
}

func TestEventBus_CloseClosesChannels(t *testing.T) {
	bus := NewEventBus(10)
	ch := bus.Subscribe(EventJobUpdated)
	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed")
	}

	// Publishing after close must not panic
	bus.PublishHistory(EventHistoryCleared, 0, errors.New("ignored"))

	late := bus.Subscribe(EventJobUpdated)
	if _, ok := <-late; ok {
		t.Error("Expected subscription on closed bus to be closed")
	}
}

func TestEventBus_UnsubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.SubscribeAll()
	bus.UnsubscribeAll(ch)

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after unsubscribe")
	}

	bus.PublishJob(model.Job{ID: 1}, model.JobStatusDownloading)
	if dropped := bus.GetDroppedEventCount(); dropped != 0 {
		t.Errorf("Expected no drops after unsubscribe, got %d", dropped)
	}
}

func TestNewEventBus_BufferBounds(t *testing.T) {
	if bus := NewEventBus(0); bus.bufferSize != DefaultBufferSize {
		t.Errorf("Expected default buffer %d, got %d", DefaultBufferSize, bus.bufferSize)
	}
	if bus := NewEventBus(MaxBufferSize * 2); bus.bufferSize != MaxBufferSize {
		t.Errorf("Expected max buffer %d, got %d", MaxBufferSize, bus.bufferSize)
	}
}
