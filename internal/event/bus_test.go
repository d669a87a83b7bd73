package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var received Event
	var wg sync.WaitGroup
	wg.Add(1)

	unsub := bus.Subscribe(ParameterResolved, func(e Event) {
		received = e
		wg.Done()
	})
	defer unsub()

	err := bus.Publish(ParameterResolved, ParameterResolvedData{
		Namespace: "globals",
		Name:      "owner",
		Source:    "env",
		Value:     "acme",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitFor(t, &wg)
	if received.Type != ParameterResolved {
		t.Errorf("Expected %s, got %v", ParameterResolved, received.Type)
	}
	if received.ID == "" {
		t.Error("Expected an event ID")
	}

	var data ParameterResolvedData
	if err := received.Decode(&data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if data.Name != "owner" || data.Value != "acme" {
		t.Errorf("Unexpected payload %+v", data)
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int32
	var wg sync.WaitGroup
	wg.Add(3)

	unsub := bus.SubscribeAll(func(e Event) {
		atomic.AddInt32(&count, 1)
		wg.Done()
	})
	defer unsub()

	bus.Publish(ParameterResolved, nil)
	bus.Publish(NamespaceSynced, NamespaceSyncedData{Namespace: "docker"})
	bus.Publish(FileWritten, FileData{Path: "LICENSE"})

	waitFor(t, &wg)
	if atomic.LoadInt32(&count) != 3 {
		t.Errorf("Expected 3 events, got %d", count)
	}
}

func TestBus_FiltersByType(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var skipped int32
	bus.Subscribe(FileSkipped, func(e Event) {
		atomic.AddInt32(&skipped, 1)
	})

	bus.Publish(FileWritten, FileData{Path: "README.md"})
	bus.Publish(FileSkipped, FileData{Path: "LICENSE", Reason: "exists"})

	// Publish blocks until subscribers acked
	if n := atomic.LoadInt32(&skipped); n != 1 {
		t.Errorf("Expected 1 file.skipped event, got %d", n)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count int32
	unsub := bus.Subscribe(FileWritten, func(e Event) {
		atomic.AddInt32(&count, 1)
	})

	bus.Publish(FileWritten, FileData{Path: "a"})
	unsub()
	time.Sleep(50 * time.Millisecond)
	bus.Publish(FileWritten, FileData{Path: "b"})

	if n := atomic.LoadInt32(&count); n != 1 {
		t.Errorf("Expected 1 event after unsubscribe, got %d", n)
	}
}

func TestBus_Nil(t *testing.T) {
	var bus *Bus
	if err := bus.Publish(FileWritten, FileData{Path: "a"}); err != nil {
		t.Errorf("Publish on nil bus: %v", err)
	}
	bus.Subscribe(FileWritten, func(Event) {})()
	if err := bus.Close(); err != nil {
		t.Errorf("Close on nil bus: %v", err)
	}
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	bus.SubscribeAll(func(Event) {})

	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
	if err := bus.Publish(FileWritten, FileData{Path: "a"}); err != nil {
		t.Errorf("Publish after Close: %v", err)
	}
}

func TestBus_UnencodablePayload(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	if err := bus.Publish(FileWritten, make(chan int)); err == nil {
		t.Error("Expected an encoding error")
	}
}

func waitFor(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for events")
	}
}
