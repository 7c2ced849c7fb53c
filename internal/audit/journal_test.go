package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type memoryStorage struct {
	mu      sync.Mutex
	events  []DealEvent
	batches int
	err     error
}

func (m *memoryStorage) WriteBatch(_ context.Context, events []DealEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *memoryStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestJournal_StopFlushesBuffer(t *testing.T) {
	store := &memoryStorage{}
	j := NewJournal(store, Options{FlushInterval: time.Hour, BatchSize: 1000}, zap.NewNop())
	j.Start()

	for i := 0; i < 250; i++ {
		j.Log(DealEvent{PolicyID: "p1", Status: StatusApplied})
	}
	j.Stop()

	if got := store.count(); got != 250 {
		t.Fatalf("stored %d events, want 250", got)
	}
	for _, e := range store.events {
		if e.Timestamp.IsZero() {
			t.Fatal("timestamp must be filled in")
		}
	}
}

func TestJournal_BatchesBySize(t *testing.T) {
	store := &memoryStorage{}
	j := NewJournal(store, Options{FlushInterval: time.Hour, BatchSize: 10}, zap.NewNop())
	j.Start()

	for i := 0; i < 30; i++ {
		j.Log(DealEvent{Status: StatusApplied})
	}
	j.Stop()

	if store.batches != 3 {
		t.Errorf("batches = %d, want 3", store.batches)
	}
}

func TestJournal_LogAfterStopIsDropped(t *testing.T) {
	store := &memoryStorage{}
	j := NewJournal(store, Options{}, zap.NewNop())
	j.Start()
	j.Stop()
	j.Stop() // повторный Stop не паникует

	j.Log(DealEvent{Status: StatusApplied})
	if store.count() != 0 {
		t.Error("events after Stop must be dropped")
	}
}

func TestJournal_OverflowDoesNotBlock(t *testing.T) {
	store := &memoryStorage{}
	// Воркер не запущен, буфер на 2 события
	j := NewJournal(store, Options{BufferSize: 2}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			j.Log(DealEvent{Status: StatusApplied})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Log blocked on a full buffer")
	}
	if len(j.ch) != 2 {
		t.Errorf("buffer holds %d events, want 2", len(j.ch))
	}
}

func TestJournal_StorageErrorIsNotFatal(t *testing.T) {
	store := &memoryStorage{err: errors.New("db down")}
	j := NewJournal(store, Options{}, zap.NewNop())
	j.Start()
	j.Log(DealEvent{Status: StatusApplied})
	j.Stop()

	if store.batches != 1 {
		t.Errorf("batches = %d, want 1", store.batches)
	}
}
