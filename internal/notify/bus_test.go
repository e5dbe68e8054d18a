package notify

import (
	"sync"
	"testing"
	"time"
)

func TestPublishFansOutToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	first, cancelFirst := bus.Subscribe(4)
	defer cancelFirst()
	second, cancelSecond := bus.Subscribe(4)
	defer cancelSecond()

	if got := bus.Publish(Notice{Title: "签到成功"}); got != 2 {
		t.Fatalf("expected 2 deliveries, got %d", got)
	}

	for _, ch := range []<-chan Notice{first, second} {
		select {
		case n := <-ch:
			if n.Title != "签到成功" || n.Level != LevelInfo || n.At.IsZero() {
				t.Fatalf("unexpected notice %+v", n)
			}
		case <-time.After(time.Second):
			t.Fatalf("expected notice to be delivered")
		}
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	if got := bus.Publish(Notice{Title: "a"}); got != 1 {
		t.Fatalf("expected first publish delivered, got %d", got)
	}
	if got := bus.Publish(Notice{Title: "b"}); got != 0 {
		t.Fatalf("expected second publish dropped, got %d", got)
	}
	if n := <-ch; n.Title != "a" {
		t.Fatalf("expected first notice kept, got %q", n.Title)
	}
}

func TestCancelClosesChannelAndIsIdempotent(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe(1)

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
	if got := bus.Publish(Notice{Title: "x"}); got != 0 {
		t.Fatalf("expected no deliveries after cancel, got %d", got)
	}
}

func TestCloseStopsSubscriptions(t *testing.T) {
	bus := NewBus(nil)
	ch, cancel := bus.Subscribe(1)
	bus.Close()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed by bus close")
	}
	late, _ := bus.Subscribe(1)
	if _, ok := <-late; ok {
		t.Fatalf("expected late subscription to be closed")
	}
}

func TestConcurrentPublishAndCancel(t *testing.T) {
	bus := NewBus(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, cancel := bus.Subscribe(2)
			for j := 0; j < 20; j++ {
				bus.Publish(Notice{Title: "tick"})
			}
			cancel()
		}()
	}
	wg.Wait()
}
