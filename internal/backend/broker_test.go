package backend

import (
	"encoding/json"
	"testing"
)

func TestBrokerDeliversToMatchingTopicOnly(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	status, cancelStatus := b.Subscribe(TopicPlaybackStatus)
	defer cancelStatus()
	art, cancelArt := b.Subscribe(TopicAlbumArt)
	defer cancelArt()

	b.Publish(Event{Topic: TopicPlaybackStatus, Payload: json.RawMessage(`{}`)})

	select {
	case ev := <-status:
		if ev.Topic != TopicPlaybackStatus {
			t.Errorf("wrong topic delivered: %s", ev.Topic)
		}
	default:
		t.Fatal("status subscriber received nothing")
	}

	select {
	case <-art:
		t.Error("album art subscriber received a playback event")
	default:
	}
}

func TestBrokerPreservesPerTopicOrder(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, cancel := b.Subscribe(TopicPlaybackStatus)
	defer cancel()

	for i := 0; i < 5; i++ {
		payload, _ := json.Marshal(i)
		b.Publish(Event{Topic: TopicPlaybackStatus, Payload: payload})
	}

	for want := 0; want < 5; want++ {
		ev := <-ch
		var got int
		if err := json.Unmarshal(ev.Payload, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got != want {
			t.Fatalf("out of order: expected %d, got %d", want, got)
		}
	}
}

func TestBrokerSlowSubscriberDropsOldest(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, cancel := b.Subscribe(TopicPlaybackStatus)
	defer cancel()

	// Overflow the buffer without draining.
	for i := 0; i < subBuffer+3; i++ {
		payload, _ := json.Marshal(i)
		b.Publish(Event{Topic: TopicPlaybackStatus, Payload: payload})
	}

	// Drain everything queued; the newest event must have survived.
	var last int
	for {
		select {
		case ev := <-ch:
			json.Unmarshal(ev.Payload, &last)
			continue
		default:
		}
		break
	}
	if last != subBuffer+2 {
		t.Errorf("newest event lost: last received %d", last)
	}
}

func TestBrokerCancelStopsDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ch, cancel := b.Subscribe(TopicPlaybackStatus)
	cancel()
	cancel() // idempotent

	b.Publish(Event{Topic: TopicPlaybackStatus})

	if _, open := <-ch; open {
		t.Error("expected closed channel after cancel")
	}
}

func TestBrokerCloseIsIdempotent(t *testing.T) {
	b := NewBroker()
	ch, _ := b.Subscribe(TopicError)

	b.Close()
	b.Close()
	b.Publish(Event{Topic: TopicError}) // must not panic on closed channels

	if _, open := <-ch; open {
		t.Error("expected subscriber channel closed after broker close")
	}
}

func TestBrokerSubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	b := NewBroker()
	b.Close()

	ch, cancel := b.Subscribe(TopicPlaybackStatus)
	cancel()
	if _, open := <-ch; open {
		t.Error("expected closed channel when subscribing after close")
	}
}
