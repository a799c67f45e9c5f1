package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionCancel(t *testing.T) {
	s := NewSession(context.Background())
	assert.False(t, s.IsDone())
	s.Cancel()
	assert.True(t, s.IsDone())
}

func TestTopicFanout(t *testing.T) {
	topic := NewTopic[int]()
	a := topic.Subscribe()
	b := topic.Subscribe()
	defer a.Done()
	defer b.Done()

	topic.Publish(42)

	for _, sub := range []*Subscriber[int]{a, b} {
		select {
		case v := <-sub.Recv():
			assert.Equal(t, 42, v)
		case <-time.After(time.Second):
			t.Fatal("subscriber never received value")
		}
	}
}

func TestTopicDoesNotBlockOnSlowSubscriber(t *testing.T) {
	topic := NewTopic[int]()
	sub := topic.Subscribe()
	defer sub.Done()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			topic.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a subscriber that never reads")
	}
}

func TestTopicUnsubscribe(t *testing.T) {
	topic := NewTopic[string]()
	sub := topic.Subscribe()
	sub.Done()
	topic.Publish("after")

	select {
	case v := <-sub.Recv():
		t.Fatalf("received %q after Done", v)
	default:
	}
}
