package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	want := Message{Type: "absence_alert", Body: []byte(`{"phone":"9876543210"}`)}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	select {
	case got := <-messages:
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	tests := []Message{
		{Type: "otp", Body: []byte(`{"phone":"9876500001","code":"123456"}`)},
		{Type: "absence_alert", Body: []byte("body|with|pipes")},
		{Type: "x", Body: nil},
	}
	for _, want := range tests {
		got, err := deserialize(serialize(want))
		if err != nil {
			t.Fatalf("deserialize: %v", err)
		}
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Errorf("round trip %+v -> %+v", want, got)
		}
	}
}

func TestDeserializeWithoutType(t *testing.T) {
	got, err := deserialize("no separator here")
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.Type != "" || string(got.Body) != "no separator here" {
		t.Errorf("got %+v", got)
	}
}
