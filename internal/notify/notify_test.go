package notify

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestStubEmailNotifierSend(t *testing.T) {
	n := NewStubEmailNotifier(zap.NewNop())

	res, err := n.Send(context.Background(), Message{
		Recipient: "warden@example.com",
		Subject:   "Test Alert",
		Body:      "coastal monitor test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Channel != ChannelEmail {
		t.Errorf("want email channel, got %q", res.Channel)
	}
	if res.Recipient != "warden@example.com" {
		t.Errorf("want recipient echoed, got %q", res.Recipient)
	}
	if res.Status != "simulated" {
		t.Errorf("want simulated status, got %q", res.Status)
	}
	if res.SimulatedAt.IsZero() {
		t.Error("simulatedAt must be set")
	}
}

func TestStubSMSNotifierSend(t *testing.T) {
	n := NewStubSMSNotifier(zap.NewNop())

	res, err := n.Send(context.Background(), Message{Recipient: "+919900000001", Body: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Channel != ChannelSMS {
		t.Errorf("want sms channel, got %q", res.Channel)
	}
	if res.Status != "simulated" {
		t.Errorf("want simulated status, got %q", res.Status)
	}
}

func TestSendHonorsCancelledContext(t *testing.T) {
	n := NewStubSMSNotifier(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := n.Send(ctx, Message{Recipient: "+919900000001", Body: "test"}); err == nil {
		t.Fatal("want error on cancelled context")
	}
}

func TestDispatcherTestAllFansOut(t *testing.T) {
	d := NewDispatcher(
		[]Notifier{NewStubEmailNotifier(zap.NewNop()), NewStubSMSNotifier(zap.NewNop())},
		[]string{"a@example.com", "b@example.com"},
		[]string{"+919900000001"},
	)

	results := d.TestAll(context.Background(), "Test Alert", "test body")

	if len(results) != 3 {
		t.Fatalf("want 3 results (2 email + 1 sms), got %d", len(results))
	}
	byChannel := map[string]int{}
	for _, r := range results {
		byChannel[r.Channel]++
		if r.Status != "simulated" {
			t.Errorf("want simulated status for %s/%s, got %q", r.Channel, r.Recipient, r.Status)
		}
	}
	if byChannel[ChannelEmail] != 2 || byChannel[ChannelSMS] != 1 {
		t.Errorf("unexpected channel distribution: %v", byChannel)
	}
}

func TestDispatcherWithNoRecipients(t *testing.T) {
	d := NewDispatcher([]Notifier{NewStubEmailNotifier(zap.NewNop())}, nil, nil)

	results := d.TestAll(context.Background(), "Test Alert", "test body")
	if len(results) != 0 {
		t.Fatalf("want no results, got %d", len(results))
	}
}
