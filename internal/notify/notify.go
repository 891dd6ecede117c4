// Package notify provides stub email and SMS notifiers for the
// test-communications endpoint. Messages are logged and counted but never
// leave the process; real SMTP/SMS delivery is out of scope.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/coastalguard/coastal-monitor/internal/observability"
)

// Notification channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Message is an alert to deliver on a channel.
type Message struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"` // email only
	Body      string `json:"body"`
}

// Result is the simulated delivery outcome for one recipient.
type Result struct {
	Channel     string    `json:"channel"`
	Recipient   string    `json:"recipient"`
	Status      string    `json:"status"`
	SimulatedAt time.Time `json:"simulatedAt"`
}

// Notifier simulates delivery of a message on one channel.
type Notifier interface {
	Channel() string
	Send(ctx context.Context, msg Message) (Result, error)
}

// StubEmailNotifier logs the message and reports simulated delivery.
type StubEmailNotifier struct {
	logger *zap.Logger
}

// NewStubEmailNotifier creates the email stub.
func NewStubEmailNotifier(logger *zap.Logger) *StubEmailNotifier {
	return &StubEmailNotifier{logger: logger}
}

// Channel returns "email".
func (n *StubEmailNotifier) Channel() string { return ChannelEmail }

// Send logs the message and returns a simulated result.
func (n *StubEmailNotifier) Send(ctx context.Context, msg Message) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	observability.NotificationsSimulatedTotal.WithLabelValues(ChannelEmail).Inc()
	if n.logger != nil {
		n.logger.Info("simulated email",
			zap.String("recipient", msg.Recipient),
			zap.String("subject", msg.Subject))
	}
	return Result{
		Channel:     ChannelEmail,
		Recipient:   msg.Recipient,
		Status:      "simulated",
		SimulatedAt: time.Now().UTC(),
	}, nil
}

// StubSMSNotifier logs the message and reports simulated delivery.
type StubSMSNotifier struct {
	logger *zap.Logger
}

// NewStubSMSNotifier creates the SMS stub.
func NewStubSMSNotifier(logger *zap.Logger) *StubSMSNotifier {
	return &StubSMSNotifier{logger: logger}
}

// Channel returns "sms".
func (n *StubSMSNotifier) Channel() string { return ChannelSMS }

// Send logs the message and returns a simulated result.
func (n *StubSMSNotifier) Send(ctx context.Context, msg Message) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	observability.NotificationsSimulatedTotal.WithLabelValues(ChannelSMS).Inc()
	if n.logger != nil {
		n.logger.Info("simulated sms", zap.String("recipient", msg.Recipient))
	}
	return Result{
		Channel:     ChannelSMS,
		Recipient:   msg.Recipient,
		Status:      "simulated",
		SimulatedAt: time.Now().UTC(),
	}, nil
}

// Dispatcher fans a message out to every configured channel.
type Dispatcher struct {
	notifiers       []Notifier
	emailRecipients []string
	smsRecipients   []string
}

// NewDispatcher creates a Dispatcher over the given notifiers and configured
// test recipients.
func NewDispatcher(notifiers []Notifier, emailRecipients, smsRecipients []string) *Dispatcher {
	return &Dispatcher{
		notifiers:       notifiers,
		emailRecipients: emailRecipients,
		smsRecipients:   smsRecipients,
	}
}

// TestAll sends a test alert to every recipient on every channel and returns
// the per-recipient results. Individual send errors are reported in the
// result status rather than aborting the run.
func (d *Dispatcher) TestAll(ctx context.Context, subject, body string) []Result {
	results := make([]Result, 0)
	for _, n := range d.notifiers {
		var recipients []string
		switch n.Channel() {
		case ChannelEmail:
			recipients = d.emailRecipients
		case ChannelSMS:
			recipients = d.smsRecipients
		}
		for _, recipient := range recipients {
			res, err := n.Send(ctx, Message{Recipient: recipient, Subject: subject, Body: body})
			if err != nil {
				res = Result{
					Channel:     n.Channel(),
					Recipient:   recipient,
					Status:      "failed: " + err.Error(),
					SimulatedAt: time.Now().UTC(),
				}
			}
			results = append(results, res)
		}
	}
	return results
}
