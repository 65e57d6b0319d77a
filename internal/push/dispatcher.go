// Package push wraps Firebase Cloud Messaging delivery behind a small
// dispatcher. Device sends are multicast with per-token failure accounting;
// topic sends are single messages whose failure is the caller's problem.
package push

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// payloadType is the structured data tag attached to every send so receivers
// can tell notification categories apart.
const payloadType = "post_notification"

// Result aggregates a multicast send: one count per token outcome.
type Result struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
}

// Messenger is the subset of the FCM client the dispatcher uses.
// *messaging.Client satisfies it.
type Messenger interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error)
}

// Dispatcher sends push notifications to device tokens and topics.
type Dispatcher struct {
	client Messenger
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher over the given FCM client.
func NewDispatcher(client Messenger, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{client: client, logger: logger}
}

// SendToUser issues one multicast send to the user's device tokens. An empty
// token set is a no-op returning zero counts. Per-token failures never abort
// delivery to the remaining tokens; they are counted and logged.
func (d *Dispatcher) SendToUser(ctx context.Context, tokens []string, title, body string) (Result, error) {
	if len(tokens) == 0 {
		d.logger.Warn("no tokens provided for sending message")
		return Result{}, nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: payloadData(),
	}

	resp, err := d.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return Result{}, fmt.Errorf("multicast send failed: %w", err)
	}

	if resp.FailureCount > 0 {
		for i, r := range resp.Responses {
			if !r.Success {
				d.logger.Warn("token delivery failed",
					zap.Int("token_index", i),
					zap.Error(r.Error))
			}
		}
	}
	d.logger.Info("multicast send completed",
		zap.Int("success", resp.SuccessCount),
		zap.Int("failure", resp.FailureCount))

	return Result{SuccessCount: resp.SuccessCount, FailureCount: resp.FailureCount}, nil
}

// SendToTopic issues a single send addressed to a broadcast topic and returns
// the delivery receipt. Topic sends have no partial-failure concept: an error
// here is propagated to the caller.
func (d *Dispatcher) SendToTopic(ctx context.Context, topic, title, body string) (string, error) {
	message := &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: payloadData(),
	}

	receipt, err := d.client.Send(ctx, message)
	if err != nil {
		return "", fmt.Errorf("topic send failed: %w", err)
	}
	d.logger.Info("message sent to topic", zap.String("topic", topic), zap.String("receipt", receipt))
	return receipt, nil
}

// SubscribeToTopic subscribes the given device tokens to a topic.
func (d *Dispatcher) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	resp, err := d.client.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("topic subscription failed: %w", err)
	}
	d.logger.Info("subscribed tokens to topic",
		zap.String("topic", topic),
		zap.Int("success", resp.SuccessCount),
		zap.Int("failure", resp.FailureCount))
	return nil
}

func payloadData() map[string]string {
	return map[string]string{
		"type":      payloadType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}
