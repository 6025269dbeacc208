package kafka

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// AlertSink publishes platform alerts and audio cues for one user.
type AlertSink struct {
	producer Publisher
	topic    string
	userID   func() string
	now      func() time.Time
}

func NewAlertSink(producer Publisher, topic string, userID func() string) *AlertSink {
	return &AlertSink{producer: producer, topic: topic, userID: userID, now: time.Now}
}

func (s *AlertSink) Notify(ctx context.Context, title, body string) error {
	return s.publish(ctx, AlertEvent{Type: AlertTypePlatform, Title: title, Body: body})
}

func (s *AlertSink) PlayCue(ctx context.Context) error {
	return s.publish(ctx, AlertEvent{Type: AlertTypeCue})
}

func (s *AlertSink) publish(ctx context.Context, event AlertEvent) error {
	event.ID = uuid.NewString()
	event.UserID = s.userID()
	event.At = s.now()
	return s.producer.Publish(ctx, s.topic, event.UserID, event)
}

// RewardSink publishes reward-presentation events.
type RewardSink struct {
	producer Publisher
	topic    string
	now      func() time.Time
}

func NewRewardSink(producer Publisher, topic string) *RewardSink {
	return &RewardSink{producer: producer, topic: topic, now: time.Now}
}

func (s *RewardSink) PresentReward(ctx context.Context, event RewardEvent) error {
	event.ID = uuid.NewString()
	if event.At.IsZero() {
		event.At = s.now()
	}
	return s.producer.Publish(ctx, s.topic, event.UserID, event)
}
