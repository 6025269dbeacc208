// Package push delivers platform alerts from the alerts topic to devices.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Domenick1991/pitchbooking/internal/kafka"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Channel hands a payload to the devices of one user.
type Channel interface {
	PublishPush(ctx context.Context, userID string, payload []byte) error
}

type payload struct {
	Kind  string `json:"kind"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	Sound bool   `json:"sound,omitempty"`
}

type Sender struct {
	channel Channel
	log     logrus.FieldLogger

	// per-user throttle; a zero limit disables it
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

type Option func(*Sender)

// WithRateLimit caps pushes per user. Pushes over the limit are dropped.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Sender) {
		if perSecond > 0 && burst > 0 {
			s.limit = rate.Limit(perSecond)
			s.burst = burst
		}
	}
}

func NewSender(channel Channel, log logrus.FieldLogger, opts ...Option) *Sender {
	s := &Sender{
		channel:  channel,
		log:      log.WithField("component", "push"),
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sender) allow(userID string) bool {
	if s.limit == 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[userID]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[userID] = l
	}
	return l.Allow()
}

func (s *Sender) Send(ctx context.Context, event kafka.AlertEvent) error {
	if event.UserID == "" {
		s.log.WithField("event_id", event.ID).Debug("alert without user dropped")
		return nil
	}

	var p payload
	switch event.Type {
	case kafka.AlertTypePlatform:
		p = payload{Kind: "alert", Title: event.Title, Body: event.Body}
	case kafka.AlertTypeCue:
		p = payload{Kind: "cue", Sound: true}
	default:
		s.log.WithField("type", event.Type).Debug("unknown alert type dropped")
		return nil
	}

	if !s.allow(event.UserID) {
		s.log.WithField("user_id", event.UserID).Debug("push throttled")
		return nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}
	if err := s.channel.PublishPush(ctx, event.UserID, data); err != nil {
		return fmt.Errorf("push to %s: %w", event.UserID, err)
	}
	s.log.WithFields(logrus.Fields{"user_id": event.UserID, "kind": p.Kind}).Debug("pushed")
	return nil
}

// Handle decodes one alerts-topic message. Undecodable messages are logged
// and skipped so they do not stall the consumer.
func (s *Sender) Handle(ctx context.Context, msg kafkaGo.Message) error {
	var event kafka.AlertEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		s.log.WithError(err).WithField("offset", msg.Offset).Warn("decode alert")
		return nil
	}
	return s.Send(ctx, event)
}
