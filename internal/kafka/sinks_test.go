package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	args := m.Called(ctx, topic, key, payload)
	return args.Error(0)
}

func TestAlertSink_Notify(t *testing.T) {
	pub := &MockPublisher{}
	sink := NewAlertSink(pub, "alerts", func() string { return "u1" })
	at := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return at }

	ctx := context.Background()
	pub.On("Publish", ctx, "alerts", "u1", mock.MatchedBy(func(e AlertEvent) bool {
		return e.Type == AlertTypePlatform && e.Title == "Match reminder" && e.Body == "Tomorrow" &&
			e.UserID == "u1" && e.At.Equal(at) && e.ID != ""
	})).Return(nil).Once()

	assert.NoError(t, sink.Notify(ctx, "Match reminder", "Tomorrow"))
	pub.AssertExpectations(t)
}

func TestAlertSink_PlayCue(t *testing.T) {
	pub := &MockPublisher{}
	sink := NewAlertSink(pub, "alerts", func() string { return "u1" })

	ctx := context.Background()
	pub.On("Publish", ctx, "alerts", "u1", mock.MatchedBy(func(e AlertEvent) bool {
		return e.Type == AlertTypeCue
	})).Return(nil).Once()

	assert.NoError(t, sink.PlayCue(ctx))
	pub.AssertExpectations(t)
}

func TestRewardSink_PresentReward(t *testing.T) {
	pub := &MockPublisher{}
	sink := NewRewardSink(pub, "rewards")

	ctx := context.Background()
	pub.On("Publish", ctx, "rewards", "u1", mock.MatchedBy(func(e RewardEvent) bool {
		return e.VenueID == "v1" && e.FreeTickets == 2 && !e.At.IsZero() && e.ID != ""
	})).Return(nil).Once()

	assert.NoError(t, sink.PresentReward(ctx, RewardEvent{UserID: "u1", VenueID: "v1", FreeTickets: 2}))
	pub.AssertExpectations(t)
}
