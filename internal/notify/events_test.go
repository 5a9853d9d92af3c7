package notify_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ava19999/rtc/internal/mocks"
	"github.com/ava19999/rtc/internal/notify"
)

func TestMessageSentEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	var captured notify.Envelope
	publisher.On("Publish", mock.Anything, notify.RoutingKeyChatMessage, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(notify.Envelope)
		}).Return(nil).Once()

	emitter := notify.NewEmitter(publisher)
	err := emitter.MessageSent(context.Background(), "room-1", "Umum", "alice", "halo")
	require.NoError(t, err)

	require.Equal(t, 1, captured.SchemaVersion)
	require.Equal(t, "chat_message", captured.Event)
	require.Equal(t, "room-1", captured.Topic)
	require.Equal(t, "Pesan baru di #Umum", captured.Title)
	require.Equal(t, "alice: halo", captured.Body)
	publisher.AssertExpectations(t)
}

func TestMessageSentTruncatesLongBody(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	var captured notify.Envelope
	publisher.On("Publish", mock.Anything, notify.RoutingKeyChatMessage, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(notify.Envelope)
		}).Return(nil).Once()

	long := strings.Repeat("x", 150)
	emitter := notify.NewEmitter(publisher)
	require.NoError(t, emitter.MessageSent(context.Background(), "r", "Umum", "alice", long))

	require.Equal(t, "alice: "+strings.Repeat("x", 97)+"...", captured.Body)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *notify.Emitter
	require.NoError(t, emitter.MessageSent(context.Background(), "r", "n", "s", "t"))
	require.NoError(t, emitter.Opportunity(context.Background(), "r", "n", "b"))
}

func TestNoopPublisherFallback(t *testing.T) {
	p := notify.NewPublisher("", "push_notifications")
	require.Equal(t, "noop", notify.PublisherMode(p))
	require.NoError(t, p.Publish(context.Background(), notify.RoutingKeyChatMessage, notify.Envelope{Event: "chat_message"}))
	require.NoError(t, p.Close())
}
