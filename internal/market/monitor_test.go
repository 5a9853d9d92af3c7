package market

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ava19999/rtc/internal/mocks"
	"github.com/ava19999/rtc/internal/models"
	"github.com/ava19999/rtc/internal/notify"
	"github.com/ava19999/rtc/internal/store"
)

func TestFirstRunSavesBaselineWithoutNotifying(t *testing.T) {
	srv := trendingServer(t, "bitcoin", "pepe")
	defer srv.Close()

	rs := store.NewMemoryStore()
	publisher := new(mocks.PublisherMock)
	monitor := NewMonitor(NewClient(srv.URL), rs, notify.NewEmitter(publisher), nil)

	require.NoError(t, monitor.Check(context.Background()))

	var saved []string
	require.NoError(t, rs.Get(context.Background(), lastKnownPath, &saved))
	require.Equal(t, []string{"bitcoin", "pepe"}, saved)

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)

	var messages map[string]models.ChatMessage
	require.NoError(t, rs.Get(context.Background(), "messages/"+models.OpportunityRoomID, &messages))
	require.Empty(t, messages)
}

func TestNewCoinTriggersNotificationAndSystemMessage(t *testing.T) {
	srv := trendingServer(t, "bitcoin", "wif")
	defer srv.Close()

	rs := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, rs.Set(ctx, lastKnownPath, []string{"bitcoin", "pepe"}))

	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, notify.RoutingKeyOpportunity, mock.MatchedBy(func(e any) bool {
		env, ok := e.(notify.Envelope)
		return ok && env.Topic == models.OpportunityRoomID && env.Body == "Koin baru di Peluang Pasar: Coin wif"
	})).Return(nil).Once()

	monitor := NewMonitor(NewClient(srv.URL), rs, notify.NewEmitter(publisher), nil)
	require.NoError(t, monitor.Check(ctx))

	publisher.AssertExpectations(t)

	var messages map[string]models.ChatMessage
	require.NoError(t, rs.Get(ctx, "messages/"+models.OpportunityRoomID, &messages))
	require.Len(t, messages, 1)
	for _, msg := range messages {
		require.Equal(t, models.MessageTypeSystem, msg.Type)
		require.Equal(t, "📈 Peluang Pasar Baru Terdeteksi: Coin wif", msg.Text)
	}

	var saved []string
	require.NoError(t, rs.Get(ctx, lastKnownPath, &saved))
	require.Equal(t, []string{"bitcoin", "wif"}, saved)
}

func TestUnchangedTrendingIsNoop(t *testing.T) {
	srv := trendingServer(t, "bitcoin", "pepe")
	defer srv.Close()

	rs := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, rs.Set(ctx, lastKnownPath, []string{"bitcoin", "pepe"}))

	publisher := new(mocks.PublisherMock)
	monitor := NewMonitor(NewClient(srv.URL), rs, notify.NewEmitter(publisher), nil)
	require.NoError(t, monitor.Check(ctx))

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestHistoryTrimmedToLimit(t *testing.T) {
	srv := trendingServer(t, "wif")
	defer srv.Close()

	rs := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, rs.Set(ctx, lastKnownPath, []string{"bitcoin"}))

	roomPath := "messages/" + models.OpportunityRoomID
	for i := 0; i < historyLimit+3; i++ {
		_, err := rs.Push(ctx, roomPath, models.ChatMessage{
			Type: models.MessageTypeSystem, Text: "lama", Timestamp: int64(i + 1),
		})
		require.NoError(t, err)
	}

	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, notify.RoutingKeyOpportunity, mock.Anything).Return(nil).Once()

	monitor := NewMonitor(NewClient(srv.URL), rs, notify.NewEmitter(publisher), nil)
	require.NoError(t, monitor.Check(ctx))

	var messages map[string]models.ChatMessage
	require.NoError(t, rs.Get(ctx, roomPath, &messages))
	require.Len(t, messages, historyLimit)
}
