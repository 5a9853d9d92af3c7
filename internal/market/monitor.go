package market

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/ava19999/rtc/internal/models"
	"github.com/ava19999/rtc/internal/notify"
	"github.com/ava19999/rtc/internal/store"
)

const (
	lastKnownPath = "system_state/trending_coins_lastKnown"
	historyLimit  = 10
)

// Monitor periodically diffs the trending list against the last known
// set and announces newly trending coins in the opportunity room.
type Monitor struct {
	client  *Client
	store   store.RealtimeStore
	emitter *notify.Emitter
	log     *log.Logger
	now     func() time.Time
}

// NewMonitor builds a Monitor.
func NewMonitor(client *Client, rs store.RealtimeStore, emitter *notify.Emitter, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.Default()
	}
	return &Monitor{
		client:  client,
		store:   rs,
		emitter: emitter,
		log:     logger,
		now:     time.Now,
	}
}

// Run polls on the interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := m.Check(ctx); err != nil {
			m.log.Printf("trending check: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Check performs one trending poll. The very first run only records the
// list; notifications require a previous baseline to diff against.
func (m *Monitor) Check(ctx context.Context) error {
	coins, err := m.client.FetchTrending(ctx)
	if err != nil {
		return err
	}
	if len(coins) == 0 {
		m.log.Printf("trending check: fetched 0 coins, skipping")
		return nil
	}

	var oldIDs []string
	if err := m.store.Get(ctx, lastKnownPath, &oldIDs); err != nil {
		return err
	}
	oldSet := make(map[string]struct{}, len(oldIDs))
	for _, id := range oldIDs {
		oldSet[id] = struct{}{}
	}

	var fresh []TrendingCoin
	for _, coin := range coins {
		if _, known := oldSet[coin.ID]; !known {
			fresh = append(fresh, coin)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	if len(oldIDs) > 0 {
		m.announce(ctx, fresh)
	} else {
		m.log.Printf("trending check: first run, saving baseline without notifying")
	}

	newIDs := make([]string, len(coins))
	for i, coin := range coins {
		newIDs[i] = coin.ID
	}
	return m.store.Set(ctx, lastKnownPath, newIDs)
}

func (m *Monitor) announce(ctx context.Context, fresh []TrendingCoin) {
	names := make([]string, len(fresh))
	for i, coin := range fresh {
		names[i] = coin.Name
	}
	joined := strings.Join(names, ", ")

	body := "Koin baru di Peluang Pasar: " + joined
	if len(joined) > 100 {
		body = "Beberapa koin baru terdeteksi di Peluang Pasar..."
	}
	if err := m.emitter.Opportunity(ctx, models.OpportunityRoomID, "Peluang Baru", body); err != nil {
		m.log.Printf("publish opportunity notification: %v", err)
	}

	msg := models.ChatMessage{
		Type:      models.MessageTypeSystem,
		Text:      "📈 Peluang Pasar Baru Terdeteksi: " + joined,
		Timestamp: m.now().UnixMilli(),
	}
	roomPath := "messages/" + models.OpportunityRoomID
	if _, err := m.store.Push(ctx, roomPath, msg); err != nil {
		m.log.Printf("post opportunity message: %v", err)
		return
	}

	if err := m.trimHistory(ctx, roomPath); err != nil {
		m.log.Printf("trim opportunity history: %v", err)
	}
}

// trimHistory caps the opportunity room at historyLimit messages,
// deleting the oldest entries in one batched update. Push keys sort
// chronologically.
func (m *Monitor) trimHistory(ctx context.Context, roomPath string) error {
	records := map[string]models.ChatMessage{}
	if err := m.store.Get(ctx, roomPath, &records); err != nil {
		return err
	}
	if len(records) <= historyLimit {
		return nil
	}

	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	updates := make(map[string]any, len(records)-historyLimit)
	for _, key := range keys[:len(records)-historyLimit] {
		updates[key] = nil
	}
	return m.store.Update(ctx, roomPath, updates)
}
