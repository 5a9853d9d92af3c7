package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ava19999/rtc/internal/auth"
	"github.com/ava19999/rtc/internal/bridge"
	"github.com/ava19999/rtc/internal/handlers"
	"github.com/ava19999/rtc/internal/market"
	"github.com/ava19999/rtc/internal/models"
	"github.com/ava19999/rtc/internal/notify"
	"github.com/ava19999/rtc/internal/observability"
	"github.com/ava19999/rtc/internal/session"
	"github.com/ava19999/rtc/internal/state"
	"github.com/ava19999/rtc/internal/store"
	"github.com/ava19999/rtc/internal/ws"
)

func main() {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, "rtc", getEnv("OTLP_ENDPOINT", ""))
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()

	var stateStore state.Store
	if dsn := getEnv("DATABASE_URL", ""); dsn != "" {
		pg, err := state.Connect(dsn)
		if err != nil {
			log.Fatalf("failed to connect to db: %v", err)
		}
		defer pg.Close()
		stateStore = pg
	} else {
		log.Println("DATABASE_URL not set, using in-memory installation state")
		stateStore = state.NewMemoryStore()
	}

	realtime := store.NewMemoryStore()
	seedDefaultRooms(ctx, realtime)

	publisher := notify.NewPublisher(
		getEnv("AMQP_URL", ""),
		getEnv("AMQP_EXCHANGE", "push_notifications"),
	)
	defer publisher.Close()
	log.Printf("push publisher mode=%s", notify.PublisherMode(publisher))
	emitter := notify.NewEmitter(publisher)

	hub := ws.NewHub()

	cfg := session.Config{
		Store:          realtime,
		State:          stateStore,
		Bridge:         bridge.Logging{},
		Emitter:        emitter,
		AdminUsernames: splitList(getEnv("ADMIN_USERNAMES", "")),
		OnEvent:        hub.Broadcast,
	}
	manager := session.NewManager(auth.NewRegistry(realtime), cfg)

	marketClient := market.NewClient(getEnv("COINGECKO_BASE_URL", ""))
	monitor := market.NewMonitor(marketClient, realtime, emitter, log.Default())
	interval, err := time.ParseDuration(getEnv("TRENDING_INTERVAL", "10m"))
	if err != nil {
		log.Fatalf("invalid TRENDING_INTERVAL: %v", err)
	}
	go monitor.Run(ctx, interval)

	authHandler := handlers.NewAuthHandler(manager)
	roomHandler := handlers.NewRoomHandler()
	messageHandler := handlers.NewMessageHandler()
	navHandler := handlers.NewNavHandler()
	gateway := ws.NewGateway(hub)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware("rtc"))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/register", authHandler.Register)

	requireSession := handlers.RequireSession(manager)

	router.POST("/auth/logout", requireSession, authHandler.Logout)
	router.GET("/me", requireSession, authHandler.Me)

	router.GET("/rooms", requireSession, roomHandler.ListRooms)
	router.POST("/rooms", requireSession, roomHandler.CreateRoom)
	router.POST("/rooms/:room_id/join", requireSession, roomHandler.JoinRoom)
	router.POST("/active-room/leave", requireSession, roomHandler.LeaveActiveRoom)
	router.POST("/rooms/:room_id/leave", requireSession, roomHandler.LeaveRoom)
	router.DELETE("/rooms/:room_id", requireSession, roomHandler.DeleteRoom)
	router.PUT("/rooms/:room_id/notifications", requireSession, roomHandler.ToggleNotification)
	router.GET("/unread", requireSession, roomHandler.Unread)
	router.PUT("/settings/sound", requireSession, roomHandler.ToggleSound)

	router.GET("/rooms/:room_id/messages", requireSession, messageHandler.ListMessages)
	router.POST("/messages", requireSession, messageHandler.SendMessage)
	router.POST("/rooms/:room_id/messages/:message_id/reactions", requireSession, messageHandler.React)
	router.DELETE("/rooms/:room_id/messages/:message_id", requireSession, messageHandler.DeleteMessage)
	router.POST("/typing/start", requireSession, messageHandler.StartTyping)
	router.POST("/typing/stop", requireSession, messageHandler.StopTyping)
	router.GET("/typing", requireSession, messageHandler.TypingUsers)

	router.POST("/navigate", requireSession, navHandler.Navigate)
	router.POST("/back", requireSession, navHandler.Back)
	router.POST("/coins/select", requireSession, navHandler.SelectCoin)
	router.GET("/state", requireSession, navHandler.State)

	router.GET("/ws", gateway.Handle)

	port := getEnv("PORT", "8080")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// seedDefaultRooms writes the built-in rooms so the authoritative rooms
// listener sees them before any client joins.
func seedDefaultRooms(ctx context.Context, rs store.RealtimeStore) {
	for _, room := range models.DefaultRooms() {
		var existing struct {
			Name string `json:"name"`
		}
		if err := rs.Get(ctx, "rooms/"+room.ID, &existing); err == nil && existing.Name != "" {
			continue
		}
		if err := rs.Set(ctx, "rooms/"+room.ID, room); err != nil {
			log.Printf("seed default room %s: %v", room.ID, err)
		}
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
