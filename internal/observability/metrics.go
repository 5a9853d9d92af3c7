package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtc_http_requests_total",
			Help: "Total number of HTTP requests processed by the rtc service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rtc_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rtc_sessions_active",
			Help: "Number of live user sessions.",
		},
	)
	presenceOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtc_presence_counter_ops_total",
			Help: "Room user-count increments and decrements issued to the store.",
		},
		[]string{"op"},
	)
	unreadBadge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rtc_unread_badge",
			Help: "Current total unread badge value across rooms.",
		},
	)
	typingEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtc_typing_events_total",
			Help: "Typing presence transitions.",
		},
		[]string{"event"},
	)
	soundNotificationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rtc_sound_notifications_total",
			Help: "Local notification sounds triggered by unread increases.",
		},
	)
	storeListenersActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rtc_store_listeners_active",
			Help: "Live realtime-store subscriptions by kind.",
		},
		[]string{"kind"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rtc_ws_active_connections",
			Help: "Number of active UI gateway websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rtc_ws_events_total",
			Help: "Total number of UI gateway websocket events.",
		},
		[]string{"event"},
	)
	notifyPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rtc_notify_publish_errors_total",
			Help: "Total number of push-notification publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		sessionsActive,
		presenceOpsTotal,
		unreadBadge,
		typingEventsTotal,
		soundNotificationsTotal,
		storeListenersActive,
		wsActiveConnections,
		wsEventsTotal,
		notifyPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncSessionsActive() {
	sessionsActive.Inc()
}

func DecSessionsActive() {
	sessionsActive.Dec()
}

func IncPresenceOp(op string) {
	presenceOpsTotal.WithLabelValues(op).Inc()
}

func SetUnreadBadge(total int) {
	unreadBadge.Set(float64(total))
}

func IncTypingEvent(event string) {
	typingEventsTotal.WithLabelValues(event).Inc()
}

func IncSoundNotification() {
	soundNotificationsTotal.Inc()
}

func SetStoreListeners(kind string, n int) {
	storeListenersActive.WithLabelValues(kind).Set(float64(n))
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncNotifyPublishError() {
	notifyPublishErrorsTotal.Inc()
}
