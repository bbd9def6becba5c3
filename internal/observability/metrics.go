// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// LikesToggled counts like toggles by content kind and resulting state.
	LikesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_likes_toggled_total",
		Help: "Like toggles by content kind and result",
	}, []string{"kind", "result"})

	// CommentsCreated counts new comments by content kind.
	CommentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_comments_created_total",
		Help: "Comments created by content kind",
	}, []string{"kind"})

	// FeedItemsServed records how many items each merged feed returned.
	FeedItemsServed = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atelier_feed_items_served",
		Help:    "Items returned per merged feed request",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
	}, []string{"scope"})

	// SupportAmountCents sums supporter contributions.
	SupportAmountCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atelier_support_amount_cents_total",
		Help: "Total amount pledged by supporters in cents",
	})

	// SupportersRecorded counts supporter rows written by the ledger.
	SupportersRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "atelier_supporters_recorded_total",
		Help: "Supporter records written by the funding ledger",
	})

	// MessagesSent counts direct messages by type (new or reply).
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_messages_sent_total",
		Help: "Direct messages sent",
	}, []string{"type"})

	// Uploads counts image uploads by target and outcome.
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_uploads_total",
		Help: "Image uploads by target and outcome",
	}, []string{"target", "outcome"})

	// RedisErrors counts Redis errors by operation.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_redis_errors_total",
		Help: "Redis errors by operation",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by result (hit or miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atelier_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// NotificationConnections is the number of open notification sockets.
	NotificationConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "atelier_notification_connections",
		Help: "Open notification websocket connections",
	})

	// NotificationsDelivered counts events pushed to sockets, by event type.
	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_notifications_delivered_total",
		Help: "Notification events delivered to websocket clients",
	}, []string{"event"})

	// NotificationDrops counts events dropped because a client buffer was
	// full or already closed.
	NotificationDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_notification_drops_total",
		Help: "Notification events dropped before reaching a client",
	}, []string{"reason"})
)

const queryStartKey = "atelier:query_start"

// InstrumentDB registers GORM callbacks that feed DatabaseQueryLatency.
func InstrumentDB(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "raw"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, fn func(*gorm.DB)) error
		after    func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
	}
	for _, s := range steps {
		if err := s.register("atelier:before_"+s.op, before); err != nil {
			return err
		}
		if err := s.after("atelier:after_"+s.op, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
