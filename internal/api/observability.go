package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"cube-arena/internal/game"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-player labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.016},
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_players",
		Help: "Connected players",
	})

	bulletCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_bullets",
		Help: "Bullets in flight",
	})

	killsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_kills_total",
		Help: "Players killed",
	})

	deliveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_deliveries_total",
		Help: "Cubes delivered to a cashout",
	})

	// Bounded: "rate_limit", "origin", "ws_ip_limit", "match_full", "duplicate"
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected before joining the match",
	}, []string{"reason"})

	// Bounded: "rate_limit", "malformed", "unknown_event"
	messageRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_rejected_total",
		Help: "Inbound frames dropped by the hub",
	}, []string{"reason"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	// direction is "in" or "out"
	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket frames handled",
	}, []string{"direction"})

	wsSlowClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_slow_clients_total",
		Help: "Clients dropped because their send queue was full",
	})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled    bool
	ListenAddr string // loopback only
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// isLoopback reports whether addr binds to a loopback interface.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// NewDebugHandler serves pprof, Prometheus metrics and a health check.
func NewDebugHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// StartDebugServer starts the internal observability server in the
// background. Non-loopback addresses are forced back to 127.0.0.1:6060.
// The returned server is nil when disabled.
func StartDebugServer(cfg ObservabilityConfig) *http.Server {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}
	if !isLoopback(cfg.ListenAddr) {
		log.Printf("⚠️ Debug server address %s is not loopback, using 127.0.0.1:6060", cfg.ListenAddr)
		cfg.ListenAddr = DefaultObservabilityConfig().ListenAddr
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewDebugHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
	return srv
}

// EngineHooks feeds engine activity into the metrics above.
func EngineHooks() game.Hooks {
	return game.Hooks{
		OnTick: func(d time.Duration, players, bullets int) {
			tickDuration.Observe(d.Seconds())
			playerCount.Set(float64(players))
			bulletCount.Set(float64(bullets))
		},
		OnKill: func(shooterID, victimID string) {
			killsTotal.Inc()
		},
		OnDelivery: func(playerID string, score int) {
			deliveriesTotal.Inc()
		},
	}
}

// RegisterJournalMetrics exposes journal counters. Call once per journal.
func RegisterJournalMetrics(j *game.Journal) {
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "journal_entries_total",
			Help: "Entries recorded in the match journal",
		}, func() float64 { return float64(j.TotalCount()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "journal_dropped_total",
			Help: "Journal entries dropped by rate limiting or buffer overrun",
		}, func() float64 { return float64(j.DroppedCount()) }),
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			log.Printf("⚠️ Journal metric not registered: %v", err)
		}
	}
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordMessageRejected counts a dropped inbound frame
func RecordMessageRejected(reason string) {
	messageRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

func recordInbound()  { wsMessagesTotal.WithLabelValues("in").Inc() }
func recordOutbound() { wsMessagesTotal.WithLabelValues("out").Inc() }
