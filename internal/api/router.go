package api

import (
	"cube-arena/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface is the read side of the engine served over HTTP.
type EngineInterface interface {
	Published() game.State
	Scoreboard() []game.Player
	Arena() game.Arena
	PlayerCount() int
}

// RouterConfig wires the match read API. The websocket routes are added
// by Server, which owns the hub.
type RouterConfig struct {
	Engine EngineInterface

	// RateLimiter guards /api. Nil builds one from RateLimitConfig, or the
	// defaults when that is nil too.
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// CORSOrigins defaults to the hub's allowed websocket origins.
	CORSOrigins []string

	DisableLogging bool
}

type routerHandlers struct {
	engine EngineInterface
}

// NewRouter builds /health and the rate-limited /api group. It starts no
// goroutines and opens no listener.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultHubConfig().AllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &routerHandlers{engine: cfg.Engine}

	r.Get("/health", h.handleHealth)

	// Rate limiting applies to the JSON API only; websocket admission has
	// its own per-IP cap.
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		r.Get("/state", h.handleGetState)
		r.Get("/scoreboard", h.handleGetScoreboard)
		r.Get("/config", h.handleGetConfig)
	})

	return r
}
