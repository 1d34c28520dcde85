package game

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Defaults used when EngineConfig leaves a field at zero.
const (
	DefaultTickInterval = 16 * time.Millisecond
	DefaultRespawnDelay = 2000 * time.Millisecond
	DefaultMaxPlayers   = 64
)

var (
	// ErrDuplicateSession is returned when a session id is already in the match.
	ErrDuplicateSession = errors.New("session already connected")
	// ErrMatchFull is returned when MaxPlayers sessions are connected.
	ErrMatchFull = errors.New("match is full")
)

// EngineConfig configures a match.
type EngineConfig struct {
	TickInterval time.Duration
	RespawnDelay time.Duration
	MaxPlayers   int
	Arena        Arena
}

// Hooks are observers for metrics. They run while the engine lock is held
// and must return quickly.
type Hooks struct {
	OnTick     func(duration time.Duration, players, bullets int)
	OnKill     func(shooterID, victimID string)
	OnDelivery func(playerID string, score int)
}

// Engine owns the single match. Every exported method is safe for
// concurrent use: all world access is serialized behind mu, and events are
// emitted to the Notifier before mu is released so each session sees them
// in mutation order.
type Engine struct {
	mu       sync.Mutex
	world    *world
	arena    Arena
	notifier Notifier
	hooks    Hooks
	journal  *Journal
	respawns *respawner

	published statePublisher

	maxPlayers   int
	tickInterval time.Duration
	nextBulletID uint64
	tickCount    uint64

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewEngine creates an engine that is not yet ticking.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.RespawnDelay <= 0 {
		cfg.RespawnDelay = DefaultRespawnDelay
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	if cfg.Arena.Width == 0 || cfg.Arena.Height == 0 {
		cfg.Arena = DefaultArena()
	}

	return &Engine{
		world:        newWorld(cfg.Arena),
		arena:        cfg.Arena,
		notifier:     nopNotifier{},
		respawns:     newRespawner(cfg.RespawnDelay),
		maxPlayers:   cfg.MaxPlayers,
		tickInterval: cfg.TickInterval,
	}
}

// SetNotifier installs the event sink. Passing nil silences the engine.
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n == nil {
		n = nopNotifier{}
	}
	e.notifier = n
}

// SetHooks installs metric observers.
func (e *Engine) SetHooks(h Hooks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks = h
}

// AttachJournal records match events into j. The journal is not started here.
func (e *Engine) AttachJournal(j *Journal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.journal = j
}

// Start begins the fixed-interval tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(e.tickInterval)
	e.stopChan = make(chan struct{})
	e.doneChan = make(chan struct{})
	ticker, stop, done := e.ticker, e.stopChan, e.doneChan
	e.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				e.Tick()
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Game engine started (tick every %s)", e.tickInterval)
}

// Stop halts the tick loop and cancels pending respawns. Safe to call twice.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.respawns.cancelAll()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stopChan)
	done := e.doneChan
	e.mu.Unlock()

	<-done
	log.Println("🛑 Game engine stopped")
}

// Arena returns the static match configuration.
func (e *Engine) Arena() Arena {
	return e.arena
}

// State is a point-in-time copy of the whole match.
type State struct {
	Tick    uint64   `json:"tick"`
	Players []Player `json:"players"`
	Bullets []Bullet `json:"bullets"`
	Cube    Cube     `json:"cube"`
}

// Snapshot copies the current world under the lock.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Tick:    e.tickCount,
		Players: e.world.copyPlayers(),
		Bullets: e.world.copyBullets(),
		Cube:    e.world.cube,
	}
}

// Player returns a copy of a player.
func (e *Engine) Player(id string) (Player, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.world.player(id)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// Cube returns a copy of the cube.
func (e *Engine) Cube() Cube {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.cube
}

// PlayerCount returns the number of connected players.
func (e *Engine) PlayerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.playerCount()
}

// Scoreboard returns players ordered by score, highest first, join order on ties.
func (e *Engine) Scoreboard() []Player {
	players := e.Snapshot().Players
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})
	return players
}

// PendingRespawns returns how many dead players are waiting to respawn.
func (e *Engine) PendingRespawns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.respawns.pending()
}

func (e *Engine) record(t EntryType, playerID string, payload interface{}) {
	if e.journal != nil {
		e.journal.Record(t, e.tickCount, playerID, payload)
	}
}
