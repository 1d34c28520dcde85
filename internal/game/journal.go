package game

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	JournalBufferSize      = 1024                   // Circular buffer size
	MaxJournalPerSec       = 5000                   // Global rate limit
	MaxJournalPerPlayer    = 200                    // Per-player rate limit per second
	JournalFlushSize       = 64                     // Entries per batch write
	JournalFlushInterval   = 100 * time.Millisecond // How often to flush
	JournalLimiterLifetime = 5 * time.Minute        // Idle player limiters are dropped after this
)

// EntryType classifies journal entries.
type EntryType uint8

const (
	EntryUnknown EntryType = iota
	EntryJoin
	EntryLeave
	EntryHit
	EntryDeath
	EntryRespawn
	EntryPickup
	EntryDrop
	EntryDelivery
)

// String returns the name written to the journal file.
func (t EntryType) String() string {
	switch t {
	case EntryJoin:
		return "join"
	case EntryLeave:
		return "leave"
	case EntryHit:
		return "hit"
	case EntryDeath:
		return "death"
	case EntryRespawn:
		return "respawn"
	case EntryPickup:
		return "pickup"
	case EntryDrop:
		return "drop"
	case EntryDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the type by name.
func (t EntryType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Entry is one line of the match journal.
type Entry struct {
	Sequence  uint64          `json:"seq"`
	Type      EntryType       `json:"type"`
	Timestamp int64           `json:"ts"` // Unix nano
	Tick      uint64          `json:"tick"`
	PlayerID  string          `json:"playerId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func newEntry(t EntryType, tick uint64, playerID string, payload interface{}) Entry {
	e := Entry{
		Type:      t,
		Timestamp: time.Now().UnixNano(),
		Tick:      tick,
		PlayerID:  playerID,
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			e.Payload = data
		}
	}
	return e
}

// Journal is a bounded, rate-limited, append-only record of match events.
// Record never blocks the simulation; under pressure entries are dropped.
type Journal struct {
	bufMu     sync.Mutex
	buffer    [JournalBufferSize]Entry
	writeHead uint64 // atomic
	readHead  uint64 // atomic

	globalLimiter  *rate.Limiter
	playerLimiters sync.Map // map[string]*journalLimiter

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	file   *os.File
	fileMu sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
}

type journalLimiter struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64
}

// NewJournal creates a stopped journal.
func NewJournal() *Journal {
	return &Journal{
		globalLimiter: rate.NewLimiter(MaxJournalPerSec, MaxJournalPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens path for append and launches the writer. An empty path keeps
// entries in memory only.
func (j *Journal) Start(path string) error {
	if j.running.Load() {
		return nil
	}
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return errors.Wrapf(err, "open journal %s", path)
		}
		j.file = file
	}

	j.running.Store(true)
	j.writerWg.Add(2)
	go j.writerLoop()
	go j.cleanupLoop()
	return nil
}

// Stop flushes pending entries and closes the file. Safe to call twice.
func (j *Journal) Stop() {
	j.stopOnce.Do(func() {
		if !j.running.Load() {
			return
		}
		j.running.Store(false)
		close(j.stopChan)
		j.writerWg.Wait()

		j.fileMu.Lock()
		if j.file != nil {
			j.file.Close()
		}
		j.fileMu.Unlock()
	})
}

// Record appends an entry. Returns false if the journal is stopped or the
// entry was rate limited.
func (j *Journal) Record(t EntryType, tick uint64, playerID string, payload interface{}) bool {
	if j == nil || !j.running.Load() {
		return false
	}
	if !j.globalLimiter.Allow() {
		atomic.AddUint64(&j.droppedCount, 1)
		return false
	}
	if playerID != "" && !j.playerLimiter(playerID).Allow() {
		atomic.AddUint64(&j.droppedCount, 1)
		return false
	}

	entry := newEntry(t, tick, playerID, payload)

	j.bufMu.Lock()
	defer j.bufMu.Unlock()

	head := atomic.AddUint64(&j.writeHead, 1)
	tail := atomic.LoadUint64(&j.readHead)
	if head-tail >= JournalBufferSize {
		// Overwrite the oldest entry.
		atomic.AddUint64(&j.readHead, 1)
		atomic.AddUint64(&j.droppedCount, 1)
	}

	entry.Sequence = head
	j.buffer[head%JournalBufferSize] = entry
	atomic.AddUint64(&j.totalCount, 1)
	return true
}

func (j *Journal) playerLimiter(playerID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := j.playerLimiters.Load(playerID); ok {
		l := v.(*journalLimiter)
		l.lastUsed.Store(now)
		return l.limiter
	}
	l := &journalLimiter{limiter: rate.NewLimiter(MaxJournalPerPlayer, MaxJournalPerPlayer/10)}
	l.lastUsed.Store(now)
	actual, _ := j.playerLimiters.LoadOrStore(playerID, l)
	return actual.(*journalLimiter).limiter
}

func (j *Journal) writerLoop() {
	defer j.writerWg.Done()

	ticker := time.NewTicker(JournalFlushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, JournalFlushSize)
	for {
		select {
		case <-j.stopChan:
			for {
				batch = j.collect(batch[:0])
				if len(batch) == 0 {
					return
				}
				j.flush(batch)
			}
		case <-ticker.C:
			batch = j.collect(batch[:0])
			if len(batch) > 0 {
				j.flush(batch)
			}
		}
	}
}

func (j *Journal) cleanupLoop() {
	defer j.writerWg.Done()

	ticker := time.NewTicker(JournalLimiterLifetime)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-JournalLimiterLifetime).UnixNano()
			j.playerLimiters.Range(func(key, value interface{}) bool {
				if value.(*journalLimiter).lastUsed.Load() < cutoff {
					j.playerLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (j *Journal) collect(batch []Entry) []Entry {
	j.bufMu.Lock()
	defer j.bufMu.Unlock()

	head := atomic.LoadUint64(&j.writeHead)
	tail := atomic.LoadUint64(&j.readHead)

	for i := tail + 1; i <= head && len(batch) < JournalFlushSize; i++ {
		batch = append(batch, j.buffer[i%JournalBufferSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&j.readHead, uint64(len(batch)))
	}
	return batch
}

// flush writes newline-delimited JSON.
func (j *Journal) flush(batch []Entry) {
	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	if j.file == nil {
		return
	}
	for _, e := range batch {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		j.file.Write(append(data, '\n'))
	}
}

// Stats returns counters for monitoring.
func (j *Journal) Stats() map[string]interface{} {
	head := atomic.LoadUint64(&j.writeHead)
	tail := atomic.LoadUint64(&j.readHead)
	return map[string]interface{}{
		"total":   atomic.LoadUint64(&j.totalCount),
		"dropped": atomic.LoadUint64(&j.droppedCount),
		"pending": head - tail,
		"running": j.running.Load(),
	}
}

// TotalCount returns the number of recorded entries.
func (j *Journal) TotalCount() uint64 {
	return atomic.LoadUint64(&j.totalCount)
}

// DroppedCount returns the number of dropped entries.
func (j *Journal) DroppedCount() uint64 {
	return atomic.LoadUint64(&j.droppedCount)
}

// journal payloads

type hitRecord struct {
	ShooterID string `json:"shooterId"`
	VictimID  string `json:"victimId"`
	BulletID  uint64 `json:"bulletId"`
	Health    int    `json:"health"`
}

type positionRecord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type joinRecord struct {
	Slot  int     `json:"slot"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type deliveryRecord struct {
	Score int `json:"score"`
}
