package game

// Outbound event names. They match what browser clients listen for.
const (
	EventInit               = "init"
	EventPlayerConnected    = "playerConnected"
	EventPlayerMoved        = "playerMoved"
	EventBulletFired        = "bulletFired"
	EventBulletRemoved      = "bulletRemoved"
	EventPlayerHit          = "playerHit"
	EventPlayerDied         = "playerDied"
	EventPlayerRespawned    = "playerRespawned"
	EventPlayerDisconnected = "playerDisconnected"
	EventCubePicked         = "cubePicked"
	EventCubeMoved          = "cubeMoved"
	EventCubeDropped        = "cubeDropped"
	EventCubeDelivered      = "cubeDelivered"
)

// Notifier delivers events to sessions. The engine calls it while holding
// its lock, so implementations must not block and must not call back into
// the engine.
type Notifier interface {
	// Broadcast sends to every session.
	Broadcast(event string, data interface{})
	// BroadcastExcept sends to every session but one.
	BroadcastExcept(sessionID, event string, data interface{})
	// Send sends to a single session.
	Send(sessionID, event string, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) Broadcast(string, interface{})               {}
func (nopNotifier) BroadcastExcept(string, string, interface{}) {}
func (nopNotifier) Send(string, string, interface{})            {}

// InitPayload is the full snapshot unicast to a new session.
type InitPayload struct {
	Player  Player            `json:"player"`
	Config  Arena             `json:"config"`
	Players map[string]Player `json:"players"`
	Bullets []Bullet          `json:"bullets"`
	Cube    Cube              `json:"cube"`
}

type PlayerMovedPayload struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

type BulletRemovedPayload struct {
	BulletID uint64 `json:"bulletId"`
}

type PlayerHitPayload struct {
	PlayerID string `json:"playerId"`
	Health   int    `json:"health"`
	BulletID uint64 `json:"bulletId"`
}

type PlayerDiedPayload struct {
	PlayerID string `json:"playerId"`
}

type PlayerRespawnedPayload struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Health int     `json:"health"`
}

type PlayerDisconnectedPayload struct {
	ID string `json:"id"`
}

type CubePickedPayload struct {
	PlayerID string `json:"playerId"`
}

type CubeDeliveredPayload struct {
	PlayerID string `json:"playerId"`
	Cube     Cube   `json:"cube"`
	Score    int    `json:"score"`
}
