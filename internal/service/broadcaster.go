package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToMatch(matchID string, msgType string, payload interface{})
	BroadcastToPlayer(matchID, playerID string, msgType string, payload interface{})
}

// Broadcast message types pushed to clients
const (
	MsgPhaseChanged = "phase_changed"
	MsgSeatDied     = "seat_died"
	MsgMatchEnded   = "match_ended"
)
