package model

// Role is a werewolf role card
type Role string

const (
	RoleVillager Role = "villager"
	RoleWolf     Role = "wolf"
	RoleSeer     Role = "seer"
	RoleWitch    Role = "witch"
	RoleGuard    Role = "guard"
	RoleHunter   Role = "hunter"
)

// Faction is a win-condition group
type Faction string

const (
	FactionOffense Faction = "offense" // wolves
	FactionDefense Faction = "defense" // villagers and gods
)

// FactionOf maps a role to its win-condition group
func FactionOf(role Role) Faction {
	if role == RoleWolf {
		return FactionOffense
	}
	return FactionDefense
}

// IsGod reports whether the role is a special defensive role
// (losing all of them while wolves remain loses the game)
func IsGod(role Role) bool {
	switch role {
	case RoleSeer, RoleWitch, RoleGuard, RoleHunter:
		return true
	}
	return false
}

// Seat is one seated player in a match
type Seat struct {
	Seat     int    `json:"seat" bson:"seat"` // 1-based seat number
	PlayerID string `json:"playerId" bson:"playerId"`
	Nickname string `json:"nickname" bson:"nickname"`
	Role     Role   `json:"role" bson:"role"`
	Alive    bool   `json:"alive" bson:"alive"`
}
