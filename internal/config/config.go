package config

import (
	"os"
	"strconv"
)

// Config holds runtime configuration, all overridable via env
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string

	TickIntervalMS     int // scheduler cadence
	LeaseWindowSec     int // how long an advance claim is held
	HeartbeatTTLSec    int // missed-beat window before a player counts as offline
	CampaignMinPlayers int // alive players needed for a round-1 marshal campaign
	MarshalBonusSec    int // extra speaking time for the elected marshal
}

// Load reads configuration from the environment
func Load() *Config {
	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "wolfden"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:  getEnv("PORT", "8080"),

		TickIntervalMS:     getEnvInt("TICK_INTERVAL_MS", 1000),
		LeaseWindowSec:     getEnvInt("LEASE_WINDOW_SEC", 15),
		HeartbeatTTLSec:    getEnvInt("HEARTBEAT_TTL_SEC", 10),
		CampaignMinPlayers: getEnvInt("CAMPAIGN_MIN_PLAYERS", 9),
		MarshalBonusSec:    getEnvInt("MARSHAL_BONUS_SEC", 30),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
