package services

import (
	"log"
	"os"
	"strconv"
	"time"
)

// EngagementConfig holds the tunable engagement numbers (overridable via
// env, defaults below)
type EngagementConfig struct {
	MessageXP       int           // per qualifying group message
	RewardXP        int           // per successful reward claim
	BaseXP          int           // threshold for level 1 → 2
	LevelMultiplier float64       // threshold growth per level
	RewardWindow    time.Duration // how long a drop stays claimable
	RewardRange     int           // default messages between drops for new groups
}

var DefaultEngagementConfig = EngagementConfig{
	MessageXP:       10,
	RewardXP:        110,
	BaseXP:          100,
	LevelMultiplier: 1.5,
	RewardWindow:    10 * time.Minute,
	RewardRange:     20,
}

// LoadEngagementConfig reads overrides from the environment, falling back
// to DefaultEngagementConfig per field.
func LoadEngagementConfig() EngagementConfig {
	cfg := DefaultEngagementConfig
	cfg.MessageXP = envInt("MESSAGE_XP", cfg.MessageXP)
	cfg.RewardXP = envInt("REWARD_XP", cfg.RewardXP)
	cfg.BaseXP = envInt("BASE_XP", cfg.BaseXP)
	cfg.RewardRange = envInt("REWARD_RANGE", cfg.RewardRange)

	if v := os.Getenv("LEVEL_MULTIPLIER"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 1 {
			log.Printf("⚠️  Ignoring invalid LEVEL_MULTIPLIER=%q", v)
		} else {
			cfg.LevelMultiplier = f
		}
	}
	if v := os.Getenv("REWARD_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Printf("⚠️  Ignoring invalid REWARD_WINDOW=%q", v)
		} else {
			cfg.RewardWindow = d
		}
	}
	return cfg
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("⚠️  Ignoring invalid %s=%q", key, v)
		return fallback
	}
	return n
}
