package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"certquiz-service/internal/generation"

	"github.com/joho/godotenv"
)

// ScoreBand labels a score range for the final result. The band table has
// shifted between releases (three bands, then six), so it stays configurable.
type ScoreBand struct {
	Min   int
	Label string
}

// Config holds every tunable of the service. Values come from the
// environment, optionally seeded from a .env file.
type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string

	RabbitURI      string
	RabbitExchange string

	CertifiedBaseURL string
	CertifiedAPIKey  string
	UpstreamTimeout  time.Duration
	TokenTTL         time.Duration

	Generation generation.Config
	ScoreBands []ScoreBand
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	baseURL := os.Getenv("CERTIFIED_API_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("CERTIFIED_API_URL is required")
	}

	cfg := &Config{
		Port:             envOr("PORT", "6666"),
		MongoURI:         mongoURI,
		MongoDatabase:    envOr("MONGO_DATABASE", "certquiz"),
		RabbitURI:        os.Getenv("RABBITMQ_URI"),
		RabbitExchange:   os.Getenv("RABBITMQ_EXCHANGE"),
		CertifiedBaseURL: strings.TrimRight(baseURL, "/"),
		CertifiedAPIKey:  os.Getenv("CERTIFIED_API_KEY"),
		UpstreamTimeout:  envDuration("CERTIFIED_API_TIMEOUT_SECONDS", 30*time.Second),
		TokenTTL:         envDuration("CERTIFIED_TOKEN_TTL_SECONDS", time.Hour),
		Generation:       generation.DefaultConfig(),
		ScoreBands:       defaultScoreBands(),
	}

	cfg.Generation.PollTimeout = envDuration("GENERATION_TIMEOUT_SECONDS", cfg.Generation.PollTimeout)
	cfg.Generation.PollInterval = envDuration("GENERATION_POLL_INTERVAL_SECONDS", cfg.Generation.PollInterval)

	// The cybersecurity id ranges are operationally tuned and drift across
	// releases; the environment overrides the shipped defaults.
	if v, ok := cfg.Generation.Variants["cybersecurity"]; ok {
		v.PreferredIDs[generation.TierEasy] = envIDs("CYBER_EASY_IDS", v.PreferredIDs[generation.TierEasy])
		v.PreferredIDs[generation.TierMedium] = envIDs("CYBER_MEDIUM_IDS", v.PreferredIDs[generation.TierMedium])
		v.PreferredIDs[generation.TierHard] = envIDs("CYBER_HARD_IDS", v.PreferredIDs[generation.TierHard])
		cfg.Generation.Variants["cybersecurity"] = v
	}

	return cfg, nil
}

// BandFor returns the label for a score out of ten.
func (c *Config) BandFor(score int) string {
	label := ""
	for _, band := range c.ScoreBands {
		if score >= band.Min {
			label = band.Label
		}
	}
	return label
}

func defaultScoreBands() []ScoreBand {
	return []ScoreBand{
		{Min: 0, Label: "beginner"},
		{Min: 3, Label: "novice"},
		{Min: 5, Label: "intermediate"},
		{Min: 7, Label: "proficient"},
		{Min: 9, Label: "advanced"},
		{Min: 10, Label: "expert"},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// envIDs parses a comma-separated id list, e.g. "1,2,3,4".
func envIDs(key string, fallback []int) []int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fallback
		}
		ids = append(ids, id)
	}
	return ids
}
