package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingSecret = errors.New("SESSION_SECRET is required")

type Config struct {
	GRPCPort string
	WebPort  string

	SessionSecret      string
	SessionTokenTTL    time.Duration
	SessionIdleTimeout time.Duration

	StrictTransitions      bool
	SeedSampleAppointments bool
	DoctorsDatabaseURL     string

	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogFormat string
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	c := Config{
		GRPCPort:           env("PORT", "50051"),
		WebPort:            env("WEB_PORT", "8080"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		DoctorsDatabaseURL: os.Getenv("DOCTORS_DATABASE_URL"),
		LogLevel:           env("LOG_LEVEL", "info"),
		LogFormat:          env("LOG_FORMAT", "json"),
	}
	if c.SessionSecret == "" {
		return Config{}, ErrMissingSecret
	}

	var err error
	if c.SessionTokenTTL, err = envDuration("SESSION_TOKEN_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if c.SessionIdleTimeout, err = envDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if c.StrictTransitions, err = envBool("STRICT_STATUS_TRANSITIONS", false); err != nil {
		return Config{}, err
	}
	if c.SeedSampleAppointments, err = envBool("SEED_SAMPLE_APPOINTMENTS", true); err != nil {
		return Config{}, err
	}
	if c.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", 5); err != nil {
		return Config{}, err
	}
	if c.RateLimitBurst, err = envInt("RATE_LIMIT_BURST", 10); err != nil {
		return Config{}, err
	}
	return c, nil
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid bool %q", key, v)
	}
	return b, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return f, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}
