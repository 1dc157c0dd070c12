package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/subosito/gotenv"
)

// Config is resolved once at process start and passed by value; nothing in
// the request path reads the environment.
type Config struct {
	AppEnv            string
	HTTPAddr          string
	MetricsAddr       string
	PlacesBase        string
	PlacesKey         string
	PlaceID           string
	PlacesRPS         int
	FetchInterval     time.Duration
	HeartbeatInterval time.Duration
}

// Load reads the environment (plus an optional .env file) into a Config.
// The Vite-prefixed variables are the names the frontend build already uses;
// they are accepted as fallbacks so one .env serves both sides.
func Load() Config {
	_ = gotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}

	appEnv := env("APP_ENV", env("NODE_ENV", "production"))

	// shorter defaults outside production so local runs show churn quickly
	fetchDef, heartbeatDef := 300, 30
	if appEnv != "production" && appEnv != "prod" {
		fetchDef, heartbeatDef = 30, 15
	}

	c := Config{
		AppEnv:            appEnv,
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       env("METRICS_ADDR", ""),
		PlacesBase:        env("GOOGLE_PLACES_BASE_URL", ""),
		PlacesKey:         env("GOOGLE_PLACES_API_KEY", env("VITE_GOOGLE_PLACES_API_KEY", "")),
		PlaceID:           env("GOOGLE_PLACE_ID", env("VITE_GOOGLE_PLACE_ID", "")),
		PlacesRPS:         atoi("PLACES_RPS", 5),
		FetchInterval:     time.Duration(atoi("REVIEWS_FETCH_SECONDS", fetchDef)) * time.Second,
		HeartbeatInterval: time.Duration(atoi("REVIEWS_HEARTBEAT_SECONDS", heartbeatDef)) * time.Second,
	}
	if c.PlacesKey == "" {
		log.Warn().Msg("GOOGLE_PLACES_API_KEY is empty")
	}
	if c.PlaceID == "" {
		log.Warn().Msg("GOOGLE_PLACE_ID is empty")
	}
	return c
}

// HasCredentials reports whether both provider credentials are present.
func (c Config) HasCredentials() bool { return c.PlacesKey != "" && c.PlaceID != "" }

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
