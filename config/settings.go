package config

import "time"

// Settings holds the process-wide configuration for the console core. It is
// read once at startup and treated as immutable for the process lifetime.
type Settings struct {
	// APIBaseURL is the base URL of the orchestrator HTTP API.
	APIBaseURL string
	// AppURL is the public URL of the dashboard itself, used for redirects.
	AppURL string
	// WatchtowerURL is the base URL of the push-channel endpoint. Empty means
	// "same host as the API".
	WatchtowerURL string

	// KeepAliveInterval is how often the channel sends a ping probe.
	KeepAliveInterval time.Duration
	// ServerTimeout is how long the channel tolerates silence before it
	// declares the connection dead.
	ServerTimeout time.Duration
	// ReconnectBaseDelay and ReconnectMaxDelay bound the exponential backoff
	// applied between reconnect attempts.
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration

	// RedisAddr, when set, enables the durable credential fallback so a
	// restarted session process can restore its token and profile.
	RedisAddr     string
	RedisPassword string
}

// LoadSettings reads Settings from the environment.
func LoadSettings() Settings {
	api := RequireEnv("API_BASE_URL")
	return Settings{
		APIBaseURL:         api,
		AppURL:             GetEnv("APP_URL", "http://localhost:3000"),
		WatchtowerURL:      GetEnv("WATCHTOWER_URL", api),
		KeepAliveInterval:  GetEnvDuration("KEEPALIVE_INTERVAL", 15*time.Second),
		ServerTimeout:      GetEnvDuration("SERVER_TIMEOUT", 60*time.Second),
		ReconnectBaseDelay: GetEnvDuration("RECONNECT_BASE_DELAY", time.Second),
		ReconnectMaxDelay:  GetEnvDuration("RECONNECT_MAX_DELAY", 30*time.Second),
		RedisAddr:          GetEnv("REDIS_ADDR", ""),
		RedisPassword:      GetEnv("REDIS_PASSWORD", ""),
	}
}
